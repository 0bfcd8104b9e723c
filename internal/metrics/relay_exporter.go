package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RelayExporter периодически переносит Stats ретранслятора событий в Prometheus.
// Ретранслятор считает сам; экспортер только прибавляет дельту к counters.
type RelayExporter struct {
	relay    event.Relay
	interval time.Duration
	quit     chan struct{}
	done     chan struct{}

	mu   sync.Mutex
	prev event.Stats

	published prometheus.Counter
	dropped   prometheus.Counter
}

// NewRelayExporter создаёт экспортер, но не запускает опрос
func NewRelayExporter(relay event.Relay, reg prometheus.Registerer) *RelayExporter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	re := &RelayExporter{
		relay:    relay,
		interval: time.Second,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "events_published_total",
			Help:      "Общее число опубликованных событий арены.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "events_dropped_total",
			Help:      "Событий, не доставленных из-за ошибок.",
		}),
	}
	reg.MustRegister(re.published, re.dropped)
	return re
}

// Start запускает фоновый опрос ретранслятора
func (re *RelayExporter) Start() {
	go re.loop()
}

// StartHTTP поднимает отдельный /metrics на addr (например, ":2112") и запускает опрос.
// Метод неблокирующий.
func (re *RelayExporter) StartHTTP(addr string) {
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	re.Start()
}

// Stop останавливает опрос. Последние значения успевают попасть в counters.
func (re *RelayExporter) Stop() {
	close(re.quit)
	<-re.done
}

// Collect переносит накопившуюся дельту сразу
func (re *RelayExporter) Collect() {
	re.mu.Lock()
	defer re.mu.Unlock()
	stats := re.relay.Metrics()

	if d := stats.Published - re.prev.Published; stats.Published > re.prev.Published {
		re.published.Add(float64(d))
	}
	if d := stats.Dropped - re.prev.Dropped; stats.Dropped > re.prev.Dropped {
		re.dropped.Add(float64(d))
	}
	re.prev = stats
}

func (re *RelayExporter) loop() {
	ticker := time.NewTicker(re.interval)
	defer ticker.Stop()
	defer close(re.done)

	for {
		select {
		case <-ticker.C:
			re.Collect()
		case <-re.quit:
			re.Collect()
			return
		}
	}
}
