package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/google/uuid"
)

// Envelope описывает игровое событие, уходящее за пределы процесса.
type Envelope struct {
	ID        string          // Глобально уникальный идентификатор (UUID).
	Timestamp time.Time       // Время создания события (UTC).
	Source    string          // Имя источника (arena, level, spawner…).
	EventType string          // Тип события (EnemyKilled, WaveComplete…).
	Version   int             // Схема полезной нагрузки.
	Payload   json.RawMessage // JSON полезной нагрузки.
}

// NewEnvelope упаковывает payload в JSON-конверт
func NewEnvelope(source, eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Payload:   data,
	}, nil
}

// Filter позволяет получать только нужные события.
type Filter struct {
	Types   []string // Если пусто — все типы.
	Sources []string // Если пусто — все источники.
}

// Stats агрегированные счётчики ретранслятора.
type Stats struct {
	Published uint64
	Dropped   uint64
}

// Relay пересылает события наружу (в NATS, в лог, в память для тестов).
type Relay interface {
	Publish(ctx context.Context, ev *Envelope) error
	Metrics() Stats
}

// Forward подписывает ретранслятор на канал. encode превращает значение
// канала в сериализуемую полезную нагрузку; nil означает само значение.
// Ошибки публикации логируются и не прерывают игровой цикл.
func Forward[T any](ch *Channel[T], relay Relay, source, eventType string, encode func(T) interface{}) Subscription {
	return ch.Subscribe(func(v T) {
		var payload interface{} = v
		if encode != nil {
			payload = encode(v)
		}
		ev, err := NewEnvelope(source, eventType, payload)
		if err != nil {
			logging.Warn("event: %v", err)
			return
		}
		if err := relay.Publish(context.Background(), ev); err != nil {
			logging.Warn("event: публикация %s не удалась: %v", eventType, err)
		}
	})
}

// ForwardSignal подписывает ретранслятор на сигнал без полезной нагрузки
func ForwardSignal(s *Signal, relay Relay, source, eventType string) Subscription {
	return Forward(&s.ch, relay, source, eventType, func(struct{}) interface{} { return nil })
}

//================ In-Memory implementation =================//

// MemoryRelay хранит опубликованные конверты и синхронно раздаёт их подписчикам.
type MemoryRelay struct {
	mu          sync.RWMutex
	envelopes   []*Envelope
	subscribers map[int]memorySubscriber
	nextID      int
	stats       Stats
	capacity    int
}

type memorySubscriber struct {
	filter  Filter
	handler func(ctx context.Context, ev *Envelope)
}

// NewMemoryRelay создаёт ретранслятор, хранящий не более capacity последних событий.
// capacity <= 0 — без ограничения.
func NewMemoryRelay(capacity int) *MemoryRelay {
	return &MemoryRelay{
		subscribers: make(map[int]memorySubscriber),
		capacity:    capacity,
	}
}

func (mr *MemoryRelay) Publish(ctx context.Context, ev *Envelope) error {
	if err := ctx.Err(); err != nil {
		mr.mu.Lock()
		mr.stats.Dropped++
		mr.mu.Unlock()
		return err
	}

	mr.mu.Lock()
	mr.envelopes = append(mr.envelopes, ev)
	if mr.capacity > 0 && len(mr.envelopes) > mr.capacity {
		mr.envelopes = mr.envelopes[len(mr.envelopes)-mr.capacity:]
	}
	mr.stats.Published++
	subs := make([]memorySubscriber, 0, len(mr.subscribers))
	for _, sub := range mr.subscribers {
		subs = append(subs, sub)
	}
	mr.mu.Unlock()

	for _, sub := range subs {
		if matchFilter(ev, sub.filter) {
			sub.handler(ctx, ev)
		}
	}
	return nil
}

// Subscribe регистрирует обработчик для событий, подходящих под фильтр
func (mr *MemoryRelay) Subscribe(f Filter, h func(ctx context.Context, ev *Envelope)) Subscription {
	mr.mu.Lock()
	id := mr.nextID
	mr.nextID++
	mr.subscribers[id] = memorySubscriber{filter: f, handler: h}
	mr.mu.Unlock()

	return &memorySub{relay: mr, id: id}
}

// Envelopes возвращает копию сохранённых событий, подходящих под фильтр
func (mr *MemoryRelay) Envelopes(f Filter) []*Envelope {
	mr.mu.RLock()
	defer mr.mu.RUnlock()

	out := make([]*Envelope, 0, len(mr.envelopes))
	for _, ev := range mr.envelopes {
		if matchFilter(ev, f) {
			out = append(out, ev)
		}
	}
	return out
}

func (mr *MemoryRelay) Metrics() Stats {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.stats
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

type memorySub struct {
	relay *MemoryRelay
	id    int
}

func (s *memorySub) Unsubscribe() {
	s.relay.mu.Lock()
	delete(s.relay.subscribers, s.id)
	s.relay.mu.Unlock()
}

// LoggingRelay пишет каждое событие в DEBUG-лог и передаёт его дальше.
type LoggingRelay struct {
	next Relay
}

// NewLoggingRelay оборачивает next; next может быть nil.
func NewLoggingRelay(next Relay) *LoggingRelay {
	logging.Info("🪵 LoggingRelay: журналирование игровых событий активировано")
	return &LoggingRelay{next: next}
}

func (lr *LoggingRelay) Publish(ctx context.Context, ev *Envelope) error {
	logging.Debug("[Events] %s %s src=%s size=%dB", ev.ID, ev.EventType, ev.Source, len(ev.Payload))
	if lr.next == nil {
		return nil
	}
	return lr.next.Publish(ctx, ev)
}

func (lr *LoggingRelay) Metrics() Stats {
	if lr.next == nil {
		return Stats{}
	}
	return lr.next.Metrics()
}
