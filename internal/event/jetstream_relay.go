package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
)

// JetStreamRelay публикует игровые события в NATS JetStream.
type JetStreamRelay struct {
	nc        *nats.Conn
	js        nats.JetStreamContext
	stream    string
	published uint64
	dropped   uint64
}

// NewJetStreamRelay подключается к кластеру NATS и гарантирует наличие стрима.
// url: nats://127.0.0.1:4222, stream: "TANKS".
func NewJetStreamRelay(url, stream string, retention time.Duration) (*JetStreamRelay, error) {
	if stream == "" {
		stream = "TANKS"
	}

	nc, err := nats.Connect(url, nats.Name("tank-battalion"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Drain()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Стрим слушает subjects events.*
	if _, err = js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{"events.*"},
			Retention: nats.LimitsPolicy,
			MaxAge:    retention,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Drain()
			return nil, fmt.Errorf("add stream: %w", err)
		}
	}

	return &JetStreamRelay{nc: nc, js: js, stream: stream}, nil
}

// Publish сериализует Envelope в JSON и публикует в subject events.<type>.
func (jr *JetStreamRelay) Publish(ctx context.Context, ev *Envelope) error {
	subj := fmt.Sprintf("events.%s", ev.EventType)
	data, err := json.Marshal(ev)
	if err != nil {
		atomic.AddUint64(&jr.dropped, 1)
		return err
	}
	if _, err = jr.js.Publish(subj, data, nats.Context(ctx), nats.MsgId(ev.ID)); err != nil {
		atomic.AddUint64(&jr.dropped, 1)
		return err
	}
	atomic.AddUint64(&jr.published, 1)
	return nil
}

// Metrics возвращает текущие счётчики.
func (jr *JetStreamRelay) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&jr.published),
		Dropped:   atomic.LoadUint64(&jr.dropped),
	}
}

// Close сбрасывает буферы и закрывает соединение
func (jr *JetStreamRelay) Close() error {
	return jr.nc.Drain()
}
