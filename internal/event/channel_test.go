package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_FiresInSubscriptionOrder(t *testing.T) {
	ch := NewChannel[int]()
	var got []string
	ch.Subscribe(func(v int) { got = append(got, "a") })
	ch.Subscribe(func(v int) { got = append(got, "b") })

	ch.Fire(1)

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, uint64(1), ch.Fired())
}

func TestChannel_UnsubscribeIsIdempotent(t *testing.T) {
	ch := NewChannel[int]()
	calls := 0
	sub := ch.Subscribe(func(int) { calls++ })
	other := ch.Subscribe(func(int) {})

	sub.Unsubscribe()
	sub.Unsubscribe()
	ch.Fire(5)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, ch.ListenerCount(), "второй подписчик должен остаться")
	other.Unsubscribe()
	assert.Equal(t, 0, ch.ListenerCount())
}

func TestChannel_UnsubscribeInsideListener(t *testing.T) {
	ch := NewChannel[string]()
	var sub Subscription
	first, second := 0, 0
	sub = ch.Subscribe(func(string) {
		first++
		sub.Unsubscribe()
	})
	ch.Subscribe(func(string) { second++ })

	ch.Fire("x")
	ch.Fire("y")

	assert.Equal(t, 1, first, "отписавшийся обработчик вызывается один раз")
	assert.Equal(t, 2, second, "снимок списка не теряет соседей")
}

func TestSignal(t *testing.T) {
	s := NewSignal()
	n := 0
	var subs Subscriptions
	subs.Add(s.Subscribe(func() { n++ }))
	subs.Add(s.Subscribe(func() { n++ }))

	s.Fire()
	subs.UnsubscribeAll()
	s.Fire()

	assert.Equal(t, 2, n)
	assert.Equal(t, uint64(2), s.Fired())
	assert.Equal(t, 0, s.ListenerCount())
}

func TestForward_PublishesEnvelopes(t *testing.T) {
	relay := NewMemoryRelay(0)
	ch := NewChannel[int]()
	sub := Forward(ch, relay, "level", "ScoreChanged", nil)

	ch.Fire(300)
	sub.Unsubscribe()
	ch.Fire(400)

	envs := relay.Envelopes(Filter{Types: []string{"ScoreChanged"}})
	require.Len(t, envs, 1)
	assert.Equal(t, "level", envs[0].Source)
	assert.NotEmpty(t, envs[0].ID)

	var score int
	require.NoError(t, json.Unmarshal(envs[0].Payload, &score))
	assert.Equal(t, 300, score)
	assert.Equal(t, uint64(1), relay.Metrics().Published)
}

func TestForwardSignal_AndFilters(t *testing.T) {
	relay := NewMemoryRelay(1)
	s := NewSignal()
	ForwardSignal(s, relay, "spawner", "WaveComplete")

	delivered := 0
	relay.Subscribe(Filter{Sources: []string{"spawner"}}, func(ctx context.Context, ev *Envelope) {
		delivered++
	})
	relay.Subscribe(Filter{Sources: []string{"level"}}, func(ctx context.Context, ev *Envelope) {
		t.Fatalf("фильтр по источнику не сработал")
	})

	s.Fire()
	s.Fire()

	assert.Equal(t, 2, delivered)
	assert.Len(t, relay.Envelopes(Filter{}), 1, "хранится не больше capacity событий")
}

func TestMemoryRelay_CancelledContext(t *testing.T) {
	relay := NewMemoryRelay(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev, err := NewEnvelope("test", "Noop", map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Error(t, relay.Publish(ctx, ev))
	assert.Equal(t, uint64(1), relay.Metrics().Dropped)
}

func TestLoggingRelay_PassesThrough(t *testing.T) {
	inner := NewMemoryRelay(0)
	lr := NewLoggingRelay(inner)

	ev, err := NewEnvelope("test", "Ping", nil)
	require.NoError(t, err)
	require.NoError(t, lr.Publish(context.Background(), ev))
	assert.Equal(t, uint64(1), lr.Metrics().Published)

	assert.NoError(t, NewLoggingRelay(nil).Publish(context.Background(), ev))
}
