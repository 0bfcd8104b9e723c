// Package metrics публикует состояние арены в Prometheus.
package metrics

import (
	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/game"
	"github.com/annel0/tank-battalion/internal/score"
	"github.com/prometheus/client_golang/prometheus"
)

// GameMetrics счётчики и датчики одной арены.
//
// Метрики:
// * tanks_enemies_killed_total — counter
// * tanks_shots_fired_total — counter
// * tanks_items_picked_total{item} — counter
// * tanks_pool_operations_total{prototype,op} — counter (acquire/release)
// * tanks_wave_remaining, tanks_lives, tanks_score, tanks_high_score — gauge
type GameMetrics struct {
	kills     prometheus.Counter
	shots     prometheus.Counter
	items     *prometheus.CounterVec
	poolOps   *prometheus.CounterVec
	remaining prometheus.Gauge
	lives     prometheus.Gauge
	score     prometheus.Gauge
	highScore prometheus.Gauge

	subs event.Subscriptions
}

// NewGameMetrics создаёт метрики и регистрирует их в reg (nil — дефолтный регистр)
func NewGameMetrics(reg prometheus.Registerer) *GameMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	const ns = "tanks"
	gm := &GameMetrics{
		kills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "enemies_killed_total",
			Help:      "Уничтожено вражеских танков.",
		}),
		shots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "shots_fired_total",
			Help:      "Выстрелов всех танков.",
		}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "items_picked_total",
			Help:      "Подобранных бонусов.",
		}, []string{"item"}),
		poolOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "pool_operations_total",
			Help:      "Выдачи и возвраты объектов пулов.",
		}, []string{"prototype", "op"}),
		remaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "wave_remaining",
			Help:      "Сколько врагов волны осталось уничтожить.",
		}),
		lives: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "lives",
			Help:      "Оставшиеся жизни игрока.",
		}),
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "score",
			Help:      "Очки текущей партии.",
		}),
		highScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "high_score",
			Help:      "Лучший результат в таблице рекордов.",
		}),
	}
	reg.MustRegister(gm.kills, gm.shots, gm.items, gm.poolOps, gm.remaining, gm.lives, gm.score, gm.highScore)
	return gm
}

// Attach подписывает метрики на каналы арены. Повторный вызов снимает прежние подписки.
func (gm *GameMetrics) Attach(a *game.Arena) {
	gm.Detach()

	gm.subs.Add(a.EnemyKilled.Subscribe(func(*game.Tank) { gm.kills.Inc() }))
	gm.subs.Add(a.ShotFired.Subscribe(func() { gm.shots.Inc() }))
	gm.subs.Add(a.ItemPicked.Subscribe(func(id string) { gm.items.WithLabelValues(id).Inc() }))
	gm.subs.Add(a.PoolActivity.Subscribe(func(ev game.PoolEvent) {
		op := "release"
		if ev.Acquired {
			op = "acquire"
		}
		gm.poolOps.WithLabelValues(ev.ID, op).Inc()
	}))
	gm.subs.Add(a.Spawner.RemainingChanged.Subscribe(func(n int) { gm.remaining.Set(float64(n)) }))
	gm.subs.Add(a.Lives.LivesUpdated.Subscribe(func(n int) { gm.lives.Set(float64(n)) }))
	gm.subs.Add(a.Level.ScoreChanged.Subscribe(func(n int) { gm.score.Set(float64(n)) }))
	if a.Ledger != nil {
		ledger := a.Ledger
		gm.subs.Add(a.Level.HighScoreRecorded.Subscribe(func(score.HighScore) {
			gm.highScore.Set(float64(ledger.CurrentHighScore()))
		}))
		gm.highScore.Set(float64(ledger.CurrentHighScore()))
	}
	gm.lives.Set(float64(a.Lives.Current()))
}

// Detach снимает все подписки
func (gm *GameMetrics) Detach() {
	gm.subs.UnsubscribeAll()
}
