// Package spawner выпускает волну вражеских танков и считает, сколько осталось уничтожить.
package spawner

import (
	"math/rand"

	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/timer"
	"github.com/annel0/tank-battalion/internal/vec"
)

// State состояние волны
type State uint8

const (
	Idle State = iota
	Spawning
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Spawning:
		return "Spawning"
	case Complete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Config параметры волны
type Config struct {
	InitialDelay       float64
	DelayBetweenSpawns float64
	Cap                int
	SpawnPoints        []vec.Vec2Float
	Facing             vec.Direction // направление только что появившегося танка
}

// Spawner контроллер волны врагов
type Spawner struct {
	cfg   Config
	pools *pool.Manager
	proto pool.Prototype
	rng   *rand.Rand

	state     State
	spawned   int
	remaining int
	delay     timer.Delay

	// RemainingChanged получает число врагов, которых осталось уничтожить
	RemainingChanged *event.Channel[int]
	// WaveComplete срабатывает, когда уничтожены все враги волны
	WaveComplete *event.Signal
	// Spawned получает каждого выпущенного врага
	Spawned *event.Channel[pool.Object]
}

// New создаёт контроллер волны. rng задаёт выбор точек появления.
func New(cfg Config, pools *pool.Manager, enemy pool.Prototype, rng *rand.Rand) *Spawner {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if cfg.Cap < 0 {
		cfg.Cap = 0
	}
	return &Spawner{
		cfg:              cfg,
		pools:            pools,
		proto:            enemy,
		rng:              rng,
		RemainingChanged: event.NewChannel[int](),
		WaveComplete:     event.NewSignal(),
		Spawned:          event.NewChannel[pool.Object](),
	}
}

func (s *Spawner) State() State { return s.state }

// SpawnedCount сколько врагов выпущено в текущей волне
func (s *Spawner) SpawnedCount() int { return s.spawned }

// Remaining сколько врагов осталось уничтожить
func (s *Spawner) Remaining() int { return s.remaining }

func (s *Spawner) Cap() int { return s.cfg.Cap }

// OnLevelStarted сбрасывает счётчики и запускает цикл появления
func (s *Spawner) OnLevelStarted() {
	s.delay.Cancel()
	s.spawned = 0
	s.remaining = s.cfg.Cap
	s.state = Spawning
	s.RemainingChanged.Fire(s.remaining)

	if s.remaining == 0 {
		s.complete()
		return
	}
	logging.Info("👾 Волна началась: %d врагов", s.cfg.Cap)
	s.delay.Start(s.cfg.InitialDelay, s.spawnStep)
}

func (s *Spawner) spawnStep() {
	if s.state != Spawning {
		return
	}
	if s.spawned < s.cfg.Cap {
		s.spawnOne()
	}
	if s.spawned < s.cfg.Cap {
		s.delay.Start(s.cfg.DelayBetweenSpawns, s.spawnStep)
	}
}

func (s *Spawner) spawnOne() {
	if s.proto == nil {
		logging.Warn("spawner: прототип врага не задан")
		return
	}
	if len(s.cfg.SpawnPoints) == 0 {
		logging.Warn("spawner: нет точек появления")
		return
	}

	point := s.cfg.SpawnPoints[s.rng.Intn(len(s.cfg.SpawnPoints))]
	obj := s.pools.Acquire(s.proto, point, s.cfg.Facing)
	if obj == nil {
		return
	}
	s.spawned++
	logging.Debug("spawner: враг %d/%d в (%.1f, %.1f)", s.spawned, s.cfg.Cap, point.X, point.Y)
	s.Spawned.Fire(obj)
}

// RemoveEnemy учитывает уничтоженного врага
func (s *Spawner) RemoveEnemy(obj pool.Object) {
	if s.remaining > 0 {
		s.remaining--
	}
	s.RemainingChanged.Fire(s.remaining)
	if s.remaining == 0 && s.state == Spawning {
		s.complete()
	}
}

func (s *Spawner) complete() {
	s.delay.Cancel()
	s.state = Complete
	logging.Info("🏁 Волна завершена")
	s.WaveComplete.Fire()
}

// Stop прерывает цикл появления без завершения волны
func (s *Spawner) Stop() {
	s.delay.Cancel()
	if s.state == Spawning {
		s.state = Idle
	}
}

// Tick продвигает ожидание следующего появления
func (s *Spawner) Tick(dt float64) {
	s.delay.Tick(dt)
}
