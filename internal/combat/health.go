// Package combat хранит очки здоровья сущностей и их переход к смерти.
package combat

import (
	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/timer"
)

// State состояние здоровья
type State uint8

const (
	Alive State = iota
	Dying
	Reclaimed
)

func (s State) String() string {
	switch s {
	case Alive:
		return "Alive"
	case Dying:
		return "Dying"
	case Reclaimed:
		return "Reclaimed"
	default:
		return "Unknown"
	}
}

// Collider то, что выключается на время смерти
type Collider interface {
	SetEnabled(enabled bool)
}

// Animator принимает триггеры анимации
type Animator interface {
	SetTrigger(name string)
}

// Damageable всё, чему можно нанести урон
type Damageable interface {
	Damage(amount int)
}

// Config параметры здоровья
type Config struct {
	MaxHealth                int
	DeathDelay               float64 // секунды до возврата в пул
	DisableCollisionsOnDeath bool
	DeathTrigger             string // триггер аниматора при смерти
}

// Health очки здоровья сущности
type Health struct {
	cfg     Config
	current int
	state   State
	owner   interface{}

	collider Collider
	animator Animator
	reclaim  func()
	delay    timer.Delay

	// Killed срабатывает один раз в начале смерти, значение — владелец
	Killed *event.Channel[interface{}]
	// Changed получает текущее здоровье после каждого изменения
	Changed *event.Channel[int]
}

// NewHealth создаёт здоровье с полным запасом
func NewHealth(owner interface{}, cfg Config) *Health {
	if cfg.MaxHealth <= 0 {
		logging.Warn("combat: MaxHealth=%d для %T, используем 1", cfg.MaxHealth, owner)
		cfg.MaxHealth = 1
	}
	if cfg.DeathTrigger == "" {
		cfg.DeathTrigger = "Death"
	}
	return &Health{
		cfg:     cfg,
		current: cfg.MaxHealth,
		owner:   owner,
		Killed:  event.NewChannel[interface{}](),
		Changed: event.NewChannel[int](),
	}
}

// SetCollider задаёт коллайдер, выключаемый при смерти
func (h *Health) SetCollider(c Collider) { h.collider = c }

// SetAnimator задаёт аниматор для триггера смерти
func (h *Health) SetAnimator(a Animator) { h.animator = a }

// SetReclaim задаёт возврат владельца в пул после смерти
func (h *Health) SetReclaim(fn func()) { h.reclaim = fn }

func (h *Health) Current() int { return h.current }

func (h *Health) Max() int { return h.cfg.MaxHealth }

func (h *Health) State() State { return h.state }

// IsAlive true, пока здоровье не кончилось
func (h *Health) IsAlive() bool { return h.state == Alive }

// Damage снимает здоровье. Мёртвому или уже обнулённому урон не наносится.
func (h *Health) Damage(amount int) {
	if amount <= 0 || h.state != Alive || h.current <= 0 {
		return
	}
	h.current -= amount
	if h.current < 0 {
		h.current = 0
	}
	h.Changed.Fire(h.current)
	if h.current == 0 {
		h.die()
	}
}

// AddHealth лечит не выше максимума. Мёртвых не воскрешает.
func (h *Health) AddHealth(amount int) {
	if amount <= 0 || h.state != Alive {
		return
	}
	h.current += amount
	if h.current > h.cfg.MaxHealth {
		h.current = h.cfg.MaxHealth
	}
	h.Changed.Fire(h.current)
}

// Kill убивает сущность независимо от остатка здоровья
func (h *Health) Kill() {
	h.Damage(h.current)
}

func (h *Health) die() {
	h.state = Dying
	if h.cfg.DisableCollisionsOnDeath && h.collider != nil {
		h.collider.SetEnabled(false)
	}
	if h.animator != nil {
		h.animator.SetTrigger(h.cfg.DeathTrigger)
	}
	h.Killed.Fire(h.owner)

	// Обработчик Killed мог уже вернуть владельца в пул и оживить его
	if h.state != Dying {
		return
	}
	h.delay.Start(h.cfg.DeathDelay, h.reclaimNow)
}

func (h *Health) reclaimNow() {
	h.state = Reclaimed
	if h.reclaim != nil {
		h.reclaim()
	}
}

// OnPoolSpawn полностью восстанавливает здоровье при выдаче из пула
func (h *Health) OnPoolSpawn() {
	h.delay.Cancel()
	h.state = Alive
	h.current = h.cfg.MaxHealth
	if h.collider != nil {
		h.collider.SetEnabled(true)
	}
}

// Tick продвигает задержку перед возвратом в пул
func (h *Health) Tick(dt float64) {
	h.delay.Tick(dt)
}
