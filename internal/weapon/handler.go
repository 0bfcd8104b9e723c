// Package weapon описывает оружие танков: обработчик, снарядное оружие и лазерный луч.
package weapon

import (
	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Mount точка крепления оружия (конец ствола танка)
type Mount interface {
	MuzzlePosition() vec.Vec2Float
	Facing() vec.Direction
}

// Weapon оружие, установленное на танк
type Weapon interface {
	pool.Object
	Fire()
	Attach(m Mount)
}

// Ticker оружие, которому нужен кадровый тик (луч)
type Ticker interface {
	Tick(dt float64)
}

// Handler держит не больше одного установленного оружия
type Handler struct {
	pools        *pool.Manager
	mount        Mount
	initial      pool.Prototype
	current      Weapon
	currentProto pool.Prototype
	alive        func() bool

	// Fired срабатывает на каждый выстрел
	Fired *event.Signal
}

// NewHandler создаёт обработчик и сразу ставит начальное оружие, если оно задано.
// alive может быть nil: тогда стрелять можно всегда.
func NewHandler(pools *pool.Manager, mount Mount, initial pool.Prototype, alive func() bool) *Handler {
	h := &Handler{
		pools:   pools,
		mount:   mount,
		initial: initial,
		alive:   alive,
		Fired:   event.NewSignal(),
	}
	if initial == nil {
		logging.Debug("weapon: начальное оружие не задано")
		return h
	}
	h.SwapWeapon(initial)
	return h
}

// FireWeapon стреляет текущим оружием, если оно есть и владелец жив
func (h *Handler) FireWeapon() {
	if h.current == nil {
		return
	}
	if h.alive != nil && !h.alive() {
		return
	}
	h.current.Fire()
	h.Fired.Fire()
}

// SwapWeapon возвращает текущее оружие в пул и ставит новое
func (h *Handler) SwapWeapon(p pool.Prototype) {
	if h.current != nil {
		h.pools.Release(h.current)
		h.current = nil
		h.currentProto = nil
	}
	if p == nil {
		return
	}

	obj := h.pools.Acquire(p, h.mount.MuzzlePosition(), h.mount.Facing())
	w, ok := obj.(Weapon)
	if !ok {
		logging.Warn("weapon: прототип %s создаёт %T, а не оружие", p.ID(), obj)
		h.pools.Release(obj)
		return
	}
	w.Attach(h.mount)
	h.current = w
	h.currentProto = p
}

// RestoreInitialWeapon возвращает начальное оружие, если оно задано
func (h *Handler) RestoreInitialWeapon() {
	if h.initial == nil {
		return
	}
	h.SwapWeapon(h.initial)
}

// CurrentWeapon текущее оружие или nil
func (h *Handler) CurrentWeapon() Weapon { return h.current }

// CurrentPrototype прототип текущего оружия или nil
func (h *Handler) CurrentPrototype() pool.Prototype { return h.currentProto }

// Tick продвигает оружие, которому нужен кадровый тик
func (h *Handler) Tick(dt float64) {
	if t, ok := h.current.(Ticker); ok {
		t.Tick(dt)
	}
}
