package game

import (
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/timer"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Explosion визуальный эффект: живёт заданное время и сам возвращается в пул
type Explosion struct {
	pools *pool.Manager
	pos   vec.Vec2Float
	after float64
	delay timer.Delay
}

// NewExplosion создаёт эффект, исчезающий через despawnAfter секунд
func NewExplosion(pools *pool.Manager, despawnAfter float64) *Explosion {
	return &Explosion{pools: pools, after: despawnAfter}
}

func (e *Explosion) Place(pos vec.Vec2Float, _ vec.Direction) { e.pos = pos }

func (e *Explosion) Position() vec.Vec2Float { return e.pos }

func (e *Explosion) OnPoolSpawn() {
	e.delay.Start(e.after, func() { e.pools.Release(e) })
}

func (e *Explosion) OnPoolUnSpawn() {
	e.delay.Cancel()
}

func (e *Explosion) Tick(dt float64) {
	e.delay.Tick(dt)
}
