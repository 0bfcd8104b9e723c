package game

import (
	"github.com/annel0/tank-battalion/internal/combat"
	"github.com/annel0/tank-battalion/internal/movement"
	"github.com/annel0/tank-battalion/internal/physics"
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/terrain"
	"github.com/annel0/tank-battalion/internal/vec"
	"github.com/annel0/tank-battalion/internal/weapon"
)

// tankSize сторона коллайдера танка; меньше клетки, чтобы соседи не касались
const tankSize = 0.9

// TankOptions параметры сборки танка
type TankOptions struct {
	Name      string
	Layer     physics.Layer
	Health    combat.Config
	Movement  movement.Config
	Weapon    pool.Prototype // начальное оружие, может быть nil
	Occupancy terrain.Occupancy
}

// Tank сущность из здоровья, движения, оружия и тела
type Tank struct {
	name        string
	health      *combat.Health
	mover       *movement.Mover
	handler     *weapon.Handler
	body        *physics.Body
	space       *physics.Space
	pools       *pool.Manager
	initial     pool.Prototype
	controllers []Controller
}

// NewTank собирает танк. Возврат в пул после смерти выполняет pools.
func NewTank(opts TankOptions, space *physics.Space, pools *pool.Manager) *Tank {
	t := &Tank{
		name:    opts.Name,
		space:   space,
		pools:   pools,
		initial: opts.Weapon,
	}
	t.body = &physics.Body{
		Owner:    t,
		Collider: physics.NewBoxCollider(tankSize, tankSize),
		Layer:    opts.Layer,
	}

	hc := opts.Health
	hc.DisableCollisionsOnDeath = true
	t.health = combat.NewHealth(t, hc)
	t.health.SetCollider(t.body)
	t.health.SetReclaim(func() { pools.Release(t) })
	t.health.Killed.Subscribe(func(interface{}) { t.mover.OnDeath() })

	t.mover = movement.NewMover(opts.Movement, opts.Occupancy)
	t.handler = weapon.NewHandler(pools, t, opts.Weapon, t.health.IsAlive)
	return t
}

// AddController подключает мозг танка (игрок или ИИ)
func (t *Tank) AddController(c Controller) {
	t.controllers = append(t.controllers, c)
}

func (t *Tank) Name() string { return t.name }

func (t *Tank) Health() *combat.Health { return t.health }

func (t *Tank) Mover() *movement.Mover { return t.mover }

func (t *Tank) Weapons() *weapon.Handler { return t.handler }

func (t *Tank) Body() *physics.Body { return t.body }

// Position центр танка
func (t *Tank) Position() vec.Vec2Float { return t.mover.Position() }

// Facing направление ствола
func (t *Tank) Facing() vec.Direction { return t.mover.Facing() }

// MuzzlePosition конец ствола: край танка по направлению взгляда
func (t *Tank) MuzzlePosition() vec.Vec2Float {
	return t.mover.Position().Add(t.mover.Facing().Forward().Mul(0.5))
}

func (t *Tank) Place(pos vec.Vec2Float, facing vec.Direction) {
	t.mover.Place(pos, facing)
	t.body.Pos = pos
}

// Damage наносит урон танку
func (t *Tank) Damage(amount int) { t.health.Damage(amount) }

// BoostSpeed ускоряет танк (бонус)
func (t *Tank) BoostSpeed(duration, length float64) { t.mover.BoostSpeed(duration, length) }

func (t *Tank) OnPoolSpawn() {
	t.health.OnPoolSpawn()
	t.mover.OnPoolSpawn()
	t.body.Pos = t.mover.Position()
	t.body.Velocity = vec.Zero
	t.space.Add(t.body)
	if t.initial != nil && t.handler.CurrentPrototype() != t.initial {
		t.handler.RestoreInitialWeapon()
	}
	for _, c := range t.controllers {
		c.Reset()
	}
}

func (t *Tank) OnPoolUnSpawn() {
	t.body.Enabled = false
	t.space.Remove(t.body)
	t.mover.SetInput(vec.Zero)
}

// Destroy убирает танк, созданный вне пула
func (t *Tank) Destroy() { t.OnPoolUnSpawn() }

func (t *Tank) FixedTick(dt float64) {
	t.mover.FixedTick(dt)
	t.body.Pos = t.mover.Position()
}

func (t *Tank) Tick(dt float64) {
	if t.health.IsAlive() {
		for _, c := range t.controllers {
			c.Tick(dt)
		}
	}
	t.handler.Tick(dt)
	t.health.Tick(dt)
}
