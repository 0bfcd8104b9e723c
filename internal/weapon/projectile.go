package weapon

import (
	"github.com/annel0/tank-battalion/internal/combat"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/physics"
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/vec"
)

// tileProbe сдвиг точки контакта внутрь стены
const tileProbe = 0.01

// DestructibleTerrain стены, которым можно нанести урон
type DestructibleTerrain interface {
	DamageAt(pos vec.Vec2Float, damage int) bool
}

// Launchable объект, которому задают скорость при выстреле
type Launchable interface {
	Launch(velocity vec.Vec2Float)
}

// ProjectileWeapon выпускает снаряд из пула вдоль направления ствола
type ProjectileWeapon struct {
	pools      *pool.Manager
	projectile pool.Prototype
	speed      float64
	mount      Mount
	pos        vec.Vec2Float
}

// NewProjectileWeapon создаёт снарядное оружие
func NewProjectileWeapon(pools *pool.Manager, projectile pool.Prototype, speed float64) *ProjectileWeapon {
	return &ProjectileWeapon{pools: pools, projectile: projectile, speed: speed}
}

func (w *ProjectileWeapon) Place(pos vec.Vec2Float, _ vec.Direction) { w.pos = pos }

func (w *ProjectileWeapon) Attach(m Mount) { w.mount = m }

// Fire выпускает один снаряд
func (w *ProjectileWeapon) Fire() {
	if w.mount == nil || w.projectile == nil {
		logging.Warn("weapon: снарядное оружие не настроено")
		return
	}
	facing := w.mount.Facing()
	obj := w.pools.Acquire(w.projectile, w.mount.MuzzlePosition(), facing)
	if l, ok := obj.(Launchable); ok {
		l.Launch(facing.Forward().Mul(w.speed))
	}
}

// ProjectileConfig параметры снаряда
type ProjectileConfig struct {
	Damage       int
	KillOnImpact bool
	Size         float64
	Mask         physics.Layer // в кого попадает снаряд
}

// Projectile движущееся тело, наносящее урон при касании
type Projectile struct {
	cfg    ProjectileConfig
	body   *physics.Body
	space  *physics.Space
	pools  *pool.Manager
	walls  DestructibleTerrain
	health *combat.Health
}

// NewProjectile создаёт снаряд; walls может быть nil
func NewProjectile(cfg ProjectileConfig, space *physics.Space, pools *pool.Manager, walls DestructibleTerrain) *Projectile {
	if cfg.Size <= 0 {
		cfg.Size = 0.25
	}
	p := &Projectile{cfg: cfg, space: space, pools: pools, walls: walls}
	p.body = &physics.Body{
		Owner:    p,
		Collider: physics.NewBoxCollider(cfg.Size, cfg.Size),
		Layer:    physics.LayerProjectile,
		Mask:     cfg.Mask,
	}
	p.body.OnContact = p.OnContact
	return p
}

// SetHealth даёт снаряду собственное здоровье: при попадании он убивает себя
func (p *Projectile) SetHealth(h *combat.Health) {
	p.health = h
	h.SetCollider(p.body)
}

func (p *Projectile) Body() *physics.Body { return p.body }

func (p *Projectile) Health() *combat.Health { return p.health }

func (p *Projectile) Place(pos vec.Vec2Float, _ vec.Direction) {
	p.body.Pos = pos
}

func (p *Projectile) Launch(velocity vec.Vec2Float) {
	p.body.Velocity = velocity
}

// Damage урон по снаряду (например, встречным снарядом)
func (p *Projectile) Damage(amount int) {
	if p.health != nil {
		p.health.Damage(amount)
	}
}

// OnContact наносит урон задетому телу и клетке стены под точкой контакта
func (p *Projectile) OnContact(c physics.Contact) {
	if target, ok := c.Other.Owner.(combat.Damageable); ok {
		target.Damage(p.cfg.Damage)
	}

	if c.Other.Layer&physics.LayerTerrain != 0 && p.walls != nil {
		hitPos := c.Point.Sub(c.Normal.Mul(tileProbe))
		p.walls.DamageAt(hitPos, p.cfg.Damage)
	}

	if !p.cfg.KillOnImpact {
		return
	}
	if p.health != nil {
		p.health.Kill()
		p.body.Velocity = vec.Zero
		return
	}
	// Release сам уничтожает экземпляры, созданные не пулом
	p.pools.Release(p)
}

func (p *Projectile) OnPoolSpawn() {
	if p.health != nil {
		p.health.OnPoolSpawn()
	}
	p.body.Enabled = true
	p.space.Add(p.body)
}

func (p *Projectile) OnPoolUnSpawn() {
	p.body.Enabled = false
	p.body.Velocity = vec.Zero
	p.space.Remove(p.body)
}

// Destroy убирает снаряд из пространства навсегда
func (p *Projectile) Destroy() {
	p.OnPoolUnSpawn()
}

// Tick продвигает задержку смерти собственного здоровья
func (p *Projectile) Tick(dt float64) {
	if p.health != nil {
		p.health.Tick(dt)
	}
}
