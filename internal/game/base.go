package game

import (
	"github.com/annel0/tank-battalion/internal/combat"
	"github.com/annel0/tank-battalion/internal/physics"
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Base трофей игрока. Его уничтожение заканчивает игру.
type Base struct {
	health *combat.Health
	body   *physics.Body
	space  *physics.Space
}

// NewBase создаёт трофей с hp очками здоровья
func NewBase(space *physics.Space, pools *pool.Manager, hp int) *Base {
	b := &Base{space: space}
	b.body = &physics.Body{
		Owner:    b,
		Collider: physics.NewBoxCollider(1, 1),
		Layer:    physics.LayerBase,
	}
	b.health = combat.NewHealth(b, combat.Config{MaxHealth: hp, DisableCollisionsOnDeath: true})
	b.health.SetCollider(b.body)
	b.health.SetReclaim(func() { pools.Release(b) })
	return b
}

func (b *Base) Health() *combat.Health { return b.health }

func (b *Base) Position() vec.Vec2Float { return b.body.Pos }

func (b *Base) Place(pos vec.Vec2Float, _ vec.Direction) { b.body.Pos = pos }

func (b *Base) Damage(amount int) { b.health.Damage(amount) }

func (b *Base) OnPoolSpawn() {
	b.health.OnPoolSpawn()
	b.space.Add(b.body)
}

func (b *Base) OnPoolUnSpawn() {
	b.body.Enabled = false
	b.space.Remove(b.body)
}

func (b *Base) Tick(dt float64) { b.health.Tick(dt) }
