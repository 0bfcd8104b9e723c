package game

import (
	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/physics"
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Booster объект, чью скорость можно временно повысить
type Booster interface {
	BoostSpeed(duration, length float64)
}

// Item бонус на поле. Подбирается телом из разрешённых слоёв
// и сразу возвращается в пул.
type Item struct {
	body   *physics.Body
	space  *physics.Space
	pools  *pool.Manager
	pickup func(other *physics.Body)

	// PickedUp получает тело, подобравшее бонус
	PickedUp *event.Channel[*physics.Body]
}

func newItem(space *physics.Space, pools *pool.Manager, validLayers physics.Layer, pickup func(*physics.Body)) *Item {
	it := &Item{
		space:    space,
		pools:    pools,
		pickup:   pickup,
		PickedUp: event.NewChannel[*physics.Body](),
	}
	it.body = &physics.Body{
		Owner:    it,
		Collider: physics.NewBoxCollider(0.8, 0.8),
		Layer:    physics.LayerItem,
		Mask:     validLayers,
	}
	it.body.OnContact = it.onContact
	return it
}

func (it *Item) onContact(c physics.Contact) {
	if c.Other.Layer&it.body.Mask == 0 {
		return
	}
	it.pickup(c.Other)
	it.PickedUp.Fire(c.Other)
	it.pools.Release(it)
}

func (it *Item) Body() *physics.Body { return it.body }

func (it *Item) Place(pos vec.Vec2Float, _ vec.Direction) { it.body.Pos = pos }

func (it *Item) OnPoolSpawn() {
	it.body.Enabled = true
	it.space.Add(it.body)
}

func (it *Item) OnPoolUnSpawn() {
	it.body.Enabled = false
	it.space.Remove(it.body)
}

func (it *Item) Destroy() { it.OnPoolUnSpawn() }

// NewSpeedBoostItem бонус ускорения: duration секунд на шаг в течение length секунд
func NewSpeedBoostItem(space *physics.Space, pools *pool.Manager, validLayers physics.Layer, duration, length float64) *Item {
	return newItem(space, pools, validLayers, func(other *physics.Body) {
		if b, ok := other.Owner.(Booster); ok {
			b.BoostSpeed(duration, length)
		}
	})
}

// NewGiveLifeItem бонус дополнительной жизни
func NewGiveLifeItem(space *physics.Space, pools *pool.Manager, validLayers physics.Layer, lives *Lives) *Item {
	return newItem(space, pools, validLayers, func(*physics.Body) {
		lives.GiveLife()
	})
}
