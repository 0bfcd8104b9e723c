// Package physics даёт арене минимальную физику: движение тел, контакты AABB и лучи.
package physics

import (
	"math"
	"sort"

	"github.com/annel0/tank-battalion/internal/terrain"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Layer битовая маска слоя тела
type Layer uint32

const (
	LayerTerrain Layer = 1 << iota
	LayerPlayer
	LayerEnemy
	LayerProjectile
	LayerItem
	LayerBase
)

// Body тело в пространстве. Owner указывает на игровой объект.
type Body struct {
	Owner    interface{}
	Pos      vec.Vec2Float
	Velocity vec.Vec2Float
	Collider *BoxCollider
	Layer    Layer
	Mask     Layer // с какими слоями тело получает контакты
	Enabled  bool

	// OnContact вызывается для каждого контакта, где тело — Self
	OnContact func(c Contact)
}

// Contact сообщение о касании двух тел
type Contact struct {
	Self   *Body
	Other  *Body
	Point  vec.Vec2Float
	Normal vec.Vec2Float // направлена от Other к Self
}

// Hit результат луча
type Hit struct {
	Body     *Body
	Point    vec.Vec2Float
	Distance float64
}

// maxSubstep ограничивает шаг интегрирования, чтобы снаряд не проскакивал клетку
const maxSubstep = 0.25

// rayStep шаг луча по слою тайлов
const rayStep = 0.02

// Space хранит тела и слой стен
type Space struct {
	bodies  []*Body
	terrain terrain.Occupancy

	// TerrainBody представляет стены в контактах и лучах
	TerrainBody *Body
}

// NewSpace создаёт пространство; walls может быть nil
func NewSpace(walls terrain.Occupancy) *Space {
	return &Space{
		terrain:     walls,
		TerrainBody: &Body{Layer: LayerTerrain, Enabled: true},
	}
}

// Add добавляет тело; повторное добавление игнорируется
func (s *Space) Add(b *Body) {
	for _, existing := range s.bodies {
		if existing == b {
			return
		}
	}
	s.bodies = append(s.bodies, b)
}

// Remove убирает тело
func (s *Space) Remove(b *Body) {
	for i, existing := range s.bodies {
		if existing == b {
			s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
			return
		}
	}
}

// Bodies число тел в пространстве
func (s *Space) Bodies() int { return len(s.bodies) }

// Step двигает тела на dt и рассылает контакты
func (s *Space) Step(dt float64) {
	var contacts []Contact

	for _, b := range s.bodies {
		if !b.Enabled || b.Velocity.SqrMagnitude() == 0 {
			continue
		}
		if c, ok := s.integrate(b, dt); ok {
			contacts = append(contacts, c)
		}
	}

	for i := 0; i < len(s.bodies); i++ {
		a := s.bodies[i]
		if !a.Enabled || a.Collider == nil {
			continue
		}
		for j := i + 1; j < len(s.bodies); j++ {
			b := s.bodies[j]
			if !b.Enabled || b.Collider == nil {
				continue
			}
			if a.Mask&b.Layer == 0 && b.Mask&a.Layer == 0 {
				continue
			}
			if !CheckBoxCollision(a.Pos, a.Collider, b.Pos, b.Collider) {
				continue
			}
			point := overlapCenter(a.Pos, a.Collider, b.Pos, b.Collider)
			if a.Mask&b.Layer != 0 {
				contacts = append(contacts, Contact{Self: a, Other: b, Point: point, Normal: axisNormal(a.Pos.Sub(b.Pos))})
			}
			if b.Mask&a.Layer != 0 {
				contacts = append(contacts, Contact{Self: b, Other: a, Point: point, Normal: axisNormal(b.Pos.Sub(a.Pos))})
			}
		}
	}

	// Тело, выключенное предыдущим обработчиком, больше контактов не получает
	for _, c := range contacts {
		if !c.Self.Enabled || !c.Other.Enabled || c.Self.OnContact == nil {
			continue
		}
		c.Self.OnContact(c)
	}
}

// integrate двигает тело мелкими шагами и останавливает его в первой занятой клетке
func (s *Space) integrate(b *Body, dt float64) (Contact, bool) {
	delta := b.Velocity.Mul(dt)
	steps := int(math.Ceil(delta.Length() / maxSubstep))
	if steps < 1 {
		steps = 1
	}
	stepDelta := delta.Mul(1 / float64(steps))
	checkTerrain := s.terrain != nil && b.Mask&LayerTerrain != 0

	for i := 0; i < steps; i++ {
		b.Pos = b.Pos.Add(stepDelta)
		if checkTerrain && s.terrain.IsBlocked(b.Pos) {
			return Contact{
				Self:   b,
				Other:  s.TerrainBody,
				Point:  b.Pos,
				Normal: axisNormal(b.Velocity.Mul(-1)),
			}, true
		}
	}
	return Contact{}, false
}

// RaycastTerrain ищет первую занятую клетку вдоль луча
func (s *Space) RaycastTerrain(origin vec.Vec2Float, dir vec.Vec2Float, maxDist float64) (Hit, bool) {
	if s.terrain == nil {
		return Hit{}, false
	}
	dir = dir.Normalized()
	if dir == vec.Zero {
		return Hit{}, false
	}
	for d := 0.0; d <= maxDist; d += rayStep {
		p := origin.Add(dir.Mul(d))
		if s.terrain.IsBlocked(p) {
			return Hit{Body: s.TerrainBody, Point: p, Distance: d}, true
		}
	}
	return Hit{}, false
}

// RaycastAll возвращает все тела слоёв mask на отрезке луча, ближние первыми
func (s *Space) RaycastAll(origin vec.Vec2Float, dir vec.Vec2Float, maxDist float64, mask Layer) []Hit {
	dir = dir.Normalized()
	if dir == vec.Zero {
		return nil
	}

	var hits []Hit
	if mask&LayerTerrain != 0 {
		if h, ok := s.RaycastTerrain(origin, dir, maxDist); ok {
			hits = append(hits, h)
		}
	}
	for _, b := range s.bodies {
		if !b.Enabled || b.Collider == nil || b.Layer&mask == 0 {
			continue
		}
		if d, ok := rayBox(origin, dir, maxDist, b.Pos, b.Collider); ok {
			hits = append(hits, Hit{Body: b, Point: origin.Add(dir.Mul(d)), Distance: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// Raycast возвращает ближайшее попадание
func (s *Space) Raycast(origin vec.Vec2Float, dir vec.Vec2Float, maxDist float64, mask Layer) (Hit, bool) {
	hits := s.RaycastAll(origin, dir, maxDist, mask)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

// rayBox пересечение луча с коробкой методом плит
func rayBox(origin, dir vec.Vec2Float, maxDist float64, center vec.Vec2Float, c *BoxCollider) (float64, bool) {
	tMin, tMax := 0.0, maxDist
	axes := [2]struct{ o, d, lo, hi float64 }{
		{origin.X, dir.X, center.X - c.Width/2, center.X + c.Width/2},
		{origin.Y, dir.Y, center.Y - c.Height/2, center.Y + c.Height/2},
	}
	for _, a := range axes {
		if math.Abs(a.d) < vec.Epsilon {
			if a.o < a.lo || a.o > a.hi {
				return 0, false
			}
			continue
		}
		t1 := (a.lo - a.o) / a.d
		t2 := (a.hi - a.o) / a.d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// axisNormal приводит вектор к ближайшей оси
func axisNormal(v vec.Vec2Float) vec.Vec2Float {
	if v.SqrMagnitude() == 0 {
		return vec.Vec2Float{X: 0, Y: 1}
	}
	if math.Abs(v.X) > math.Abs(v.Y) {
		return vec.Vec2Float{X: math.Copysign(1, v.X)}
	}
	return vec.Vec2Float{Y: math.Copysign(1, v.Y)}
}
