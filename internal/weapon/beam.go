package weapon

import (
	"github.com/annel0/tank-battalion/internal/combat"
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/physics"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Segment видимый отрезок луча
type Segment struct {
	From vec.Vec2Float
	To   vec.Vec2Float
}

// BeamConfig параметры лазера
type BeamConfig struct {
	Damage      int
	Duration    float64 // секунды работы после выстрела
	Distance    float64 // максимальная длина луча
	TerrainMask physics.Layer
	EnemyMask   physics.Layer
}

// BeamWeapon лазер: после выстрела каждый тик бьёт всех врагов до ближайшей стены
type BeamWeapon struct {
	cfg   BeamConfig
	space *physics.Space
	mount Mount

	firing  bool
	left    float64
	beam    Segment
	visible bool
}

// NewBeamWeapon создаёт лазер
func NewBeamWeapon(cfg BeamConfig, space *physics.Space) *BeamWeapon {
	if cfg.TerrainMask == 0 {
		cfg.TerrainMask = physics.LayerTerrain
	}
	return &BeamWeapon{cfg: cfg, space: space}
}

func (b *BeamWeapon) Place(vec.Vec2Float, vec.Direction) {}

func (b *BeamWeapon) Attach(m Mount) { b.mount = m }

// Fire включает луч на Duration секунд
func (b *BeamWeapon) Fire() {
	if b.mount == nil {
		logging.Warn("weapon: лазер не установлен на танк")
		return
	}
	b.firing = true
	b.left = b.cfg.Duration
	b.visible = false
}

// Firing true, пока луч активен
func (b *BeamWeapon) Firing() bool { return b.firing }

// Beam текущий видимый отрезок
func (b *BeamWeapon) Beam() (Segment, bool) {
	return b.beam, b.visible
}

// Tick пересчитывает луч и наносит урон
func (b *BeamWeapon) Tick(dt float64) {
	if !b.firing {
		return
	}
	b.left -= dt
	if b.left <= 0 {
		b.stop()
		return
	}
	b.cast()
}

func (b *BeamWeapon) cast() {
	origin := b.mount.MuzzlePosition()
	dir := b.mount.Facing().Forward()

	// Луч существует только до стены: без стены в пределах Distance он не виден и не бьёт
	hit, ok := b.space.Raycast(origin, dir, b.cfg.Distance, b.cfg.TerrainMask)
	if !ok {
		b.beam = Segment{}
		b.visible = false
		return
	}
	dist := hit.Distance
	b.beam = Segment{From: origin, To: origin.Add(dir.Mul(dist))}
	b.visible = true

	for _, hit := range b.space.RaycastAll(origin, dir, dist, b.cfg.EnemyMask) {
		if target, ok := hit.Body.Owner.(combat.Damageable); ok {
			target.Damage(b.cfg.Damage)
		}
	}
}

func (b *BeamWeapon) stop() {
	b.firing = false
	b.left = 0
	b.beam = Segment{}
	b.visible = false
}

// OnPoolUnSpawn гасит луч при снятии оружия
func (b *BeamWeapon) OnPoolUnSpawn() {
	b.stop()
}
