package game

import (
	"math/rand"

	"github.com/annel0/tank-battalion/internal/physics"
	"github.com/annel0/tank-battalion/internal/vec"
	"github.com/annel0/tank-battalion/internal/weapon"
)

// Интервал, через который ИИ меняет решение
const (
	DefaultMinFrequency = 3.0
	DefaultMaxFrequency = 5.0
)

// maxDirectionAttempts сколько раз ИИ ищет свободное направление
const maxDirectionAttempts = 16

// lineOfSightDistance дальность взгляда ИИ
const lineOfSightDistance = 1000.0

// Steerable то, чем управляет ИИ движения (movement.Mover)
type Steerable interface {
	SetInput(input vec.Vec2Float)
	CanMoveInDirection(pos vec.Vec2Float, dir vec.Direction) bool
	Position() vec.Vec2Float
	Facing() vec.Direction
	InTransit() bool
}

// Firer то, из чего стреляет ИИ (weapon.Handler)
type Firer interface {
	FireWeapon()
}

// Controller мозг танка: получает кадровый тик, пока танк жив
type Controller interface {
	Ticker
	Reset()
}

func randomRange(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}

// RandomMover едет в случайном направлении и меняет его раз в 3-5 секунд
// или сразу, если упёрся.
type RandomMover struct {
	mover Steerable
	rng   *rand.Rand
	Min   float64
	Max   float64

	timer float64
	input vec.Direction
	has   bool
}

// NewRandomMover создаёт ИИ движения
func NewRandomMover(m Steerable, rng *rand.Rand) *RandomMover {
	r := &RandomMover{mover: m, rng: rng, Min: DefaultMinFrequency, Max: DefaultMaxFrequency}
	return r
}

// Reset выбирает новое направление и таймер (при появлении танка)
func (r *RandomMover) Reset() {
	r.nextFrequency()
	r.randomise()
}

func (r *RandomMover) Tick(dt float64) {
	if !r.has {
		r.Reset()
	}

	// Застряли: перед нами занято
	if !r.mover.InTransit() && !r.mover.CanMoveInDirection(r.mover.Position(), r.mover.Facing()) {
		r.randomise()
		r.nextFrequency()
	}

	r.timer -= dt
	if r.timer <= 0 {
		r.nextFrequency()
		r.randomise()
	}

	r.mover.SetInput(r.input.Forward())
}

// Direction текущее выбранное направление
func (r *RandomMover) Direction() vec.Direction { return r.input }

func (r *RandomMover) randomise() {
	pos := r.mover.Position()
	dir := vec.Cardinals[r.rng.Intn(len(vec.Cardinals))]
	for i := 0; i < maxDirectionAttempts && !r.mover.CanMoveInDirection(pos, dir); i++ {
		dir = vec.Cardinals[r.rng.Intn(len(vec.Cardinals))]
	}
	if !r.mover.CanMoveInDirection(pos, dir) {
		for _, d := range vec.Cardinals {
			if r.mover.CanMoveInDirection(pos, d) {
				dir = d
				break
			}
		}
	}
	r.input = dir
	r.has = true
}

func (r *RandomMover) nextFrequency() {
	r.timer = randomRange(r.rng, r.Min, r.Max)
}

// LineOfSightShooter стреляет, когда цель на линии огня не закрыта стеной
type LineOfSightShooter struct {
	handler  Firer
	mount    weapon.Mount
	space    *physics.Space
	targets  physics.Layer
	cooldown float64
	left     float64
}

// NewLineOfSightShooter создаёт стрелка; fireRate пауза между выстрелами
func NewLineOfSightShooter(h Firer, mount weapon.Mount, space *physics.Space, targets physics.Layer, fireRate float64) *LineOfSightShooter {
	return &LineOfSightShooter{handler: h, mount: mount, space: space, targets: targets, cooldown: fireRate}
}

func (s *LineOfSightShooter) Reset() { s.left = 0 }

func (s *LineOfSightShooter) Tick(dt float64) {
	if s.left <= 0 {
		s.checkCanShoot()
	}
	if s.left > 0 {
		s.left -= dt
	}
}

func (s *LineOfSightShooter) checkCanShoot() {
	hit, ok := s.space.Raycast(s.mount.MuzzlePosition(), s.mount.Facing().Forward(), lineOfSightDistance, s.targets|physics.LayerTerrain)
	if !ok || hit.Body.Layer&s.targets == 0 {
		return
	}
	s.left = s.cooldown
	s.handler.FireWeapon()
}

// RandomShooter стреляет через случайные промежутки 3-5 секунд
type RandomShooter struct {
	handler Firer
	rng     *rand.Rand
	Min     float64
	Max     float64
	timer   float64
}

func NewRandomShooter(h Firer, rng *rand.Rand) *RandomShooter {
	s := &RandomShooter{handler: h, rng: rng, Min: DefaultMinFrequency, Max: DefaultMaxFrequency}
	s.Reset()
	return s
}

func (s *RandomShooter) Reset() {
	s.timer = randomRange(s.rng, s.Min, s.Max)
}

func (s *RandomShooter) Tick(dt float64) {
	s.timer -= dt
	if s.timer <= 0 {
		s.Reset()
		s.handler.FireWeapon()
	}
}
