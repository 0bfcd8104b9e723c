// Package movement двигает танки по сетке: клетка за клеткой, с проверкой занятости.
package movement

import (
	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/terrain"
	"github.com/annel0/tank-battalion/internal/timer"
	"github.com/annel0/tank-battalion/internal/vec"
)

// arriveEpsilonSq квадрат остатка пути, при котором танк считается прибывшим
const arriveEpsilonSq = 1e-9

// AnimatorParam параметр аниматора с нормой ввода
const AnimatorParam = "Movement"

// Animator принимает параметры анимации движения
type Animator interface {
	SetFloat(name string, value float64)
}

// Config параметры перемещения
type Config struct {
	MovementDuration float64 // секунды на один шаг
	MovementDistance int     // клеток за шаг
	TileCheckOffset  float64 // дополнительный сдвиг проверки вперёд
	Width            int     // ширина танка в клетках
}

// Mover пошаговое перемещение по сетке
type Mover struct {
	cfg       Config
	occupancy terrain.Occupancy
	animator  Animator

	pos         vec.Vec2Float
	facing      vec.Direction
	spawnFacing vec.Direction
	input       vec.Vec2Float

	inTransit bool
	target    vec.Vec2Float
	blocked   bool

	currentDuration float64
	baseDuration    float64
	boosting        bool
	boost           timer.Delay
	disabled        bool
}

// NewMover создаёт контроллер движения; occupancy может быть nil (пустое поле)
func NewMover(cfg Config, occupancy terrain.Occupancy) *Mover {
	if cfg.MovementDuration <= 0 {
		logging.Warn("movement: MovementDuration=%v, используем 0.25", cfg.MovementDuration)
		cfg.MovementDuration = 0.25
	}
	if cfg.MovementDistance <= 0 {
		cfg.MovementDistance = 1
	}
	if cfg.Width < 1 {
		cfg.Width = 1
	}
	return &Mover{
		cfg:             cfg,
		occupancy:       occupancy,
		currentDuration: cfg.MovementDuration,
	}
}

// SetAnimator задаёт аниматор
func (m *Mover) SetAnimator(a Animator) { m.animator = a }

// SetOccupancy меняет слои, с которыми сверяется движение
func (m *Mover) SetOccupancy(o terrain.Occupancy) { m.occupancy = o }

// SetInput запоминает желаемое направление; ноль означает стоять
func (m *Mover) SetInput(input vec.Vec2Float) {
	m.input = input
}

// Place ставит танк в точку без анимации
func (m *Mover) Place(pos vec.Vec2Float, facing vec.Direction) {
	m.pos = pos
	m.facing = facing
	m.spawnFacing = facing
	m.target = pos
	m.inTransit = false
}

func (m *Mover) Position() vec.Vec2Float { return m.pos }

func (m *Mover) Facing() vec.Direction { return m.facing }

// InTransit true, пока идёт шаг
func (m *Mover) InTransit() bool { return m.inTransit }

// CurrentDuration текущая длительность шага с учётом ускорения
func (m *Mover) CurrentDuration() float64 { return m.currentDuration }

// LastMoveBlocked true, если последняя попытка шага упёрлась в занятую клетку
func (m *Mover) LastMoveBlocked() bool { return m.blocked }

// Enabled false после смерти до следующей выдачи из пула
func (m *Mover) Enabled() bool { return !m.disabled }

// FixedTick выполняет один физический шаг
func (m *Mover) FixedTick(dt float64) {
	inputMagnitude := m.input.Normalized().Length()
	if m.animator != nil {
		m.animator.SetFloat(AnimatorParam, inputMagnitude)
	}
	if m.disabled {
		return
	}

	m.boost.Tick(dt)

	if !m.inTransit && inputMagnitude > 0 {
		m.tryStartMove()
	}
	if m.inTransit {
		m.advance(dt)
	}
}

func (m *Mover) tryStartMove() {
	dir, ok := vec.DirectionFromInput(m.input)
	if !ok {
		return
	}
	m.facing = dir

	if !m.CanMoveInDirection(m.pos, dir) {
		m.blocked = true
		return
	}
	m.blocked = false

	from := m.pos
	m.target = m.pos.Add(dir.Forward().Mul(float64(m.cfg.MovementDistance)))
	m.inTransit = true
	logging.LogEntityMovement("tank", from.X, from.Y, m.target.X, m.target.Y, dir.String())
}

func (m *Mover) advance(dt float64) {
	speed := float64(m.cfg.MovementDistance) / m.currentDuration
	m.pos = m.pos.MoveTowards(m.target, speed*dt)
	if m.pos.Sub(m.target).SqrMagnitude() <= arriveEpsilonSq {
		m.pos = m.target
		m.inTransit = false
	}
}

// CanMoveInDirection проверяет все полосы ширины танка перед ним
func (m *Mover) CanMoveInDirection(pos vec.Vec2Float, dir vec.Direction) bool {
	if m.occupancy == nil {
		return true
	}
	forward := dir.Forward()
	right := dir.Right()
	ahead := pos.Add(forward.Mul(m.cfg.TileCheckOffset + float64(m.cfg.MovementDistance)))

	lane := -(float64(m.cfg.Width) * 0.5) + 0.5
	for i := 0; i < m.cfg.Width; i++ {
		if m.occupancy.IsBlocked(ahead.Add(right.Mul(lane))) {
			return false
		}
		lane += 1
	}
	return true
}

// BoostSpeed временно меняет длительность шага. Новое ускорение заменяет
// предыдущее; по окончании возвращается длительность до первого ускорения.
func (m *Mover) BoostSpeed(duration, length float64) {
	if m.disabled {
		return
	}
	if duration <= 0 {
		logging.Warn("movement: длительность ускорения %v игнорируется", duration)
		return
	}
	if !m.boosting {
		m.baseDuration = m.currentDuration
		m.boosting = true
	}
	m.currentDuration = duration
	m.boost.Start(length, m.restoreSpeed)
}

func (m *Mover) restoreSpeed() {
	m.currentDuration = m.baseDuration
	m.boosting = false
}

// OnDeath останавливает танк и снимает ускорение без восстановления
func (m *Mover) OnDeath() {
	m.disabled = true
	m.boost.Cancel()
	m.input = vec.Zero
}

// OnPoolSpawn сбрасывает состояние при выдаче из пула
func (m *Mover) OnPoolSpawn() {
	m.boost.Cancel()
	m.boosting = false
	m.disabled = false
	m.currentDuration = m.cfg.MovementDuration
	m.facing = m.spawnFacing
	m.inTransit = false
	m.blocked = false
	m.input = vec.Zero
	m.target = m.pos
}
