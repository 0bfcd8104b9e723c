package game

import (
	"github.com/annel0/tank-battalion/internal/pool"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Key клавиша управления игроком
type Key uint8

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
	KeyFire
	KeyPrevWeapon
	KeyNextWeapon
	keyCount
)

// InputState состояние клавиш между кадрами. Нажатие (key down)
// определяется сравнением с предыдущим кадром.
type InputState struct {
	held [keyCount]bool
	prev [keyCount]bool
}

// Press отмечает клавишу нажатой
func (s *InputState) Press(k Key) {
	if k < keyCount {
		s.held[k] = true
	}
}

// Release отпускает клавишу
func (s *InputState) Release(k Key) {
	if k < keyCount {
		s.held[k] = false
	}
}

// Held true, пока клавиша зажата
func (s *InputState) Held(k Key) bool { return k < keyCount && s.held[k] }

// Down true только в кадре, когда клавишу нажали
func (s *InputState) Down(k Key) bool { return k < keyCount && s.held[k] && !s.prev[k] }

// EndFrame запоминает состояние для следующего кадра
func (s *InputState) EndFrame() { s.prev = s.held }

// MovementVector вектор движения: вверх > вниз > влево > вправо
func (s *InputState) MovementVector() vec.Vec2Float {
	switch {
	case s.held[KeyUp]:
		return vec.Vec2Float{Y: 1}
	case s.held[KeyDown]:
		return vec.Vec2Float{Y: -1}
	case s.held[KeyLeft]:
		return vec.Vec2Float{X: -1}
	case s.held[KeyRight]:
		return vec.Vec2Float{X: 1}
	default:
		return vec.Zero
	}
}

// InputReceiver принимает вектор движения (movement.Mover)
type InputReceiver interface {
	SetInput(input vec.Vec2Float)
}

// WeaponSwapper переключает оружие игрока по кругу
type WeaponSwapper struct {
	swap    func(pool.Prototype)
	weapons []pool.Prototype
	index   int
	initial int
}

// NewWeaponSwapper создаёт переключатель; swap обычно weapon.Handler.SwapWeapon
func NewWeaponSwapper(swap func(pool.Prototype), weapons []pool.Prototype) *WeaponSwapper {
	return &WeaponSwapper{swap: swap, weapons: weapons}
}

// SetInitial отмечает оружие, с которого танк начинает
func (w *WeaponSwapper) SetInitial(p pool.Prototype) {
	for i, candidate := range w.weapons {
		if candidate == p {
			w.initial = i
			w.index = i
			return
		}
	}
}

// Next следующее оружие с переходом на начало списка
func (w *WeaponSwapper) Next() {
	if len(w.weapons) == 0 {
		return
	}
	w.choose((w.index + 1) % len(w.weapons))
}

// Prev предыдущее оружие с переходом в конец списка
func (w *WeaponSwapper) Prev() {
	if len(w.weapons) == 0 {
		return
	}
	w.choose((w.index - 1 + len(w.weapons)) % len(w.weapons))
}

func (w *WeaponSwapper) choose(i int) {
	if i == w.index {
		return
	}
	w.index = i
	w.swap(w.weapons[i])
}

func (w *WeaponSwapper) Index() int { return w.index }

// Reset возвращает индекс на начальное оружие без переключения
func (w *WeaponSwapper) Reset() { w.index = w.initial }

// PlayerController переводит клавиши в движение, выстрелы и смену оружия
type PlayerController struct {
	Input   InputState
	mover   InputReceiver
	handler Firer
	swapper *WeaponSwapper
}

// NewPlayerController создаёт контроллер; swapper может быть nil
func NewPlayerController(m InputReceiver, h Firer, swapper *WeaponSwapper) *PlayerController {
	return &PlayerController{mover: m, handler: h, swapper: swapper}
}

func (p *PlayerController) Reset() {
	p.Input = InputState{}
	if p.swapper != nil {
		p.swapper.Reset()
	}
}

func (p *PlayerController) Tick(float64) {
	p.mover.SetInput(p.Input.MovementVector())

	if p.Input.Down(KeyFire) {
		p.handler.FireWeapon()
	}
	if p.swapper != nil {
		if p.Input.Down(KeyPrevWeapon) {
			p.swapper.Prev()
		}
		if p.Input.Down(KeyNextWeapon) {
			p.swapper.Next()
		}
	}
	p.Input.EndFrame()
}
