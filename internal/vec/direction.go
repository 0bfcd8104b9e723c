package vec

// Direction одно из четырёх направлений взгляда танка
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Forward возвращает единичный вектор "вперёд" для направления
func (d Direction) Forward() Vec2Float {
	switch d {
	case Down:
		return Vec2Float{X: 0, Y: -1}
	case Left:
		return Vec2Float{X: -1, Y: 0}
	case Right:
		return Vec2Float{X: 1, Y: 0}
	default:
		return Vec2Float{X: 0, Y: 1}
	}
}

// Right возвращает единичный вектор "вправо" относительно направления взгляда
func (d Direction) Right() Vec2Float {
	f := d.Forward()
	return Vec2Float{X: f.Y, Y: -f.X}
}

// Rotation возвращает угол поворота по оси Z в градусах (0 — вверх, против часовой)
func (d Direction) Rotation() float64 {
	switch d {
	case Down:
		return 180
	case Left:
		return 90
	case Right:
		return -90
	default:
		return 0
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// DirectionFromInput выбирает направление по вектору ввода.
// Приоритет: вверх, вниз, влево, вправо. ok == false для нулевого ввода.
func DirectionFromInput(input Vec2Float) (d Direction, ok bool) {
	switch {
	case input.Y > 0:
		return Up, true
	case input.Y < 0:
		return Down, true
	case input.X < 0:
		return Left, true
	case input.X > 0:
		return Right, true
	}
	return Up, false
}

// Cardinals все направления в порядке приоритета
var Cardinals = [...]Direction{Up, Down, Left, Right}
