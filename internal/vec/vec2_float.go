package vec

import "math"

// Vec2Float представляет мировые координаты с плавающей точкой.
// Ось Y направлена вверх, одна клетка сетки равна одной единице мира.
type Vec2Float struct {
	X, Y float64
}

// Zero нулевой вектор
var Zero = Vec2Float{}

// Floor возвращает клетку, в которую попадает точка
func (v Vec2Float) Floor() Vec2 {
	return Vec2{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y))}
}

// FromVec2 создает Vec2Float из Vec2
func FromVec2(v Vec2) Vec2Float {
	return Vec2Float{X: float64(v.X), Y: float64(v.Y)}
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2Float) Sub(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2Float) Mul(scalar float64) Vec2Float {
	return Vec2Float{X: v.X * scalar, Y: v.Y * scalar}
}

// Dot скалярное произведение
func (v Vec2Float) Dot(other Vec2Float) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Normalized возвращает нормализованный вектор.
// Слишком короткие векторы нормализуются в ноль.
func (v Vec2Float) Normalized() Vec2Float {
	length := v.Length()
	if length <= Epsilon {
		return Vec2Float{X: 0, Y: 0}
	}
	return Vec2Float{X: v.X / length, Y: v.Y / length}
}

// Length возвращает длину вектора
func (v Vec2Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// SqrMagnitude возвращает квадрат длины вектора
func (v Vec2Float) SqrMagnitude() float64 {
	return v.X*v.X + v.Y*v.Y
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2Float) DistanceTo(other Vec2Float) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// MoveTowards сдвигает точку к target не более чем на maxDelta
func (v Vec2Float) MoveTowards(target Vec2Float, maxDelta float64) Vec2Float {
	delta := target.Sub(v)
	dist := delta.Length()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return v.Add(delta.Mul(maxDelta / dist))
}

// Epsilon порог, ниже которого длина считается нулевой
const Epsilon = 1e-5
