package vec

import "math"

// Vec2 представляет целочисленные координаты клетки тайловой сетки
type Vec2 struct {
	X, Y int
}

// Add складывает координаты клеток
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// DistanceTo вычисляет расстояние до другой клетки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
