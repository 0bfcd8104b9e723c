// Package terrain описывает сетку арены: слои тайлов, разрушаемые кирпичи и генерацию карты.
package terrain

import "github.com/annel0/tank-battalion/internal/vec"

// Occupancy отвечает, занята ли клетка под мировой точкой
type Occupancy interface {
	IsBlocked(pos vec.Vec2Float) bool
}

// OccupancyFunc позволяет использовать функцию как Occupancy
type OccupancyFunc func(pos vec.Vec2Float) bool

func (f OccupancyFunc) IsBlocked(pos vec.Vec2Float) bool { return f(pos) }

// Layers занят, если занят хотя бы один из слоёв
type Layers []Occupancy

func (ls Layers) IsBlocked(pos vec.Vec2Float) bool {
	for _, l := range ls {
		if l != nil && l.IsBlocked(pos) {
			return true
		}
	}
	return false
}
