package terrain

import (
	"fmt"

	"github.com/annel0/tank-battalion/internal/vec"
)

// Arena два слоя карты: стены (кирпич, сталь) и вода.
// Танки упираются в оба слоя, снаряды только в стены.
type Arena struct {
	Width  int
	Height int
	Walls  *Tilemap
	Water  *Tilemap
}

// NewArena создаёт пустую карту
func NewArena(width, height int, cellSize float64) *Arena {
	return &Arena{
		Width:  width,
		Height: height,
		Walls:  NewTilemap("walls", cellSize),
		Water:  NewTilemap("water", cellSize),
	}
}

// MovementLayers слои, блокирующие движение танков
func (a *Arena) MovementLayers() Layers {
	return Layers{a.Walls, a.Water}
}

// Set кладёт тайл в нужный слой
func (a *Arena) Set(cell vec.Vec2, kind Kind) {
	switch kind {
	case Water:
		a.Walls.ClearTile(cell)
		a.Water.SetTile(cell, Water)
	case Empty:
		a.Walls.ClearTile(cell)
		a.Water.ClearTile(cell)
	default:
		a.Water.ClearTile(cell)
		a.Walls.SetTile(cell, kind)
	}
}

// InBounds true, если клетка внутри карты
func (a *Arena) InBounds(cell vec.Vec2) bool {
	return cell.X >= 0 && cell.Y >= 0 && cell.X < a.Width && cell.Y < a.Height
}

// ParseLayout строит карту из текстовых строк. Первая строка верхняя.
// '#' кирпич, '@' сталь, '~' вода, остальные символы пусто.
func ParseLayout(rows []string, cellSize float64) (*Arena, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("пустая раскладка карты")
	}
	width := 0
	for _, r := range rows {
		if len([]rune(r)) > width {
			width = len([]rune(r))
		}
	}

	a := NewArena(width, len(rows), cellSize)
	for i, r := range rows {
		y := len(rows) - 1 - i
		for x, ch := range []rune(r) {
			cell := vec.Vec2{X: x, Y: y}
			switch ch {
			case '#':
				a.Set(cell, Brick)
			case '@':
				a.Set(cell, Steel)
			case '~':
				a.Set(cell, Water)
			}
		}
	}
	return a, nil
}

// Render возвращает карту в формате ParseLayout
func (a *Arena) Render() []string {
	rows := make([]string, a.Height)
	for i := range rows {
		y := a.Height - 1 - i
		line := make([]rune, a.Width)
		for x := 0; x < a.Width; x++ {
			cell := vec.Vec2{X: x, Y: y}
			switch {
			case a.Walls.Tile(cell) == Brick:
				line[x] = '#'
			case a.Walls.Tile(cell) == Steel:
				line[x] = '@'
			case a.Water.Tile(cell) == Water:
				line[x] = '~'
			default:
				line[x] = '.'
			}
		}
		rows[i] = string(line)
	}
	return rows
}
