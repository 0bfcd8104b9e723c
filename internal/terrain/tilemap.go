package terrain

import (
	"math"
	"sort"

	"github.com/annel0/tank-battalion/internal/event"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Kind тип тайла
type Kind uint8

const (
	Empty Kind = iota
	Brick      // разрушаемая стена
	Steel      // неразрушаемая стена
	Water      // непроходима для танков, пропускает снаряды
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Brick:
		return "Brick"
	case Steel:
		return "Steel"
	case Water:
		return "Water"
	default:
		return "Unknown"
	}
}

// Destructible true для тайлов, которые можно разрушить
func (k Kind) Destructible() bool { return k == Brick }

// Tilemap один слой сетки. Клетка (0,0) начинается в Origin.
type Tilemap struct {
	Name     string
	CellSize float64
	Origin   vec.Vec2Float

	tiles  map[vec.Vec2]Kind
	health map[vec.Vec2]int

	// TileDestroyed получает центр разрушенной клетки
	TileDestroyed *event.Channel[vec.Vec2Float]
}

// NewTilemap создаёт пустой слой с клетками размера cellSize
func NewTilemap(name string, cellSize float64) *Tilemap {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Tilemap{
		Name:          name,
		CellSize:      cellSize,
		tiles:         make(map[vec.Vec2]Kind),
		health:        make(map[vec.Vec2]int),
		TileDestroyed: event.NewChannel[vec.Vec2Float](),
	}
}

// WorldToCell переводит мировую точку в клетку (округление вниз)
func (tm *Tilemap) WorldToCell(pos vec.Vec2Float) vec.Vec2 {
	return vec.Vec2{
		X: int(math.Floor((pos.X - tm.Origin.X) / tm.CellSize)),
		Y: int(math.Floor((pos.Y - tm.Origin.Y) / tm.CellSize)),
	}
}

// CellCenterWorld возвращает мировую точку центра клетки
func (tm *Tilemap) CellCenterWorld(cell vec.Vec2) vec.Vec2Float {
	return vec.Vec2Float{
		X: tm.Origin.X + (float64(cell.X)+0.5)*tm.CellSize,
		Y: tm.Origin.Y + (float64(cell.Y)+0.5)*tm.CellSize,
	}
}

// SetTile ставит тайл; Empty очищает клетку
func (tm *Tilemap) SetTile(cell vec.Vec2, kind Kind) {
	if kind == Empty {
		tm.ClearTile(cell)
		return
	}
	tm.tiles[cell] = kind
}

// Tile возвращает тип тайла в клетке
func (tm *Tilemap) Tile(cell vec.Vec2) Kind {
	return tm.tiles[cell]
}

// ClearTile убирает тайл и его прочность
func (tm *Tilemap) ClearTile(cell vec.Vec2) {
	delete(tm.tiles, cell)
	delete(tm.health, cell)
}

// IsBlocked занята ли клетка под точкой
func (tm *Tilemap) IsBlocked(pos vec.Vec2Float) bool {
	_, ok := tm.tiles[tm.WorldToCell(pos)]
	return ok
}

// Cells возвращает занятые клетки в порядке (y, x)
func (tm *Tilemap) Cells() []vec.Vec2 {
	out := make([]vec.Vec2, 0, len(tm.tiles))
	for c := range tm.tiles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Count число занятых клеток заданного типа
func (tm *Tilemap) Count(kind Kind) int {
	n := 0
	for _, k := range tm.tiles {
		if k == kind {
			n++
		}
	}
	return n
}

// InitDestructible выставляет прочность всем разрушаемым тайлам
func (tm *Tilemap) InitDestructible(startingHealth int) {
	if startingHealth <= 0 {
		startingHealth = 1
	}
	for cell, kind := range tm.tiles {
		if kind.Destructible() {
			tm.health[cell] = startingHealth
		}
	}
}

// TileHealth оставшаяся прочность клетки (0, если клетка не разрушаемая)
func (tm *Tilemap) TileHealth(cell vec.Vec2) int {
	return tm.health[cell]
}

// DamageAt наносит урон тайлу под точкой. Когда прочность доходит до нуля,
// тайл удаляется и срабатывает TileDestroyed. Возвращает true при разрушении.
func (tm *Tilemap) DamageAt(pos vec.Vec2Float, damage int) bool {
	if damage <= 0 {
		return false
	}
	cell := tm.WorldToCell(pos)
	hp, ok := tm.health[cell]
	if !ok || !tm.tiles[cell].Destructible() {
		return false
	}

	hp -= damage
	if hp > 0 {
		tm.health[cell] = hp
		return false
	}

	tm.ClearTile(cell)
	tm.TileDestroyed.Fire(tm.CellCenterWorld(cell))
	return true
}
