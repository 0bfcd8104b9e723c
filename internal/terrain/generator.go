package terrain

import (
	"math/rand"

	"github.com/annel0/tank-battalion/internal/vec"
	"github.com/aquilax/go-perlin"
)

// Noise шум Перлина со своим сидом
type Noise struct {
	p *perlin.Perlin
}

// NewNoise инициализирует генератор шума Перлина с указанным сидом
func NewNoise(seed int64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

// At возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise) At(x, y float64) float64 {
	return (n.p.Noise2D(x, y) + 1.0) / 2.0
}

// Пороги шума для раскладки
const (
	WaterMax = 0.22 // Ниже - вода
	SteelMin = 0.80 // Выше - сталь внутри поля
)

// Generator строит случайную карту: стальная рамка, кластеры кирпича,
// редкие озёра и свободные зоны вокруг точек появления
type Generator struct {
	Seed         int64
	NoiseScale   float64 // Масштаб шума
	BrickDensity float64 // Доля кирпича среди клеток поля (0..1)
	ClearRadius  int     // Радиус свободной зоны вокруг точек появления
}

// NewGenerator создаёт генератор с параметрами по умолчанию
func NewGenerator(seed int64, brickDensity float64) *Generator {
	return &Generator{
		Seed:         seed,
		NoiseScale:   0.15,
		BrickDensity: brickDensity,
		ClearRadius:  1,
	}
}

// Generate создаёт карту width x height клеток
func (g *Generator) Generate(width, height int, keepClear []vec.Vec2) *Arena {
	a := NewArena(width, height, 1)
	noise := NewNoise(g.Seed)
	rng := rand.New(rand.NewSource(g.Seed))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cell := vec.Vec2{X: x, Y: y}

			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				a.Set(cell, Steel)
				continue
			}
			if g.nearAny(cell, keepClear) {
				continue
			}

			h := noise.At(float64(x)*g.NoiseScale, float64(y)*g.NoiseScale)
			switch {
			case h < WaterMax:
				a.Set(cell, Water)
			case h > SteelMin:
				a.Set(cell, Steel)
			case rng.Float64() < g.BrickDensity:
				a.Set(cell, Brick)
			}
		}
	}
	return a
}

func (g *Generator) nearAny(cell vec.Vec2, points []vec.Vec2) bool {
	for _, p := range points {
		dx, dy := cell.X-p.X, cell.Y-p.Y
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		if dx <= g.ClearRadius && dy <= g.ClearRadius {
			return true
		}
	}
	return false
}
