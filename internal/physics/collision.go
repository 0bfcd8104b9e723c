package physics

import (
	"github.com/annel0/tank-battalion/internal/vec"
)

// BoxCollider прямоугольный коллайдер с центром в позиции тела
type BoxCollider struct {
	Width  float64 // Ширина в клетках
	Height float64 // Высота в клетках
}

// NewBoxCollider создаёт новый коллайдер с указанными размерами
func NewBoxCollider(width, height float64) *BoxCollider {
	return &BoxCollider{
		Width:  width,
		Height: height,
	}
}

// IsPointInside проверяет, находится ли точка внутри коллайдера
func (bc *BoxCollider) IsPointInside(colliderPos, point vec.Vec2Float) bool {
	halfWidth := bc.Width / 2
	halfHeight := bc.Height / 2

	return point.X >= colliderPos.X-halfWidth &&
		point.X < colliderPos.X+halfWidth &&
		point.Y >= colliderPos.Y-halfHeight &&
		point.Y < colliderPos.Y+halfHeight
}

// CheckBoxCollision проверяет пересечение двух коллайдеров
func CheckBoxCollision(pos1 vec.Vec2Float, collider1 *BoxCollider, pos2 vec.Vec2Float, collider2 *BoxCollider) bool {
	halfWidth1 := collider1.Width / 2
	halfHeight1 := collider1.Height / 2
	halfWidth2 := collider2.Width / 2
	halfHeight2 := collider2.Height / 2

	return pos1.X+halfWidth1 > pos2.X-halfWidth2 &&
		pos1.X-halfWidth1 < pos2.X+halfWidth2 &&
		pos1.Y+halfHeight1 > pos2.Y-halfHeight2 &&
		pos1.Y-halfHeight1 < pos2.Y+halfHeight2
}

// GetCollisionPoints возвращает точки для проверки коллизий с тайлами.
// Для коллайдера не больше клетки это центр, для больших углы и центр.
func GetCollisionPoints(pos vec.Vec2Float, collider *BoxCollider) []vec.Vec2Float {
	if collider.Width <= 1 && collider.Height <= 1 {
		return []vec.Vec2Float{pos}
	}

	// Углы сдвинуты внутрь, чтобы не задевать соседние клетки
	const inset = 0.01
	halfWidth := collider.Width/2 - inset
	halfHeight := collider.Height/2 - inset

	return []vec.Vec2Float{
		{X: pos.X - halfWidth, Y: pos.Y + halfHeight}, // Левый верхний
		{X: pos.X + halfWidth, Y: pos.Y + halfHeight}, // Правый верхний
		{X: pos.X - halfWidth, Y: pos.Y - halfHeight}, // Левый нижний
		{X: pos.X + halfWidth, Y: pos.Y - halfHeight}, // Правый нижний
		pos, // Центр
	}
}

// overlapCenter точка контакта: середина пересечения двух коробок
func overlapCenter(pos1 vec.Vec2Float, c1 *BoxCollider, pos2 vec.Vec2Float, c2 *BoxCollider) vec.Vec2Float {
	minX := max(pos1.X-c1.Width/2, pos2.X-c2.Width/2)
	maxX := min(pos1.X+c1.Width/2, pos2.X+c2.Width/2)
	minY := max(pos1.Y-c1.Height/2, pos2.Y-c2.Height/2)
	maxY := min(pos1.Y+c1.Height/2, pos2.Y+c2.Height/2)
	return vec.Vec2Float{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}
}

// SetEnabled включает и выключает участие тела в контактах
func (b *Body) SetEnabled(enabled bool) {
	b.Enabled = enabled
}
