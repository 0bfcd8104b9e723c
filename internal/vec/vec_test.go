package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectionFromInput_Priority(t *testing.T) {
	cases := []struct {
		in   Vec2Float
		want Direction
	}{
		{Vec2Float{X: 1, Y: 1}, Up},
		{Vec2Float{X: -1, Y: -1}, Down},
		{Vec2Float{X: -1, Y: 0}, Left},
		{Vec2Float{X: 1, Y: 0}, Right},
	}
	for _, c := range cases {
		got, ok := DirectionFromInput(c.in)
		assert.True(t, ok)
		assert.Equal(t, c.want, got, "вход %+v", c.in)
	}

	_, ok := DirectionFromInput(Zero)
	assert.False(t, ok, "нулевой ввод не задаёт направление")
}

func TestDirection_Axes(t *testing.T) {
	for _, d := range Cardinals {
		f := d.Forward()
		r := d.Right()
		assert.InDelta(t, 1.0, f.Length(), 1e-9)
		assert.InDelta(t, 0.0, f.Dot(r), 1e-9, "right должен быть перпендикулярен forward")
	}
	assert.Equal(t, Vec2Float{X: 1, Y: 0}, Up.Right())
}

func TestMoveTowards(t *testing.T) {
	from := Vec2Float{X: 0, Y: 0}
	to := Vec2Float{X: 0, Y: 2}

	step := from.MoveTowards(to, 0.5)
	assert.InDelta(t, 0.5, step.Y, 1e-9)

	// Не перелетаем цель
	assert.Equal(t, to, from.MoveTowards(to, 10))
}

func TestFloor(t *testing.T) {
	assert.Equal(t, Vec2{X: -1, Y: 2}, Vec2Float{X: -0.5, Y: 2.99}.Floor())
}
