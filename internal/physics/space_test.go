package physics

import (
	"testing"

	"github.com/annel0/tank-battalion/internal/terrain"
	"github.com/annel0/tank-battalion/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wallAt(cells ...vec.Vec2) *terrain.Tilemap {
	tm := terrain.NewTilemap("walls", 1)
	for _, c := range cells {
		tm.SetTile(c, terrain.Brick)
	}
	return tm
}

func TestBoxCollision(t *testing.T) {
	c := NewBoxCollider(1, 1)
	assert.True(t, CheckBoxCollision(vec.Vec2Float{X: 0, Y: 0}, c, vec.Vec2Float{X: 0.9, Y: 0}, c))
	assert.False(t, CheckBoxCollision(vec.Vec2Float{X: 0, Y: 0}, c, vec.Vec2Float{X: 1, Y: 0}, c))
	assert.True(t, c.IsPointInside(vec.Zero, vec.Vec2Float{X: 0.4, Y: -0.4}))
	assert.Len(t, GetCollisionPoints(vec.Zero, NewBoxCollider(2, 2)), 5)
}

func TestSpace_ProjectileHitsWall(t *testing.T) {
	space := NewSpace(wallAt(vec.Vec2{X: 0, Y: 3}))

	var got []Contact
	shell := &Body{
		Pos:       vec.Vec2Float{X: 0.5, Y: 0.5},
		Velocity:  vec.Vec2Float{X: 0, Y: 10},
		Collider:  NewBoxCollider(0.2, 0.2),
		Layer:     LayerProjectile,
		Mask:      LayerTerrain | LayerEnemy,
		Enabled:   true,
		OnContact: func(c Contact) { got = append(got, c) },
	}
	space.Add(shell)
	space.Add(shell)
	assert.Equal(t, 1, space.Bodies())

	space.Step(0.5)

	require.Len(t, got, 1)
	c := got[0]
	assert.Same(t, space.TerrainBody, c.Other)
	assert.Equal(t, vec.Vec2Float{X: 0, Y: -1}, c.Normal)
	inside := c.Point.Sub(c.Normal.Mul(0.01))
	assert.Equal(t, vec.Vec2{X: 0, Y: 3}, inside.Floor(), "точка за нормалью внутри стены")
	assert.Less(t, shell.Pos.Y, 4.0, "снаряд не проходит сквозь стену")
}

func TestSpace_BodyContactsRespectMasks(t *testing.T) {
	space := NewSpace(nil)
	hits := map[string]int{}

	enemy := &Body{Owner: "enemy", Pos: vec.Vec2Float{X: 2, Y: 2}, Collider: NewBoxCollider(1, 1), Layer: LayerEnemy, Enabled: true,
		OnContact: func(c Contact) { hits["enemy"]++ }}
	shell := &Body{Owner: "shell", Pos: vec.Vec2Float{X: 2, Y: 1.5}, Collider: NewBoxCollider(0.2, 0.2), Layer: LayerProjectile,
		Mask: LayerEnemy, Enabled: true,
		OnContact: func(c Contact) {
			hits["shell"]++
			assert.Equal(t, "enemy", c.Other.Owner)
			assert.Equal(t, vec.Vec2Float{X: 0, Y: -1}, c.Normal)
		}}
	space.Add(enemy)
	space.Add(shell)

	space.Step(0.02)
	assert.Equal(t, 1, hits["shell"])
	assert.Equal(t, 0, hits["enemy"], "маска врага пуста")

	shell.Enabled = false
	space.Step(0.02)
	assert.Equal(t, 1, hits["shell"])

	space.Remove(shell)
	assert.Equal(t, 1, space.Bodies())
}

func TestSpace_Raycasts(t *testing.T) {
	space := NewSpace(wallAt(vec.Vec2{X: 0, Y: 5}))
	near := &Body{Owner: "near", Pos: vec.Vec2Float{X: 0.5, Y: 2.5}, Collider: NewBoxCollider(1, 1), Layer: LayerEnemy, Enabled: true}
	far := &Body{Owner: "far", Pos: vec.Vec2Float{X: 0.5, Y: 3.5}, Collider: NewBoxCollider(1, 1), Layer: LayerEnemy, Enabled: true}
	player := &Body{Owner: "player", Pos: vec.Vec2Float{X: 0.5, Y: 1.5}, Collider: NewBoxCollider(1, 1), Layer: LayerPlayer, Enabled: true}
	space.Add(far)
	space.Add(near)
	space.Add(player)

	origin := vec.Vec2Float{X: 0.5, Y: 0.5}
	up := vec.Up.Forward()

	wall, ok := space.RaycastTerrain(origin, up, 10)
	require.True(t, ok)
	assert.InDelta(t, 4.5, wall.Distance, 0.03)

	hits := space.RaycastAll(origin, up, wall.Distance, LayerEnemy)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Body.Owner)
	assert.Equal(t, "far", hits[1].Body.Owner)

	first, ok := space.Raycast(origin, up, 10, LayerEnemy|LayerTerrain)
	require.True(t, ok)
	assert.Equal(t, "near", first.Body.Owner)

	_, ok = space.RaycastTerrain(origin, vec.Vec2Float{X: 1}, 3)
	assert.False(t, ok)
}
