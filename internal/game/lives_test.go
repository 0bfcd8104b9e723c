package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLives_LoseLifeRespawnsUntilGameOver(t *testing.T) {
	l := NewLives(2)
	var updates []int
	respawns, overs := 0, 0
	l.LivesUpdated.Subscribe(func(n int) { updates = append(updates, n) })
	l.RespawnPlayer.Subscribe(func() { respawns++ })
	l.GameOver.Subscribe(func() { overs++ })

	l.LoseLife()
	assert.Equal(t, 1, respawns)
	assert.Equal(t, 0, overs)

	l.LoseLife()
	assert.Equal(t, 1, respawns)
	assert.Equal(t, 1, overs)
	assert.Equal(t, []int{1, 0}, updates)
}

func TestLives_GiveLifeAndReset(t *testing.T) {
	l := NewLives(3)
	l.GiveLife()
	assert.Equal(t, 4, l.Current())

	l.Reset()
	assert.Equal(t, 3, l.Current())
}
