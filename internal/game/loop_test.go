package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name string
	log  *[]string
}

func (r *recorder) FixedTick(float64) { *r.log = append(*r.log, "fixed:"+r.name) }
func (r *recorder) Tick(float64)      { *r.log = append(*r.log, "frame:"+r.name) }

type frameOnly struct {
	calls int
	dt    float64
	onTick func()
}

func (f *frameOnly) Tick(dt float64) {
	f.calls++
	f.dt = dt
	if f.onTick != nil {
		f.onTick()
	}
}

func TestLoop_FixedStepsRunBeforeFrameTickers(t *testing.T) {
	var log []string
	l := NewLoop(0.25)
	l.Add(&recorder{name: "a", log: &log})
	l.SetPhysics(FixedTickFunc(func(float64) { log = append(log, "physics") }))

	l.Frame(0.5)

	assert.Equal(t, []string{
		"fixed:a", "physics",
		"fixed:a", "physics",
		"frame:a",
	}, log)
	assert.Equal(t, uint64(2), l.FixedSteps())
	assert.Equal(t, uint64(1), l.Frames())
}

func TestLoop_AccumulatesShortFrames(t *testing.T) {
	var log []string
	l := NewLoop(0.25)
	l.Add(&recorder{name: "a", log: &log})

	l.Frame(0.125)
	assert.Equal(t, uint64(0), l.FixedSteps(), "шаг ещё не накоплен")
	l.Frame(0.125)
	assert.Equal(t, uint64(1), l.FixedSteps())
}

func TestLoop_PauseStopsTime(t *testing.T) {
	l := NewLoop(0.25)
	f := &frameOnly{}
	l.Add(f)

	l.Pause()
	assert.True(t, l.Paused())
	l.Frame(0.5)
	assert.Equal(t, 0, f.calls, "на паузе тикеры не вызываются")

	l.Resume()
	l.Frame(0.5)
	assert.Equal(t, 1, f.calls)
	assert.InDelta(t, 0.5, l.Elapsed(), 1e-9)
}

func TestLoop_TimeScale(t *testing.T) {
	l := NewLoop(0.25)
	f := &frameOnly{}
	l.Add(f)
	l.SetTimeScale(2)

	l.Frame(0.25)
	assert.InDelta(t, 0.5, f.dt, 1e-9)
	assert.Equal(t, uint64(2), l.FixedSteps())

	l.Pause()
	l.Resume()
	assert.Equal(t, 2.0, l.TimeScale(), "после паузы возвращается прежний масштаб")
}

func TestLoop_AddIsIdempotentAndRemoveInsideTick(t *testing.T) {
	l := NewLoop(0.25)
	victim := &frameOnly{}
	killer := &frameOnly{}
	killer.onTick = func() { l.Remove(victim) }

	l.Add(killer)
	l.Add(killer)
	l.Add(victim)
	l.Add(struct{}{})
	assert.Equal(t, 2, l.Len())

	l.Frame(0.1)
	assert.Equal(t, 1, killer.calls)
	assert.Equal(t, 0, victim.calls, "снятый в этом кадре объект не тикает")
	assert.Equal(t, 1, l.Len())
}
