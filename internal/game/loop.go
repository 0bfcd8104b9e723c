// Package game собирает арену: игровой цикл, жизни, бонусы, ИИ, танки и уровень.
package game

import (
	"context"
	"time"

	"github.com/annel0/tank-battalion/internal/logging"
)

// FixedTicker объект, работающий на фиксированном шаге (движение)
type FixedTicker interface {
	FixedTick(dt float64)
}

// Ticker объект, работающий на каждом кадре
type Ticker interface {
	Tick(dt float64)
}

// maxStepsPerFrame ограничивает догоняющие шаги после долгого кадра
const maxStepsPerFrame = 8

// Loop игровой цикл с аккумулятором фиксированного шага.
// На каждом кадре сначала выполняются все накопленные фиксированные шаги
// (объекты, затем физика), потом кадровые тикеры.
type Loop struct {
	fixedStep   float64
	accumulator float64
	timeScale   float64
	savedScale  float64

	fixed   []FixedTicker
	frame   []Ticker
	members map[interface{}]bool
	physics FixedTicker

	frames     uint64
	fixedSteps uint64
	elapsed    float64

	logger *logging.Logger
}

// NewLoop создаёт цикл с фиксированным шагом fixedStep секунд
func NewLoop(fixedStep float64) *Loop {
	logger := logging.GetGameLogger()
	if fixedStep <= 0 {
		logger.Warn("game: fixed_step=%v, используем 0.02", fixedStep)
		fixedStep = 0.02
	}
	return &Loop{
		fixedStep:  fixedStep,
		timeScale:  1,
		savedScale: 1,
		members:    make(map[interface{}]bool),
		logger:     logger,
	}
}

// SetPhysics задаёт шаг физики, выполняемый после фиксированных тикеров
func (l *Loop) SetPhysics(p FixedTicker) { l.physics = p }

// Add регистрирует объект по реализованным им интерфейсам.
// Повторная регистрация ничего не делает.
func (l *Loop) Add(obj interface{}) {
	if obj == nil || l.members[obj] {
		return
	}
	f, isFixed := obj.(FixedTicker)
	t, isFrame := obj.(Ticker)
	if !isFixed && !isFrame {
		return
	}
	l.members[obj] = true
	if isFixed {
		l.fixed = append(l.fixed, f)
	}
	if isFrame {
		l.frame = append(l.frame, t)
	}
}

// Remove снимает объект с цикла. Безопасно вызывать изнутри тика.
func (l *Loop) Remove(obj interface{}) {
	if !l.members[obj] {
		return
	}
	delete(l.members, obj)
	l.fixed = removeFrom(l.fixed, obj)
	l.frame = removeFrom(l.frame, obj)
}

func removeFrom[T comparable](list []T, obj interface{}) []T {
	for i, item := range list {
		if interface{}(item) == obj {
			out := make([]T, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}

// Len число зарегистрированных объектов
func (l *Loop) Len() int { return len(l.members) }

// Pause останавливает игровое время
func (l *Loop) Pause() {
	if l.timeScale == 0 {
		return
	}
	l.savedScale = l.timeScale
	l.timeScale = 0
	l.logger.Info("⏸️ Игра на паузе")
}

// Resume возвращает масштаб времени, бывший до паузы
func (l *Loop) Resume() {
	if l.timeScale != 0 {
		return
	}
	l.timeScale = l.savedScale
	l.logger.Info("▶️ Игра продолжена")
}

// Paused true, пока время остановлено
func (l *Loop) Paused() bool { return l.timeScale == 0 }

// SetTimeScale задаёт масштаб игрового времени; отрицательные значения обнуляются
func (l *Loop) SetTimeScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	l.timeScale = scale
	if scale > 0 {
		l.savedScale = scale
	}
}

func (l *Loop) TimeScale() float64 { return l.timeScale }

// Frame выполняет один кадр длительностью dt реальных секунд
func (l *Loop) Frame(dt float64) {
	l.frames++
	scaled := dt * l.timeScale
	if scaled <= 0 {
		return
	}
	l.elapsed += scaled
	l.accumulator += scaled

	steps := 0
	for l.accumulator >= l.fixedStep {
		l.accumulator -= l.fixedStep
		if steps >= maxStepsPerFrame {
			continue
		}
		l.fixedStepOnce()
		steps++
	}

	snapshot := append([]Ticker(nil), l.frame...)
	for _, t := range snapshot {
		if l.members[t] {
			t.Tick(scaled)
		}
	}
}

func (l *Loop) fixedStepOnce() {
	l.fixedSteps++
	snapshot := append([]FixedTicker(nil), l.fixed...)
	for _, f := range snapshot {
		if l.members[f] {
			f.FixedTick(l.fixedStep)
		}
	}
	if l.physics != nil {
		l.physics.FixedTick(l.fixedStep)
	}
}

// RunFrames выполняет n кадров по dt без ожидания реального времени
func (l *Loop) RunFrames(n int, dt float64) {
	for i := 0; i < n; i++ {
		l.Frame(dt)
	}
}

// Run крутит цикл в реальном времени, пока не отменён ctx.
// after вызывается после каждого кадра (может быть nil).
func (l *Loop) Run(ctx context.Context, frameStep time.Duration, after func()) {
	ticker := time.NewTicker(frameStep)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Frame(now.Sub(last).Seconds())
			last = now
			if after != nil {
				after()
			}
		}
	}
}

// Frames число выполненных кадров
func (l *Loop) Frames() uint64 { return l.frames }

// FixedSteps число выполненных фиксированных шагов
func (l *Loop) FixedSteps() uint64 { return l.fixedSteps }

// Elapsed игровое время в секундах
func (l *Loop) Elapsed() float64 { return l.elapsed }

// FixedStep длительность фиксированного шага
func (l *Loop) FixedStep() float64 { return l.fixedStep }
