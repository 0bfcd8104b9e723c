// Package pool переиспользует игровые объекты, сгруппированные по прототипу.
package pool

import (
	"sort"

	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/annel0/tank-battalion/internal/vec"
)

// Object любой объект, который умеет встать в точку появления
type Object interface {
	Place(pos vec.Vec2Float, facing vec.Direction)
}

// Spawnable получает уведомление при каждой выдаче из пула
type Spawnable interface {
	OnPoolSpawn()
}

// Despawnable получает уведомление при возврате в пул
type Despawnable interface {
	OnPoolUnSpawn()
}

// Destroyable уничтожается, если его вернули не в тот пул
type Destroyable interface {
	Destroy()
}

// Prototype описывает, как создать новый экземпляр
type Prototype interface {
	ID() string
	New() Object
}

type funcPrototype struct {
	id string
	fn func() Object
}

func (p *funcPrototype) ID() string  { return p.id }
func (p *funcPrototype) New() Object { return p.fn() }

// NewPrototype создаёт прототип из фабричной функции
func NewPrototype(id string, fn func() Object) Prototype {
	return &funcPrototype{id: id, fn: fn}
}

// Stats состояние одного пула
type Stats struct {
	ID      string `json:"id"`
	Free    int    `json:"free"`
	Active  int    `json:"active"`
	Created int    `json:"created"`
}

type entry struct {
	proto   Prototype
	free    []Object
	active  int
	created int
}

// Manager хранит пулы всех зарегистрированных прототипов.
// Используется только из игрового цикла.
type Manager struct {
	entries map[string]*entry
	owner   map[Object]*entry
	inFree  map[Object]bool

	// OnAcquire и OnRelease вызываются после выдачи и возврата учтённых объектов
	OnAcquire func(id string, obj Object)
	OnRelease func(id string, obj Object)
}

// NewManager создаёт пустой менеджер пулов
func NewManager() *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		owner:   make(map[Object]*entry),
		inFree:  make(map[Object]bool),
	}
}

// Register заводит пул для прототипа. Повторная регистрация ничего не меняет.
func (m *Manager) Register(p Prototype) {
	if p == nil {
		return
	}
	if _, ok := m.entries[p.ID()]; ok {
		return
	}
	m.entries[p.ID()] = &entry{proto: p}
}

// Preload заранее создаёт count неактивных экземпляров
func (m *Manager) Preload(p Prototype, count int) {
	if p == nil {
		logging.Warn("pool: Preload без прототипа")
		return
	}
	m.Register(p)
	e := m.entries[p.ID()]
	for i := 0; i < count; i++ {
		obj := p.New()
		e.created++
		m.owner[obj] = e
		m.inFree[obj] = true
		e.free = append(e.free, obj)
	}
	logging.Debug("pool: %s предзагружен (%d)", p.ID(), count)
}

// Acquire выдаёт активный экземпляр: из списка свободных (последний вернувшийся)
// или новый. Для незарегистрированного прототипа объект создаётся без учёта в пуле.
func (m *Manager) Acquire(p Prototype, pos vec.Vec2Float, facing vec.Direction) Object {
	if p == nil {
		logging.Warn("pool: Acquire без прототипа")
		return nil
	}

	e, ok := m.entries[p.ID()]
	if !ok {
		logging.Debug("pool: прототип %s не зарегистрирован, создаём напрямую", p.ID())
		obj := p.New()
		activate(obj, pos, facing)
		return obj
	}

	var obj Object
	if n := len(e.free); n > 0 {
		obj = e.free[n-1]
		e.free[n-1] = nil
		e.free = e.free[:n-1]
		delete(m.inFree, obj)
	} else {
		obj = p.New()
		e.created++
		m.owner[obj] = e
	}
	e.active++

	activate(obj, pos, facing)
	if m.OnAcquire != nil {
		m.OnAcquire(p.ID(), obj)
	}
	return obj
}

func activate(obj Object, pos vec.Vec2Float, facing vec.Direction) {
	obj.Place(pos, facing)
	if s, ok := obj.(Spawnable); ok {
		s.OnPoolSpawn()
	}
}

// Release возвращает экземпляр в его пул. Чужой объект уничтожается,
// повторный возврат игнорируется.
func (m *Manager) Release(obj Object) {
	if obj == nil {
		return
	}

	e, ok := m.owner[obj]
	if !ok {
		logging.Warn("pool: объект %T не принадлежит пулу, уничтожаем", obj)
		if d, ok := obj.(Destroyable); ok {
			d.Destroy()
		}
		return
	}
	if m.inFree[obj] {
		logging.Debug("pool: повторный возврат %s проигнорирован", e.proto.ID())
		return
	}

	if d, ok := obj.(Despawnable); ok {
		d.OnPoolUnSpawn()
	}
	m.inFree[obj] = true
	e.free = append(e.free, obj)
	e.active--

	if m.OnRelease != nil {
		m.OnRelease(e.proto.ID(), obj)
	}
}

// Owns true, если объект создан одним из пулов менеджера
func (m *Manager) Owns(obj Object) bool {
	_, ok := m.owner[obj]
	return ok
}

// Active true, если объект выдан из пула и ещё не возвращён
func (m *Manager) Active(obj Object) bool {
	return m.Owns(obj) && !m.inFree[obj]
}

// Stats возвращает состояние пула прототипа
func (m *Manager) Stats(id string) (Stats, bool) {
	e, ok := m.entries[id]
	if !ok {
		return Stats{}, false
	}
	return Stats{ID: id, Free: len(e.free), Active: e.active, Created: e.created}, true
}

// AllStats возвращает состояние всех пулов, отсортированное по ID
func (m *Manager) AllStats() []Stats {
	out := make([]Stats, 0, len(m.entries))
	for id := range m.entries {
		s, _ := m.Stats(id)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AcquireAs выдаёт экземпляр и приводит его к нужному типу
func AcquireAs[T Object](m *Manager, p Prototype, pos vec.Vec2Float, facing vec.Direction) (T, bool) {
	obj := m.Acquire(p, pos, facing)
	t, ok := obj.(T)
	return t, ok
}
