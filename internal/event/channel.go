package event

// Subscription возвращается при подписке; позволяет отписаться.
// Повторный Unsubscribe ничего не делает.
type Subscription interface {
	Unsubscribe()
}

// Channel рассылает значение всем подписчикам синхронно, в порядке подписки.
// Канал не потокобезопасен: им пользуется только игровой цикл.
type Channel[T any] struct {
	listeners []*listener[T]
	nextID    uint64
	fired     uint64
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

type channelSub[T any] struct {
	ch *Channel[T]
	id uint64
}

// NewChannel создаёт пустой канал
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{}
}

// Subscribe добавляет обработчик в конец списка
func (c *Channel[T]) Subscribe(fn func(T)) Subscription {
	c.nextID++
	c.listeners = append(c.listeners, &listener[T]{id: c.nextID, fn: fn})
	return &channelSub[T]{ch: c, id: c.nextID}
}

// Fire вызывает всех подписчиков. Список снимается до рассылки,
// поэтому обработчик может подписываться и отписываться внутри вызова.
func (c *Channel[T]) Fire(v T) {
	c.fired++
	if len(c.listeners) == 0 {
		return
	}
	snapshot := make([]*listener[T], len(c.listeners))
	copy(snapshot, c.listeners)
	for _, l := range snapshot {
		l.fn(v)
	}
}

// ListenerCount возвращает число активных подписчиков
func (c *Channel[T]) ListenerCount() int {
	return len(c.listeners)
}

// Fired возвращает, сколько раз канал срабатывал
func (c *Channel[T]) Fired() uint64 {
	return c.fired
}

func (s *channelSub[T]) Unsubscribe() {
	if s.ch == nil {
		return
	}
	ls := s.ch.listeners
	for i, l := range ls {
		if l.id == s.id {
			s.ch.listeners = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	s.ch = nil
}

// Signal канал без полезной нагрузки
type Signal struct {
	ch Channel[struct{}]
}

// NewSignal создаёт пустой сигнал
func NewSignal() *Signal {
	return &Signal{}
}

// Subscribe добавляет обработчик сигнала
func (s *Signal) Subscribe(fn func()) Subscription {
	return s.ch.Subscribe(func(struct{}) { fn() })
}

// Fire оповещает подписчиков
func (s *Signal) Fire() {
	s.ch.Fire(struct{}{})
}

func (s *Signal) ListenerCount() int { return s.ch.ListenerCount() }

func (s *Signal) Fired() uint64 { return s.ch.Fired() }

// Subscriptions собирает подписки владельца, чтобы снять их разом
type Subscriptions []Subscription

// Add запоминает подписку
func (s *Subscriptions) Add(sub Subscription) {
	*s = append(*s, sub)
}

// UnsubscribeAll отписывает все сохранённые подписки
func (s *Subscriptions) UnsubscribeAll() {
	for _, sub := range *s {
		sub.Unsubscribe()
	}
	*s = nil
}
