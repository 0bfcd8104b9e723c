// Package timer содержит отложенные действия, которые продвигаются тиками игрового цикла.
package timer

// State состояние отложенного действия
type State uint8

const (
	Idle State = iota
	Pending
	Fired
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Pending:
		return "Pending"
	case Fired:
		return "Fired"
	case Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Delay вызывает действие через заданное время игрового цикла.
// Отмена переводит его в Aborted: действие после этого не выполнится.
type Delay struct {
	state     State
	remaining float64
	action    func()
}

// Start (пере)запускает таймер. Незавершённый предыдущий запуск отменяется.
// seconds <= 0 выполняет действие сразу.
func (d *Delay) Start(seconds float64, action func()) {
	d.action = action
	d.remaining = seconds
	d.state = Pending
	if seconds <= 0 {
		d.fire()
	}
}

// Cancel прерывает ожидание. Возвращает true, если действие было снято.
func (d *Delay) Cancel() bool {
	if d.state != Pending {
		return false
	}
	d.state = Aborted
	d.action = nil
	return true
}

// Tick продвигает таймер на dt секунд
func (d *Delay) Tick(dt float64) {
	if d.state != Pending {
		return
	}
	d.remaining -= dt
	if d.remaining <= 0 {
		d.fire()
	}
}

func (d *Delay) fire() {
	action := d.action
	d.action = nil
	d.remaining = 0
	d.state = Fired
	if action != nil {
		action()
	}
}

func (d *Delay) State() State { return d.state }

// Pending true, пока действие ожидает срабатывания
func (d *Delay) Pending() bool { return d.state == Pending }

func (d *Delay) Remaining() float64 { return d.remaining }

// Cooldown ограничивает частоту действий (выстрелы ИИ, подбор предметов)
type Cooldown struct {
	Period float64
	left   float64
}

// Ready true, если период истёк
func (c *Cooldown) Ready() bool { return c.left <= 0 }

// Trigger запускает новый период. Возвращает false, если период ещё не истёк.
func (c *Cooldown) Trigger() bool {
	if c.left > 0 {
		return false
	}
	c.left = c.Period
	return true
}

func (c *Cooldown) Tick(dt float64) {
	if c.left > 0 {
		c.left -= dt
	}
}

func (c *Cooldown) Reset() { c.left = 0 }
