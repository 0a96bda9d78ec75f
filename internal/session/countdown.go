package session

import "time"

// tickInterval is the countdown granularity.
const tickInterval = time.Second

// Cancel stops a scheduled callback. Calling it more than once, or after the
// callback ran, is a no-op.
type Cancel func()

// Scheduler runs a callback once after a delay. Callbacks may run on any
// goroutine.
type Scheduler interface {
	ScheduleOnce(d time.Duration, fn func()) Cancel
}

// TimerScheduler schedules callbacks on runtime timers.
type TimerScheduler struct{}

// ScheduleOnce implements Scheduler with time.AfterFunc.
func (TimerScheduler) ScheduleOnce(d time.Duration, fn func()) Cancel {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Countdown counts whole seconds through a Scheduler until a limit is
// exceeded. It has no locking of its own; the Engine calls it under its
// mutex and routes every tick back through fire.
type Countdown struct {
	sched   Scheduler
	limit   int
	elapsed int
	cancel  Cancel
	fire    func()
}

func newCountdown(sched Scheduler, limit int, fire func()) *Countdown {
	return &Countdown{sched: sched, limit: limit, fire: fire}
}

// Start resets the elapsed time and schedules the first tick.
func (c *Countdown) Start() {
	c.Stop()
	c.elapsed = 0
	c.schedule()
}

// Tick records one elapsed second. It returns true once the elapsed time
// exceeds the limit; otherwise the next tick is scheduled.
func (c *Countdown) Tick() bool {
	c.elapsed++
	if c.elapsed > c.limit {
		c.cancel = nil
		return true
	}
	c.schedule()
	return false
}

// Stop cancels the pending tick, if any.
func (c *Countdown) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Running reports whether a tick is pending.
func (c *Countdown) Running() bool {
	return c.cancel != nil
}

// Elapsed returns the number of seconds counted so far.
func (c *Countdown) Elapsed() int {
	return c.elapsed
}

func (c *Countdown) schedule() {
	c.cancel = c.sched.ScheduleOnce(tickInterval, c.fire)
}
