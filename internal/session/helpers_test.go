package session

import (
	"sync"
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

// fakeScheduler records callbacks and runs them only when told to.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d         time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

func (s *fakeScheduler) ScheduleOnce(d time.Duration, fn func()) Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.cancelled = true
	}
}

// FireNext runs the oldest live callback. It returns false if none is
// pending.
func (s *fakeScheduler) FireNext() bool {
	s.mu.Lock()
	var next *fakeTimer
	for _, t := range s.timers {
		if !t.cancelled && !t.fired {
			next = t
			break
		}
	}
	if next == nil {
		s.mu.Unlock()
		return false
	}
	next.fired = true
	s.mu.Unlock()

	next.fn()
	return true
}

// Pending returns the number of live callbacks.
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.cancelled && !t.fired {
			n++
		}
	}
	return n
}

// Last returns the most recently scheduled timer, live or not.
func (s *fakeScheduler) Last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// testClock is a manually advanced clock.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// eventLog collects events delivered to a sink.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Notify(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) Kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]EventKind, 0, len(l.events))
	for _, e := range l.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (l *eventLog) Count(kind EventKind) int {
	n := 0
	for _, k := range l.Kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (l *eventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

type testEngine struct {
	*Engine
	sched  *fakeScheduler
	clock  *testClock
	events *eventLog
}

func newTestEngine() *testEngine {
	sched := &fakeScheduler{}
	clock := newTestClock()
	events := &eventLog{}
	e := NewEngine(Options{
		Scheduler: sched,
		Sink:      events,
		Clock:     clock.Now,
		Generator: problemgen.New(1),
	})
	return &testEngine{Engine: e, sched: sched, clock: clock, events: events}
}

func newTestManager(game Game) *Manager {
	return NewManager(game, problemgen.New(1), newTestClock().Now)
}

// answerFor returns the correct answer to q.
func answerFor(q *problemgen.Question) int {
	n, err := q.Expected()
	if err != nil {
		panic(err)
	}
	return n
}
