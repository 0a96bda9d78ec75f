package session

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

// Settings holds the defaults applied to games that leave them unset.
type Settings struct {
	QuestionCount int
	BatchSize     int
}

// DefaultSettings returns ten questions served one at a time.
func DefaultSettings() Settings {
	return Settings{QuestionCount: DefaultQuestionCount, BatchSize: 1}
}

// Options configures an Engine. Zero fields get defaults.
type Options struct {
	Settings  Settings
	Scheduler Scheduler
	Sink      Sink
	Logger    *slog.Logger
	Clock     func() time.Time
	Generator *problemgen.Generator
}

// Engine is the session controller. It owns the game configuration, the
// question manager, the session state and the time-attack countdown.
// All methods are safe for concurrent use; countdown ticks are serialised
// with caller operations by the same mutex.
type Engine struct {
	mu sync.Mutex

	settings Settings
	sched    Scheduler
	sink     Sink
	log      *slog.Logger
	now      func() time.Time
	gen      *problemgen.Generator

	state     State
	qm        *Manager
	countdown *Countdown

	// generation increments with every new game so ticks scheduled for an
	// older session are ignored.
	generation uint64

	startedAt time.Time
	stoppedAt time.Time
}

// NewEngine creates an engine in StateNone.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		settings: opts.Settings,
		sched:    opts.Scheduler,
		sink:     opts.Sink,
		log:      opts.Logger,
		now:      opts.Clock,
		gen:      opts.Generator,
	}
	if e.settings.QuestionCount == 0 {
		e.settings.QuestionCount = DefaultQuestionCount
	}
	if e.settings.BatchSize == 0 {
		e.settings.BatchSize = 1
	}
	if e.sched == nil {
		e.sched = TimerScheduler{}
	}
	if e.sink == nil {
		e.sink = discardSink{}
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.gen == nil {
		e.gen = problemgen.NewRandom()
	}
	return e
}

// Settings returns the engine defaults.
func (e *Engine) Settings() Settings {
	return e.settings
}

// NewGame replaces any running session with a fresh bounded game.
func (e *Engine) NewGame(cfg GameConfig) error {
	game, err := buildGame(cfg, e.settings)
	if err != nil {
		e.log.Warn("new game rejected", "err", err)
		return err
	}
	e.mu.Lock()
	e.reset(game)
	e.mu.Unlock()
	return nil
}

// NewTimeAttackGame replaces any running session with a time-attack game.
func (e *Engine) NewTimeAttackGame(cfg TimeAttackConfig) error {
	game, err := buildTimeAttackGame(cfg)
	if err != nil {
		e.log.Warn("new time attack game rejected", "err", err)
		return err
	}
	e.mu.Lock()
	e.reset(game)
	e.mu.Unlock()
	return nil
}

// Start moves an initialized session to started (or time-attack started).
// It is a no-op in any other state.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.qm == nil {
		e.mu.Unlock()
		return ErrNoActiveSession
	}
	events := e.fire(triggerStart)
	e.mu.Unlock()

	e.dispatch(events)
	return nil
}

// Stop ends the session. The countdown is cancelled before Stop returns, so
// no tick can end the session a second time. Stopping a stopped session is
// a no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.qm == nil {
		e.mu.Unlock()
		return ErrNoActiveSession
	}
	events := e.fire(triggerStop)
	e.mu.Unlock()

	e.dispatch(events)
	return nil
}

// ActivateNext activates the next question and returns a copy of it. It
// returns nil once the session has no more questions to serve.
func (e *Engine) ActivateNext() (*problemgen.Question, error) {
	e.mu.Lock()
	if e.qm == nil {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if e.state == StateStopped {
		e.qm.ClearCurrent()
		e.mu.Unlock()
		return nil, nil
	}

	q, out, err := e.qm.ActivateNext()
	if err != nil {
		e.log.Warn("activate rejected", "state", e.state, "err", err)
		e.mu.Unlock()
		return nil, err
	}
	if q == nil {
		e.mu.Unlock()
		return nil, nil
	}

	var events []Event
	if out.BatchCreated {
		events = append(events, e.event(EventBatchCreated, nil))
	}
	if out.First {
		events = append(events, e.fire(triggerStart)...)
		events = append(events, e.event(EventFirstQuestionActivated, q))
	}
	events = append(events, e.event(EventQuestionActivated, q))
	e.log.Debug("question activated", "question", q.String(), "answered", len(e.qm.answered))
	e.mu.Unlock()

	e.dispatch(events)
	return q, nil
}

// Evaluate grades answer against the active question. Evaluating the last
// question of a bounded game stops the session.
func (e *Engine) Evaluate(answer int) (problemgen.Result, error) {
	e.mu.Lock()
	if e.qm == nil {
		e.mu.Unlock()
		return problemgen.Result{}, ErrNoActiveSession
	}

	result, last, err := e.qm.Evaluate(answer)
	if err != nil {
		e.log.Warn("evaluate rejected", "state", e.state, "err", err)
		e.mu.Unlock()
		return problemgen.Result{}, err
	}

	var events []Event
	if last {
		q := e.qm.Current()
		stop := e.fire(triggerStop)
		events = append(events, e.event(EventLastQuestionEvaluated, q))
		events = append(events, stop...)
	}
	e.mu.Unlock()

	e.dispatch(events)
	return result, nil
}

// Questions returns the next worksheet group of up to by questions.
func (e *Engine) Questions(by int) ([]problemgen.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qm == nil {
		return nil, ErrNoActiveSession
	}
	qs, err := e.qm.Questions(by)
	if err != nil {
		return nil, fmt.Errorf("questions by %d: %w", by, err)
	}
	return qs, nil
}

// AllQuestions returns every question of a worksheet pass.
func (e *Engine) AllQuestions() ([]problemgen.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qm == nil {
		return nil, ErrNoActiveSession
	}
	qs, err := e.qm.AllQuestions()
	if err != nil {
		return nil, fmt.Errorf("all questions: %w", err)
	}
	return qs, nil
}

// State returns the session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Game returns the configuration of the current session.
func (e *Engine) Game() (Game, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qm == nil {
		return Game{}, false
	}
	return e.qm.Game(), true
}

// Current returns a copy of the current question, or nil.
func (e *Engine) Current() *problemgen.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qm == nil {
		return nil
	}
	return e.qm.Current()
}

// Batch returns the questions of the current batch.
func (e *Engine) Batch() []problemgen.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qm == nil {
		return nil
	}
	return e.qm.Batch()
}

// Answered returns the answered questions in answer order.
func (e *Engine) Answered() []problemgen.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qm == nil {
		return nil
	}
	return e.qm.Answered()
}

// RightAnswerCount returns the number of correct answers so far.
func (e *Engine) RightAnswerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qm == nil {
		return 0
	}
	return e.qm.RightAnswerCount()
}

// RemainingCount returns the questions left, or -1 in a time-attack game.
func (e *Engine) RemainingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qm == nil {
		return 0
	}
	return e.qm.RemainingCount()
}

// TotalElapsedSeconds returns the session duration, or -1 until the
// session has both started and stopped.
func (e *Engine) TotalElapsedSeconds() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalElapsed()
}

// CountdownElapsed returns the seconds counted by the time-attack countdown.
func (e *Engine) CountdownElapsed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.countdown == nil {
		return 0
	}
	return e.countdown.Elapsed()
}

func (e *Engine) totalElapsed() float64 {
	if e.startedAt.IsZero() || e.stoppedAt.IsZero() {
		return -1
	}
	return e.stoppedAt.Sub(e.startedAt).Seconds()
}

// reset installs game as the live session. Callers hold e.mu.
func (e *Engine) reset(game Game) {
	e.fire(triggerNewGame)
	e.generation++
	e.qm = NewManager(game, e.gen, e.now)
	e.countdown = nil
	e.startedAt = time.Time{}
	e.stoppedAt = time.Time{}
	e.log.Debug("new game",
		"category", game.Category.Name(),
		"mode", game.Mode.Name(),
		"target", game.TargetCount,
		"batch", game.BatchSize,
	)
}

// fire applies trigger t and returns the events it produced. Callers hold
// e.mu.
func (e *Engine) fire(t trigger) []Event {
	timeAttack := e.qm != nil && e.qm.game.Mode.IsTimeAttack()
	tr, ok := advance(e.state, t, timeAttack)
	if !ok {
		return nil
	}

	from := e.state
	e.state = tr.To
	now := e.now()
	if tr.RecordStart {
		e.startedAt = now
	}
	if tr.RecordStop {
		e.stoppedAt = now
		e.qm.Deactivate()
	}
	if tr.CancelCountdown && e.countdown != nil {
		e.countdown.Stop()
	}
	if tr.StartCountdown {
		e.startCountdown()
	}
	e.log.Debug("session transition", "from", from, "to", tr.To, "trigger", t)

	events := make([]Event, 0, len(tr.Events))
	for _, k := range tr.Events {
		events = append(events, e.event(k, nil))
	}
	return events
}

func (e *Engine) startCountdown() {
	gen := e.generation
	limit := e.qm.game.TimeAttack.Seconds()
	e.countdown = newCountdown(e.sched, limit, func() { e.tick(gen) })
	e.countdown.Start()
}

// tick handles one countdown second. Ticks from an older game, or arriving
// after the countdown was cancelled, do nothing.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if gen != e.generation || e.countdown == nil || !e.countdown.Running() || e.state != StateTimeAttackStarted {
		e.mu.Unlock()
		return
	}
	if !e.countdown.Tick() {
		e.mu.Unlock()
		return
	}
	events := e.fire(triggerTimeUp)
	e.log.Info("time attack ended", "answered", len(e.qm.answered), "right", e.qm.RightAnswerCount())
	e.mu.Unlock()

	e.dispatch(events)
}

func (e *Engine) event(kind EventKind, q *problemgen.Question) Event {
	return Event{Kind: kind, State: e.state, At: e.now(), Question: q}
}

func (e *Engine) dispatch(events []Event) {
	for _, ev := range events {
		e.sink.Notify(ev)
	}
}
