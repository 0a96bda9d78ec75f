package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

func addSequenceConfig(target int) GameConfig {
	return GameConfig{
		Category:    problemgen.CategoryAdd,
		Mode:        problemgen.SequenceMode(),
		Base:        []int{2},
		TargetCount: target,
	}
}

func timeAttackConfig(d Duration) TimeAttackConfig {
	return TimeAttackConfig{
		Category: problemgen.CategoryRandom,
		Max:      100,
		Base:     []int{2, 3, 4},
		Duration: d,
	}
}

// play answers every question until the game stops serving them. wrong
// lists the 1-based question numbers to answer incorrectly.
func play(t *testing.T, e *testEngine, wrong ...int) int {
	t.Helper()
	bad := make(map[int]bool)
	for _, n := range wrong {
		bad[n] = true
	}
	n := 0
	for {
		q, err := e.ActivateNext()
		require.NoError(t, err)
		if q == nil {
			return n
		}
		n++
		answer := answerFor(q)
		if bad[n] {
			answer = 3000
		}
		_, err = e.Evaluate(answer)
		require.NoError(t, err)
	}
}

func TestEngine_NoActiveSession(t *testing.T) {
	e := newTestEngine()
	assert.Equal(t, StateNone, e.State())

	_, err := e.ActivateNext()
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = e.Evaluate(1)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.ErrorIs(t, e.Start(), ErrNoActiveSession)
	assert.ErrorIs(t, e.Stop(), ErrNoActiveSession)
	_, err = e.Questions(5)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = e.Summary()
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, ok := e.Game()
	assert.False(t, ok)
	assert.Nil(t, e.Current())
}

func TestEngine_NewGame(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(GameConfig{
		Category: problemgen.CategoryAdd,
		Mode:     problemgen.SequenceMode(),
		Base:     []int{2},
	}))

	assert.Equal(t, StateInitialized, e.State())
	assert.Equal(t, DefaultQuestionCount, e.RemainingCount())
	assert.Empty(t, e.Answered())
	assert.Zero(t, e.RightAnswerCount())
	assert.Equal(t, -1.0, e.TotalElapsedSeconds())

	game, ok := e.Game()
	require.True(t, ok)
	assert.Equal(t, DefaultQuestionCount, game.TargetCount)
	assert.Equal(t, 1, game.BatchSize)
}

func TestEngine_NewGameRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  GameConfig
	}{
		{"empty base", GameConfig{Category: problemgen.CategoryAdd, Mode: problemgen.SequenceMode()}},
		{"divide", GameConfig{Category: problemgen.CategoryDivide, Mode: problemgen.SequenceMode(), Base: []int{2}}},
		{"negative target", GameConfig{Category: problemgen.CategoryAdd, Mode: problemgen.SequenceMode(), Base: []int{2}, TargetCount: -5}},
		{"bad batch", GameConfig{Category: problemgen.CategoryAdd, Mode: problemgen.SequenceMode(), Base: []int{2}, BatchSize: -3}},
		{"zero max", GameConfig{Category: problemgen.CategoryAdd, Mode: problemgen.Mode{Kind: problemgen.ModeRandom}, Base: []int{2}}},
		{"time attack mode", GameConfig{Category: problemgen.CategoryAdd, Mode: problemgen.TimeAttackMode(10), Base: []int{2}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine()
			err := e.NewGame(tc.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Equal(t, StateNone, e.State())
		})
	}
}

func TestEngine_EmptyBaseIsMissingConfiguration(t *testing.T) {
	e := newTestEngine()
	err := e.NewGame(GameConfig{Category: problemgen.CategoryAdd, Mode: problemgen.SequenceMode()})
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

func TestEngine_InvalidConfigKeepsRunningGame(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(3)))
	_, err := e.ActivateNext()
	require.NoError(t, err)

	require.Error(t, e.NewGame(GameConfig{}))
	assert.Equal(t, StateStarted, e.State())
	assert.NotNil(t, e.Current())
}

func TestEngine_AddSequenceScenario(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(10)))

	q, err := e.ActivateNext()
	require.NoError(t, err)
	assert.Equal(t, "2 + 0", q.String())
	assert.Equal(t, StateStarted, e.State())

	res, err := e.Evaluate(2)
	require.NoError(t, err)
	assert.True(t, res.Correct())

	assert.Equal(t, 9, play(t, e))
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 10, e.RightAnswerCount())
	assert.Equal(t, 0, e.RemainingCount())

	for i, a := range e.Answered() {
		assert.Equal(t, 2, a.Operand1)
		assert.Equal(t, i, a.Operand2)
		assert.False(t, a.Active)
		assert.False(t, a.StartedAt.IsZero())
		assert.False(t, a.StoppedAt.IsZero())
	}
}

func TestEngine_OneWrongAnswer(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(10)))

	assert.Equal(t, 10, play(t, e, 1))
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 9, e.RightAnswerCount())
	assert.Equal(t, 3000, e.Answered()[0].Result.Answer)
}

func TestEngine_SubtractRandomGame(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(GameConfig{
		Category:    problemgen.CategorySubtract,
		Mode:        problemgen.RandomMode(100),
		Base:        []int{2, 4, 6},
		TargetCount: 30,
	}))

	assert.Equal(t, 30, play(t, e, 7))
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 29, e.RightAnswerCount())
	for _, a := range e.Answered() {
		assert.GreaterOrEqual(t, a.Operand1, a.Operand2)
	}
}

func TestEngine_StrictAlternation(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(10)))

	q, err := e.ActivateNext()
	require.NoError(t, err)

	_, err = e.ActivateNext()
	assert.ErrorIs(t, err, ErrPrematureActivation)

	_, err = e.Evaluate(answerFor(q))
	require.NoError(t, err)
	_, err = e.Evaluate(answerFor(q))
	assert.ErrorIs(t, err, ErrEvaluationBeforeActivation)

	assert.Len(t, e.Answered(), 1)
	assert.Equal(t, 9, e.RemainingCount())
}

func TestEngine_ExhaustionStopsSession(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(3)))

	play(t, e)
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 0, e.RemainingCount())
	assert.Equal(t, 1, e.events.Count(EventLastQuestionEvaluated))

	q, err := e.ActivateNext()
	require.NoError(t, err)
	assert.Nil(t, q)
	assert.Nil(t, e.Current())
	assert.Equal(t, 1, e.events.Count(EventLastQuestionEvaluated))
}

func TestEngine_Batching(t *testing.T) {
	e := newTestEngine()
	cfg := addSequenceConfig(12)
	cfg.BatchSize = 5
	require.NoError(t, e.NewGame(cfg))

	var sizes []int
	for {
		q, err := e.ActivateNext()
		require.NoError(t, err)
		if q == nil {
			break
		}
		batch := e.Batch()
		assert.LessOrEqual(t, len(batch), 5)
		if batch[0].ID == q.ID {
			sizes = append(sizes, len(batch))
		}
		_, err = e.Evaluate(answerFor(q))
		require.NoError(t, err)
	}

	assert.Equal(t, []int{5, 5, 2}, sizes)
	assert.Equal(t, 3, e.events.Count(EventBatchCreated))
}

func TestEngine_FirstActivationEvents(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(2)))

	_, err := e.ActivateNext()
	require.NoError(t, err)

	assert.Equal(t, []EventKind{
		EventBatchCreated,
		EventFirstQuestionActivated,
		EventQuestionActivated,
	}, e.events.Kinds())
	for _, ev := range e.events.events {
		if ev.Kind != EventBatchCreated {
			assert.Equal(t, StateStarted, ev.State)
			require.NotNil(t, ev.Question)
		}
	}
}

func TestEngine_EventsForFullGame(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(4)))
	play(t, e)

	assert.Equal(t, 1, e.events.Count(EventFirstQuestionActivated))
	assert.Equal(t, 4, e.events.Count(EventQuestionActivated))
	assert.Equal(t, 1, e.events.Count(EventLastQuestionEvaluated))
	assert.Equal(t, 0, e.events.Count(EventTimeAttackEnded))

	kinds := e.events.Kinds()
	assert.Equal(t, EventLastQuestionEvaluated, kinds[len(kinds)-1])
	assert.Equal(t, StateStopped, e.State())
}

func TestEngine_LastQuestionEventReportsStopped(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(2)))
	play(t, e)

	var last *Event
	for i := range e.events.events {
		if e.events.events[i].Kind == EventLastQuestionEvaluated {
			last = &e.events.events[i]
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, StateStopped, last.State)
	require.NotNil(t, last.Question)
	require.NotNil(t, last.Question.Result)
	assert.Equal(t, 1, last.Question.Operand2)
}

func TestEngine_SingleBatchWalkthrough(t *testing.T) {
	e := newTestEngine()
	cfg := addSequenceConfig(12)
	cfg.BatchSize = Unbounded
	require.NoError(t, e.NewGame(cfg))

	for i := 0; i < 12; i++ {
		q, err := e.ActivateNext()
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.Equal(t, i, q.Operand2)
		assert.Len(t, e.Batch(), 12)

		_, err = e.ActivateNext()
		assert.ErrorIs(t, err, ErrPrematureActivation)

		_, err = e.Evaluate(answerFor(q))
		require.NoError(t, err)
		_, err = e.Evaluate(answerFor(q))
		assert.ErrorIs(t, err, ErrEvaluationBeforeActivation)
	}

	q, err := e.ActivateNext()
	require.NoError(t, err)
	assert.Nil(t, q)
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 0, e.RemainingCount())
	assert.Equal(t, 12, e.RightAnswerCount())
}

func TestEngine_SinkMayCallBack(t *testing.T) {
	var e *Engine
	var seen []State
	e = NewEngine(Options{
		Scheduler: &fakeScheduler{},
		Generator: problemgen.New(1),
		Sink: SinkFunc(func(ev Event) {
			seen = append(seen, e.State())
		}),
	})
	require.NoError(t, e.NewGame(addSequenceConfig(1)))

	q, err := e.ActivateNext()
	require.NoError(t, err)
	_, err = e.Evaluate(answerFor(q))
	require.NoError(t, err)

	assert.Equal(t, StateStopped, seen[len(seen)-1])
}

func TestEngine_ExplicitStart(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(2)))

	require.NoError(t, e.Start())
	assert.Equal(t, StateStarted, e.State())

	_, err := e.ActivateNext()
	require.NoError(t, err)
	assert.Equal(t, StateStarted, e.State())
	assert.Equal(t, 1, e.events.Count(EventFirstQuestionActivated))
}

func TestEngine_ExplicitStop(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(5)))

	_, err := e.ActivateNext()
	require.NoError(t, err)
	require.NoError(t, e.Stop())
	assert.Equal(t, StateStopped, e.State())

	// The interrupted question is no longer active.
	_, err = e.Evaluate(4)
	assert.ErrorIs(t, err, ErrEvaluationBeforeActivation)

	q, err := e.ActivateNext()
	require.NoError(t, err)
	assert.Nil(t, q)

	// Stopping again is a no-op.
	require.NoError(t, e.Stop())
	assert.Equal(t, StateStopped, e.State())
}

func TestEngine_TotalElapsedSeconds(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(2)))

	q, err := e.ActivateNext()
	require.NoError(t, err)
	e.clock.Advance(2 * time.Second)
	_, err = e.Evaluate(answerFor(q))
	require.NoError(t, err)
	assert.Equal(t, -1.0, e.TotalElapsedSeconds())

	q, err = e.ActivateNext()
	require.NoError(t, err)
	e.clock.Advance(3 * time.Second)
	_, err = e.Evaluate(answerFor(q))
	require.NoError(t, err)

	assert.Equal(t, 5.0, e.TotalElapsedSeconds())

	var perQuestion float64
	for _, a := range e.Answered() {
		perQuestion += a.ElapsedSeconds()
	}
	assert.Equal(t, e.TotalElapsedSeconds(), perQuestion)
}

func TestEngine_NewGameResetsSession(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(2)))
	play(t, e)
	require.Equal(t, StateStopped, e.State())

	require.NoError(t, e.NewGame(addSequenceConfig(3)))
	assert.Equal(t, StateInitialized, e.State())
	assert.Empty(t, e.Answered())
	assert.Equal(t, 3, e.RemainingCount())
	assert.Equal(t, -1.0, e.TotalElapsedSeconds())
}

func TestEngine_Worksheet(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(12)))

	all, err := e.AllQuestions()
	require.NoError(t, err)
	assert.Len(t, all, 12)

	var sizes []int
	for {
		qs, err := e.Questions(5)
		require.NoError(t, err)
		if qs == nil {
			break
		}
		sizes = append(sizes, len(qs))
	}
	assert.Equal(t, []int{5, 5, 2}, sizes)
	assert.Equal(t, StateInitialized, e.State())
}

func TestEngine_Summary(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewGame(addSequenceConfig(4)))

	for i := 0; i < 4; i++ {
		q, err := e.ActivateNext()
		require.NoError(t, err)
		e.clock.Advance(time.Second)
		answer := answerFor(q)
		if i == 0 {
			answer++
		}
		_, err = e.Evaluate(answer)
		require.NoError(t, err)
	}

	s, err := e.Summary()
	require.NoError(t, err)
	assert.Equal(t, StateStopped, s.State)
	assert.Equal(t, 4, s.TotalQuestions)
	assert.Equal(t, 3, s.TotalCorrect)
	assert.InDelta(t, 0.75, s.Accuracy, 1e-9)
	assert.Equal(t, 4*time.Second, s.Duration)
	assert.InDelta(t, 1.0, s.AverageSeconds, 1e-9)
	assert.Equal(t, 0, s.Remaining)
	assert.Len(t, s.Questions, 4)
}

// Time attack.

func TestEngine_NewTimeAttackGame(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationOneMin)))

	assert.Equal(t, StateInitialized, e.State())
	assert.Equal(t, -1, e.RemainingCount())
	assert.Empty(t, e.Answered())
	assert.Zero(t, e.CountdownElapsed())
	assert.Equal(t, -1.0, e.TotalElapsedSeconds())

	game, ok := e.Game()
	require.True(t, ok)
	assert.True(t, game.Mode.IsTimeAttack())
	assert.Equal(t, 100, game.Mode.Max)
	assert.Equal(t, DurationOneMin, game.TimeAttack)
	assert.Equal(t, 0, e.sched.Pending())
}

func TestEngine_NewTimeAttackGameRequiresDuration(t *testing.T) {
	e := newTestEngine()
	err := e.NewTimeAttackGame(timeAttackConfig(DurationNone))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEngine_TimeAttackStartsCountdown(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationTest10s)))

	q, err := e.ActivateNext()
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.True(t, q.Active)
	assert.Equal(t, StateTimeAttackStarted, e.State())
	assert.Equal(t, 1, e.sched.Pending())
	assert.Equal(t, time.Second, e.sched.Last().d)
}

func TestEngine_TimeAttackEndsAfterDuration(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationTest10s)))
	_, err := e.ActivateNext()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.True(t, e.sched.FireNext())
	}
	assert.Equal(t, StateTimeAttackStarted, e.State())
	assert.Equal(t, 10, e.CountdownElapsed())
	assert.Zero(t, e.events.Count(EventTimeAttackEnded))

	require.True(t, e.sched.FireNext())
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 1, e.events.Count(EventTimeAttackEnded))
	assert.Equal(t, 0, e.sched.Pending())
	assert.False(t, e.sched.FireNext())

	// The question on screen when time ran out cannot be answered.
	_, err = e.Evaluate(1)
	assert.ErrorIs(t, err, ErrEvaluationBeforeActivation)
	assert.Equal(t, -1, e.RemainingCount())
}

func TestEngine_TimeAttackNeverExhausts(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationOneMin)))

	for i := 0; i < 50; i++ {
		q, err := e.ActivateNext()
		require.NoError(t, err)
		require.NotNil(t, q)
		_, err = e.Evaluate(answerFor(q))
		require.NoError(t, err)
		assert.Equal(t, -1, e.RemainingCount())
	}
	assert.Equal(t, StateTimeAttackStarted, e.State())
	assert.Equal(t, 50, e.RightAnswerCount())
	assert.Zero(t, e.events.Count(EventLastQuestionEvaluated))

	require.NoError(t, e.Stop())
	assert.Equal(t, StateStopped, e.State())
}

func TestEngine_StopCancelsCountdown(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationTest10s)))
	_, err := e.ActivateNext()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.True(t, e.sched.FireNext())
	}
	pending := e.sched.Last()

	require.NoError(t, e.Stop())
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 0, e.sched.Pending())

	// A tick that was already in flight when Stop ran does nothing.
	pending.fn()
	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 3, e.CountdownElapsed())
	assert.Zero(t, e.events.Count(EventTimeAttackEnded))
}

func TestEngine_StaleTickAfterNewGame(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationTest10s)))
	_, err := e.ActivateNext()
	require.NoError(t, err)
	stale := e.sched.Last()

	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationTest10s)))
	assert.Equal(t, 0, e.sched.Pending())
	_, err = e.ActivateNext()
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		stale.fn()
	}
	assert.Equal(t, StateTimeAttackStarted, e.State())
	assert.Zero(t, e.CountdownElapsed())
	assert.Zero(t, e.events.Count(EventTimeAttackEnded))
}

func TestEngine_ExplicitStartTimeAttack(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationTest10s)))

	require.NoError(t, e.Start())
	assert.Equal(t, StateTimeAttackStarted, e.State())
	assert.Equal(t, 1, e.sched.Pending())

	_, err := e.ActivateNext()
	require.NoError(t, err)
	assert.Equal(t, 1, e.sched.Pending())
}

func TestEngine_TimeAttackWorksheetNotAllowed(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationOneMin)))

	_, err := e.Questions(5)
	assert.True(t, errors.Is(err, ErrNotAllowedInTimeAttack))
	_, err = e.AllQuestions()
	assert.True(t, errors.Is(err, ErrNotAllowedInTimeAttack))
}

func TestEngine_CountdownRacesWithPlay(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.NewTimeAttackGame(timeAttackConfig(DurationOneMin)))
	q, err := e.ActivateNext()
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e.sched.FireNext() {
		}
	}()

	for q != nil {
		if _, err := e.Evaluate(answerFor(q)); err != nil {
			require.ErrorIs(t, err, ErrEvaluationBeforeActivation)
			break
		}
		q, err = e.ActivateNext()
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 1, e.events.Count(EventTimeAttackEnded))
	assert.Equal(t, 61, e.CountdownElapsed())
}
