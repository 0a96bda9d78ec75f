package session

import (
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

// SessionSummary holds the data shown when a session ends.
type SessionSummary struct {
	Game           Game
	State          State
	Duration       time.Duration // zero until the session has stopped
	TotalQuestions int
	TotalCorrect   int
	Accuracy       float64
	Remaining      int

	// AverageSeconds is the mean time per answered question, or -1 if no
	// question has been timed.
	AverageSeconds float64

	Questions []problemgen.Question
}

// Summary builds a SessionSummary from the live session.
func (e *Engine) Summary() (*SessionSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.qm == nil {
		return nil, ErrNoActiveSession
	}
	return buildSummary(e.qm, e.state, e.totalElapsed()), nil
}

func buildSummary(qm *Manager, state State, elapsed float64) *SessionSummary {
	answered := qm.Answered()
	correct := qm.RightAnswerCount()

	var accuracy float64
	if len(answered) > 0 {
		accuracy = float64(correct) / float64(len(answered))
	}

	var duration time.Duration
	if elapsed >= 0 {
		duration = time.Duration(elapsed * float64(time.Second))
	}

	avg := -1.0
	var total float64
	timed := 0
	for _, q := range answered {
		if s := q.ElapsedSeconds(); s >= 0 {
			total += s
			timed++
		}
	}
	if timed > 0 {
		avg = total / float64(timed)
	}

	return &SessionSummary{
		Game:           qm.Game(),
		State:          state,
		Duration:       duration,
		TotalQuestions: len(answered),
		TotalCorrect:   correct,
		Accuracy:       accuracy,
		Remaining:      qm.RemainingCount(),
		AverageSeconds: avg,
		Questions:      answered,
	}
}
