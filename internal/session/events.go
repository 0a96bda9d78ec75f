package session

import (
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

// EventKind identifies an engine notification.
type EventKind int

const (
	EventBatchCreated EventKind = iota
	EventFirstQuestionActivated
	EventQuestionActivated
	EventLastQuestionEvaluated
	EventTimeAttackEnded
)

func (k EventKind) String() string {
	switch k {
	case EventBatchCreated:
		return "batch-created"
	case EventFirstQuestionActivated:
		return "first-question-activated"
	case EventQuestionActivated:
		return "question-activated"
	case EventLastQuestionEvaluated:
		return "last-question-evaluated"
	case EventTimeAttackEnded:
		return "time-attack-ended"
	default:
		return "unknown"
	}
}

// Event is delivered to the engine's Sink after the state change that
// caused it has been applied.
type Event struct {
	Kind  EventKind
	State State
	At    time.Time

	// Question is set for activation events and for
	// EventLastQuestionEvaluated.
	Question *problemgen.Question
}

// Sink receives engine events. Notify is called without the engine lock
// held, so it may call back into the engine.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

// Notify calls f(e).
func (f SinkFunc) Notify(e Event) { f(e) }

type discardSink struct{}

func (discardSink) Notify(Event) {}
