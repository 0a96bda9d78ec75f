package session

// State is the lifecycle state of a session.
type State int

const (
	StateNone              State = iota // No game created yet
	StateInitialized                    // Game configured, no question activated
	StateStarted                        // First question activated
	StateTimeAttackStarted              // Time-attack game running, countdown active
	StateStopped                        // Session over
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateTimeAttackStarted:
		return "time-attack-started"
	case StateStopped:
		return "stopped"
	default:
		return "none"
	}
}

// Running reports whether questions are being served.
func (s State) Running() bool {
	return s == StateStarted || s == StateTimeAttackStarted
}

// trigger is an input to the state machine.
type trigger int

const (
	triggerNewGame trigger = iota // NewGame or NewTimeAttackGame
	triggerStart                  // first question activated or explicit Start
	triggerStop                   // last question evaluated or explicit Stop
	triggerTimeUp                 // countdown elapsed
)

func (t trigger) String() string {
	switch t {
	case triggerNewGame:
		return "new-game"
	case triggerStart:
		return "start"
	case triggerStop:
		return "stop"
	default:
		return "time-up"
	}
}

// transition is the result of applying a trigger: the new state plus the
// side effects the engine must carry out.
type transition struct {
	To State

	RecordStart     bool // stamp the session start time
	RecordStop      bool // stamp the session stop time
	StartCountdown  bool
	CancelCountdown bool

	// Events to dispatch once the state has been applied.
	Events []EventKind
}

// advance computes the transition for trigger t from state from. The bool
// is false when the trigger does not apply in that state; the engine then
// leaves the state unchanged.
func advance(from State, t trigger, timeAttack bool) (transition, bool) {
	switch t {
	case triggerNewGame:
		return transition{
			To:              StateInitialized,
			CancelCountdown: true,
		}, true

	case triggerStart:
		if from != StateInitialized {
			return transition{}, false
		}
		if timeAttack {
			return transition{
				To:             StateTimeAttackStarted,
				RecordStart:    true,
				StartCountdown: true,
			}, true
		}
		return transition{To: StateStarted, RecordStart: true}, true

	case triggerStop:
		if from == StateNone || from == StateStopped {
			return transition{}, false
		}
		return transition{
			To:              StateStopped,
			RecordStop:      true,
			CancelCountdown: true,
		}, true

	case triggerTimeUp:
		if from != StateTimeAttackStarted {
			return transition{}, false
		}
		return transition{
			To:              StateStopped,
			RecordStop:      true,
			CancelCountdown: true,
			Events:          []EventKind{EventTimeAttackEnded},
		}, true
	}
	return transition{}, false
}
