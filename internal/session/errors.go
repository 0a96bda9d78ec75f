package session

import "errors"

// Precondition violations. None of them are transient; callers compare with
// errors.Is.
var (
	// ErrPrematureActivation is returned by ActivateNext while the current
	// question has not been evaluated.
	ErrPrematureActivation = errors.New("previous question must be evaluated before a new one can be activated")

	// ErrEvaluationBeforeActivation is returned by Evaluate when no question
	// is active.
	ErrEvaluationBeforeActivation = errors.New("cannot evaluate a question before it has been activated")

	// ErrNotAllowedInTimeAttack is returned by batch enumeration in a
	// time-attack game, which has no fixed question set.
	ErrNotAllowedInTimeAttack = errors.New("not allowed in a time attack game")

	// ErrMissingConfiguration signals a manager running without base
	// operands. Validated games never reach it, so seeing it is a
	// programming error rather than a condition to retry or recover from.
	ErrMissingConfiguration = errors.New("game has no base operands")

	// ErrNoActiveSession is returned by engine operations before NewGame.
	ErrNoActiveSession = errors.New("no active session")

	// ErrInvalidConfig wraps every game configuration validation failure.
	ErrInvalidConfig = errors.New("invalid game configuration")
)
