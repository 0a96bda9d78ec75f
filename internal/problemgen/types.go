package problemgen

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnsupportedCategory is returned when a question carries an operator the
// engine cannot grade. Questions built by the Generator never do.
var ErrUnsupportedCategory = errors.New("unsupported question category")

// Category is the arithmetic operation a game practises.
type Category int

const (
	CategoryAdd Category = iota
	CategorySubtract
	CategoryMultiply
	CategoryDivide // never produced by the generator
	CategoryRandom // resolved to add, subtract or multiply per question
)

// resolvable lists the operators CategoryRandom may resolve to.
var resolvable = []Category{CategoryAdd, CategorySubtract, CategoryMultiply}

// String returns the operator symbol, or "random".
func (c Category) String() string {
	switch c {
	case CategoryAdd:
		return "+"
	case CategorySubtract:
		return "-"
	case CategoryMultiply:
		return "*"
	case CategoryDivide:
		return "/"
	default:
		return "random"
	}
}

// Name returns the lowercase category name used in flags and presets.
func (c Category) Name() string {
	switch c {
	case CategoryAdd:
		return "add"
	case CategorySubtract:
		return "subtract"
	case CategoryMultiply:
		return "multiply"
	case CategoryDivide:
		return "divide"
	default:
		return "random"
	}
}

// ParseCategory parses a category name or operator symbol.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "+":
		return CategoryAdd, nil
	case "subtract", "sub", "-":
		return CategorySubtract, nil
	case "multiply", "mult", "*", "x":
		return CategoryMultiply, nil
	case "divide", "/":
		return CategoryDivide, nil
	case "random":
		return CategoryRandom, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// DefaultMax is the upper operand bound used when a random or time-attack
// mode is built without one.
const DefaultMax = 10

// ModeKind selects how the second operand is produced.
type ModeKind int

const (
	ModeSequence ModeKind = iota
	ModeRandom
	ModeTimeAttack
)

// Mode is the generation mode of a game. Max is only meaningful for
// ModeRandom and ModeTimeAttack.
type Mode struct {
	Kind ModeKind
	Max  int
}

// SequenceMode returns a times-table style mode: operand2 counts up from 0.
func SequenceMode() Mode {
	return Mode{Kind: ModeSequence}
}

// RandomMode returns a mode drawing operand2 uniformly from [1, max].
func RandomMode(max int) Mode {
	return Mode{Kind: ModeRandom, Max: orDefaultMax(max)}
}

// TimeAttackMode is RandomMode for sessions bounded by a countdown.
func TimeAttackMode(max int) Mode {
	return Mode{Kind: ModeTimeAttack, Max: orDefaultMax(max)}
}

func orDefaultMax(max int) int {
	if max <= 0 {
		return DefaultMax
	}
	return max
}

// IsTimeAttack reports whether the mode is ModeTimeAttack.
func (m Mode) IsTimeAttack() bool {
	return m.Kind == ModeTimeAttack
}

// Name returns the display name of the mode kind.
func (m Mode) Name() string {
	switch m.Kind {
	case ModeRandom:
		return "Random"
	case ModeTimeAttack:
		return "TimeAttack"
	default:
		return "Sequence"
	}
}

// ParseModeKind parses "sequence", "random" or "timeattack".
func ParseModeKind(s string) (ModeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequence", "seq":
		return ModeSequence, nil
	case "random":
		return ModeRandom, nil
	case "timeattack", "time-attack", "time_attack":
		return ModeTimeAttack, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Question is a single arithmetic problem plus its runtime state.
// Category is always resolved; it is never CategoryRandom.
type Question struct {
	ID       uuid.UUID
	Operand1 int
	Operand2 int
	Category Category

	// Active is true while the question is being answered.
	Active bool

	// Evaluated is set once an answer has been graded.
	Evaluated bool

	// Result is nil until the question is evaluated.
	Result *Result

	// StartedAt is set when the question is activated; zero otherwise.
	StartedAt time.Time

	// StoppedAt is set when the question leaves the active state; zero
	// while active or never activated.
	StoppedAt time.Time
}

// Expected returns the correct answer for the question.
func (q Question) Expected() (int, error) {
	switch q.Category {
	case CategoryAdd:
		return q.Operand1 + q.Operand2, nil
	case CategorySubtract:
		return q.Operand1 - q.Operand2, nil
	case CategoryMultiply:
		return q.Operand1 * q.Operand2, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedCategory, q.Category.Name())
}

// ElapsedSeconds returns the time spent on the question, or -1 if it has
// not been both started and stopped.
func (q Question) ElapsedSeconds() float64 {
	if q.StartedAt.IsZero() || q.StoppedAt.IsZero() {
		return -1
	}
	return q.StoppedAt.Sub(q.StartedAt).Seconds()
}

// String renders the question as "2 + 3".
func (q Question) String() string {
	return fmt.Sprintf("%d %s %d", q.Operand1, q.Category, q.Operand2)
}

// Result is the graded outcome of a question.
type Result struct {
	Answer   int
	Expected int
}

// Correct reports whether the submitted answer matches the expected one.
func (r Result) Correct() bool {
	return r.Answer == r.Expected
}

// GenerateInput holds everything needed to generate one question.
type GenerateInput struct {
	Category Category
	Mode     Mode

	// Base is the pool operand1 is drawn from. Must be non-empty.
	Base []int

	// Index is the 1-based position of the question within the session.
	Index int
}
