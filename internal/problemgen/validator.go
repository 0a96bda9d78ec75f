package problemgen

import (
	"fmt"
	"slices"
)

// Validator checks a generated question against the input it was built from.
// Implementations are stateless.
type Validator interface {
	// Name is a short identifier used in error messages, e.g. "operands".
	Name() string

	// Validate returns nil if q passes.
	Validate(q *Question, input GenerateInput) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefaultValidators returns the checks every generated question must pass.
func DefaultValidators() []Validator {
	return []Validator{&StructuralValidator{}, &OperandValidator{}}
}

// Validate runs validators over q and returns the first failure.
func Validate(q *Question, input GenerateInput, validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(q, input); err != nil {
			return err
		}
	}
	return nil
}

// StructuralValidator checks that a question is fresh and answerable.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question, in GenerateInput) *ValidationError {
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: msg}
	}
	if _, err := q.Expected(); err != nil {
		return fail(fmt.Sprintf("category %s is not answerable", q.Category.Name()))
	}
	if in.Category != CategoryRandom && q.Category != in.Category {
		return fail(fmt.Sprintf("category %s, want %s", q.Category.Name(), in.Category.Name()))
	}
	if q.Active || q.Evaluated || q.Result != nil {
		return fail("question already has runtime state")
	}
	if !q.StartedAt.IsZero() || !q.StoppedAt.IsZero() {
		return fail("question already has timestamps")
	}
	return nil
}

// OperandValidator checks that the operands come from the base pool and the
// mode's range. Subtraction may have swapped them to keep the answer
// non-negative.
type OperandValidator struct{}

func (v *OperandValidator) Name() string { return "operands" }

func (v *OperandValidator) Validate(q *Question, in GenerateInput) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
	}

	inRange := func(n int) bool {
		if in.Mode.Kind == ModeSequence {
			return n == in.Index-1
		}
		return n >= 1 && n <= in.Mode.Max
	}

	switch {
	case slices.Contains(in.Base, q.Operand1) && inRange(q.Operand2):
	case q.Category == CategorySubtract && slices.Contains(in.Base, q.Operand2) && inRange(q.Operand1):
	default:
		return fail("operands %d and %d do not match base %v and mode %s", q.Operand1, q.Operand2, in.Base, in.Mode.Name())
	}

	if q.Category == CategorySubtract && q.Operand1 < q.Operand2 {
		return fail("subtraction %s has a negative answer", q.String())
	}
	return nil
}
