package problemgen

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Generator produces arithmetic questions. It is not safe for concurrent use.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator with a fixed seed.
func New(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// NewRandom returns a Generator seeded with the current time.
func NewRandom() *Generator {
	return New(time.Now().UnixNano())
}

// Generate builds the question at in.Index. The caller guarantees a
// non-empty in.Base.
func (g *Generator) Generate(in GenerateInput) Question {
	category := in.Category
	if category == CategoryRandom {
		category = resolvable[g.rnd.Intn(len(resolvable))]
	}

	op1 := g.operand1(in.Base)
	op2 := g.operand2(in.Mode, in.Index)
	if category == CategorySubtract && op2 > op1 {
		op1, op2 = op2, op1
	}

	return Question{
		ID:       uuid.New(),
		Operand1: op1,
		Operand2: op2,
		Category: category,
	}
}

// operand1 picks from the base pool; a single base is used as is.
func (g *Generator) operand1(base []int) int {
	if len(base) == 1 {
		return base[0]
	}
	return base[g.rnd.Intn(len(base))]
}

// operand2 counts up from zero in sequence mode and is uniform in
// [1, max] otherwise.
func (g *Generator) operand2(mode Mode, index int) int {
	if mode.Kind == ModeSequence {
		return index - 1
	}
	max := orDefaultMax(mode.Max)
	return 1 + g.rnd.Intn(max)
}
