package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

// activation describes the edge outcomes of a successful ActivateNext.
type activation struct {
	// First is set when the first question of the session was activated.
	First bool

	// BatchCreated is set when a new batch was generated for this call.
	BatchCreated bool
}

// Manager owns the questions of one session. Questions live in a single
// arena keyed by id; the batch, current and answered views only hold ids.
//
// A Manager is not safe for concurrent use; the Engine serialises access.
type Manager struct {
	game Game
	gen  *problemgen.Generator
	now  func() time.Time

	arena    map[uuid.UUID]*problemgen.Question
	batch    []uuid.UUID
	current  uuid.UUID // uuid.Nil when no question is current
	answered []uuid.UUID

	// drawn counts questions handed out by Questions for worksheets.
	drawn int
}

// NewManager creates a manager for a validated game.
func NewManager(game Game, gen *problemgen.Generator, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		game:  game.clone(),
		gen:   gen,
		now:   now,
		arena: make(map[uuid.UUID]*problemgen.Question),
	}
}

// Game returns the frozen game configuration.
func (m *Manager) Game() Game {
	return m.game.clone()
}

// ActivateNext deactivates the current question and activates the next one,
// generating a new batch when the current one is exhausted. It returns nil
// once a bounded game has served all its questions.
func (m *Manager) ActivateNext() (*problemgen.Question, activation, error) {
	var out activation

	if m.exhausted() {
		m.current = uuid.Nil
		return nil, out, nil
	}
	if len(m.game.Base) == 0 {
		return nil, out, ErrMissingConfiguration
	}

	if cur := m.currentQuestion(); cur != nil && cur.Result == nil {
		return nil, out, ErrPrematureActivation
	}

	if m.newBatchRequired() {
		out.BatchCreated = m.createBatch()
	}
	if len(m.batch) == 0 {
		m.current = uuid.Nil
		return nil, out, nil
	}

	next := m.arena[m.nextID()]
	now := m.now()
	if cur := m.currentQuestion(); cur != nil {
		deactivate(cur, now)
	}
	next.Active = true
	next.StartedAt = now
	next.StoppedAt = time.Time{}
	m.current = next.ID

	out.First = len(m.answered) == 0
	q := *next
	return &q, out, nil
}

// Evaluate grades answer against the active question. The returned bool is
// true when this answer completed a bounded game.
func (m *Manager) Evaluate(answer int) (problemgen.Result, bool, error) {
	cur := m.currentQuestion()
	if cur == nil || !cur.Active {
		return problemgen.Result{}, false, ErrEvaluationBeforeActivation
	}

	expected, err := cur.Expected()
	if err != nil {
		return problemgen.Result{}, false, err
	}

	result := problemgen.Result{Answer: answer, Expected: expected}
	cur.Result = &result
	cur.Evaluated = true
	deactivate(cur, m.now())
	m.answered = append(m.answered, cur.ID)

	return result, m.exhausted(), nil
}

// Deactivate stops the clock on the current question without grading it.
// Used when the session is stopped mid-question.
func (m *Manager) Deactivate() {
	if cur := m.currentQuestion(); cur != nil {
		deactivate(cur, m.now())
	}
}

// ClearCurrent forgets the current question.
func (m *Manager) ClearCurrent() {
	m.current = uuid.Nil
}

// Current returns a copy of the current question, or nil.
func (m *Manager) Current() *problemgen.Question {
	cur := m.currentQuestion()
	if cur == nil {
		return nil
	}
	q := *cur
	return &q
}

// Batch returns copies of the questions in the current batch.
func (m *Manager) Batch() []problemgen.Question {
	return m.copies(m.batch)
}

// Answered returns copies of the answered questions in answer order.
func (m *Manager) Answered() []problemgen.Question {
	return m.copies(m.answered)
}

// RightAnswerCount returns how many answered questions were correct.
func (m *Manager) RightAnswerCount() int {
	n := 0
	for _, id := range m.answered {
		if r := m.arena[id].Result; r != nil && r.Correct() {
			n++
		}
	}
	return n
}

// RemainingCount returns the number of questions left, or -1 for games
// without a target count.
func (m *Manager) RemainingCount() int {
	if !m.game.Bounded() {
		return Unbounded
	}
	return m.game.TargetCount - len(m.answered)
}

// Questions returns the next group of up to by questions of a worksheet
// pass over the game, or nil once every question has been handed out.
// The play state is left untouched.
func (m *Manager) Questions(by int) ([]problemgen.Question, error) {
	if m.game.Mode.IsTimeAttack() {
		return nil, ErrNotAllowedInTimeAttack
	}
	if len(m.game.Base) == 0 {
		return nil, ErrMissingConfiguration
	}
	if by <= 0 {
		by = m.game.TargetCount
	}
	count := min(by, m.game.TargetCount-m.drawn)
	if count <= 0 {
		return nil, nil
	}

	out := make([]problemgen.Question, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, m.generate(m.drawn+i))
	}
	m.drawn += count
	return out, nil
}

// AllQuestions returns a full worksheet pass over the game.
func (m *Manager) AllQuestions() ([]problemgen.Question, error) {
	if m.game.Mode.IsTimeAttack() {
		return nil, ErrNotAllowedInTimeAttack
	}
	if len(m.game.Base) == 0 {
		return nil, ErrMissingConfiguration
	}
	out := make([]problemgen.Question, 0, m.game.TargetCount)
	for i := 1; i <= m.game.TargetCount; i++ {
		out = append(out, m.generate(i))
	}
	return out, nil
}

func (m *Manager) exhausted() bool {
	return m.game.Bounded() && len(m.answered) == m.game.TargetCount
}

func (m *Manager) currentQuestion() *problemgen.Question {
	if m.current == uuid.Nil {
		return nil
	}
	return m.arena[m.current]
}

func (m *Manager) newBatchRequired() bool {
	if len(m.batch) == 0 {
		return true
	}
	for _, id := range m.batch {
		if m.arena[id].Result == nil {
			return false
		}
	}
	return true
}

// createBatch replaces the batch with freshly generated questions. Indices
// continue from the answered count so sequence games keep counting up.
func (m *Manager) createBatch() bool {
	m.batch = nil

	count := m.game.batchSize()
	if m.game.Bounded() {
		count = min(count, m.game.TargetCount-len(m.answered))
	}
	if count <= 0 {
		return false
	}

	offset := len(m.answered)
	for i := 1; i <= count; i++ {
		q := m.generate(offset + i)
		m.arena[q.ID] = &q
		m.batch = append(m.batch, q.ID)
	}
	return true
}

// nextID picks the first unanswered question after the current one,
// wrapping to the start of the batch.
func (m *Manager) nextID() uuid.UUID {
	start := 0
	for i, id := range m.batch {
		if id == m.current {
			start = i + 1
			break
		}
	}
	for i := 0; i < len(m.batch); i++ {
		id := m.batch[(start+i)%len(m.batch)]
		if m.arena[id].Result == nil {
			return id
		}
	}
	return m.batch[0]
}

func (m *Manager) generate(index int) problemgen.Question {
	return m.gen.Generate(problemgen.GenerateInput{
		Category: m.game.Category,
		Mode:     m.game.Mode,
		Base:     m.game.Base,
		Index:    index,
	})
}

func (m *Manager) copies(ids []uuid.UUID) []problemgen.Question {
	out := make([]problemgen.Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.arena[id])
	}
	return out
}

// deactivate records the stop time on an active question. Inactive
// questions keep the stop time of their last deactivation.
func deactivate(q *problemgen.Question, now time.Time) {
	if !q.Active {
		return
	}
	q.Active = false
	q.StoppedAt = now
}
