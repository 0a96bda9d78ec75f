package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mathdrill/internal/problemgen"
)

// Unbounded marks a batch size of "everything at once" or a target count of
// "until the countdown ends".
const Unbounded = -1

// DefaultQuestionCount is the number of questions in a game when neither the
// caller nor the settings say otherwise.
const DefaultQuestionCount = 10

// Duration is the fixed length of a time-attack session.
type Duration int

const (
	DurationNone Duration = iota
	DurationTest10s
	DurationOneMin
	DurationTwoMin
	DurationFiveMin
	DurationTenMin
)

// AllDurations returns the durations offered to players. DurationNone and
// the short test duration are excluded.
func AllDurations() []Duration {
	return []Duration{DurationOneMin, DurationTwoMin, DurationFiveMin, DurationTenMin}
}

// Seconds returns the length of the duration in whole seconds.
func (d Duration) Seconds() int {
	switch d {
	case DurationTest10s:
		return 10
	case DurationOneMin:
		return 60
	case DurationTwoMin:
		return 120
	case DurationFiveMin:
		return 300
	case DurationTenMin:
		return 600
	default:
		return 0
	}
}

// Std converts the duration to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d.Seconds()) * time.Second
}

// Name returns the display label.
func (d Duration) Name() string {
	switch d {
	case DurationTest10s:
		return "10 sec"
	case DurationOneMin:
		return "1 min"
	case DurationTwoMin:
		return "2 min"
	case DurationFiveMin:
		return "5 min"
	case DurationTenMin:
		return "10 min"
	default:
		return "None"
	}
}

// ParseDuration accepts Go duration strings matching one of the fixed
// durations ("1m", "120s", "10s").
func ParseDuration(s string) (Duration, error) {
	td, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return DurationNone, fmt.Errorf("parse time attack duration: %w", err)
	}
	for _, d := range append([]Duration{DurationTest10s}, AllDurations()...) {
		if d.Std() == td {
			return d, nil
		}
	}
	return DurationNone, fmt.Errorf("unsupported time attack duration %s", td)
}

// GameConfig is the caller's description of a bounded game.
type GameConfig struct {
	Category problemgen.Category
	Mode     problemgen.Mode

	// Base operands; operand1 is drawn from here.
	Base []int

	// BatchSize is the number of questions generated at a time. Zero means
	// 1; Unbounded generates the whole game in one batch.
	BatchSize int

	// TargetCount is the number of questions in the game. Zero uses the
	// engine settings.
	TargetCount int
}

// TimeAttackConfig describes a game bounded only by a countdown.
type TimeAttackConfig struct {
	Category problemgen.Category
	Max      int
	Base     []int
	Duration Duration
}

// Game is the frozen configuration of one session.
type Game struct {
	Category    problemgen.Category
	Mode        problemgen.Mode
	Base        []int
	BatchSize   int
	TargetCount int
	TimeAttack  Duration
}

// Bounded reports whether the game ends after a fixed number of questions.
func (g Game) Bounded() bool {
	return g.TargetCount != Unbounded
}

// batchSize resolves Unbounded to the whole game.
func (g Game) batchSize() int {
	if g.BatchSize == Unbounded {
		return g.TargetCount
	}
	return g.BatchSize
}

func (g Game) clone() Game {
	g.Base = append([]int(nil), g.Base...)
	return g
}

// buildGame validates cfg and freezes it, filling defaults from settings.
func buildGame(cfg GameConfig, settings Settings) (Game, error) {
	g := Game{
		Category:    cfg.Category,
		Mode:        cfg.Mode,
		Base:        append([]int(nil), cfg.Base...),
		BatchSize:   cfg.BatchSize,
		TargetCount: cfg.TargetCount,
	}
	if g.BatchSize == 0 {
		g.BatchSize = settings.BatchSize
	}
	if g.TargetCount == 0 {
		g.TargetCount = settings.QuestionCount
	}
	if g.Mode.IsTimeAttack() {
		return Game{}, fmt.Errorf("%w: time attack games are created with NewTimeAttackGame", ErrInvalidConfig)
	}
	if g.TargetCount < 1 {
		return Game{}, fmt.Errorf("%w: target count %d", ErrInvalidConfig, g.TargetCount)
	}
	if g.BatchSize < 1 && g.BatchSize != Unbounded {
		return Game{}, fmt.Errorf("%w: batch size %d", ErrInvalidConfig, g.BatchSize)
	}
	if err := validateCommon(g); err != nil {
		return Game{}, err
	}
	return g, nil
}

// buildTimeAttackGame validates cfg and freezes it. Time-attack games serve
// one question at a time with no target count.
func buildTimeAttackGame(cfg TimeAttackConfig) (Game, error) {
	g := Game{
		Category:    cfg.Category,
		Mode:        problemgen.TimeAttackMode(cfg.Max),
		Base:        append([]int(nil), cfg.Base...),
		BatchSize:   1,
		TargetCount: Unbounded,
		TimeAttack:  cfg.Duration,
	}
	if g.TimeAttack.Seconds() <= 0 {
		return Game{}, fmt.Errorf("%w: time attack duration %s", ErrInvalidConfig, g.TimeAttack.Name())
	}
	if err := validateCommon(g); err != nil {
		return Game{}, err
	}
	return g, nil
}

func validateCommon(g Game) error {
	if len(g.Base) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrMissingConfiguration)
	}
	switch g.Category {
	case problemgen.CategoryAdd, problemgen.CategorySubtract, problemgen.CategoryMultiply, problemgen.CategoryRandom:
	default:
		return fmt.Errorf("%w: category %s", ErrInvalidConfig, g.Category.Name())
	}
	if g.Mode.Kind != problemgen.ModeSequence && g.Mode.Max < 1 {
		return fmt.Errorf("%w: max %d", ErrInvalidConfig, g.Mode.Max)
	}
	return nil
}
