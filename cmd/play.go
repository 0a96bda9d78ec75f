package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/mathdrill/internal/config"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/ui/components"
	"github.com/abhisek/mathdrill/internal/ui/theme"
	"github.com/spf13/cobra"
)

const barWidth = 32

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a practice session",
	Long: `Start a practice session. Type each answer and press enter; type q to quit.

Examples:
  mathdrill play --category multiply --base 7
  mathdrill play --category random --mode random --max 20 --base 2,3,4 --count 15
  mathdrill play --mode timeattack --time 2m --base 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, ended := newPlayEngine(settings, logger, nil, nil)
		if err := startGame(eng, readGameFlags(cmd), settings); err != nil {
			return err
		}
		return playLoop(cmd.Context(), eng, ended, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	addGameFlags(playCmd, true)
}

// newPlayEngine builds an engine whose sink signals the returned channel
// when a time attack runs out. Nil sched and gen select the defaults.
func newPlayEngine(s *config.Settings, log *slog.Logger, sched session.Scheduler, gen *problemgen.Generator) (*session.Engine, <-chan struct{}) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ended := make(chan struct{}, 1)
	sink := session.SinkFunc(func(ev session.Event) {
		switch ev.Kind {
		case session.EventTimeAttackEnded:
			select {
			case ended <- struct{}{}:
			default:
			}
		case session.EventBatchCreated:
			log.Debug("batch created")
		}
	})
	eng := session.NewEngine(session.Options{
		Settings:  s.Session(),
		Scheduler: sched,
		Sink:      sink,
		Logger:    log,
		Generator: gen,
	})
	return eng, ended
}

// playLoop serves questions from eng until the game ends, the player quits
// or ctx is cancelled, then prints the summary.
func playLoop(ctx context.Context, eng *session.Engine, ended <-chan struct{}, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	game, _ := eng.Game()
	fmt.Fprintln(out, theme.Title.Render(gameTitle(game)))

	timeUp := false
play:
	for {
		q, err := eng.ActivateNext()
		if err != nil {
			return fmt.Errorf("next question: %w", err)
		}
		if q == nil {
			break
		}
		fmt.Fprintln(out, progressLine(eng, game))

		for {
			fmt.Fprint(out, promptLine(q))

			var line string
			var ok bool
			select {
			case <-ctx.Done():
				_ = eng.Stop()
				break play
			case <-ended:
				timeUp = true
				break play
			case line, ok = <-lines:
			}
			if !ok || strings.EqualFold(strings.TrimSpace(line), "q") {
				_ = eng.Stop()
				fmt.Fprintln(out)
				break play
			}

			answer, err := problemgen.ParseAnswer(line)
			if err != nil {
				fmt.Fprintln(out, theme.Warning.Render("Please type a whole number, or q to quit."))
				continue
			}

			res, err := eng.Evaluate(answer)
			if errors.Is(err, session.ErrEvaluationBeforeActivation) {
				// The countdown ended while the answer was being typed.
				break play
			}
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}
			if res.Correct() {
				fmt.Fprintln(out, theme.Correct.Render("Correct!"))
			} else {
				fmt.Fprintln(out, theme.Incorrect.Render(fmt.Sprintf("Not quite, %s = %d", q.String(), res.Expected)))
			}
			break
		}
	}

	if !timeUp {
		select {
		case <-ended:
			timeUp = true
		default:
		}
	}
	if timeUp {
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Warning.Render("Time's up!"))
	}

	summary, err := eng.Summary()
	if err != nil {
		return err
	}
	printSummary(out, summary)
	return nil
}

// readLines feeds lines from r into the returned channel until r is
// exhausted or done is closed.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

func promptLine(q *problemgen.Question) string {
	return theme.Question.Render(q.String()) + theme.Prompt.Render(" = ")
}

func gameTitle(g session.Game) string {
	if g.Mode.IsTimeAttack() {
		return fmt.Sprintf("Time attack: %s, %s", g.Category.Name(), g.TimeAttack.Name())
	}
	return fmt.Sprintf("%s %s: %d questions", g.Mode.Name(), g.Category.Name(), g.TargetCount)
}

func progressLine(eng *session.Engine, g session.Game) string {
	answered := len(eng.Answered())
	if g.Mode.IsTimeAttack() {
		left := g.TimeAttack.Seconds() - eng.CountdownElapsed()
		bar := components.NewProgressBar(fmt.Sprintf("%3ds", max(left, 0)), eng.CountdownElapsed(), g.TimeAttack.Seconds(), barWidth)
		return bar.View() + theme.Hint.Render(fmt.Sprintf("  %d right", eng.RightAnswerCount()))
	}
	bar := components.NewProgressBar(fmt.Sprintf("Q %d/%d", answered+1, g.TargetCount), answered, g.TargetCount, barWidth)
	return bar.View()
}

func printSummary(out io.Writer, s *session.SessionSummary) {
	row := func(label, value string) string {
		return theme.Label.Render(label) + value
	}

	elapsed := "-"
	if s.Duration > 0 {
		elapsed = s.Duration.Round(100 * time.Millisecond).String()
	}
	avg := "-"
	if s.AverageSeconds >= 0 {
		avg = fmt.Sprintf("%.1fs", s.AverageSeconds)
	}

	body := strings.Join([]string{
		theme.Title.Render("Session summary"),
		row("Answered", fmt.Sprintf("%d", s.TotalQuestions)),
		row("Correct", fmt.Sprintf("%d/%d", s.TotalCorrect, s.TotalQuestions)),
		row("Accuracy", fmt.Sprintf("%.0f%%", s.Accuracy*100)),
		row("Time", elapsed),
		row("Average", avg),
	}, "\n")
	fmt.Fprintln(out, theme.Summary.Render(body))
}
