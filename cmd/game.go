package cmd

import (
	"fmt"

	"github.com/abhisek/mathdrill/internal/config"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/spf13/cobra"
)

// gameFlags is the game description shared by play and worksheet.
type gameFlags struct {
	Category string
	Mode     string
	Max      int
	Base     []int
	Count    int
	Batch    int
	Time     string
	Preset   string
}

func addGameFlags(cmd *cobra.Command, withTime bool) {
	cmd.Flags().String("category", "add", "Operation: add, subtract, multiply or random")
	cmd.Flags().String("mode", "sequence", "Second operand: sequence, random or timeattack")
	cmd.Flags().Int("max", 0, "Upper bound for random operands (default from settings)")
	cmd.Flags().IntSlice("base", []int{2}, "Base operands, e.g. --base 2,3,4")
	cmd.Flags().Int("count", 0, "Number of questions (default from settings)")
	cmd.Flags().Int("batch", 0, "Questions generated at a time, -1 for all (default from settings)")
	cmd.Flags().String("preset", "", "Use a named preset from presets.toml")
	if withTime {
		cmd.Flags().String("time", "", "Time attack duration: 1m, 2m, 5m or 10m (default from settings)")
	}
}

func readGameFlags(cmd *cobra.Command) gameFlags {
	var f gameFlags
	f.Category, _ = cmd.Flags().GetString("category")
	f.Mode, _ = cmd.Flags().GetString("mode")
	f.Max, _ = cmd.Flags().GetInt("max")
	f.Base, _ = cmd.Flags().GetIntSlice("base")
	f.Count, _ = cmd.Flags().GetInt("count")
	f.Batch, _ = cmd.Flags().GetInt("batch")
	f.Time, _ = cmd.Flags().GetString("time")
	f.Preset, _ = cmd.Flags().GetString("preset")
	return f
}

// startGame installs the game described by f on eng, resolving presets and
// defaults from s.
func startGame(eng *session.Engine, f gameFlags, s *config.Settings) error {
	defDuration, err := s.Duration()
	if err != nil {
		return err
	}

	if f.Preset != "" {
		presets, err := config.LoadPresets(s.PresetsPath)
		if err != nil {
			return err
		}
		p, ok := config.FindPreset(presets, f.Preset)
		if !ok {
			return fmt.Errorf("preset %q not found in %s", f.Preset, s.PresetsPath)
		}
		if p.IsTimeAttack() {
			cfg, err := p.TimeAttackConfig(s.Max, defDuration)
			if err != nil {
				return err
			}
			return eng.NewTimeAttackGame(cfg)
		}
		cfg, err := p.GameConfig(s.Max)
		if err != nil {
			return err
		}
		return eng.NewGame(cfg)
	}

	cat, err := problemgen.ParseCategory(f.Category)
	if err != nil {
		return err
	}
	kind, err := problemgen.ParseModeKind(f.Mode)
	if err != nil {
		return err
	}
	upper := f.Max
	if upper <= 0 {
		upper = s.Max
	}

	switch kind {
	case problemgen.ModeTimeAttack:
		d := defDuration
		if f.Time != "" {
			if d, err = session.ParseDuration(f.Time); err != nil {
				return err
			}
		}
		return eng.NewTimeAttackGame(session.TimeAttackConfig{
			Category: cat,
			Max:      upper,
			Base:     f.Base,
			Duration: d,
		})
	case problemgen.ModeRandom:
		return eng.NewGame(session.GameConfig{
			Category:    cat,
			Mode:        problemgen.RandomMode(upper),
			Base:        f.Base,
			BatchSize:   f.Batch,
			TargetCount: f.Count,
		})
	default:
		return eng.NewGame(session.GameConfig{
			Category:    cat,
			Mode:        problemgen.SequenceMode(),
			Base:        f.Base,
			BatchSize:   f.Batch,
			TargetCount: f.Count,
		})
	}
}
