package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/mathdrill/internal/config"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the game presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		presets, err := config.LoadPresets(settings.PresetsPath)
		if err != nil {
			return err
		}
		listPresets(cmd.OutOrStdout(), settings.PresetsPath, presets)
		return nil
	},
}

func listPresets(out io.Writer, path string, presets []config.Preset) {
	if len(presets) == 0 {
		fmt.Fprintf(out, "No presets in %s\n", path)
		return
	}

	fmt.Fprintf(out, "%-16s  %-9s  %-10s  %-12s  %s\n", "Name", "Category", "Mode", "Base", "Length")
	fmt.Fprintln(out, strings.Repeat("─", 62))
	for _, p := range presets {
		mode := p.Mode
		if mode == "" {
			mode = "sequence"
		}
		length := "default"
		switch {
		case p.IsTimeAttack() && p.Time != "":
			length = p.Time
		case !p.IsTimeAttack() && p.Count > 0:
			length = fmt.Sprintf("%d questions", p.Count)
		}
		fmt.Fprintf(out, "%-16s  %-9s  %-10s  %-12s  %s\n",
			p.Name, p.Category, mode, joinInts(p.Base), length)
	}
	fmt.Fprintf(out, "\n%d presets\n", len(presets))
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}
