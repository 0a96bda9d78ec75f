package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/ui/theme"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var worksheetCmd = &cobra.Command{
	Use:   "worksheet",
	Short: "Print a worksheet of questions",
	Long: `Print the questions of a game without playing it, optionally in groups.

Examples:
  mathdrill worksheet --category multiply --base 6 --count 12 --group 4
  mathdrill worksheet --mode random --base 3,4 --answers --format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetInt("group")
		format, _ := cmd.Flags().GetString("format")
		answers, _ := cmd.Flags().GetBool("answers")

		eng, _ := newPlayEngine(settings, logger, nil, nil)
		if err := startGame(eng, readGameFlags(cmd), settings); err != nil {
			return err
		}
		return writeWorksheet(cmd.OutOrStdout(), eng, group, format, answers)
	},
}

func init() {
	addGameFlags(worksheetCmd, false)
	worksheetCmd.Flags().Int("group", 0, "Questions per group (0 prints one group)")
	worksheetCmd.Flags().String("format", "text", "Output format: text, json or yaml")
	worksheetCmd.Flags().Bool("answers", false, "Include the answers")
}

// worksheetItem is one printed question.
type worksheetItem struct {
	Group    int    `json:"group" yaml:"group"`
	Number   int    `json:"number" yaml:"number"`
	Question string `json:"question" yaml:"question"`
	Answer   *int   `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// writeWorksheet draws the game's questions in groups of group and renders
// them in format.
func writeWorksheet(out io.Writer, eng *session.Engine, group int, format string, answers bool) error {
	var groups [][]problemgen.Question
	if group <= 0 {
		all, err := eng.AllQuestions()
		if err != nil {
			return err
		}
		groups = append(groups, all)
	} else {
		for {
			qs, err := eng.Questions(group)
			if err != nil {
				return err
			}
			if qs == nil {
				break
			}
			groups = append(groups, qs)
		}
	}

	var items []worksheetItem
	n := 0
	for g, qs := range groups {
		for _, q := range qs {
			n++
			item := worksheetItem{Group: g + 1, Number: n, Question: q.String()}
			if answers {
				want, err := q.Expected()
				if err != nil {
					return err
				}
				item.Answer = &want
			}
			items = append(items, item)
		}
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return fmt.Errorf("encode worksheet: %w", err)
		}
		return enc.Close()
	case "text":
		writeWorksheetText(out, items, len(groups))
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeWorksheetText(out io.Writer, items []worksheetItem, groups int) {
	current := 0
	for _, it := range items {
		if groups > 1 && it.Group != current {
			if current != 0 {
				fmt.Fprintln(out)
			}
			current = it.Group
			fmt.Fprintln(out, theme.Title.Render(fmt.Sprintf("Group %d", it.Group)))
		}
		line := fmt.Sprintf("%3d)  %s = ", it.Number, it.Question)
		if it.Answer != nil {
			line += fmt.Sprintf("%d", *it.Answer)
		} else {
			line += "____"
		}
		fmt.Fprintln(out, line)
	}
}
