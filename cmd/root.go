package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/mathdrill/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	settings *config.Settings
	logger   = slog.New(slog.DiscardHandler)
	zlog     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "mathdrill",
	Short: "Arithmetic practice in the terminal",
	Long:  "mathdrill serves timed add, subtract and multiply drills, fixed-length or against the clock.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadSettings(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zlog.Sync()
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx; play stops when ctx is
// cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config.toml (default $XDG_CONFIG_HOME/mathdrill/config.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides MATHDRILL_LOG_LEVEL)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(worksheetCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadSettings reads the settings and builds the logger. The --log-level
// flag wins over every other source.
func loadSettings(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	s, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		s.LogLevel = lvl
	}

	level, err := s.Level()
	if err != nil {
		return err
	}
	zl, sl, err := newLogger(level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	settings = s
	zlog, logger = zl, sl
	return nil
}
