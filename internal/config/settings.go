package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/mathdrill/internal/session"
)

// EnvPrefix prefixes every environment override, e.g. MATHDRILL_QUESTION_COUNT.
const EnvPrefix = "MATHDRILL"

// Settings holds the user defaults applied to new games.
type Settings struct {
	QuestionCount int    `mapstructure:"question_count"` // questions per bounded game
	BatchSize     int    `mapstructure:"batch_size"`     // questions generated at a time, -1 for all
	Max           int    `mapstructure:"max"`            // upper bound for random operands
	TimeAttack    string `mapstructure:"time_attack"`    // default countdown, e.g. "1m"
	LogLevel      string `mapstructure:"log_level"`      // debug, info, warn or error
	PresetsPath   string `mapstructure:"presets_path"`
}

// Load reads settings from defaults, an optional TOML config file and the
// environment, in increasing priority. An empty path searches the XDG
// config directory; a missing file there is not an error.
func Load(path string) (*Settings, error) {
	// Values already in the environment win over .env.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultConfigDir())
	}

	v.SetDefault("question_count", session.DefaultQuestionCount)
	v.SetDefault("batch_size", 1)
	v.SetDefault("max", 10)
	v.SetDefault("time_attack", "1m")
	v.SetDefault("log_level", "info")
	v.SetDefault("presets_path", DefaultPresetsPath())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every setting is usable.
func (s *Settings) Validate() error {
	if s.QuestionCount < 1 {
		return fmt.Errorf("question_count must be positive, got %d", s.QuestionCount)
	}
	if s.BatchSize < 1 && s.BatchSize != session.Unbounded {
		return fmt.Errorf("batch_size must be positive or -1, got %d", s.BatchSize)
	}
	if s.Max < 1 {
		return fmt.Errorf("max must be positive, got %d", s.Max)
	}
	if _, err := s.Duration(); err != nil {
		return err
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	return nil
}

// Session returns the engine defaults.
func (s *Settings) Session() session.Settings {
	return session.Settings{QuestionCount: s.QuestionCount, BatchSize: s.BatchSize}
}

// Duration parses the default time-attack duration.
func (s *Settings) Duration() (session.Duration, error) {
	d, err := session.ParseDuration(s.TimeAttack)
	if err != nil {
		return session.DurationNone, fmt.Errorf("time_attack: %w", err)
	}
	return d, nil
}

// Level parses the log level.
func (s *Settings) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
