package cmd

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the zap logger behind every slog call. Debug level uses
// zap's development config, anything quieter the production one.
func newLogger(level slog.Level) (*zap.Logger, *slog.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level <= slog.LevelDebug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))

	zl, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return zl, slog.New(zapslog.NewHandler(zl.Core())), nil
}

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l <= slog.LevelDebug:
		return zapcore.DebugLevel
	case l <= slog.LevelInfo:
		return zapcore.InfoLevel
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
