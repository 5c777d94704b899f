// Package logging builds the process-wide structured logger. Console output
// goes to stderr; when a file path is configured, a rolling copy is kept on
// disk as well.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config tunes the logger. The zero value logs to stderr at info level.
type Config struct {
	// FilePath enables rolling file output when non-empty.
	FilePath string
	// Debug lowers the threshold to debug level.
	Debug bool
}

// New constructs the logger. The returned sync function flushes buffered
// entries and should run on shutdown.
func New(cfg Config) (*zap.SugaredLogger, func()) {
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stderr), level),
	}

	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(lj), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	sugar := logger.Sugar()
	return sugar, func() { _ = sugar.Sync() }
}
