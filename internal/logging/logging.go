package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var exitFunc = os.Exit

// Options selects level, encoding and caller annotation of a logger
type Options struct {
	Level  string
	Format string
	Source bool
	// OutputPaths defaults to stderr
	OutputPaths []string
}

// New builds a logger. Callers own it and pass it to every component.
func New(opts Options) *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parseLevel(opts.Level))

	format := strings.ToLower(opts.Format)
	if format == "json" || format == "structured" {
		config.Encoding = "json"
	} else {
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if opts.Source {
		config.Development = true
	} else {
		config.DisableCaller = true
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	config.OutputPaths = outputs
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		// Fallback to development logger if config fails
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

func parseLevel(value string) zapcore.Level {
	switch strings.ToLower(value) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Fatal logs the message at error level and exits with status 1.
func Fatal(logger *zap.Logger, msg string, fields ...zap.Field) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Error(msg, fields...)
	_ = logger.Sync()
	exitFunc(1)
}
