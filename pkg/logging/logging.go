package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// FileLogger writes JSON lines to stdout and to path. An empty path logs to stdout only.
func FileLogger(level logrus.Level, path string) (*os.File, *logrus.Logger, error) {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if path == "" {
		logger.SetOutput(os.Stdout)
		return nil, logger, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return f, logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func WithLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func UseLogger(ctx context.Context) logrus.FieldLogger {
	if logger, ok := ctx.Value(loggerKey{}).(logrus.FieldLogger); ok && logger != nil {
		return logger
	}
	return Discard()
}
