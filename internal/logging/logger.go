// Package logging provides opinionated zap loggers for llama-chat.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the log level and destination.
type Options struct {
	Debug bool
	// File receives log output when set. The chat screen owns stdout, so it
	// always logs to a file.
	File string
	// Writer is used when File is empty. Defaults to stderr.
	Writer io.Writer
}

// New builds a console logger. The returned close function flushes the
// logger and closes the log file, if any.
func New(opts Options) (*zap.Logger, func(), error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	var sink zapcore.WriteSyncer
	closeFile := func() {}
	switch {
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
		closeFile = func() { _ = f.Close() }
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case opts.Writer != nil:
		sink = zapcore.AddSync(opts.Writer)
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		sink = zapcore.Lock(os.Stderr)
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		sink,
		level,
	)

	logger := zap.New(core, zap.AddCaller())
	return logger, func() {
		_ = logger.Sync()
		closeFile()
	}, nil
}

// DefaultFile returns the log path used by the chat screen:
// $XDG_STATE_HOME/llama-chat/llama-chat.log, falling back to
// ~/.local/state.
func DefaultFile() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "llama-chat", "llama-chat.log"), nil
}
