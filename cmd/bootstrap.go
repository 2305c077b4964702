package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/llama-chat/llama-chat/internal/config"
	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/inference"
	"github.com/llama-chat/llama-chat/internal/logging"
	"github.com/llama-chat/llama-chat/internal/session"
	"github.com/llama-chat/llama-chat/internal/ui"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyOverrides(providerFlag); err != nil {
		return nil, err
	}
	if debugFlag {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

// loadConfigWithSetup runs the setup wizard on first use from a terminal.
func loadConfigWithSetup() (*config.Config, error) {
	if configPath == "" && !config.Exists() && term.IsTerminal(int(os.Stdin.Fd())) {
		if _, err := ui.RunSetupWizard(""); err != nil {
			return nil, fmt.Errorf("setup cancelled: %w", err)
		}
	}
	return loadConfig()
}

// newLogger builds the command's logger. toFile sends output to the log file
// even when none is configured, for commands that own the terminal.
func newLogger(cfg *config.Config, toFile bool) (*zap.Logger, func(), error) {
	opts := logging.Options{Debug: cfg.Log.Debug, File: cfg.Log.File}
	if toFile && opts.File == "" {
		path, err := logging.DefaultFile()
		if err != nil {
			return nil, nil, err
		}
		opts.File = path
	}
	return logging.New(opts)
}

func coordinatorOptions(cfg *config.Config, logger *zap.Logger, observers ...inference.Observer) inference.Options {
	all := append([]inference.Observer{inference.NewLogObserver(logger.Named("inference"))}, observers...)
	return inference.Options{
		UseTemplate: cfg.UseTemplate,
		Timeout:     cfg.Inference.Timeout,
		Logger:      logger,
		Observer:    inference.NewMultiObserver(all...),
	}
}

// openArchive starts archiving store into the session database when
// sessions are enabled. The returned Archiver is nil otherwise. The close
// function is always safe to call.
func openArchive(ctx context.Context, cfg *config.Config, store *conversation.Store, logger *zap.Logger) (*session.Archiver, func(), error) {
	noop := func() {}
	if !cfg.Session.Enabled {
		return nil, noop, nil
	}

	db, err := session.Open(session.Config{Enabled: true, Path: cfg.Session.Path})
	if err != nil {
		return nil, noop, fmt.Errorf("open session store: %w", err)
	}
	sess := &session.Session{
		ID:        session.NewID(),
		Provider:  cfg.Provider,
		Model:     cfg.ModelName(),
		CreatedAt: time.Now(),
	}
	archiver, err := session.NewArchiver(ctx, db, sess, logger)
	if err != nil {
		_ = db.Close()
		return nil, noop, fmt.Errorf("create session: %w", err)
	}
	store.OnAppend(archiver.Observe)
	return archiver, func() {
		archiver.Close()
		_ = db.Close()
	}, nil
}
