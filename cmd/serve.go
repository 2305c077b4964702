package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llama-chat/llama-chat/internal/backend"
	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/inference"
	"github.com/llama-chat/llama-chat/internal/metrics"
	"github.com/llama-chat/llama-chat/internal/serve"
)

var (
	serveListen string
	serveToken  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a conversation over HTTP and WebSocket",
	Long: `Run one conversation behind an HTTP API. Every client shares the same
transcript; a newer submission replaces one that is still pending.

Endpoints:
  POST /api/submit      {"text": "..."} -> {"request_id": N}
  POST /api/cancel      cancel the pending request
  GET  /api/transcript  all turns
  GET  /api/state       coordinator state and pending request
  GET  /ws              snapshot, then every appended turn
  GET  /metrics         Prometheus metrics
  GET  /health          liveness

Examples:
  llama-chat serve
  llama-chat serve --listen :9090 --token secret`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "Require this bearer token on API requests")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Serve.Listen = serveListen
	}
	if serveToken != "" {
		cfg.Serve.Token = serveToken
	}

	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	var b inference.Backend
	if loaded, err := backend.New(ctx, cfg); err != nil {
		logger.Warn("no model loaded; submissions will be recorded only", zap.String("provider", cfg.Provider), zap.Error(err))
	} else {
		b = loaded
		defer b.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store := conversation.NewStore()
	store.OnAppend(m.ObserveTurn)
	_, closeArchive, err := openArchive(ctx, cfg, store, logger)
	if err != nil {
		logger.Warn("session archive disabled", zap.Error(err))
	}
	defer closeArchive()

	loop := inference.NewLoop(64)
	coord := inference.NewCoordinator(store, b, loop, coordinatorOptions(cfg, logger, m))
	defer coord.Close()

	srv := serve.New(serve.Config{
		Listen:      cfg.Serve.Listen,
		Token:       cfg.Serve.Token,
		SubmitRate:  cfg.Serve.SubmitRate,
		SubmitBurst: cfg.Serve.SubmitBurst,
	}, loop, store, coord, serve.Options{
		Logger:  logger,
		Metrics: m.Handler(),
	})

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
