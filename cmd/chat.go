package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/llama-chat/llama-chat/internal/backend"
	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/inference"
	"github.com/llama-chat/llama-chat/internal/tui/chat"
	"github.com/llama-chat/llama-chat/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session. This is also what running llama-chat
with no command does.

Examples:
  llama-chat chat
  llama-chat chat --provider ollama:mistral

Keyboard shortcuts:
  Enter        - Send message
  Alt+Enter    - Insert newline
  Esc          - Cancel the pending response
  PgUp/PgDn    - Scroll the transcript
  Ctrl+C       - Quit

Slash commands:
  /help        - Show help
  /cancel      - Cancel the pending response
  /clear-input - Clear the message box
  /export      - Export the conversation as markdown
  /model       - Show the active backend
  /quit        - Exit chat`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	ui.DetectBackground()

	// A backend that fails to load leaves the chat usable: messages are
	// recorded and the header says no model is loaded.
	var b inference.Backend
	if loaded, err := backend.New(ctx, cfg); err != nil {
		logger.Warn("no model loaded", zap.String("provider", cfg.Provider), zap.Error(err))
	} else {
		b = loaded
		defer b.Close()
	}

	store := conversation.NewStore()
	archiver, closeArchive, err := openArchive(ctx, cfg, store, logger)
	if err != nil {
		logger.Warn("session archive disabled", zap.Error(err))
	}
	defer closeArchive()

	poster := &chat.ProgramPoster{}
	coord := inference.NewCoordinator(store, b, poster, coordinatorOptions(cfg, logger))
	defer coord.Close()

	model := chat.New(chat.Options{
		Store:       store,
		Coordinator: coord,
		Archiver:    archiver,
		Welcome:     cfg.Welcome,
		Logger:      logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	poster.Attach(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run chat: %w", err)
	}
	return nil
}
