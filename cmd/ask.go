package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/llama-chat/llama-chat/internal/backend"
	"github.com/llama-chat/llama-chat/internal/conversation"
	"github.com/llama-chat/llama-chat/internal/exitcode"
	"github.com/llama-chat/llama-chat/internal/inference"
	"github.com/llama-chat/llama-chat/internal/ui"
)

var askText bool

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Ask a single question and print the answer",
	Long: `Send one prompt through the same request pipeline as the chat screen and
print the reply. The reply is rendered as markdown when stdout is a terminal.

Examples:
  llama-chat ask "What is the capital of France?"
  llama-chat ask --provider echo "hello"
  llama-chat ask "List 5 programming languages" --text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askText, "text", "t", false, "Output plain text instead of rendered markdown")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	b, err := backend.New(ctx, cfg)
	if err != nil {
		return exitcode.Unavailable(fmt.Sprintf("no model loaded: %v", err))
	}
	defer b.Close()

	turn, err := Ask(ctx, b, strings.Join(args, " "), coordinatorOptions(cfg, logger))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return exitcode.Cancel()
		}
		return err
	}
	if turn.Failed {
		return exitcode.Failed(turn.Text)
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	printAnswer(cmd.OutOrStdout(), turn.Text, !askText && isTTY)
	return nil
}

// Ask submits prompt to b through a coordinator on a private loop and waits
// for the assistant turn that answers it.
func Ask(ctx context.Context, b inference.Backend, prompt string, opts inference.Options) (conversation.Turn, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := inference.NewLoop(4)
	store := conversation.NewStore()
	coord := inference.NewCoordinator(store, b, loop, opts)
	defer coord.Close()

	answer := make(chan conversation.Turn, 1)
	store.OnAppend(func(t conversation.Turn) {
		if !t.IsUser() {
			answer <- t
		}
	})

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	defer func() {
		loop.Stop()
		<-done
	}()

	var err error
	if !loop.Do(func() { _, err = coord.Submit(prompt) }) {
		return conversation.Turn{}, ctx.Err()
	}
	if err != nil {
		return conversation.Turn{}, err
	}

	select {
	case t := <-answer:
		return t, nil
	case <-ctx.Done():
		return conversation.Turn{}, ctx.Err()
	}
}

func printAnswer(w io.Writer, text string, markdown bool) {
	if !markdown {
		fmt.Fprintln(w, text)
		return
	}
	ui.DetectBackground()
	width := 80
	if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && cols > 0 {
		width = cols
	}
	fmt.Fprint(w, ui.RenderMarkdown(text, width))
}
