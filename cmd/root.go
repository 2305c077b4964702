package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llama-chat/llama-chat/internal/exitcode"
)

var (
	configPath   string
	providerFlag string
	debugFlag    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/llama-chat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "Override provider, optionally with model (e.g., ollama:llama3.2)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	if err := rootCmd.RegisterFlagCompletionFunc("provider", ProviderFlagCompletion); err != nil {
		panic(fmt.Sprintf("failed to register provider completion: %v", err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "llama-chat",
	Short: "Chat with a language model from your terminal",
	Long: `llama-chat talks to a local or hosted language model. Messages are sent
in the background so the screen never blocks; a newer message replaces one
that is still waiting for its answer.

Examples:
  llama-chat                              # interactive chat
  llama-chat ask "why is the sky blue?"   # one-shot answer
  llama-chat --provider openai:gpt-4o-mini chat
  llama-chat serve                        # HTTP and WebSocket API
  llama-chat sessions list                # archived chats
  llama-chat init                         # write a config file`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE:              runChat,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr exitcode.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitcode.Error)
	}
}
