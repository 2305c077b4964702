package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llama-chat/llama-chat/internal/config"
	"github.com/llama-chat/llama-chat/internal/ui"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file interactively",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	cfg, err := ui.RunSetupWizard(path)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Using %s (%s)\n", cfg.Provider, cfg.ModelName())
	return nil
}
