package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/llama-chat/llama-chat/internal/config"
)

// ProviderFlagCompletion handles --provider flag completion
func ProviderFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	completions := providerCompletions(toComplete)

	// If completing provider name (no colon), don't add space so user can type ":"
	if !strings.Contains(toComplete, ":") {
		return completions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func providerCompletions(toComplete string) []string {
	provider, _, hasModel := strings.Cut(toComplete, ":")
	var out []string
	for _, p := range config.Providers() {
		if hasModel {
			if p == provider {
				cfg := config.Default()
				cfg.Provider = p
				out = append(out, p+":"+cfg.ModelName())
			}
			continue
		}
		if strings.HasPrefix(p, toComplete) {
			out = append(out, p)
		}
	}
	return out
}
