package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/llama-chat/llama-chat/internal/backend"
	"github.com/llama-chat/llama-chat/internal/config"
)

// providerOption represents a provider choice in the setup wizard
type providerOption struct {
	name      string
	value     string
	available bool
	hint      string // Shows how to enable if not available
}

// detectAvailableProviders checks which providers have credentials configured
func detectAvailableProviders() []providerOption {
	return []providerOption{
		{
			name:      "Ollama - local models",
			value:     config.ProviderOllama,
			available: true,
		},
		{
			name:      "OpenAI-compatible server - llama.cpp, LM Studio, vLLM",
			value:     config.ProviderOpenAICompat,
			available: true,
		},
		{
			name:      "OpenAI - OPENAI_API_KEY",
			value:     config.ProviderOpenAI,
			available: os.Getenv("OPENAI_API_KEY") != "",
			hint:      "set OPENAI_API_KEY",
		},
		{
			name:      "Anthropic - ANTHROPIC_API_KEY",
			value:     config.ProviderAnthropic,
			available: os.Getenv("ANTHROPIC_API_KEY") != "",
			hint:      "set ANTHROPIC_API_KEY",
		},
		{
			name:      "Gemini - GEMINI_API_KEY",
			value:     config.ProviderGemini,
			available: os.Getenv("GEMINI_API_KEY") != "",
			hint:      "set GEMINI_API_KEY",
		},
		{
			name:      "Echo - offline, repeats the prompt",
			value:     config.ProviderEcho,
			available: true,
		},
	}
}

// WizardAnswers holds the choices made in the setup wizard.
type WizardAnswers struct {
	Provider string
	Model    string
	BaseURL  string
	Template string
	Sessions bool
}

// BuildConfig turns wizard answers into a full config. API keys are left
// empty so they keep coming from the environment.
func BuildConfig(a WizardAnswers) (*config.Config, error) {
	cfg := config.Default()
	cfg.Provider = a.Provider
	cfg.Model = strings.TrimSpace(a.Model)
	cfg.Template = a.Template
	cfg.Session.Enabled = a.Sessions

	baseURL := strings.TrimSpace(a.BaseURL)
	switch a.Provider {
	case config.ProviderOllama:
		if baseURL != "" {
			cfg.Ollama.BaseURL = baseURL
		}
	case config.ProviderOpenAI, config.ProviderOpenAICompat:
		cfg.OpenAI.BaseURL = baseURL
	}
	if a.Provider == config.ProviderOpenAICompat && baseURL == "" {
		return nil, fmt.Errorf("%s needs a server URL", a.Provider)
	}
	if a.Template != "" {
		if _, err := backend.LookupTemplate(a.Template); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunSetupWizard asks for a provider and model, writes the config to path
// (the default location when empty) and returns the reloaded config.
func RunSetupWizard(path string) (*config.Config, error) {
	// Use /dev/tty for output to bypass redirections
	var out io.Writer = os.Stderr
	tty, ttyErr := getTTY()
	if ttyErr == nil {
		defer tty.Close()
		out = tty
	}
	fmt.Fprint(out, "Welcome to Llama Chat! Let's get you set up.\n\n")

	providers := detectAvailableProviders()

	// available first, then unavailable
	var available, unavailable []huh.Option[string]
	for _, p := range providers {
		if p.available {
			available = append(available, huh.NewOption(p.name+" "+SuccessIcon, p.value))
		} else {
			unavailable = append(unavailable, huh.NewOption(p.name+" (not set)", p.value))
		}
	}
	providerOptions := append(available, unavailable...)

	templateOptions := []huh.Option[string]{huh.NewOption("Server-side (recommended)", "")}
	for _, name := range backend.TemplateNames() {
		templateOptions = append(templateOptions, huh.NewOption(name, name))
	}

	var answers WizardAnswers
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which backend do you want to chat with?").
				Description("Backends marked " + SuccessIcon + " are ready to use").
				Options(providerOptions...).
				Value(&answers.Provider),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Model").
				Description("Leave empty for the backend's default").
				Value(&answers.Model),
			huh.NewInput().
				Title("Server URL").
				Description("Only needed for Ollama on another host or an OpenAI-compatible server").
				Value(&answers.BaseURL),
			huh.NewSelect[string]().
				Title("Prompt template").
				Options(templateOptions...).
				Value(&answers.Template),
			huh.NewConfirm().
				Title("Archive chats so they can be listed and exported later?").
				Value(&answers.Sessions),
		),
	)
	if ttyErr == nil {
		form = form.WithInput(tty).WithOutput(tty)
	}
	if err := form.Run(); err != nil {
		return nil, err
	}

	for _, p := range providers {
		if p.value == answers.Provider && !p.available {
			return nil, fmt.Errorf("provider %s is not configured\n\n%s", p.name, p.hint)
		}
	}

	cfg, err := BuildConfig(answers)
	if err != nil {
		return nil, err
	}
	if path == "" {
		if path, err = config.GetConfigPath(); err != nil {
			return nil, err
		}
	}
	if err := config.Save(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(out, "Config saved to %s\n\n", path)

	// Reload to pick up keys from the environment
	return config.Load(path)
}

func getTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}
