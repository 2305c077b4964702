package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Known provider names.
const (
	ProviderOllama       = "ollama"
	ProviderOpenAI       = "openai"
	ProviderOpenAICompat = "openai-compat"
	ProviderAnthropic    = "anthropic"
	ProviderGemini       = "gemini"
	ProviderEcho         = "echo"
)

var providers = []string{
	ProviderOllama,
	ProviderOpenAI,
	ProviderOpenAICompat,
	ProviderAnthropic,
	ProviderGemini,
	ProviderEcho,
}

var defaultModels = map[string]string{
	ProviderOllama:       "llama3.2",
	ProviderOpenAI:       "gpt-4o-mini",
	ProviderOpenAICompat: "model",
	ProviderAnthropic:    "claude-sonnet-4-5",
	ProviderGemini:       "gemini-2.5-flash",
	ProviderEcho:         "echo",
}

type Config struct {
	Provider     string          `mapstructure:"provider" yaml:"provider"`
	Model        string          `mapstructure:"model" yaml:"model"`
	Template     string          `mapstructure:"template" yaml:"template,omitempty"`
	UseTemplate  bool            `mapstructure:"use_template" yaml:"use_template"`
	SystemPrompt string          `mapstructure:"system_prompt" yaml:"system_prompt,omitempty"`
	Welcome      string          `mapstructure:"welcome" yaml:"welcome"`
	Ollama       OllamaConfig    `mapstructure:"ollama" yaml:"ollama"`
	OpenAI       OpenAIConfig    `mapstructure:"openai" yaml:"openai"`
	Anthropic    AnthropicConfig `mapstructure:"anthropic" yaml:"anthropic"`
	Gemini       GeminiConfig    `mapstructure:"gemini" yaml:"gemini"`
	Inference    InferenceConfig `mapstructure:"inference" yaml:"inference"`
	Session      SessionConfig   `mapstructure:"session" yaml:"session"`
	Serve        ServeConfig     `mapstructure:"serve" yaml:"serve"`
	Log          LogConfig       `mapstructure:"log" yaml:"log"`
}

type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

type InferenceConfig struct {
	// Timeout bounds each backend call; zero disables it.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type SessionConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

type ServeConfig struct {
	Listen      string  `mapstructure:"listen" yaml:"listen"`
	Token       string  `mapstructure:"token" yaml:"token,omitempty"`
	SubmitRate  float64 `mapstructure:"submit_rate" yaml:"submit_rate"`
	SubmitBurst int     `mapstructure:"submit_burst" yaml:"submit_burst"`
}

type LogConfig struct {
	Debug bool   `mapstructure:"debug" yaml:"debug"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderOllama)
	v.SetDefault("model", "")
	v.SetDefault("template", "")
	v.SetDefault("use_template", true)
	v.SetDefault("system_prompt", "")
	v.SetDefault("welcome", "Welcome to Llama Chat!")
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("inference.timeout", "0s")
	v.SetDefault("session.enabled", false)
	v.SetDefault("session.path", "")
	v.SetDefault("serve.listen", "127.0.0.1:8080")
	v.SetDefault("serve.token", "")
	v.SetDefault("serve.submit_rate", 5.0)
	v.SetDefault("serve.submit_burst", 10)
	v.SetDefault("log.debug", false)
	v.SetDefault("log.file", "")
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &cfg
}

// Load reads configuration from path, or from the default locations when
// path is empty. A missing file is not an error. Environment variables
// prefixed with LLAMA_CHAT_ override file values (LLAMA_CHAT_OLLAMA_BASE_URL).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LLAMA_CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolveSecrets() error {
	fields := []struct {
		name  string
		value *string
		env   string
	}{
		{"openai.api_key", &c.OpenAI.APIKey, "OPENAI_API_KEY"},
		{"anthropic.api_key", &c.Anthropic.APIKey, "ANTHROPIC_API_KEY"},
		{"gemini.api_key", &c.Gemini.APIKey, "GEMINI_API_KEY"},
		{"openai.base_url", &c.OpenAI.BaseURL, ""},
		{"ollama.base_url", &c.Ollama.BaseURL, ""},
		{"serve.token", &c.Serve.Token, ""},
	}
	for _, f := range fields {
		resolved, err := ResolveValue(*f.value)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", f.name, err)
		}
		if resolved == "" && f.env != "" {
			resolved = os.Getenv(f.env)
		}
		*f.value = resolved
	}
	return nil
}

// Validate checks the provider name and the inference timeout.
func (c *Config) Validate() error {
	if !slices.Contains(providers, c.Provider) {
		return fmt.Errorf("unknown provider %q (known: %s)", c.Provider, strings.Join(providers, ", "))
	}
	if c.Inference.Timeout < 0 {
		return fmt.Errorf("inference.timeout must not be negative")
	}
	return nil
}

// ModelName returns the configured model, or the provider's default.
func (c *Config) ModelName() string {
	if strings.TrimSpace(c.Model) != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// ApplyOverrides applies a --provider flag of the form "provider" or
// "provider:model". Switching provider without a model resets the model to
// that provider's default.
func (c *Config) ApplyOverrides(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	provider, model, _ := strings.Cut(spec, ":")
	if provider != "" {
		if !slices.Contains(providers, provider) {
			return fmt.Errorf("unknown provider %q", provider)
		}
		if provider != c.Provider && model == "" {
			c.Model = ""
		}
		c.Provider = provider
	}
	if model != "" {
		c.Model = model
	}
	return nil
}

// Providers lists the supported provider names.
func Providers() []string {
	return slices.Clone(providers)
}

func configDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "llama-chat"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config dir: %w", err)
	}
	return filepath.Join(dir, "llama-chat"), nil
}

// GetConfigPath returns the path where the config file should be located.
func GetConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Exists returns true if a config file exists at the default path.
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes cfg as YAML to path, or to the default path when empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
