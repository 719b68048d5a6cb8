package config

import (
	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the configuration for the advisor
type Config struct {
	Model            string   `toml:"model" mapstructure:"model"` // Format: "provider:model" (e.g., "gemini:gemini-2.0-flash")
	GeminiBaseURL    string   `toml:"gemini_base_url" mapstructure:"gemini_base_url"`
	GeminiToken      string   `toml:"gemini_token" mapstructure:"gemini_token"`
	GenAIBaseURL     string   `toml:"genai_base_url" mapstructure:"genai_base_url"` // Empty = SDK default
	OpenAIBaseURL    string   `toml:"openai_base_url" mapstructure:"openai_base_url"`
	OpenAIToken      string   `toml:"openai_token" mapstructure:"openai_token"`
	AnthropicBaseURL string   `toml:"anthropic_base_url" mapstructure:"anthropic_base_url"`
	AnthropicToken   string   `toml:"anthropic_token" mapstructure:"anthropic_token"`
	CatalogFile      string   `toml:"catalog_file" mapstructure:"catalog_file"`
	PromptDirs       []string `toml:"prompt_dirs" mapstructure:"prompt_dirs"`
	Prompt           string   `toml:"prompt" mapstructure:"prompt"` // Prompt template name, empty = built-in
	Greeting         string   `toml:"greeting" mapstructure:"greeting"`
	NoAdviceMessage  string   `toml:"no_advice_message" mapstructure:"no_advice_message"`
	FallbackMessage  string   `toml:"fallback_message" mapstructure:"fallback_message"`
	Temperature      float32  `toml:"temperature" mapstructure:"temperature"`
	TopP             float32  `toml:"top_p" mapstructure:"top_p"`
	MaxOutputTokens  int      `toml:"max_output_tokens" mapstructure:"max_output_tokens"`
	ListenAddr       string   `toml:"listen_addr" mapstructure:"listen_addr"`
	LogLevel         string   `toml:"log_level" mapstructure:"log_level"`
	LogFormat        string   `toml:"log_format" mapstructure:"log_format"` // "text" or "json"
}

// GetModel returns the model string
func (c *Config) GetModel() string {
	return c.Model
}

// GetProvider extracts provider name from the model string
func (c *Config) GetProvider() (string, error) {
	provider, _, err := advice.ParseModelString(c.Model)
	return provider, err
}

// GetModelName extracts model name from the model string
func (c *Config) GetModelName() (string, error) {
	_, model, err := advice.ParseModelString(c.Model)
	return model, err
}

// Generation returns the fixed sampling parameters for provider calls
func (c *Config) Generation() advice.GenerationConfig {
	return advice.GenerationConfig{
		Temperature:     c.Temperature,
		TopP:            c.TopP,
		MaxOutputTokens: c.MaxOutputTokens,
	}
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig(promptDir string) *Config {
	gen := advice.DefaultGenerationConfig()
	return &Config{
		Model:            "gemini:gemini-2.0-flash",
		GeminiBaseURL:    "https://generativelanguage.googleapis.com/v1beta",
		GeminiToken:      "$GEMINI_API_KEY", // Default to env var
		OpenAIBaseURL:    "https://api.openai.com/v1",
		OpenAIToken:      "$OPENAI_API_KEY",
		AnthropicBaseURL: "https://api.anthropic.com/v1",
		AnthropicToken:   "$ANTHROPIC_API_KEY",
		PromptDirs:       []string{promptDir},
		Greeting:         advice.DefaultGreeting,
		NoAdviceMessage:  advice.DefaultNoAdviceMessage,
		FallbackMessage:  advice.DefaultFallbackMessage,
		Temperature:      gen.Temperature,
		TopP:             gen.TopP,
		MaxOutputTokens:  gen.MaxOutputTokens,
		ListenAddr:       "127.0.0.1:8080",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// SetDefaults registers every field of def as a viper default
func SetDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("model", def.Model)
	v.SetDefault("gemini_base_url", def.GeminiBaseURL)
	v.SetDefault("gemini_token", def.GeminiToken)
	v.SetDefault("genai_base_url", def.GenAIBaseURL)
	v.SetDefault("openai_base_url", def.OpenAIBaseURL)
	v.SetDefault("openai_token", def.OpenAIToken)
	v.SetDefault("anthropic_base_url", def.AnthropicBaseURL)
	v.SetDefault("anthropic_token", def.AnthropicToken)
	v.SetDefault("catalog_file", def.CatalogFile)
	v.SetDefault("prompt_dirs", def.PromptDirs)
	v.SetDefault("prompt", def.Prompt)
	v.SetDefault("greeting", def.Greeting)
	v.SetDefault("no_advice_message", def.NoAdviceMessage)
	v.SetDefault("fallback_message", def.FallbackMessage)
	v.SetDefault("temperature", def.Temperature)
	v.SetDefault("top_p", def.TopP)
	v.SetDefault("max_output_tokens", def.MaxOutputTokens)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from v, expanding $VAR references in tokens and base URLs and
// resolving relative paths against the config file directory.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	for _, field := range []*string{
		&config.GeminiBaseURL, &config.GeminiToken, &config.GenAIBaseURL,
		&config.OpenAIBaseURL, &config.OpenAIToken,
		&config.AnthropicBaseURL, &config.AnthropicToken,
	} {
		*field = expandEnvVar(*field)
	}

	if _, _, err := advice.ParseModelString(config.Model); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	// Convert prompt directories to absolute paths
	for i, promptDir := range config.PromptDirs {
		absPath, err := ResolvePath(v, promptDir)
		if err != nil {
			return nil, errors.Wrapf(err, "error resolving prompt directory path '%s'", promptDir)
		}
		config.PromptDirs[i] = absPath
	}

	if config.CatalogFile != "" {
		absPath, err := ResolvePath(v, config.CatalogFile)
		if err != nil {
			return nil, errors.Wrapf(err, "error resolving catalog file path '%s'", config.CatalogFile)
		}
		config.CatalogFile = absPath
	}

	return config, nil
}
