package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// expandEnvVar expands environment variable references in the given value
// Supports both $VAR and ${VAR} syntax
// If the environment variable is not set, returns empty string.
func expandEnvVar(value string) string {
	if !strings.HasPrefix(value, "$") {
		return value
	}

	var envVarName string
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVarName = value[2 : len(value)-1]
	} else {
		envVarName = strings.TrimPrefix(value, "$")
	}

	return os.Getenv(envVarName)
}

// GetBaseURL returns the base URL for the specified provider
// Environment variables are already expanded during LoadConfig()
func (c *Config) GetBaseURL(provider string) (string, error) {
	var baseURLValue string
	switch provider {
	case "gemini":
		baseURLValue = c.GeminiBaseURL
	case "genai":
		// The SDK picks its own endpoint when this is empty
		return c.GenAIBaseURL, nil
	case "openai":
		baseURLValue = c.OpenAIBaseURL
	case "anthropic":
		baseURLValue = c.AnthropicBaseURL
	default:
		return "", errors.Errorf("unsupported provider: %s", provider)
	}

	if baseURLValue == "" {
		return "", errors.Errorf("%s base URL is not configured. Set it in config file (%s_base_url) or environment variable (SHOPADVICE_%s_BASE_URL)", provider, provider, strings.ToUpper(provider))
	}

	return baseURLValue, nil
}

// GetToken returns the token for the specified provider
// Environment variables are already expanded during LoadConfig()
func (c *Config) GetToken(provider string) (string, error) {
	var tokenValue string
	switch provider {
	case "gemini", "genai":
		// Both talk to the Gemini API with the same key
		tokenValue = c.GeminiToken
		provider = "gemini"
	case "openai":
		tokenValue = c.OpenAIToken
	case "anthropic":
		tokenValue = c.AnthropicToken
	default:
		return "", errors.Errorf("unsupported provider: %s", provider)
	}

	if tokenValue == "" {
		return "", errors.Errorf("%s token is not configured. Set it in config file (%s_token) or environment variable (SHOPADVICE_%s_TOKEN)", provider, provider, strings.ToUpper(provider))
	}

	return tokenValue, nil
}

// ResolvePath converts a relative path to absolute path if needed.
// Relative paths are resolved against the directory of the config file in use, or the
// current working directory when no config file was read.
func ResolvePath(v *viper.Viper, path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	configFile := v.ConfigFileUsed()
	if configFile == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "error getting current working directory")
		}
		return filepath.Join(cwd, path), nil
	}

	configDir := filepath.Dir(configFile)
	if !filepath.IsAbs(configDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "error getting current working directory")
		}
		configDir = filepath.Join(cwd, configDir)
	}

	return filepath.Join(configDir, path), nil
}
