package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v, NewDefaultConfig("prompts"))
	return v
}

func TestLoadFromDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := LoadFrom(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "gemini:gemini-2.0-flash", cfg.Model)
	assert.Equal(t, "gem-key", cfg.GeminiToken)
	assert.Equal(t, advice.DefaultGenerationConfig(), cfg.Generation())
	assert.Equal(t, advice.DefaultGreeting, cfg.Greeting)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(cwd, "prompts")}, cfg.PromptDirs)
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
model = "genai:gemini-3-flash-preview"
gemini_token = "${SHOP_TEST_KEY}"
catalog_file = "catalog.yaml"
prompt_dirs = ["prompts", "/abs/prompts"]
temperature = 0.2
max_output_tokens = 256
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("SHOP_TEST_KEY", "from-env")

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GeminiToken)
	assert.Equal(t, filepath.Join(dir, "catalog.yaml"), cfg.CatalogFile)
	assert.Equal(t, []string{filepath.Join(dir, "prompts"), "/abs/prompts"}, cfg.PromptDirs)
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-6)
	assert.InDelta(t, 0.8, cfg.TopP, 1e-6)
	assert.Equal(t, 256, cfg.MaxOutputTokens)

	provider, err := cfg.GetProvider()
	require.NoError(t, err)
	assert.Equal(t, "genai", provider)
	model, err := cfg.GetModelName()
	require.NoError(t, err)
	assert.Equal(t, "gemini-3-flash-preview", model)
}

func TestLoadFromInvalidModel(t *testing.T) {
	v := newViper(t)
	v.Set("model", "gemini")

	_, err := LoadFrom(v)
	assert.Error(t, err)
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("SHOP_EXPAND", "value")

	tests := []struct {
		input string
		want  string
	}{
		{input: "plain", want: "plain"},
		{input: "$SHOP_EXPAND", want: "value"},
		{input: "${SHOP_EXPAND}", want: "value"},
		{input: "$SHOP_UNSET_VARIABLE", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVar(tt.input))
		})
	}
}

func TestGetTokenAndBaseURL(t *testing.T) {
	cfg := &Config{
		GeminiToken:   "g",
		GeminiBaseURL: "https://gemini",
		OpenAIToken:   "o",
	}

	token, err := cfg.GetToken("genai")
	require.NoError(t, err)
	assert.Equal(t, "g", token)

	baseURL, err := cfg.GetBaseURL("genai")
	require.NoError(t, err)
	assert.Equal(t, "", baseURL)

	_, err = cfg.GetToken("anthropic")
	assert.Error(t, err)

	_, err = cfg.GetBaseURL("openai")
	assert.Error(t, err)

	_, err = cfg.GetToken("unknown")
	assert.Error(t, err)
}
