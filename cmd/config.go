package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/longkey1/shopadvice/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configFields = "configfile, model, gemini_base_url, gemini_token, genai_base_url, openai_base_url, openai_token, anthropic_base_url, anthropic_token, catalog_file, prompt_dirs, prompt, greeting, no_advice_message, fallback_message, temperature, top_p, max_output_tokens, listen_addr, log_level, log_format"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.
Tokens are masked.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  shopadvice config                 # Show all configuration
  shopadvice config model           # Show only model
  shopadvice config catalog_file    # Show only the catalog path
  shopadvice config gemini_token    # Show only Gemini token`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		values := configValues(cfg, viper.ConfigFileUsed())

		// If a field is specified, show only that field
		if len(args) > 0 {
			field := strings.ToLower(args[0])
			for _, v := range values {
				if v.key == field {
					fmt.Println(v.value)
					return nil
				}
			}
			fmt.Fprintf(os.Stderr, "Available fields: %s\n", configFields)
			return fmt.Errorf("unknown field: %s", args[0])
		}

		for _, v := range values {
			fmt.Printf("%s: %s\n", v.key, v.value)
		}
		return nil
	},
}

type configValue struct {
	key   string
	value string
}

func configValues(cfg *config.Config, configFile string) []configValue {
	return []configValue{
		{"configfile", configFile},
		{"model", cfg.Model},
		{"gemini_base_url", cfg.GeminiBaseURL},
		{"gemini_token", maskToken(cfg.GeminiToken)},
		{"genai_base_url", cfg.GenAIBaseURL},
		{"openai_base_url", cfg.OpenAIBaseURL},
		{"openai_token", maskToken(cfg.OpenAIToken)},
		{"anthropic_base_url", cfg.AnthropicBaseURL},
		{"anthropic_token", maskToken(cfg.AnthropicToken)},
		{"catalog_file", cfg.CatalogFile},
		// PromptDirs are already absolute paths
		{"prompt_dirs", strings.Join(cfg.PromptDirs, ",")},
		{"prompt", cfg.Prompt},
		{"greeting", cfg.Greeting},
		{"no_advice_message", cfg.NoAdviceMessage},
		{"fallback_message", cfg.FallbackMessage},
		{"temperature", fmt.Sprint(cfg.Temperature)},
		{"top_p", fmt.Sprint(cfg.TopP)},
		{"max_output_tokens", fmt.Sprint(cfg.MaxOutputTokens)},
		{"listen_addr", cfg.ListenAddr},
		{"log_level", cfg.LogLevel},
		{"log_format", cfg.LogFormat},
	}
}

// maskToken returns a masked version of the token for security
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
