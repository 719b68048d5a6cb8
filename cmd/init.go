package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/longkey1/shopadvice/internal/config"
	"github.com/longkey1/shopadvice/internal/prompt"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	Long: `Initialize the configuration file with default settings.
The config file will be created at $HOME/.config/shopadvice/config.toml by default,
together with a prompts directory holding an editable copy of the built-in advisor prompt.
You can specify a different location using the --config option.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %v", err)
		}

		configFile := filepath.Join(home, ".config", "shopadvice", "config.toml")
		if cfgFile != "" {
			configFile = cfgFile
		}

		configDir := filepath.Dir(configFile)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %v", err)
		}

		// Check if config file already exists
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("config file already exists at: %s", configFile)
		}

		promptsDir := filepath.Join(configDir, "prompts")
		cfg := config.NewDefaultConfig(promptsDir)
		cfg.CatalogFile = "catalog.yaml"

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("failed to create config file: %v", err)
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %v", err)
		}

		if err := os.MkdirAll(promptsDir, 0755); err != nil {
			return fmt.Errorf("failed to create prompts directory: %v", err)
		}

		promptFile := filepath.Join(promptsDir, "advisor.toml")
		if _, err := os.Stat(promptFile); os.IsNotExist(err) {
			pf, err := os.Create(promptFile)
			if err != nil {
				return fmt.Errorf("failed to create prompt file: %v", err)
			}
			defer pf.Close()
			if err := toml.NewEncoder(pf).Encode(prompt.Prompt{System: prompt.DefaultSystem}); err != nil {
				return fmt.Errorf("failed to encode prompt: %v", err)
			}
		}

		fmt.Printf("Configuration file created at: %s\n", configFile)
		fmt.Printf("Prompts directory created at: %s\n", promptsDir)
		fmt.Printf("Set catalog_file to your product list (YAML, JSON or TOML) and prompt = \"advisor\" to use the copied prompt.\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
