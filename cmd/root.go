/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/longkey1/shopadvice/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shopadvice",
	Short: "A shopping advisor grounded in your product catalog",
	Long: `shopadvice runs a chat advisor that recommends products from a catalog file.
It sends the conversation to a generative language provider (gemini, genai, openai or anthropic)
together with the catalog as grounding, either from the terminal (chat) or over HTTP (serve).
You can configure the tool using a TOML configuration file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/shopadvice/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix and automatic env
	viper.SetEnvPrefix("SHOPADVICE")
	viper.AutomaticEnv()

	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	userConfigDir := filepath.Join(home, ".config", "shopadvice")

	// Later directories in the array take precedence over earlier ones
	defaultConfig := config.NewDefaultConfig(filepath.Join(userConfigDir, "prompts"))
	defaultConfig.PromptDirs = []string{
		"/usr/share/shopadvice/prompts",
		"/usr/local/share/shopadvice/prompts",
		filepath.Join(userConfigDir, "prompts"),
	}
	config.SetDefaults(viper.GetViper(), defaultConfig)

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		// Load system-wide config first (lower priority)
		for _, path := range []string{"/etc/shopadvice", "/usr/local/etc/shopadvice"} {
			viper.AddConfigPath(path)
		}
		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		systemConfigLoaded := false
		if err := viper.ReadInConfig(); err == nil {
			systemConfigLoaded = true
			if verbose {
				fmt.Fprintln(os.Stderr, "Loaded system-wide config:", viper.ConfigFileUsed())
			}
		}

		// Load user config (higher priority) - merge with system config
		viper.AddConfigPath(userConfigDir)
		if systemConfigLoaded {
			if err := viper.MergeInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
				}
			} else if verbose {
				fmt.Fprintln(os.Stderr, "Merged user config:", viper.ConfigFileUsed())
			}
		} else {
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
				}
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "Environment variables:")
		fmt.Fprintln(os.Stderr, "  SHOPADVICE_MODEL:", viper.GetString("model"))
		fmt.Fprintln(os.Stderr, "  SHOPADVICE_CATALOG_FILE:", viper.GetString("catalog_file"))
		fmt.Fprintln(os.Stderr, "  SHOPADVICE_PROMPT_DIRS:", viper.GetStringSlice("prompt_dirs"))
		fmt.Fprintln(os.Stderr, "  SHOPADVICE_LISTEN_ADDR:", viper.GetString("listen_addr"))
	}
}

// newLogger builds the process logger from log_level and log_format. --verbose forces debug.
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = os.Stderr

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	if verbose {
		level = logrus.DebugLevel
	}
	log.Level = level

	switch cfg.LogFormat {
	case "json":
		log.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		}
	case "text", "":
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return nil, fmt.Errorf("invalid log_format %q (expected text or json)", cfg.LogFormat)
	}

	return log, nil
}
