/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/longkey1/shopadvice/internal/anthropic"
	"github.com/longkey1/shopadvice/internal/config"
	"github.com/longkey1/shopadvice/internal/gemini"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List available models for the specified provider(s)",
	Long: `List all available models for the specified provider.
Fetches the latest model information directly from the provider's API.

Supported providers: gemini, anthropic

If no provider is specified, lists models from all providers.

Example:
  shopadvice models             # List models from all providers
  shopadvice models gemini      # List Gemini models
  shopadvice models anthropic   # List Anthropic models`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		listers := map[string]advice.ModelLister{
			gemini.ProviderName:    newGeminiLister(cfg, log),
			anthropic.ProviderName: newAnthropicLister(cfg, log),
		}

		providers := []string{gemini.ProviderName, anthropic.ProviderName}
		if len(args) > 0 {
			if _, ok := listers[args[0]]; !ok {
				return fmt.Errorf("unsupported provider '%s'\nSupported providers: %s", args[0], strings.Join(providers, ", "))
			}
			providers = []string{args[0]}
		}

		results := listAllModels(cmd.Context(), providers, listers)

		// Display successful results first
		successCount := 0
		for _, result := range results {
			if result.err != nil {
				continue
			}
			if successCount > 0 {
				fmt.Println()
			}
			successCount++
			printModels(result.provider, result.models)
		}

		// Display errors at the end
		for _, result := range results {
			if result.err == nil {
				continue
			}
			fmt.Fprintf(os.Stderr, "Warning: Skipping %s - %v\n", result.provider, result.err)
		}

		return nil
	},
}

type providerResult struct {
	provider string
	models   []advice.ModelInfo
	err      error
}

// listAllModels queries every provider concurrently. A failing provider is reported in its
// result and does not cancel the others.
func listAllModels(ctx context.Context, providers []string, listers map[string]advice.ModelLister) []providerResult {
	results := make([]providerResult, len(providers))

	var eg errgroup.Group
	for i, name := range providers {
		eg.Go(func() error {
			result := providerResult{provider: name}
			models, err := listers[name].ListModels(ctx)
			switch {
			case err != nil:
				result.err = fmt.Errorf("failed to list models: %w", err)
			case len(models) == 0:
				result.err = fmt.Errorf("no models returned from API")
			default:
				result.models = models
			}
			results[i] = result
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func printModels(provider string, models []advice.ModelInfo) {
	fmt.Printf("Available models for %s:\n\n", provider)

	// Calculate column widths
	maxModelWidth := 15
	for _, model := range models {
		if n := len(advice.FormatModelString(provider, model.ID)); n > maxModelWidth {
			maxModelWidth = n
		}
	}

	fmt.Printf("%-*s  %s\n", maxModelWidth, "MODEL", "DESCRIPTION")
	fmt.Printf("%s  %s\n", strings.Repeat("-", maxModelWidth), strings.Repeat("-", 50))
	for _, model := range models {
		fmt.Printf("%-*s  %s\n", maxModelWidth, advice.FormatModelString(provider, model.ID), model.Description)
	}

	fmt.Printf("\nUse a model with: shopadvice chat --model <model> [message]\n")
}

func newGeminiLister(cfg *config.Config, log logrus.FieldLogger) advice.ModelLister {
	p := gemini.NewProvider(cfg, log)
	p.SetDebug(verbose)
	return p
}

func newAnthropicLister(cfg *config.Config, log logrus.FieldLogger) advice.ModelLister {
	p := anthropic.NewProvider(cfg, log)
	p.SetDebug(verbose)
	return p
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
