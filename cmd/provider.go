package cmd

import (
	"context"
	"fmt"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/longkey1/shopadvice/internal/anthropic"
	"github.com/longkey1/shopadvice/internal/config"
	"github.com/longkey1/shopadvice/internal/gemini"
	"github.com/longkey1/shopadvice/internal/googleai"
	"github.com/longkey1/shopadvice/internal/openai"
	"github.com/sirupsen/logrus"
)

// newProvider creates a new provider instance based on the configuration
func newProvider(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (advice.Provider, error) {
	provider, err := cfg.GetProvider()
	if err != nil {
		return nil, err
	}

	switch provider {
	case gemini.ProviderName:
		p := gemini.NewProvider(cfg, log)
		p.SetDebug(verbose)
		return p, nil
	case googleai.ProviderName:
		p, err := googleai.NewProvider(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("creating genai client: %w", err)
		}
		return p, nil
	case openai.ProviderName:
		p := openai.NewProvider(cfg, log)
		p.SetDebug(verbose)
		return p, nil
	case anthropic.ProviderName:
		p := anthropic.NewProvider(cfg, log)
		p.SetDebug(verbose)
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
