package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/longkey1/shopadvice/internal/catalog"
	"github.com/longkey1/shopadvice/internal/config"
	"github.com/longkey1/shopadvice/internal/prompt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// advisor is everything needed to open advice sessions: the provider, the rendered grounding
// instruction and the session options. It is built once per process.
type advisor struct {
	cfg       *config.Config
	log       *logrus.Logger
	products  []catalog.Entry
	provider  advice.Provider
	grounding string
	opts      advice.Options
}

// newAdvisor loads config, catalog and prompt and creates the provider.
// A --model flag on cmd overrides the configured and prompt models.
func newAdvisor(ctx context.Context, cmd *cobra.Command) (*advisor, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	products, err := loadProducts(cfg, log)
	if err != nil {
		return nil, err
	}

	p, err := prompt.Resolve(cfg.Prompt, cfg.PromptDirs)
	if err != nil {
		return nil, fmt.Errorf("loading prompt: %w", err)
	}

	// Apply model with priority: flag > env > prompt template > config file
	envModel := os.Getenv("SHOPADVICE_MODEL")
	if f := cmd.Flags().Lookup("model"); f != nil && f.Changed {
		if _, _, err := advice.ParseModelString(f.Value.String()); err != nil {
			return nil, fmt.Errorf("invalid model from flag: %w", err)
		}
		cfg.Model = f.Value.String()
	} else if envModel == "" && p.Model != nil {
		if _, _, err := advice.ParseModelString(*p.Model); err != nil {
			return nil, fmt.Errorf("invalid model from prompt file: %w", err)
		}
		cfg.Model = *p.Model
	}

	vars, err := prompt.ParseArgs(promptArgs(cmd))
	if err != nil {
		return nil, fmt.Errorf("parsing prompt arguments: %w", err)
	}
	vars[prompt.CatalogVar] = catalog.Grounding(products)

	greeting := cfg.Greeting
	if p.Greeting != nil && *p.Greeting != "" {
		greeting = *p.Greeting
	}

	provider, err := newProvider(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	log.WithFields(logrus.Fields{
		"model":    cfg.Model,
		"products": len(products),
		"prompt":   cfg.Prompt,
	}).Debug("advisor ready")

	return &advisor{
		cfg:       cfg,
		log:       log,
		products:  products,
		provider:  provider,
		grounding: p.Render(vars),
		opts: advice.Options{
			Greeting:        greeting,
			NoAdviceMessage: cfg.NoAdviceMessage,
			FallbackMessage: cfg.FallbackMessage,
			Generation:      cfg.Generation(),
			Logger:          log,
		},
	}, nil
}

// promptArgs returns the --arg values of cmd, if it has that flag.
func promptArgs(cmd *cobra.Command) []string {
	args, err := cmd.Flags().GetStringArray("arg")
	if err != nil {
		return nil
	}
	return args
}

// newSession opens a fresh advice session seeded with the greeting.
func (a *advisor) newSession() *advice.Session {
	return advice.NewSession(a.provider, a.grounding, a.opts)
}

// loadProducts reads catalog_file. Without one the advisor runs with an empty catalog.
func loadProducts(cfg *config.Config, log logrus.FieldLogger) ([]catalog.Entry, error) {
	if cfg.CatalogFile == "" {
		log.Warn("catalog_file is not configured, advising without products")
		return nil, nil
	}

	products, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return products, nil
}
