// Package googleai implements advice.Provider on top of the official Google Gen AI SDK.
package googleai

import (
	"context"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const (
	ProviderName = "genai"
	DefaultModel = "gemini-3-flash-preview"
)

// Config defines the configuration interface for the SDK provider
type Config interface {
	GetModel() string
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements advice.Provider with a genai.Client
type Provider struct {
	client *genai.Client
	model  string
	log    logrus.FieldLogger
}

// NewProvider creates the SDK client. The client is safe for concurrent use.
func NewProvider(ctx context.Context, config Config, log logrus.FieldLogger) (*Provider, error) {
	apiKey, err := config.GetToken(ProviderName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token")
	}

	_, model, err := advice.ParseModelString(config.GetModel())
	if err != nil {
		return nil, errors.Wrap(err, "invalid model format")
	}
	if model == "" {
		model = DefaultModel
	}

	baseURL, err := config.GetBaseURL(ProviderName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get base URL")
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GenAI client")
	}

	return &Provider{
		client: client,
		model:  model,
		log:    log.WithField("provider", ProviderName),
	}, nil
}

// Contents converts the request messages into SDK contents, keeping their order
func Contents(r advice.Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(r.Messages))
	for _, msg := range r.Messages {
		var role genai.Role = genai.RoleModel
		if msg.Role == advice.RoleUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(msg.Text, role))
	}
	return contents
}

// GenerateConfig converts the system instruction and sampling parameters
func GenerateConfig(r advice.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(r.Generation.Temperature),
		TopP:            genai.Ptr(r.Generation.TopP),
		MaxOutputTokens: int32(r.Generation.MaxOutputTokens),
	}
	if r.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(r.SystemInstruction, genai.RoleUser)
	}
	return cfg
}

// Generate calls Models.GenerateContent and returns the concatenated response text
func (p *Provider) Generate(ctx context.Context, r advice.Request) (string, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, Contents(r), GenerateConfig(r))
	if err != nil {
		return "", errors.Wrap(err, "GenAI generate failed")
	}

	if len(result.Candidates) == 0 {
		p.log.Debug("no candidates in response")
		return "", nil
	}

	return result.Text(), nil
}
