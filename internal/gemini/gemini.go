package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ProviderName   = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"

	// Keep the key out of URLs; transport errors quote the full URL
	apiKeyHeader = "x-goog-api-key"
)

// ModelsAPIResponse represents the response from Gemini's models endpoint
type ModelsAPIResponse struct {
	Models []GeminiModelData `json:"models"`
}

// GeminiModelData represents a single model in the API response
type GeminiModelData struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// GeminiRequest represents the request body for Gemini's generate content API
type GeminiRequest struct {
	Contents          []GeminiContent          `json:"contents"`
	SystemInstruction *GeminiSystemInstruction `json:"system_instruction,omitempty"`
	GenerationConfig  *GeminiGenerationConfig  `json:"generationConfig,omitempty"`
}

// GeminiSystemInstruction represents system instruction for Gemini
type GeminiSystemInstruction struct {
	Parts []GeminiPart `json:"parts"`
}

// GeminiContent represents a content item in the Gemini request format
type GeminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a part of the content in the Gemini request format
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiGenerationConfig carries the sampling parameters
type GeminiGenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// GeminiResponse represents the full response from Gemini API
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
}

// GeminiCandidate represents a candidate response
type GeminiCandidate struct {
	Content      GeminiResponseContent `json:"content"`
	FinishReason string                `json:"finishReason,omitempty"`
}

// GeminiResponseContent represents the content of a response
type GeminiResponseContent struct {
	Parts []GeminiResponsePart `json:"parts"`
}

// GeminiResponsePart represents a part of the response content
type GeminiResponsePart struct {
	Text    string `json:"text"`
	Thought bool   `json:"thought,omitempty"`
}

// Config defines the configuration interface for Gemini provider
type Config interface {
	GetModel() string
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements advice.Provider over the Gemini REST API
type Provider struct {
	config Config
	client *http.Client
	log    logrus.FieldLogger
	debug  bool
}

// NewProvider creates a new Gemini provider instance
func NewProvider(config Config, log logrus.FieldLogger) *Provider {
	return &Provider{
		config: config,
		client: &http.Client{},
		log:    log.WithField("provider", ProviderName),
	}
}

// SetDebug includes raw response bodies in returned errors when enabled
func (p *Provider) SetDebug(enabled bool) {
	p.debug = enabled
}

// SetHTTPClient replaces the HTTP client; the transport owns timeouts
func (p *Provider) SetHTTPClient(client *http.Client) {
	p.client = client
}

// ListModels returns the models that support generateContent
func (p *Provider) ListModels(ctx context.Context) ([]advice.ModelInfo, error) {
	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token")
	}

	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get base URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/models", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set(apiKeyHeader, token)

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var result ModelsAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, p.parseError(err, body)
	}

	models := make([]advice.ModelInfo, 0, len(result.Models))
	for _, model := range result.Models {
		// Only include models that support generateContent
		if !contains(model.SupportedGenerationMethods, "generateContent") {
			continue
		}

		description := model.Description
		if description == "" {
			description = model.DisplayName
		}

		models = append(models, advice.ModelInfo{
			ID:          strings.TrimPrefix(model.Name, "models/"),
			Description: description,
		})
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID > models[j].ID
	})

	return models, nil
}

// contains checks if a string slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// NewGeminiRequest converts a provider-neutral request into Gemini's wire format
func NewGeminiRequest(r advice.Request) GeminiRequest {
	contents := make([]GeminiContent, 0, len(r.Messages))
	for _, msg := range r.Messages {
		contents = append(contents, GeminiContent{
			Role:  string(msg.Role),
			Parts: []GeminiPart{{Text: msg.Text}},
		})
	}

	reqBody := GeminiRequest{
		Contents: contents,
		GenerationConfig: &GeminiGenerationConfig{
			Temperature:     r.Generation.Temperature,
			TopP:            r.Generation.TopP,
			MaxOutputTokens: r.Generation.MaxOutputTokens,
		},
	}

	if r.SystemInstruction != "" {
		reqBody.SystemInstruction = &GeminiSystemInstruction{
			Parts: []GeminiPart{{Text: r.SystemInstruction}},
		}
	}

	return reqBody
}

// Generate sends the conversation to Gemini's generateContent endpoint.
// A response without candidates or text parts yields an empty string and no error.
func (p *Provider) Generate(ctx context.Context, r advice.Request) (string, error) {
	jsonData, err := json.Marshal(NewGeminiRequest(r))
	if err != nil {
		return "", errors.Wrap(err, "error marshaling request")
	}

	_, modelName, err := advice.ParseModelString(p.config.GetModel())
	if err != nil {
		return "", errors.Wrap(err, "invalid model format")
	}

	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return "", errors.Wrap(err, "failed to get token")
	}

	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return "", errors.Wrap(err, "failed to get base URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", baseURL, modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errors.Wrap(err, "error creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, token)

	body, err := p.do(req)
	if err != nil {
		return "", err
	}

	p.log.WithField("bytes", len(body)).Debug("raw API response received")

	var result GeminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", p.parseError(err, body)
	}

	if len(result.Candidates) == 0 {
		p.log.Debug("no candidates in response")
		return "", nil
	}

	var texts []string
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Thought {
			continue
		}
		texts = append(texts, part.Text)
	}

	return strings.Join(texts, ""), nil
}

// do sends req and returns the body of a 200 response
func (p *Provider) do(req *http.Request) ([]byte, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "error sending request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading response")
	}

	if resp.StatusCode != http.StatusOK {
		if p.debug {
			return nil, errors.Errorf("API error (HTTP %d): %s", resp.StatusCode, string(body))
		}
		return nil, errors.Errorf("API error (HTTP %d)", resp.StatusCode)
	}

	return body, nil
}

func (p *Provider) parseError(err error, body []byte) error {
	if p.debug {
		return errors.Errorf("error parsing response: %v\nRaw response: %s", err, string(body))
	}
	return errors.Wrap(err, "error parsing response")
}
