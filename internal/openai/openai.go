package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ProviderName   = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4.1"
)

// ResponsesAPIRequest represents the request body for OpenAI's Responses API
type ResponsesAPIRequest struct {
	Model           string              `json:"model"`
	Instructions    string              `json:"instructions,omitempty"`
	Input           []ResponsesAPIInput `json:"input"`
	Temperature     float32             `json:"temperature"`
	TopP            float32             `json:"top_p"`
	MaxOutputTokens int                 `json:"max_output_tokens,omitempty"`
}

// ResponsesAPIInput is one role-tagged input message
type ResponsesAPIInput struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ResponsesAPIResponse represents the response from OpenAI's Responses API
type ResponsesAPIResponse struct {
	Output []ResponsesAPIOutput `json:"output"`
	Error  *ResponsesAPIError   `json:"error,omitempty"`
}

// ResponsesAPIOutput represents an output element
type ResponsesAPIOutput struct {
	Type    string                `json:"type"`
	Content []ResponsesAPIContent `json:"content"`
}

// ResponsesAPIContent represents a content block of an output message
type ResponsesAPIContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ResponsesAPIError represents an error object in the response
type ResponsesAPIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Config defines the configuration interface for OpenAI provider
type Config interface {
	GetModel() string
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements advice.Provider over OpenAI's Responses API
type Provider struct {
	config Config
	client *http.Client
	log    logrus.FieldLogger
	debug  bool
}

// NewProvider creates a new OpenAI provider instance
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

// NewResponsesRequest converts a provider-neutral request. The model role becomes "assistant"
// and the system instruction is sent as instructions.
func NewResponsesRequest(model string, r advice.Request) ResponsesAPIRequest {
	input := make([]ResponsesAPIInput, 0, len(r.Messages))
	for _, msg := range r.Messages {
		role := "assistant"
		if msg.Role == advice.RoleUser {
			role = "user"
		}
		input = append(input, ResponsesAPIInput{Role: role, Content: msg.Text})
	}

	return ResponsesAPIRequest{
		Model:           model,
		Instructions:    r.SystemInstruction,
		Input:           input,
		Temperature:     r.Generation.Temperature,
		TopP:            r.Generation.TopP,
		MaxOutputTokens: r.Generation.MaxOutputTokens,
	}
}

// Generate sends the conversation to the Responses API and returns the output text
func (p *Provider) Generate(ctx context.Context, r advice.Request) (string, error) {
	_, modelName, err := advice.ParseModelString(p.config.GetModel())
	if err != nil {
		return "", errors.Wrap(err, "invalid model format")
	}

	jsonData, err := json.Marshal(NewResponsesRequest(modelName, r))
	if err != nil {
		return "", errors.Wrap(err, "error marshaling request")
	}

	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return "", errors.Wrap(err, "failed to get token")
	}

	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return "", errors.Wrap(err, "failed to get base URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/responses", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errors.Wrap(err, "error creating request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "error sending request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "error reading response")
	}

	if resp.StatusCode != http.StatusOK {
		if p.debug {
			return "", errors.Errorf("API error (HTTP %d): %s", resp.StatusCode, string(body))
		}
		return "", errors.Errorf("API error (HTTP %d)", resp.StatusCode)
	}

	var result ResponsesAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if p.debug {
			return "", errors.Errorf("error parsing response: %v\nRaw response: %s", err, string(body))
		}
		return "", errors.Wrap(err, "error parsing response")
	}

	if result.Error != nil {
		return "", errors.Errorf("API error [%s]: %s", result.Error.Code, result.Error.Message)
	}

	// Reasoning items carry no output_text, only message items do
	var texts []string
	for _, output := range result.Output {
		for _, content := range output.Content {
			if content.Type == "output_text" {
				texts = append(texts, content.Text)
			}
		}
	}

	if len(texts) == 0 {
		p.log.WithField("outputs", len(result.Output)).Debug("no output text in response")
	}

	return strings.Join(texts, ""), nil
}
