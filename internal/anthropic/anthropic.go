package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ProviderName     = "anthropic"
	DefaultBaseURL   = "https://api.anthropic.com/v1"
	DefaultModel     = "claude-sonnet-4-20250514"
	AnthropicVersion = "2023-06-01"
)

// ModelsAPIResponse represents the response from Anthropic's models endpoint
type ModelsAPIResponse struct {
	Data []ModelData `json:"data"`
}

// ModelData represents a single model in the API response
type ModelData struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessagesAPIRequest represents the request body for Anthropic's Messages API
type MessagesAPIRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	System      string         `json:"system,omitempty"`
	Messages    []MessageInput `json:"messages"`
	Temperature float32        `json:"temperature"`
	TopP        float32        `json:"top_p"`
}

// MessageInput represents a message in the conversation
type MessageInput struct {
	Role    string    `json:"role"`    // "user" or "assistant"
	Content []Content `json:"content"` // Array of content blocks
}

// Content represents a content block
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// MessagesAPIResponse represents the response from Anthropic's Messages API
type MessagesAPIResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []ResponseContent `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
	Error      *APIError         `json:"error,omitempty"`
}

// ResponseContent represents a content block in the response
type ResponseContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// APIError represents an error returned by the API
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Config defines the configuration interface for Anthropic provider
type Config interface {
	GetModel() string
	GetBaseURL(provider string) (string, error)
	GetToken(provider string) (string, error)
}

// Provider implements advice.Provider over Anthropic's Messages API
type Provider struct {
	config Config
	client *http.Client
	log    logrus.FieldLogger
	debug  bool
}

// NewProvider creates a new Anthropic provider instance
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

// ListModels returns the list of models from the API
func (p *Provider) ListModels(ctx context.Context) ([]advice.ModelInfo, error) {
	req, err := p.newRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}

	body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	var result ModelsAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, p.parseError(err, body)
	}

	models := make([]advice.ModelInfo, 0, len(result.Data))
	for _, model := range result.Data {
		description := model.DisplayName
		if description == "" && !model.CreatedAt.IsZero() {
			description = fmt.Sprintf("Created: %s", model.CreatedAt.UTC().Format("2006-01-02"))
		}

		models = append(models, advice.ModelInfo{
			ID:          model.ID,
			Description: description,
		})
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID > models[j].ID
	})

	return models, nil
}

// NewMessagesRequest converts a provider-neutral request into the Messages API format.
// The model role becomes "assistant".
func NewMessagesRequest(model string, r advice.Request) MessagesAPIRequest {
	inputMessages := make([]MessageInput, 0, len(r.Messages))
	for _, msg := range r.Messages {
		role := "assistant"
		if msg.Role == advice.RoleUser {
			role = "user"
		}
		inputMessages = append(inputMessages, MessageInput{
			Role:    role,
			Content: []Content{{Type: "text", Text: msg.Text}},
		})
	}

	return MessagesAPIRequest{
		Model:       model,
		MaxTokens:   r.Generation.MaxOutputTokens,
		System:      r.SystemInstruction,
		Messages:    inputMessages,
		Temperature: r.Generation.Temperature,
		TopP:        r.Generation.TopP,
	}
}

// Generate sends the conversation to the Messages API and joins the returned text blocks
func (p *Provider) Generate(ctx context.Context, r advice.Request) (string, error) {
	_, modelName, err := advice.ParseModelString(p.config.GetModel())
	if err != nil {
		return "", errors.Wrap(err, "invalid model format")
	}

	jsonData, err := json.Marshal(NewMessagesRequest(modelName, r))
	if err != nil {
		return "", errors.Wrap(err, "error marshaling request")
	}

	req, err := p.newRequest(ctx, http.MethodPost, "/messages", jsonData)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := p.do(req)
	if err != nil {
		return "", err
	}

	var result MessagesAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", p.parseError(err, body)
	}

	if result.Error != nil {
		return "", errors.Errorf("API error [%s]: %s", result.Error.Type, result.Error.Message)
	}

	var textBlocks []string
	for _, content := range result.Content {
		if content.Type == "text" && content.Text != "" {
			textBlocks = append(textBlocks, content.Text)
		}
	}

	if len(textBlocks) == 0 {
		p.log.WithField("stop_reason", result.StopReason).Debug("no text content in response")
	}

	return strings.Join(textBlocks, "\n"), nil
}

func (p *Provider) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	token, err := p.config.GetToken(ProviderName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get token")
	}

	baseURL, err := p.config.GetBaseURL(ProviderName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get base URL")
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("x-api-key", token)
	req.Header.Set("anthropic-version", AnthropicVersion)
	return req, nil
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
		var errResp MessagesAPIResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != nil {
			return nil, errors.Errorf("API error [%s]: %s (HTTP %d)", errResp.Error.Type, errResp.Error.Message, resp.StatusCode)
		}
		if p.debug {
			return nil, errors.Errorf("API request failed (HTTP %d): %s", resp.StatusCode, string(body))
		}
		return nil, errors.Errorf("API request failed (HTTP %d)", resp.StatusCode)
	}

	return body, nil
}

func (p *Provider) parseError(err error, body []byte) error {
	if p.debug {
		return errors.Errorf("failed to parse API response: %v\nRaw response: %s", err, string(body))
	}
	return errors.Wrap(err, "failed to parse API response")
}
