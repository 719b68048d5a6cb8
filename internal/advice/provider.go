// Package advice implements the shopping-advice chat session: an ordered transcript of turns,
// the request sent to a generative-language provider, and the single in-flight gate around that call.
//
// Provider implementations (gemini, genai, openai, anthropic) live in their own packages and
// satisfy the Provider interface defined here.
package advice

import "context"

// Role is the provider-neutral role vocabulary used in outbound requests.
// Providers translate RoleModel into their own assistant role when needed.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one role-tagged text turn in an outbound request.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// GenerationConfig holds the sampling parameters sent with every request.
// They are fixed per process and never changed by a session.
type GenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"top_p"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// DefaultGenerationConfig returns the parameters the storefront advisor has always used.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.7,
		TopP:            0.8,
		MaxOutputTokens: 800,
	}
}

// Request is the full payload for one provider call.
type Request struct {
	SystemInstruction string           `json:"system_instruction"`
	Messages          []Message        `json:"messages"`
	Generation        GenerationConfig `json:"generation"`
}

// Provider defines the interface for generative-language providers.
//
// Generate returns the provider's text for the request. An empty string with a nil error
// means the provider answered without any text.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f ProviderFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ModelInfo represents information about an available model from a provider.
type ModelInfo struct {
	ID          string // Model identifier (e.g., "gemini-2.0-flash")
	Description string // Human-readable description of the model
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
