package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct{ baseURL string }

func (c testConfig) GetModel() string { return "openai:gpt-4.1" }
func (c testConfig) GetBaseURL(string) (string, error) { return c.baseURL, nil }
func (c testConfig) GetToken(string) (string, error) { return "sk-test", nil }

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewProvider(testConfig{baseURL: srv.URL}, log)
}

func TestGenerate(t *testing.T) {
	var got ResponsesAPIRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{"output":[
			{"type":"reasoning","content":[]},
			{"type":"message","content":[{"type":"output_text","text":"Try the silk robe."}]}
		]}`))
	})

	reply, err := p.Generate(context.Background(), advice.Request{
		SystemInstruction: "products",
		Messages: []advice.Message{
			{Role: advice.RoleUser, Text: "a"},
			{Role: advice.RoleModel, Text: "b"},
		},
		Generation: advice.DefaultGenerationConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Try the silk robe.", reply)

	assert.Equal(t, "gpt-4.1", got.Model)
	assert.Equal(t, "products", got.Instructions)
	assert.Equal(t, []ResponsesAPIInput{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}}, got.Input)
	assert.Equal(t, 800, got.MaxOutputTokens)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{}`},
		{name: "error object", status: http.StatusOK, body: `{"error":{"code":"bad","message":"nope"}}`},
		{name: "malformed", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.Generate(context.Background(), advice.Request{})
			assert.Error(t, err)
		})
	}
}
