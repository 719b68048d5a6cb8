package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	model   string
	baseURL string
	token   string
}

func (c testConfig) GetModel() string { return c.model }

func (c testConfig) GetBaseURL(string) (string, error) { return c.baseURL, nil }

func (c testConfig) GetToken(string) (string, error) {
	if c.token == "" {
		return "", errors.New("no token")
	}
	return c.token, nil
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewProvider(testConfig{model: "gemini:gemini-2.0-flash", baseURL: srv.URL, token: "k"}, log)
}

func testRequest() advice.Request {
	return advice.Request{
		SystemInstruction: "products",
		Messages: []advice.Message{
			{Role: advice.RoleUser, Text: "我想找礼物"},
			{Role: advice.RoleModel, Text: "好的"},
			{Role: advice.RoleUser, Text: "预算五百"},
		},
		Generation: advice.DefaultGenerationConfig(),
	}
}

func TestGenerateSendsConversation(t *testing.T) {
	var got GeminiRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Try the "},{"text":"silk robe."}]}}]}`))
	})

	reply, err := p.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "Try the silk robe.", reply)

	require.Len(t, got.Contents, 3)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "预算五百", got.Contents[2].Parts[0].Text)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "products", got.SystemInstruction.Parts[0].Text)
	require.NotNil(t, got.GenerationConfig)
	assert.InDelta(t, 0.7, got.GenerationConfig.Temperature, 1e-6)
	assert.InDelta(t, 0.8, got.GenerationConfig.TopP, 1e-6)
	assert.Equal(t, 800, got.GenerationConfig.MaxOutputTokens)
}

func TestGenerateEmptyResults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "no candidates", body: `{"candidates":[]}`},
		{name: "no parts", body: `{"candidates":[{"content":{"parts":[]}}]}`},
		{name: "only thoughts", body: `{"candidates":[{"content":{"parts":[{"text":"hmm","thought":true}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			reply, err := p.Generate(context.Background(), testRequest())
			require.NoError(t, err)
			assert.Equal(t, "", reply)
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{}}`, wantMsg: "HTTP 429"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, wantMsg: "HTTP 401"},
		{name: "malformed", status: http.StatusOK, body: `{"candidates":`, wantMsg: "error parsing response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.Generate(context.Background(), testRequest())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestGenerateDebugIncludesBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`quota exceeded`))
	})
	p.SetDebug(true)

	_, err := p.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateMissingToken(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	p := NewProvider(testConfig{model: "gemini:gemini-2.0-flash", baseURL: "http://unused"}, log)

	_, err := p.Generate(context.Background(), testRequest())
	assert.Error(t, err)
}

func TestListModels(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"models":[
			{"name":"models/gemini-1.5-flash","displayName":"Flash 1.5","supportedGenerationMethods":["generateContent"]},
			{"name":"models/embedding-001","description":"emb","supportedGenerationMethods":["embedContent"]},
			{"name":"models/gemini-2.0-flash","description":"Fast","supportedGenerationMethods":["generateContent","countTokens"]}
		]}`))
	})

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []advice.ModelInfo{
		{ID: "gemini-2.0-flash", Description: "Fast"},
		{ID: "gemini-1.5-flash", Description: "Flash 1.5"},
	}, models)
}

func TestTransportErrorOmitsToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	p := NewProvider(testConfig{model: "gemini:gemini-2.0-flash", baseURL: baseURL, token: "SECRET-KEY-123"}, log)

	_, err := p.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")

	_, err = p.ListModels(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestSessionFailureLogOmitsToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	log, hook := logtest.NewNullLogger()
	p := NewProvider(testConfig{model: "gemini:gemini-2.0-flash", baseURL: baseURL, token: "SECRET-KEY-123"}, log)
	sess := advice.NewSession(p, "products", advice.Options{Logger: log})

	require.True(t, sess.Submit(context.Background(), "hello"))
	turns := sess.Transcript()
	assert.Equal(t, advice.DefaultFallbackMessage, turns[len(turns)-1].Text)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	line, err := entry.String()
	require.NoError(t, err)
	assert.Contains(t, line, "error sending request")
	assert.NotContains(t, line, "SECRET-KEY-123")
}
