package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/longkey1/shopadvice/internal/catalog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProducts = []catalog.Entry{
	{ID: "1", Name: "Lavender Candle", Price: 128, Description: "Hand-poured soy wax", Category: catalog.CategoryAtmosphere},
	{ID: "2", Name: "Silk Robe", Price: 1380, Description: "Mulberry silk", Category: catalog.CategoryApparel},
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(t *testing.T, provider advice.Provider) *Server {
	t.Helper()
	factory := func() *advice.Session {
		return advice.NewSession(provider, catalog.Grounding(testProducts), advice.Options{Logger: testLogger()})
	}
	return New(factory, testProducts, testLogger())
}

func do(t *testing.T, h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieSessionID {
			return c
		}
	}
	t.Fatalf("no %s cookie set", cookieSessionID)
	return nil
}

func decodeTranscript(t *testing.T, rec *httptest.ResponseRecorder) transcriptResponse {
	t.Helper()
	var resp transcriptResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, advice.ProviderFunc(func(context.Context, advice.Request) (string, error) { return "", nil }))

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestTranscriptSeededPerVisitor(t *testing.T) {
	s := newTestServer(t, advice.ProviderFunc(func(context.Context, advice.Request) (string, error) { return "", nil }))

	first := do(t, s, http.MethodGet, "/api/transcript", "")
	require.Equal(t, http.StatusOK, first.Code)
	cookie := sessionCookie(t, first)

	resp := decodeTranscript(t, first)
	assert.Equal(t, cookie.Value, resp.SessionID)
	assert.False(t, resp.Busy)
	require.Len(t, resp.Turns, 1)
	assert.Equal(t, advice.SpeakerAssistant, resp.Turns[0].Speaker)
	assert.Equal(t, advice.DefaultGreeting, resp.Turns[0].Text)
}

func TestTranscriptReadsDoNotStoreSessions(t *testing.T) {
	s := newTestServer(t, advice.ProviderFunc(func(context.Context, advice.Request) (string, error) { return "ok", nil }))

	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/transcript", "").Code)
	}
	forged := &http.Cookie{Name: cookieSessionID, Value: "forged-visitor"}
	resp := decodeTranscript(t, do(t, s, http.MethodGet, "/api/transcript", "", forged))
	assert.Len(t, resp.Turns, 1)
	assert.Equal(t, 0, s.sessions.len())

	cookie := sessionCookie(t, do(t, s, http.MethodGet, "/api/transcript", ""))
	require.Equal(t, http.StatusAccepted, do(t, s, http.MethodPost, "/api/messages", `{"message":"hi"}`, cookie).Code)
	assert.Equal(t, 1, s.sessions.len())

	require.Eventually(t, func() bool {
		return !decodeTranscript(t, do(t, s, http.MethodGet, "/api/transcript", "", cookie)).Busy
	}, time.Second, 5*time.Millisecond)
	do(t, s, http.MethodPost, "/api/messages", `{"message":"again"}`, cookie)
	assert.Equal(t, 1, s.sessions.len())
}

func TestPostMessageTooLarge(t *testing.T) {
	s := newTestServer(t, advice.ProviderFunc(func(context.Context, advice.Request) (string, error) { return "ok", nil }))

	body := `{"message":"` + strings.Repeat("a", maxMessageBytes) + `"}`
	rec := do(t, s, http.MethodPost, "/api/messages", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 0, s.sessions.len())
}

func TestPostMessage(t *testing.T) {
	s := newTestServer(t, advice.ProviderFunc(func(_ context.Context, r advice.Request) (string, error) {
		return "Try the Lavender Candle.", nil
	}))

	cookie := sessionCookie(t, do(t, s, http.MethodGet, "/api/transcript", ""))

	rec := do(t, s, http.MethodPost, "/api/messages", `{"message":"something calming"}`, cookie)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		resp := decodeTranscript(t, do(t, s, http.MethodGet, "/api/transcript", "", cookie))
		return !resp.Busy && len(resp.Turns) == 3
	}, time.Second, 5*time.Millisecond)

	resp := decodeTranscript(t, do(t, s, http.MethodGet, "/api/transcript", "", cookie))
	assert.Equal(t, advice.Turn{Speaker: advice.SpeakerUser, Text: "something calming"}, resp.Turns[1])
	assert.Equal(t, advice.Turn{Speaker: advice.SpeakerAssistant, Text: "Try the Lavender Candle."}, resp.Turns[2])
}

func TestPostMessageRejected(t *testing.T) {
	s := newTestServer(t, advice.ProviderFunc(func(context.Context, advice.Request) (string, error) { return "ok", nil }))

	tests := []struct {
		name string
		body string
	}{
		{name: "blank message", body: `{"message":"   "}`},
		{name: "missing message", body: `{}`},
		{name: "invalid json", body: `{"message":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestPostMessageWhileBusy(t *testing.T) {
	release := make(chan struct{})
	s := newTestServer(t, advice.ProviderFunc(func(context.Context, advice.Request) (string, error) {
		<-release
		return "done", nil
	}))

	cookie := sessionCookie(t, do(t, s, http.MethodGet, "/api/transcript", ""))

	rec := do(t, s, http.MethodPost, "/api/messages", `{"message":"first"}`, cookie)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, decodeTranscript(t, rec).Busy)

	rec = do(t, s, http.MethodPost, "/api/messages", `{"message":"second"}`, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	require.Eventually(t, func() bool {
		return !decodeTranscript(t, do(t, s, http.MethodGet, "/api/transcript", "", cookie)).Busy
	}, time.Second, 5*time.Millisecond)

	resp := decodeTranscript(t, do(t, s, http.MethodGet, "/api/transcript", "", cookie))
	require.Len(t, resp.Turns, 3)
	assert.Equal(t, "first", resp.Turns[1].Text)
}

func TestProducts(t *testing.T) {
	s := newTestServer(t, advice.ProviderFunc(func(context.Context, advice.Request) (string, error) { return "", nil }))

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{name: "all", target: "/api/products", want: []string{"1", "2"}},
		{name: "by category", target: "/api/products?category=Apparel", want: []string{"2"}},
		{name: "by query", target: "/api/products?q=soy", want: []string{"1"}},
		{name: "no match", target: "/api/products?q=teapot", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var got []catalog.Entry
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			ids := []string{}
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
