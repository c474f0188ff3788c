package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type capturedRequest struct {
	Path string
	Body map[string]any
}

func newTestGemini(t *testing.T, status int, body string) (*Gemini, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&captured.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := config.GenAIConfig{APIKey: "test-key", Model: "gemini-2.0-flash-exp", Timeout: 5 * time.Second}
	g, err := NewGemini(context.Background(), cfg, Params{Temperature: 0.7, MaxOutputTokens: 1500},
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return g, captured
}

func TestGemini_Generate(t *testing.T) {
	g, captured := newTestGemini(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Sales are "},{"text":"up."}]}}]}`)

	text, err := g.Generate(context.Background(), "How are sales?")
	require.NoError(t, err)
	assert.Equal(t, "Sales are up.", text)

	assert.True(t, strings.HasSuffix(captured.Path, "models/gemini-2.0-flash-exp:generateContent"), captured.Path)
	contents := captured.Body["contents"].([]any)
	require.Len(t, contents, 1)
	first := contents[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "How are sales?", first["parts"].([]any)[0].(map[string]any)["text"])

	gen := captured.Body["generationConfig"].(map[string]any)
	assert.Equal(t, 0.7, gen["temperature"])
	assert.Equal(t, float64(1500), gen["maxOutputTokens"])
}

func TestGemini_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exceeded"}}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"empty text", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGemini(t, tt.status, tt.body)
			_, err := g.Generate(context.Background(), "prompt")

			var ext *shared.ExternalServiceError
			require.ErrorAs(t, err, &ext)
			assert.Equal(t, "gemini", ext.Service)
		})
	}
}

func TestNew_WithoutKeyIsDisabled(t *testing.T) {
	gen, err := New(context.Background(), config.GenAIConfig{}, Params{})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "hi")
	var ext *shared.ExternalServiceError
	require.ErrorAs(t, err, &ext)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParams(t *testing.T) {
	cfg := config.GenAIConfig{ChatTemperature: 0.9, ChatMaxTokens: 800, ReportTemperature: 0.7, ReportMaxTokens: 1500}
	assert.Equal(t, Params{Temperature: 0.9, MaxOutputTokens: 800}, ChatParams(cfg))
	assert.Equal(t, Params{Temperature: 0.7, MaxOutputTokens: 1500}, ReportParams(cfg))
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "models/gemini-pro", modelName("gemini-pro"))
	assert.Equal(t, "models/gemini-pro", modelName("models/gemini-pro"))
}
