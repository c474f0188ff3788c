package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the decoded form of the API response wrapper
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]any `json:"meta"`
}

// PerformRequest sends a request through engine. A non-nil body is
// JSON encoded.
func PerformRequest(t *testing.T, engine http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// DecodeEnvelope parses the response wrapper
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to parse response: %s", w.Body.String())
	return env
}

// DecodeData parses the data field of a successful response into T
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	env := DecodeEnvelope(t, w)
	require.True(t, env.Success, "Expected a successful response: %s", w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), "Failed to parse data")
	return out
}

// AssertErrorResponse asserts status and error code of a failed response.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, "Unexpected status code: %s", w.Body.String())
	env := DecodeEnvelope(t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, "Expected error object in response")
	assert.Equal(t, code, env.Error.Code)
}

// NewEngine returns a bare gin engine in test mode
func NewEngine() *gin.Engine {
	return gin.New()
}
