package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecoshelf-extractor/internal/llm"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longTitle = "Apple iPhone 15 Pro Max 256GB Unlocked Smartphone - Space Black"

type stubTrimmer struct {
	calls   int
	trimmed string
	err     error
}

func (s *stubTrimmer) TrimTitle(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.trimmed, s.err
}

func newTestRouter(apiKey string, trimmer *stubTrimmer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	handler := NewHandler(apiKey, trimmer, logger)
	return SetupRouter(RouterConfig{AllowedOrigins: []string{"*"}}, handler, logger)
}

func postTrim(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/trim-title", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestTrimTitle_Success(t *testing.T) {
	trimmer := &stubTrimmer{trimmed: "iPhone 15 Pro Max"}
	router := newTestRouter("test-key", trimmer)

	w := postTrim(router, `{"title":"`+longTitle+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "iPhone 15 Pro Max", decode[TrimTitleResponse](t, w).TrimmedTitle)
	assert.Equal(t, 1, trimmer.calls)
}

func TestTrimTitle_MissingTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"empty object", "{}"},
		{"empty title", `{"title":""}`},
		{"invalid json", `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trimmer := &stubTrimmer{trimmed: "unused"}
			router := newTestRouter("test-key", trimmer)

			w := postTrim(router, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Missing title", decode[ErrorResponse](t, w).Error)
			assert.Zero(t, trimmer.calls)
		})
	}
}

func TestTrimTitle_MissingAPIKey(t *testing.T) {
	trimmer := &stubTrimmer{trimmed: "unused"}
	router := newTestRouter("", trimmer)

	w := postTrim(router, `{"title":"`+longTitle+`"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Missing API key configuration", decode[ErrorResponse](t, w).Error)
	assert.Zero(t, trimmer.calls)
}

func TestTrimTitle_ModelFailureReturnsOriginal(t *testing.T) {
	tests := []struct {
		name    string
		trimmer *stubTrimmer
	}{
		{"error", &stubTrimmer{err: errors.New("upstream unavailable")}},
		{"empty completion", &stubTrimmer{trimmed: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter("test-key", tt.trimmer)

			w := postTrim(router, `{"title":"`+longTitle+`"}`)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, longTitle, decode[TrimTitleResponse](t, w).TrimmedTitle)
		})
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter("", &stubTrimmer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	router := newTestRouter("", &stubTrimmer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS_Preflight(t *testing.T) {
	router := newTestRouter("test-key", &stubTrimmer{})

	req := httptest.NewRequest(http.MethodOptions, "/api/trim-title", nil)
	req.Header.Set("Origin", "chrome-extension://abcdef")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestAllowedOrigin(t *testing.T) {
	tests := []struct {
		name     string
		origin   string
		allowed  []string
		expected string
	}{
		{"wildcard", "https://example.com", []string{"*"}, "*"},
		{"exact", "https://example.com", []string{"https://example.com"}, "https://example.com"},
		{"prefix", "chrome-extension://abcdef", []string{"chrome-extension://*"}, "chrome-extension://abcdef"},
		{"rejected", "https://evil.example", []string{"chrome-extension://*"}, ""},
		{"no origin", "", []string{"https://example.com"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, allowedOrigin(tt.origin, tt.allowed))
		})
	}
}

// fakeOpenAI answers chat completions with content, or fails with status
func fakeOpenAI(t *testing.T, status int, content string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   llm.DefaultModel,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newModelRouter(t *testing.T, server *httptest.Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	client := llm.NewClient(llm.Options{APIKey: "test-key", BaseURL: server.URL + "/v1"}, logger)
	return SetupRouter(RouterConfig{AllowedOrigins: []string{"*"}}, NewHandler("test-key", client, logger), logger)
}

func TestTrimTitle_WithModel(t *testing.T) {
	router := newModelRouter(t, fakeOpenAI(t, http.StatusOK, "  Apple iPhone 15 Pro Max \n"))

	w := postTrim(router, `{"title":"`+longTitle+`"}`)

	require.Equal(t, http.StatusOK, w.Code)
	trimmed := decode[TrimTitleResponse](t, w).TrimmedTitle
	assert.Equal(t, "Apple iPhone 15 Pro Max", trimmed)
	assert.LessOrEqual(t, len(strings.Fields(trimmed)), 5)
}

func TestTrimTitle_WithFailingModel(t *testing.T) {
	router := newModelRouter(t, fakeOpenAI(t, http.StatusInternalServerError, ""))

	w := postTrim(router, `{"title":"`+longTitle+`"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, longTitle, decode[TrimTitleResponse](t, w).TrimmedTitle)
}
