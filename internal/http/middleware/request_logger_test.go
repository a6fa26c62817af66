package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/healthcare-client/pkg/logging"
)

func TestRequestLogger_EchoesRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(logging.NewWithWriter(&buf, "debug"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "req-123", rr.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"status":204`)
}

func TestRequestLogger_GeneratesIDAndWarnsOnServerError(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(logging.NewWithWriter(&buf, "warn"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), "ops request failed")
}

func TestRequestLogger_SuccessIsDebugOnly(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(logging.NewWithWriter(&buf, "info"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())
}
