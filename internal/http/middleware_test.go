package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("attaches a scoped logger to the request context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := slog.New(slog.NewJSONHandler(&buf, nil))

		nextCalled := false
		handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			logger := LoggerFromContext(r.Context())
			require.NotNil(t, logger)
			logger.Info("inside handler")
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.True(t, nextCalled)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		output := buf.String()
		assert.Contains(t, output, "request started")
		assert.Contains(t, output, "request completed")
		assert.Contains(t, output, `"path":"/sessions"`)
	})

	t.Run("request ids increase per request", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := slog.New(slog.NewJSONHandler(&buf, nil))
		handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		for range 2 {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/leads", nil))
		}

		output := buf.String()
		assert.Contains(t, output, `"request_id":1`)
		assert.Contains(t, output, `"request_id":2`)
	})
}
