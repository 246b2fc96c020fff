package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/projectquota/handler"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestNewHTTPErrorHandler_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"client error is info", errQuotaGone, "level=INFO"},
		{"unavailable is warn", handler.ErrServiceUnavailable, "level=WARN"},
		{"server error is error", errors.New("boom"), "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			log, buf := captureLogger()
			h := handler.NewHTTPErrorHandler(log, handler.WithErrorMappers(quotaMapper))

			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodPost, "/projects", nil), tt.err)

			assert.Contains(t, buf.String(), tt.level)
			assert.Contains(t, buf.String(), "path=/projects")
		})
	}
}

func TestNewHTTPErrorHandler_UsesMappers(t *testing.T) {
	t.Parallel()
	log, _ := captureLogger()
	h := handler.NewHTTPErrorHandler(log, handler.WithErrorMappers(quotaMapper))

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/projects", nil), fmt.Errorf("consume: %w", errQuotaGone))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "LIMIT_REACHED", decodeError(t, w).Error)
}

func TestNewHTTPErrorHandler_ClientGone(t *testing.T) {
	t.Parallel()
	log, buf := captureLogger()
	h := handler.NewHTTPErrorHandler(log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodGet, "/limits", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	h(w, r, context.Canceled)

	assert.Zero(t, w.Body.Len())
	assert.Contains(t, buf.String(), "request cancelled by client")
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()
	log, _ := captureLogger()
	h := handler.NewErrorHandler(log)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	h(handler.NewContext(w, r), handler.ErrNotFound)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Error)
}
