package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CustomWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})
	logger.Info("test message")

	assert.Contains(t, buf.String(), "test message")
	assert.Contains(t, buf.String(), "\"level\":\"INFO\"")
}

func TestNew_FormatAutoDetection(t *testing.T) {
	var prod, dev bytes.Buffer
	New(Config{Environment: "production", Writer: &prod}).Info("hello")
	New(Config{Environment: "development", Writer: &dev}).Info("hello")

	assert.True(t, strings.HasPrefix(prod.String(), "{"), "production logs are JSON")
	assert.Contains(t, dev.String(), "INF")
	assert.Contains(t, dev.String(), "hello")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestPrettyHandler_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	l.Info("hidden")
	l.Warn("shown", "title_id", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "title_id=")
	assert.Contains(t, out, "7")
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, nil)).With("component", "mail").WithGroup("smtp")
	l.Info("sent", "host", "localhost")

	out := buf.String()
	assert.Contains(t, out, "component=")
	assert.Contains(t, out, "smtp.host=")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: "json", Writer: &buf}).WithError(assert.AnError).Error("failed")
	assert.Contains(t, buf.String(), assert.AnError.Error())
}

func TestFromContext(t *testing.T) {
	fallback := slog.Default()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithContext(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx, fallback))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Writer: &buf}).Logger

	var sawScoped bool
	h := middleware.RequestID(RequestLogger(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawScoped = FromContext(r.Context(), nil) != nil
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/titles/9", nil))

	require.True(t, sawScoped)
	out := buf.String()
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/api/v1/titles/9"`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"request_id"`)
}
