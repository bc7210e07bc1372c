package response

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]string{"status": "ok"}, testLogger())

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   string
	}{
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no such route", nil) }, http.StatusNotFound, "NOT_FOUND"},
		{"method", func(w http.ResponseWriter) { MethodNotAllowed(w, "nope", nil) }, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "boom", nil) }, http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Code)
		})
	}
}

func TestTooManyRequests_RetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, 1500*time.Millisecond, testLogger())

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decode(t, w).Code)
}

func TestHandleError(t *testing.T) {
	t.Run("domain error keeps details", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, domainerrors.FieldErrors{}.Add("name", "required").Err(), testLogger())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"code":"VALIDATION","message":"validation failed","details":{"name":["required"]}}`, w.Body.String())
	})

	t.Run("store error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, store.ErrNotFound, testLogger())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, errors.New("disk on fire"), testLogger())
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decode(t, w).Message)
	})
}
