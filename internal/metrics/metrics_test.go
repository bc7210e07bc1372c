package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/v1/titles/{title_id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/titles/{title_id}", "418"))

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/titles/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/titles/{title_id}", "418"))
	assert.Equal(t, 3.0, after-before)
	assert.Equal(t, 0.0, testutil.ToFloat64(APIActiveRequests))
}

func TestRecordMailSend(t *testing.T) {
	okBefore := testutil.ToFloat64(MailSentTotal.WithLabelValues("console", "success"))
	errBefore := testutil.ToFloat64(MailSentTotal.WithLabelValues("console", "error"))

	RecordMailSend("console", time.Millisecond, nil)
	RecordMailSend("console", time.Millisecond, errors.New("relay down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(MailSentTotal.WithLabelValues("console", "success"))-okBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(MailSentTotal.WithLabelValues("console", "error"))-errBefore)
}

func TestHandler_ExposesMetrics(t *testing.T) {
	SignupsTotal.WithLabelValues("created").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "yamdb_signups_total"))
}
