package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_DegradedWithoutSearch(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decode[HealthResponse](t, resp)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "degraded", health.Components["search"].Status)
}

func TestFormatDocCount(t *testing.T) {
	assert.Equal(t, "0 titles indexed", formatDocCount(0))
	assert.Equal(t, "1 title indexed", formatDocCount(1))
	assert.Equal(t, "12 titles indexed", formatDocCount(12))
}
