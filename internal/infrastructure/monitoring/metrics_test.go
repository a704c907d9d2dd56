package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsIsolatedRegistries(t *testing.T) {
	// Two instances must not trip duplicate registration.
	a := NewMetrics()
	b := NewMetrics()
	require.NotNil(t, a)
	require.NotNil(t, b)

	a.WorkersActive.Set(2)
	b.WorkersActive.Set(5)
}

func TestMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := NewMetrics()

	router := gin.New()
	router.Use(Middleware(metrics))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	req := httptest.NewRequest("GET", "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	scrape := httptest.NewRequest("GET", "/metrics", nil)
	sw := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(sw, scrape)

	body := sw.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `path="/ping"`)
}

func TestWorkerRecorders(t *testing.T) {
	metrics := NewMetrics()

	metrics.RecordWorkerStarted("analysis")
	metrics.RecordWorkerRejected("analysis", "type_limit")
	metrics.RecordWorkerTerminal("analysis", "completed", 250*time.Millisecond)

	scrape := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, scrape)

	body := w.Body.String()
	assert.Contains(t, body, "workers_started_total")
	assert.Contains(t, body, "workers_rejected_total")
}
