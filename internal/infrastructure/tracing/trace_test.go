package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/id"
)

func TestStartSpanMintsTraceID(t *testing.T) {
	tracer := New("test", zap.NewNop())

	span, ctx := tracer.StartSpan(t.Context(), "op")
	assert.NotEmpty(t, span.TraceID)
	assert.Equal(t, span.TraceID, GetTraceID(ctx))
}

func TestStartSpanInheritsTraceID(t *testing.T) {
	tracer := New("test", zap.NewNop())

	ctx := WithTraceID(t.Context(), id.TraceID("trc_fixed"))
	span, _ := tracer.StartSpan(ctx, "op")
	assert.Equal(t, id.TraceID("trc_fixed"), span.TraceID)
}

func TestHTTPMiddlewareEchoesTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer := New("test", zap.NewNop())

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"trace": GetTraceID(c.Request.Context()).String()})
	})

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Trace-ID", "trc_incoming")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trc_incoming", w.Header().Get("X-Trace-ID"))
	assert.Contains(t, w.Body.String(), "trc_incoming")
}

func TestHTTPMiddlewareSubmitsFinalizedSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	tracer := New("test", zap.New(core))

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))

	// The collector logs asynchronously; the span it receives must
	// already carry its duration, status, and tags.
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("span completed").Len() == 1
	}, time.Second, 5*time.Millisecond)

	fields := logs.FilterMessage("span completed").All()[0].ContextMap()
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Greater(t, fields["duration"], time.Duration(0))
	assert.Equal(t, "/ping", fields["http.path"])
}

func TestHTTPMiddlewareMintsWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer := New("test", zap.NewNop())

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))

	assert.Contains(t, w.Header().Get("X-Trace-ID"), "trc_")
}
