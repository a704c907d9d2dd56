package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/id"
)

const traceHeader = "X-Trace-ID"

// HTTPMiddleware traces every request: honors an incoming X-Trace-ID,
// echoes the trace ID on the response, and submits a span on completion.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(traceHeader); incoming != "" {
			ctx = WithTraceID(ctx, id.TraceID(incoming))
		}

		span, ctx := tracer.StartSpan(ctx, c.FullPath())
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(traceHeader, span.TraceID.String())

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}
