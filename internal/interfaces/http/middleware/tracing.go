package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request. A nil provider uses the global one.
func Tracing(serviceName string, provider trace.TracerProvider) gin.HandlerFunc {
	var opts []otelgin.Option
	if provider != nil {
		opts = append(opts, otelgin.WithTracerProvider(provider))
	}
	return otelgin.Middleware(serviceName, opts...)
}

// SpanEnricher tags the request span with the request id and caller, and
// marks it as failed for 5xx responses. It must run after Tracing and JWTAuth.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if p := GetPrincipal(c); p != nil {
			if p.UserID != "" {
				span.SetAttributes(attribute.String("user_id", p.UserID))
			}
			span.SetAttributes(attribute.String("user_role", string(p.Role)))
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
