package middleware

import (
	"strings"
	"time"

	"github.com/annel0/tank-battalion/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey ключ trace-ID в gin.Context
const TraceIDKey = "trace_id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Пути из quiet (например, /health и /metrics) пишутся на уровне DEBUG.
type RequestLogger struct {
	quiet  []string
	logger *logging.Logger
}

func NewRequestLogger(quiet ...string) *RequestLogger {
	return &RequestLogger{quiet: quiet, logger: logging.GetAPILogger()}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id из OpenTelemetry, если otelgin уже создал span
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logf := rl.logger.Info
		if rl.isQuiet(path) {
			logf = rl.logger.Debug
		}
		logf("[HTTP] ▶ %s %s ip=%s trace=%s", method, path, c.ClientIP(), traceID)

		c.Next()

		logf("[HTTP] ◀ %s %s %d %s trace=%s", method, path, c.Writer.Status(), time.Since(start), traceID)
	}
}

func (rl *RequestLogger) isQuiet(path string) bool {
	for _, q := range rl.quiet {
		if strings.HasPrefix(path, q) {
			return true
		}
	}
	return false
}
