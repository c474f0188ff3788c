package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinMiddleware attaches base to the request context and logs each request
// when it completes. Run it after the request ID middleware.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := WithContext(c.Request.Context(), base)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		l := L(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("HTTP Request", fields...)
		case status >= http.StatusBadRequest:
			l.Warn("HTTP Request", fields...)
		default:
			l.Info("HTTP Request", fields...)
		}
	}
}

// Recovery turns panics into a 500 response and logs them with a stack trace
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				L(WithContext(c.Request.Context(), base)).Error("Panic recovered",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", rec),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   gin.H{"code": "ERR_INTERNAL", "message": "Internal server error"},
				})
			}
		}()
		c.Next()
	}
}
