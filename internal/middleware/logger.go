package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"cottage/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates the caller's request id or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs every request and turns panics into a 500 response.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error("request panic",
					append(requestAttrs(c, start), "panic", fmt.Sprint(recovered), "stack", string(debug.Stack()))...)
				response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				return
			}

			attrs := requestAttrs(c, start)
			switch {
			case len(c.Errors) > 0:
				log.Error("request failed", append(attrs, "error", c.Errors.String())...)
			case c.Writer.Status() >= http.StatusInternalServerError:
				log.Error("request failed", attrs...)
			case c.Writer.Status() >= http.StatusBadRequest:
				log.Warn("request rejected", attrs...)
			default:
				log.Info("request", attrs...)
			}
		}()

		c.Next()
	}
}

func requestAttrs(c *gin.Context, start time.Time) []any {
	return []any{
		"status", c.Writer.Status(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"user_id", c.GetInt64(ctxUserID),
		"request_id", c.GetString("request_id"),
		"latency", time.Since(start),
	}
}
