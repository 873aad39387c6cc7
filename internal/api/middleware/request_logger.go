package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-Id"

// RequestLogger tags each request with an id and logs one line when it finishes. For
// /ws/overlay that line is written when the socket closes.
func RequestLogger(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(RequestIDHeader, rid)
		c.Set("request_id", rid)

		c.Next()

		fields := logrus.Fields{
			"request_id":  rid,
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote":      c.ClientIP(),
		}
		if id, ok := c.Get("client_id"); ok {
			fields["client_id"] = id
		}
		if sid := c.Param("session_id"); sid != "" {
			fields["session_id"] = sid
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		entry := l.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("http request")
		case status >= 400:
			entry.Warn("http request")
		case c.FullPath() == "/ping":
			entry.Debug("http request")
		default:
			entry.Info("http request")
		}
	}
}
