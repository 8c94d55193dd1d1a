package api

import (
	"net/http"
	"time"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/gin-gonic/gin"
)

// loggingMiddleware logs each request. Scrapes and health probes are
// frequent, so requests are logged at DEBUG and only errors at WARN.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		logf := logging.Debug
		if param.StatusCode >= http.StatusInternalServerError {
			logf = logging.Warn
		}
		logf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
		return ""
	})
}

// corsMiddleware allows read-only cross-origin access so dashboards can
// poll the status endpoint.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Accept, Content-Type")
		c.Header("Access-Control-Max-Age", "300")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
