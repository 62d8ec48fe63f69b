package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"cogscheduler/backend/internal/pkg/logger"
)

// RequestLog logs one structured line per request.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
