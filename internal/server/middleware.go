package server

import (
	"time"

	"fjacquet/statement-insights/internal/logging"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request through the application logger.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l := logger.WithFields(
			logging.F(logging.FieldMethod, c.Request.Method),
			logging.F(logging.FieldPath, c.FullPath()),
			logging.F(logging.FieldStatus, c.Writer.Status()),
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		if err := c.Errors.Last(); err != nil {
			l = l.WithError(err.Err)
		}

		switch {
		case c.Writer.Status() >= 500:
			l.Error("Request failed")
		case c.Writer.Status() >= 400:
			l.Warn("Request rejected")
		default:
			l.Debug("Request served")
		}
	}
}
