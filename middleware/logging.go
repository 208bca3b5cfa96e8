package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Logging returns a logging middleware for admin HTTP requests
func Logging() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(params gin.LogFormatterParams) string {
		return fmt.Sprintf("[admin] %s %s -> %d (%s)\n",
			params.Method, params.Path, params.StatusCode, params.Latency)
	})
}
