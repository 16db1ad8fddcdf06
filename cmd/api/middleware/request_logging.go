package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"folio/logger"
	"folio/trace"
)

// SlowRequestLogger 는 threshold 보다 오래 걸린 요청을 warn 으로 남긴다.
// 모든 요청의 완료 로그는 RequestTrace 가 남긴다.
func SlowRequestLogger(threshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		if duration < threshold {
			return
		}
		logger.WarnWithFields("slow request", logger.Fields{
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": duration.Milliseconds(),
			"request_id":  trace.RequestIDFromContext(c.Request.Context()),
		})
	}
}
