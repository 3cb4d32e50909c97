package transport

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/time/rate"
)

// RateLimit returns middleware admitting at most perSecond requests per
// second across all clients, with bursts of up to burst requests. A
// non-positive burst defaults to one second's worth of requests.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	if burst <= 0 {
		burst = max(1, int(math.Ceil(perSecond)))
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			sessionRejections.WithLabelValues("rate_limit").Inc()
			c.Header("Retry-After", "1")
			abortRPC(c, http.StatusTooManyRequests, mcp.INTERNAL_ERROR, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
