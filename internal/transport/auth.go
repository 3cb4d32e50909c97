package transport

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
)

// BearerGate rejects requests whose Authorization header does not carry
// token as a bearer credential.
func BearerGate(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got := []byte(extractBearerToken(c))
		if len(got) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			sessionRejections.WithLabelValues("unauthorized").Inc()
			c.Header("WWW-Authenticate", "Bearer")
			abortRPC(c, http.StatusUnauthorized, mcp.INVALID_REQUEST, "unauthorized")
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
