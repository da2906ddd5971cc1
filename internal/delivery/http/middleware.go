package http

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// CORSMiddleware lets browser clients on the allowed origins call the API.
// "*" admits any origin. The API reads no cookies or auth headers, so
// credentialed requests are never allowed.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAny := slices.Contains(allowedOrigins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		header := c.Writer.Header()

		if origin != "" && (allowAny || isAllowedOrigin(origin, allowedOrigins)) {
			if allowAny {
				header.Set("Access-Control-Allow-Origin", "*")
			} else {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Add("Vary", "Origin")
			}
			header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			// browsers hide response headers not listed here
			header.Set("Access-Control-Expose-Headers", RequestIDHeader+", Retry-After")
			header.Set("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isAllowedOrigin matches origin against the allow list. One "*" in an
// entry stands for any run of characters, e.g. "https://*.example.com".
func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		prefix, suffix, wildcard := strings.Cut(allowed, "*")
		if !wildcard {
			if origin == allowed {
				return true
			}
			continue
		}
		if len(origin) >= len(prefix)+len(suffix) &&
			strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

// RequestIDMiddleware keeps the caller's X-Request-ID or assigns a new one,
// and echoes it on the response
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware logs requests with their request id
func LoggerMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(p gin.LogFormatterParams) string {
		return fmt.Sprintf("[GIN] %s | %3d | %13v | %15s | %-7s %#v | %s\n%s",
			p.TimeStamp.Format("2006/01/02 - 15:04:05"),
			p.StatusCode,
			p.Latency,
			p.ClientIP,
			p.Method,
			p.Path,
			p.Keys["requestID"],
			p.ErrorMessage,
		)
	})
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}
