package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
)

const (
	userIDHeader = "X-User-ID"
	userIDKey    = "user_id"
)

// UserMiddleware reads the optional X-User-ID header. Requests without it
// pass through anonymously; a malformed value is rejected.
func UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(userIDHeader)
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + userIDHeader})
			return
		}
		c.Set(userIDKey, uint(id))
		c.Next()
	}
}

func currentUser(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// RequestLogger logs each request through hclog instead of gin's writer.
func RequestLogger(log hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
