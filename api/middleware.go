package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"jolaman/pkg/logger"
	"jolaman/pkg/security"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"

	rateLimitKeyPrefix = "ratelimit:"
	rateLimitWindow    = time.Second
)

// Auth parses the bearer token and requires one of the given roles
// (any role when none are given).
func Auth(jwt *security.JWTManager, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortWithError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, role, err := jwt.ParseAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, r := range roles {
				if r == role {
					allowed = true
					break
				}
			}
			if !allowed {
				abortWithError(c, http.StatusForbidden, "insufficient role")
				return
			}
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// RateLimit caps requests per second per client IP via Redis; a nil
// client disables the limiter.
func RateLimit(rdb *redis.Client, limitPerSec int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limitPerSec <= 0 {
			c.Next()
			return
		}

		key := rateLimitKeyPrefix + c.ClientIP()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Limiter outage must not take the API down.
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, rateLimitWindow)
		}

		if count > int64(limitPerSec) {
			c.Header("Retry-After", "1")
			abortWithError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limitPerSec))
		c.Next()
	}
}

func RequestLogger(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("took", time.Since(start)),
		)
	}
}
