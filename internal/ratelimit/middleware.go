package ratelimit

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portfolio-server/internal/models"
)

// KeyFunc extracts the client key a request is counted against.
type KeyFunc func(c *gin.Context) string

// ClientIPKey keys requests by client IP. Gin resolves the first entry of
// X-Forwarded-For when the request came through a trusted proxy, otherwise
// the direct connection address.
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// Middleware returns a gin middleware enforcing limit requests per window
// per client key. Rejected requests get a 429 with a Retry-After header in
// seconds. A store failure fails open: blocking all traffic because the
// limiter backend is down would hurt more than one unthrottled window.
func Middleware(limiter *Limiter, keyFunc KeyFunc, logger *zap.Logger) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = ClientIPKey
	}
	log := logger.Named("RateLimit")
	return func(c *gin.Context) {
		key := keyFunc(c)
		res, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Error("Rate limit store failure, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			retrySeconds := int(math.Ceil(res.RetryAfter.Seconds()))
			if retrySeconds < 1 {
				retrySeconds = 1
			}
			log.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", c.Request.URL.Path),
				zap.Time("resetAt", res.ResetAt),
			)
			c.Header("Retry-After", fmt.Sprintf("%d", retrySeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: fmt.Sprintf("Too many requests. Try again in %ds.", retrySeconds),
			})
			return
		}
		c.Next()
	}
}

// Policies used across the API. Public AI endpoints get a higher ceiling;
// admin mutations are strict; login uses a long window to slow credential
// guessing.
const (
	PublicLimit  = 20
	PublicWindow = time.Minute

	AdminLimit  = 5
	AdminWindow = time.Minute

	LoginLimit  = 5
	LoginWindow = 15 * time.Minute
)
