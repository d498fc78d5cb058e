package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/stwalsh4118/bluesky/api/internal/logger"
)

const rateLimitPrefix = "bluesky_ratelimit"

// NewRateLimitStore returns a redis-backed limiter store when redisURL is
// set and an in-process store otherwise.
func NewRateLimitStore(redisURL string) (limiter.Store, error) {
	if redisURL == "" {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit redis url: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(redis.NewClient(opts), limiter.StoreOptions{
		Prefix:   rateLimitPrefix,
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
	}
	return store, nil
}

// RateLimit limits requests per client IP. onLimit writes the 429 response;
// when nil a plain error envelope is written. A store failure is logged and
// the request is let through.
func RateLimit(store limiter.Store, rate limiter.Rate, log *logger.Logger, onLimit gin.HandlerFunc) gin.HandlerFunc {
	if onLimit == nil {
		onLimit = func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "Rate limit exceeded",
				"error": gin.H{
					"code":       "TOO_MANY_REQUESTS",
					"message":    "Rate limit exceeded",
					"request_id": GetRequestID(c),
				},
			})
		}
	}

	return mgin.NewMiddleware(
		limiter.New(store, rate),
		mgin.WithLimitReachedHandler(mgin.LimitReachedHandler(onLimit)),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log
			}
			requestLogger.Error("Rate limiter unavailable", err, map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			// Fail open: the remaining chain runs here, before the limiter driver aborts.
			c.Next()
		}),
	)
}
