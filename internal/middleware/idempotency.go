package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	internalRedis "driverqueue/internal/redis"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
	idempotencyKeyPrefix = "driverqueue:idempotency:"

	// idempotencyLockTTL bounds how long a crashed request can block its key.
	// It must outlast the slowest call-next, including the notify timeout.
	idempotencyLockTTL = time.Minute
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	Headers    http.Header     `json:"headers"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware makes mutating requests carrying an Idempotency-Key
// run at most once per key. Keys are scoped to method and route.
//
// The first request reserves the key before it runs. A duplicate that
// arrives while it is still running gets 409; one that arrives after it
// finished gets the stored response replayed. Server errors (5xx) are not
// stored and free the key so the client can retry.
func IdempotencyMiddleware(redisClient redis.Cmdable) gin.HandlerFunc {
	locks := internalRedis.NewLockStore(redisClient)

	return func(c *gin.Context) {
		// Only apply to mutating methods.
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyKeyPrefix + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		if replayed, err := replayCached(ctx, c, redisClient, cacheKey); err != nil {
			// Redis error - proceed without idempotency.
			log.Printf("[IDEMPOTENCY] cache lookup failed, key=%s: %v", key, err)
			c.Next()
			return
		} else if replayed {
			return
		}

		owner := GetRequestID(ctx)
		if owner == "" {
			owner = uuid.New().String()
		}
		acquired, err := locks.Acquire(ctx, cacheKey, owner, idempotencyLockTTL)
		if err != nil {
			log.Printf("[IDEMPOTENCY] reservation failed, key=%s: %v", key, err)
			c.Next()
			return
		}
		if !acquired {
			// The holder may have finished between the lookup and the reservation.
			if replayed, _ := replayCached(ctx, c, redisClient, cacheKey); replayed {
				return
			}
			log.Printf("[IDEMPOTENCY] duplicate while in flight, key=%s", key)
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "a request with this Idempotency-Key is already in progress",
			})
			return
		}
		// The request context may be cancelled by the time we clean up.
		defer func() {
			if err := locks.Release(context.WithoutCancel(ctx), cacheKey, owner); err != nil {
				log.Printf("[IDEMPOTENCY] release failed, key=%s: %v", key, err)
			}
		}()

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		if status := c.Writer.Status(); status < http.StatusInternalServerError {
			response := cachedResponse{
				StatusCode: status,
				Body:       w.body.Bytes(),
				Headers:    extractResponseHeaders(c),
			}
			if err := setCachedResponse(context.WithoutCancel(ctx), redisClient, cacheKey, &response, idempotencyTTL); err != nil {
				log.Printf("[IDEMPOTENCY] cache store failed, key=%s: %v", key, err)
			}
		}
	}
}

// replayCached writes the stored response for cacheKey, if any.
func replayCached(ctx context.Context, c *gin.Context, client redis.Cmdable, cacheKey string) (bool, error) {
	cached, err := getCachedResponse(ctx, client, cacheKey)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for k, v := range cached.Headers {
		for _, val := range v {
			c.Header(k, val)
		}
	}
	c.Header("Idempotent-Replayed", "true")
	c.Data(cached.StatusCode, "application/json", cached.Body)
	c.Abort()
	return true, nil
}

// getCachedResponse retrieves a cached response from Redis.
func getCachedResponse(ctx context.Context, client redis.Cmdable, key string) (*cachedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

// setCachedResponse stores a response in Redis.
func setCachedResponse(ctx context.Context, client redis.Cmdable, key string, response *cachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}

	return client.Set(ctx, key, data, ttl).Err()
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	// Only cache Content-Type header.
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
