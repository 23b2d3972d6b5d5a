package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/erp/muhasebe/internal/infrastructure/logger"
	"github.com/erp/muhasebe/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxIdempotencyKeyLength caps the Idempotency-Key header
const MaxIdempotencyKeyLength = 128

// IdempotencyConfig configures the Idempotency-Key middleware
type IdempotencyConfig struct {
	Store shared.IdempotencyStore
	TTL   time.Duration
	// Required rejects requests that carry no key. When false, such
	// requests pass through unguarded.
	Required bool
	Logger   *zap.Logger
}

// Idempotency guards a write endpoint with the Idempotency-Key header. The
// first request with a key is executed; a replay while it runs gets
// REQUEST_IN_PROGRESS and a replay after it succeeded gets
// DUPLICATE_REQUEST. A failed request (status >= 400) releases the key so
// the client can retry. Keys are scoped by method and route.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.Store == nil {
		return passThrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var inFlight sync.Map

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			if cfg.Required {
				abortWith(c, dto.ErrCodeBadRequest, "Idempotency-Key header is required")
				return
			}
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abortWith(c, dto.ErrCodeBadRequest, "Idempotency-Key header is too long")
			return
		}

		scoped := "http:" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		ctx := c.Request.Context()

		if _, busy := inFlight.LoadOrStore(scoped, struct{}{}); busy {
			abortWith(c, dto.ErrCodeRequestInProgress, "A request with this Idempotency-Key is still being processed")
			return
		}
		defer inFlight.Delete(scoped)

		fresh, err := cfg.Store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			log.Error("Idempotency store unavailable", zap.String("key", key), zap.Error(err))
			abortWith(c, dto.ErrCodeInternal, "Idempotency check failed")
			return
		}
		if !fresh {
			abortWith(c, dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already processed")
			return
		}

		c.Request = c.Request.WithContext(logger.WithIdempotencyKey(ctx, key))
		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := cfg.Store.Release(ctx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

func abortWith(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}
