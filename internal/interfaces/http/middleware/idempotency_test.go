package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erp/muhasebe/internal/infrastructure/cache"
	"github.com/erp/muhasebe/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}
func (failingStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (failingStore) Release(context.Context, string) error            { return nil }
func (failingStore) Close() error                                     { return nil }

func newIdempotentRouter(t *testing.T, cfg IdempotencyConfig, handler gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.POST("/api/v1/invoices", Idempotency(cfg), handler)
	return router
}

func postWithKey(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("replay after success is rejected", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		t.Cleanup(func() { _ = store.Close() })

		calls := 0
		router := newIdempotentRouter(t, IdempotencyConfig{Store: store, TTL: time.Hour}, func(c *gin.Context) {
			calls++
			assert.Equal(t, c.GetHeader(HeaderIdempotencyKey), logger.GetIdempotencyKey(c.Request.Context()))
			c.Status(http.StatusCreated)
		})

		assert.Equal(t, http.StatusCreated, postWithKey(router, "inv-key-1").Code)

		w := postWithKey(router, "inv-key-1")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "DUPLICATE_REQUEST")
		assert.Equal(t, 1, calls)

		assert.Equal(t, http.StatusCreated, postWithKey(router, "inv-key-2").Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("key is scoped to method and path", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		t.Cleanup(func() { _ = store.Close() })

		gin.SetMode(gin.TestMode)
		router := gin.New()
		mw := Idempotency(IdempotencyConfig{Store: store})
		created := func(c *gin.Context) { c.Status(http.StatusCreated) }
		router.POST("/api/v1/invoices", mw, created)
		router.POST("/api/v1/stock-moves/:id/execute", mw, created)

		assert.Equal(t, http.StatusCreated, postWithKey(router, "shared-key").Code)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/stock-moves/42/execute", nil)
		req.Header.Set(HeaderIdempotencyKey, "shared-key")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)

		assert.Equal(t, http.StatusConflict, postWithKey(router, "shared-key").Code)
	})

	t.Run("failed request releases the key", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		t.Cleanup(func() { _ = store.Close() })

		calls := 0
		router := newIdempotentRouter(t, IdempotencyConfig{Store: store}, func(c *gin.Context) {
			calls++
			if calls == 1 {
				c.Status(http.StatusBadRequest)
				return
			}
			c.Status(http.StatusCreated)
		})

		assert.Equal(t, http.StatusBadRequest, postWithKey(router, "retry-me").Code)
		assert.Equal(t, http.StatusCreated, postWithKey(router, "retry-me").Code)
		assert.Equal(t, 2, calls)
	})

	t.Run("missing key passes through unless required", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		t.Cleanup(func() { _ = store.Close() })
		ok := func(c *gin.Context) { c.Status(http.StatusCreated) }

		optional := newIdempotentRouter(t, IdempotencyConfig{Store: store}, ok)
		assert.Equal(t, http.StatusCreated, postWithKey(optional, "").Code)
		assert.Equal(t, http.StatusCreated, postWithKey(optional, "").Code)

		required := newIdempotentRouter(t, IdempotencyConfig{Store: store, Required: true}, ok)
		w := postWithKey(required, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "BAD_REQUEST")
	})

	t.Run("overlong key is rejected", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		t.Cleanup(func() { _ = store.Close() })

		router := newIdempotentRouter(t, IdempotencyConfig{Store: store}, func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})
		assert.Equal(t, http.StatusBadRequest, postWithKey(router, strings.Repeat("k", MaxIdempotencyKeyLength+1)).Code)
	})

	t.Run("store failure is an internal error", func(t *testing.T) {
		router := newIdempotentRouter(t, IdempotencyConfig{Store: failingStore{}}, func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		w := postWithKey(router, "k")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	})

	t.Run("concurrent replay is in progress", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		t.Cleanup(func() { _ = store.Close() })

		entered := make(chan struct{})
		release := make(chan struct{})
		router := newIdempotentRouter(t, IdempotencyConfig{Store: store}, func(c *gin.Context) {
			close(entered)
			<-release
			c.Status(http.StatusCreated)
		})

		var wg sync.WaitGroup
		wg.Add(1)
		var first *httptest.ResponseRecorder
		go func() {
			defer wg.Done()
			first = postWithKey(router, "slow")
		}()

		<-entered
		w := postWithKey(router, "slow")
		close(release)
		wg.Wait()

		require.NotNil(t, first)
		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_IN_PROGRESS")
	})
}
