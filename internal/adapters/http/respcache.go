package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Andreo9078/orgdirectory/internal/core/ports"
	"github.com/Andreo9078/orgdirectory/internal/pkg/metrics"
)

// cacheKeyPrefix namespaces cached responses so write handlers can
// invalidate them wholesale after a mutation.
const cacheKeyPrefix = "resp:"

// ResponseCacheMiddleware serves successful GET responses from the
// cache, keyed by path and query string. Cache failures are treated as
// misses; the request proceeds normally.
func ResponseCacheMiddleware(cache ports.CacheService, ttlSeconds int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cache == nil || c.Method() != fiber.MethodGet {
			return c.Next()
		}

		key := cacheKeyPrefix + c.Path() + "?" + string(c.Request().URI().QueryString())
		if body, err := cache.Get(c.Context(), key); err == nil && body != nil {
			metrics.CacheHits.Inc()
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			c.Set("X-Cache", "HIT")
			return c.Send(body)
		}
		metrics.CacheMisses.Inc()
		c.Set("X-Cache", "MISS")

		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() == fiber.StatusOK {
			body := make([]byte, len(c.Response().Body()))
			copy(body, c.Response().Body())
			_ = cache.Set(c.Context(), key, body, ttlSeconds)
		}
		return nil
	}
}

// invalidateResponses drops every cached response. Mutations are rare
// compared to reads, so a full flush keeps the invalidation simple.
func invalidateResponses(c *fiber.Ctx, cache ports.CacheService) {
	if cache == nil {
		return
	}
	_ = cache.DeleteByPrefix(c.Context(), cacheKeyPrefix)
}
