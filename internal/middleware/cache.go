package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/unnme/school-schedule/internal/cache"
)

// CacheHeader reports HIT or MISS on cacheable responses.
const CacheHeader = "X-Cache"

// ResponseCache serves repeated GETs under prefix from Redis and starts a new
// cache generation after every successful write. Redis failures are logged and
// the request is served from the database.
func ResponseCache(store *cache.Cache, prefix string, log zerolog.Logger) fiber.Handler {
	log = log.With().Str("component", "cache").Logger()

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), prefix) {
			return c.Next()
		}

		ctx := c.UserContext()

		if isWrite(c.Method()) {
			if err := c.Next(); err != nil {
				return err
			}
			if c.Response().StatusCode() < fiber.StatusBadRequest {
				if err := store.Invalidate(ctx); err != nil {
					log.Warn().Err(err).Msg("Failed to invalidate response cache")
				}
			}
			return nil
		}

		if c.Method() != fiber.MethodGet {
			return c.Next()
		}

		key := c.OriginalURL()
		if body, ok, err := store.Get(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Response cache read failed")
		} else if ok {
			c.Set(CacheHeader, "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		c.Set(CacheHeader, "MISS")
		if c.Response().StatusCode() == fiber.StatusOK {
			body := append([]byte(nil), c.Response().Body()...)
			if err := store.Set(ctx, key, body); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Response cache write failed")
			}
		}
		return nil
	}
}
