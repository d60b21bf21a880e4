// Package middleware provides the HTTP middleware chain for the school schedule API:
// request ids, structured access logs, security headers, write throttling and the
// response cache.
package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/unnme/school-schedule/internal/logging"
	"github.com/unnme/school-schedule/internal/ratelimit"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// SecurityMiddleware provides centralized request handling concerns.
type SecurityMiddleware struct {
	log          zerolog.Logger
	writeLimiter *ratelimit.RateLimiter
}

// NewSecurityMiddleware creates a new security middleware instance.
// writeLimiter may be nil to disable write throttling.
func NewSecurityMiddleware(log zerolog.Logger, writeLimiter *ratelimit.RateLimiter) *SecurityMiddleware {
	return &SecurityMiddleware{
		log:          logging.Component(log, "http"),
		writeLimiter: writeLimiter,
	}
}

// RequestID assigns each request an id, reusing a client-supplied one.
func (sm *SecurityMiddleware) RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals("request_id", id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

// RequestLogger logs every request after it completes. Errors are handed to
// the app's error handler first so the logged status is the one sent.
func (sm *SecurityMiddleware) RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		requestID, _ := c.Locals("request_id").(string)
		logging.HTTPRequest(
			sm.log,
			requestID,
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			time.Since(start),
			c.IP(),
			c.Get(fiber.HeaderUserAgent),
		)

		return nil
	}
}

// WriteRateLimit throttles POST, PUT, PATCH and DELETE per client IP.
func (sm *SecurityMiddleware) WriteRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sm.writeLimiter == nil || !isWrite(c.Method()) {
			return c.Next()
		}

		if !sm.writeLimiter.Allow(c.IP()) {
			retry := int(sm.writeLimiter.RetryAfter(c.IP()).Seconds()) + 1
			sm.log.Warn().
				Str("ip", c.IP()).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("Write rate limit exceeded")

			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
			return c.Status(fiber.StatusTooManyRequests).
				JSON(fiber.Map{"detail": "rate limit exceeded, please try again later"})
		}

		return c.Next()
	}
}

// SecureHeaders adds security headers suited to a JSON API.
func (sm *SecurityMiddleware) SecureHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Set("Referrer-Policy", "no-referrer")
		return c.Next()
	}
}

func isWrite(method string) bool {
	switch method {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		return true
	}
	return false
}
