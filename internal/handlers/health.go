package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/unnme/school-schedule/internal/database"
)

const healthTimeout = 2 * time.Second

// HealthHandler answers liveness probes.
type HealthHandler struct {
	db database.Pinger
}

func NewHealthHandler(db database.Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /utils/health-check/. It replies true while the database answers.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "database unavailable")
	}
	return c.JSON(true)
}
