package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stagepay/pos-core/internal/observability"
)

// MetricsHandler exposes the in-memory counters.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot handles GET /metrics.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
