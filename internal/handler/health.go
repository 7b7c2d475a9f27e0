package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sonicforge/api/internal/model"
	"github.com/sonicforge/api/pkg/response"
)

// Configurable is implemented by integrations that can report readiness
type Configurable interface {
	IsConfigured() bool
}

type HealthHandler struct {
	replicate Configurable
	llm       Configurable
}

func NewHealthHandler(replicate, llm Configurable) *HealthHandler {
	return &HealthHandler{replicate: replicate, llm: llm}
}

// Root handles GET /
// @Summary      Health probe
// @Tags         Health
// @Produce      json
// @Success      200 {object} model.HealthResponse
// @Router       / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return response.OK(c, model.HealthResponse{
		Status:  model.HealthStatusActive,
		Service: model.ServiceName,
	})
}

// Services handles GET /health
// @Summary      Integration status
// @Tags         Health
// @Produce      json
// @Success      200 {object} model.ServiceStatusResponse
// @Router       /health [get]
func (h *HealthHandler) Services(c *fiber.Ctx) error {
	return response.OK(c, model.ServiceStatusResponse{
		Status: "ok",
		Services: map[string]bool{
			"replicate": configured(h.replicate),
			"llm":       configured(h.llm),
		},
	})
}

func configured(c Configurable) bool {
	return c != nil && c.IsConfigured()
}
