package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/sonicforge/api/internal/model"
	"github.com/sonicforge/api/internal/service"
	"github.com/sonicforge/api/pkg/response"
)

type LyricsHandler struct {
	service   service.LyricsGenerator
	validator *validator.Validate
}

func NewLyricsHandler(svc service.LyricsGenerator, v *validator.Validate) *LyricsHandler {
	return &LyricsHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /generate-lyrics
// @Summary      Generate lyrics
// @Description  Write a full song (title, style, verses, chorus, bridge, outro) for a use case and genre. Returns demo lyrics when no LLM key is configured.
// @Tags         Lyrics
// @Accept       json
// @Produce      json
// @Param        request body model.LyricsGenerateRequest true "Generate request"
// @Success      200 {object} model.LyricsStructure
// @Failure      400 {object} response.ErrorResponse
// @Failure      502 {object} response.ErrorResponse
// @Router       /generate-lyrics [post]
func (h *LyricsHandler) Generate(c *fiber.Ctx) error {
	var req model.LyricsGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Generate(c.Context(), &req)
	if err != nil {
		return response.AIError(c, err.Error())
	}

	return response.OK(c, result)
}
