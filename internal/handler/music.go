package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/sonicforge/api/internal/client"
	"github.com/sonicforge/api/internal/model"
	"github.com/sonicforge/api/internal/service"
	"github.com/sonicforge/api/pkg/response"
)

const missingTokenMessage = "Server Error: API Token missing in backend configuration."

type MusicHandler struct {
	service   service.MusicComposer
	validator *validator.Validate
}

func NewMusicHandler(svc service.MusicComposer, v *validator.Validate) *MusicHandler {
	return &MusicHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /generate-music
// @Summary      Generate music
// @Description  Build a MusicGen prompt from lyrics and genre and render it on Replicate
// @Tags         Music
// @Accept       json
// @Produce      json
// @Param        request body model.MusicGenerateRequest true "Generate request"
// @Success      200 {object} model.MusicGenerateResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /generate-music [post]
func (h *MusicHandler) Generate(c *fiber.Ctx) error {
	var req model.MusicGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Generate(c.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredential):
			return response.ConfigError(c, missingTokenMessage)
		case errors.Is(err, service.ErrUpstreamRejected):
			return response.UpstreamRejected(c, "AI Provider Error: "+providerMessage(err))
		default:
			return response.ServiceError(c, err.Error())
		}
	}

	return response.OK(c, result)
}

// providerMessage extracts the provider's own error text
func providerMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
