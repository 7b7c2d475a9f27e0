package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sonicforge/api/internal/model"
	"github.com/sonicforge/api/internal/service"
	"github.com/sonicforge/api/pkg/response"
)

type VocalHandler struct {
	service service.VocalProcessor
}

func NewVocalHandler(svc service.VocalProcessor) *VocalHandler {
	return &VocalHandler{
		service: svc,
	}
}

// Convert handles POST /convert-vocals
// @Summary      Convert vocals
// @Description  Placeholder voice conversion: stages the upload, waits, and returns a demo track
// @Tags         Vocals
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData file   true "Vocal recording"
// @Param        target_voice formData string true "Target voice"
// @Success      200 {object} model.VocalConvertResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /convert-vocals [post]
func (h *VocalHandler) Convert(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.ValidationError(c, "Invalid multipart form", nil)
	}

	voices, ok := form.Value["target_voice"]
	if !ok || len(voices) == 0 {
		return response.ValidationError(c, "target_voice is required", nil)
	}

	files := form.File["file"]
	if len(files) == 0 {
		return response.ValidationError(c, "File is required", nil)
	}
	file := files[0]

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	defer f.Close()

	result, err := h.service.Convert(c.Context(), &model.VocalConvertRequest{
		Filename:    file.Filename,
		File:        f,
		TargetVoice: voices[0],
	})
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}
