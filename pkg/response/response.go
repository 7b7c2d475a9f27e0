package response

import "github.com/gofiber/fiber/v2"

// Error codes
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeUpstreamRejected = "UPSTREAM_REJECTED"
	CodeConfigError      = "CONFIG_ERROR"
	CodeAIServiceError   = "AI_SERVICE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeServiceError     = "SERVICE_ERROR"
)

// ErrorResponse carries the message twice: Detail is what the web client
// reads, Error is the structured form.
type ErrorResponse struct {
	Detail string      `json:"detail"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func Error(c *fiber.Ctx, status int, code, message string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Detail: message,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func ValidationError(c *fiber.Ctx, message string, details interface{}) error {
	return Error(c, fiber.StatusBadRequest, CodeValidationError, message, details)
}

// UpstreamRejected reports a request the AI provider declined
func UpstreamRejected(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, CodeUpstreamRejected, message, nil)
}

func ConfigError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, CodeConfigError, message, nil)
}

// AIError reports a failed call to the lyrics model
func AIError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadGateway, CodeAIServiceError, message, nil)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, message, nil)
}

func ServiceError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, CodeServiceError, message, nil)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}
