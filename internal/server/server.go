package server

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/sonicforge/api/internal/config"
	"github.com/sonicforge/api/internal/handler"
	"github.com/sonicforge/api/internal/service"
	"github.com/sonicforge/api/pkg/response"
)

// Deps are the services the HTTP layer routes to
type Deps struct {
	Music     service.MusicComposer
	Lyrics    service.LyricsGenerator
	Vocal     service.VocalProcessor
	Replicate handler.Configurable
	LLM       handler.Configurable
}

// New builds the Fiber app with middleware and routes
func New(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      appName(cfg),
		ErrorHandler: customErrorHandler,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
		log.Debug().Msg("Debug request logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	validate := validator.New()

	healthHandler := handler.NewHealthHandler(deps.Replicate, deps.LLM)
	musicHandler := handler.NewMusicHandler(deps.Music, validate)
	lyricsHandler := handler.NewLyricsHandler(deps.Lyrics, validate)
	vocalHandler := handler.NewVocalHandler(deps.Vocal)

	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Services)

	// Swagger UI
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	app.Post("/generate-lyrics", lyricsHandler.Generate)
	app.Post("/generate-music", musicHandler.Generate)
	app.Post("/convert-vocals", vocalHandler.Convert)

	app.Use(func(c *fiber.Ctx) error {
		return response.NotFound(c, "Not Found")
	})

	return app
}

func appName(cfg *config.Config) string {
	if cfg.Server.Env == "" {
		return "SonicForge API"
	}
	return "SonicForge API (" + cfg.Server.Env + ")"
}

// corsConfig allows the configured origins. A wildcard entry opens the API to
// every origin, which rules out credentialed requests.
func corsConfig(origins []string) cors.Config {
	allow := strings.Join(origins, ",")
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
			break
		}
	}
	if wildcard {
		allow = "*"
	}

	return cors.Config{
		AllowOrigins:     allow,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: !wildcard,
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else if err != nil {
		message = err.Error()
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled request error")
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
