package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sonicforge/api/docs"
	"github.com/sonicforge/api/internal/client"
	"github.com/sonicforge/api/internal/config"
	"github.com/sonicforge/api/internal/logging"
	"github.com/sonicforge/api/internal/server"
	"github.com/sonicforge/api/internal/service"
)

// @title          SonicForge API
// @version        1.0
// @description    Backend for SonicForge: LLM lyrics, MusicGen generation via Replicate and placeholder vocal conversion.
// @host           localhost:8000
// @BasePath       /
// @schemes        http https
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "sonicforge-api",
		Short:        "Serve the SonicForge music generation API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return run(cfg)
		},
	}

	cmd.Flags().String("config", "", "path to a YAML config file")
	cmd.Flags().String("port", "", "port to listen on (overrides PORT)")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func run(cfg *config.Config) error {
	logging.Setup(cfg.Server)

	// Configure Swagger host/scheme based on environment
	if cfg.Server.ApiDomain != "" {
		docs.SwaggerInfo.Host = cfg.Server.ApiDomain
		docs.SwaggerInfo.Schemes = []string{"https"}
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port
		docs.SwaggerInfo.Schemes = []string{"http"}
	}

	if !cfg.Replicate.HasCredential() {
		log.Warn().Msg("REPLICATE_API_TOKEN is not set. Music generation will fail.")
	}

	if !cfg.LLM.HasCredential() {
		log.Warn().Msg("GROQ_API_KEY is not set. Lyrics generation will return demo lyrics.")
	}

	// Initialize external clients
	replicateClient := client.NewReplicateClient(&cfg.Replicate)
	groqClient := client.NewGroqClient(&cfg.LLM)

	// Initialize services
	musicService := service.NewMusicService(replicateClient, &cfg.Replicate)
	lyricsService := service.NewLyricsService(groqClient)
	vocalService := service.NewVocalService(service.NewPlaceholderConverter(&cfg.Vocal), &cfg.Vocal)

	app := server.New(cfg, server.Deps{
		Music:     musicService,
		Lyrics:    lyricsService,
		Vocal:     vocalService,
		Replicate: replicateClient,
		LLM:       groqClient,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	addr := "0.0.0.0:" + cfg.Server.Port
	log.Info().Str("addr", addr).Str("env", cfg.Server.Env).Msg("Server starting")
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
