package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sonicforge/api/internal/client"
	"github.com/sonicforge/api/internal/config"
	"github.com/sonicforge/api/internal/model"
)

// lyricsExcerptLimit caps how many characters of the lyrics reach the prompt.
const lyricsExcerptLimit = 200

// Style fragments appended to the prompt per genre bucket
const (
	StyleChildren = "simple, catchy, joyful, playful, children's music, xylophone, bright melody"
	StyleJazz     = "smooth jazz, saxophone, double bass, swing rhythm"
	StyleGeneric  = "high quality, clear audio"
)

var (
	// ErrMissingCredential means no provider token is configured.
	ErrMissingCredential = errors.New("replicate API token missing in backend configuration")

	// ErrUpstreamRejected means the provider API declined the request.
	ErrUpstreamRejected = errors.New("upstream provider rejected the request")
)

// MusicComposer defines the interface for music generation
type MusicComposer interface {
	Generate(ctx context.Context, req *model.MusicGenerateRequest) (*model.MusicGenerateResponse, error)
}

// MusicService turns a lyrics/genre request into a MusicGen prediction
type MusicService struct {
	generator client.MusicGenerator
	cfg       config.ReplicateConfig
}

// NewMusicService creates a new music service backed by the given generator
func NewMusicService(generator client.MusicGenerator, cfg *config.ReplicateConfig) *MusicService {
	return &MusicService{
		generator: generator,
		cfg:       *cfg,
	}
}

// Generate builds the prompt and blocks until the provider returns a track.
// Provider API errors are wrapped with ErrUpstreamRejected; everything else
// is returned as is.
func (s *MusicService) Generate(ctx context.Context, req *model.MusicGenerateRequest) (*model.MusicGenerateResponse, error) {
	if !s.cfg.HasCredential() {
		return nil, ErrMissingCredential
	}

	genre := req.GenreName()
	log.Info().Str("genre", genre).Msg("Starting music generation")

	prompt := BuildPrompt(genre, req.LyricsText())
	log.Info().Str("prompt", prompt).Msg("Using prompt")

	params := &client.GenerationParams{
		Prompt:                prompt,
		Duration:              req.DurationSeconds(),
		ModelVariant:          s.cfg.ModelVariant,
		OutputFormat:          s.cfg.OutputFormat,
		NormalizationStrategy: s.cfg.NormalizationStrategy,
	}

	musicURL, err := s.generator.Generate(ctx, params)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			log.Error().Err(err).Msg("Replicate API error")
			return nil, fmt.Errorf("%w: %w", ErrUpstreamRejected, err)
		}
		log.Error().Err(err).Msg("General error during music generation")
		return nil, err
	}

	log.Info().Str("url", musicURL).Msg("Generation successful")

	return &model.MusicGenerateResponse{
		ID:     uuid.New().String(),
		URL:    musicURL,
		Status: model.GenerationStatusCompleted,
	}, nil
}

// IsConfigured reports whether generation can reach the provider
func (s *MusicService) IsConfigured() bool {
	return s.cfg.HasCredential()
}

// StyleContext picks the style fragment for a genre by case-insensitive
// substring match.
func StyleContext(genre string) string {
	g := strings.ToLower(genre)
	switch {
	case strings.Contains(g, "kid"), strings.Contains(g, "nursery"):
		return StyleChildren
	case strings.Contains(g, "jazz"):
		return StyleJazz
	default:
		return StyleGeneric
	}
}

// BuildPrompt renders the MusicGen text prompt
func BuildPrompt(genre, lyrics string) string {
	return fmt.Sprintf("A %s song. %s. Vibe: %s", genre, StyleContext(genre), truncateRunes(lyrics, lyricsExcerptLimit))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
