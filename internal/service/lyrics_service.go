package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sonicforge/api/internal/client"
	"github.com/sonicforge/api/internal/model"
)

// LyricsGenerator defines the interface for lyrics generation
type LyricsGenerator interface {
	Generate(ctx context.Context, req *model.LyricsGenerateRequest) (*model.LyricsStructure, error)
}

// LyricsService writes full song lyrics with an LLM
type LyricsService struct {
	llm client.ChatCompleter
}

// NewLyricsService creates a new lyrics service. A nil or unconfigured
// completer makes Generate return demo lyrics.
func NewLyricsService(llm client.ChatCompleter) *LyricsService {
	return &LyricsService{
		llm: llm,
	}
}

// Generate writes a titled song with verse, chorus, bridge and outro sections
func (s *LyricsService) Generate(ctx context.Context, req *model.LyricsGenerateRequest) (*model.LyricsStructure, error) {
	// Use mock response if client is not configured
	if s.llm == nil || !s.llm.IsConfigured() {
		log.Debug().Str("genre", req.Genre).Msg("LLM not configured, returning demo lyrics")
		return s.generateMock(req), nil
	}

	log.Info().Str("genre", req.Genre).Msg("Generating lyrics")

	response, err := s.llm.ChatCompletion(ctx, buildLyricsSystemPrompt(), buildLyricsPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("AI generation failed: %w", err)
	}

	lyrics, err := parseLyricsResponse(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	lyrics.Source = model.LyricsSourceAI

	return lyrics, nil
}

func buildLyricsSystemPrompt() string {
	return `You are a professional songwriter with expertise in various music genres.
Your task is to write compelling, rhythmic lyrics that are easy to sing and suitable for audio generation.
Always output your response as valid JSON in the exact format requested.
Do not include any text outside the JSON structure.`
}

func buildLyricsPrompt(req *model.LyricsGenerateRequest) string {
	return fmt.Sprintf(`Write a song based on the following use case: %q.
The genre should be: %q.
Provide a catchy title and a brief description of the musical style and mood.
Structure the song with Verse 1, Chorus, Verse 2, Bridge and Outro.
Keep it rhythmic and suitable for audio generation.

Output as JSON: {"title": "...", "style": "...", "verse1": "...", "chorus": "...", "verse2": "...", "bridge": "...", "outro": "..."}
Separate lines inside a section with \n.`,
		req.UseCase, req.Genre)
}

func parseLyricsResponse(response string) (*model.LyricsStructure, error) {
	response = extractJSON(response)

	var lyrics model.LyricsStructure
	if err := json.Unmarshal([]byte(response), &lyrics); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}

	if missing := lyrics.MissingSection(); missing != "" {
		return nil, fmt.Errorf("no %s in response", missing)
	}

	return &lyrics, nil
}

// extractJSON attempts to extract JSON from a response that may contain extra text
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

func (s *LyricsService) generateMock(req *model.LyricsGenerateRequest) *model.LyricsStructure {
	return &model.LyricsStructure{
		Title:  "City Lights",
		Style:  fmt.Sprintf("Upbeat %s with a warm, hopeful mood", req.Genre),
		Verse1: "Walking through the city lights\nFeeling like we own the night\nEvery window burning bright\nEverything is gonna be alright",
		Chorus: "Sing it loud, sing it clear\nAll the ones we love are here\nHold the moment, hold it near\nSing it loud, sing it clear",
		Verse2: "Stars are shining up above\nThis is what we're dreaming of\nEvery step and every turn\nEvery lesson that we learn",
		Bridge: "When the music fades away\nWe'll remember this today",
		Outro:  "Walking through the city lights\nDancing till the morning light",
		Source: model.LyricsSourceDemo,
		IsDemo: true,
	}
}
