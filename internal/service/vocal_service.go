package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sonicforge/api/internal/config"
	"github.com/sonicforge/api/internal/model"
)

// VoiceConverter turns a stored vocal take into a converted track URL
type VoiceConverter interface {
	Convert(ctx context.Context, inputPath, targetVoice string) (string, error)
}

// PlaceholderConverter stands in for retrieval-based voice conversion. It
// waits a fixed delay and returns a fixed demo track; no audio is processed.
type PlaceholderConverter struct {
	delay time.Duration
	url   string
}

// NewPlaceholderConverter creates the demo converter from config
func NewPlaceholderConverter(cfg *config.VocalConfig) *PlaceholderConverter {
	return &PlaceholderConverter{
		delay: cfg.ProcessingDelay,
		url:   cfg.PlaceholderURL,
	}
}

// Convert simulates processing latency and returns the placeholder URL
func (p *PlaceholderConverter) Convert(ctx context.Context, _ string, _ string) (string, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return p.url, nil
}

// VocalProcessor defines the interface for vocal conversion
type VocalProcessor interface {
	Convert(ctx context.Context, req *model.VocalConvertRequest) (*model.VocalConvertResponse, error)
}

// VocalService stages uploaded takes in a temp directory for the converter
type VocalService struct {
	converter VoiceConverter
	tempDir   string
}

// NewVocalService creates a new vocal service
func NewVocalService(converter VoiceConverter, cfg *config.VocalConfig) *VocalService {
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &VocalService{
		converter: converter,
		tempDir:   tempDir,
	}
}

// Convert writes the take to {tempDir}/{id}_{filename}, runs the converter
// and removes the file again on every exit path.
func (s *VocalService) Convert(ctx context.Context, req *model.VocalConvertRequest) (*model.VocalConvertResponse, error) {
	fileID := uuid.New().String()

	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare temp dir: %w", err)
	}

	fileLocation := s.TempPath(fileID, req.Filename)
	defer removeTemp(fileLocation)

	if err := writeTemp(fileLocation, req.File); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	log.Info().Str("file", req.Filename).Str("target_voice", req.TargetVoice).Msg("Processing vocal conversion")

	convertedURL, err := s.converter.Convert(ctx, fileLocation, req.TargetVoice)
	if err != nil {
		return nil, fmt.Errorf("vocal conversion failed: %w", err)
	}

	return &model.VocalConvertResponse{
		ID:           fileID,
		OriginalName: req.Filename,
		ConvertedURL: convertedURL,
		Status:       model.ConversionStatusCompleted,
	}, nil
}

// TempPath returns where a take with the given id is staged. Only the base
// name of the client filename is used.
func (s *VocalService) TempPath(fileID, filename string) string {
	return filepath.Join(s.tempDir, fmt.Sprintf("%s_%s", fileID, safeFilename(filename)))
}

func safeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "upload"
	}
	return base
}

func writeTemp(path string, src io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove temp upload")
	}
}
