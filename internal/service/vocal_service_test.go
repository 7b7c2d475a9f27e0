package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonicforge/api/internal/config"
	"github.com/sonicforge/api/internal/model"
)

// recordingConverter captures the staged file while it still exists.
type recordingConverter struct {
	err      error
	path     string
	contents []byte
	voice    string
}

func (r *recordingConverter) Convert(_ context.Context, inputPath, targetVoice string) (string, error) {
	r.path = inputPath
	r.voice = targetVoice
	r.contents, _ = os.ReadFile(inputPath)
	if r.err != nil {
		return "", r.err
	}
	return config.DefaultPlaceholderURL, nil
}

func vocalRequest() *model.VocalConvertRequest {
	return &model.VocalConvertRequest{
		Filename:    "take1.wav",
		File:        strings.NewReader("RIFF....WAVEfmt "),
		TargetVoice: "Male Pop",
	}
}

func TestVocalConvert_Success(t *testing.T) {
	dir := t.TempDir()
	conv := &recordingConverter{}
	svc := NewVocalService(conv, &config.VocalConfig{TempDir: dir})

	resp, err := svc.Convert(context.Background(), vocalRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "take1.wav", resp.OriginalName)
	assert.Equal(t, config.DefaultPlaceholderURL, resp.ConvertedURL)
	assert.Equal(t, model.ConversionStatusCompleted, resp.Status)

	assert.Equal(t, filepath.Join(dir, resp.ID+"_take1.wav"), conv.path)
	assert.Equal(t, []byte("RIFF....WAVEfmt "), conv.contents)
	assert.Equal(t, "Male Pop", conv.voice)
	assert.NoFileExists(t, conv.path)
}

func TestVocalConvert_RemovesFileOnFailure(t *testing.T) {
	conv := &recordingConverter{err: errors.New("model crashed")}
	svc := NewVocalService(conv, &config.VocalConfig{TempDir: t.TempDir()})

	_, err := svc.Convert(context.Background(), vocalRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")

	require.NotEmpty(t, conv.path)
	assert.NotEmpty(t, conv.contents)
	assert.NoFileExists(t, conv.path)
}

func TestVocalConvert_CreatesTempDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	svc := NewVocalService(&recordingConverter{}, &config.VocalConfig{TempDir: dir})

	_, err := svc.Convert(context.Background(), vocalRequest())
	require.NoError(t, err)
	assert.DirExists(t, dir)

	// second call reuses the directory
	_, err = svc.Convert(context.Background(), vocalRequest())
	require.NoError(t, err)
}

func TestVocalConvert_TempDirFailure(t *testing.T) {
	// a regular file where the temp dir should be makes MkdirAll fail
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	conv := &recordingConverter{}
	svc := NewVocalService(conv, &config.VocalConfig{TempDir: blocker})

	_, err := svc.Convert(context.Background(), vocalRequest())
	require.Error(t, err)
	assert.Empty(t, conv.path)
}

func TestVocalConvert_RemovesFileOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	conv := &recordingConverter{}
	svc := NewVocalService(conv, &config.VocalConfig{TempDir: dir})

	req := vocalRequest()
	req.File = io.MultiReader(strings.NewReader("RIFF"), iotest.ErrReader(errors.New("connection reset")))

	_, err := svc.Convert(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, conv.path, "converter must not run on a partial upload")

	staged, err := filepath.Glob(filepath.Join(dir, "*_take1.wav"))
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestVocalConvert_UsesBaseName(t *testing.T) {
	dir := t.TempDir()
	conv := &recordingConverter{}
	svc := NewVocalService(conv, &config.VocalConfig{TempDir: dir})

	req := vocalRequest()
	req.Filename = "../../etc/passwd"

	resp, err := svc.Convert(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "../../etc/passwd", resp.OriginalName)
	assert.Equal(t, filepath.Join(dir, resp.ID+"_passwd"), conv.path)
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "a.wav", safeFilename("a.wav"))
	assert.Equal(t, "b.mp3", safeFilename(`C:\Users\me\b.mp3`))
	assert.Equal(t, "upload", safeFilename(""))
	assert.Equal(t, "upload", safeFilename("/"))
}

func TestPlaceholderConverter(t *testing.T) {
	conv := NewPlaceholderConverter(&config.VocalConfig{
		ProcessingDelay: 10 * time.Millisecond,
		PlaceholderURL:  "https://example.com/demo.mp3",
	})

	start := time.Now()
	url, err := conv.Convert(context.Background(), "/tmp/x", "Female Soul")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/demo.mp3", url)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestPlaceholderConverter_Cancelled(t *testing.T) {
	conv := NewPlaceholderConverter(&config.VocalConfig{
		ProcessingDelay: time.Minute,
		PlaceholderURL:  "https://example.com/demo.mp3",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conv.Convert(ctx, "/tmp/x", "Female Soul")
	require.ErrorIs(t, err, context.Canceled)
}

func TestVocalConvert_PlaceholderEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.VocalConfig{TempDir: dir, PlaceholderURL: config.DefaultPlaceholderURL}
	svc := NewVocalService(NewPlaceholderConverter(cfg), cfg)

	resp, err := svc.Convert(context.Background(), vocalRequest())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPlaceholderURL, resp.ConvertedURL)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
