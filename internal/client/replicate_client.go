package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sonicforge/api/internal/config"
)

// Prediction states reported by Replicate
const (
	PredictionStarting   = "starting"
	PredictionProcessing = "processing"
	PredictionSucceeded  = "succeeded"
	PredictionFailed     = "failed"
	PredictionCanceled   = "canceled"
)

// MusicGenerator defines the interface for music generation operations
type MusicGenerator interface {
	Generate(ctx context.Context, params *GenerationParams) (string, error)
	IsConfigured() bool
}

// ReplicateClient implements MusicGenerator for the Replicate predictions API
type ReplicateClient struct {
	httpClient   *http.Client
	baseURL      string
	apiToken     string
	model        string
	pollInterval time.Duration
	maxWait      time.Duration
}

// GenerationParams holds the MusicGen inputs for a single prediction
type GenerationParams struct {
	Prompt                string
	Duration              int
	ModelVariant          string
	OutputFormat          string
	NormalizationStrategy string
}

// Input renders the params as the model's input object
func (p *GenerationParams) Input() map[string]interface{} {
	return map[string]interface{}{
		"prompt":                 p.Prompt,
		"duration":               p.Duration,
		"model_version":          p.ModelVariant,
		"output_format":          p.OutputFormat,
		"normalization_strategy": p.NormalizationStrategy,
	}
}

// CreatePredictionRequest represents the request body for a new prediction
type CreatePredictionRequest struct {
	Version string                 `json:"version,omitempty"`
	Input   map[string]interface{} `json:"input"`
}

// Prediction represents a Replicate prediction
type Prediction struct {
	ID      string          `json:"id"`
	Model   string          `json:"model,omitempty"`
	Version string          `json:"version,omitempty"`
	Status  string          `json:"status"`
	Output  json.RawMessage `json:"output,omitempty"`
	Error   interface{}     `json:"error,omitempty"`
	Logs    string          `json:"logs,omitempty"`
	URLs    struct {
		Get    string `json:"get,omitempty"`
		Cancel string `json:"cancel,omitempty"`
	} `json:"urls"`
}

// IsTerminal reports whether the prediction will not change state again
func (p *Prediction) IsTerminal() bool {
	switch p.Status {
	case PredictionSucceeded, PredictionFailed, PredictionCanceled:
		return true
	}
	return false
}

// ErrorMessage returns the model error text, if any
func (p *Prediction) ErrorMessage() string {
	switch e := p.Error.(type) {
	case nil:
		return ""
	case string:
		return e
	default:
		b, _ := json.Marshal(e)
		return string(b)
	}
}

// APIError is returned when the Replicate API answers with a non-2xx status.
// It marks requests the provider declined, as opposed to transport failures.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("replicate API error (status %d): %s", e.StatusCode, msg)
}

// defaultRequestTimeout bounds a single HTTP exchange when none is configured.
const defaultRequestTimeout = 120 * time.Second

// NewReplicateClient creates a new Replicate API client.
// cfg.RequestTimeout bounds each HTTP exchange (including the Prefer: wait
// create call); cfg.Timeout is the separate deadline for the whole poll loop.
func NewReplicateClient(cfg *config.ReplicateConfig) *ReplicateClient {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &ReplicateClient{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:     cfg.APIToken,
		model:        cfg.Model,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.Timeout,
	}
}

// Generate runs a MusicGen prediction and blocks until it finishes,
// returning the generated media URL.
func (c *ReplicateClient) Generate(ctx context.Context, params *GenerationParams) (string, error) {
	prediction, err := c.CreatePrediction(ctx, params.Input())
	if err != nil {
		return "", err
	}

	if !prediction.IsTerminal() {
		if prediction.ID == "" {
			return "", fmt.Errorf("prediction response has no id (status %q)", prediction.Status)
		}
		prediction, err = c.PollPrediction(ctx, prediction.ID, c.pollInterval, c.maxWait)
		if err != nil {
			return "", err
		}
	}

	switch prediction.Status {
	case PredictionSucceeded:
		return OutputURL(prediction.Output)
	case PredictionCanceled:
		return "", fmt.Errorf("prediction %s was canceled", prediction.ID)
	default:
		return "", fmt.Errorf("prediction %s failed: %s", prediction.ID, prediction.ErrorMessage())
	}
}

// CreatePrediction starts a prediction for the configured model. The
// Prefer: wait header lets Replicate answer synchronously for short runs.
func (c *ReplicateClient) CreatePrediction(ctx context.Context, input map[string]interface{}) (*Prediction, error) {
	owner, version := splitModel(c.model)

	endpoint := "/v1/predictions"
	body := CreatePredictionRequest{Version: version, Input: input}
	if version == "" {
		endpoint = fmt.Sprintf("/v1/models/%s/predictions", owner)
	}

	var result Prediction
	if err := c.post(ctx, endpoint, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrediction retrieves the current state of a prediction
func (c *ReplicateClient) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	endpoint := fmt.Sprintf("/v1/predictions/%s", id)
	var result Prediction
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PollPrediction polls until the prediction reaches a terminal state
func (c *ReplicateClient) PollPrediction(ctx context.Context, id string, interval time.Duration, maxWait time.Duration) (*Prediction, error) {
	deadline := time.Now().Add(maxWait)
	attempt := 0

	for time.Now().Before(deadline) {
		attempt++
		result, err := c.GetPrediction(ctx, id)
		if err != nil {
			log.Error().Err(err).Int("attempt", attempt).Str("prediction", id).Msg("[Replicate API] poll failed")
			return nil, err
		}

		log.Debug().Int("attempt", attempt).Str("prediction", id).Str("status", result.Status).Msg("[Replicate API] poll")

		if result.IsTerminal() {
			return result, nil
		}

		select {
		case <-ctx.Done():
			log.Warn().Str("prediction", id).Msg("[Replicate API] poll cancelled")
			return nil, ctx.Err()
		case <-time.After(interval):
			continue
		}
	}

	return nil, fmt.Errorf("prediction %s timed out after %v", id, maxWait)
}

// IsConfigured returns true if the client has valid configuration
func (c *ReplicateClient) IsConfigured() bool {
	return c.apiToken != ""
}

// post sends a POST request with JSON body
func (c *ReplicateClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Prefer", "wait")

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *ReplicateClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *ReplicateClient) doRequest(req *http.Request, result interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("[Replicate API] →")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("[Replicate API] request failed")
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().Int("status", resp.StatusCode).Str("method", req.Method).Str("url", req.URL.String()).
		Msg("[Replicate API] ←")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		log.Error().Err(err).Str("body", string(respBody)).Msg("[Replicate API] unmarshal error")
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// parseAPIError decodes Replicate's problem+json body, falling back to the raw text.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &problem); err == nil {
		apiErr.Title = problem.Title
		apiErr.Detail = problem.Detail
	}
	if apiErr.Title == "" && apiErr.Detail == "" {
		apiErr.Detail = strings.TrimSpace(string(body))
	}

	return apiErr
}

// splitModel splits "owner/name:version" into its model path and version id.
func splitModel(model string) (string, string) {
	if i := strings.LastIndex(model, ":"); i != -1 {
		return model[:i], model[i+1:]
	}
	return model, ""
}

// OutputURL coerces a prediction output into a single media reference.
// MusicGen returns a URI string; list outputs yield their first string.
func OutputURL(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", fmt.Errorf("prediction returned no output")
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("prediction returned an empty output")
		}
		return s, nil
	}

	var list []interface{}
	if err := json.Unmarshal(trimmed, &list); err == nil {
		for _, item := range list {
			if str, ok := item.(string); ok && str != "" {
				return str, nil
			}
		}
		return "", fmt.Errorf("prediction output has no media reference")
	}

	return string(trimmed), nil
}
