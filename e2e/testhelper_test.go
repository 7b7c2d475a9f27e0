package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sonicforge/api/internal/client"
	"github.com/sonicforge/api/internal/config"
	"github.com/sonicforge/api/internal/server"
	"github.com/sonicforge/api/internal/service"
)

const (
	testToken    = "r8_test-token"
	testLLMKey   = "gsk_test-key"
	testAudioURL = "https://replicate.delivery/pbxt/test/out.mp3"
)

// fakeReplicate stands in for the Replicate predictions API and records
// every prediction it was asked to create.
type fakeReplicate struct {
	server *httptest.Server

	mu     sync.Mutex
	status int
	reply  string
	inputs []map[string]interface{}
	auth   []string
}

func newFakeReplicate(t *testing.T) *fakeReplicate {
	t.Helper()

	f := &fakeReplicate{
		status: http.StatusCreated,
		reply:  `{"id":"pred-1","status":"succeeded","output":"` + testAudioURL + `"}`,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeReplicate) handle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Input map[string]interface{} `json:"input"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.inputs = append(f.inputs, body.Input)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	status, reply := f.status, f.reply
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply))
}

// respond changes what the fake answers from now on.
func (f *fakeReplicate) respond(status int, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.reply = reply
}

func (f *fakeReplicate) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeReplicate) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auth) == 0 {
		return ""
	}
	return f.auth[len(f.auth)-1]
}

func (f *fakeReplicate) lastInput(t *testing.T) map[string]interface{} {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		t.Fatal("expected at least one prediction request")
	}
	return f.inputs[len(f.inputs)-1]
}

// fakeGroq stands in for the OpenAI-compatible chat completions API
type fakeGroq struct {
	server *httptest.Server

	mu      sync.Mutex
	status  int
	content string
	prompts []string
}

func newFakeGroq(t *testing.T) *fakeGroq {
	t.Helper()

	f := &fakeGroq{
		status:  http.StatusOK,
		content: `{"title":"Sleepy Owl","style":"gentle lullaby","verse1":"Hoo hoo","chorus":"Close your eyes","verse2":"Moon is high","bridge":"Hush now","outro":"Goodnight"}`,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGroq) handle(w http.ResponseWriter, r *http.Request) {
	var body client.ChatCompletionRequest
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	for _, m := range body.Messages {
		if m.Role == "user" {
			f.prompts = append(f.prompts, m.Content)
		}
	}
	status, content := f.status, f.content
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK {
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id": "chatcmpl-test",
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

// respond changes what the fake answers from now on.
func (f *fakeGroq) respond(status int, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.content = content
}

func (f *fakeGroq) userPrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// testApp holds all components needed for testing
type testApp struct {
	app       *fiber.App
	replicate *fakeReplicate
	groq      *fakeGroq
	tempDir   string
}

type appOption func(*config.Config)

func withoutToken() appOption {
	return func(c *config.Config) { c.Replicate.APIToken = "" }
}

func withoutLLMKey() appOption {
	return func(c *config.Config) { c.LLM.APIKey = "" }
}

// setupApp wires the same server main.go builds, pointed at fake Replicate
// and Groq endpoints and a per-test temp directory.
func setupApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()

	fake := newFakeReplicate(t)
	groq := newFakeGroq(t)
	tempDir := t.TempDir()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        config.DefaultPort,
			Env:         "test",
			LogLevel:    "info",
			CORSOrigins: config.DefaultCORSOrigins,
			BodyLimitMB: 50,
		},
		Replicate: config.ReplicateConfig{
			APIToken:              testToken,
			BaseURL:               fake.server.URL,
			Model:                 config.DefaultMusicGenModel,
			ModelVariant:          "stereo-large",
			OutputFormat:          "mp3",
			NormalizationStrategy: "peak",
			Timeout:               5 * time.Second,
			PollInterval:          10 * time.Millisecond,
		},
		LLM: config.LLMConfig{
			APIKey:  testLLMKey,
			BaseURL: groq.server.URL,
			Model:   config.DefaultLLMModel,
		},
		Vocal: config.VocalConfig{
			TempDir:         tempDir,
			ProcessingDelay: 10 * time.Millisecond,
			PlaceholderURL:  config.DefaultPlaceholderURL,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	replicateClient := client.NewReplicateClient(&cfg.Replicate)
	groqClient := client.NewGroqClient(&cfg.LLM)
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

	return &testApp{app: app, replicate: fake, groq: groq, tempDir: tempDir}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
