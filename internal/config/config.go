package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	DefaultPort           = "8000"
	DefaultReplicateURL   = "https://api.replicate.com"
	DefaultMusicGenModel  = "meta/musicgen:671ac645ce5e552cc63a54a2bb959550fea9bd976194843d75cd2d12337499d7"
	DefaultPlaceholderURL = "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-2.mp3"
	DefaultLLMURL         = "https://api.groq.com/openai/v1"
	DefaultLLMModel       = "llama-3.3-70b-versatile"
)

// DefaultCORSOrigins mirrors the frontend dev servers plus the demo wildcard.
var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"*",
}

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Replicate ReplicateConfig
	LLM       LLMConfig
	Vocal     VocalConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	LogLevel    string
	ApiDomain   string
	CORSOrigins []string
	BodyLimitMB int
}

type ReplicateConfig struct {
	APIToken              string
	BaseURL               string
	Model                 string
	ModelVariant          string
	OutputFormat          string
	NormalizationStrategy string
	Timeout               time.Duration
	RequestTimeout        time.Duration
	PollInterval          time.Duration
}

// LLMConfig points at an OpenAI-compatible chat completions API (Groq by default)
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type VocalConfig struct {
	TempDir         string
	ProcessingDelay time.Duration
	PlaceholderURL  string
}

// IsDevelopment reports whether the server runs with the development profile.
func (c ServerConfig) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// HasCredential reports whether a Replicate API token is available.
func (c ReplicateConfig) HasCredential() bool {
	return strings.TrimSpace(c.APIToken) != ""
}

// HasCredential reports whether an LLM API key is available.
func (c LLMConfig) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Load builds the configuration from .env, an optional config file, the
// environment and any flags bound from the command line. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// Local development support; real environment variables win.
	_ = gotenv.Load(".env")

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REPLICATE_API_TOKEN")
	readSecret("GROQ_API_KEY")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.api_domain", "API_DOMAIN")
	_ = v.BindEnv("server.cors_origins", "CORS_ORIGINS")
	_ = v.BindEnv("server.body_limit_mb", "BODY_LIMIT_MB")
	_ = v.BindEnv("replicate.api_token", "REPLICATE_API_TOKEN")
	_ = v.BindEnv("replicate.base_url", "REPLICATE_BASE_URL")
	_ = v.BindEnv("replicate.model", "REPLICATE_MODEL")
	_ = v.BindEnv("replicate.model_variant", "REPLICATE_MODEL_VARIANT")
	_ = v.BindEnv("replicate.output_format", "REPLICATE_OUTPUT_FORMAT")
	_ = v.BindEnv("replicate.normalization_strategy", "REPLICATE_NORMALIZATION")
	_ = v.BindEnv("replicate.timeout", "REPLICATE_TIMEOUT")
	_ = v.BindEnv("replicate.request_timeout", "REPLICATE_REQUEST_TIMEOUT")
	_ = v.BindEnv("replicate.poll_interval", "REPLICATE_POLL_INTERVAL")
	_ = v.BindEnv("llm.api_key", "GROQ_API_KEY")
	_ = v.BindEnv("llm.base_url", "GROQ_BASE_URL")
	_ = v.BindEnv("llm.model", "GROQ_MODEL")
	_ = v.BindEnv("vocal.temp_dir", "VOCAL_TEMP_DIR")
	_ = v.BindEnv("vocal.processing_delay", "VOCAL_PROCESSING_DELAY")
	_ = v.BindEnv("vocal.placeholder_url", "VOCAL_PLACEHOLDER_URL")

	// Defaults
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors_origins", DefaultCORSOrigins)
	v.SetDefault("server.body_limit_mb", 50)

	// Replicate defaults
	v.SetDefault("replicate.base_url", DefaultReplicateURL)
	v.SetDefault("replicate.model", DefaultMusicGenModel)
	v.SetDefault("replicate.model_variant", "stereo-large")
	v.SetDefault("replicate.output_format", "mp3")
	v.SetDefault("replicate.normalization_strategy", "peak")
	v.SetDefault("replicate.timeout", 300)
	v.SetDefault("replicate.request_timeout", 120)
	v.SetDefault("replicate.poll_interval", 2)

	// LLM defaults
	v.SetDefault("llm.base_url", DefaultLLMURL)
	v.SetDefault("llm.model", DefaultLLMModel)

	// Vocal conversion defaults
	v.SetDefault("vocal.temp_dir", os.TempDir())
	v.SetDefault("vocal.processing_delay", 2000)
	v.SetDefault("vocal.placeholder_url", DefaultPlaceholderURL)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		// Try to read config file (optional)
		_ = v.ReadInConfig()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("server.port"),
			Env:         v.GetString("server.env"),
			LogLevel:    v.GetString("server.log_level"),
			ApiDomain:   v.GetString("server.api_domain"),
			CORSOrigins: splitList(v.GetStringSlice("server.cors_origins")),
			BodyLimitMB: v.GetInt("server.body_limit_mb"),
		},
		Replicate: ReplicateConfig{
			APIToken:              strings.TrimSpace(v.GetString("replicate.api_token")),
			BaseURL:               strings.TrimRight(v.GetString("replicate.base_url"), "/"),
			Model:                 v.GetString("replicate.model"),
			ModelVariant:          v.GetString("replicate.model_variant"),
			OutputFormat:          v.GetString("replicate.output_format"),
			NormalizationStrategy: v.GetString("replicate.normalization_strategy"),
			Timeout:               time.Duration(v.GetInt("replicate.timeout")) * time.Second,
			RequestTimeout:        time.Duration(v.GetInt("replicate.request_timeout")) * time.Second,
			PollInterval:          time.Duration(v.GetInt("replicate.poll_interval")) * time.Second,
		},
		LLM: LLMConfig{
			APIKey:  strings.TrimSpace(v.GetString("llm.api_key")),
			BaseURL: strings.TrimRight(v.GetString("llm.base_url"), "/"),
			Model:   v.GetString("llm.model"),
		},
		Vocal: VocalConfig{
			TempDir:         v.GetString("vocal.temp_dir"),
			ProcessingDelay: time.Duration(v.GetInt("vocal.processing_delay")) * time.Millisecond,
			PlaceholderURL:  v.GetString("vocal.placeholder_url"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bindFlags maps command line flags onto their config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"config":           "config",
		"server.port":      "port",
		"server.log_level": "log-level",
	}
	for key, name := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port must not be empty")
	}
	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("body limit must be positive, got %d", c.Server.BodyLimitMB)
	}
	if c.Replicate.Timeout <= 0 {
		return fmt.Errorf("replicate timeout must be positive")
	}
	if c.Replicate.RequestTimeout <= 0 {
		return fmt.Errorf("replicate request timeout must be positive")
	}
	if c.Replicate.PollInterval <= 0 {
		return fmt.Errorf("replicate poll interval must be positive")
	}
	if c.Vocal.ProcessingDelay < 0 {
		return fmt.Errorf("vocal processing delay must not be negative")
	}
	return nil
}

// splitList flattens comma separated entries, so CORS_ORIGINS="a,b" and a
// YAML list both work.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
