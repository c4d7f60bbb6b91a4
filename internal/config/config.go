// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store backend names accepted in configuration.
const (
	BackendLocal    = "local"
	BackendPostgres = "postgres"
)

// Config represents the CLI configuration. Values come from a JSON file
// and from environment variables; file values win over env, flags win
// over both.
type Config struct {
	// Storage
	StoreBackend string `json:"store_backend,omitempty"` // "local" or "postgres"
	StorePath    string `json:"store_path,omitempty"`    // local backend data directory
	DatabaseURL  string `json:"database_url,omitempty"`  // postgres connection URL

	// Embedding service (OpenAI-compatible /embeddings endpoint)
	EmbeddingURL    string `json:"embedding_url,omitempty"`
	EmbeddingModel  string `json:"embedding_model,omitempty"`
	EmbeddingAPIKey string `json:"embedding_api_key,omitempty"`

	// LLM
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	GeminiModel  string `json:"gemini_model,omitempty"`

	// Tender sources
	TEDAPIKey string `json:"ted_api_key,omitempty"`

	// Recommendation behavior
	MaxResults             int           `json:"max_results,omitempty"`
	MinScore               float64       `json:"min_score,omitempty"`
	Concurrency            int           `json:"concurrency,omitempty"`
	AnalysisTimeoutSeconds int           `json:"analysis_timeout_seconds,omitempty"`
	AnalysisTimeout        time.Duration `json:"-"`

	// Logging
	Verbose bool `json:"verbose,omitempty"`
	LogJSON bool `json:"log_json,omitempty"`
}

// Defaults returns the baseline configuration applied under file and env
// values.
func Defaults() Config {
	return Config{
		StoreBackend:   BackendLocal,
		StorePath:      "./data/store",
		EmbeddingURL:   "http://localhost:11434/v1",
		EmbeddingModel: "nomic-embed-text",
		GeminiModel:    "gemini-2.5-flash",
		MaxResults:     10,
		MinScore:       0.3,
		Concurrency:    4,
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Call godotenv first
// so a local .env participates.
func FromEnv() Config {
	cfg := Config{
		StoreBackend:    os.Getenv("STORE_BACKEND"),
		StorePath:       os.Getenv("STORE_PATH"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		EmbeddingURL:    os.Getenv("EMBEDDING_URL"),
		EmbeddingModel:  os.Getenv("EMBEDDING_MODEL"),
		EmbeddingAPIKey: os.Getenv("EMBEDDING_API_KEY"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		TEDAPIKey:       os.Getenv("EU_TED_API_KEY"),
	}
	return cfg
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. Applied twice at startup: env over Defaults(), then file
// values over that.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.StoreBackend == "" {
		result.StoreBackend = defaults.StoreBackend
	}
	if result.StorePath == "" {
		result.StorePath = defaults.StorePath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.EmbeddingURL == "" {
		result.EmbeddingURL = defaults.EmbeddingURL
	}
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = defaults.EmbeddingModel
	}
	if result.EmbeddingAPIKey == "" {
		result.EmbeddingAPIKey = defaults.EmbeddingAPIKey
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.GeminiModel == "" {
		result.GeminiModel = defaults.GeminiModel
	}
	if result.TEDAPIKey == "" {
		result.TEDAPIKey = defaults.TEDAPIKey
	}
	if result.MaxResults == 0 {
		result.MaxResults = defaults.MaxResults
	}
	if result.MinScore == 0 {
		result.MinScore = defaults.MinScore
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.AnalysisTimeoutSeconds == 0 {
		result.AnalysisTimeoutSeconds = defaults.AnalysisTimeoutSeconds
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}
	if !result.LogJSON {
		result.LogJSON = defaults.LogJSON
	}

	result.AnalysisTimeout = time.Duration(result.AnalysisTimeoutSeconds) * time.Second

	return result
}

// Validate checks that the configuration is coherent. Called once at
// startup; a failure here is fatal.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendLocal:
		if c.StorePath == "" {
			return fmt.Errorf("config error: 'store_path' is required for the local backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config error: 'store_backend' must be %q or %q, got %q",
			BackendLocal, BackendPostgres, c.StoreBackend)
	}

	if c.EmbeddingURL == "" {
		return fmt.Errorf("config error: 'embedding_url' is required")
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("config error: 'max_results' must be non-negative")
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("config error: 'min_score' must be between 0.0 and 1.0")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("config error: 'concurrency' must be non-negative")
	}

	return nil
}
