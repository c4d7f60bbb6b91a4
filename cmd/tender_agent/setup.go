package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/tender-matcher/internal/config"
	"github.com/jonathan/tender-matcher/internal/embedding"
	"github.com/jonathan/tender-matcher/internal/llm"
	"github.com/jonathan/tender-matcher/internal/logger"
	"github.com/jonathan/tender-matcher/internal/match"
	"github.com/jonathan/tender-matcher/internal/recommend"
	"github.com/jonathan/tender-matcher/internal/retrieval"
	"github.com/jonathan/tender-matcher/internal/store"
	"github.com/jonathan/tender-matcher/internal/store/local"
	"github.com/jonathan/tender-matcher/internal/store/postgres"
)

// runtime holds the wired components a command needs. Commands that never
// touch the LLM pass withLLM=false so a missing Gemini key does not block
// indexing.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	store  store.Store
	embed  embedding.Provider
	llm    llm.Client
}

func loadConfig() (config.Config, error) {
	cfg := config.FromEnv().MergeWithDefaults(config.Defaults())

	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}

	if verbose {
		cfg.Verbose = true
	}
	if jsonLogs {
		cfg.LogJSON = true
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newRuntime(ctx context.Context, withLLM bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogJSON, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	embedClient, err := embedding.NewClient(embedding.Config{
		BaseURL: cfg.EmbeddingURL,
		APIKey:  cfg.EmbeddingAPIKey,
		Model:   cfg.EmbeddingModel,
	}, log)
	if err != nil {
		return nil, err
	}

	var st store.Store
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		st, err = postgres.Connect(ctx, cfg.DatabaseURL, embedClient, log)
	default:
		st, err = local.Open(cfg.StorePath, embedClient, log)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.StoreBackend, err)
	}

	rt := &runtime{cfg: cfg, logger: log, store: st, embed: embedClient}

	if withLLM {
		if cfg.GeminiAPIKey == "" {
			rt.Close()
			return nil, fmt.Errorf("GEMINI_API_KEY is required for this command")
		}
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("initializing LLM client: %w", err)
		}
		rt.llm = client
	}

	return rt, nil
}

func (rt *runtime) Close() {
	if rt.llm != nil {
		if err := rt.llm.Close(); err != nil {
			rt.logger.Warn("closing LLM client", zap.Error(err))
		}
	}
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("closing store", zap.Error(err))
	}
	_ = rt.logger.Sync()
}

func (rt *runtime) orchestrator() *recommend.Orchestrator {
	retriever := retrieval.New(rt.store, rt.embed, retrieval.DefaultOverFetch, rt.logger)
	analyzer := match.NewAnalyzer(rt.llm, rt.cfg.AnalysisTimeout, rt.logger)
	return recommend.New(retriever, analyzer, rt.cfg.Concurrency, rt.logger)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// commandContext returns a context for a whole CLI invocation.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Minute)
}
