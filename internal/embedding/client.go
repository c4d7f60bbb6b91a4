package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// Client calls an OpenAI-compatible /embeddings endpoint. Ollama's native
// response shape is accepted as a fallback, so the same client serves both
// the hosted and the local embedding model.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  atomic.Int64
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger
}

// Config configures the embeddings client.
type Config struct {
	BaseURL    string
	APIKey     string // empty for local endpoints that need no key
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates an embeddings client. BaseURL and Model are required.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("embedding endpoint base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}, nil
}

// Dimension returns the vector dimension observed on the first successful
// embed call, or 0 before that. Safe for concurrent use with Embed.
func (c *Client) Dimension() int { return int(c.dimension.Load()) }

type embedRequest struct {
	Input  string `json:"input,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	Model  string `json:"model"`
}

// Embed requests an embedding vector for the given text, retrying transient
// failures with exponential backoff.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}

	url := c.baseURL + "/embeddings"
	body, err := json.Marshal(embedRequest{Input: text, Prompt: text, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	var (
		lastErr error
		hint    time.Duration
	)
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt - 1)
			if hint > 0 {
				delay = hint
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		vec, retryAfter, retryable, err := c.embedOnce(ctx, url, body)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		hint = retryAfter
		if !retryable {
			return nil, err
		}
		c.logger.Debug("embedding call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// embedOnce performs a single request. It never sleeps; on a rate-limited
// or server-side failure it returns the server's Retry-After hint so the
// caller's backoff loop can honor it in place of the exponential delay.
func (c *Client) embedOnce(ctx context.Context, url string, body []byte) (vec []float32, retryAfter time.Duration, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, retryAfterHint(resp.Header.Get("Retry-After")), true,
			fmt.Errorf("embeddings endpoint returned %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return nil, 0, false, fmt.Errorf("embeddings endpoint returned %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, true, err
	}

	v, err := decodeEmbedding(payload)
	if err != nil {
		return nil, 0, true, err
	}
	c.dimension.CompareAndSwap(0, int64(len(v)))
	return v, 0, false, nil
}

// retryAfterHint parses a Retry-After header value in seconds. Unparseable
// or absent values yield 0, deferring to the exponential backoff schedule.
func retryAfterHint(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// decodeEmbedding accepts the OpenAI-compatible response shape first, then
// the Ollama-native one.
func decodeEmbedding(payload []byte) ([]float32, error) {
	var openaiOut struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil {
		if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
			return openaiOut.Data[0].Embedding, nil
		}
	}

	var ollamaOut struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, nil
	}

	return nil, errors.New("no embedding in response")
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
