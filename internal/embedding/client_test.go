package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL: baseURL,
		Model:   "nomic-embed-text",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestEmbedOpenAIShape(t *testing.T) {
	var gotAuth, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Model:   "nomic-embed-text",
	}, zap.NewNop())
	require.NoError(t, err)

	vec, err := c.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "nomic-embed-text", gotModel)
	assert.Equal(t, 3, c.Dimension(), "dimension is discovered from the first response")
}

func TestEmbedOllamaShapeFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 2}})
	}))
	defer srv.Close()

	vec, err := newTestClient(t, srv.URL).Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)
}

func TestEmbedRetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1}})
	}))
	defer srv.Close()

	vec, err := newTestClient(t, srv.URL).Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, 3, calls)
}

func TestEmbedDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx other than 429 is terminal")
}

func TestEmbedExhaustsRetryBudget(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		BaseURL:    srv.URL,
		Model:      "m",
		MaxRetries: 2,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestEmbedEmptyText(t *testing.T) {
	_, err := newTestClient(t, "http://unused.invalid").Embed(context.Background(), "")
	assert.ErrorContains(t, err, "empty text")
}

func TestEmbedOnceReturnsRetryAfterWithoutSleeping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	start := time.Now()
	_, retryAfter, retryable, err := c.embedOnce(context.Background(), srv.URL+"/embeddings", []byte(`{}`))

	require.Error(t, err)
	assert.True(t, retryable)
	assert.Equal(t, 3*time.Second, retryAfter)
	assert.Less(t, time.Since(start), time.Second, "the wait belongs to the retry loop, not the request")
}

func TestRetryAfterHint(t *testing.T) {
	assert.Equal(t, 2*time.Second, retryAfterHint("2"))
	assert.Equal(t, time.Duration(0), retryAfterHint(""))
	assert.Equal(t, time.Duration(0), retryAfterHint("soon"))
	assert.Equal(t, time.Duration(0), retryAfterHint("-1"))
}

func TestDimensionConcurrentWithEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 2, 3, 4}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Embed(context.Background(), "hello")
			assert.NoError(t, err)
			_ = c.Dimension()
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, c.Dimension())
}

func TestRetryDelayCap(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, retryDelay(0))
	assert.Equal(t, 400*time.Millisecond, retryDelay(1))
	assert.Equal(t, 5*time.Second, retryDelay(10), "backoff is capped")
}
