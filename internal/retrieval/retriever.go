// Package retrieval turns a stored record into a similarity query against
// the opposite collection.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/tender-matcher/internal/embedding"
	"github.com/jonathan/tender-matcher/internal/store"
	"github.com/jonathan/tender-matcher/internal/types"
)

// DefaultOverFetch is the multiple of requested candidates fetched from the
// store, leaving headroom for downstream score and deadline filtering.
const DefaultOverFetch = 2

// Retriever builds the canonical query text for a record, embeds it, and
// fetches nearest neighbors of the opposite entity kind.
type Retriever struct {
	store     store.Store
	provider  embedding.Provider
	overFetch int
	logger    *zap.Logger
}

// New creates a Retriever. overFetch values below 1 fall back to the
// default.
func New(s store.Store, provider embedding.Provider, overFetch int, logger *zap.Logger) *Retriever {
	if overFetch < 1 {
		overFetch = DefaultOverFetch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: s, provider: provider, overFetch: overFetch, logger: logger}
}

// QueryText returns the query-time text representation of a record. It is
// the same canonical function the store uses at index time; the symmetry is
// what makes similarity scores meaningful.
func QueryText(doc *types.Document) string {
	return doc.EmbeddingText()
}

// Candidates returns up to limit*overFetch records of targetKind nearest to
// the query entity. An empty result is a valid terminal state, not an
// error.
func (r *Retriever) Candidates(ctx context.Context, query *types.Document, targetKind types.EntityKind, limit int) ([]store.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	text := QueryText(query)
	if text == "" {
		return nil, fmt.Errorf("query entity %q has no embeddable text", query.ID)
	}

	vec, err := r.provider.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query for %q: %w", query.ID, err)
	}

	results, err := r.store.SimilaritySearch(ctx, targetKind, vec, limit*r.overFetch)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("retrieved candidates",
		zap.String("query_id", query.ID),
		zap.String("target_kind", string(targetKind)),
		zap.Int("count", len(results)),
	)
	return results, nil
}
