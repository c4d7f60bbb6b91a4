// Package store defines the vector record store contract shared by the
// embedded and the Postgres backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/tender-matcher/internal/embedding"
	"github.com/jonathan/tender-matcher/internal/types"
)

// ErrNotFound is returned by point lookups when no record has the given id.
var ErrNotFound = errors.New("record not found")

// SearchResult pairs a stored document with its normalized similarity score:
// 1.0 means identical, 0.0 maximally dissimilar.
type SearchResult struct {
	Document   *types.Document
	Similarity float64
}

// Store persists tender and company documents with their embedding vectors.
// Application logic depends only on this interface; the embedded and the
// Postgres backends are interchangeable adapters.
type Store interface {
	// Upsert validates the document, computes its canonical embedding, and
	// stores it. A missing id is assigned. Re-upserting an id replaces the
	// prior record and embedding.
	Upsert(ctx context.Context, doc *types.Document) (string, error)

	// SimilaritySearch returns up to limit documents of the given kind in
	// non-increasing similarity order. Ties keep insertion order.
	SimilaritySearch(ctx context.Context, kind types.EntityKind, query []float32, limit int) ([]SearchResult, error)

	// GetByID returns the document with the given id, or ErrNotFound.
	GetByID(ctx context.Context, kind types.EntityKind, id string) (*types.Document, error)

	// ListAll returns up to limit documents of the given kind, newest first
	// when creation timestamps are available.
	ListAll(ctx context.Context, kind types.EntityKind, limit int) ([]*types.Document, error)

	// Close releases backend resources, flushing any pending persistence.
	Close() error
}

const (
	embedAttempts     = 3
	embedRetryBackoff = 200 * time.Millisecond
)

// GenerateEmbedding embeds the document's canonical text, retrying transient
// provider failures. An exhausted retry budget surfaces as a write failure;
// a zero or garbage vector is never stored.
func GenerateEmbedding(ctx context.Context, provider embedding.Provider, doc *types.Document, logger *zap.Logger) ([]float32, error) {
	text := doc.EmbeddingText()
	if text == "" {
		return nil, fmt.Errorf("document %q has no embeddable text", doc.ID)
	}

	var lastErr error
	for attempt := 1; attempt <= embedAttempts; attempt++ {
		vec, err := provider.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		logger.Warn("embedding generation failed",
			zap.String("id", doc.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt < embedAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(embedRetryBackoff << (attempt - 1)):
			}
		}
	}

	return nil, fmt.Errorf("embedding generation for %q exhausted %d attempts: %w", doc.ID, embedAttempts, lastErr)
}

// SimilarityFromDistance converts a cosine distance into the normalized
// [0,1] similarity score exposed by SimilaritySearch.
func SimilarityFromDistance(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	if distance > 1 {
		distance = 1
	}
	return 1 - distance
}
