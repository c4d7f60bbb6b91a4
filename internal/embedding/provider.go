// Package embedding turns free text into fixed-length vectors via an
// external embedding endpoint.
package embedding

import "context"

// Provider produces a fixed-dimension vector for any non-empty text.
// Failures are recoverable from the caller's point of view: the store
// retries a bounded number of times before surfacing a write failure.
type Provider interface {
	// Embed converts text to a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding vector dimension, or 0 when it is
	// not yet known (lazily discovered on the first successful call).
	Dimension() int
}
