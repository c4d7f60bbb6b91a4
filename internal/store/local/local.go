// Package local implements the record store on an embedded vecgo flat index
// with JSON snapshot persistence.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/vecgo"
	"go.uber.org/zap"

	"github.com/jonathan/tender-matcher/internal/embedding"
	"github.com/jonathan/tender-matcher/internal/store"
	"github.com/jonathan/tender-matcher/internal/types"
)

const snapshotFile = "documents.json"

// Backend is an embedded vector record store. Vectors are searched with an
// exact cosine flat index; documents are persisted as a JSON snapshot in the
// backend-agnostic export shape.
type Backend struct {
	mu       sync.RWMutex
	index    *vecgo.Vecgo[string]
	docs     map[string]*types.Document // key -> document
	ids      map[string]uint64          // key -> vecgo id
	kinds    map[uint32]types.EntityKind
	order    []string // keys in insertion order
	dim      int
	path     string // snapshot directory, empty in memory-only mode
	degraded bool

	provider embedding.Provider
	logger   *zap.Logger
}

// Open creates a backend persisting under dir. If dir cannot be prepared or
// its snapshot cannot be read, the backend falls back to a degraded
// in-memory mode with a warning instead of failing: persistence guarantees
// are void in that mode, which Degraded reports to the caller.
func Open(dir string, provider embedding.Provider, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Backend{
		docs:     make(map[string]*types.Document),
		ids:      make(map[string]uint64),
		kinds:    make(map[uint32]types.EntityKind),
		provider: provider,
		logger:   logger,
		path:     dir,
	}

	if dir == "" {
		b.degraded = true
		return b, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("cannot prepare store directory, falling back to in-memory mode",
			zap.String("dir", dir),
			zap.Error(err),
		)
		b.path = ""
		b.degraded = true
		return b, nil
	}

	if err := b.loadSnapshot(); err != nil {
		logger.Warn("cannot load store snapshot, falling back to in-memory mode",
			zap.String("dir", dir),
			zap.Error(err),
		)
		// A failed load may leave the index and maps half-populated.
		// Degraded mode starts from an empty state, never a partial one.
		if b.index != nil {
			_ = b.index.Close()
		}
		b.index = nil
		b.dim = 0
		b.docs = make(map[string]*types.Document)
		b.ids = make(map[string]uint64)
		b.kinds = make(map[uint32]types.EntityKind)
		b.order = nil
		b.path = ""
		b.degraded = true
	}

	return b, nil
}

// Degraded reports whether the backend runs without persistence.
func (b *Backend) Degraded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.degraded
}

func docKey(kind types.EntityKind, id string) string {
	return string(kind) + "/" + id
}

// ensureIndex builds the flat index lazily, once the vector dimension is
// known from the first stored embedding.
func (b *Backend) ensureIndex(dim int) error {
	if b.index != nil {
		if dim != b.dim {
			return fmt.Errorf("embedding dimension changed from %d to %d", b.dim, dim)
		}
		return nil
	}

	idx, err := vecgo.Flat[string](dim).Cosine().Build()
	if err != nil {
		return fmt.Errorf("build flat index: %w", err)
	}
	b.index = idx
	b.dim = dim
	return nil
}

// Upsert stores a document, replacing any prior record under the same id.
func (b *Backend) Upsert(ctx context.Context, doc *types.Document) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
		switch doc.Kind {
		case types.KindTender:
			doc.Tender.ID = doc.ID
		case types.KindCompany:
			doc.Company.ID = doc.ID
		}
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	vec, err := store.GenerateEmbedding(ctx, b.provider, doc, b.logger)
	if err != nil {
		return "", err
	}
	doc.Embedding = vec

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureIndex(len(vec)); err != nil {
		return "", err
	}

	key := docKey(doc.Kind, doc.ID)
	item := vecgo.VectorWithData[string]{Vector: vec, Data: key}

	if id, ok := b.ids[key]; ok {
		if err := b.index.Update(ctx, id, item); err != nil {
			return "", fmt.Errorf("update vector for %q: %w", doc.ID, err)
		}
	} else {
		id, err := b.index.Insert(ctx, item)
		if err != nil {
			return "", fmt.Errorf("insert vector for %q: %w", doc.ID, err)
		}
		b.ids[key] = id
		b.kinds[uint32(id)] = doc.Kind
		b.order = append(b.order, key)
	}
	b.docs[key] = doc

	b.saveSnapshotLocked()
	return doc.ID, nil
}

// SimilaritySearch returns the stored documents of the given kind nearest to
// the query vector, in non-increasing similarity order.
func (b *Backend) SimilaritySearch(ctx context.Context, kind types.EntityKind, query []float32, limit int) ([]store.SearchResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.index == nil || limit <= 0 {
		return nil, nil
	}

	results, err := b.index.Search(query).
		KNN(limit).
		Filter(func(id uint32) bool { return b.kinds[id] == kind }).
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	out := make([]store.SearchResult, 0, len(results))
	for _, r := range results {
		doc, ok := b.docs[r.Data]
		if !ok {
			continue
		}
		out = append(out, store.SearchResult{
			Document:   doc,
			Similarity: store.SimilarityFromDistance(float64(r.Distance)),
		})
	}
	return out, nil
}

// GetByID returns the document under id, or store.ErrNotFound.
func (b *Backend) GetByID(_ context.Context, kind types.EntityKind, id string) (*types.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	doc, ok := b.docs[docKey(kind, id)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

// ListAll returns up to limit documents of the given kind, newest first.
func (b *Backend) ListAll(_ context.Context, kind types.EntityKind, limit int) ([]*types.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var docs []*types.Document
	for _, key := range b.order {
		if doc := b.docs[key]; doc != nil && doc.Kind == kind {
			docs = append(docs, doc)
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Close flushes the snapshot and releases the index.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.saveSnapshotLocked()
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

// snapshot is the on-disk export shape: a sequence of documents, each with
// id, type, data, and embedding.
type snapshot struct {
	Documents []*types.Document `json:"documents"`
}

func (b *Backend) loadSnapshot() error {
	name := filepath.Join(b.path, snapshotFile)
	data, err := os.ReadFile(name)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	ctx := context.Background()
	for _, doc := range snap.Documents {
		if len(doc.Embedding) == 0 {
			continue
		}
		if err := b.ensureIndex(len(doc.Embedding)); err != nil {
			return err
		}
		key := docKey(doc.Kind, doc.ID)
		id, err := b.index.Insert(ctx, vecgo.VectorWithData[string]{Vector: doc.Embedding, Data: key})
		if err != nil {
			return fmt.Errorf("restore vector for %q: %w", doc.ID, err)
		}
		b.ids[key] = id
		b.kinds[uint32(id)] = doc.Kind
		b.docs[key] = doc
		b.order = append(b.order, key)
	}

	return nil
}

// saveSnapshotLocked writes the snapshot atomically. Persistence failures
// are logged, not propagated: the in-memory state stays authoritative for
// the life of the process.
func (b *Backend) saveSnapshotLocked() {
	if b.path == "" {
		return
	}

	snap := snapshot{Documents: make([]*types.Document, 0, len(b.order))}
	for _, key := range b.order {
		if doc := b.docs[key]; doc != nil {
			snap.Documents = append(snap.Documents, doc)
		}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		b.logger.Error("marshal store snapshot", zap.Error(err))
		return
	}

	name := filepath.Join(b.path, snapshotFile)
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		b.logger.Error("write store snapshot", zap.Error(err))
		return
	}
	if err := os.Rename(tmp, name); err != nil {
		b.logger.Error("replace store snapshot", zap.Error(err))
	}
}
