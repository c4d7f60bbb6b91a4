// Package postgres implements the record store on PostgreSQL with the
// pgvector extension's native vector search.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"

	"github.com/jonathan/tender-matcher/internal/embedding"
	"github.com/jonathan/tender-matcher/internal/store"
	"github.com/jonathan/tender-matcher/internal/types"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS matcher_documents (
	id              TEXT NOT NULL,
	kind            TEXT NOT NULL,
	data            JSONB NOT NULL,
	embedding       VECTOR,
	title           TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	categories      TEXT[] NOT NULL DEFAULT '{}',
	estimated_value DOUBLE PRECISION,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (kind, id)
);
`

// Backend is a Postgres-backed vector record store. Each document row keeps
// the full record as JSONB next to its embedding and a few denormalized
// filter columns.
type Backend struct {
	pool     *pgxpool.Pool
	provider embedding.Provider
	logger   *zap.Logger
}

// Connect establishes a connection pool, registers the pgvector codecs, and
// ensures the schema exists. A connection failure here is fatal to the
// caller: the Postgres backend has no degraded mode.
func Connect(ctx context.Context, databaseURL string, provider embedding.Provider, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &Backend{pool: pool, provider: provider, logger: logger}, nil
}

// Upsert stores a document, replacing any prior row under the same id.
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

	data, title, location, categories, value, err := denormalize(doc)
	if err != nil {
		return "", err
	}

	_, err = b.pool.Exec(ctx,
		`INSERT INTO matcher_documents (id, kind, data, embedding, title, location, categories, estimated_value, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (kind, id) DO UPDATE
		 SET data = $3, embedding = $4, title = $5, location = $6, categories = $7, estimated_value = $8`,
		doc.ID, string(doc.Kind), data, pgvector.NewVector(vec), title, location, categories, value, doc.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}

	return doc.ID, nil
}

// SimilaritySearch runs a cosine nearest-neighbor query over rows of the
// given kind.
func (b *Backend) SimilaritySearch(ctx context.Context, kind types.EntityKind, query []float32, limit int) ([]store.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := b.pool.Query(ctx,
		`SELECT id, kind, data, created_at, embedding <=> $1 AS distance
		 FROM matcher_documents
		 WHERE kind = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1, created_at
		 LIMIT $3`,
		pgvector.NewVector(query), string(kind), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	var out []store.SearchResult
	for rows.Next() {
		var (
			id, rowKind string
			data        []byte
			createdAt   time.Time
			distance    float64
		)
		if err := rows.Scan(&id, &rowKind, &data, &createdAt, &distance); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		doc, err := decodeDocument(id, types.EntityKind(rowKind), data, createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, store.SearchResult{
			Document:   doc,
			Similarity: store.SimilarityFromDistance(distance),
		})
	}
	return out, rows.Err()
}

// GetByID returns the document under id, or store.ErrNotFound.
func (b *Backend) GetByID(ctx context.Context, kind types.EntityKind, id string) (*types.Document, error) {
	var (
		data      []byte
		createdAt time.Time
	)
	err := b.pool.QueryRow(ctx,
		`SELECT data, created_at FROM matcher_documents WHERE kind = $1 AND id = $2`,
		string(kind), id,
	).Scan(&data, &createdAt)
	if err == pgx.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return decodeDocument(id, kind, data, createdAt)
}

// ListAll returns up to limit documents of the given kind, newest first.
func (b *Backend) ListAll(ctx context.Context, kind types.EntityKind, limit int) ([]*types.Document, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id, data, created_at FROM matcher_documents
		 WHERE kind = $1 ORDER BY created_at DESC LIMIT $2`,
		string(kind), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var out []*types.Document
	for rows.Next() {
		var (
			id        string
			data      []byte
			createdAt time.Time
		)
		if err := rows.Scan(&id, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("scan list row: %w", err)
		}
		doc, err := decodeDocument(id, kind, data, createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	if b.pool != nil {
		b.pool.Close()
	}
	return nil
}

func denormalize(doc *types.Document) (data []byte, title, location string, categories []string, value *float64, err error) {
	switch doc.Kind {
	case types.KindTender:
		data, err = json.Marshal(doc.Tender)
		title = doc.Tender.Title
		location = doc.Tender.Location
		categories = doc.Tender.Categories
		value = doc.Tender.EstimatedValue
	case types.KindCompany:
		data, err = json.Marshal(doc.Company)
		title = doc.Company.Name
		location = doc.Company.Location
		categories = doc.Company.Industries
	default:
		err = fmt.Errorf("unknown entity kind %q", doc.Kind)
	}
	if err != nil {
		return nil, "", "", nil, nil, fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	if categories == nil {
		categories = []string{}
	}
	return data, title, location, categories, value, nil
}

func decodeDocument(id string, kind types.EntityKind, data []byte, createdAt time.Time) (*types.Document, error) {
	doc := &types.Document{ID: id, Kind: kind, CreatedAt: createdAt}
	switch kind {
	case types.KindTender:
		doc.Tender = &types.TenderRecord{}
		if err := json.Unmarshal(data, doc.Tender); err != nil {
			return nil, fmt.Errorf("decode tender %s: %w", id, err)
		}
	case types.KindCompany:
		doc.Company = &types.CompanyProfile{}
		if err := json.Unmarshal(data, doc.Company); err != nil {
			return nil, fmt.Errorf("decode company %s: %w", id, err)
		}
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	return doc, nil
}
