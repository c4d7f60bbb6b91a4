// Package ingestion loads tenders and company profiles into the document
// store, from JSON files or from a live tender source.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/tender-matcher/internal/classify"
	"github.com/jonathan/tender-matcher/internal/store"
	"github.com/jonathan/tender-matcher/internal/tendersource"
	"github.com/jonathan/tender-matcher/internal/types"
)

// Ingestor normalizes, classifies, and indexes records.
type Ingestor struct {
	store      store.Store
	sector     classify.SectorClassifier
	complexity classify.ComplexityScorer
	logger     *zap.Logger
}

// New creates an Ingestor with the default classifiers.
func New(st store.Store, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		store:      st,
		sector:     classify.CPVClassifier{},
		complexity: classify.HeuristicScorer{},
		logger:     logger,
	}
}

// Result summarizes an ingestion run.
type Result struct {
	Indexed int
	Skipped int
}

// IndexTender classifies and stores a single tender.
func (in *Ingestor) IndexTender(ctx context.Context, tender *types.TenderRecord) (*types.Document, error) {
	tender.Sector = in.sector.Sector(tender)
	tender.Complexity = in.complexity.Score(tender)

	doc := types.NewTenderDocument(tender)
	if _, err := in.store.Upsert(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// IndexCompany stores a single company profile.
func (in *Ingestor) IndexCompany(ctx context.Context, company *types.CompanyProfile) (*types.Document, error) {
	doc := types.NewCompanyDocument(company)
	if _, err := in.store.Upsert(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// IndexTenderFile reads a JSON file holding a tender object or an array of
// tender objects and indexes each one. Records that fail validation or
// storage are skipped with a warning.
func (in *Ingestor) IndexTenderFile(ctx context.Context, path string) (*Result, error) {
	raws, err := readRecords(path)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, raw := range raws {
		tender := types.NormalizeTender(raw)
		doc, err := in.IndexTender(ctx, tender)
		if err != nil {
			in.logger.Warn("skipping tender record",
				zap.String("file", path),
				zap.Int("record", i),
				zap.String("title", tender.Title),
				zap.Error(err))
			result.Skipped++
			continue
		}
		in.logger.Info("indexed tender",
			zap.String("id", doc.ID),
			zap.String("title", tender.Title))
		result.Indexed++
	}
	return result, nil
}

// IndexCompanyFile reads a JSON file holding a company profile or an array
// of profiles and indexes each one.
func (in *Ingestor) IndexCompanyFile(ctx context.Context, path string) (*Result, error) {
	raws, err := readRecords(path)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, raw := range raws {
		company := types.NormalizeCompany(raw)
		doc, err := in.IndexCompany(ctx, company)
		if err != nil {
			in.logger.Warn("skipping company record",
				zap.String("file", path),
				zap.Int("record", i),
				zap.String("name", company.Name),
				zap.Error(err))
			result.Skipped++
			continue
		}
		in.logger.Info("indexed company",
			zap.String("id", doc.ID),
			zap.String("name", company.Name))
		result.Indexed++
	}
	return result, nil
}

// SearchAndIndex pulls tenders from a live source and indexes them.
// Individual records that fail to normalize or store are skipped.
func (in *Ingestor) SearchAndIndex(ctx context.Context, src tendersource.Source, query string, opts tendersource.SearchOptions) (*Result, error) {
	raws, err := src.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("tender search: %w", err)
	}

	result := &Result{}
	for _, raw := range raws {
		tender := types.NormalizeTender(map[string]any(raw))
		doc, err := in.IndexTender(ctx, tender)
		if err != nil {
			in.logger.Warn("skipping fetched tender",
				zap.String("title", tender.Title),
				zap.Error(err))
			result.Skipped++
			continue
		}
		in.logger.Info("indexed fetched tender",
			zap.String("id", doc.ID),
			zap.String("title", tender.Title),
			zap.String("source", tender.Source))
		result.Indexed++
	}
	return result, nil
}

// readRecords decodes a JSON file into one or more raw records. Both a
// single object and an array of objects are accepted.
func readRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var list []map[string]any
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var single map[string]any
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parsing %s: expected a JSON object or array of objects: %w", path, err)
	}
	return []map[string]any{single}, nil
}
