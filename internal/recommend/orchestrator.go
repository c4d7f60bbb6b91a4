// Package recommend drives the end-to-end recommendation flow: candidate
// retrieval, per-candidate match analysis, ranking, and filtering.
package recommend

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/tender-matcher/internal/match"
	"github.com/jonathan/tender-matcher/internal/retrieval"
	"github.com/jonathan/tender-matcher/internal/store"
	"github.com/jonathan/tender-matcher/internal/types"
)

const (
	// DefaultMinScore is the relevance floor: analyses at or below it are
	// discarded.
	DefaultMinScore = 0.3

	defaultConcurrency = 4
)

// Options control one recommendation request. A nil MinScore means
// DefaultMinScore; an explicit pointer carries the caller's floor, zero
// included.
type Options struct {
	MaxResults    int
	MinScore      *float64
	FilterExpired bool
}

// Orchestrator combines the retriever and the analyzer into ranked
// recommendation lists. Per-candidate analysis failures are contained: a
// single bad candidate never aborts the request.
type Orchestrator struct {
	retriever   *retrieval.Retriever
	analyzer    *match.Analyzer
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// New creates an Orchestrator. concurrency bounds the parallel analysis
// calls; values below 1 use the default.
func New(retriever *retrieval.Retriever, analyzer *match.Analyzer, concurrency int, logger *zap.Logger) *Orchestrator {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		retriever:   retriever,
		analyzer:    analyzer,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// RecommendTendersForCompany returns ranked tender recommendations for a
// company profile.
func (o *Orchestrator) RecommendTendersForCompany(ctx context.Context, company *types.CompanyProfile, opts Options) ([]types.RecommendationEntry, error) {
	candidates, err := o.retriever.Candidates(ctx, types.NewCompanyDocument(company), types.KindTender, opts.MaxResults)
	if err != nil {
		return nil, err
	}

	entries := o.analyzeAll(ctx, candidates, func(ctx context.Context, c store.SearchResult) (*types.MatchAnalysis, error) {
		return o.analyzer.AnalyzeTenderMatch(ctx, company, c.Document.Tender)
	})

	return o.finalize(entries, opts), nil
}

// RecommendCompaniesForTender returns ranked company recommendations for a
// tender.
func (o *Orchestrator) RecommendCompaniesForTender(ctx context.Context, tender *types.TenderRecord, opts Options) ([]types.RecommendationEntry, error) {
	candidates, err := o.retriever.Candidates(ctx, types.NewTenderDocument(tender), types.KindCompany, opts.MaxResults)
	if err != nil {
		return nil, err
	}

	entries := o.analyzeAll(ctx, candidates, func(ctx context.Context, c store.SearchResult) (*types.MatchAnalysis, error) {
		return o.analyzer.AnalyzeCompanyMatch(ctx, tender, c.Document.Company)
	})

	return o.finalize(entries, opts), nil
}

// analyzeAll runs the analysis calls over a bounded worker pool. Failed
// candidates are logged and skipped; the surviving entries keep the
// retrieval order until ranking.
func (o *Orchestrator) analyzeAll(ctx context.Context, candidates []store.SearchResult, analyze func(context.Context, store.SearchResult) (*types.MatchAnalysis, error)) []types.RecommendationEntry {
	results := make([]*types.MatchAnalysis, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			analysis, err := analyze(gctx, candidate)
			if err != nil {
				o.logger.Warn("candidate analysis failed, skipping",
					zap.String("candidate_id", candidate.Document.ID),
					zap.Error(err),
				)
				return nil
			}
			results[i] = analysis
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes the pool.
	_ = g.Wait()

	entries := make([]types.RecommendationEntry, 0, len(candidates))
	for i, candidate := range candidates {
		if results[i] == nil {
			continue
		}
		entries = append(entries, types.RecommendationEntry{
			Tender:     candidate.Document.Tender,
			Company:    candidate.Document.Company,
			Analysis:   results[i],
			Similarity: candidate.Similarity,
		})
	}
	return entries
}

// finalize applies the relevance floor, the expiry filter, the ranking, and
// the result cap.
func (o *Orchestrator) finalize(entries []types.RecommendationEntry, opts Options) []types.RecommendationEntry {
	minScore := DefaultMinScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}
	now := o.now()

	kept := make([]types.RecommendationEntry, 0, len(entries))
	for _, e := range entries {
		if e.Analysis.MatchScore <= minScore {
			continue
		}
		if opts.FilterExpired && e.Tender != nil && e.Tender.Expired(now) {
			continue
		}
		kept = append(kept, e)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Analysis.MatchScore != kept[j].Analysis.MatchScore {
			return kept[i].Analysis.MatchScore > kept[j].Analysis.MatchScore
		}
		return kept[i].Similarity > kept[j].Similarity
	})

	if opts.MaxResults > 0 && len(kept) > opts.MaxResults {
		kept = kept[:opts.MaxResults]
	}
	return kept
}
