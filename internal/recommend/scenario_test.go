package recommend

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/tender-matcher/internal/ingestion"
	"github.com/jonathan/tender-matcher/internal/match"
	"github.com/jonathan/tender-matcher/internal/retrieval"
	"github.com/jonathan/tender-matcher/internal/store/local"
	"github.com/jonathan/tender-matcher/internal/types"
)

// scenarioProvider puts construction-flavored texts near each other and
// catering far away.
type scenarioProvider struct{}

func (scenarioProvider) Embed(_ context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "BuildCo"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "Highway renovation"):
		return []float32{0.97, 0.03, 0}, nil
	case strings.Contains(text, "Bridge repair"):
		return []float32{0.9, 0.1, 0}, nil
	case strings.Contains(text, "Catering"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func (scenarioProvider) Dimension() int { return 3 }

// TestRecommendationPipeline walks the full flow: index a company and a set
// of tenders into the embedded store, then produce recommendations through
// retrieval, analysis, and ranking.
func TestRecommendationPipeline(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -7)
	future := now.AddDate(0, 0, 30)

	backend, err := local.Open(t.TempDir(), scenarioProvider{}, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	ingestor := ingestion.New(backend, zap.NewNop())

	company := &types.CompanyProfile{
		ID:         "buildco",
		Name:       "BuildCo",
		Industries: []string{"Construction"},
		Size:       types.SizeMedium,
	}
	_, err = ingestor.IndexCompany(ctx, company)
	require.NoError(t, err)

	tenders := []*types.TenderRecord{
		{ID: "t-highway", Title: "Highway renovation", Categories: []string{"45233141"}, Deadline: &future},
		{ID: "t-bridge", Title: "Bridge repair", Categories: []string{"45221100"}, Deadline: &past},
		{ID: "t-catering", Title: "Catering for conferences", Deadline: &future},
	}
	for _, tender := range tenders {
		_, err := ingestor.IndexTender(ctx, tender)
		require.NoError(t, err)
	}

	llm := &scriptedLLM{responses: map[string]string{
		"Highway renovation": `{"match_score": 0.85, "reasoning": "strong sector fit", "key_strengths": ["sector match"], "recommendation": "bid"}`,
		"Bridge repair":      `{"match_score": 0.8, "reasoning": "good fit but expired"}`,
		"Catering":           `{"match_score": 0.1, "reasoning": "wrong industry"}`,
	}}

	retriever := retrieval.New(backend, scenarioProvider{}, retrieval.DefaultOverFetch, zap.NewNop())
	analyzer := match.NewAnalyzer(llm, 0, zap.NewNop())
	o := New(retriever, analyzer, 2, zap.NewNop())
	o.now = func() time.Time { return now }

	entries, err := o.RecommendTendersForCompany(ctx, company, Options{
		MaxResults:    5,
		FilterExpired: true,
	})
	require.NoError(t, err)

	// The expired bridge tender and the low-scoring catering tender are
	// both filtered; only the highway tender survives.
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "t-highway", entry.Tender.ID)
	assert.Equal(t, 0.85, entry.Analysis.MatchScore)
	assert.Equal(t, []string{"sector match"}, entry.Analysis.KeyStrengths)
	assert.InDelta(t, 1.0, entry.Similarity, 0.1)
	assert.Equal(t, "Construction", entry.Tender.Sector, "ingestion classified the tender")

	// The reverse direction finds the company for the open tender.
	reverse, err := o.RecommendCompaniesForTender(ctx, tenders[0], Options{MaxResults: 5})
	require.NoError(t, err)
	require.Len(t, reverse, 1)
	assert.Equal(t, "BuildCo", reverse[0].Company.Name)
}

// sectorProvider places the IT tender closest to the technology company.
type sectorProvider struct{}

func (sectorProvider) Embed(_ context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "CloudWorks"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "platform"):
		return []float32{0.95, 0.05, 0}, nil
	case strings.Contains(text, "motorway"):
		return []float32{0.1, 0.9, 0}, nil
	case strings.Contains(text, "wind"):
		return []float32{0.1, 0, 0.9}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func (sectorProvider) Dimension() int { return 3 }

// TestCrossSectorRanking indexes tenders from three sectors and checks that
// a technology company gets the IT tender ranked first.
func TestCrossSectorRanking(t *testing.T) {
	ctx := context.Background()

	backend, err := local.Open(t.TempDir(), sectorProvider{}, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()

	ingestor := ingestion.New(backend, zap.NewNop())

	company := &types.CompanyProfile{
		ID:         "cloudworks",
		Name:       "CloudWorks",
		Industries: []string{"Technology"},
		Services:   []string{"Cloud Computing"},
	}
	_, err = ingestor.IndexCompany(ctx, company)
	require.NoError(t, err)

	for _, tender := range []*types.TenderRecord{
		{ID: "t-it", Title: "Cloud platform migration", Categories: []string{"48000000"}},
		{ID: "t-con", Title: "New motorway section", Categories: []string{"45000000"}},
		{ID: "t-en", Title: "Offshore wind farm maintenance", Categories: []string{"31000000"}},
	} {
		_, err := ingestor.IndexTender(ctx, tender)
		require.NoError(t, err)
	}

	llm := &scriptedLLM{responses: map[string]string{
		"platform": `{"match_score": 0.9, "reasoning": "direct service overlap"}`,
		"motorway": `{"match_score": 0.35, "reasoning": "no construction capability overlap"}`,
		"wind":     `{"match_score": 0.4, "reasoning": "some digital monitoring angle"}`,
	}}

	retriever := retrieval.New(backend, sectorProvider{}, retrieval.DefaultOverFetch, zap.NewNop())
	o := New(retriever, match.NewAnalyzer(llm, 0, zap.NewNop()), 2, zap.NewNop())

	floor := 0.3
	entries, err := o.RecommendTendersForCompany(ctx, company, Options{MaxResults: 2, MinScore: &floor})
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "t-it", entries[0].Tender.ID, "the IT tender outranks the rest")
	assert.GreaterOrEqual(t, entries[0].Analysis.MatchScore, entries[1].Analysis.MatchScore)
	for _, e := range entries {
		require.NotNil(t, e.Analysis)
		assert.NotEmpty(t, e.Analysis.Reasoning)
	}
}
