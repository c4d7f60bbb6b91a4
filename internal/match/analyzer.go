// Package match produces structured LLM match verdicts for
// (tender, company) pairs.
package match

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/tender-matcher/internal/llm"
	"github.com/jonathan/tender-matcher/internal/types"
)

const defaultTimeout = 60 * time.Second

// Analyzer asks the language model for a match verdict and parses the
// response. It applies no score threshold itself; relevance filtering is
// orchestration-layer policy.
type Analyzer struct {
	client  llm.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewAnalyzer creates an Analyzer. A non-positive timeout uses the default
// per-call bound.
func NewAnalyzer(client llm.Client, timeout time.Duration, logger *zap.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{client: client, timeout: timeout, logger: logger}
}

// AnalyzeTenderMatch scores how well a tender fits a company's profile.
// An error means the completion call itself failed; an unparseable response
// is not an error, it degrades (see ParseAnalysis).
func (a *Analyzer) AnalyzeTenderMatch(ctx context.Context, company *types.CompanyProfile, tender *types.TenderRecord) (*types.MatchAnalysis, error) {
	prompt := buildTenderAnalysisPrompt(company, tender)
	return a.analyze(ctx, prompt, tender.ID, company.ID)
}

// AnalyzeCompanyMatch scores how well a company fits a tender's
// requirements.
func (a *Analyzer) AnalyzeCompanyMatch(ctx context.Context, tender *types.TenderRecord, company *types.CompanyProfile) (*types.MatchAnalysis, error) {
	prompt := buildCompanyAnalysisPrompt(tender, company)
	return a.analyze(ctx, prompt, tender.ID, company.ID)
}

func (a *Analyzer) analyze(ctx context.Context, prompt, tenderID, companyID string) (*types.MatchAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, &APICallError{Message: "match analysis generation failed", Cause: err}
	}

	analysis := ParseAnalysis(raw)
	if analysis.Degraded {
		a.logger.Warn("LLM response not parseable, using degraded analysis",
			zap.String("tender_id", tenderID),
			zap.String("company_id", companyID),
		)
	}
	return analysis, nil
}
