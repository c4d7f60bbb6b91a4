package match

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/tender-matcher/internal/types"
)

// fakeLLM returns canned responses and records the prompts it received.
type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) Close() error { return nil }

func testCompany() *types.CompanyProfile {
	return &types.CompanyProfile{
		ID:         "c1",
		Name:       "Acme Engineering",
		Industries: []string{"Construction"},
		Size:       types.SizeMedium,
	}
}

func testTender() *types.TenderRecord {
	return &types.TenderRecord{
		ID:         "t1",
		Title:      "Road resurfacing works",
		Categories: []string{"45233141"},
	}
}

func TestAnalyzeTenderMatch(t *testing.T) {
	llm := &fakeLLM{response: `{"match_score": 0.8, "reasoning": "good fit"}`}
	analyzer := NewAnalyzer(llm, 0, zap.NewNop())

	analysis, err := analyzer.AnalyzeTenderMatch(context.Background(), testCompany(), testTender())

	require.NoError(t, err)
	assert.Equal(t, 0.8, analysis.MatchScore)
	assert.False(t, analysis.Degraded)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Acme Engineering")
	assert.Contains(t, llm.prompts[0], "Road resurfacing works")
	assert.Contains(t, llm.prompts[0], "match_score")
}

func TestAnalyzeCompanyMatchPromptDirection(t *testing.T) {
	llm := &fakeLLM{response: `{"match_score": 0.6, "reasoning": "ok"}`}
	analyzer := NewAnalyzer(llm, 0, zap.NewNop())

	_, err := analyzer.AnalyzeCompanyMatch(context.Background(), testTender(), testCompany())

	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.True(t, strings.Index(llm.prompts[0], "TENDER REQUIREMENTS:") < strings.Index(llm.prompts[0], "COMPANY PROFILE:"),
		"company-direction prompt leads with the tender")
}

func TestAnalyzeAPIFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	analyzer := NewAnalyzer(llm, 0, zap.NewNop())

	_, err := analyzer.AnalyzeTenderMatch(context.Background(), testCompany(), testTender())

	require.Error(t, err)
	var apiErr *APICallError
	assert.True(t, errors.As(err, &apiErr))
	assert.ErrorContains(t, err, "rate limited")
}

func TestAnalyzeUnparseableResponseDegrades(t *testing.T) {
	llm := &fakeLLM{response: "I refuse to answer in JSON."}
	analyzer := NewAnalyzer(llm, 0, zap.NewNop())

	analysis, err := analyzer.AnalyzeTenderMatch(context.Background(), testCompany(), testTender())

	require.NoError(t, err, "an unparseable response is not an analysis failure")
	assert.True(t, analysis.Degraded)
	assert.Equal(t, "I refuse to answer in JSON.", analysis.Reasoning)
}

func TestPromptTruncatesLongDescriptions(t *testing.T) {
	tender := testTender()
	tender.Description = strings.Repeat("x", 2000)

	prompt := buildTenderAnalysisPrompt(testCompany(), tender)

	assert.NotContains(t, prompt, strings.Repeat("x", 600))
	assert.Contains(t, prompt, strings.Repeat("x", 500)+"...")
}

func TestPromptMissingFieldsShowNA(t *testing.T) {
	prompt := buildCompanyAnalysisPrompt(&types.TenderRecord{Title: "T"}, &types.CompanyProfile{Name: "C"})

	assert.Contains(t, prompt, "Location: N/A")
	assert.Contains(t, prompt, "Services: N/A")
}
