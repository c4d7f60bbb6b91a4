package types

// MatchAnalysis is the structured verdict produced by the LLM for one
// (tender, company) pair. It is ephemeral and recomputed on each request.
type MatchAnalysis struct {
	MatchScore          float64  `json:"match_score"`
	Reasoning           string   `json:"reasoning"`
	KeyStrengths        []string `json:"key_strengths"`
	PotentialChallenges []string `json:"potential_challenges"`
	Recommendation      string   `json:"recommendation"`

	// Degraded marks a fallback analysis synthesized from an unparseable
	// LLM response. Its score is the neutral 0.5 sentinel, not a measured
	// value.
	Degraded bool `json:"-"`
}

// RecommendationEntry pairs one candidate record with its match analysis and
// the raw vector similarity that surfaced it as a candidate.
type RecommendationEntry struct {
	Tender     *TenderRecord   `json:"tender,omitempty"`
	Company    *CompanyProfile `json:"company,omitempty"`
	Analysis   *MatchAnalysis  `json:"analysis"`
	Similarity float64         `json:"vector_similarity"`
}
