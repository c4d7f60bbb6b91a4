package match

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jonathan/tender-matcher/internal/types"
)

// fallbackScore is the neutral sentinel used when the LLM response carries
// no parseable analysis. It marks "unknown", not a measured midpoint.
const fallbackScore = 0.5

// ExtractJSONObject returns the substring between the first '{' and the
// last '}' of raw. Conversational preambles, trailing remarks, and markdown
// fences all fall outside that span, so no separate cleanup pass is needed.
func ExtractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// ParseAnalysis converts a raw LLM response into a MatchAnalysis. It never
// fails: when the response carries no JSON object, or the object is missing
// the required match_score and reasoning fields, the result is a degraded
// analysis with the neutral 0.5 score and the raw response as reasoning.
// Out-of-range scores are clamped, not passed through.
func ParseAnalysis(raw string) *types.MatchAnalysis {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return degradedAnalysis(raw)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return degradedAnalysis(raw)
	}

	score, hasScore := coerceFloat(fields["match_score"])
	reasoning := coerceString(fields["reasoning"])
	if !hasScore || reasoning == "" {
		return degradedAnalysis(raw)
	}

	return &types.MatchAnalysis{
		MatchScore:          clampScore(score),
		Reasoning:           reasoning,
		KeyStrengths:        coerceStringSlice(fields["key_strengths"]),
		PotentialChallenges: coerceStringSlice(fields["potential_challenges"]),
		Recommendation:      coerceString(fields["recommendation"]),
	}
}

func degradedAnalysis(raw string) *types.MatchAnalysis {
	return &types.MatchAnalysis{
		MatchScore:          fallbackScore,
		Reasoning:           raw,
		KeyStrengths:        []string{},
		PotentialChallenges: []string{},
		Recommendation:      "Analysis available in reasoning field",
		Degraded:            true,
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coerceStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
