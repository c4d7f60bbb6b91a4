package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/tender-matcher/internal/llm"
	"github.com/jonathan/tender-matcher/internal/match"
	"github.com/jonathan/tender-matcher/internal/types"
)

// profileExtractionPrompt asks the model for a structured company profile.
const profileExtractionPrompt = `You are a company profile analysis system. Please extract structured information from the following company document.

Document Content:
%s

Extract the following information:
1. Company name
2. Brief description of the company
3. Industry sectors they operate in
4. Services they offer
5. Key expertise areas
6. Company size/scale
7. Notable past projects or clients
8. Certifications or compliance standards
9. Location information
10. Any other relevant information for matching with tenders

Format your response as a JSON object with the following structure:
{
  "name": "Company Name",
  "description": "Brief description of the company",
  "industry": ["Industry1", "Industry2"],
  "services": ["Service1", "Service2"],
  "expertise": ["Expertise1", "Expertise2"],
  "size": "Small/Medium/Large",
  "past_projects": [
    { "name": "Project Name", "description": "Brief description" }
  ],
  "certifications": ["Certification1", "Certification2"],
  "location": "Company location",
  "founded_year": 2005
}`

// ProfileExtractor turns free-form company documents into structured
// profiles via the LLM.
type ProfileExtractor struct {
	client llm.Client
}

// NewProfileExtractor creates a ProfileExtractor.
func NewProfileExtractor(client llm.Client) *ProfileExtractor {
	return &ProfileExtractor{client: client}
}

// ExtractProfile derives a CompanyProfile from raw document text. The
// model's JSON is parsed tolerantly, but a response with no usable JSON
// object or no company name is an error: a profile without a name cannot
// be indexed.
func (p *ProfileExtractor) ExtractProfile(ctx context.Context, documentText string) (*types.CompanyProfile, error) {
	text := CleanText(documentText)
	if text == "" {
		return nil, fmt.Errorf("document text is empty")
	}

	response, err := p.client.GenerateContent(ctx, fmt.Sprintf(profileExtractionPrompt, text))
	if err != nil {
		return nil, &match.APICallError{Message: "profile extraction failed", Cause: err}
	}

	payload, ok := match.ExtractJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("no JSON object in profile extraction response")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("parsing profile extraction response: %w", err)
	}

	profile := types.NormalizeCompany(raw)
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("extracted profile is unusable: %w", err)
	}
	return profile, nil
}

var multiBlank = regexp.MustCompile(`\n{3,}`)

// CleanText normalizes line endings and whitespace in a document before it
// is handed to the model.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	content = multiBlank.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
