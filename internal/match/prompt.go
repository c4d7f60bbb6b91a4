package match

import (
	"fmt"
	"strings"

	"github.com/jonathan/tender-matcher/internal/types"
)

// descriptionCap bounds the description text embedded in a prompt, keeping
// token cost predictable.
const descriptionCap = 500

// buildTenderAnalysisPrompt asks how well a tender fits a company's
// capabilities.
func buildTenderAnalysisPrompt(company *types.CompanyProfile, tender *types.TenderRecord) string {
	var sb strings.Builder

	sb.WriteString("You are an expert tender matching analyst. Analyze how well this tender matches the company's profile.\n\n")

	sb.WriteString("COMPANY PROFILE:\n")
	writeCompanyFields(&sb, company)
	sb.WriteString("\nTENDER DETAILS:\n")
	writeTenderFields(&sb, tender)

	sb.WriteString("\nEvaluate industry alignment, required expertise match, scale appropriateness, location compatibility, and certification fit.\n")
	writeResponseShape(&sb, "Strong match - company should definitely consider bidding")
	return sb.String()
}

// buildCompanyAnalysisPrompt asks how well a company fits a tender's
// requirements.
func buildCompanyAnalysisPrompt(tender *types.TenderRecord, company *types.CompanyProfile) string {
	var sb strings.Builder

	sb.WriteString("You are an expert procurement analyst. Analyze how well this company fits the requirements of the tender.\n\n")

	sb.WriteString("TENDER REQUIREMENTS:\n")
	writeTenderFields(&sb, tender)
	sb.WriteString("\nCOMPANY PROFILE:\n")
	writeCompanyFields(&sb, company)

	sb.WriteString("\nEvaluate industry alignment, required expertise match, scale appropriateness, location compatibility, and certification fit.\n")
	writeResponseShape(&sb, "Highly suitable candidate for this tender")
	return sb.String()
}

func writeTenderFields(sb *strings.Builder, t *types.TenderRecord) {
	fmt.Fprintf(sb, "Title: %s\n", orNA(t.Title))
	fmt.Fprintf(sb, "Description: %s\n", orNA(truncate(t.Description, descriptionCap)))
	fmt.Fprintf(sb, "Categories: %s\n", orNA(strings.Join(t.Categories, ", ")))
	fmt.Fprintf(sb, "Organization: %s\n", orNA(t.Organization))
	fmt.Fprintf(sb, "Location: %s\n", orNA(t.Location))
	if t.EstimatedValue != nil {
		fmt.Fprintf(sb, "Estimated Value: %.0f %s\n", *t.EstimatedValue, t.Currency)
	}
	if t.Deadline != nil {
		fmt.Fprintf(sb, "Deadline: %s\n", t.Deadline.Format("2006-01-02"))
	}
}

func writeCompanyFields(sb *strings.Builder, c *types.CompanyProfile) {
	fmt.Fprintf(sb, "Name: %s\n", orNA(c.Name))
	fmt.Fprintf(sb, "Description: %s\n", orNA(truncate(c.Description, descriptionCap)))
	fmt.Fprintf(sb, "Industry: %s\n", orNA(strings.Join(c.Industries, ", ")))
	fmt.Fprintf(sb, "Services: %s\n", orNA(strings.Join(c.Services, ", ")))
	fmt.Fprintf(sb, "Expertise: %s\n", orNA(strings.Join(c.Expertise, ", ")))
	fmt.Fprintf(sb, "Location: %s\n", orNA(c.Location))
	fmt.Fprintf(sb, "Size: %s\n", orNA(string(c.Size)))
}

func writeResponseShape(sb *strings.Builder, exampleRecommendation string) {
	sb.WriteString("\nProvide your analysis in the following JSON format:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"match_score\": 0.85,\n")
	sb.WriteString("  \"reasoning\": \"Detailed explanation of the match including strengths and potential gaps\",\n")
	sb.WriteString("  \"key_strengths\": [\"strength1\", \"strength2\"],\n")
	sb.WriteString("  \"potential_challenges\": [\"challenge1\", \"challenge2\"],\n")
	fmt.Fprintf(sb, "  \"recommendation\": %q\n", exampleRecommendation)
	sb.WriteString("}\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
