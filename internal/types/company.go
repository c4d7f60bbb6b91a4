package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// CompanySize is the closed set of company size classifications.
type CompanySize string

// Company size classifications.
const (
	SizeSmall  CompanySize = "Small"
	SizeMedium CompanySize = "Medium"
	SizeLarge  CompanySize = "Large"
)

// CompanyProfile is a normalized company capability profile.
type CompanyProfile struct {
	ID             string      `json:"id"`
	Name           string      `json:"name" validate:"required,min=1"`
	Description    string      `json:"description"`
	Industries     []string    `json:"industry"`
	Services       []string    `json:"services"`
	Expertise      []string    `json:"expertise"`
	Location       string      `json:"location"`
	Size           CompanySize `json:"size,omitempty" validate:"omitempty,oneof=Small Medium Large"`
	FoundedYear    *int        `json:"founded_year,omitempty"`
	Certifications []string    `json:"certifications,omitempty"`
	PastProjects   []string    `json:"past_projects,omitempty"`
	ContactInfo    string      `json:"contact_info,omitempty"`
}

// Validate checks the profile's required fields and the size enumeration.
func (c *CompanyProfile) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "company name is required"}
	}
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return &ValidationError{Field: "size", Message: "size must be one of Small, Medium, Large"}
	}
	return nil
}

// EmbeddingText builds the canonical text representation used to embed this
// profile. Index time and query time share this function.
func (c *CompanyProfile) EmbeddingText() string {
	var parts []string

	if c.Name != "" {
		parts = append(parts, "Company: "+c.Name)
	}
	if c.Description != "" {
		parts = append(parts, "Description: "+c.Description)
	}
	if len(c.Industries) > 0 {
		parts = append(parts, "Industries: "+strings.Join(c.Industries, ", "))
	}
	if len(c.Services) > 0 {
		parts = append(parts, "Services: "+strings.Join(c.Services, ", "))
	}
	if len(c.Expertise) > 0 {
		parts = append(parts, "Expertise: "+strings.Join(c.Expertise, ", "))
	}
	if c.Location != "" {
		parts = append(parts, "Location: "+c.Location)
	}
	if c.Size != "" {
		parts = append(parts, "Size: "+string(c.Size))
	}

	return strings.Join(parts, " | ")
}
