// Package types defines the core record types exchanged between the vector
// store, the retriever, and the match pipeline.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Attachment describes a document attached to a tender notice.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TenderRecord is a normalized procurement tender notice.
type TenderRecord struct {
	ID              string       `json:"id"`
	Title           string       `json:"title" validate:"required,min=1"`
	Description     string       `json:"description"`
	Organization    string       `json:"organization"`
	Location        string       `json:"location"`
	Categories      []string     `json:"category"`
	EstimatedValue  *float64     `json:"estimated_value,omitempty"`
	Currency        string       `json:"currency,omitempty"`
	Deadline        *time.Time   `json:"deadline,omitempty"`
	PublicationDate *time.Time   `json:"publication_date,omitempty"`
	Source          string       `json:"source"`
	SourceURL       string       `json:"source_url"`
	Attachments     []Attachment `json:"attachments,omitempty"`

	// Derived classification fields, populated at ingestion time.
	Sector     string  `json:"sector,omitempty"`
	Complexity float64 `json:"complexity_score,omitempty"`
}

// Validate checks that the record carries the identity-bearing fields
// required before it may be upserted.
func (t *TenderRecord) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Message: "tender title is required"}
	}
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return &ValidationError{Field: "tender", Message: err.Error()}
	}
	return nil
}

// Expired reports whether the submission deadline has passed. A tender with
// no deadline is never expired.
func (t *TenderRecord) Expired(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now)
}

// EmbeddingText builds the canonical text representation used to embed this
// tender. The same function serves both the index-time and the query-time
// path, so stored vectors and query vectors live in the same space.
func (t *TenderRecord) EmbeddingText() string {
	var parts []string

	if t.Title != "" {
		parts = append(parts, "Title: "+t.Title)
	}
	if t.Description != "" {
		parts = append(parts, "Description: "+t.Description)
	}
	if len(t.Categories) > 0 {
		parts = append(parts, "Categories: "+strings.Join(t.Categories, ", "))
	}
	if t.Organization != "" {
		parts = append(parts, "Organization: "+t.Organization)
	}
	if t.Location != "" {
		parts = append(parts, "Location: "+t.Location)
	}
	if t.EstimatedValue != nil {
		parts = append(parts, fmt.Sprintf("Estimated Value: %.0f %s", *t.EstimatedValue, t.Currency))
	}

	return strings.Join(parts, " | ")
}
