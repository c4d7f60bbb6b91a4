package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntityKind discriminates the two record collections held by a store.
type EntityKind string

// Entity kinds.
const (
	KindTender  EntityKind = "tender"
	KindCompany EntityKind = "company"
)

// Document is the backend-agnostic envelope every store implementation
// persists: one record of either kind plus its current embedding vector.
// Its JSON form is {id, type, data, embedding, created_at}, with the
// wrapped record under the data key regardless of kind.
type Document struct {
	ID        string
	Kind      EntityKind
	Tender    *TenderRecord
	Company   *CompanyProfile
	Embedding []float32
	CreatedAt time.Time
}

// documentEnvelope is the wire form of Document.
type documentEnvelope struct {
	ID        string          `json:"id"`
	Kind      EntityKind      `json:"type"`
	Data      json.RawMessage `json:"data"`
	Embedding []float32       `json:"embedding,omitempty"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// MarshalJSON serializes the wrapped record under a single data key so
// local snapshots and Postgres rows share one export shape.
func (d *Document) MarshalJSON() ([]byte, error) {
	var (
		data json.RawMessage
		err  error
	)
	switch {
	case d.Tender != nil:
		data, err = json.Marshal(d.Tender)
	case d.Company != nil:
		data, err = json.Marshal(d.Company)
	}
	if err != nil {
		return nil, fmt.Errorf("marshaling %s record %q: %w", d.Kind, d.ID, err)
	}
	return json.Marshal(documentEnvelope{
		ID:        d.ID,
		Kind:      d.Kind,
		Data:      data,
		Embedding: d.Embedding,
		CreatedAt: d.CreatedAt,
	})
}

// UnmarshalJSON decodes the data payload into the record type named by
// the envelope's kind.
func (d *Document) UnmarshalJSON(raw []byte) error {
	var env documentEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	d.ID = env.ID
	d.Kind = env.Kind
	d.Embedding = env.Embedding
	d.CreatedAt = env.CreatedAt
	d.Tender = nil
	d.Company = nil
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	switch env.Kind {
	case KindTender:
		d.Tender = &TenderRecord{}
		if err := json.Unmarshal(env.Data, d.Tender); err != nil {
			return fmt.Errorf("decoding tender record %q: %w", env.ID, err)
		}
	case KindCompany:
		d.Company = &CompanyProfile{}
		if err := json.Unmarshal(env.Data, d.Company); err != nil {
			return fmt.Errorf("decoding company profile %q: %w", env.ID, err)
		}
	}
	return nil
}

// NewTenderDocument wraps a tender record for storage.
func NewTenderDocument(t *TenderRecord) *Document {
	return &Document{ID: t.ID, Kind: KindTender, Tender: t}
}

// NewCompanyDocument wraps a company profile for storage.
func NewCompanyDocument(c *CompanyProfile) *Document {
	return &Document{ID: c.ID, Kind: KindCompany, Company: c}
}

// Validate checks that the envelope is internally consistent and that the
// wrapped record passes its own validation.
func (d *Document) Validate() error {
	switch d.Kind {
	case KindTender:
		if d.Tender == nil {
			return fmt.Errorf("tender document %q has no tender record", d.ID)
		}
		return d.Tender.Validate()
	case KindCompany:
		if d.Company == nil {
			return fmt.Errorf("company document %q has no company profile", d.ID)
		}
		return d.Company.Validate()
	default:
		return fmt.Errorf("unknown entity kind %q", d.Kind)
	}
}

// EmbeddingText returns the canonical embedding text of the wrapped record.
func (d *Document) EmbeddingText() string {
	switch {
	case d.Tender != nil:
		return d.Tender.EmbeddingText()
	case d.Company != nil:
		return d.Company.EmbeddingText()
	default:
		return ""
	}
}

// DisplayName returns the human-readable name of the wrapped record.
func (d *Document) DisplayName() string {
	switch {
	case d.Tender != nil:
		return d.Tender.Title
	case d.Company != nil:
		return d.Company.Name
	default:
		return d.ID
	}
}
