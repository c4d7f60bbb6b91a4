package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/tender-matcher/internal/types"
)

func TestDenormalizeTender(t *testing.T) {
	value := 500000.0
	doc := types.NewTenderDocument(&types.TenderRecord{
		ID:             "t1",
		Title:          "Road works",
		Location:       "DE21",
		Categories:     []string{"45233141"},
		EstimatedValue: &value,
	})

	data, title, location, categories, estValue, err := denormalize(doc)

	require.NoError(t, err)
	assert.Equal(t, "Road works", title)
	assert.Equal(t, "DE21", location)
	assert.Equal(t, []string{"45233141"}, categories)
	require.NotNil(t, estValue)
	assert.Equal(t, 500000.0, *estValue)
	assert.Contains(t, string(data), `"title":"Road works"`)
}

func TestDenormalizeCompany(t *testing.T) {
	doc := types.NewCompanyDocument(&types.CompanyProfile{
		ID:         "c1",
		Name:       "Acme",
		Location:   "Munich",
		Industries: []string{"Construction"},
	})

	_, title, location, categories, value, err := denormalize(doc)

	require.NoError(t, err)
	assert.Equal(t, "Acme", title)
	assert.Equal(t, "Munich", location)
	assert.Equal(t, []string{"Construction"}, categories)
	assert.Nil(t, value)
}

func TestDenormalizeUnknownKind(t *testing.T) {
	_, _, _, _, _, err := denormalize(&types.Document{ID: "x", Kind: "widget"})
	assert.ErrorContains(t, err, "unknown entity kind")
}

func TestDecodeDocumentRoundTrip(t *testing.T) {
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	original := types.NewTenderDocument(&types.TenderRecord{
		ID:         "t1",
		Title:      "Road works",
		Categories: []string{"45233141"},
	})
	data, _, _, _, _, err := denormalize(original)
	require.NoError(t, err)

	doc, err := decodeDocument("t1", types.KindTender, data, created)

	require.NoError(t, err)
	assert.Equal(t, "t1", doc.ID)
	assert.Equal(t, types.KindTender, doc.Kind)
	assert.Equal(t, "Road works", doc.Tender.Title)
	assert.Equal(t, created, doc.CreatedAt)
}

func TestDecodeDocumentErrors(t *testing.T) {
	_, err := decodeDocument("t1", types.KindTender, []byte("not json"), time.Time{})
	assert.ErrorContains(t, err, "decode tender")

	_, err = decodeDocument("x", "widget", []byte("{}"), time.Time{})
	assert.ErrorContains(t, err, "unknown entity kind")
}
