package tendersource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	tedBaseURL    = "https://api.ted.europa.eu"
	tedSearchPath = "/v3.0/notices/search"
	tedMaxPage    = 100
	tedSourceName = "EU TED"
)

// TEDClient queries the EU Tenders Electronic Daily API.
type TEDClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// TEDOption customizes the client.
type TEDOption func(*TEDClient)

// WithTEDBaseURL overrides the API base URL, mainly for tests.
func WithTEDBaseURL(url string) TEDOption {
	return func(c *TEDClient) { c.baseURL = url }
}

// NewTEDClient creates a TED API client.
func NewTEDClient(apiKey string, logger *zap.Logger, opts ...TEDOption) *TEDClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &TEDClient{
		baseURL:    tedBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tedSearchRequest struct {
	Query        string   `json:"q"`
	PageSize     int      `json:"pageSize"`
	PageNum      int      `json:"pageNum"`
	DateFrom     string   `json:"publicationDateFrom"`
	DateTo       string   `json:"publicationDateTo"`
	Scope        int      `json:"scope"`
	DocumentType []string `json:"documentType"`
	CountryCode  []string `json:"countryCode,omitempty"`
	CPVCode      []string `json:"cpvCode,omitempty"`
}

type tedSearchResponse struct {
	Notices []json.RawMessage `json:"notices"`
}

// Search queries the TED notice search endpoint and returns standardized
// raw tender maps. Notices that fail to parse are skipped, not fatal.
func (c *TEDClient) Search(ctx context.Context, query string, opts SearchOptions) ([]RawTender, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	if opts.DaysBack <= 0 {
		opts.DaysBack = 30
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	pageSize := opts.MaxResults
	if pageSize > tedMaxPage {
		pageSize = tedMaxPage
	}

	payload := tedSearchRequest{
		Query:        query,
		PageSize:     pageSize,
		PageNum:      1,
		DateFrom:     now.AddDate(0, 0, -opts.DaysBack).Format("2006-01-02"),
		DateTo:       now.Format("2006-01-02"),
		Scope:        3,
		DocumentType: []string{"CONTRACT_NOTICE", "CALL_FOR_COMPETITION"},
		CountryCode:  opts.CountryCodes,
		CPVCode:      opts.CPVCodes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal TED search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tedSearchPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TED search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("TED search returned %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read TED response: %w", err)
	}

	var parsed tedSearchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode TED response: %w", err)
	}

	tenders := make([]RawTender, 0, len(parsed.Notices))
	for _, noticeRaw := range parsed.Notices {
		if len(tenders) >= opts.MaxResults {
			break
		}
		var notice map[string]any
		if err := json.Unmarshal(noticeRaw, &notice); err != nil {
			c.logger.Warn("skipping unparseable TED notice", zap.Error(err))
			continue
		}
		tenders = append(tenders, parseNotice(notice))
	}

	c.logger.Info("TED search completed",
		zap.String("query", query),
		zap.Int("results", len(tenders)),
	)
	return tenders, nil
}

// parseNotice maps a TED notice onto the standardized raw tender shape.
func parseNotice(notice map[string]any) RawTender {
	id := stringField(notice, "noticeId")
	if ojs, ok := notice["noticeOjs"].(map[string]any); ok {
		if n := stringField(ojs, "ojsNumber"); n != "" {
			id = n
		}
	}

	organization := ""
	if body, ok := notice["contractingBody"].(map[string]any); ok {
		organization = multilingualText(body["officialName"])
	}

	location := ""
	if place, ok := notice["placeOfPerformance"].(map[string]any); ok {
		if nuts, ok := place["nuts"].(map[string]any); ok {
			location = stringField(nuts, "code")
		} else if country, ok := place["country"].(map[string]any); ok {
			location = stringField(country, "code")
		}
	}

	var estimatedValue any
	currency := "EUR"
	if lots, ok := notice["lotInfo"].([]any); ok && len(lots) > 0 {
		if lot, ok := lots[0].(map[string]any); ok {
			if ev, ok := lot["estimatedValue"].(map[string]any); ok {
				estimatedValue = ev["value"]
				if c := stringField(ev, "currency"); c != "" {
					currency = c
				}
			}
		}
	}

	deadline := ""
	if d, ok := notice["tenderSubmissionDeadline"].(map[string]any); ok {
		deadline = stringField(d, "date")
	}

	var categories []string
	if cpv, ok := notice["cpv"].(map[string]any); ok {
		if main, ok := cpv["main"].(map[string]any); ok {
			if code := stringField(main, "code"); code != "" {
				categories = append(categories, code)
			}
		}
	}

	return RawTender{
		"id":               id,
		"title":            multilingualText(notice["title"]),
		"description":      multilingualText(notice["shortDescription"]),
		"organization":     organization,
		"location":         location,
		"estimated_value":  estimatedValue,
		"currency":         currency,
		"deadline":         deadline,
		"category":         categories,
		"cpv_codes":        categories,
		"source":           tedSourceName,
		"source_url":       fmt.Sprintf("https://ted.europa.eu/udl?uri=TED:NOTICE:%s", id),
		"publication_date": stringField(notice, "publicationDate"),
	}
}

// multilingualText extracts text from a TED multilingual object, preferring
// English.
func multilingualText(v any) string {
	switch text := v.(type) {
	case string:
		return text
	case map[string]any:
		if s, ok := text["en"].(string); ok {
			return s
		}
		for _, lang := range []string{"fr", "de", "es", "it"} {
			if s, ok := text[lang].(string); ok {
				return s
			}
		}
		for _, val := range text {
			if s, ok := val.(string); ok {
				return s
			}
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
