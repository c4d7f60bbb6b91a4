package types

import (
	"strconv"
	"strings"
	"time"
)

// deadlineLayouts are the timestamp shapes tender sources emit. A value that
// matches none of them is treated as absent, never as an error.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeTender converts an unvalidated raw tender map, as returned by a
// tender source, into a typed record. Absent fields default here, in one
// place, rather than at each call site.
func NormalizeTender(raw map[string]any) *TenderRecord {
	t := &TenderRecord{
		ID:           asString(raw["id"]),
		Title:        asString(raw["title"]),
		Description:  asString(raw["description"]),
		Organization: asString(raw["organization"]),
		Location:     asString(raw["location"]),
		Categories:   asStringSlice(raw["category"]),
		Currency:     asString(raw["currency"]),
		Source:       asString(raw["source"]),
		SourceURL:    asString(raw["source_url"]),
	}

	if len(t.Categories) == 0 {
		t.Categories = asStringSlice(raw["cpv_codes"])
	}
	if v, ok := asFloat(raw["estimated_value"]); ok {
		t.EstimatedValue = &v
	}
	t.Deadline = ParseTimestamp(asString(raw["deadline"]))
	t.PublicationDate = ParseTimestamp(asString(raw["publication_date"]))

	if atts, ok := raw["attachments"].([]any); ok {
		for _, a := range atts {
			if m, ok := a.(map[string]any); ok {
				t.Attachments = append(t.Attachments, Attachment{
					Name: asString(m["name"]),
					URL:  asString(m["url"]),
				})
			}
		}
	}

	return t
}

// NormalizeCompany converts a raw company map into a typed profile.
func NormalizeCompany(raw map[string]any) *CompanyProfile {
	c := &CompanyProfile{
		ID:             asString(raw["id"]),
		Name:           asString(raw["name"]),
		Description:    asString(raw["description"]),
		Industries:     asStringSlice(raw["industry"]),
		Services:       asStringSlice(raw["services"]),
		Expertise:      asStringSlice(raw["expertise"]),
		Location:       asString(raw["location"]),
		Certifications: asStringSlice(raw["certifications"]),
		PastProjects:   asStringSlice(raw["past_projects"]),
		ContactInfo:    asString(raw["contact_info"]),
	}

	if size := NormalizeSize(asString(raw["size"])); size != "" {
		c.Size = size
	}
	if y, ok := asFloat(raw["founded_year"]); ok {
		year := int(y)
		c.FoundedYear = &year
	}

	return c
}

// NormalizeSize maps free-form size text onto the closed CompanySize set.
// Unrecognized values map to the empty string.
func NormalizeSize(s string) CompanySize {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small":
		return SizeSmall
	case "medium", "mid", "mid-size":
		return SizeMedium
	case "large":
		return SizeLarge
	default:
		return ""
	}
}

// ParseTimestamp parses a timestamp string tolerantly. Malformed or empty
// input yields nil, so a bad deadline can never fail an ingest.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case nil:
		return ""
	default:
		return ""
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
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

func asStringSlice(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			// Some sources emit {"name": ..., "description": ...} objects
			// where others emit plain strings.
			if m, ok := item.(map[string]any); ok {
				name := asString(m["name"])
				if desc := asString(m["description"]); name != "" && desc != "" {
					name += ": " + desc
				}
				if name != "" {
					out = append(out, name)
				}
				continue
			}
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if x == "" {
			return nil
		}
		return []string{x}
	default:
		return nil
	}
}
