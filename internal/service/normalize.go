package service

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/vadymuxd/searching-the-fox/internal/domain"
	"github.com/vadymuxd/searching-the-fox/internal/scraper"
)

// Defaults substituted when the upstream row is missing or malformed.
const (
	defaultTitle    = "No title"
	defaultCompany  = "Unknown company"
	defaultLocation = "Unknown location"

	maxDescriptionLen = 500
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// dateLayouts are tried in order when parsing upstream posted dates. Some
// boards return bare dates, others full timestamps.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeJob converts one loosely-typed scrape row into a fully-typed
// JobPosting. The function is total: missing or malformed fields degrade to
// documented defaults and never produce an error.
func NormalizeJob(raw *scraper.RawJob) *domain.JobPosting {
	job := &domain.JobPosting{
		ID:       uuid.New().String(),
		Site:     stringOrDefault(raw.Site, "unknown"),
		Title:    stringOrDefault(raw.Title, defaultTitle),
		Company:  stringOrDefault(raw.Company, defaultCompany),
		Location: stringOrDefault(raw.Location, defaultLocation),
		JobURL:   cleanString(raw.JobURL),
	}

	if raw.IsRemote != nil {
		job.IsRemote = *raw.IsRemote
	}

	if t, ok := parseDate(raw.DatePosted); ok {
		job.DatePosted = &t
	}

	job.SalaryMin = parseAmount(raw.MinAmount)
	job.SalaryMax = parseAmount(raw.MaxAmount)
	if cur := cleanString(raw.Currency); cur != "" {
		job.SalaryCurrency = cur
	}

	job.Description = normalizeDescription(raw.Description)
	job.JobType = cleanString(raw.JobType)
	job.Emails = parseEmails(raw.Emails)

	return job
}

// cleanString trims a raw value and treats the upstream's "nan" marker as
// absent.
func cleanString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none") {
		return ""
	}
	return s
}

func stringOrDefault(s, def string) string {
	if v := cleanString(s); v != "" {
		return v
	}
	return def
}

// parseDate tries the known upstream layouts and reports whether a usable
// date was found.
func parseDate(s string) (time.Time, bool) {
	v := cleanString(s)
	if v == "" || v == "Not specified" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseAmount converts a salary value that may arrive as a JSON number, a
// numeric string, or garbage. Garbage degrades to absent.
func parseAmount(v interface{}) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return &val
	case int:
		f := float64(val)
		return &f
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return &f
		}
	case string:
		s := cleanString(val)
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// parseEmails accepts a single address or a list of addresses.
func parseEmails(v interface{}) domain.StringArray {
	switch val := v.(type) {
	case string:
		if s := cleanString(val); s != "" {
			return domain.StringArray{s}
		}
	case []interface{}:
		var emails domain.StringArray
		for _, item := range val {
			if s, ok := item.(string); ok {
				if s = cleanString(s); s != "" {
					emails = append(emails, s)
				}
			}
		}
		return emails
	case []string:
		var emails domain.StringArray
		for _, s := range val {
			if s = cleanString(s); s != "" {
				emails = append(emails, s)
			}
		}
		return emails
	}
	return nil
}

// normalizeDescription strips markup, unescapes entities, and caps the text
// at 500 characters.
func normalizeDescription(s string) string {
	v := cleanString(s)
	if v == "" {
		return ""
	}
	v = StripMarkup(v)
	if utf8.RuneCountInString(v) > maxDescriptionLen {
		v = truncateRunes(v, maxDescriptionLen-3) + "..."
	}
	return v
}

// StripMarkup removes HTML tags and unescapes entities, leaving plain text.
func StripMarkup(s string) string {
	stripped := tagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// truncateRunes cuts a string to at most n characters without splitting a
// multi-byte rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
