package service

import (
	"strings"

	"github.com/vadymuxd/searching-the-fox/internal/domain"
)

// NormalizeKeywords trims, lowercases, and drops empty entries so that
// matching is a plain substring check downstream.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// FilterByKeywords returns the jobs whose title contains at least one of the
// keywords, case-insensitively. Input order is preserved. An empty keyword
// list matches nothing.
func FilterByKeywords(jobs []*domain.JobPosting, keywords []string) []*domain.JobPosting {
	normalized := NormalizeKeywords(keywords)
	if len(normalized) == 0 {
		return nil
	}

	var matched []*domain.JobPosting
	for _, job := range jobs {
		title := strings.ToLower(job.Title)
		for _, kw := range normalized {
			if strings.Contains(title, kw) {
				matched = append(matched, job)
				break
			}
		}
	}
	return matched
}
