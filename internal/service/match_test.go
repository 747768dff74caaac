package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vadymuxd/searching-the-fox/internal/domain"
)

func TestFilterByKeywords(t *testing.T) {
	jobs := []*domain.JobPosting{
		{ID: "1", Title: "Senior Product Designer"},
		{ID: "2", Title: "Backend Engineer (Go)"},
		{ID: "3", Title: "UX designer, contract"},
		{ID: "4", Title: "Data Analyst"},
	}

	testCases := []struct {
		name     string
		keywords []string
		wantIDs  []string
	}{
		{name: "single match", keywords: []string{"engineer"}, wantIDs: []string{"2"}},
		{name: "case insensitive", keywords: []string{"DESIGNER"}, wantIDs: []string{"1", "3"}},
		{name: "multiple keywords", keywords: []string{"designer", "analyst"}, wantIDs: []string{"1", "3", "4"}},
		{name: "no match", keywords: []string{"blockchain"}, wantIDs: nil},
		{name: "empty keywords match nothing", keywords: nil, wantIDs: nil},
		{name: "blank keywords dropped", keywords: []string{"  ", ""}, wantIDs: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			matched := FilterByKeywords(jobs, tc.keywords)
			var ids []string
			for _, j := range matched {
				ids = append(ids, j.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
		})
	}
}

func TestFilterByKeywordsPreservesOrder(t *testing.T) {
	jobs := []*domain.JobPosting{
		{ID: "z", Title: "Go developer"},
		{ID: "a", Title: "Go platform engineer"},
		{ID: "m", Title: "Golang consultant"},
	}
	matched := FilterByKeywords(jobs, []string{"go"})
	assert.Equal(t, "z", matched[0].ID)
	assert.Equal(t, "a", matched[1].ID)
	assert.Equal(t, "m", matched[2].ID)
}

func TestNormalizeKeywords(t *testing.T) {
	got := NormalizeKeywords([]string{" Designer ", "", "GO", "  "})
	assert.Equal(t, []string{"designer", "go"}, got)
}
