package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadymuxd/searching-the-fox/internal/domain"
)

func pinnedRenderer(now time.Time) *DigestRenderer {
	r := NewDigestRenderer()
	r.now = func() time.Time { return now }
	return r
}

func TestPostedLabel(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	r := pinnedRenderer(now)

	testCases := []struct {
		name   string
		posted time.Time
		want   string
	}{
		{name: "zero date", posted: time.Time{}, want: "Today"},
		{name: "same day", posted: time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC), want: "Today"},
		{name: "yesterday", posted: time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC), want: "Yesterday"},
		{name: "five days ago", posted: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC), want: "5 days ago"},
		{name: "future date reads as today", posted: time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), want: "Today"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.postedLabel(tc.posted))
		})
	}
}

func TestFormatSalary(t *testing.T) {
	testCases := []struct {
		name     string
		min, max *float64
		currency string
		want     string
	}{
		{name: "range", min: floatPtr(85000), max: floatPtr(120000), want: "$85,000 - $120,000"},
		{name: "min only is hidden", min: floatPtr(95000), want: ""},
		{name: "max only is hidden", max: floatPtr(70000), want: ""},
		{name: "absent", want: ""},
		{name: "gbp", min: floatPtr(60000), max: floatPtr(80000), currency: "GBP", want: "£60,000 - £80,000"},
		{name: "unknown currency", min: floatPtr(50000), max: floatPtr(60000), currency: "chf", want: "CHF 50,000 - CHF 60,000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatSalary(tc.min, tc.max, tc.currency))
		})
	}
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "1,234,567", formatThousands(1234567))
	assert.Equal(t, "999", formatThousands(999))
	assert.Equal(t, "1,000", formatThousands(1000))
	assert.Equal(t, "-12,500", formatThousands(-12500))
}

func TestCompanyInitial(t *testing.T) {
	assert.Equal(t, "A", companyInitial("acme"))
	assert.Equal(t, "Ü", companyInitial("über GmbH"))
	assert.Equal(t, "?", companyInitial("  "))
}

func TestPreviewText(t *testing.T) {
	long := strings.Repeat("x", 250)
	got := previewText(long)
	assert.Len(t, []rune(got), 200)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "short", previewText("short"))
	assert.Equal(t, "", previewText("   "))
}

func TestRenderDigestWithJobs(t *testing.T) {
	r := pinnedRenderer(time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC))
	posted := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	jobs := []*domain.JobPosting{
		{
			Title:          "Senior Go Engineer",
			Company:        "Acme",
			Location:       "London, UK",
			JobURL:         "https://example.com/jobs/1",
			CompanyLogoURL: "https://logo.clearbit.com/acme.com",
			IsRemote:       true,
			SalaryMin:      floatPtr(85000),
			SalaryMax:      floatPtr(120000),
			DatePosted:     &posted,
			Site:           "linkedin",
			Description:    "Build distributed ingestion services.",
		},
		{
			Title:    "Product Designer",
			Company:  "Fox Labs",
			Location: "Remote",
			JobURL:   "https://example.com/jobs/2",
			Site:     "indeed",
		},
	}

	html, err := r.Render(jobs, []string{"go", "designer"})
	require.NoError(t, err)

	assert.Contains(t, html, "2 new jobs available")
	assert.Contains(t, html, "go, designer")
	assert.Contains(t, html, "Senior Go Engineer")
	assert.Contains(t, html, "https://logo.clearbit.com/acme.com")
	assert.Contains(t, html, "Remote</span>")
	assert.Contains(t, html, "$85,000 - $120,000")
	assert.Contains(t, html, "Yesterday")
	// Second card has no logo: initial placeholder instead.
	assert.Contains(t, html, ">F</div>")
}

func TestRenderDigestDeterministic(t *testing.T) {
	r := pinnedRenderer(time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC))
	posted := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	jobs := []*domain.JobPosting{
		{
			Title:      "Senior Go Engineer",
			Company:    "Acme",
			Location:   "London, UK",
			JobURL:     "https://example.com/jobs/1",
			SalaryMin:  floatPtr(85000),
			SalaryMax:  floatPtr(120000),
			DatePosted: &posted,
			Site:       "linkedin",
		},
		{Title: "Product Designer", Company: "Fox Labs", JobURL: "https://example.com/jobs/2", Site: "indeed"},
	}

	first, err := r.Render(jobs, []string{"go", "designer"})
	require.NoError(t, err)
	second, err := r.Render(jobs, []string{"go", "designer"})
	require.NoError(t, err)

	// With a fixed clock the renderer is a pure function of its input.
	assert.Equal(t, first, second)
}

func TestRenderDigestZeroJobs(t *testing.T) {
	r := NewDigestRenderer()
	html, err := r.Render(nil, []string{"go"})
	require.NoError(t, err)

	assert.Contains(t, html, "0 new jobs available")
	assert.Contains(t, html, "No new jobs matched your keywords")
}

func TestRenderDigestSingularHeading(t *testing.T) {
	r := NewDigestRenderer()
	html, err := r.Render([]*domain.JobPosting{{Title: "Go Dev", Company: "X", JobURL: "https://x.com/1"}}, []string{"go"})
	require.NoError(t, err)
	assert.Contains(t, html, "1 new job available")
}
