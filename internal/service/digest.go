package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vadymuxd/searching-the-fox/internal/domain"
)

const maxPreviewLen = 200

// digestTemplate is the full HTML document sent as the digest body. Cards
// are pre-shaped by the renderer so the template stays logic-free.
var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Arial,Helvetica,sans-serif;">
<div style="max-width:600px;margin:0 auto;padding:24px;">
  <h1 style="font-size:22px;color:#1a1a2e;margin-bottom:4px;">{{.Heading}}</h1>
  <p style="color:#6b7280;font-size:14px;margin-top:0;">Matching your keywords: {{.KeywordsLine}}</p>
{{if .Cards}}{{range .Cards}}
  <div style="background:#ffffff;border-radius:8px;padding:16px;margin-bottom:16px;border:1px solid #e5e7eb;">
    <table role="presentation" width="100%" cellpadding="0" cellspacing="0"><tr>
      <td width="56" valign="top">
        {{if .LogoURL}}<img src="{{.LogoURL}}" alt="{{.Company}}" width="48" height="48" style="border-radius:6px;object-fit:contain;background:#f9fafb;">{{else}}<div style="width:48px;height:48px;border-radius:6px;background:#6366f1;color:#ffffff;font-size:22px;font-weight:bold;text-align:center;line-height:48px;">{{.Initial}}</div>{{end}}
      </td>
      <td valign="top" style="padding-left:12px;">
        <a href="{{.JobURL}}" style="font-size:16px;font-weight:bold;color:#1a1a2e;text-decoration:none;">{{.Title}}</a>
        <p style="margin:4px 0;color:#374151;font-size:14px;">{{.Company}} &middot; {{.Location}}{{if .IsRemote}} <span style="background:#dcfce7;color:#166534;font-size:12px;padding:2px 6px;border-radius:4px;">Remote</span>{{end}}</p>
        {{if .Salary}}<p style="margin:4px 0;color:#059669;font-size:13px;font-weight:bold;">{{.Salary}}</p>{{end}}
        {{if .Preview}}<p style="margin:6px 0 4px;color:#6b7280;font-size:13px;">{{.Preview}}</p>{{end}}
        <p style="margin:4px 0 0;color:#9ca3af;font-size:12px;">{{.PostedLabel}} &middot; via {{.Site}}</p>
      </td>
    </tr></table>
  </div>
{{end}}{{else}}
  <div style="background:#ffffff;border-radius:8px;padding:24px;text-align:center;border:1px solid #e5e7eb;">
    <p style="color:#6b7280;font-size:14px;">No new jobs matched your keywords this time. We'll keep looking!</p>
  </div>
{{end}}
  <p style="color:#9ca3af;font-size:12px;text-align:center;margin-top:24px;">You're receiving this because job alerts are enabled on your account.</p>
</div>
</body>
</html>
`))

type digestCard struct {
	Title       string
	Company     string
	Location    string
	JobURL      string
	LogoURL     string
	Initial     string
	IsRemote    bool
	Salary      string
	Preview     string
	PostedLabel string
	Site        string
}

type digestData struct {
	Heading      string
	KeywordsLine string
	Cards        []digestCard
}

// DigestRenderer renders job digests as self-contained HTML emails.
// Rendering is pure: it never touches the network or the database.
type DigestRenderer struct {
	// now is replaceable so date labels are deterministic under test.
	now func() time.Time
}

// NewDigestRenderer creates a new DigestRenderer.
func NewDigestRenderer() *DigestRenderer {
	return &DigestRenderer{now: time.Now}
}

// Render produces the HTML digest body for a set of matched jobs. A zero-job
// digest renders a friendly placeholder instead of an empty list.
func (d *DigestRenderer) Render(jobs []*domain.JobPosting, keywords []string) (string, error) {
	data := digestData{
		Heading:      headingFor(len(jobs)),
		KeywordsLine: strings.Join(keywords, ", "),
		Cards:        make([]digestCard, 0, len(jobs)),
	}

	for _, job := range jobs {
		data.Cards = append(data.Cards, digestCard{
			Title:       job.Title,
			Company:     job.Company,
			Location:    job.Location,
			JobURL:      job.JobURL,
			LogoURL:     job.CompanyLogoURL,
			Initial:     companyInitial(job.Company),
			IsRemote:    job.IsRemote,
			Salary:      formatSalary(job.SalaryMin, job.SalaryMax, job.SalaryCurrency),
			Preview:     previewText(job.Description),
			PostedLabel: d.postedLabel(job.PostedOrCreated()),
			Site:        job.Site,
		})
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}

func headingFor(count int) string {
	if count == 1 {
		return "1 new job available"
	}
	return fmt.Sprintf("%d new jobs available", count)
}

// companyInitial picks the first character of the company name for the
// logo placeholder tile.
func companyInitial(company string) string {
	company = strings.TrimSpace(company)
	if company == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(company)
	return strings.ToUpper(string(r))
}

// postedLabel converts a posted (or record-creation fallback) date into a
// relative label by whole UTC days. A missing date reads as "Today"; a
// digest should never show a blank or alarming date.
func (d *DigestRenderer) postedLabel(posted time.Time) string {
	if posted.IsZero() {
		return "Today"
	}
	today := d.now().UTC().Truncate(24 * time.Hour)
	postedDay := posted.UTC().Truncate(24 * time.Hour)
	days := int(today.Sub(postedDay).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

// formatSalary renders the salary range with thousands grouping. The range
// only shows when both bounds are known; a lone bound reads misleadingly in
// a one-line card. Currency defaults to dollars when the board did not
// report one.
func formatSalary(min, max *float64, currency string) string {
	if min == nil || max == nil {
		return ""
	}
	symbol := currencySymbol(currency)
	return fmt.Sprintf("%s%s - %s%s", symbol, formatThousands(*min), symbol, formatThousands(*max))
}

func currencySymbol(currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "", "USD":
		return "$"
	case "GBP":
		return "£"
	case "EUR":
		return "€"
	default:
		return strings.ToUpper(strings.TrimSpace(currency)) + " "
	}
}

// formatThousands renders an amount with comma separators and no decimals.
func formatThousands(v float64) string {
	digits := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// previewText caps the plain-text description for the card body.
func previewText(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}
	if utf8.RuneCountInString(description) > maxPreviewLen {
		return truncateRunes(description, maxPreviewLen-3) + "..."
	}
	return description
}
