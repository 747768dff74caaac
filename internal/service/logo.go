package service

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/vadymuxd/searching-the-fox/internal/logger"
)

// browserUserAgent is sent on LinkedIn page fetches; the page serves a
// stripped response to unknown agents.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// linkedinLogoPatterns are scanned against the raw job page body. Patterns
// with a capture group carry the URL in the group; the rest match the URL
// directly. Fragile by design: if the page markup changes these silently
// stop matching and the resolver falls through to the next strategy.
var linkedinLogoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://media\.licdn\.com/dms/image/[^"']+/company-logo_\d+_\d+/[^"']+`),
	regexp.MustCompile(`https://media\.licdn\.com/dms/image/[^"']+company-logo[^"']+`),
	regexp.MustCompile(`"companyLogoUrl":"([^"]+)"`),
	regexp.MustCompile(`"logo":\s*"([^"]*https://media\.licdn\.com[^"]*)"`),
}

// \p{L}\p{N} rather than \w: Go's \w is ASCII-only, and company names in
// CJK or other non-Latin scripts must still yield a non-empty slug.
var slugStripPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
var slugSpacePattern = regexp.MustCompile(`\s+`)

// LogoResolver produces best-effort company logo URLs using a fixed
// strategy chain: LinkedIn page extraction, verified Clearbit, logo.dev,
// then unverified Clearbit as the last resort.
type LogoResolver struct {
	client       *resty.Client
	workers      int
	logoDevToken string

	// URL bases, overridable for tests.
	clearbitBase string
	logoDevBase  string
}

// LogoConfig holds logo resolver configuration.
type LogoConfig struct {
	Workers      int           // bulk resolution pool width; default 20
	Timeout      time.Duration // per-request timeout; default 5s
	LogoDevToken string        // logo.dev publishable token
}

// LogoRequest identifies one job whose company logo should be resolved.
type LogoRequest struct {
	Company string
	JobURL  string
	Site    string
}

// NewLogoResolver creates a new LogoResolver.
func NewLogoResolver(cfg *LogoConfig) *LogoResolver {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 20
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", browserUserAgent)

	return &LogoResolver{
		client:       client,
		workers:      workers,
		logoDevToken: cfg.LogoDevToken,
		clearbitBase: "https://logo.clearbit.com",
		logoDevBase:  "https://img.logo.dev",
	}
}

// Resolve returns the best available logo URL for one job, or empty when no
// company name was provided. Every failure path degrades to the next
// strategy; the unverified Clearbit candidate is returned as a last resort
// so downstream consumers always receive some URL.
func (r *LogoResolver) Resolve(ctx context.Context, req LogoRequest) string {
	if strings.TrimSpace(req.Company) == "" {
		return ""
	}

	// Strategy 1: LinkedIn-specific page extraction.
	if strings.Contains(strings.ToLower(req.Site), "linkedin") || strings.Contains(req.JobURL, "linkedin.com") {
		if logoURL := r.fetchLinkedInLogo(ctx, req.JobURL); logoURL != "" {
			return logoURL
		}
	}

	// Strategy 2: Clearbit with an existence probe.
	clearbitURL := r.clearbitURL(req.Company, req.JobURL)
	if r.verifyLogoURL(ctx, clearbitURL) {
		return clearbitURL
	}

	// Strategy 3: logo.dev, unverified.
	if logoDevURL := r.logoDevURL(req.Company); logoDevURL != "" {
		return logoDevURL
	}

	// Strategy 4: unverified Clearbit; it may still resolve in a browser.
	return clearbitURL
}

// ResolveMany resolves logos for a batch of jobs concurrently with a bounded
// worker pool, preserving input order. A per-item failure or timeout
// degrades to the unverified domain-guess URL for that item.
func (r *LogoResolver) ResolveMany(ctx context.Context, reqs []LogoRequest) []string {
	results := make([]string, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	start := time.Now()
	logger.CtxDebug(ctx, "Starting logo resolution for %d jobs with %d workers", len(reqs), r.workers)

	type indexed struct {
		index int
		req   LogoRequest
	}

	work := make(chan indexed, len(reqs))
	for i, req := range reqs {
		work <- indexed{index: i, req: req}
	}
	close(work)

	var wg sync.WaitGroup
	workers := r.workers
	if workers > len(reqs) {
		workers = len(reqs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				select {
				case <-ctx.Done():
					// Batch cancelled: fall back to the domain guess.
					results[item.index] = r.clearbitURL(item.req.Company, item.req.JobURL)
					continue
				default:
				}
				results[item.index] = r.Resolve(ctx, item.req)
			}
		}()
	}
	wg.Wait()

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldCount:      len(reqs),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Debug("Logo resolution completed")

	return results
}

// fetchLinkedInLogo fetches the job detail page and scans the body for
// known company-logo URL shapes.
func (r *LogoResolver) fetchLinkedInLogo(ctx context.Context, jobURL string) string {
	if jobURL == "" || !strings.Contains(jobURL, "linkedin.com/jobs/view/") {
		return ""
	}

	resp, err := r.client.R().SetContext(ctx).Get(jobURL)
	if err != nil || resp.StatusCode() != 200 {
		return ""
	}

	body := string(resp.Body())
	for _, pattern := range linkedinLogoPatterns {
		match := pattern.FindStringSubmatch(body)
		if match == nil {
			continue
		}
		logoURL := match[0]
		if len(match) > 1 {
			logoURL = match[1]
		}
		if strings.Contains(logoURL, "company-logo") && strings.HasPrefix(logoURL, "https://") {
			logoURL = strings.ReplaceAll(logoURL, `\`, "")
			logoURL = strings.ReplaceAll(logoURL, "&amp;", "&")
			return logoURL
		}
	}
	return ""
}

// clearbitURL derives a Clearbit logo URL from the company name, preferring
// the originating job URL's registrable domain when that host is not the
// LinkedIn board itself.
func (r *LogoResolver) clearbitURL(company, jobURL string) string {
	slug := slugifyCompany(company)
	if slug == "" {
		return ""
	}

	if jobURL != "" {
		if parsed, err := url.Parse(jobURL); err == nil && parsed.Host != "" {
			host := parsed.Hostname()
			if !strings.Contains(host, "linkedin.com") {
				parts := strings.Split(host, ".")
				if len(parts) >= 2 {
					mainDomain := strings.Join(parts[len(parts)-2:], ".")
					return r.clearbitBase + "/" + mainDomain
				}
			}
		}
	}

	return r.clearbitBase + "/" + slug + ".com"
}

// logoDevURL builds the logo.dev fallback URL.
func (r *LogoResolver) logoDevURL(company string) string {
	slug := slugifyCompany(company)
	if slug == "" || r.logoDevToken == "" {
		return ""
	}
	return r.logoDevBase + "/" + slug + ".com?token=" + r.logoDevToken
}

// verifyLogoURL issues a HEAD probe and accepts the candidate only when the
// response is successful with an image content type.
func (r *LogoResolver) verifyLogoURL(ctx context.Context, logoURL string) bool {
	if logoURL == "" {
		return false
	}
	resp, err := r.client.R().SetContext(ctx).Head(logoURL)
	if err != nil {
		return false
	}
	contentType := strings.ToLower(resp.Header().Get("Content-Type"))
	return resp.StatusCode() == 200 && strings.Contains(contentType, "image")
}

// slugifyCompany lowercases the company name, strips punctuation, and
// removes whitespace. Names made entirely of stripped characters fall back
// to the raw lowercased form so a provided company never slugs to empty.
func slugifyCompany(company string) string {
	s := strings.ToLower(strings.TrimSpace(company))
	if s == "" {
		return ""
	}
	slug := slugStripPattern.ReplaceAllString(s, "")
	slug = slugSpacePattern.ReplaceAllString(slug, "")
	if slug == "" {
		return slugSpacePattern.ReplaceAllString(s, "")
	}
	return slug
}
