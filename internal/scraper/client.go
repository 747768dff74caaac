package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/vadymuxd/searching-the-fox/internal/domain"
)

// RawJob is one row as returned by the external scrape collaborator. The
// upstream shape is loose: fields may be absent, salary amounts arrive as
// numbers or strings, and emails may be a single string or a list. The
// normalizer absorbs all of that at one boundary.
type RawJob struct {
	Site        string      `json:"site"`
	Title       string      `json:"title"`
	Company     string      `json:"company"`
	Location    string      `json:"location"`
	JobURL      string      `json:"job_url"`
	IsRemote    *bool       `json:"is_remote"`
	DatePosted  string      `json:"date_posted"`
	MinAmount   interface{} `json:"min_amount"`
	MaxAmount   interface{} `json:"max_amount"`
	Currency    string      `json:"currency"`
	Description string      `json:"description"`
	JobType     string      `json:"job_type"`
	Emails      interface{} `json:"emails"`
}

// Client talks to a JobSpy-compatible scrape service over HTTP.
type Client struct {
	client   *resty.Client
	endpoint string
}

// Config holds scrape client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new scrape client.
// Parameters:
//   - cfg: client configuration including base URL and request timeout.
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Client{
		client:   client,
		endpoint: cfg.BaseURL + "/scrape",
	}
}

type scrapeRequest struct {
	SiteName      []string `json:"site_name"`
	SearchTerm    string   `json:"search_term"`
	Location      string   `json:"location"`
	ResultsWanted int      `json:"results_wanted"`
	HoursOld      int      `json:"hours_old"`
	CountryIndeed string   `json:"country_indeed,omitempty"`
}

type scrapeResponse struct {
	Success bool     `json:"success"`
	Jobs    []RawJob `json:"jobs"`
	Error   string   `json:"error,omitempty"`
	Detail  string   `json:"detail,omitempty"`
}

// Scrape fetches raw job rows for a single board. An empty result is not an
// error; callers record it as a zero-job completion.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - site: board identifier (indeed, linkedin, ...).
//   - params: search parameters for this run.
// Returns:
//   - []RawJob: raw rows, possibly empty.
//   - error: non-nil if the request fails or the service reports an error.
func (c *Client) Scrape(ctx context.Context, site string, params domain.RunParams) ([]RawJob, error) {
	req := scrapeRequest{
		SiteName:      []string{site},
		SearchTerm:    params.SearchTerm,
		Location:      params.Location,
		ResultsWanted: params.ResultsWanted,
		HoursOld:      params.HoursOld,
		CountryIndeed: params.Country,
	}

	var resp scrapeResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(c.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call scrape service: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Detail != "" {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Detail)
		} else if len(httpResp.Body()) > 0 {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		}
		return nil, fmt.Errorf("scrape service returned error: %s", errorMsg)
	}

	if !resp.Success && resp.Error != "" {
		return nil, fmt.Errorf("scrape failed: %s", resp.Error)
	}

	return resp.Jobs, nil
}
