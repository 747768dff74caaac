package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.resend.com"

// Config holds Resend delivery configuration.
type Config struct {
	APIKey  string
	Sender  string
	BaseURL string        // overridable for tests; defaults to the Resend API
	Timeout time.Duration // per-request timeout; default 10s
}

// ResendMailer delivers email through the Resend HTTP API.
type ResendMailer struct {
	client *resty.Client
	apiKey string
	sender string
	base   string
}

// NewResendMailer creates a new ResendMailer.
// Parameters:
//   - cfg: delivery configuration; an empty APIKey yields an unconfigured
//     mailer whose Send always fails.
// Returns:
//   - *ResendMailer: initialized mailer.
func NewResendMailer(cfg *Config) *ResendMailer {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")

	sender := cfg.Sender
	if sender == "" {
		sender = "onboarding@resend.dev"
	}

	return &ResendMailer{
		client: client,
		apiKey: cfg.APIKey,
		sender: sender,
		base:   base,
	}
}

// Configured reports whether delivery credentials are present.
func (m *ResendMailer) Configured() bool {
	return m.apiKey != ""
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// Send delivers one HTML email.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - to: recipient address.
//   - subject: message subject line.
//   - htmlBody: rendered HTML body.
// Returns:
//   - string: provider message ID of the accepted email.
//   - error: non-nil if the mailer is unconfigured or delivery fails.
func (m *ResendMailer) Send(ctx context.Context, to, subject, htmlBody string) (string, error) {
	if !m.Configured() {
		return "", fmt.Errorf("resend API key is not set")
	}

	var result sendResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetAuthToken(m.apiKey).
		SetBody(sendRequest{
			From:    m.sender,
			To:      []string{to},
			Subject: subject,
			HTML:    htmlBody,
		}).
		SetResult(&result).
		SetError(&result).
		Post(m.base + "/emails")

	if err != nil {
		return "", fmt.Errorf("failed to call resend: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		msg := result.Message
		if msg == "" {
			msg = string(resp.Body())
		}
		return "", fmt.Errorf("resend returned HTTP %d: %s", resp.StatusCode(), msg)
	}
	return result.ID, nil
}
