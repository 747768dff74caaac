package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vadymuxd/searching-the-fox/internal/domain"
	"github.com/vadymuxd/searching-the-fox/internal/logger"
)

// Mailer delivers rendered digest emails. Configured reports whether
// delivery credentials are present; Send on an unconfigured mailer fails.
type Mailer interface {
	Configured() bool
	Send(ctx context.Context, to, subject, htmlBody string) (string, error)
}

// UserStore is the user-facing persistence surface the dispatcher needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListSubscribed(ctx context.Context) ([]domain.User, error)
	ListNewJobLinks(ctx context.Context, userID string) ([]domain.UserJob, error)
}

// JobStore is the job-facing persistence surface the dispatcher needs.
type JobStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.JobPosting, error)
}

// ErrMailerNotConfigured is returned when a digest would have been sent but
// no delivery credentials are present.
var ErrMailerNotConfigured = errors.New("email delivery is not configured")

// Skip reasons recorded when a user is passed over without an attempt.
const (
	SkipNotificationsDisabled = "notifications_disabled"
	SkipNoEmail               = "no_email"
	SkipNoKeywords            = "no_keywords"
)

// DigestResult describes the outcome of one user's digest dispatch.
type DigestResult struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email,omitempty"`
	Sent       bool   `json:"sent"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
	JobsSent   int    `json:"jobs_sent"`
	MessageID  string `json:"message_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BatchResult aggregates digest outcomes across all subscribed users.
type BatchResult struct {
	Sent    int            `json:"sent"`
	Failed  int            `json:"failed"`
	Skipped int            `json:"skipped"`
	Details []DigestResult `json:"details"`
}

// Dispatcher assembles and sends per-user job digests.
type Dispatcher struct {
	users    UserStore
	jobs     JobStore
	renderer *DigestRenderer
	mailer   Mailer
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(users UserStore, jobs JobStore, renderer *DigestRenderer, mailer Mailer) *Dispatcher {
	return &Dispatcher{users: users, jobs: jobs, renderer: renderer, mailer: mailer}
}

// SendToUser assembles and dispatches one user's digest: collect the user's
// unreviewed jobs, filter by keywords, sort newest first, render, and send.
// Users who opted out, lack an address, or have no keywords are skipped, not
// failed.
func (d *Dispatcher) SendToUser(ctx context.Context, userID string) (*DigestResult, error) {
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	result := &DigestResult{UserID: user.ID, Email: user.Email}

	if skip := skipReasonFor(user); skip != "" {
		result.Skipped = true
		result.SkipReason = skip
		logger.FromContext(ctx).WithFields(logger.Fields{
			logger.FieldUserID: user.ID,
			"skip_reason":      skip,
		}).Info("Skipping digest")
		return result, nil
	}

	matched, err := d.collectMatchedJobs(ctx, user)
	if err != nil {
		return nil, err
	}

	messageID, err := d.sendDigest(ctx, user, matched)
	if err != nil {
		return nil, err
	}

	result.Sent = true
	result.JobsSent = len(matched)
	result.MessageID = messageID
	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldUserID: user.ID,
		logger.FieldCount:  len(matched),
		"message_id":       messageID,
	}).Info("Digest sent")
	return result, nil
}

// SendToAllSubscribed dispatches digests to every subscribed user in turn.
// One user's failure is recorded and never aborts the rest of the batch.
func (d *Dispatcher) SendToAllSubscribed(ctx context.Context) (*BatchResult, error) {
	users, err := d.users.ListSubscribed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribed users: %w", err)
	}

	batch := &BatchResult{Details: make([]DigestResult, 0, len(users))}
	for i := range users {
		user := &users[i]
		result, err := d.sendToLoadedUser(ctx, user)
		if err != nil {
			batch.Failed++
			batch.Details = append(batch.Details, DigestResult{
				UserID: user.ID,
				Email:  user.Email,
				Error:  err.Error(),
			})
			logger.FromContext(ctx).WithError(err).WithField(logger.FieldUserID, user.ID).Error("Digest dispatch failed")
			continue
		}
		if result.Skipped {
			batch.Skipped++
		} else {
			batch.Sent++
		}
		batch.Details = append(batch.Details, *result)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		"sent":    batch.Sent,
		"failed":  batch.Failed,
		"skipped": batch.Skipped,
	}).Info("Digest batch completed")
	return batch, nil
}

// sendToLoadedUser mirrors SendToUser for a user record already in hand,
// avoiding a redundant lookup in the batch path.
func (d *Dispatcher) sendToLoadedUser(ctx context.Context, user *domain.User) (*DigestResult, error) {
	result := &DigestResult{UserID: user.ID, Email: user.Email}

	if skip := skipReasonFor(user); skip != "" {
		result.Skipped = true
		result.SkipReason = skip
		return result, nil
	}

	matched, err := d.collectMatchedJobs(ctx, user)
	if err != nil {
		return nil, err
	}
	messageID, err := d.sendDigest(ctx, user, matched)
	if err != nil {
		return nil, err
	}

	result.Sent = true
	result.JobsSent = len(matched)
	result.MessageID = messageID
	return result, nil
}

// collectMatchedJobs loads the user's unreviewed postings, filters them by
// keywords, and orders them newest first.
func (d *Dispatcher) collectMatchedJobs(ctx context.Context, user *domain.User) ([]*domain.JobPosting, error) {
	links, err := d.users.ListNewJobLinks(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job links for user %s: %w", user.ID, err)
	}

	ids := make([]string, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.JobID)
	}

	jobs, err := d.jobs.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs for user %s: %w", user.ID, err)
	}

	candidates := make([]*domain.JobPosting, 0, len(jobs))
	for i := range jobs {
		candidates = append(candidates, &jobs[i])
	}

	matched := FilterByKeywords(candidates, user.Keywords)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].PostedOrCreated().After(matched[j].PostedOrCreated())
	})
	return matched, nil
}

// sendDigest renders and delivers the digest, returning the provider message
// id. A zero-job digest is still sent; its subject and body tell the user
// nothing matched.
func (d *Dispatcher) sendDigest(ctx context.Context, user *domain.User, matched []*domain.JobPosting) (string, error) {
	if !d.mailer.Configured() {
		return "", ErrMailerNotConfigured
	}

	body, err := d.renderer.Render(matched, user.Keywords)
	if err != nil {
		return "", err
	}

	messageID, err := d.mailer.Send(ctx, user.Email, digestSubject(len(matched)), body)
	if err != nil {
		return "", fmt.Errorf("failed to send digest to %s: %w", user.Email, err)
	}
	return messageID, nil
}

func skipReasonFor(user *domain.User) string {
	switch {
	case !user.EmailNotificationsEnabled:
		return SkipNotificationsDisabled
	case user.Email == "":
		return SkipNoEmail
	case len(NormalizeKeywords(user.Keywords)) == 0:
		return SkipNoKeywords
	}
	return ""
}

func digestSubject(count int) string {
	switch count {
	case 0:
		return "No New Jobs This Time"
	case 1:
		return "1 New Job Matching Your Criteria"
	default:
		return fmt.Sprintf("%d New Jobs Matching Your Criteria", count)
	}
}
