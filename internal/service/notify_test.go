package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadymuxd/searching-the-fox/internal/domain"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	users map[string]*domain.User
	links map[string][]domain.UserJob
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserStore) ListSubscribed(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.EmailNotificationsEnabled {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) ListNewJobLinks(_ context.Context, userID string) ([]domain.UserJob, error) {
	return f.links[userID], nil
}

type fakeJobStore struct {
	jobs map[string]domain.JobPosting
}

func (f *fakeJobStore) GetByIDs(_ context.Context, ids []string) ([]domain.JobPosting, error) {
	var out []domain.JobPosting
	for _, id := range ids {
		if j, ok := f.jobs[id]; ok {
			out = append(out, j)
		}
	}
	return out, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	configured bool
	failFor    map[string]error
	sent       []sentMail
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) (string, error) {
	if err, ok := f.failFor[to]; ok {
		return "", err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return fmt.Sprintf("email-%d", len(f.sent)), nil
}

func newTestDispatcher(users *fakeUserStore, jobs *fakeJobStore, m *fakeMailer) *Dispatcher {
	return NewDispatcher(users, jobs, NewDigestRenderer(), m)
}

func TestSendToUserSkipReasons(t *testing.T) {
	testCases := []struct {
		name string
		user domain.User
		want string
	}{
		{
			name: "notifications disabled",
			user: domain.User{ID: "u1", Email: "a@b.c", Keywords: domain.KeywordList{"go"}},
			want: SkipNotificationsDisabled,
		},
		{
			name: "no email",
			user: domain.User{ID: "u1", EmailNotificationsEnabled: true, Keywords: domain.KeywordList{"go"}},
			want: SkipNoEmail,
		},
		{
			name: "no keywords",
			user: domain.User{ID: "u1", Email: "a@b.c", EmailNotificationsEnabled: true},
			want: SkipNoKeywords,
		},
		{
			name: "blank keywords count as none",
			user: domain.User{ID: "u1", Email: "a@b.c", EmailNotificationsEnabled: true, Keywords: domain.KeywordList{" ", ""}},
			want: SkipNoKeywords,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user := tc.user
			users := &fakeUserStore{users: map[string]*domain.User{"u1": &user}}
			mailer := &fakeMailer{configured: true}
			d := newTestDispatcher(users, &fakeJobStore{}, mailer)

			result, err := d.SendToUser(context.Background(), "u1")
			require.NoError(t, err)
			assert.True(t, result.Skipped)
			assert.Equal(t, tc.want, result.SkipReason)
			assert.Empty(t, mailer.sent)
		})
	}
}

func TestSendToUserDeliversSortedMatches(t *testing.T) {
	older := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	users := &fakeUserStore{
		users: map[string]*domain.User{
			"u1": {ID: "u1", Email: "fox@example.com", EmailNotificationsEnabled: true, Keywords: domain.KeywordList{"engineer"}},
		},
		links: map[string][]domain.UserJob{
			"u1": {{JobID: "j1"}, {JobID: "j2"}, {JobID: "j3"}},
		},
	}
	jobs := &fakeJobStore{jobs: map[string]domain.JobPosting{
		"j1": {ID: "j1", Title: "Platform Engineer", JobURL: "https://x.com/1", DatePosted: &older},
		"j2": {ID: "j2", Title: "Go Engineer", JobURL: "https://x.com/2", DatePosted: &newer},
		"j3": {ID: "j3", Title: "Product Designer", JobURL: "https://x.com/3", DatePosted: &newer},
	}}
	mailer := &fakeMailer{configured: true}
	d := newTestDispatcher(users, jobs, mailer)

	result, err := d.SendToUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, 2, result.JobsSent)
	assert.Equal(t, "email-1", result.MessageID)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "fox@example.com", msg.to)
	assert.Equal(t, "2 New Jobs Matching Your Criteria", msg.subject)
	// Newest match renders before the older one.
	assert.Less(t,
		strings.Index(msg.body, "Go Engineer"),
		strings.Index(msg.body, "Platform Engineer"))
	assert.NotContains(t, msg.body, "Product Designer")
}

func TestSendToUserZeroMatchesStillSends(t *testing.T) {
	users := &fakeUserStore{
		users: map[string]*domain.User{
			"u1": {ID: "u1", Email: "fox@example.com", EmailNotificationsEnabled: true, Keywords: domain.KeywordList{"rust"}},
		},
	}
	mailer := &fakeMailer{configured: true}
	d := newTestDispatcher(users, &fakeJobStore{}, mailer)

	result, err := d.SendToUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, 0, result.JobsSent)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "No New Jobs This Time", mailer.sent[0].subject)
}

func TestSendToUserMailerNotConfigured(t *testing.T) {
	users := &fakeUserStore{
		users: map[string]*domain.User{
			"u1": {ID: "u1", Email: "fox@example.com", EmailNotificationsEnabled: true, Keywords: domain.KeywordList{"go"}},
		},
	}
	d := newTestDispatcher(users, &fakeJobStore{}, &fakeMailer{configured: false})

	_, err := d.SendToUser(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrMailerNotConfigured)
}

func TestSendToAllSubscribedAggregates(t *testing.T) {
	users := &fakeUserStore{
		users: map[string]*domain.User{
			"ok":      {ID: "ok", Email: "ok@example.com", EmailNotificationsEnabled: true, Keywords: domain.KeywordList{"go"}},
			"skipped": {ID: "skipped", Email: "", EmailNotificationsEnabled: true, Keywords: domain.KeywordList{"go"}},
			"broken":  {ID: "broken", Email: "broken@example.com", EmailNotificationsEnabled: true, Keywords: domain.KeywordList{"go"}},
			"optout":  {ID: "optout", Email: "out@example.com", EmailNotificationsEnabled: false},
		},
	}
	mailer := &fakeMailer{
		configured: true,
		failFor:    map[string]error{"broken@example.com": fmt.Errorf("smtp exploded")},
	}
	d := newTestDispatcher(users, &fakeJobStore{}, mailer)

	batch, err := d.SendToAllSubscribed(context.Background())
	require.NoError(t, err)

	// The opted-out user is never listed as subscribed.
	assert.Equal(t, 1, batch.Sent)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, 1, batch.Skipped)
	assert.Len(t, batch.Details, 3)
	for _, detail := range batch.Details {
		if detail.Sent {
			assert.NotEmpty(t, detail.MessageID)
		} else {
			assert.Empty(t, detail.MessageID)
		}
	}
}

func TestDigestSubject(t *testing.T) {
	assert.Equal(t, "No New Jobs This Time", digestSubject(0))
	assert.Equal(t, "1 New Job Matching Your Criteria", digestSubject(1))
	assert.Equal(t, "7 New Jobs Matching Your Criteria", digestSubject(7))
}
