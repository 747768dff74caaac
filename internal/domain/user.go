package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// KeywordList stores a user's alert keywords. The column may hold either a
// JSON-encoded list or a bare string written by older clients; Scan is
// tolerant of both and treats an unparsable value as one literal keyword.
type KeywordList []string

// Value implements the driver.Valuer interface.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the list.
//   - error: non-nil if marshaling fails.
func (k KeywordList) Value() (driver.Value, error) {
	if k == nil {
		return "[]", nil
	}
	b, err := json.Marshal(k)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface with tolerant parsing.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil only if the value is of an unexpected type.
func (k *KeywordList) Scan(value interface{}) error {
	if value == nil {
		*k = KeywordList{}
		return nil
	}
	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return errors.New("failed to scan KeywordList")
	}
	if strings.TrimSpace(raw) == "" {
		*k = KeywordList{}
		return nil
	}
	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		// Not a JSON list: treat the whole value as a single keyword.
		*k = KeywordList{raw}
		return nil
	}
	*k = KeywordList(parsed)
	return nil
}

// User is a registered account that can own search runs and receive digests.
type User struct {
	ID                        string      `gorm:"type:text;primaryKey" json:"id"`
	Email                     string      `gorm:"type:text" json:"email"`
	EmailNotificationsEnabled bool        `gorm:"default:false" json:"email_notifications_enabled"`
	Keywords                  KeywordList `gorm:"type:text" json:"keywords"`
	CreatedAt                 time.Time   `json:"created_at"`
	UpdatedAt                 time.Time   `json:"updated_at"`
}

// TableName returns the database table name for User.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (User) TableName() string {
	return "users"
}

// UserJobStatus tracks a user's triage state for a linked posting.
type UserJobStatus string

const (
	UserJobStatusNew      UserJobStatus = "new"
	UserJobStatusSaved    UserJobStatus = "saved"
	UserJobStatusApplied  UserJobStatus = "applied"
	UserJobStatusArchived UserJobStatus = "archived"
)

// UserJob links a user to a job posting. At most one link exists per
// (user, job) pair; relinking an existing pair is a no-op.
type UserJob struct {
	ID        string        `gorm:"type:text;primaryKey" json:"id"`
	UserID    string        `gorm:"type:text;not null;index:idx_user_jobs_pair,unique" json:"user_id"`
	JobID     string        `gorm:"type:text;not null;index:idx_user_jobs_pair,unique" json:"job_id"`
	Status    UserJobStatus `gorm:"type:text;default:new;index:idx_user_jobs_status" json:"status"`
	Notes     string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TableName returns the database table name for UserJob.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (UserJob) TableName() string {
	return "user_jobs"
}
