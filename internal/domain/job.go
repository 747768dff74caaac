package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// JobPosting represents one normalized job scraped from an external board.
// Rows are keyed by JobURL: the first writer wins and later scrapes of the
// same URL resolve to the existing row.
type JobPosting struct {
	ID             string      `gorm:"type:text;primaryKey" json:"id"`
	Site           string      `gorm:"type:text;not null;index:idx_jobs_site" json:"site"`
	Title          string      `gorm:"type:text;not null" json:"title"`
	Company        string      `gorm:"type:text;not null" json:"company"`
	Location       string      `gorm:"type:text" json:"location"`
	JobURL         string      `gorm:"type:text;not null;uniqueIndex:idx_jobs_url" json:"job_url"`
	IsRemote       bool        `json:"is_remote"`
	DatePosted     *time.Time  `json:"date_posted,omitempty"`
	SalaryMin      *float64    `json:"salary_min,omitempty"`
	SalaryMax      *float64    `json:"salary_max,omitempty"`
	SalaryCurrency string      `gorm:"type:text" json:"salary_currency,omitempty"`
	Description    string      `gorm:"type:text" json:"description,omitempty"`
	JobType        string      `gorm:"type:text" json:"job_type,omitempty"`
	Emails         StringArray `gorm:"type:text" json:"emails,omitempty"`
	CompanyLogoURL string      `gorm:"type:text" json:"company_logo_url,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName returns the database table name for JobPosting.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (JobPosting) TableName() string {
	return "jobs"
}

// PostedOrCreated returns the best-known date for the posting: the scraped
// posted date when present, otherwise the record creation time. The zero
// time is returned when neither is available, so missing dates sort first.
func (j *JobPosting) PostedOrCreated() time.Time {
	if j.DatePosted != nil && !j.DatePosted.IsZero() {
		return *j.DatePosted
	}
	return j.CreatedAt
}
