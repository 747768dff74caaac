package domain

import "time"

// RunStatus represents the lifecycle state of a search run.
// Transitions are one-directional: pending -> running -> {success, failed}.
// Only the stuck-run sweep may force a running run to failed.
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// RunParams are the requested scrape parameters persisted with a run.
// SiteName may be a single board or the "all" meta-selector.
type RunParams struct {
	Sites         StringArray `gorm:"type:text" json:"sites"`
	SiteName      string      `gorm:"type:text" json:"site_name,omitempty"`
	SearchTerm    string      `gorm:"type:text" json:"search_term"`
	Location      string      `gorm:"type:text" json:"location"`
	ResultsWanted int         `gorm:"default:20" json:"results_wanted"`
	HoursOld      int         `gorm:"default:72" json:"hours_old"`
	Country       string      `gorm:"type:text" json:"country"`
}

// SearchRun represents one ingestion invocation across one or more boards.
// JobsFound only ever increases within a run.
type SearchRun struct {
	ID           string     `gorm:"type:text;primaryKey" json:"id"`
	UserID       string     `gorm:"type:text;index:idx_runs_user" json:"user_id,omitempty"`
	Status       RunStatus  `gorm:"type:text;default:pending;index:idx_runs_status" json:"status"`
	RunParams    `json:"params"`
	JobsFound    int        `gorm:"default:0" json:"jobs_found"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for SearchRun.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (SearchRun) TableName() string {
	return "search_runs"
}
