package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vadymuxd/searching-the-fox/internal/domain"
	"gorm.io/gorm"
)

// RunRepository handles search run lifecycle operations.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new RunRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *RunRepository: repository instance bound to db.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new search run record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - run: run record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *RunRepository) Create(ctx context.Context, run *domain.SearchRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// GetByID retrieves a run by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
// Returns:
//   - *domain.SearchRun: run record if found.
//   - error: non-nil if lookup fails.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.SearchRun, error) {
	var run domain.SearchRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// MarkRunning transitions a run to running and stamps its start time.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *RunRepository) MarkRunning(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.SearchRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.RunStatusRunning,
			"started_at": now,
		}).Error
}

// AddJobsFound atomically adds n to the run's cumulative jobs_found counter.
// The counter is only ever incremented, never overwritten, so multiple
// sites accumulate correctly within one run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
//   - n: number of jobs to add.
// Returns:
//   - error: non-nil if the update fails.
func (r *RunRepository) AddJobsFound(ctx context.Context, id string, n int) error {
	if n == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.SearchRun{}).
		Where("id = ?", id).
		UpdateColumn("jobs_found", gorm.Expr("jobs_found + ?", n)).Error
}

// Finalize writes the terminal status, error message, and completion time.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: run ID.
//   - status: terminal status (success or failed).
//   - errorMessage: failure explanation; empty on success.
// Returns:
//   - error: non-nil if the update fails.
func (r *RunRepository) Finalize(ctx context.Context, id string, status domain.RunStatus, errorMessage string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.SearchRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"error_message": errorMessage,
			"completed_at":  now,
		}).Error
}

// ClaimPending claims up to limit pending runs for processing. Each claim is
// an optimistic conditional update: the transition only succeeds if the row
// is still pending, so two concurrent pollers racing for the same run end up
// with exactly one winner and one no-op skip.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of runs to claim.
// Returns:
//   - []domain.SearchRun: runs claimed by this caller, oldest first.
//   - error: non-nil if the candidate query fails.
func (r *RunRepository) ClaimPending(ctx context.Context, limit int) ([]domain.SearchRun, error) {
	var candidates []domain.SearchRun
	if err := r.db.WithContext(ctx).
		Where("status = ?", domain.RunStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending runs: %w", err)
	}

	claimed := make([]domain.SearchRun, 0, len(candidates))
	now := time.Now().UTC()
	for _, run := range candidates {
		res := r.db.WithContext(ctx).Model(&domain.SearchRun{}).
			Where("id = ? AND status = ?", run.ID, domain.RunStatusPending).
			Updates(map[string]interface{}{
				"status":     domain.RunStatusRunning,
				"started_at": now,
			})
		if res.Error != nil {
			return claimed, fmt.Errorf("failed to claim run %s: %w", run.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Another poller won the race for this run.
			continue
		}
		run.Status = domain.RunStatusRunning
		run.StartedAt = &now
		claimed = append(claimed, run)
	}
	return claimed, nil
}

// FailStuck force-finalizes runs stuck in running beyond the staleness
// threshold. This compensates for externally-imposed request timeouts that
// prevent normal finalization.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - olderThan: staleness threshold.
// Returns:
//   - int64: number of runs finalized as failed.
//   - error: non-nil if the update fails.
func (r *RunRepository) FailStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := r.db.WithContext(ctx).Model(&domain.SearchRun{}).
		Where("status = ? AND started_at < ?", domain.RunStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":        domain.RunStatusFailed,
			"error_message": fmt.Sprintf("Search timed out after %s", olderThan),
			"completed_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
