package repository

import (
	"context"
	"fmt"

	"github.com/vadymuxd/searching-the-fox/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository handles job posting data operations.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateOrGet inserts a job posting keyed by its job URL. On a uniqueness
// conflict the existing row is looked up and its ID returned; the conflict
// is an expected outcome, not an error.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job posting to persist; job.ID must be pre-assigned.
// Returns:
//   - string: ID of the inserted or pre-existing row.
//   - bool: true when a new row was inserted.
//   - error: non-nil if the insert or lookup fails.
func (r *JobRepository) CreateOrGet(ctx context.Context, job *domain.JobPosting) (string, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_url"}},
		DoNothing: true,
	}).Create(job)
	if res.Error != nil {
		return "", false, fmt.Errorf("failed to insert job: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return job.ID, true, nil
	}

	var existing domain.JobPosting
	if err := r.db.WithContext(ctx).Select("id").First(&existing, "job_url = ?", job.JobURL).Error; err != nil {
		return "", false, fmt.Errorf("failed to look up existing job: %w", err)
	}
	return existing.ID, false, nil
}

// GetByID retrieves a job posting by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job posting ID.
// Returns:
//   - *domain.JobPosting: job record if found.
//   - error: non-nil if lookup fails.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.JobPosting, error) {
	var job domain.JobPosting
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByIDs retrieves job postings by a list of IDs.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: list of job posting IDs.
// Returns:
//   - []domain.JobPosting: matching job records.
//   - error: non-nil if the query fails.
func (r *JobRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.JobPosting, error) {
	if len(ids) == 0 {
		return []domain.JobPosting{}, nil
	}
	var jobs []domain.JobPosting
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to get jobs by IDs: %w", err)
	}
	return jobs, nil
}

// CountAll counts all stored job postings.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - int64: number of job rows.
//   - error: non-nil if the query fails.
func (r *JobRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.JobPosting{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
