package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vadymuxd/searching-the-fox/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles user and user-job link operations.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *UserRepository: repository instance bound to db.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: user ID.
// Returns:
//   - *domain.User: user record if found.
//   - error: non-nil if lookup fails.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListSubscribed retrieves all users with email notifications enabled.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.User: subscribed users.
//   - error: non-nil if the query fails.
func (r *UserRepository) ListSubscribed(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).
		Where("email_notifications_enabled = ?", true).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// LinkJob creates a user-job link with status "new". The insert is
// idempotent: relinking an existing (user, job) pair is a no-op.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: owning user ID.
//   - jobID: linked job posting ID.
// Returns:
//   - bool: true when a new link was created.
//   - error: non-nil if the insert fails.
func (r *UserRepository) LinkJob(ctx context.Context, userID, jobID string) (bool, error) {
	link := &domain.UserJob{
		ID:     uuid.New().String(),
		UserID: userID,
		JobID:  jobID,
		Status: domain.UserJobStatusNew,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "job_id"}},
		DoNothing: true,
	}).Create(link)
	if res.Error != nil {
		return false, fmt.Errorf("failed to link job: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListNewJobLinks retrieves a user's "new"-status job links, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: user ID to query links for.
// Returns:
//   - []domain.UserJob: matching link records ordered by creation time descending.
//   - error: non-nil if the query fails.
func (r *UserRepository) ListNewJobLinks(ctx context.Context, userID string) ([]domain.UserJob, error) {
	var links []domain.UserJob
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.UserJobStatusNew).
		Order("created_at DESC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}
