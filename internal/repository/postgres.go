package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dropoutsanta/cursorleaderboard/internal/models"
)

// ErrNotFound is returned when a submission lookup matches nothing.
var ErrNotFound = errors.New("submission not found")

// SubmissionRepository handles all PostgreSQL operations
type SubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{
		db: db,
	}
}

// Create inserts a new submission. The unique index on user_id is the
// store-level duplicate guard; with TranslateError enabled a concurrent
// duplicate surfaces as gorm.ErrDuplicatedKey.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// ExistsForUser reports whether the user already owns a submission. This is
// the fast pre-check; correctness still rests on the unique index.
func (r *SubmissionRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

// GetByID retrieves a submission by its id
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// ListByTokens retrieves all submissions ordered by the primary metric
// descending; ties keep insertion order so repeated reads are stable.
func (r *SubmissionRepository) ListByTokens(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.WithContext(ctx).
		Order("tokens DESC").Order("created_at ASC").Order("id ASC").
		Find(&subs).Error
	return subs, err
}

// CountGreaterThan counts submissions whose metric strictly exceeds the
// given canonical token string. The column is numeric so the comparison is
// exact at any magnitude.
func (r *SubmissionRepository) CountGreaterThan(ctx context.Context, tokens string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("tokens > ?::numeric", tokens).Count(&count).Error
	return count, err
}

// Count returns the total number of submissions
func (r *SubmissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).Count(&count).Error
	return count, err
}

// BulkInsert efficiently inserts multiple submissions (seeder)
func (r *SubmissionRepository) BulkInsert(ctx context.Context, subs []models.Submission, batchSize int) error {
	return r.db.WithContext(ctx).CreateInBatches(subs, batchSize).Error
}

// Ping checks if database is reachable
func (r *SubmissionRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *SubmissionRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs database migrations
func (r *SubmissionRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.Submission{})
}
