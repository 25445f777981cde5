package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a scheduled job repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateJob(ctx context.Context, job *models.ScheduledJob) (*models.ScheduledJob, error) {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *repository) FindJob(ctx context.Context, id uuid.UUID) (*models.ScheduledJob, error) {
	var job models.ScheduledJob
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repository) FindScheduledJobs(ctx context.Context) ([]models.ScheduledJob, error) {
	var jobs []models.ScheduledJob
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.JobStatusScheduled).
		Order("run_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateRunAt moves the target time of a still-scheduled job. A zero-row
// update means the job already completed, failed or disappeared.
func (r *repository) UpdateRunAt(ctx context.Context, id uuid.UUID, runAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("id = ? AND status = ?", id, enums.JobStatusScheduled).
		Update("run_at", runAt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, firedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("id = ? AND status = ?", id, enums.JobStatusScheduled).
		Updates(map[string]any{
			"status":   enums.JobStatusCompleted,
			"fired_at": firedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, firedAt *time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ScheduledJob{}).
		Where("id = ? AND status = ?", id, enums.JobStatusScheduled).
		Updates(map[string]any{
			"status":         enums.JobStatusFailed,
			"failure_reason": reason,
			"fired_at":       firedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteJob removes a still-scheduled job. Completed and failed rows stay
// as an audit trail.
func (r *repository) DeleteJob(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, enums.JobStatusScheduled).
		Delete(&models.ScheduledJob{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
