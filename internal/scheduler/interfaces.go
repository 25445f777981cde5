package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
)

// Repository defines persistence for one-shot scheduled jobs. The mark
// operations are guarded so a row only ever leaves the scheduled state once.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateJob(ctx context.Context, job *models.ScheduledJob) (*models.ScheduledJob, error)
	FindJob(ctx context.Context, id uuid.UUID) (*models.ScheduledJob, error)
	FindScheduledJobs(ctx context.Context) ([]models.ScheduledJob, error)
	UpdateRunAt(ctx context.Context, id uuid.UUID, runAt time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, firedAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, firedAt *time.Time) (bool, error)
	DeleteJob(ctx context.Context, id uuid.UUID) (bool, error)
}

// CampaignApplier is the slice of the flash-sale service the scheduler
// needs: campaign lookup plus the idempotent start and end handlers.
type CampaignApplier interface {
	GetCampaign(ctx context.Context, id uuid.UUID) (*models.FlashSaleCampaign, error)
	ApplyCampaignStart(ctx context.Context, campaignID uuid.UUID) error
	ApplyCampaignEnd(ctx context.Context, campaignID uuid.UUID) error
}

// FlashSaleSweeper exposes the repair queries and handlers the sweep uses.
type FlashSaleSweeper interface {
	CurrentUnstamped(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	EndedStillStamped(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ApplyCampaignStart(ctx context.Context, campaignID uuid.UUID) error
	ApplyCampaignEnd(ctx context.Context, campaignID uuid.UUID) error
}
