package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
)

// ScheduledJob is a persisted one-shot timer tied to a campaign. Rows
// survive restarts; the scheduler re-arms every scheduled row at boot and
// the sweep picks up anything an in-process timer missed. Status moves
// scheduled -> completed or scheduled -> failed, never back.
type ScheduledJob struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	CampaignID    uuid.UUID                `gorm:"column:campaign_id;type:uuid;not null;uniqueIndex:idx_scheduled_jobs_campaign_kind"`
	Kind          enums.ScheduledJobKind   `gorm:"column:kind;not null;uniqueIndex:idx_scheduled_jobs_campaign_kind"`
	RunAt         time.Time                `gorm:"column:run_at;not null;index"`
	Status        enums.ScheduledJobStatus `gorm:"column:status;not null;default:'scheduled';index"`
	FailureReason *string                  `gorm:"column:failure_reason"`
	FiredAt       *time.Time               `gorm:"column:fired_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (j *ScheduledJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
