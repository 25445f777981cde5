package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/metrics"
)

const overdueFailureReason = "target time elapsed before firing"

// Service arms exactly one in-process timer per persisted job. Rows are the
// source of truth: a timer that fires re-reads its row and no-ops unless the
// row is still scheduled, so duplicate timers and restarts are harmless.
// A job whose target time has already passed is marked failed rather than
// fired late.
type Service interface {
	Schedule(ctx context.Context, campaignID uuid.UUID, kind enums.ScheduledJobKind, whenOverride *time.Time) (*models.ScheduledJob, error)
	Reschedule(ctx context.Context, jobID uuid.UUID, runAt time.Time) (*models.ScheduledJob, error)
	Cancel(ctx context.Context, jobID uuid.UUID) error
	Recover(ctx context.Context) error
	Stop()
}

// ServiceParams configure the scheduler service.
type ServiceParams struct {
	Logger    *logger.Logger
	Repo      Repository
	Campaigns CampaignApplier
	Metrics   *metrics.JobMetrics
}

type service struct {
	logg      *logger.Logger
	repo      Repository
	campaigns CampaignApplier
	metrics   *metrics.JobMetrics
	now       func() time.Time

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

// NewService builds a scheduler service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("scheduler repository required")
	}
	if params.Campaigns == nil {
		return nil, fmt.Errorf("campaign applier required")
	}
	return &service{
		logg:      params.Logger,
		repo:      params.Repo,
		campaigns: params.Campaigns,
		metrics:   params.Metrics,
		now:       time.Now,
		timers:    make(map[uuid.UUID]*time.Timer),
	}, nil
}

// Schedule persists a job for the campaign and arms its timer. The target
// time comes from the campaign window unless overridden. One job per
// campaign and kind; a second attempt is a conflict.
func (s *service) Schedule(ctx context.Context, campaignID uuid.UUID, kind enums.ScheduledJobKind, whenOverride *time.Time) (*models.ScheduledJob, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid job kind")
	}

	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	runAt := campaign.StartsAt
	if kind == enums.JobKindCampaignEnd {
		runAt = campaign.EndsAt
	}
	if whenOverride != nil {
		runAt = *whenOverride
	}

	job := &models.ScheduledJob{
		CampaignID: campaignID,
		Kind:       kind,
		RunAt:      runAt.UTC(),
		Status:     enums.JobStatusScheduled,
	}
	created, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "job already scheduled for campaign").
				WithDetails(map[string]any{"kind": kind})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist scheduled job")
	}

	return s.armOrFail(ctx, created)
}

// Reschedule moves a still-scheduled job to a new target time, cancelling
// any armed timer before re-arming.
func (s *service) Reschedule(ctx context.Context, jobID uuid.UUID, runAt time.Time) (*models.ScheduledJob, error) {
	job, err := s.repo.FindJob(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find scheduled job")
	}
	if job == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scheduled job not found")
	}
	if job.Status != enums.JobStatusScheduled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "job is no longer scheduled").
			WithDetails(map[string]any{"status": job.Status})
	}

	s.disarm(jobID)

	updated, err := s.repo.UpdateRunAt(ctx, jobID, runAt.UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update job run time")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "job is no longer scheduled")
	}
	job.RunAt = runAt.UTC()

	return s.armOrFail(ctx, job)
}

// Cancel disarms and deletes a still-scheduled job.
func (s *service) Cancel(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.repo.FindJob(ctx, jobID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find scheduled job")
	}
	if job == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "scheduled job not found")
	}
	if job.Status != enums.JobStatusScheduled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "job is no longer scheduled").
			WithDetails(map[string]any{"status": job.Status})
	}

	s.disarm(jobID)

	deleted, err := s.repo.DeleteJob(ctx, jobID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete scheduled job")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "job is no longer scheduled")
	}
	return nil
}

// Recover re-arms every scheduled row after a restart. Rows whose target
// time passed while the process was down are marked failed; firing a flash
// sale late is worse than not firing it at all.
func (s *service) Recover(ctx context.Context) error {
	jobs, err := s.repo.FindScheduledJobs(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scheduled jobs")
	}

	rearmed, expired := 0, 0
	for i := range jobs {
		job := jobs[i]
		if !job.RunAt.After(s.now()) {
			if _, err := s.repo.MarkFailed(ctx, job.ID, overdueFailureReason, nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail overdue job")
			}
			expired++
			continue
		}
		s.arm(&job)
		rearmed++
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"rearmed": rearmed, "expired": expired})
	s.logg.Info(logCtx, "scheduled job recovery complete")
	return nil
}

// Stop disarms every in-process timer. Persisted rows are untouched and
// will be recovered on the next boot.
func (s *service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// armOrFail arms a timer for the job, or marks it failed in place when its
// target time has already passed.
func (s *service) armOrFail(ctx context.Context, job *models.ScheduledJob) (*models.ScheduledJob, error) {
	if !job.RunAt.After(s.now()) {
		if _, err := s.repo.MarkFailed(ctx, job.ID, overdueFailureReason, nil); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail overdue job")
		}
		job.Status = enums.JobStatusFailed
		reason := overdueFailureReason
		job.FailureReason = &reason
		s.logg.Warn(s.logg.WithJobID(ctx, job.ID.String()), "job target already elapsed; marked failed")
		return job, nil
	}
	s.arm(job)
	return job, nil
}

func (s *service) arm(job *models.ScheduledJob) {
	jobID := job.ID
	delay := time.Until(job.RunAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[jobID]; ok {
		existing.Stop()
	}
	s.timers[jobID] = time.AfterFunc(delay, func() {
		s.fire(jobID)
	})
}

func (s *service) disarm(jobID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[jobID]; ok {
		timer.Stop()
		delete(s.timers, jobID)
	}
}

// fire runs when a timer elapses. The row is re-read first so stale timers
// from a cancelled or already-handled job do nothing.
func (s *service) fire(jobID uuid.UUID) {
	ctx := s.logg.WithJobID(context.Background(), jobID.String())

	s.disarm(jobID)

	job, err := s.repo.FindJob(ctx, jobID)
	if err != nil {
		s.logg.Error(ctx, "load job for firing", err)
		return
	}
	if job == nil || job.Status != enums.JobStatusScheduled {
		return
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"kind":        job.Kind.String(),
		"campaign_id": job.CampaignID.String(),
	})
	s.logg.Info(ctx, "scheduled job firing")

	start := s.now()
	runErr := s.run(ctx, job)
	s.metrics.ObserveDuration(job.Kind.String(), time.Since(start))

	firedAt := s.now().UTC()
	if runErr != nil {
		s.metrics.IncFailure(job.Kind.String())
		s.logg.Error(ctx, "scheduled job failed", runErr)
		if _, err := s.repo.MarkFailed(ctx, jobID, runErr.Error(), &firedAt); err != nil {
			s.logg.Error(ctx, "mark job failed", err)
		}
		return
	}

	s.metrics.IncSuccess(job.Kind.String())
	if _, err := s.repo.MarkCompleted(ctx, jobID, firedAt); err != nil {
		s.logg.Error(ctx, "mark job completed", err)
		return
	}
	s.logg.Info(ctx, "scheduled job completed")
}

func (s *service) run(ctx context.Context, job *models.ScheduledJob) error {
	switch job.Kind {
	case enums.JobKindCampaignStart:
		return s.campaigns.ApplyCampaignStart(ctx, job.CampaignID)
	case enums.JobKindCampaignEnd:
		return s.campaigns.ApplyCampaignEnd(ctx, job.CampaignID)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}
