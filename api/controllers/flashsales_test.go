package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	schedulersvc "github.com/nguyenhuy-dev/storelane-backend/internal/scheduler"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
)

type stubSchedulerService struct {
	job *models.ScheduledJob
	err error

	gotSchedule struct {
		campaignID uuid.UUID
		kind       enums.ScheduledJobKind
		override   *time.Time
	}
	gotCancel uuid.UUID
}

var _ schedulersvc.Service = (*stubSchedulerService)(nil)

func (s *stubSchedulerService) Schedule(ctx context.Context, campaignID uuid.UUID, kind enums.ScheduledJobKind, whenOverride *time.Time) (*models.ScheduledJob, error) {
	s.gotSchedule.campaignID = campaignID
	s.gotSchedule.kind = kind
	s.gotSchedule.override = whenOverride
	return s.job, s.err
}

func (s *stubSchedulerService) Reschedule(ctx context.Context, jobID uuid.UUID, runAt time.Time) (*models.ScheduledJob, error) {
	return s.job, s.err
}

func (s *stubSchedulerService) Cancel(ctx context.Context, jobID uuid.UUID) error {
	s.gotCancel = jobID
	return s.err
}

func (s *stubSchedulerService) Recover(ctx context.Context) error { return s.err }

func (s *stubSchedulerService) Stop() {}

func TestAdminCampaignScheduleSuccess(t *testing.T) {
	campaignID := uuid.New()
	job := &models.ScheduledJob{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Kind:       enums.JobKindCampaignStart,
		RunAt:      time.Now().Add(time.Hour).UTC(),
		Status:     enums.JobStatusScheduled,
	}
	svc := &stubSchedulerService{job: job}
	handler := AdminCampaignSchedule(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/flash-sales/x/schedule", strings.NewReader(`{"kind":"campaign_start"}`))
	req = withURLParam(req, "campaignId", campaignID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotSchedule.campaignID != campaignID {
		t.Fatalf("unexpected campaign %s", svc.gotSchedule.campaignID)
	}
	if svc.gotSchedule.kind != enums.JobKindCampaignStart {
		t.Fatalf("unexpected kind %s", svc.gotSchedule.kind)
	}
	if svc.gotSchedule.override != nil {
		t.Fatal("expected nil override")
	}
}

func TestAdminCampaignScheduleRejectsUnknownKind(t *testing.T) {
	handler := AdminCampaignSchedule(&stubSchedulerService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/flash-sales/x/schedule", strings.NewReader(`{"kind":"campaign_pause"}`))
	req = withURLParam(req, "campaignId", uuid.NewString())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminCampaignScheduleDuplicateConflicts(t *testing.T) {
	svc := &stubSchedulerService{err: pkgerrors.New(pkgerrors.CodeConflict, "job already scheduled for campaign")}
	handler := AdminCampaignSchedule(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/flash-sales/x/schedule", strings.NewReader(`{"kind":"campaign_end"}`))
	req = withURLParam(req, "campaignId", uuid.NewString())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAdminJobCancel(t *testing.T) {
	jobID := uuid.New()
	svc := &stubSchedulerService{}
	handler := AdminJobCancel(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/flash-sales/jobs/x", nil)
	req = withURLParam(req, "jobId", jobID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotCancel != jobID {
		t.Fatalf("expected cancel of %s, got %s", jobID, svc.gotCancel)
	}
}

func TestAdminJobCancelRejectsBadID(t *testing.T) {
	handler := AdminJobCancel(&stubSchedulerService{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/flash-sales/jobs/x", nil)
	req = withURLParam(req, "jobId", "not-a-uuid")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
