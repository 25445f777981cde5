package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nguyenhuy-dev/storelane-backend/api/responses"
	"github.com/nguyenhuy-dev/storelane-backend/api/validators"
	flashsvc "github.com/nguyenhuy-dev/storelane-backend/internal/flashsale"
	schedulersvc "github.com/nguyenhuy-dev/storelane-backend/internal/scheduler"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
)

type createCampaignRequest struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
}

// AdminCampaignCreate registers a flash-sale window.
func AdminCampaignCreate(svc flashsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCampaignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaign, err := svc.CreateCampaign(r.Context(), flashsvc.CreateCampaignInput{
			Name:        payload.Name,
			Description: payload.Description,
			StartsAt:    payload.StartsAt,
			EndsAt:      payload.EndsAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCampaignResponse(campaign))
	}
}

type enrollItemRequest struct {
	ProductID       uuid.UUID  `json:"product_id" validate:"required"`
	VariantID       *uuid.UUID `json:"variant_id"`
	DiscountPercent int        `json:"discount_percent" validate:"required,min=1,max=100"`
	QtyCap          *int       `json:"qty_cap"`
}

// AdminCampaignAddItem enrolls a product (or a single variant) in a campaign.
func AdminCampaignAddItem(svc flashsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID, err := uuid.Parse(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid campaign id"))
			return
		}

		var payload enrollItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), campaignID, flashsvc.AddItemInput{
			ProductID:       payload.ProductID,
			VariantID:       payload.VariantID,
			DiscountPercent: payload.DiscountPercent,
			QtyCap:          payload.QtyCap,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCampaignItemResponse(item))
	}
}

type scheduleJobRequest struct {
	Kind         string     `json:"kind" validate:"required"`
	WhenOverride *time.Time `json:"when_override"`
}

// AdminCampaignSchedule persists and arms a one-shot start or end job.
func AdminCampaignSchedule(svc schedulersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID, err := uuid.Parse(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid campaign id"))
			return
		}

		var payload scheduleJobRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseScheduledJobKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job kind"))
			return
		}

		job, err := svc.Schedule(r.Context(), campaignID, kind, payload.WhenOverride)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newScheduledJobResponse(job))
	}
}

// AdminJobCancel disarms and removes a scheduled job.
func AdminJobCancel(svc schedulersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "jobId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job id"))
			return
		}

		if err := svc.Cancel(r.Context(), jobID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"cancelled": true})
	}
}

type campaignResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func newCampaignResponse(c *models.FlashSaleCampaign) campaignResponse {
	return campaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		StartsAt:    c.StartsAt,
		EndsAt:      c.EndsAt,
		CreatedAt:   c.CreatedAt,
	}
}

type campaignItemResponse struct {
	ID              uuid.UUID  `json:"id"`
	CampaignID      uuid.UUID  `json:"campaign_id"`
	ProductID       uuid.UUID  `json:"product_id"`
	VariantID       *uuid.UUID `json:"variant_id,omitempty"`
	DiscountPercent int        `json:"discount_percent"`
	QtyCap          *int       `json:"qty_cap,omitempty"`
}

func newCampaignItemResponse(item *models.FlashSaleItem) campaignItemResponse {
	return campaignItemResponse{
		ID:              item.ID,
		CampaignID:      item.CampaignID,
		ProductID:       item.ProductID,
		VariantID:       item.VariantID,
		DiscountPercent: item.DiscountPercent,
		QtyCap:          item.QtyCap,
	}
}

type scheduledJobResponse struct {
	ID            uuid.UUID  `json:"id"`
	CampaignID    uuid.UUID  `json:"campaign_id"`
	Kind          string     `json:"kind"`
	RunAt         time.Time  `json:"run_at"`
	Status        string     `json:"status"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	FiredAt       *time.Time `json:"fired_at,omitempty"`
}

func newScheduledJobResponse(job *models.ScheduledJob) scheduledJobResponse {
	return scheduledJobResponse{
		ID:            job.ID,
		CampaignID:    job.CampaignID,
		Kind:          string(job.Kind),
		RunAt:         job.RunAt,
		Status:        string(job.Status),
		FailureReason: job.FailureReason,
		FiredAt:       job.FiredAt,
	}
}
