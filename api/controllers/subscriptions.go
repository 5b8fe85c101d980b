package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/marketloft-backend/api/responses"
	"github.com/angelmondragon/marketloft-backend/api/validators"
	"github.com/angelmondragon/marketloft-backend/internal/subscriptions"
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketloft-backend/pkg/errors"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
	"github.com/google/uuid"
)

type subscriptionCreateRequest struct {
	PlanID string `json:"plan_id" validate:"required,max=64"`
}

type subscriptionResponse struct {
	ID                 uuid.UUID     `json:"id"`
	PlanID             string        `json:"plan_id"`
	Status             string        `json:"status"`
	CurrentPeriodStart *time.Time    `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   time.Time     `json:"current_period_end"`
	TrialEnd           *time.Time    `json:"trial_end,omitempty"`
	CancelAtPeriodEnd  bool          `json:"cancel_at_period_end"`
	CanceledAt         *time.Time    `json:"canceled_at,omitempty"`
	Plan               *planResponse `json:"plan,omitempty"`
}

func newSubscriptionResponse(sub *models.Subscription) subscriptionResponse {
	out := subscriptionResponse{
		ID:                 sub.ID,
		PlanID:             sub.PlanID,
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		TrialEnd:           sub.TrialEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CanceledAt:         sub.CanceledAt,
	}
	if sub.Plan != nil {
		plan := newPlanResponse(*sub.Plan)
		out.Plan = &plan
	}
	return out
}

// SubscriptionFetch returns the caller's current subscription, or null data
// when none exists.
func SubscriptionFetch(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.GetCurrent(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sub == nil {
			responses.WriteSuccess(w, nil)
			return
		}

		responses.WriteSuccess(w, newSubscriptionResponse(sub))
	}
}

// SubscriptionCreate starts a subscription on the requested plan.
func SubscriptionCreate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req subscriptionCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Create(r.Context(), userID, req.PlanID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSubscriptionResponse(sub))
	}
}

// SubscriptionCancel schedules the current subscription to lapse at period end.
func SubscriptionCancel(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Cancel(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSubscriptionResponse(sub))
	}
}
