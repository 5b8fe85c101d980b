package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/marketloft-backend/api/responses"
	billingsvc "github.com/angelmondragon/marketloft-backend/internal/billing"
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketloft-backend/pkg/errors"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
)

type planResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Interval     string   `json:"interval"`
	PriceAmount  string   `json:"price_amount"`
	CurrencyCode string   `json:"currency_code"`
	Features     []string `json:"features"`
	TrialDays    int      `json:"trial_days"`
	IsDefault    bool     `json:"is_default"`
}

func newPlanResponse(plan models.BillingPlan) planResponse {
	features := make([]string, 0, len(plan.Features))
	features = append(features, plan.Features...)
	return planResponse{
		ID:           plan.ID,
		Name:         plan.Name,
		Status:       string(plan.Status),
		Interval:     string(plan.Interval),
		PriceAmount:  plan.PriceAmount.StringFixed(2),
		CurrencyCode: plan.CurrencyCode,
		Features:     features,
		TrialDays:    plan.TrialDays,
		IsDefault:    plan.IsDefault,
	}
}

// PlanList returns the purchasable billing plans.
func PlanList(svc *billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		plans, err := svc.ListPlans(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]planResponse, 0, len(plans))
		for _, plan := range plans {
			out = append(out, newPlanResponse(plan))
		}
		responses.WriteSuccess(w, out)
	}
}

// PlanDetail returns one plan by id.
func PlanDetail(svc *billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		plan, err := svc.FindPlanByID(r.Context(), chi.URLParam(r, "planId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPlanResponse(*plan))
	}
}
