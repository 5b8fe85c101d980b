package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
)

func testPlans() []models.BillingPlan {
	return []models.BillingPlan{
		{
			ID:           "starter",
			Name:         "Starter",
			Status:       enums.PlanStatusActive,
			Interval:     enums.BillingIntervalMonthly,
			PriceAmount:  decimal.NewFromFloat(9.99),
			CurrencyCode: "USD",
			Features:     []string{"basic-catalog"},
			IsDefault:    true,
		},
		{
			ID:           "pro-monthly",
			Name:         "Pro",
			Status:       enums.PlanStatusActive,
			Interval:     enums.BillingIntervalMonthly,
			PriceAmount:  decimal.NewFromFloat(29.99),
			CurrencyCode: "USD",
			Features:     []string{"basic-catalog", "priority-support"},
			TrialDays:    14,
		},
		{
			ID:       "legacy",
			Name:     "Legacy",
			Status:   enums.PlanStatusDeprecated,
			Interval: enums.BillingIntervalYearly,
		},
	}
}

func TestPlanListExcludesDeprecated(t *testing.T) {
	handler := PlanList(newBillingService(t, &stubBillingRepo{plans: testPlans()}), nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []planResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 plans got %d", len(envelope.Data))
	}
	if envelope.Data[1].PriceAmount != "29.99" {
		t.Fatalf("unexpected price: %s", envelope.Data[1].PriceAmount)
	}
	if envelope.Data[1].TrialDays != 14 {
		t.Fatalf("unexpected trial days: %d", envelope.Data[1].TrialDays)
	}
}

func TestPlanDetailSuccess(t *testing.T) {
	handler := PlanDetail(newBillingService(t, &stubBillingRepo{plans: testPlans()}), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/pro-monthly", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("planId", "pro-monthly")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data planResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Name != "Pro" {
		t.Fatalf("unexpected plan: %+v", envelope.Data)
	}
}

func TestPlanDetailNotFound(t *testing.T) {
	handler := PlanDetail(newBillingService(t, &stubBillingRepo{}), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/missing", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("planId", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
