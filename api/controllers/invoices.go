package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/api/responses"
	"github.com/angelmondragon/marketloft-backend/api/validators"
	billingsvc "github.com/angelmondragon/marketloft-backend/internal/billing"
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketloft-backend/pkg/errors"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
	"github.com/angelmondragon/marketloft-backend/pkg/pagination"
)

type invoiceResponse struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	Number         string    `json:"number"`
	Status         string    `json:"status"`
	AmountCents    int       `json:"amount_cents"`
	Currency       string    `json:"currency"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	IssuedAt       time.Time `json:"issued_at"`
}

type invoiceListResponse struct {
	Invoices   []invoiceResponse `json:"invoices"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func newInvoiceResponse(invoice models.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:             invoice.ID,
		SubscriptionID: invoice.SubscriptionID,
		Number:         invoice.Number,
		Status:         string(invoice.Status),
		AmountCents:    invoice.AmountCents,
		Currency:       string(invoice.Currency),
		PeriodStart:    invoice.PeriodStart,
		PeriodEnd:      invoice.PeriodEnd,
		IssuedAt:       invoice.IssuedAt,
	}
}

// InvoiceList pages through the caller's invoices, newest first.
func InvoiceList(svc *billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		invoices, next, err := svc.ListInvoices(r.Context(), userID, limit, cursor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := invoiceListResponse{Invoices: make([]invoiceResponse, 0, len(invoices))}
		for _, invoice := range invoices {
			out.Invoices = append(out.Invoices, newInvoiceResponse(invoice))
		}
		if next != nil {
			out.NextCursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, out)
	}
}

// InvoiceDetail returns one invoice owned by the caller.
func InvoiceDetail(svc *billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := invoiceIDFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.GetInvoice(r.Context(), invoiceID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newInvoiceResponse(*invoice))
	}
}

// InvoiceDownload streams the stored invoice PDF.
func InvoiceDownload(svc *billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := invoiceIDFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pdf, filename, err := svc.Download(r.Context(), invoiceID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
	}
}

func invoiceIDFromRoute(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "invoiceId")
	invoiceID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id")
	}
	return invoiceID, nil
}
