package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/api/responses"
	"github.com/angelmondragon/marketloft-backend/api/validators"
	cartsvc "github.com/angelmondragon/marketloft-backend/internal/cart"
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketloft-backend/pkg/errors"
	"github.com/angelmondragon/marketloft-backend/pkg/logger"
)

type cartAddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1"`
}

type cartAdjustItemRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type cartItemResponse struct {
	ProductID         uuid.UUID `json:"product_id"`
	Title             string    `json:"title,omitempty"`
	SKU               string    `json:"sku,omitempty"`
	Quantity          int       `json:"quantity"`
	UnitPriceCents    int       `json:"unit_price_cents"`
	LineSubtotalCents int       `json:"line_subtotal_cents"`
}

type cartResponse struct {
	ID            uuid.UUID          `json:"id"`
	Status        string             `json:"status"`
	Currency      string             `json:"currency"`
	SubtotalCents int                `json:"subtotal_cents"`
	ItemCount     int                `json:"item_count"`
	Items         []cartItemResponse `json:"items"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func newCartResponse(cart *models.Cart) cartResponse {
	resp := cartResponse{
		Items: []cartItemResponse{},
	}
	if cart == nil {
		return resp
	}
	resp.ID = cart.ID
	resp.Status = string(cart.Status)
	resp.Currency = string(cart.Currency)
	resp.SubtotalCents = cart.SubtotalCents
	resp.UpdatedAt = cart.UpdatedAt
	for _, item := range cart.Items {
		line := cartItemResponse{
			ProductID:         item.ProductID,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			LineSubtotalCents: item.LineSubtotalCents,
		}
		if item.Product != nil {
			line.Title = item.Product.Title
			line.SKU = item.Product.SKU
		}
		resp.Items = append(resp.Items, line)
	}
	// item_count is distinct lines, not total units.
	resp.ItemCount = len(resp.Items)
	return resp
}

// CartFetch returns the caller's active cart, creating it on first access.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetOrCreate(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartAddItem inserts a new product line into the cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AddItem(r.Context(), userID, cartsvc.AddItemInput{
			ProductID: body.ProductID,
			Quantity:  body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(cart))
	}
}

// CartAdjustItem changes a line's quantity by the supplied delta.
func CartAdjustItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := productIDFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cartAdjustItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.AdjustQuantity(r.Context(), userID, productID, body.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartRemoveItem drops a product line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := productIDFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

// CartClear removes every line and resets the cart totals.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Clear(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(cart))
	}
}

func productIDFromRoute(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "productId")
	productID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return productID, nil
}
