package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/marketloft-backend/api/middleware"
	cartsvc "github.com/angelmondragon/marketloft-backend/internal/cart"
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketloft-backend/pkg/errors"
)

type stubCartService struct {
	cart *models.Cart
	err  error

	addInput    cartsvc.AddItemInput
	adjustDelta int
	removedID   uuid.UUID
	cleared     bool
}

func (s *stubCartService) GetOrCreate(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, ownerID uuid.UUID, input cartsvc.AddItemInput) (*models.Cart, error) {
	s.addInput = input
	return s.cart, s.err
}

func (s *stubCartService) AdjustQuantity(ctx context.Context, ownerID, productID uuid.UUID, delta int) (*models.Cart, error) {
	s.adjustDelta = delta
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, ownerID, productID uuid.UUID) (*models.Cart, error) {
	s.removedID = productID
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, ownerID uuid.UUID) (*models.Cart, error) {
	s.cleared = true
	return s.cart, s.err
}

func testCart(ownerID uuid.UUID) *models.Cart {
	productID := uuid.New()
	return &models.Cart{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Status:        enums.CartStatusActive,
		Currency:      enums.CurrencyUSD,
		SubtotalCents: 5998,
		Items: []models.CartItem{
			{
				ID:                uuid.New(),
				ProductID:         productID,
				Quantity:          2,
				UnitPriceCents:    2999,
				LineSubtotalCents: 5998,
			},
		},
	}
}

func authedRequest(method, target string, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func decodeCart(t *testing.T, resp *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestCartFetchSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{cart: testCart(userID)}
	handler := CartFetch(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart", "", userID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	data := decodeCart(t, resp)
	if data.ItemCount != 1 {
		t.Fatalf("expected item count 1 got %d", data.ItemCount)
	}
	if data.SubtotalCents != 5998 {
		t.Fatalf("unexpected subtotal: %d", data.SubtotalCents)
	}
}

func TestCartResponseItemCountIsDistinctLines(t *testing.T) {
	cart := &models.Cart{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Status:   enums.CartStatusActive,
		Currency: enums.CurrencyUSD,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 3, UnitPriceCents: 100, LineSubtotalCents: 300},
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 5, UnitPriceCents: 250, LineSubtotalCents: 1250},
		},
	}

	resp := newCartResponse(cart)

	if resp.ItemCount != 2 {
		t.Fatalf("expected item count 2 for two lines got %d", resp.ItemCount)
	}
}

func TestCartFetchMissingUser(t *testing.T) {
	handler := CartFetch(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemSuccess(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubCartService{cart: testCart(userID)}
	handler := CartAddItem(svc, nil)

	body := `{"product_id":"` + productID.String() + `","quantity":3}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", body, userID))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.addInput.ProductID != productID {
		t.Fatalf("unexpected product id: %s", svc.addInput.ProductID)
	}
	if svc.addInput.Quantity != 3 {
		t.Fatalf("unexpected quantity: %d", svc.addInput.Quantity)
	}
}

func TestCartAddItemRejectsBadBody(t *testing.T) {
	userID := uuid.New()
	handler := CartAddItem(&stubCartService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/items", `{"quantity":1}`, userID))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartAdjustItemSuccess(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubCartService{cart: testCart(userID)}
	handler := CartAdjustItem(svc, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/cart/items/"+productID.String(), `{"delta":-1}`, userID)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.adjustDelta != -1 {
		t.Fatalf("unexpected delta: %d", svc.adjustDelta)
	}
}

func TestCartAdjustItemBadProductID(t *testing.T) {
	userID := uuid.New()
	handler := CartAdjustItem(&stubCartService{}, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/cart/items/not-a-uuid", `{"delta":1}`, userID)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveItemSuccess(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubCartService{cart: testCart(userID)}
	handler := CartRemoveItem(svc, nil)

	req := authedRequest(http.MethodDelete, "/api/v1/cart/items/"+productID.String(), "", userID)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.removedID != productID {
		t.Fatalf("unexpected removed product: %s", svc.removedID)
	}
}

func TestCartClearConflict(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not active")}
	handler := CartClear(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/clear", "", userID))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if !svc.cleared {
		t.Fatal("expected clear to be invoked")
	}
}
