package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/marketloft-backend/pkg/types"
)

// TokenSource supplies the bearer token for each request. Returning an
// empty string sends the request unauthenticated.
type TokenSource func() string

// APIError is the decoded error envelope returned by the backend.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// ClientConfig configures the storefront API client.
type ClientConfig struct {
	BaseURL     string
	HTTPClient  *http.Client
	TokenSource TokenSource
}

// Client issues the storefront's REST requests and decodes envelopes. It
// carries no retry or timeout policy of its own.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
}

func NewClient(cfg ClientConfig) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, http: httpClient, tokens: cfg.TokenSource}, nil
}

// FetchCart loads the caller's active cart, creating it on first access.
func (c *Client) FetchCart(ctx context.Context) (Cart, error) {
	var wire wireCart
	if err := c.do(ctx, http.MethodGet, "/api/v1/cart", nil, &wire); err != nil {
		return Cart{}, err
	}
	return wire.toCart(), nil
}

// AddCartItem adds one product to the cart.
func (c *Client) AddCartItem(ctx context.Context, productID string, quantity int) (Cart, error) {
	body := map[string]any{"product_id": productID}
	if quantity > 0 {
		body["quantity"] = quantity
	}
	var wire wireCart
	if err := c.do(ctx, http.MethodPost, "/api/v1/cart/items", body, &wire); err != nil {
		return Cart{}, err
	}
	return wire.toCart(), nil
}

// AdjustCartItem applies a signed quantity delta to one line.
func (c *Client) AdjustCartItem(ctx context.Context, productID string, delta int) (Cart, error) {
	body := map[string]any{"delta": delta}
	var wire wireCart
	if err := c.do(ctx, http.MethodPatch, "/api/v1/cart/items/"+url.PathEscape(productID), body, &wire); err != nil {
		return Cart{}, err
	}
	return wire.toCart(), nil
}

// RemoveCartItem deletes one line from the cart.
func (c *Client) RemoveCartItem(ctx context.Context, productID string) (Cart, error) {
	var wire wireCart
	if err := c.do(ctx, http.MethodDelete, "/api/v1/cart/items/"+url.PathEscape(productID), nil, &wire); err != nil {
		return Cart{}, err
	}
	return wire.toCart(), nil
}

// ClearCart empties the cart server-side.
func (c *Client) ClearCart(ctx context.Context) (Cart, error) {
	var wire wireCart
	if err := c.do(ctx, http.MethodPost, "/api/v1/cart/clear", nil, &wire); err != nil {
		return Cart{}, err
	}
	return wire.toCart(), nil
}

// CurrentSubscription returns the usable subscription, or nil when the
// server reports none.
func (c *Client) CurrentSubscription(ctx context.Context) (*Subscription, error) {
	var sub *Subscription
	if err := c.do(ctx, http.MethodGet, "/api/v1/subscriptions", nil, &sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ListPlans returns the purchasable plans.
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := c.do(ctx, http.MethodGet, "/api/v1/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// CreateSubscription subscribes the caller to the plan.
func (c *Client) CreateSubscription(ctx context.Context, planID string) (*Subscription, error) {
	var sub Subscription
	body := map[string]any{"plan_id": planID}
	if err := c.do(ctx, http.MethodPost, "/api/v1/subscriptions", body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription schedules the current subscription to lapse.
func (c *Client) CancelSubscription(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/api/v1/subscriptions/cancel", nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListInvoices pages through the caller's invoices, newest first. A zero
// limit leaves paging to the server default; pass the previous page's
// NextCursor to continue.
func (c *Client) ListInvoices(ctx context.Context, limit int, cursor string) (InvoicePage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	path := "/api/v1/invoices"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var page InvoicePage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return InvoicePage{}, err
	}
	return page, nil
}

// GetInvoice returns one invoice by id.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (Invoice, error) {
	var invoice Invoice
	if err := c.do(ctx, http.MethodGet, "/api/v1/invoices/"+url.PathEscape(invoiceID), nil, &invoice); err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

// DownloadInvoice fetches the invoice PDF along with the filename the
// server suggests.
func (c *Client) DownloadInvoice(ctx context.Context, invoiceID string) (InvoiceDocument, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/invoices/"+url.PathEscape(invoiceID)+"/download", nil)
	if err != nil {
		return InvoiceDocument{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return InvoiceDocument{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return InvoiceDocument{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return InvoiceDocument{}, decodeAPIError(resp.StatusCode, raw)
	}

	return InvoiceDocument{
		Filename: dispositionFilename(resp.Header.Get("Content-Disposition")),
		Data:     raw,
	}, nil
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.tokens != nil {
		if token := c.tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		return &APIError{
			StatusCode: status,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
		}
	}
	return &APIError{
		StatusCode: status,
		Code:       "HTTP_ERROR",
		Message:    http.StatusText(status),
	}
}
