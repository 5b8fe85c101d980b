package storefront

import "time"

// Product is the reference a cart line points at.
type Product struct {
	ID         string `json:"product_id"`
	Title      string `json:"title,omitempty"`
	SKU        string `json:"sku,omitempty"`
	PriceCents int    `json:"unit_price_cents"`
}

// CartItem is one line in the cart, unique per product id.
type CartItem struct {
	Product  Product
	Quantity int
}

// Cart is the client-side view of the server cart resource.
type Cart struct {
	ID       string
	Currency string
	Items    []CartItem
}

// Subscription mirrors the server subscription payload.
type Subscription struct {
	ID                 string     `json:"id"`
	PlanID             string     `json:"plan_id"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	TrialEnd           *time.Time `json:"trial_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
	Plan               *Plan      `json:"plan,omitempty"`
}

// Plan mirrors the server billing plan payload.
type Plan struct {
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

// Invoice mirrors the server invoice payload.
type Invoice struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	Number         string    `json:"number"`
	Status         string    `json:"status"`
	AmountCents    int       `json:"amount_cents"`
	Currency       string    `json:"currency"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	IssuedAt       time.Time `json:"issued_at"`
}

// InvoicePage is one page of the invoice listing. NextCursor is empty on
// the last page.
type InvoicePage struct {
	Invoices   []Invoice `json:"invoices"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// InvoiceDocument is a downloaded invoice PDF.
type InvoiceDocument struct {
	Filename string
	Data     []byte
}

// Subscription statuses the view layer cares about. Anything outside
// active/trialing is treated as no subscription.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
)

type wireCartItem struct {
	ProductID         string `json:"product_id"`
	Title             string `json:"title,omitempty"`
	SKU               string `json:"sku,omitempty"`
	Quantity          int    `json:"quantity"`
	UnitPriceCents    int    `json:"unit_price_cents"`
	LineSubtotalCents int    `json:"line_subtotal_cents"`
}

type wireCart struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Currency      string         `json:"currency"`
	SubtotalCents int            `json:"subtotal_cents"`
	Items         []wireCartItem `json:"items"`
}

const zeroProductID = "00000000-0000-0000-0000-000000000000"

// toCart drops lines whose product reference does not resolve.
func (w wireCart) toCart() Cart {
	cart := Cart{
		ID:       w.ID,
		Currency: w.Currency,
		Items:    make([]CartItem, 0, len(w.Items)),
	}
	for _, line := range w.Items {
		if line.ProductID == "" || line.ProductID == zeroProductID {
			continue
		}
		cart.Items = append(cart.Items, CartItem{
			Product: Product{
				ID:         line.ProductID,
				Title:      line.Title,
				SKU:        line.SKU,
				PriceCents: line.UnitPriceCents,
			},
			Quantity: line.Quantity,
		})
	}
	return cart
}
