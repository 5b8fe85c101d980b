package storefront

import (
	"context"
	"sync"
)

// cartAPI is the slice of the API client the cart store depends on.
type cartAPI interface {
	FetchCart(ctx context.Context) (Cart, error)
	AddCartItem(ctx context.Context, productID string, quantity int) (Cart, error)
	AdjustCartItem(ctx context.Context, productID string, delta int) (Cart, error)
	RemoveCartItem(ctx context.Context, productID string) (Cart, error)
	ClearCart(ctx context.Context) (Cart, error)
}

// Notifier receives user-facing outcomes of cart operations.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Failure(string) {}

// CartStore holds the client-side view of the cart. Server responses are
// authoritative: every successful mutation replaces the local state with
// the returned cart. Each mutation is tagged with a generation token, and
// responses carrying a stale token are discarded so an older request that
// resolves late can never overwrite newer state.
type CartStore struct {
	api     cartAPI
	notify  Notifier
	mu      sync.Mutex
	cart    Cart
	authed  bool
	gen     uint64
	nextSub int
	subs    map[int]func(Cart)
}

func NewCartStore(api cartAPI, notify Notifier) *CartStore {
	if notify == nil {
		notify = noopNotifier{}
	}
	return &CartStore{
		api:    api,
		notify: notify,
		subs:   make(map[int]func(Cart)),
	}
}

// Subscribe registers a listener called with a snapshot after every state
// change. The returned function removes the listener.
func (s *CartStore) Subscribe(fn func(Cart)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current cart.
func (s *CartStore) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCart(s.cart)
}

// ItemCount reports the number of distinct cart lines.
func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cart.Items)
}

// Total reports the cart total in cents.
func (s *CartStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, item := range s.cart.Items {
		total += int64(item.Product.PriceCents) * int64(item.Quantity)
	}
	return total
}

// SetAuthenticated flips the session state. Signing in loads the cart from
// the server; signing out drops local state and invalidates any in-flight
// request.
func (s *CartStore) SetAuthenticated(ctx context.Context, authed bool) {
	s.mu.Lock()
	s.authed = authed
	s.gen++
	if !authed {
		s.cart = Cart{}
		s.publishLocked()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.Load(ctx)
}

// Load fetches the cart from the server. A failed fetch leaves the store
// with an empty cart rather than surfacing an error.
func (s *CartStore) Load(ctx context.Context) {
	s.mu.Lock()
	if !s.authed {
		s.cart = Cart{}
		s.publishLocked()
		s.mu.Unlock()
		return
	}
	s.gen++
	token := s.gen
	s.mu.Unlock()

	cart, err := s.api.FetchCart(ctx)
	if err != nil {
		s.notify.Failure("Could not load your cart.")
		cart = Cart{}
	}
	s.apply(token, cart)
}

// AddItem adds a product to the cart. A product already present is
// rejected locally without a server round trip.
func (s *CartStore) AddItem(ctx context.Context, product Product) {
	s.mu.Lock()
	if !s.authed {
		s.mu.Unlock()
		s.notify.Failure("Sign in to add items to your cart.")
		return
	}
	for _, item := range s.cart.Items {
		if item.Product.ID == product.ID {
			s.mu.Unlock()
			s.notify.Failure(product.Title + " is already in your cart.")
			return
		}
	}
	s.gen++
	token := s.gen
	s.mu.Unlock()

	cart, err := s.api.AddCartItem(ctx, product.ID, 1)
	if err != nil {
		s.notify.Failure("Could not add " + product.Title + " to your cart.")
		return
	}
	if s.apply(token, cart) {
		s.notify.Success(product.Title + " added to your cart.")
	}
}

// UpdateQuantity applies a signed delta to a line's quantity.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, delta int) {
	s.mu.Lock()
	if !s.authed {
		s.mu.Unlock()
		s.notify.Failure("Sign in to update your cart.")
		return
	}
	s.gen++
	token := s.gen
	s.mu.Unlock()

	cart, err := s.api.AdjustCartItem(ctx, productID, delta)
	if err != nil {
		s.notify.Failure("Could not update your cart.")
		return
	}
	s.apply(token, cart)
}

// RemoveItem deletes a line from the cart.
func (s *CartStore) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	if !s.authed {
		s.mu.Unlock()
		s.notify.Failure("Sign in to update your cart.")
		return
	}
	s.gen++
	token := s.gen
	s.mu.Unlock()

	cart, err := s.api.RemoveCartItem(ctx, productID)
	if err != nil {
		s.notify.Failure("Could not remove the item from your cart.")
		return
	}
	if s.apply(token, cart) {
		s.notify.Success("Item removed from your cart.")
	}
}

// Clear empties the cart. On success the local state resets to empty no
// matter what the server returned.
func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	if !s.authed {
		s.mu.Unlock()
		s.notify.Failure("Sign in to update your cart.")
		return
	}
	s.gen++
	token := s.gen
	s.mu.Unlock()

	if _, err := s.api.ClearCart(ctx); err != nil {
		s.notify.Failure("Could not clear your cart.")
		return
	}
	if s.apply(token, Cart{}) {
		s.notify.Success("Your cart is empty.")
	}
}

// apply installs a server response unless a newer mutation has started
// since the request was issued. It reports whether the state was applied.
func (s *CartStore) apply(token uint64, cart Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.gen {
		return false
	}
	s.cart = cart
	s.publishLocked()
	return true
}

func (s *CartStore) publishLocked() {
	snapshot := copyCart(s.cart)
	for _, fn := range s.subs {
		fn(snapshot)
	}
}

func copyCart(c Cart) Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}
