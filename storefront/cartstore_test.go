package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type stubCartAPI struct {
	mu          sync.Mutex
	fetchCart   Cart
	fetchErr    error
	fetchCalls  int
	addCart     Cart
	addErr      error
	addCalls    int
	addedID     string
	adjustFn    func(productID string, delta int) (Cart, error)
	removeCart  Cart
	removeErr   error
	clearErr    error
	clearCalls  int
	clearedCart Cart
}

func (s *stubCartAPI) FetchCart(ctx context.Context) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	return s.fetchCart, s.fetchErr
}

func (s *stubCartAPI) AddCartItem(ctx context.Context, productID string, quantity int) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	s.addedID = productID
	return s.addCart, s.addErr
}

func (s *stubCartAPI) AdjustCartItem(ctx context.Context, productID string, delta int) (Cart, error) {
	if s.adjustFn != nil {
		return s.adjustFn(productID, delta)
	}
	return Cart{}, errors.New("unexpected adjust")
}

func (s *stubCartAPI) RemoveCartItem(ctx context.Context, productID string) (Cart, error) {
	return s.removeCart, s.removeErr
}

func (s *stubCartAPI) ClearCart(ctx context.Context) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	return s.clearedCart, s.clearErr
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Failure(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, message)
}

func cartWith(lines ...CartItem) Cart {
	return Cart{ID: "cart-1", Currency: "usd", Items: lines}
}

func line(productID string, priceCents, quantity int) CartItem {
	return CartItem{
		Product:  Product{ID: productID, Title: "Product " + productID, PriceCents: priceCents},
		Quantity: quantity,
	}
}

func signedInStore(t *testing.T, api *stubCartAPI, notify Notifier) *CartStore {
	t.Helper()
	store := NewCartStore(api, notify)
	store.SetAuthenticated(context.Background(), true)
	return store
}

func TestCartStoreAddItemNewProduct(t *testing.T) {
	api := &stubCartAPI{addCart: cartWith(line("prod-1", 500, 1))}
	notify := &recordingNotifier{}
	store := signedInStore(t, api, notify)

	store.AddItem(context.Background(), Product{ID: "prod-1", Title: "Widget", PriceCents: 500})

	if api.addCalls != 1 {
		t.Fatalf("expected one add call, got %d", api.addCalls)
	}
	if api.addedID != "prod-1" {
		t.Fatalf("expected product prod-1, got %s", api.addedID)
	}
	if got := store.ItemCount(); got != 1 {
		t.Fatalf("expected one cart line, got %d", got)
	}
	if got := store.Total(); got != 500 {
		t.Fatalf("expected total 500, got %d", got)
	}
	if len(notify.successes) != 1 {
		t.Fatalf("expected one success notification, got %d", len(notify.successes))
	}
}

func TestCartStoreAddItemDuplicateSkipsNetwork(t *testing.T) {
	api := &stubCartAPI{fetchCart: cartWith(line("prod-1", 500, 2))}
	notify := &recordingNotifier{}
	store := signedInStore(t, api, notify)

	store.AddItem(context.Background(), Product{ID: "prod-1", Title: "Widget"})

	if api.addCalls != 0 {
		t.Fatalf("expected no add call for a duplicate, got %d", api.addCalls)
	}
	if got := store.ItemCount(); got != 1 {
		t.Fatalf("expected cart unchanged, got %d lines", got)
	}
	if len(notify.failures) != 1 {
		t.Fatalf("expected one failure notification, got %d", len(notify.failures))
	}
}

func TestCartStoreRejectsUnauthenticatedMutations(t *testing.T) {
	api := &stubCartAPI{}
	notify := &recordingNotifier{}
	store := NewCartStore(api, notify)

	store.AddItem(context.Background(), Product{ID: "prod-1"})
	store.UpdateQuantity(context.Background(), "prod-1", 1)
	store.RemoveItem(context.Background(), "prod-1")
	store.Clear(context.Background())

	if api.addCalls != 0 || api.clearCalls != 0 {
		t.Fatal("expected no network calls while signed out")
	}
	if len(notify.failures) != 4 {
		t.Fatalf("expected four sign-in prompts, got %d", len(notify.failures))
	}
}

func TestCartStoreItemCountDistinctLines(t *testing.T) {
	api := &stubCartAPI{fetchCart: cartWith(line("prod-1", 100, 3), line("prod-2", 250, 5))}
	store := signedInStore(t, api, nil)

	if got := store.ItemCount(); got != 2 {
		t.Fatalf("expected two distinct lines, got %d", got)
	}
	if got := store.Total(); got != 1550 {
		t.Fatalf("expected total 1550, got %d", got)
	}
}

func TestCartStoreTotalEmpty(t *testing.T) {
	store := NewCartStore(&stubCartAPI{}, nil)
	if got := store.Total(); got != 0 {
		t.Fatalf("expected empty total 0, got %d", got)
	}
}

func TestCartStoreLoadFailsOpen(t *testing.T) {
	api := &stubCartAPI{fetchErr: errors.New("boom")}
	store := signedInStore(t, api, nil)

	if got := store.ItemCount(); got != 0 {
		t.Fatalf("expected empty cart after failed load, got %d lines", got)
	}
}

func TestCartStoreUpdateQuantityFailureLeavesState(t *testing.T) {
	api := &stubCartAPI{fetchCart: cartWith(line("prod-1", 500, 2))}
	api.adjustFn = func(string, int) (Cart, error) {
		return Cart{}, errors.New("boom")
	}
	notify := &recordingNotifier{}
	store := signedInStore(t, api, notify)

	store.UpdateQuantity(context.Background(), "prod-1", 1)

	snapshot := store.Snapshot()
	if len(snapshot.Items) != 1 || snapshot.Items[0].Quantity != 2 {
		t.Fatalf("expected cart unchanged after failed update, got %+v", snapshot.Items)
	}
	if len(notify.failures) != 1 {
		t.Fatalf("expected one failure notification, got %d", len(notify.failures))
	}
}

func TestCartStoreClearResetsToEmpty(t *testing.T) {
	api := &stubCartAPI{
		fetchCart:   cartWith(line("prod-1", 500, 2)),
		clearedCart: cartWith(line("prod-1", 500, 2)),
	}
	store := signedInStore(t, api, nil)

	store.Clear(context.Background())

	if got := store.ItemCount(); got != 0 {
		t.Fatalf("expected empty cart after clear, got %d lines", got)
	}
}

func TestCartStoreSignOutDropsState(t *testing.T) {
	api := &stubCartAPI{fetchCart: cartWith(line("prod-1", 500, 2))}
	store := signedInStore(t, api, nil)

	store.SetAuthenticated(context.Background(), false)

	if got := store.ItemCount(); got != 0 {
		t.Fatalf("expected empty cart after sign-out, got %d lines", got)
	}
	if api.addCalls != 0 {
		t.Fatal("expected no network calls on sign-out")
	}
}

func TestCartStoreSubscribeAndUnsubscribe(t *testing.T) {
	api := &stubCartAPI{fetchCart: cartWith(line("prod-1", 500, 1))}
	store := NewCartStore(api, nil)

	var snapshots []Cart
	unsubscribe := store.Subscribe(func(c Cart) {
		snapshots = append(snapshots, c)
	})
	store.SetAuthenticated(context.Background(), true)

	if len(snapshots) == 0 {
		t.Fatal("expected a snapshot after load")
	}
	last := snapshots[len(snapshots)-1]
	if len(last.Items) != 1 {
		t.Fatalf("expected snapshot with one line, got %d", len(last.Items))
	}

	unsubscribe()
	before := len(snapshots)
	store.SetAuthenticated(context.Background(), false)
	if len(snapshots) != before {
		t.Fatal("expected no snapshots after unsubscribe")
	}
}

func TestCartStoreDiscardsStaleResponse(t *testing.T) {
	firstIssued := make(chan struct{})
	release := make(chan struct{})
	api := &stubCartAPI{fetchCart: cartWith(line("prod-1", 500, 1))}
	api.adjustFn = func(productID string, delta int) (Cart, error) {
		if delta == 1 {
			close(firstIssued)
			<-release
			return cartWith(line("prod-1", 500, 2)), nil
		}
		return cartWith(line("prod-1", 500, 5)), nil
	}
	store := signedInStore(t, api, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.UpdateQuantity(context.Background(), "prod-1", 1)
	}()
	<-firstIssued

	store.UpdateQuantity(context.Background(), "prod-1", 4)
	close(release)
	wg.Wait()

	snapshot := store.Snapshot()
	if len(snapshot.Items) != 1 || snapshot.Items[0].Quantity != 5 {
		t.Fatalf("expected the newer response to win, got %+v", snapshot.Items)
	}
}
