package checkout

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/hikari-shop/hikari/internal/cart"
	"github.com/hikari-shop/hikari/internal/catalog/products"
	"github.com/hikari-shop/hikari/internal/notifications"
	"github.com/hikari-shop/hikari/internal/orders"
	"github.com/hikari-shop/hikari/internal/platform/httpx"
	"github.com/hikari-shop/hikari/internal/settings"
	"github.com/hikari-shop/hikari/internal/shared"
	"github.com/hikari-shop/hikari/jobs"
)

// memoryStore mimics transactional semantics: mutations made during a failed
// InTx callback are rolled back to the pre-transaction snapshot.
type memoryStore struct {
	carts         map[string][]cart.Item
	products      map[string]*products.Product
	orders        []orders.Order
	notifications []notifications.Notification
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		carts:    make(map[string][]cart.Item),
		products: make(map[string]*products.Product),
	}
}

func (s *memoryStore) snapshot() *memoryStore {
	copied := newMemoryStore()
	for userID, lines := range s.carts {
		copied.carts[userID] = append([]cart.Item(nil), lines...)
	}
	for id, p := range s.products {
		dup := *p
		dup.Variants = append([]products.Variant(nil), p.Variants...)
		copied.products[id] = &dup
	}
	copied.orders = append([]orders.Order(nil), s.orders...)
	copied.notifications = append([]notifications.Notification(nil), s.notifications...)
	return copied
}

func (s *memoryStore) restore(from *memoryStore) {
	s.carts = from.carts
	s.products = from.products
	s.orders = from.orders
	s.notifications = from.notifications
}

func (s *memoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	before := s.snapshot()
	if err := fn(&memTx{store: s}); err != nil {
		s.restore(before)
		return err
	}
	return nil
}

type memTx struct {
	store *memoryStore
}

func (t *memTx) CartLines(ctx context.Context, userID string) ([]cart.Item, error) {
	return append([]cart.Item(nil), t.store.carts[userID]...), nil
}

func (t *memTx) ProductForUpdate(ctx context.Context, id string) (*products.Product, error) {
	if p, ok := t.store.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (t *memTx) DecrementStock(ctx context.Context, productID string, variantID *string, quantity int) error {
	p, ok := t.store.products[productID]
	if !ok {
		return shared.ErrNotFound
	}
	if variantID != nil {
		for i := range p.Variants {
			if p.Variants[i].ID == *variantID {
				p.Variants[i].Stock -= quantity
				return nil
			}
		}
		return shared.ErrNotFound
	}
	p.Stock -= quantity
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	t.store.orders = append(t.store.orders, *o)
	return nil
}

func (t *memTx) ClearCart(ctx context.Context, userID string) error {
	delete(t.store.carts, userID)
	return nil
}

func (t *memTx) InsertNotification(ctx context.Context, n *notifications.Notification) error {
	t.store.notifications = append(t.store.notifications, *n)
	return nil
}

type fakeSettings struct {
	cfg settings.Settings
}

func (f fakeSettings) Get(ctx context.Context) (settings.Settings, error) {
	return f.cfg, nil
}

type captureEnqueuer struct {
	payloads []jobs.OrderConfirmationPayload
}

func (c *captureEnqueuer) EnqueueOrderConfirmation(ctx context.Context, payload jobs.OrderConfirmationPayload) (*asynq.TaskInfo, error) {
	c.payloads = append(c.payloads, payload)
	return &asynq.TaskInfo{}, nil
}

var shopper = &shared.Identity{UserID: "u1", Email: "rin@example.com", FullName: "Rin Tohsaka"}

func validRequest() Request {
	return Request{
		ShippingAddress: orders.ShippingAddress{
			FullName: "Rin Tohsaka",
			Phone:    "0500000000",
			Address:  "12 Fuyuki St",
			City:     "Riyadh",
		},
		PaymentMethod: orders.PaymentMethodCashOnDelivery,
	}
}

func newTestService(store *memoryStore) (*Service, *captureEnqueuer) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	enq := &captureEnqueuer{}
	return NewService(logger, store, fakeSettings{cfg: settings.Default()}, enq), enq
}

func seedSimpleProduct(store *memoryStore, stock int) *products.Product {
	p := &products.Product{
		ID: "p1", Name: "Gundam Tee", SKU: "GND-TEE",
		Price: 100, Stock: stock, IsActive: true,
	}
	store.products[p.ID] = p
	return p
}

func TestCheckoutComputesTotalsAndSnapshotsCart(t *testing.T) {
	store := newMemoryStore()
	seedSimpleProduct(store, 10)
	store.carts["u1"] = []cart.Item{{ID: "c1", UserID: "u1", ProductID: "p1", Quantity: 2}}
	svc, enq := newTestService(store)

	result, err := svc.PlaceOrder(context.Background(), shopper, validRequest())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.True(t, strings.HasPrefix(result.OrderNumber, "ORD-"))
	require.InDelta(t, 255.0, result.TotalAmount, 1e-9)

	require.Len(t, store.orders, 1)
	order := store.orders[0]
	require.Equal(t, orders.StatusPending, order.Status)
	require.Equal(t, orders.PaymentPending, order.PaymentStatus)
	require.InDelta(t, 200.0, order.Subtotal, 1e-9)
	require.InDelta(t, 30.0, order.TaxAmount, 1e-9)
	require.InDelta(t, 25.0, order.ShippingAmount, 1e-9)
	require.InDelta(t, 255.0, order.TotalAmount, 1e-9)
	require.Equal(t, "SAR", order.Currency)
	require.Len(t, order.Items, 1)
	require.InDelta(t, 100.0, order.Items[0].UnitPrice, 1e-9)

	require.Empty(t, store.carts["u1"])
	require.Equal(t, 8, store.products["p1"].Stock)

	require.Len(t, store.notifications, 1)
	note := store.notifications[0]
	require.Equal(t, notifications.TypeNewOrder, note.Type)
	require.Equal(t, "/admin/orders/"+order.ID, note.Link)
	require.False(t, note.IsRead)

	require.Len(t, enq.payloads, 1)
	require.Equal(t, order.ID, enq.payloads[0].OrderID)
	require.Equal(t, shopper.Email, enq.payloads[0].Email)
}

func TestCheckoutPrefersSalePrice(t *testing.T) {
	store := newMemoryStore()
	p := seedSimpleProduct(store, 5)
	sale := 80.0
	p.SalePrice = &sale
	store.carts["u1"] = []cart.Item{{ID: "c1", UserID: "u1", ProductID: "p1", Quantity: 1}}
	svc, _ := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), shopper, validRequest())
	require.NoError(t, err)
	require.InDelta(t, 80.0, store.orders[0].Subtotal, 1e-9)
	require.InDelta(t, 80.0, store.orders[0].Items[0].UnitPrice, 1e-9)
}

func TestCheckoutOversellLeavesNoTrace(t *testing.T) {
	store := newMemoryStore()
	seedSimpleProduct(store, 1)
	store.carts["u1"] = []cart.Item{{ID: "c1", UserID: "u1", ProductID: "p1", Quantity: 2}}
	svc, enq := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), shopper, validRequest())
	require.ErrorIs(t, err, httpx.ErrConflict)

	require.Len(t, store.carts["u1"], 1)
	require.Equal(t, 1, store.products["p1"].Stock)
	require.Empty(t, store.orders)
	require.Empty(t, store.notifications)
	require.Empty(t, enq.payloads)
}

func TestCheckoutVariantStockIsAuthoritative(t *testing.T) {
	store := newMemoryStore()
	variantID := "v1"
	store.products["p1"] = &products.Product{
		ID: "p1", Name: "Nendoroid", SKU: "NND",
		Price: 150, Stock: 99, IsActive: true, HasVariants: true,
		Variants: []products.Variant{{ID: variantID, ProductID: "p1", ColorName: "Red", Size: "M", Stock: 3}},
	}
	store.carts["u1"] = []cart.Item{{ID: "c1", UserID: "u1", ProductID: "p1", VariantID: &variantID, Quantity: 5}}
	svc, _ := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), shopper, validRequest())
	require.ErrorIs(t, err, httpx.ErrConflict)

	require.Len(t, store.carts["u1"], 1)
	require.Equal(t, 3, store.products["p1"].Variants[0].Stock)
	require.Empty(t, store.orders)
	require.Empty(t, store.notifications)
}

func TestCheckoutTracksStockAcrossLines(t *testing.T) {
	store := newMemoryStore()
	seedSimpleProduct(store, 3)
	store.carts["u1"] = []cart.Item{
		{ID: "c1", UserID: "u1", ProductID: "p1", Quantity: 2},
		{ID: "c2", UserID: "u1", ProductID: "p1", Quantity: 2},
	}
	svc, _ := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), shopper, validRequest())
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Equal(t, 3, store.products["p1"].Stock)
	require.Empty(t, store.orders)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), shopper, validRequest())
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCheckoutRejectsIncompleteAddress(t *testing.T) {
	store := newMemoryStore()
	seedSimpleProduct(store, 5)
	store.carts["u1"] = []cart.Item{{ID: "c1", UserID: "u1", ProductID: "p1", Quantity: 1}}
	svc, _ := newTestService(store)

	req := validRequest()
	req.ShippingAddress.Phone = ""
	_, err := svc.PlaceOrder(context.Background(), shopper, req)
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Equal(t, 5, store.products["p1"].Stock)
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(store)

	req := validRequest()
	req.PaymentMethod = "wire_transfer"
	_, err := svc.PlaceOrder(context.Background(), shopper, req)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCheckoutCreditCardMarksPaid(t *testing.T) {
	store := newMemoryStore()
	seedSimpleProduct(store, 5)
	store.carts["u1"] = []cart.Item{{ID: "c1", UserID: "u1", ProductID: "p1", Quantity: 1}}
	svc, _ := newTestService(store)

	req := validRequest()
	req.PaymentMethod = orders.PaymentMethodCreditCard
	_, err := svc.PlaceOrder(context.Background(), shopper, req)
	require.NoError(t, err)
	require.Equal(t, orders.PaymentPaid, store.orders[0].PaymentStatus)
}

func TestCheckoutRejectsInactiveProduct(t *testing.T) {
	store := newMemoryStore()
	p := seedSimpleProduct(store, 5)
	p.IsActive = false
	store.carts["u1"] = []cart.Item{{ID: "c1", UserID: "u1", ProductID: "p1", Quantity: 1}}
	svc, _ := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), shopper, validRequest())
	require.ErrorIs(t, err, httpx.ErrNotFound)
	require.Empty(t, store.orders)
}
