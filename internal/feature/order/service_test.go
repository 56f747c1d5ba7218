package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/store"
	"marketplace-api/internal/core/store/storetest"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/transport/http/ez"
)

func init() { gin.SetMode(gin.TestMode) }

func cartOf(id, userID string, items ...domain.CartItem) domain.Cart {
	c := domain.Cart{ID: id, UserID: userID, Items: items}
	c.Recalc()
	return c
}

func line(itemID, skuID string, qty int, price float64) domain.CartItem {
	return domain.CartItem{ItemID: itemID, SkuID: skuID, Qty: qty, Price: price, Subtotal: float64(qty) * price}
}

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := storetest.New(t)
	return NewService(st, nil), st
}

func TestPlaceOrderSnapshotsAndClearsCart(t *testing.T) {
	svc, st := newService(t)
	storetest.Seed(t, st, domain.Carts,
		cartOf("crt_000001", "usr_000001", line("cit_000003", "sku_000001", 2, 10), line("cit_000007", "sku_000002", 1, 5)),
	)

	o, err := svc.PlaceOrder(context.Background(), "usr_000001")
	require.NoError(t, err)
	assert.Equal(t, "ord_000001", o.ID)
	assert.Equal(t, domain.OrderCreated, o.Status)
	assert.Equal(t, 25.0, o.Total)
	assert.False(t, o.CreatedAt.IsZero())
	require.Len(t, o.Items, 2)
	assert.Equal(t, domain.OrderItem{OrderItemID: "oit_000001", SkuID: "sku_000001", Qty: 2, Price: 10, Subtotal: 20}, o.Items[0])
	assert.Equal(t, "oit_000002", o.Items[1].OrderItemID)

	carts := storetest.Load[domain.Cart](t, st, domain.Carts)
	require.Len(t, carts, 1)
	assert.Empty(t, carts[0].Items)
	assert.Zero(t, carts[0].Total)

	orders := storetest.Load[domain.Order](t, st, domain.Orders)
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc, st := newService(t)

	_, err := svc.PlaceOrder(context.Background(), "usr_000001")
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindInvalidState, ae.Kind)
	assert.Equal(t, http.StatusBadRequest, ae.StatusCode())
	assert.EqualError(t, err, "cart empty")

	storetest.Seed(t, st, domain.Carts, cartOf("crt_000001", "usr_000001"))
	_, err = svc.PlaceOrder(context.Background(), "usr_000001")
	assert.EqualError(t, err, "cart empty")
	assert.Empty(t, storetest.Load[domain.Order](t, st, domain.Orders))
}

func TestOrderIDsAreGlobalAndItemIDsLocal(t *testing.T) {
	svc, st := newService(t)
	storetest.Seed(t, st, domain.Orders,
		domain.Order{ID: "ord_000004", UserID: "usr_000009", Status: domain.OrderPaid},
		domain.Order{ID: "legacy_000050", UserID: "usr_000009", Status: domain.OrderCreated},
	)
	storetest.Seed(t, st, domain.Carts,
		cartOf("crt_000001", "usr_000001", line("cit_000001", "sku_000001", 1, 3)),
		cartOf("crt_000002", "usr_000002", line("cit_000001", "sku_000002", 1, 4)),
	)
	ctx := context.Background()

	a, err := svc.PlaceOrder(ctx, "usr_000001")
	require.NoError(t, err)
	b, err := svc.PlaceOrder(ctx, "usr_000002")
	require.NoError(t, err)

	assert.Equal(t, "ord_000005", a.ID)
	assert.Equal(t, "ord_000006", b.ID)
	assert.Equal(t, "oit_000001", a.Items[0].OrderItemID)
	assert.Equal(t, "oit_000001", b.Items[0].OrderItemID)

	mine := svc.List(ctx, "usr_000001")
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)
	assert.Len(t, svc.ListAll(ctx), 4)
}

func TestDeleteCascades(t *testing.T) {
	svc, st := newService(t)
	storetest.Seed(t, st, domain.Orders,
		domain.Order{ID: "ord_000001", UserID: "usr_000001"},
		domain.Order{ID: "ord_000002", UserID: "usr_000001"},
	)
	storetest.Seed(t, st, domain.Payments,
		domain.PaymentIntent{ID: "pay_000001", OrderID: "ord_000001"},
		domain.PaymentIntent{ID: "pay_000002", OrderID: "ord_000002"},
	)
	storetest.Seed(t, st, domain.Shipments, domain.Shipment{ID: "shp_000001", OrderID: "ord_000001"})
	storetest.Seed(t, st, domain.Returns,
		map[string]any{"id": "ret_1", "orderId": "ord_000001"},
		map[string]any{"id": "ret_2", "orderId": "ord_000002", "reason": "broken"},
	)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "ord_000001"))
	assert.True(t, apperr.Is(svc.Delete(ctx, "ord_000001"), apperr.KindNotFound))

	assert.Len(t, storetest.Load[domain.Order](t, st, domain.Orders), 1)
	pays := storetest.Load[domain.PaymentIntent](t, st, domain.Payments)
	require.Len(t, pays, 1)
	assert.Equal(t, "pay_000002", pays[0].ID)
	assert.Empty(t, storetest.Load[domain.Shipment](t, st, domain.Shipments))
	rets := storetest.Load[map[string]any](t, st, domain.Returns)
	require.Len(t, rets, 1)
	assert.Equal(t, "broken", rets[0]["reason"])
}

func TestSetStatusAndFindOwned(t *testing.T) {
	orders := []domain.Order{
		{ID: "ord_000001", UserID: "usr_000001", Status: domain.OrderCreated},
		{ID: "ord_000002", UserID: "usr_000002", Status: domain.OrderCreated},
	}
	assert.Equal(t, 0, FindOwned(orders, "ord_000001", "usr_000001"))
	assert.Equal(t, -1, FindOwned(orders, "ord_000002", "usr_000001"))
	assert.Equal(t, -1, FindOwned(orders, "ord_000404", "usr_000001"))

	SetStatus(&orders[0], domain.OrderPaid)
	assert.Equal(t, domain.OrderPaid, orders[0].Status)
}

func TestOrderRoutes(t *testing.T) {
	svc, st := newService(t)
	storetest.Seed(t, st, domain.Carts, cartOf("crt_000001", "usr_000001", line("cit_000001", "sku_000001", 1, 3)))
	r := gin.New()
	guard := func(c *gin.Context) {
		ez.SetCaller(c, domain.Caller{ID: "usr_000001", Role: domain.RoleBuyer})
		c.Next()
	}
	NewModule(svc, guard).MountAPI(r.Group(""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"cart empty"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ord_000001"`)
}
