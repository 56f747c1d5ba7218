package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
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

const buyer = "usr_000001"

func newService(t *testing.T, orders ...domain.Order) (*Service, *store.Store) {
	t.Helper()
	st := storetest.New(t)
	storetest.Seed(t, st, domain.Orders, orders...)
	return NewService(st, nil), st
}

func orderByID(t *testing.T, st *store.Store, id string) domain.Order {
	t.Helper()
	for _, o := range storetest.Load[domain.Order](t, st, domain.Orders) {
		if o.ID == id {
			return o
		}
	}
	t.Fatalf("order %s missing", id)
	return domain.Order{}
}

func TestCreateIntent(t *testing.T) {
	svc, st := newService(t,
		domain.Order{ID: "ord_000001", UserID: buyer, Status: domain.OrderCreated},
		domain.Order{ID: "ord_000002", UserID: "usr_000002", Status: domain.OrderCreated},
	)
	storetest.Seed(t, st, domain.Payments, domain.PaymentIntent{ID: "pay_000003", OrderID: "ord_000009"})
	ctx := context.Background()

	pi, err := svc.CreateIntent(ctx, buyer, "ord_000001")
	require.NoError(t, err)
	assert.Equal(t, "pay_000004", pi.ID)
	assert.Equal(t, domain.PaymentProviderMock, pi.Provider)
	assert.Equal(t, domain.PaymentCreated, pi.Status)
	assert.Nil(t, pi.ConfirmedAt)

	_, err = svc.CreateIntent(ctx, buyer, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CreateIntent(ctx, buyer, "ord_000002")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.EqualError(t, err, "order not found")
}

func TestConfirmIntentPaysOrder(t *testing.T) {
	svc, st := newService(t, domain.Order{ID: "ord_000001", UserID: buyer, Status: domain.OrderCreated})
	ctx := context.Background()

	first, err := svc.CreateIntent(ctx, buyer, "ord_000001")
	require.NoError(t, err)
	second, err := svc.CreateIntent(ctx, buyer, "ord_000001")
	require.NoError(t, err)

	res, err := svc.ConfirmIntent(ctx, buyer, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, res.Intent.Status)
	require.NotNil(t, res.Intent.ConfirmedAt)
	assert.Equal(t, domain.OrderPaid, res.Order.Status)
	assert.Equal(t, domain.OrderPaid, orderByID(t, st, "ord_000001").Status)

	// 第二个 intent 确认后订单仍为 paid
	res, err = svc.ConfirmIntent(ctx, buyer, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, res.Order.Status)

	pays := storetest.Load[domain.PaymentIntent](t, st, domain.Payments)
	require.Len(t, pays, 2)
	for _, p := range pays {
		assert.Equal(t, domain.PaymentSucceeded, p.Status)
	}
}

func TestConfirmIntentOverwritesAdvancedStatus(t *testing.T) {
	svc, st := newService(t,
		domain.Order{ID: "ord_000001", UserID: buyer, Status: domain.OrderShipped},
		domain.Order{ID: "ord_000002", UserID: buyer, Status: domain.OrderDelivered},
	)
	storetest.Seed(t, st, domain.Payments,
		domain.PaymentIntent{ID: "pay_000001", OrderID: "ord_000001", Status: domain.PaymentSucceeded},
		domain.PaymentIntent{ID: "pay_000002", OrderID: "ord_000002", Status: domain.PaymentCreated},
	)
	ctx := context.Background()

	res, err := svc.ConfirmIntent(ctx, buyer, "pay_000001")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, res.Order.Status)

	res, err = svc.ConfirmIntent(ctx, buyer, "pay_000002")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, res.Order.Status)
	assert.Equal(t, domain.OrderPaid, orderByID(t, st, "ord_000002").Status)
}

func TestConfirmIntentNotFound(t *testing.T) {
	svc, st := newService(t, domain.Order{ID: "ord_000001", UserID: "usr_000002", Status: domain.OrderCreated})
	storetest.Seed(t, st, domain.Payments, domain.PaymentIntent{ID: "pay_000001", OrderID: "ord_000001"})
	ctx := context.Background()

	_, err := svc.ConfirmIntent(ctx, buyer, "pay_000404")
	assert.EqualError(t, err, "payment intent not found")

	_, err = svc.ConfirmIntent(ctx, buyer, "pay_000001")
	assert.EqualError(t, err, "order not found")
	assert.Equal(t, domain.OrderCreated, orderByID(t, st, "ord_000001").Status)
}

func TestPaymentRoutes(t *testing.T) {
	svc, _ := newService(t, domain.Order{ID: "ord_000001", UserID: buyer, Status: domain.OrderCreated})
	r := gin.New()
	guard := func(c *gin.Context) {
		ez.SetCaller(c, domain.Caller{ID: buyer, Role: domain.RoleBuyer})
		c.Next()
	}
	NewModule(svc, guard).MountAPI(r.Group(""))

	do := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := do("/payments/intents", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"orderId required"}`, w.Body.String())

	w = do("/payments/intents", `{"orderId":"ord_000001"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"pay_000001"`)

	w = do("/payments/intents/pay_000001/confirm", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"paid"`)
	assert.Contains(t, w.Body.String(), `"status":"succeeded"`)

	w = do("/payments/intents/pay_000404/confirm", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
