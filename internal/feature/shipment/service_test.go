package shipment

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

func TestCreateRequiresPaid(t *testing.T) {
	svc, st := newService(t,
		domain.Order{ID: "ord_000001", UserID: buyer, Status: domain.OrderPaid},
		domain.Order{ID: "ord_000002", UserID: buyer, Status: domain.OrderCreated},
	)
	ctx := context.Background()

	_, err := svc.Create(ctx, buyer, "ord_000002")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.EqualError(t, err, "order must be paid")
	assert.Empty(t, storetest.Load[domain.Shipment](t, st, domain.Shipments))

	_, err = svc.Create(ctx, buyer, "ord_000404")
	assert.EqualError(t, err, "order not found")
	_, err = svc.Create(ctx, "usr_000002", "ord_000001")
	assert.EqualError(t, err, "order not found")
	_, err = svc.Create(ctx, buyer, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	res, err := svc.Create(ctx, buyer, "ord_000001")
	require.NoError(t, err)
	assert.Equal(t, "shp_000001", res.Shipment.ID)
	assert.Equal(t, domain.CarrierMock, res.Shipment.Carrier)
	assert.Equal(t, domain.ShipmentCreated, res.Shipment.Status)
	assert.Regexp(t, `^TRK-\d+$`, res.Shipment.TrackingNumber)
	assert.Nil(t, res.Shipment.UpdatedAt)
	assert.Equal(t, domain.OrderShipped, res.Order.Status)

	// 已发货订单不能再次发货
	_, err = svc.Create(ctx, buyer, "ord_000001")
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
}

func TestUpdateStatusOnlyDeliveredMovesOrder(t *testing.T) {
	svc, st := newService(t, domain.Order{ID: "ord_000001", UserID: buyer, Status: domain.OrderPaid})
	ctx := context.Background()

	created, err := svc.Create(ctx, buyer, "ord_000001")
	require.NoError(t, err)

	res, err := svc.UpdateStatus(ctx, buyer, created.Shipment.ID, "in_transit")
	require.NoError(t, err)
	assert.Equal(t, "in_transit", res.Shipment.Status)
	require.NotNil(t, res.Shipment.UpdatedAt)
	assert.Equal(t, domain.OrderShipped, res.Order.Status)

	res, err = svc.UpdateStatus(ctx, buyer, created.Shipment.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, res.Order.Status)

	orders := storetest.Load[domain.Order](t, st, domain.Orders)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderDelivered, orders[0].Status)
}

func TestUpdateStatusRejects(t *testing.T) {
	svc, st := newService(t, domain.Order{ID: "ord_000001", UserID: "usr_000002", Status: domain.OrderShipped})
	storetest.Seed(t, st, domain.Shipments, domain.Shipment{ID: "shp_000001", OrderID: "ord_000001", Status: "created"})
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, buyer, "shp_000001", "")
	assert.EqualError(t, err, "status required")
	_, err = svc.UpdateStatus(ctx, buyer, "shp_000404", "delivered")
	assert.EqualError(t, err, "shipment not found")
	_, err = svc.UpdateStatus(ctx, buyer, "shp_000001", "delivered")
	assert.EqualError(t, err, "order not found")

	shs := storetest.Load[domain.Shipment](t, st, domain.Shipments)
	assert.Equal(t, "created", shs[0].Status)
}

func TestShipmentRoutes(t *testing.T) {
	svc, _ := newService(t,
		domain.Order{ID: "ord_000001", UserID: buyer, Status: domain.OrderPaid},
		domain.Order{ID: "ord_000002", UserID: buyer, Status: domain.OrderCreated},
	)
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

	w := do("/shipments", `{"orderId":"ord_000002"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"order must be paid"}`, w.Body.String())

	w = do("/shipments", `{"orderId":"ord_000001"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do("/shipments/shp_000001/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"status required"}`, w.Body.String())

	w = do("/shipments/shp_000001/status", `{"status":"delivered"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"delivered"`)
}
