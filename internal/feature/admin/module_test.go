package admin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-api/internal/core/store"
	"marketplace-api/internal/core/store/storetest"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/feature/catalog"
	"marketplace-api/internal/feature/identity"
	"marketplace-api/internal/feature/order"
	"marketplace-api/internal/transport/http/ez"
)

func init() { gin.SetMode(gin.TestMode) }

type harness struct {
	r   *gin.Engine
	st  *store.Store
	who domain.Caller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := storetest.New(t)
	storetest.Seed(t, st, domain.Users,
		domain.User{ID: "usr_000001", Email: "root@x.io", Password: "pw", Role: domain.RoleAdmin},
		domain.User{ID: "usr_000002", Email: "b@x.io", Password: "pw", Role: domain.RoleBuyer},
	)
	storetest.Seed(t, st, domain.Orders,
		domain.Order{ID: "ord_000001", UserID: "usr_000002", Status: domain.OrderPaid},
	)
	storetest.Seed(t, st, domain.Payments, domain.PaymentIntent{ID: "pay_000001", OrderID: "ord_000001"})
	storetest.Seed(t, st, domain.Products,
		domain.Product{ID: "prd_000001", Title: "Lamp", Status: domain.ProductActive, SellerID: "usr_000003"},
	)
	storetest.Seed(t, st, domain.Skus, domain.Sku{ID: "sku_000001", ProductID: "prd_000001", Price: 3})

	h := &harness{st: st, who: domain.Caller{ID: "usr_000001", Role: domain.RoleAdmin}}
	h.r = gin.New()
	g := h.r.Group("/admin", func(c *gin.Context) {
		ez.SetCaller(c, h.who)
		c.Next()
	})
	NewModule(
		identity.NewService(st, nil),
		order.NewService(st, nil),
		catalog.NewService(st, nil, 0, nil),
	).MountAdmin(g)
	return h
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.r.ServeHTTP(w, req)
	return w
}

func TestAdminUsers(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/admin/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), `"b@x.io"`)

	w = h.do(http.MethodPatch, "/admin/users/usr_000002", `{"banned":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"banned":true`)

	w = h.do(http.MethodPatch, "/admin/users/usr_000002", `{"banned":"no"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"banned":true`)

	w = h.do(http.MethodPatch, "/admin/users/usr_000404", `{"banned":false}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"user not found"}`, w.Body.String())
}

func TestAdminOrders(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/admin/orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ord_000001"`)

	w = h.do(http.MethodDelete, "/admin/orders/ord_000001", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Empty(t, storetest.Load[domain.PaymentIntent](t, h.st, domain.Payments))

	w = h.do(http.MethodDelete, "/admin/orders/ord_000001", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"order not found"}`, w.Body.String())
}

func TestAdminProducts(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPatch, "/admin/products/prd_000001", `{"status":"blocked","title":"Lamp X"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"blocked"`)
	assert.Contains(t, w.Body.String(), `"Lamp X"`)

	w = h.do(http.MethodPatch, "/admin/products/prd_000404", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/admin/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"prd_000001"`)

	w = h.do(http.MethodDelete, "/admin/products/prd_000001", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, storetest.Load[domain.Sku](t, h.st, domain.Skus))
}

func TestAdminRoleGate(t *testing.T) {
	h := newHarness(t)
	h.who = domain.Caller{ID: "usr_000002", Role: domain.RoleBuyer}

	w := h.do(http.MethodGet, "/admin/users", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, w.Body.String())
}
