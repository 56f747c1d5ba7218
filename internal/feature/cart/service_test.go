package cart

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
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

// fakeSkus 可在测试中改价
type fakeSkus struct {
	mu sync.Mutex
	m  map[string]domain.Sku
}

func (f *fakeSkus) FindSku(_ context.Context, id string) (domain.Sku, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.m[id]
	return s, ok
}

func (f *fakeSkus) setPrice(id string, p float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.m[id]
	s.Price = p
	f.m[id] = s
}

func newService(t *testing.T) (*Service, *fakeSkus, *store.Store) {
	t.Helper()
	skus := &fakeSkus{m: map[string]domain.Sku{
		"sku_000001": {ID: "sku_000001", ProductID: "prd_000001", Price: 10},
		"sku_000002": {ID: "sku_000002", ProductID: "prd_000001", Price: 2.5},
	}}
	st := storetest.New(t)
	return NewService(st, skus, nil), skus, st
}

func assertTotal(t *testing.T, c domain.Cart) {
	t.Helper()
	var sum float64
	for _, it := range c.Items {
		sum += it.Subtotal
		assert.Equal(t, float64(it.Qty)*it.Price, it.Subtotal)
	}
	assert.Equal(t, sum, c.Total)
}

func TestGetOrCreate(t *testing.T) {
	svc, _, st := newService(t)
	storetest.Seed(t, st, domain.Carts, domain.Cart{ID: "crt_000004", UserID: "usr_000009", Items: []domain.CartItem{}})
	ctx := context.Background()

	c, err := svc.GetOrCreate(ctx, "usr_000001")
	require.NoError(t, err)
	assert.Equal(t, "crt_000005", c.ID)
	assert.NotNil(t, c.Items)
	assert.Zero(t, c.Total)

	again, err := svc.GetOrCreate(ctx, "usr_000001")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
	assert.Len(t, storetest.Load[domain.Cart](t, st, domain.Carts), 2)
}

func TestAddItemLocksFirstPrice(t *testing.T) {
	svc, skus, _ := newService(t)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "usr_000001", "sku_000001", 2)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "cit_000001", c.Items[0].ItemID)
	assert.Equal(t, 20.0, c.Total)

	skus.setPrice("sku_000001", 99)
	c, err = svc.AddItem(ctx, "usr_000001", "sku_000001", 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Qty)
	assert.Equal(t, 10.0, c.Items[0].Price)
	assert.Equal(t, 30.0, c.Total)

	c, err = svc.AddItem(ctx, "usr_000001", "sku_000002", 4)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "cit_000002", c.Items[1].ItemID)
	assert.Equal(t, 40.0, c.Total)
	assertTotal(t, c)
}

func TestAddItemRejects(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "usr_000001", "sku_000001", 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.AddItem(ctx, "usr_000001", "", 1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.AddItem(ctx, "usr_000001", "sku_000404", 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.EqualError(t, err, "sku not found")
}

func TestAddItemRejectsQtyOverflow(t *testing.T) {
	svc, _, st := newService(t)
	ctx := context.Background()

	c, err := svc.AddItem(ctx, "usr_000001", "sku_000001", math.MaxInt)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	_, err = svc.AddItem(ctx, "usr_000001", "sku_000001", 1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.EqualError(t, err, "qty too large")

	carts := storetest.Load[domain.Cart](t, st, domain.Carts)
	require.Len(t, carts, 1)
	assert.Equal(t, math.MaxInt, carts[0].Items[0].Qty)
	assert.Positive(t, carts[0].Total)
}

func TestRemoveItem(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.RemoveItem(ctx, "usr_000001", "cit_000001")
	assert.EqualError(t, err, "cart not found")

	_, err = svc.AddItem(ctx, "usr_000001", "sku_000001", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "usr_000001", "sku_000002", 2)
	require.NoError(t, err)

	c, err := svc.RemoveItem(ctx, "usr_000001", "cit_000001")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5.0, c.Total)
	assertTotal(t, c)

	_, err = svc.RemoveItem(ctx, "usr_000001", "cit_000001")
	assert.EqualError(t, err, "item not found")

	// 新行号取当前购物车内最大值 +1
	c, err = svc.AddItem(ctx, "usr_000001", "sku_000001", 1)
	require.NoError(t, err)
	assert.Equal(t, "cit_000003", c.Items[1].ItemID)
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, "usr_000001", "sku_000002", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := svc.GetOrCreate(ctx, "usr_000001")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 10, c.Items[0].Qty)
	assert.Equal(t, 25.0, c.Total)
}

func TestCartRoutes(t *testing.T) {
	svc, _, _ := newService(t)
	r := gin.New()
	guard := func(c *gin.Context) {
		ez.SetCaller(c, domain.Caller{ID: "usr_000001", Role: domain.RoleBuyer})
		c.Next()
	}
	NewModule(svc, guard).MountAPI(r.Group(""))

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/cart/items", `{"skuId":"sku_000001","qty":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"skuId, qty >= 1 required"}`, w.Body.String())

	w = do(http.MethodPost, "/cart/items", `{"skuId":"sku_000001","qty":"two"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"skuId, qty >= 1 required"}`, w.Body.String())

	w = do(http.MethodPost, "/cart/items", `{"skuId":"sku_000001","qty":1}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"crt_000001","userId":"usr_000001","items":[{"itemId":"cit_000001","skuId":"sku_000001","qty":1,"price":10,"subtotal":10}],"total":10}`, w.Body.String())

	w = do(http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodDelete, "/cart/items/cit_000009", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"item not found"}`, w.Body.String())
}
