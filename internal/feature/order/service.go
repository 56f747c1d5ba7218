// Package order turns carts into orders and owns order status changes.
package order

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/metrics"
	"marketplace-api/internal/core/saga"
	"marketplace-api/internal/core/store"
	"marketplace-api/internal/domain"
)

var now = func() time.Time { return time.Now().UTC() }

const (
	sagaPlace = "place_order"

	stepWriteOrders saga.StepName = "write_orders"
	stepClearCart   saga.StepName = "clear_cart"
)

type Service struct {
	st  *store.Store
	log *zap.Logger
}

func NewService(st *store.Store, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{st: st, log: l.Named("order")}
}

// SetStatus 所有订单状态变更都走这里，便于计数
func SetStatus(o *domain.Order, to domain.OrderStatus) {
	metrics.Transition(string(o.Status), string(to))
	o.Status = to
}

// FindOwned 返回属于 userID 的订单下标，找不到为 -1
func FindOwned(orders []domain.Order, id, userID string) int {
	for i, o := range orders {
		if o.ID == id && o.OwnedBy(userID) {
			return i
		}
	}
	return -1
}

// PlaceOrder 用购物车快照生成订单并清空购物车。
// 两次写入不是原子的：订单已写而清空失败时返回错误，订单保留。
func (s *Service) PlaceOrder(ctx context.Context, userID string) (domain.Order, error) {
	unlock := s.st.Lock(domain.Carts, domain.Orders)
	defer unlock()

	carts := store.LoadAll[domain.Cart](ctx, s.st, domain.Carts)
	ci := -1
	for i, c := range carts {
		if c.UserID == userID {
			ci = i
			break
		}
	}
	if ci < 0 || len(carts[ci].Items) == 0 {
		return domain.Order{}, apperr.InvalidState("cart empty").WithStatus(http.StatusBadRequest)
	}
	cart := &carts[ci]

	orders := store.LoadAll[domain.Order](ctx, s.st, domain.Orders)
	maxSeq := store.MaxSeq(store.IDs(orders, func(o domain.Order) string { return o.ID }), domain.PrefixOrder)

	items := make([]domain.OrderItem, len(cart.Items))
	var total float64
	for idx, it := range cart.Items {
		items[idx] = domain.OrderItem{
			OrderItemID: store.NextID(domain.PrefixOrderItem, idx),
			SkuID:       it.SkuID,
			Qty:         it.Qty,
			Price:       it.Price,
			Subtotal:    it.Subtotal,
		}
		total += it.Subtotal
	}
	o := domain.Order{
		ID:        store.NextID(domain.PrefixOrder, maxSeq),
		UserID:    userID,
		Status:    domain.OrderCreated,
		Items:     items,
		Total:     total,
		CreatedAt: now(),
	}
	orders = append(orders, o)
	cart.Items = []domain.CartItem{}
	cart.Total = 0

	err := saga.Run(ctx, s.log, sagaPlace,
		saga.Step{Name: stepWriteOrders, Do: func(ctx context.Context) error {
			return store.SaveAll(ctx, s.st, domain.Orders, orders)
		}},
		saga.Step{Name: stepClearCart, Do: func(ctx context.Context) error {
			return store.SaveAll(ctx, s.st, domain.Carts, carts)
		}},
	)
	if err != nil {
		return domain.Order{}, apperr.Internal("place order", err)
	}
	metrics.OrdersPlaced.Inc()
	metrics.Transition("", string(domain.OrderCreated))
	s.log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(items)),
		zap.Float64("total", total))
	return o, nil
}

// List 用户自己的订单，保持存储顺序
func (s *Service) List(ctx context.Context, userID string) []domain.Order {
	all := store.LoadAll[domain.Order](ctx, s.st, domain.Orders)
	out := make([]domain.Order, 0, len(all))
	for _, o := range all {
		if o.OwnedBy(userID) {
			out = append(out, o)
		}
	}
	return out
}

func (s *Service) ListAll(ctx context.Context) []domain.Order {
	return store.LoadAll[domain.Order](ctx, s.st, domain.Orders)
}

// Delete 删除订单为准；关联的支付、物流、退货记录尽力清理，失败只记日志
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.st.Lock(domain.Orders, domain.Payments, domain.Shipments, domain.Returns)
	defer unlock()

	orders := store.LoadAll[domain.Order](ctx, s.st, domain.Orders)
	next := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.ID != id {
			next = append(next, o)
		}
	}
	if len(next) == len(orders) {
		return apperr.NotFound("order not found")
	}
	if err := store.SaveAll(ctx, s.st, domain.Orders, next); err != nil {
		return apperr.Internal("save orders", err)
	}

	for _, coll := range []string{domain.Payments, domain.Shipments, domain.Returns} {
		if err := s.dropByOrder(ctx, coll, id); err != nil {
			s.log.Warn("order cascade cleanup failed",
				zap.String("order_id", id),
				zap.String("collection", coll),
				zap.Error(err))
		}
	}
	s.log.Info("order deleted", zap.String("order_id", id))
	return nil
}

// dropByOrder 按 orderId 过滤；记录按原样保留未知字段
func (s *Service) dropByOrder(ctx context.Context, collection, orderID string) error {
	recs := store.LoadAll[map[string]any](ctx, s.st, collection)
	kept := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		if v, _ := r["orderId"].(string); v == orderID {
			continue
		}
		kept = append(kept, r)
	}
	return store.SaveAll(ctx, s.st, collection, kept)
}
