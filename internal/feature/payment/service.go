// Package payment simulates a payment provider: intents are created per order
// and confirmation always succeeds.
package payment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/metrics"
	"marketplace-api/internal/core/saga"
	"marketplace-api/internal/core/store"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/feature/order"
)

var now = func() time.Time { return time.Now().UTC() }

const (
	sagaConfirm = "confirm_payment"

	stepWritePayments saga.StepName = "write_payments"
	stepWriteOrders   saga.StepName = "write_orders"
)

type Service struct {
	st  *store.Store
	log *zap.Logger
}

func NewService(st *store.Store, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{st: st, log: l.Named("payment")}
}

// CreateIntent 同一订单可以有多个 intent
func (s *Service) CreateIntent(ctx context.Context, userID, orderID string) (domain.PaymentIntent, error) {
	if orderID == "" {
		return domain.PaymentIntent{}, apperr.Validation("orderId required")
	}
	orders := store.LoadAll[domain.Order](ctx, s.st, domain.Orders)
	if order.FindOwned(orders, orderID, userID) < 0 {
		return domain.PaymentIntent{}, apperr.NotFound("order not found")
	}

	unlock := s.st.Lock(domain.Payments)
	defer unlock()

	payments := store.LoadAll[domain.PaymentIntent](ctx, s.st, domain.Payments)
	maxSeq := store.MaxSeq(store.IDs(payments, func(p domain.PaymentIntent) string { return p.ID }), "")
	pi := domain.PaymentIntent{
		ID:        store.NextID(domain.PrefixPayment, maxSeq),
		OrderID:   orderID,
		Provider:  domain.PaymentProviderMock,
		Status:    domain.PaymentCreated,
		CreatedAt: now(),
	}
	payments = append(payments, pi)
	if err := store.SaveAll(ctx, s.st, domain.Payments, payments); err != nil {
		return domain.PaymentIntent{}, apperr.Internal("save payment", err)
	}
	metrics.PaymentIntents.WithLabelValues(string(pi.Status)).Inc()
	s.log.Info("payment intent created", zap.String("payment_id", pi.ID), zap.String("order_id", orderID))
	return pi, nil
}

// ConfirmIntent 不检查 intent 与订单的当前状态：重复确认会刷新 confirmedAt，
// 已发货或已送达的订单也会被改回 paid。
func (s *Service) ConfirmIntent(ctx context.Context, userID, intentID string) (domain.PaymentConfirmation, error) {
	unlock := s.st.Lock(domain.Payments, domain.Orders)
	defer unlock()

	payments := store.LoadAll[domain.PaymentIntent](ctx, s.st, domain.Payments)
	pi := -1
	for i, p := range payments {
		if p.ID == intentID {
			pi = i
			break
		}
	}
	if pi < 0 {
		return domain.PaymentConfirmation{}, apperr.NotFound("payment intent not found")
	}
	intent := &payments[pi]

	orders := store.LoadAll[domain.Order](ctx, s.st, domain.Orders)
	oi := order.FindOwned(orders, intent.OrderID, userID)
	if oi < 0 {
		return domain.PaymentConfirmation{}, apperr.NotFound("order not found")
	}
	o := &orders[oi]

	ts := now()
	intent.Status = domain.PaymentSucceeded
	intent.ConfirmedAt = &ts
	if o.Status != domain.OrderCreated && o.Status != domain.OrderPaid {
		s.log.Warn("payment confirm moves order back to paid",
			zap.String("order_id", o.ID),
			zap.String("from", string(o.Status)))
	}
	order.SetStatus(o, domain.OrderPaid)

	err := saga.Run(ctx, s.log, sagaConfirm,
		saga.Step{Name: stepWritePayments, Do: func(ctx context.Context) error {
			return store.SaveAll(ctx, s.st, domain.Payments, payments)
		}},
		saga.Step{Name: stepWriteOrders, Do: func(ctx context.Context) error {
			return store.SaveAll(ctx, s.st, domain.Orders, orders)
		}},
	)
	if err != nil {
		return domain.PaymentConfirmation{}, apperr.Internal("confirm payment", err)
	}
	metrics.PaymentIntents.WithLabelValues(string(intent.Status)).Inc()
	s.log.Info("payment confirmed", zap.String("payment_id", intent.ID), zap.String("order_id", o.ID))
	return domain.PaymentConfirmation{Intent: *intent, Order: *o}, nil
}
