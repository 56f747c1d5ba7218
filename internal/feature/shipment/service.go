// Package shipment simulates a delivery carrier for paid orders.
package shipment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/metrics"
	"marketplace-api/internal/core/saga"
	"marketplace-api/internal/core/store"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/feature/order"
)

var (
	now = func() time.Time { return time.Now().UTC() }

	// 不保证唯一
	trackingNumber = func() string { return fmt.Sprintf("TRK-%d", rand.IntN(1e9)) }
)

const (
	sagaCreate = "create_shipment"
	sagaUpdate = "update_shipment"

	stepWriteShipments saga.StepName = "write_shipments"
	stepWriteOrders    saga.StepName = "write_orders"
)

type Service struct {
	st  *store.Store
	log *zap.Logger
}

func NewService(st *store.Store, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{st: st, log: l.Named("shipment")}
}

// Create 只接受 paid 订单，成功后订单变为 shipped
func (s *Service) Create(ctx context.Context, userID, orderID string) (domain.ShipmentResult, error) {
	if orderID == "" {
		return domain.ShipmentResult{}, apperr.Validation("orderId required")
	}

	unlock := s.st.Lock(domain.Shipments, domain.Orders)
	defer unlock()

	orders := store.LoadAll[domain.Order](ctx, s.st, domain.Orders)
	oi := order.FindOwned(orders, orderID, userID)
	if oi < 0 {
		return domain.ShipmentResult{}, apperr.NotFound("order not found")
	}
	o := &orders[oi]
	if o.Status != domain.OrderPaid {
		return domain.ShipmentResult{}, apperr.InvalidState("order must be paid")
	}

	shipments := store.LoadAll[domain.Shipment](ctx, s.st, domain.Shipments)
	maxSeq := store.MaxSeq(store.IDs(shipments, func(sh domain.Shipment) string { return sh.ID }), "")
	sh := domain.Shipment{
		ID:             store.NextID(domain.PrefixShipment, maxSeq),
		OrderID:        orderID,
		Carrier:        domain.CarrierMock,
		Status:         domain.ShipmentCreated,
		TrackingNumber: trackingNumber(),
		CreatedAt:      now(),
	}
	shipments = append(shipments, sh)
	order.SetStatus(o, domain.OrderShipped)

	if err := s.write(ctx, sagaCreate, shipments, orders); err != nil {
		return domain.ShipmentResult{}, err
	}
	metrics.ShipmentUpdates.WithLabelValues(sh.Status).Inc()
	s.log.Info("shipment created", zap.String("shipment_id", sh.ID), zap.String("order_id", orderID))
	return domain.ShipmentResult{Shipment: sh, Order: *o}, nil
}

// UpdateStatus 状态为自由文本；只有 delivered 会推进订单
func (s *Service) UpdateStatus(ctx context.Context, userID, shipmentID, status string) (domain.ShipmentResult, error) {
	if status == "" {
		return domain.ShipmentResult{}, apperr.Validation("status required")
	}

	unlock := s.st.Lock(domain.Shipments, domain.Orders)
	defer unlock()

	shipments := store.LoadAll[domain.Shipment](ctx, s.st, domain.Shipments)
	si := -1
	for i, sh := range shipments {
		if sh.ID == shipmentID {
			si = i
			break
		}
	}
	if si < 0 {
		return domain.ShipmentResult{}, apperr.NotFound("shipment not found")
	}
	sh := &shipments[si]

	orders := store.LoadAll[domain.Order](ctx, s.st, domain.Orders)
	oi := order.FindOwned(orders, sh.OrderID, userID)
	if oi < 0 {
		return domain.ShipmentResult{}, apperr.NotFound("order not found")
	}
	o := &orders[oi]

	ts := now()
	sh.Status = status
	sh.UpdatedAt = &ts
	if status == domain.ShipmentDelivered {
		order.SetStatus(o, domain.OrderDelivered)
	}

	if err := s.write(ctx, sagaUpdate, shipments, orders); err != nil {
		return domain.ShipmentResult{}, err
	}
	metrics.ShipmentUpdates.WithLabelValues(statusLabel(status)).Inc()
	s.log.Info("shipment status updated",
		zap.String("shipment_id", sh.ID),
		zap.String("status", status),
		zap.String("order_status", string(o.Status)))
	return domain.ShipmentResult{Shipment: *sh, Order: *o}, nil
}

func (s *Service) write(ctx context.Context, name string, shipments []domain.Shipment, orders []domain.Order) error {
	err := saga.Run(ctx, s.log, name,
		saga.Step{Name: stepWriteShipments, Do: func(ctx context.Context) error {
			return store.SaveAll(ctx, s.st, domain.Shipments, shipments)
		}},
		saga.Step{Name: stepWriteOrders, Do: func(ctx context.Context) error {
			return store.SaveAll(ctx, s.st, domain.Orders, orders)
		}},
	)
	if err != nil {
		return apperr.Internal(name, err)
	}
	return nil
}

// statusLabel 自由文本状态归并，避免指标维度膨胀
func statusLabel(status string) string {
	switch status {
	case domain.ShipmentCreated, "in_transit", domain.ShipmentDelivered:
		return status
	}
	return "other"
}
