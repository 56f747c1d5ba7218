// Package rating records one 1..5 rating per user and product.
package rating

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/store"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/feature/catalog"
)

var now = func() time.Time { return time.Now().UTC() }

// Invalidator 评分变化后刷新商品列表缓存
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	st      *store.Store
	catalog Invalidator
	log     *zap.Logger
}

func NewService(st *store.Store, inv Invalidator, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{st: st, catalog: inv, log: l.Named("rating")}
}

type Result struct {
	OK bool `json:"ok"`
	domain.RatingStats
}

// ParseValue 接受数字或数字字符串
func ParseValue(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, apperr.Validation("value must be 1..5")
		}
		f = p
	default:
		return 0, apperr.Validation("value must be 1..5")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > 5 {
		return 0, apperr.Validation("value must be 1..5")
	}
	return f, nil
}

// Rate 未购买过该商品的买家不能评分；admin 不受限
func (s *Service) Rate(ctx context.Context, caller domain.Caller, productID string, value float64) (Result, error) {
	if value < 1 || value > 5 {
		return Result{}, apperr.Validation("value must be 1..5")
	}
	if caller.Role != domain.RoleAdmin && !s.bought(ctx, caller.ID, productID) {
		return Result{}, apperr.Forbidden("you can rate only purchased products")
	}

	unlock := s.st.Lock(domain.Ratings)
	defer unlock()

	ratings := store.LoadAll[domain.Rating](ctx, s.st, domain.Ratings)
	ts := now()
	found := false
	for i := range ratings {
		r := &ratings[i]
		if r.ProductID == productID && r.UserID == caller.ID {
			r.Value = value
			r.UpdatedAt = ts
			found = true
			break
		}
	}
	if !found {
		ratings = append(ratings, domain.Rating{
			ID:        newID(ratings, ts),
			ProductID: productID,
			UserID:    caller.ID,
			Value:     value,
			CreatedAt: ts,
			UpdatedAt: ts,
		})
	}
	if err := store.SaveAll(ctx, s.st, domain.Ratings, ratings); err != nil {
		return Result{}, apperr.Internal("save ratings", err)
	}
	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	s.log.Info("product rated",
		zap.String("product_id", productID),
		zap.String("user_id", caller.ID),
		zap.Float64("value", value),
		zap.Bool("updated", found))
	return Result{OK: true, RatingStats: catalog.Stats(ratings, productID)}, nil
}

// bought 任一未取消订单里含该商品的 SKU
func (s *Service) bought(ctx context.Context, userID, productID string) bool {
	skuProduct := map[string]string{}
	for _, sk := range store.LoadAll[domain.Sku](ctx, s.st, domain.Skus) {
		skuProduct[sk.ID] = sk.ProductID
	}
	for _, o := range store.LoadAll[domain.Order](ctx, s.st, domain.Orders) {
		if !o.OwnedBy(userID) || o.Status == domain.OrderCancelled {
			continue
		}
		for _, it := range o.Items {
			if skuProduct[it.SkuID] == productID {
				return true
			}
		}
	}
	return false
}

// newID rate_<毫秒>；同一毫秒内冲突时顺延
func newID(ratings []domain.Rating, ts time.Time) string {
	taken := make(map[string]bool, len(ratings))
	for _, r := range ratings {
		taken[r.ID] = true
	}
	ms := ts.UnixMilli()
	for {
		id := fmt.Sprintf("%s_%d", domain.PrefixRating, ms)
		if !taken[id] {
			return id
		}
		ms++
	}
}
