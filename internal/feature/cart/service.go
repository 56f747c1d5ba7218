// Package cart keeps one shopping cart per user.
package cart

import (
	"context"
	"math"

	"go.uber.org/zap"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/store"
	"marketplace-api/internal/domain"
)

// SkuFinder 查询 SKU 当前价格
type SkuFinder interface {
	FindSku(ctx context.Context, id string) (domain.Sku, bool)
}

type Service struct {
	st   *store.Store
	skus SkuFinder
	log  *zap.Logger
}

func NewService(st *store.Store, skus SkuFinder, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{st: st, skus: skus, log: l.Named("cart")}
}

// GetOrCreate 没有购物车时创建并立即落盘
func (s *Service) GetOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	unlock := s.st.Lock(domain.Carts)
	defer unlock()

	carts := store.LoadAll[domain.Cart](ctx, s.st, domain.Carts)
	if i := indexOf(carts, userID); i >= 0 {
		carts[i].Recalc()
		return carts[i], nil
	}
	carts = append(carts, newCart(carts, userID))
	if err := store.SaveAll(ctx, s.st, domain.Carts, carts); err != nil {
		return domain.Cart{}, apperr.Internal("save cart", err)
	}
	return carts[len(carts)-1], nil
}

// AddItem 同一 SKU 再次加入只累加数量，单价保持首次加入时的价格
func (s *Service) AddItem(ctx context.Context, userID, skuID string, qty int) (domain.Cart, error) {
	if skuID == "" || qty < 1 {
		return domain.Cart{}, apperr.Validation("skuId, qty >= 1 required")
	}
	sku, ok := s.skus.FindSku(ctx, skuID)
	if !ok {
		return domain.Cart{}, apperr.NotFound("sku not found")
	}

	unlock := s.st.Lock(domain.Carts)
	defer unlock()

	carts := store.LoadAll[domain.Cart](ctx, s.st, domain.Carts)
	i := indexOf(carts, userID)
	if i < 0 {
		carts = append(carts, newCart(carts, userID))
		i = len(carts) - 1
	}
	c := &carts[i]

	found := false
	for j := range c.Items {
		it := &c.Items[j]
		if it.SkuID != skuID {
			continue
		}
		if it.Qty > math.MaxInt-qty {
			return domain.Cart{}, apperr.Validation("qty too large")
		}
		it.Qty += qty
		it.Subtotal = float64(it.Qty) * it.Price
		found = true
		break
	}
	if !found {
		maxItem := store.MaxSeq(store.IDs(c.Items, func(it domain.CartItem) string { return it.ItemID }), "")
		c.Items = append(c.Items, domain.CartItem{
			ItemID:   store.NextID(domain.PrefixCartItem, maxItem),
			SkuID:    skuID,
			Qty:      qty,
			Price:    sku.Price,
			Subtotal: sku.Price * float64(qty),
		})
	}
	c.Recalc()

	if err := store.SaveAll(ctx, s.st, domain.Carts, carts); err != nil {
		return domain.Cart{}, apperr.Internal("save cart", err)
	}
	return *c, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (domain.Cart, error) {
	unlock := s.st.Lock(domain.Carts)
	defer unlock()

	carts := store.LoadAll[domain.Cart](ctx, s.st, domain.Carts)
	i := indexOf(carts, userID)
	if i < 0 {
		return domain.Cart{}, apperr.NotFound("cart not found")
	}
	c := &carts[i]

	kept := make([]domain.CartItem, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ItemID != itemID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(c.Items) {
		return domain.Cart{}, apperr.NotFound("item not found")
	}
	c.Items = kept
	c.Recalc()

	if err := store.SaveAll(ctx, s.st, domain.Carts, carts); err != nil {
		return domain.Cart{}, apperr.Internal("save cart", err)
	}
	return *c, nil
}

func indexOf(carts []domain.Cart, userID string) int {
	for i, c := range carts {
		if c.UserID == userID {
			return i
		}
	}
	return -1
}

func newCart(carts []domain.Cart, userID string) domain.Cart {
	maxSeq := store.MaxSeq(store.IDs(carts, func(c domain.Cart) string { return c.ID }), "")
	return domain.Cart{
		ID:     store.NextID(domain.PrefixCart, maxSeq),
		UserID: userID,
		Items:  []domain.CartItem{},
	}
}
