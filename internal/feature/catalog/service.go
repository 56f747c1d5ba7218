// Package catalog serves products and SKUs to buyers and lets sellers and
// admins manage them.
package catalog

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/cache"
	"marketplace-api/internal/core/saga"
	"marketplace-api/internal/core/store"
	"marketplace-api/internal/domain"
)

const (
	keyActive = "catalog:products:active"

	defaultVariant = "Default"
)

var now = func() time.Time { return time.Now().UTC() }

type Service struct {
	st    *store.Store
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewService c 可为 cache.New("", ...) 得到的空缓存
func NewService(st *store.Store, c *cache.Cache, ttl time.Duration, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	if c == nil {
		c = cache.New("", "", 0, l)
	}
	return &Service{st: st, cache: c, ttl: ttl, log: l.Named("catalog")}
}

// SkuInput 新增时 ID 为空；更新时只改非 nil 字段
type SkuInput struct {
	ID      string   `json:"id"`
	Variant *string  `json:"variant"`
	Price   *float64 `json:"price"`
	Stock   *int     `json:"stock"`
}

type ProductInput struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Images      []string   `json:"images"`
	Skus        []SkuInput `json:"skus"`
}

// ProductPatch 卖家可改字段；Skus 非 nil 时逐条新增/更新
type ProductPatch struct {
	Title       *string               `json:"title"`
	Category    *string               `json:"category"`
	Description *string               `json:"description"`
	Status      *domain.ProductStatus `json:"status"`
	Images      *[]string             `json:"images"`
	ImageURL    *string               `json:"imageUrl"`
	Skus        *[]SkuInput           `json:"skus"`
}

// AdminPatch 管理端可改字段
type AdminPatch struct {
	Title       *string               `json:"title"`
	Category    *string               `json:"category"`
	Description *string               `json:"description"`
	Status      *domain.ProductStatus `json:"status"`
	ImageURL    *string               `json:"imageUrl"`
}

// Stats 平均分保留两位小数；无评分时为 0
func Stats(ratings []domain.Rating, productID string) domain.RatingStats {
	var sum float64
	n := 0
	for _, r := range ratings {
		if r.ProductID != productID {
			continue
		}
		sum += r.Value
		n++
	}
	if n == 0 {
		return domain.RatingStats{}
	}
	return domain.RatingStats{RatingAvg: math.Round(sum/float64(n)*100) / 100, RatingCount: n}
}

// ListActive 买家列表只含 active 商品，经缓存读取；读库与回填缓存都持有三个集合的锁
func (s *Service) ListActive(ctx context.Context) ([]domain.ProductCard, error) {
	unlock := s.st.Lock(domain.Products, domain.Skus, domain.Ratings)
	defer unlock()
	return cache.GetOrLoadJSON(s.cache, ctx, keyActive, s.ttl, s.loadActive)
}

func (s *Service) loadActive(ctx context.Context) ([]domain.ProductCard, error) {
	products := store.LoadAll[domain.Product](ctx, s.st, domain.Products)
	skus := store.LoadAll[domain.Sku](ctx, s.st, domain.Skus)
	ratings := store.LoadAll[domain.Rating](ctx, s.st, domain.Ratings)

	out := make([]domain.ProductCard, 0, len(products))
	for _, p := range products {
		if p.Status != domain.ProductActive {
			continue
		}
		card := domain.ProductCard{Product: p, RatingStats: Stats(ratings, p.ID)}
		for _, sk := range skus {
			if sk.ProductID != p.ID {
				continue
			}
			if card.MinPrice == nil || sk.Price < *card.MinPrice {
				price := sk.Price
				card.MinPrice = &price
			}
		}
		out = append(out, card)
	}
	return out, nil
}

// Get 任意状态的商品详情
func (s *Service) Get(ctx context.Context, id string) (domain.ProductDetail, error) {
	p, ok := s.findProduct(ctx, id)
	if !ok {
		return domain.ProductDetail{}, apperr.NotFound("product not found")
	}
	skus := store.LoadAll[domain.Sku](ctx, s.st, domain.Skus)
	ratings := store.LoadAll[domain.Rating](ctx, s.st, domain.Ratings)
	return domain.ProductDetail{
		Product:     p,
		Skus:        skusOf(skus, id),
		RatingStats: Stats(ratings, id),
	}, nil
}

func (s *Service) Skus(ctx context.Context) []domain.Sku {
	return store.LoadAll[domain.Sku](ctx, s.st, domain.Skus)
}

// FindSku 供购物车查价
func (s *Service) FindSku(ctx context.Context, id string) (domain.Sku, bool) {
	for _, sk := range s.Skus(ctx) {
		if sk.ID == id {
			return sk, true
		}
	}
	return domain.Sku{}, false
}

func (s *Service) Sku(ctx context.Context, id string) (domain.Sku, error) {
	sk, ok := s.FindSku(ctx, id)
	if !ok {
		return domain.Sku{}, apperr.NotFound("SKU not found")
	}
	return sk, nil
}

func (s *Service) Products(ctx context.Context) []domain.Product {
	return store.LoadAll[domain.Product](ctx, s.st, domain.Products)
}

// SellerProducts 卖家只看自己的，admin 看全部
func (s *Service) SellerProducts(ctx context.Context, caller domain.Caller) []domain.Product {
	all := s.Products(ctx)
	if caller.Role == domain.RoleAdmin {
		return all
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if p.SellerID == caller.ID {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) Create(ctx context.Context, caller domain.Caller, in ProductInput) (domain.ProductWithSkus, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Category) == "" {
		return domain.ProductWithSkus{}, apperr.Validation("title/category required")
	}

	unlock := s.st.Lock(domain.Products, domain.Skus)
	defer unlock()

	products := store.LoadAll[domain.Product](ctx, s.st, domain.Products)
	allSkus := store.LoadAll[domain.Sku](ctx, s.st, domain.Skus)

	ts := now()
	images := compact(in.Images)
	p := domain.Product{
		ID:          store.NextID(domain.PrefixProduct, store.MaxSeq(store.IDs(products, productID), "")),
		Title:       in.Title,
		Category:    in.Category,
		Description: in.Description,
		Images:      images,
		Status:      domain.ProductActive,
		SellerID:    caller.ID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if len(images) > 0 {
		p.ImageURL = images[0]
	}
	products = append(products, p)

	maxSku := store.MaxSeq(store.IDs(allSkus, skuID), "")
	created := make([]domain.Sku, 0, len(in.Skus))
	for _, si := range in.Skus {
		maxSku++
		created = append(created, newSku(si, p.ID, maxSku))
	}
	allSkus = append(allSkus, created...)

	if err := s.writeBoth(ctx, "create_product", products, allSkus); err != nil {
		return domain.ProductWithSkus{}, err
	}
	s.log.Info("product created", zap.String("product_id", p.ID), zap.String("seller_id", caller.ID), zap.Int("skus", len(created)))
	return domain.ProductWithSkus{Product: p, Skus: created}, nil
}

func (s *Service) Update(ctx context.Context, caller domain.Caller, id string, patch ProductPatch) (domain.ProductWithSkus, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.ProductWithSkus{}, apperr.Validation("invalid status")
	}

	unlock := s.st.Lock(domain.Products, domain.Skus)
	defer unlock()

	products := store.LoadAll[domain.Product](ctx, s.st, domain.Products)
	allSkus := store.LoadAll[domain.Sku](ctx, s.st, domain.Skus)

	i, err := ownedIndex(products, caller, id)
	if err != nil {
		return domain.ProductWithSkus{}, err
	}
	p := &products[i]
	setIf(&p.Title, patch.Title)
	setIf(&p.Category, patch.Category)
	setIf(&p.Description, patch.Description)
	setIf(&p.Status, patch.Status)
	setIf(&p.ImageURL, patch.ImageURL)
	if patch.Images != nil {
		p.Images = compact(*patch.Images)
	}
	if len(p.Images) > 0 && p.ImageURL == "" {
		p.ImageURL = p.Images[0]
	}
	p.UpdatedAt = now()

	if patch.Skus != nil {
		maxSku := store.MaxSeq(store.IDs(allSkus, skuID), "")
		for _, si := range *patch.Skus {
			if si.ID == "" {
				maxSku++
				allSkus = append(allSkus, newSku(si, p.ID, maxSku))
				continue
			}
			// 不属于该商品的 SKU 忽略
			for j := range allSkus {
				if allSkus[j].ID != si.ID || allSkus[j].ProductID != p.ID {
					continue
				}
				setIf(&allSkus[j].Variant, si.Variant)
				setIf(&allSkus[j].Price, si.Price)
				setIf(&allSkus[j].Stock, si.Stock)
			}
		}
	}

	if err := s.writeBoth(ctx, "update_product", products, allSkus); err != nil {
		return domain.ProductWithSkus{}, err
	}
	return domain.ProductWithSkus{Product: *p, Skus: skusOf(allSkus, p.ID)}, nil
}

func (s *Service) Delete(ctx context.Context, caller domain.Caller, id string) error {
	unlock := s.st.Lock(domain.Products, domain.Skus)
	defer unlock()

	products := store.LoadAll[domain.Product](ctx, s.st, domain.Products)
	if _, err := ownedIndex(products, caller, id); err != nil {
		return err
	}
	allSkus := store.LoadAll[domain.Sku](ctx, s.st, domain.Skus)
	if err := s.writeBoth(ctx, "delete_product", withoutProduct(products, id), withoutSkusOf(allSkus, id)); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.String("product_id", id), zap.String("by", caller.ID))
	return nil
}

// AdminUpdate 不刷新 updatedAt
func (s *Service) AdminUpdate(ctx context.Context, id string, patch AdminPatch) (domain.Product, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Product{}, apperr.Validation("invalid status")
	}

	unlock := s.st.Lock(domain.Products)
	defer unlock()

	products := store.LoadAll[domain.Product](ctx, s.st, domain.Products)
	for i := range products {
		if products[i].ID != id {
			continue
		}
		p := &products[i]
		setIf(&p.Title, patch.Title)
		setIf(&p.Category, patch.Category)
		setIf(&p.Description, patch.Description)
		setIf(&p.Status, patch.Status)
		setIf(&p.ImageURL, patch.ImageURL)
		if err := store.SaveAll(ctx, s.st, domain.Products, products); err != nil {
			return domain.Product{}, apperr.Internal("save products", err)
		}
		s.Invalidate(ctx)
		return *p, nil
	}
	return domain.Product{}, apperr.NotFound("product not found")
}

// AdminDelete 商品删除为准；SKU 清理失败只记日志
func (s *Service) AdminDelete(ctx context.Context, id string) error {
	unlock := s.st.Lock(domain.Products, domain.Skus)
	defer unlock()

	products := store.LoadAll[domain.Product](ctx, s.st, domain.Products)
	next := withoutProduct(products, id)
	if len(next) == len(products) {
		return apperr.NotFound("product not found")
	}
	if err := store.SaveAll(ctx, s.st, domain.Products, next); err != nil {
		return apperr.Internal("save products", err)
	}
	defer s.Invalidate(ctx)

	allSkus := store.LoadAll[domain.Sku](ctx, s.st, domain.Skus)
	if err := store.SaveAll(ctx, s.st, domain.Skus, withoutSkusOf(allSkus, id)); err != nil {
		s.log.Warn("sku cleanup failed", zap.String("product_id", id), zap.Error(err))
	}
	return nil
}

// Invalidate 商品、SKU、评分写入后调用
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, keyActive)
}

func (s *Service) writeBoth(ctx context.Context, name string, products []domain.Product, skus []domain.Sku) error {
	defer s.Invalidate(ctx)
	err := saga.Run(ctx, s.log, name,
		saga.Step{Name: "write_products", Do: func(ctx context.Context) error {
			return store.SaveAll(ctx, s.st, domain.Products, products)
		}},
		saga.Step{Name: "write_skus", Do: func(ctx context.Context) error {
			return store.SaveAll(ctx, s.st, domain.Skus, skus)
		}},
	)
	if err != nil {
		return apperr.Internal(name, err)
	}
	return nil
}

func (s *Service) findProduct(ctx context.Context, id string) (domain.Product, bool) {
	for _, p := range s.Products(ctx) {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func ownedIndex(products []domain.Product, caller domain.Caller, id string) (int, error) {
	for i, p := range products {
		if p.ID != id {
			continue
		}
		if caller.Role != domain.RoleAdmin && p.SellerID != caller.ID {
			return -1, apperr.Forbidden("forbidden")
		}
		return i, nil
	}
	return -1, apperr.NotFound("product not found")
}

func newSku(in SkuInput, productID string, seq int) domain.Sku {
	sk := domain.Sku{
		ID:        store.NextID(domain.PrefixSku, seq-1),
		ProductID: productID,
		Variant:   defaultVariant,
	}
	if in.Variant != nil && *in.Variant != "" {
		sk.Variant = *in.Variant
	}
	setIf(&sk.Price, in.Price)
	setIf(&sk.Stock, in.Stock)
	return sk
}

func skusOf(skus []domain.Sku, productID string) []domain.Sku {
	out := []domain.Sku{}
	for _, sk := range skus {
		if sk.ProductID == productID {
			out = append(out, sk)
		}
	}
	return out
}

func withoutSkusOf(skus []domain.Sku, productID string) []domain.Sku {
	out := make([]domain.Sku, 0, len(skus))
	for _, sk := range skus {
		if sk.ProductID != productID {
			out = append(out, sk)
		}
	}
	return out
}

func withoutProduct(products []domain.Product, id string) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func compact(images []string) []string {
	out := make([]string, 0, len(images))
	for _, s := range images {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func productID(p domain.Product) string { return p.ID }
func skuID(s domain.Sku) string         { return s.ID }
