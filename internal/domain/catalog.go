package domain

import "time"

type ProductStatus string

const (
	ProductActive  ProductStatus = "active"
	ProductDraft   ProductStatus = "draft"
	ProductBlocked ProductStatus = "blocked"
)

type Product struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Category    string        `json:"category"`
	Description string        `json:"description"`
	Images      []string      `json:"images"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Status      ProductStatus `json:"status"`
	SellerID    string        `json:"sellerId"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Sku stock is advisory; no flow decrements it.
type Sku struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Variant   string  `json:"variant"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
}

type RatingStats struct {
	RatingAvg   float64 `json:"ratingAvg"`
	RatingCount int     `json:"ratingCount"`
}

// ProductCard is a buyer-facing listing entry.
type ProductCard struct {
	Product
	MinPrice *float64 `json:"minPrice"`
	RatingStats
}

type ProductDetail struct {
	Product
	Skus []Sku `json:"skus"`
	RatingStats
}

// ProductWithSkus is the seller view of a product.
type ProductWithSkus struct {
	Product
	Skus []Sku `json:"skus"`
}

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductActive, ProductDraft, ProductBlocked:
		return true
	}
	return false
}
