package domain

import "time"

type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	// OrderCancelled is recognised by readers but no flow produces it.
	OrderCancelled OrderStatus = "cancelled"
)

// OrderItem ids are unique only within their order.
type OrderItem struct {
	OrderItemID string  `json:"orderItemId"`
	SkuID       string  `json:"skuId"`
	Qty         int     `json:"qty"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (o Order) OwnedBy(userID string) bool { return o.UserID == userID }
