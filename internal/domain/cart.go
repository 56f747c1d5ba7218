package domain

// CartItem price is the unit price locked when the line was first added.
type CartItem struct {
	ItemID   string  `json:"itemId"`
	SkuID    string  `json:"skuId"`
	Qty      int     `json:"qty"`
	Price    float64 `json:"price"`
	Subtotal float64 `json:"subtotal"`
}

type Cart struct {
	ID     string     `json:"id"`
	UserID string     `json:"userId"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
}

// Recalc restores total == sum(items.subtotal).
func (c *Cart) Recalc() {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	var sum float64
	for _, it := range c.Items {
		sum += it.Subtotal
	}
	c.Total = sum
}
