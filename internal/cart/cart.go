package cart

// Item is a cart line hydrated with current catalog data. Unlike order
// line items, cart lines always reflect the product's present price.
type Item struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
}

type Cart struct {
	Items      []Item  `json:"items"`
	ItemsPrice float64 `json:"itemsPrice"`
}
