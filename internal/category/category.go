package category

// Category is a catalog category with the number of products in it. The
// list is derived from the product table rather than maintained by hand.
type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}
