package address

import (
	"time"

	"github.com/Arafat-alim/shoporbit-backend/internal/order"
)

// Address is a saved shipping address. Orders copy the fields at
// checkout time, so editing a saved address never touches past orders.
type Address struct {
	ID         int       `json:"addressId"`
	UserID     int       `json:"userId"`
	Label      string    `json:"label,omitempty"`
	FullName   string    `json:"fullName"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state,omitempty"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone,omitempty"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Shipping converts the saved address into the snapshot shape orders carry.
func (a Address) Shipping() order.ShippingAddress {
	return order.ShippingAddress{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}
