package order

import (
	"math"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions is the legal status graph. delivered and cancelled are
// terminal; cancellation is only reachable before processing starts.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this status may still be
// cancelled by the customer.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "created"
	PaymentStatusCaptured PaymentStatus = "captured"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Item is a line item with the product name, price and image captured at
// order-creation time, so later product edits never change the order.
type Item struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// StatusEntry is one element of the append-only status history.
type StatusEntry struct {
	Status Status    `json:"status"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// PaymentInfo tracks the gateway side of an order.
type PaymentInfo struct {
	GatewayOrderID string        `json:"gatewayOrderId,omitempty"`
	PaymentID      string        `json:"paymentId,omitempty"`
	Signature      string        `json:"signature,omitempty"`
	RefundID       string        `json:"refundId,omitempty"`
	Status         PaymentStatus `json:"status,omitempty"`
}

type Order struct {
	ID            int             `json:"orderId"`
	UserID        int             `json:"userId"`
	Items         []Item          `json:"items"`
	Shipping      ShippingAddress `json:"shippingAddress"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes,omitempty"`

	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`

	Status         Status        `json:"status"`
	History        []StatusEntry `json:"statusHistory"`
	TrackingNumber string        `json:"trackingNumber,omitempty"`

	Payment PaymentInfo `json:"payment"`
	IsPaid  bool        `json:"isPaid"`
	PaidAt  *time.Time  `json:"paidAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppendStatus moves the order to st and appends a history entry. History
// is append-only; existing entries are never rewritten.
func (o *Order) AppendStatus(st Status, note string, at time.Time) {
	o.Status = st
	o.History = append(o.History, StatusEntry{Status: st, Note: note, At: at})
	o.UpdatedAt = at
}

// Pricing policy: flat shipping below the free threshold, fixed tax rate.
const (
	freeShippingThreshold = 1000.0
	flatShippingPrice     = 50.0
	taxRate               = 0.18
)

// ComputePrices fills the price breakdown from the item snapshots.
func (o *Order) ComputePrices() {
	items := 0.0
	for _, it := range o.Items {
		items += it.Price * float64(it.Quantity)
	}
	o.ItemsPrice = round2(items)

	if o.ItemsPrice >= freeShippingThreshold {
		o.ShippingPrice = 0
	} else {
		o.ShippingPrice = flatShippingPrice
	}

	o.TaxPrice = round2(o.ItemsPrice * taxRate)
	o.TotalPrice = round2(o.ItemsPrice + o.ShippingPrice + o.TaxPrice)
}

// AmountMinor converts the total into integer minor currency units for the
// payment gateway (e.g. paise), rounding the major-unit decimal.
func (o Order) AmountMinor() int64 {
	return int64(math.Round(o.TotalPrice * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
