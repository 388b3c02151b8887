package product

import (
	"math"
	"strconv"
	"time"
)

// Review is one user's review of a product. Reviews are stored as a map
// keyed by user id, so a second review from the same user overwrites the
// first (last write wins).
type Review struct {
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rating is the aggregate derived from the review map.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Product struct {
	ID          int               `json:"productId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Stock       int               `json:"stock"`
	Category    string            `json:"category"`
	Images      []string          `json:"images"`
	Rating      Rating            `json:"rating"`
	Reviews     map[string]Review `json:"reviews,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SetReview records a review for userID and recomputes the aggregate.
func (p *Product) SetReview(userID int, rev Review) {
	if p.Reviews == nil {
		p.Reviews = make(map[string]Review)
	}
	p.Reviews[strconv.Itoa(userID)] = rev
	p.RecalcRating()
}

// RecalcRating recomputes average and count from the review map.
func (p *Product) RecalcRating() {
	if len(p.Reviews) == 0 {
		p.Rating = Rating{}
		return
	}

	sum := 0
	for _, rev := range p.Reviews {
		sum += rev.Rating
	}
	avg := float64(sum) / float64(len(p.Reviews))
	p.Rating = Rating{
		Average: math.Round(avg*10) / 10,
		Count:   len(p.Reviews),
	}
}

// FirstImage is used when snapshotting a product onto an order line item.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
