package product

import (
	"testing"
)

func newCatalog(seed []Product) *Service {
	return NewService(NewInMemoryRepository(seed))
}

func TestUpsertReview_LastWriteWins(t *testing.T) {
	svc := newCatalog([]Product{{ID: 1, Name: "Mug", Price: 9.99, Stock: 5}})

	if _, err := svc.UpsertReview(1, 7, "Alex", 5, "great"); err != nil {
		t.Fatalf("first review: %v", err)
	}
	if _, err := svc.UpsertReview(1, 8, "Sam", 2, "meh"); err != nil {
		t.Fatalf("second review: %v", err)
	}

	// the same user reviews again; it must replace, not append
	p, err := svc.UpsertReview(1, 7, "Alex", 3, "changed my mind")
	if err != nil {
		t.Fatalf("updated review: %v", err)
	}

	if len(p.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(p.Reviews))
	}
	if got := p.Reviews["7"].Rating; got != 3 {
		t.Fatalf("expected updated rating 3, got %d", got)
	}
	// (3 + 2) / 2 = 2.5
	if p.Rating.Average != 2.5 || p.Rating.Count != 2 {
		t.Fatalf("expected aggregate 2.5/2, got %+v", p.Rating)
	}
}

func TestUpsertReview_AverageRoundedToOneDecimal(t *testing.T) {
	svc := newCatalog([]Product{{ID: 1, Name: "Mug", Price: 9.99, Stock: 5}})

	svc.UpsertReview(1, 1, "A", 5, "")
	svc.UpsertReview(1, 2, "B", 4, "")
	p, err := svc.UpsertReview(1, 3, "C", 4, "")
	if err != nil {
		t.Fatalf("review: %v", err)
	}

	// 13/3 = 4.333... rounds to 4.3
	if p.Rating.Average != 4.3 {
		t.Fatalf("expected average 4.3, got %v", p.Rating.Average)
	}
	if p.Rating.Count != 3 {
		t.Fatalf("expected count 3, got %d", p.Rating.Count)
	}
}

// saleDuringReadRepo models an order landing between a review's read of
// the product and its write.
type saleDuringReadRepo struct {
	*InMemoryRepository
	sold bool
}

func (r *saleDuringReadRepo) GetByID(id int) (Product, error) {
	p, err := r.InMemoryRepository.GetByID(id)
	if err == nil && !r.sold {
		r.sold = true
		r.InMemoryRepository.DecrementStock(id, 2)
	}
	return p, err
}

func TestUpsertReview_DoesNotRestoreSoldStock(t *testing.T) {
	inner := NewInMemoryRepository([]Product{{ID: 1, Name: "Mug", Price: 9.99, Stock: 5}})
	svc := NewService(&saleDuringReadRepo{InMemoryRepository: inner})

	if _, err := svc.UpsertReview(1, 7, "Alex", 5, "great"); err != nil {
		t.Fatalf("review: %v", err)
	}

	p, _ := inner.GetByID(1)
	if p.Stock != 3 {
		t.Fatalf("expected stock 3 after the concurrent sale, got %d", p.Stock)
	}
	if p.Rating.Count != 1 || p.Reviews["7"].Rating != 5 {
		t.Fatalf("expected the review recorded, got %+v", p)
	}
}

func TestUpdate_PreservesReviewsAndCreatedAt(t *testing.T) {
	svc := newCatalog(nil)

	created, err := svc.Create(Product{Name: "Mug", Price: 9.99, Stock: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpsertReview(created.ID, 7, "Alex", 5, "great"); err != nil {
		t.Fatalf("review: %v", err)
	}

	updated, err := svc.Update(created.ID, Product{Name: "Big Mug", Price: 12.99, Stock: 3})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != "Big Mug" || updated.Price != 12.99 {
		t.Fatalf("expected updated fields, got %+v", updated)
	}
	if len(updated.Reviews) != 1 || updated.Rating.Count != 1 {
		t.Fatalf("expected reviews to survive update, got %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected created timestamp to be preserved")
	}
}

func TestListFeatured_OrdersByRatingAndSkipsOutOfStock(t *testing.T) {
	svc := newCatalog([]Product{
		{ID: 1, Name: "Low", Stock: 5, Rating: Rating{Average: 2.0, Count: 4}},
		{ID: 2, Name: "High", Stock: 5, Rating: Rating{Average: 4.8, Count: 9}},
		{ID: 3, Name: "Sold out", Stock: 0, Rating: Rating{Average: 5.0, Count: 20}},
		{ID: 4, Name: "Mid", Stock: 1, Rating: Rating{Average: 3.5, Count: 2}},
	})

	featured, err := svc.ListFeatured(2)
	if err != nil {
		t.Fatalf("list featured: %v", err)
	}
	if len(featured) != 2 {
		t.Fatalf("expected 2 featured products, got %d", len(featured))
	}
	if featured[0].ID != 2 || featured[1].ID != 4 {
		t.Fatalf("expected [High, Mid], got [%s, %s]", featured[0].Name, featured[1].Name)
	}
}

func TestDecrementStock_ConditionalOnAvailability(t *testing.T) {
	svc := newCatalog([]Product{{ID: 1, Name: "Mug", Price: 9.99, Stock: 2}})

	if err := svc.DecrementStock(1, 3); err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	p, _ := svc.GetByID(1)
	if p.Stock != 2 {
		t.Fatalf("failed decrement must not touch stock, got %d", p.Stock)
	}

	if err := svc.DecrementStock(1, 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	p, _ = svc.GetByID(1)
	if p.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", p.Stock)
	}
}
