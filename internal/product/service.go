package product

import (
	"time"
)

// Service provides catalog business logic.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(filter ListFilter) ([]Product, error) {
	return s.repo.List(filter)
}

// ListFeatured returns the best rated products that are still in stock.
func (s *Service) ListFeatured(limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 8
	}
	return s.repo.ListFeatured(limit)
}

func (s *Service) GetByID(id int) (Product, error) {
	return s.repo.GetByID(id)
}

func (s *Service) Create(p Product) (Product, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.RecalcRating()
	return s.repo.Create(p)
}

func (s *Service) Update(id int, p Product) (Product, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return Product{}, err
	}

	// reviews and rating are managed through UpsertReview, not Update
	p.Reviews = existing.Reviews
	p.Rating = existing.Rating
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	return s.repo.Update(id, p)
}

func (s *Service) Delete(id int) error {
	return s.repo.Delete(id)
}

// UpsertReview records one review per user (last write wins) and
// recomputes the aggregate rating. Only the review fields are written
// back; writing the whole row would undo any stock decrement applied
// between the read and the write.
func (s *Service) UpsertReview(productID, userID int, name string, rating int, comment string) (Product, error) {
	p, err := s.repo.GetByID(productID)
	if err != nil {
		return Product{}, err
	}

	p.SetReview(userID, Review{
		Name:      name,
		Rating:    rating,
		Comment:   comment,
		UpdatedAt: time.Now().UTC(),
	})
	return s.repo.UpdateReviews(productID, p.Reviews, p.Rating)
}

func (s *Service) DecrementStock(id, qty int) error {
	return s.repo.DecrementStock(id, qty)
}

func (s *Service) RestoreStock(id, qty int) error {
	return s.repo.RestoreStock(id, qty)
}
