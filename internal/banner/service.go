package banner

import (
	"errors"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns up to limit banners. An empty storefront is not an error.
func (s *Service) List(limit int) ([]Banner, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.List(limit)
}

func (s *Service) Create(b Banner) (Banner, error) {
	return s.repo.Create(b)
}

func (s *Service) Delete(id int) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("banner not found")
		}
		return err
	}
	return nil
}
