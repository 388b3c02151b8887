package wishlist

import (
	"errors"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
	"github.com/Arafat-alim/shoporbit-backend/internal/product"
)

// Entry is a wishlist line hydrated with current catalog data.
type Entry struct {
	ProductID int            `json:"productId"`
	Name      string         `json:"name"`
	Price     float64        `json:"price"`
	Image     string         `json:"image,omitempty"`
	Stock     int            `json:"stock"`
	Rating    product.Rating `json:"rating"`
}

type Catalog interface {
	GetByID(id int) (product.Product, error)
}

type Service struct {
	repo    Repository
	catalog Catalog
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

func (s *Service) List(userID int) ([]Entry, error) {
	ids, err := s.repo.List(userID)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return s.hydrate(ids), nil
}

func (s *Service) Add(userID, productID int) ([]Entry, error) {
	if _, err := s.catalog.GetByID(productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, err
	}

	ids, err := s.repo.Add(userID, productID)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return s.hydrate(ids), nil
}

func (s *Service) Remove(userID, productID int) ([]Entry, error) {
	ids, err := s.repo.Remove(userID, productID)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return s.hydrate(ids), nil
}

// hydrate resolves ids against the catalog, skipping deleted products.
func (s *Service) hydrate(ids []int) []Entry {
	out := make([]Entry, 0, len(ids))
	for _, pid := range ids {
		p, err := s.catalog.GetByID(pid)
		if err != nil {
			continue
		}
		out = append(out, Entry{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.FirstImage(),
			Stock:     p.Stock,
			Rating:    p.Rating,
		})
	}
	return out
}

func (s *Service) mapErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, ErrAlreadyListed):
		return apperr.Conflict("product already in wishlist")
	case errors.Is(err, ErrNotListed):
		return apperr.NotFound("product not in wishlist")
	}
	return err
}
