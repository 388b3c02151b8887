package cart

import (
	"errors"
	"math"
	"sort"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
	"github.com/Arafat-alim/shoporbit-backend/internal/product"
)

// Catalog is the product lookup the cart needs for hydration.
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

// Get returns the hydrated cart. Lines whose product has since been
// deleted are silently pruned.
func (s *Service) Get(userID int) (Cart, error) {
	items, err := s.repo.GetCart(userID)
	if err != nil {
		return Cart{}, s.mapErr(err)
	}
	return s.hydrate(userID, items, false)
}

// Add increments the quantity of a product in the cart. A non-positive
// resulting quantity removes the line.
func (s *Service) Add(userID, productID, qty int) (Cart, error) {
	if qty == 0 {
		return s.Get(userID)
	}

	if qty > 0 {
		if _, err := s.catalog.GetByID(productID); err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return Cart{}, apperr.NotFound("product not found")
			}
			return Cart{}, err
		}
	}

	items, err := s.repo.GetCart(userID)
	if err != nil {
		return Cart{}, s.mapErr(err)
	}

	items[productID] += qty
	if items[productID] <= 0 {
		delete(items, productID)
	}
	return s.hydrate(userID, items, true)
}

// SetQuantity replaces the quantity of a line. Zero removes it.
func (s *Service) SetQuantity(userID, productID, qty int) (Cart, error) {
	if qty < 0 {
		return Cart{}, apperr.BadRequest("quantity must not be negative")
	}

	items, err := s.repo.GetCart(userID)
	if err != nil {
		return Cart{}, s.mapErr(err)
	}

	if qty == 0 {
		delete(items, productID)
	} else {
		if _, err := s.catalog.GetByID(productID); err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return Cart{}, apperr.NotFound("product not found")
			}
			return Cart{}, err
		}
		items[productID] = qty
	}
	return s.hydrate(userID, items, true)
}

func (s *Service) Remove(userID, productID int) (Cart, error) {
	return s.SetQuantity(userID, productID, 0)
}

// Clear empties the cart, typically after a successful order.
func (s *Service) Clear(userID int) error {
	if err := s.repo.SaveCart(userID, map[int]int{}); err != nil {
		return s.mapErr(err)
	}
	return nil
}

// hydrate resolves each line against the catalog and computes the items
// subtotal. When save is true, or pruning dropped a dead line, the map is
// written back.
func (s *Service) hydrate(userID int, items map[int]int, save bool) (Cart, error) {
	ids := make([]int, 0, len(items))
	for pid := range items {
		ids = append(ids, pid)
	}
	sort.Ints(ids)

	out := Cart{Items: make([]Item, 0, len(ids))}
	pruned := false
	for _, pid := range ids {
		p, err := s.catalog.GetByID(pid)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				delete(items, pid)
				pruned = true
				continue
			}
			return Cart{}, err
		}
		out.Items = append(out.Items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.FirstImage(),
			Stock:     p.Stock,
			Quantity:  items[pid],
		})
		out.ItemsPrice += p.Price * float64(items[pid])
	}
	out.ItemsPrice = math.Round(out.ItemsPrice*100) / 100

	if save || pruned {
		if err := s.repo.SaveCart(userID, items); err != nil {
			return Cart{}, s.mapErr(err)
		}
	}
	return out, nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	return err
}
