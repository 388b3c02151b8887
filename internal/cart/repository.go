package cart

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("user not found")

// Repository stores the raw cart as a product-id to quantity map. Item
// hydration happens in the service, not here.
type Repository interface {
	GetCart(userID int) (map[int]int, error)
	SaveCart(userID int, items map[int]int) error
}

// InMemoryRepository backs tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	carts map[int]map[int]int
}

func NewInMemoryRepository(userIDs ...int) *InMemoryRepository {
	carts := make(map[int]map[int]int, len(userIDs))
	for _, id := range userIDs {
		carts[id] = make(map[int]int)
	}
	return &InMemoryRepository{carts: carts}
}

func (r *InMemoryRepository) GetCart(userID int) (map[int]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(map[int]int, len(stored))
	for pid, qty := range stored {
		out[pid] = qty
	}
	return out, nil
}

func (r *InMemoryRepository) SaveCart(userID int, items map[int]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[userID]; !ok {
		return ErrNotFound
	}
	stored := make(map[int]int, len(items))
	for pid, qty := range items {
		stored[pid] = qty
	}
	r.carts[userID] = stored
	return nil
}
