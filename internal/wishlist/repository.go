package wishlist

import (
	"errors"
	"sync"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyListed = errors.New("product already in wishlist")
	ErrNotListed     = errors.New("product not in wishlist")
)

// Repository stores the wishlist as an ordered set of product ids.
type Repository interface {
	Add(userID, productID int) ([]int, error)
	Remove(userID, productID int) ([]int, error)
	List(userID int) ([]int, error)
}

// InMemoryRepository backs tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	lists map[int][]int
}

func NewInMemoryRepository(userIDs ...int) *InMemoryRepository {
	lists := make(map[int][]int, len(userIDs))
	for _, id := range userIDs {
		lists[id] = []int{}
	}
	return &InMemoryRepository{lists: lists}
}

func (r *InMemoryRepository) Add(userID, productID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.lists[userID]
	if !ok {
		return nil, ErrNotFound
	}
	for _, pid := range list {
		if pid == productID {
			return nil, ErrAlreadyListed
		}
	}
	list = append(list, productID)
	r.lists[userID] = list

	out := make([]int, len(list))
	copy(out, list)
	return out, nil
}

func (r *InMemoryRepository) Remove(userID, productID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.lists[userID]
	if !ok {
		return nil, ErrNotFound
	}

	found := false
	next := make([]int, 0, len(list))
	for _, pid := range list {
		if pid == productID {
			found = true
			continue
		}
		next = append(next, pid)
	}
	if !found {
		return nil, ErrNotListed
	}
	r.lists[userID] = next

	out := make([]int, len(next))
	copy(out, next)
	return out, nil
}

func (r *InMemoryRepository) List(userID int) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list, ok := r.lists[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]int, len(list))
	copy(out, list)
	return out, nil
}
