package address

import (
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("address not found")

type Repository interface {
	ListByUser(userID int) ([]Address, error)
	GetByID(userID, addressID int) (Address, error)
	Create(addr Address) (Address, error)
	Update(addr Address) (Address, error)
	Delete(userID, addressID int) error
	// ClearDefault unsets the default flag on all of a user's addresses.
	ClearDefault(userID int) error
}

// InMemoryRepository backs tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byID   map[int]Address
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[int]Address), nextID: 1}
}

func (r *InMemoryRepository) ListByUser(userID int) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Address, 0)
	for _, a := range r.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(userID, addressID int) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[addressID]
	if !ok || a.UserID != userID {
		return Address{}, ErrNotFound
	}
	return a, nil
}

func (r *InMemoryRepository) Create(addr Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	addr.ID = r.nextID
	r.nextID++
	now := time.Now()
	addr.CreatedAt = now
	addr.UpdatedAt = now
	r.byID[addr.ID] = addr
	return addr, nil
}

func (r *InMemoryRepository) Update(addr Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[addr.ID]
	if !ok || existing.UserID != addr.UserID {
		return Address{}, ErrNotFound
	}
	addr.CreatedAt = existing.CreatedAt
	addr.UpdatedAt = time.Now()
	r.byID[addr.ID] = addr
	return addr, nil
}

func (r *InMemoryRepository) Delete(userID, addressID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[addressID]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(r.byID, addressID)
	return nil
}

func (r *InMemoryRepository) ClearDefault(userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.byID {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			r.byID[id] = a
		}
	}
	return nil
}
