package banner

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = errors.New("banner not found")

type Repository interface {
	List(limit int) ([]Banner, error)
	Create(b Banner) (Banner, error)
	Delete(id int) error
}

// InMemoryRepository backs tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	banners map[int]Banner
	nextID  int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{banners: make(map[int]Banner), nextID: 1}
}

func (r *InMemoryRepository) List(limit int) ([]Banner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Banner, 0, len(r.banners))
	for _, b := range r.banners {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position > out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) Create(b Banner) (Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b.ID = r.nextID
	r.nextID++
	b.CreatedAt = time.Now()
	r.banners[b.ID] = b
	return b, nil
}

func (r *InMemoryRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.banners[id]; !ok {
		return ErrNotFound
	}
	delete(r.banners, id)
	return nil
}
