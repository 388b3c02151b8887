package category

import (
	"sort"
	"sync"
)

type Repository interface {
	List() ([]Category, error)
}

// InMemoryRepository backs tests; it counts categories over a seeded
// category list the way the SQL aggregate does over the product table.
type InMemoryRepository struct {
	mu         sync.RWMutex
	categories []string
}

func NewInMemoryRepository(categories ...string) *InMemoryRepository {
	return &InMemoryRepository{categories: categories}
}

func (r *InMemoryRepository) List() ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range r.categories {
		if c != "" {
			counts[c]++
		}
	}

	out := make([]Category, 0, len(counts))
	for name, count := range counts {
		out = append(out, Category{Name: name, ProductCount: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
