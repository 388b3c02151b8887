package order

import (
	"errors"
	"sync"

	"github.com/Arafat-alim/shoporbit-backend/internal/product"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrProductNotFound   = errors.New("ordered product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
)

type Repository interface {
	// Create persists the order and decrements stock for every line item
	// as one atomic unit: either all of it happens or none of it does.
	Create(ord Order) (Order, error)
	GetByID(id int) (Order, error)
	GetByGatewayOrderID(gatewayOrderID string) (Order, error)
	ListByUser(userID int) ([]Order, error)
	ListAll() ([]Order, error)
	Update(ord Order) (Order, error)
	// Cancel persists the cancelled order and restores stock for every
	// line item, atomically. The write is conditional on the STORED
	// status still being cancellable, so two racing cancels cannot both
	// restore stock; the loser gets ErrNotCancellable.
	Cancel(ord Order) (Order, error)
}

// InMemoryRepository backs tests. Stock lives in the injected product
// repository; Create compensates already-applied decrements when a later
// item fails, so the whole operation behaves atomically.
type InMemoryRepository struct {
	mu       sync.RWMutex
	orders   map[int]Order
	nextID   int
	products product.Repository
}

func NewInMemoryRepository(products product.Repository) *InMemoryRepository {
	return &InMemoryRepository{
		orders:   make(map[int]Order),
		nextID:   1,
		products: products,
	}
}

func (r *InMemoryRepository) Create(ord Order) (Order, error) {
	applied := make([]Item, 0, len(ord.Items))
	for _, it := range ord.Items {
		if err := r.products.DecrementStock(it.ProductID, it.Quantity); err != nil {
			// roll back the decrements already applied
			for _, done := range applied {
				r.products.RestoreStock(done.ProductID, done.Quantity)
			}
			switch err {
			case product.ErrNotFound:
				return Order{}, ErrProductNotFound
			case product.ErrInsufficientStock:
				return Order{}, ErrInsufficientStock
			default:
				return Order{}, err
			}
		}
		applied = append(applied, it)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ord.ID == 0 {
		ord.ID = r.nextID
		r.nextID++
	}
	r.orders[ord.ID] = ord
	return ord, nil
}

func (r *InMemoryRepository) GetByID(id int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ord, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return ord, nil
}

func (r *InMemoryRepository) GetByGatewayOrderID(gatewayOrderID string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ord := range r.orders {
		if ord.Payment.GatewayOrderID == gatewayOrderID {
			return ord, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) ListByUser(userID int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, 0)
	for _, ord := range r.orders {
		if ord.UserID == userID {
			out = append(out, ord)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) ListAll() ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Order, 0, len(r.orders))
	for _, ord := range r.orders {
		out = append(out, ord)
	}
	return out, nil
}

func (r *InMemoryRepository) Update(ord Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[ord.ID]; !ok {
		return Order{}, ErrNotFound
	}
	r.orders[ord.ID] = ord
	return ord, nil
}

func (r *InMemoryRepository) Cancel(ord Order) (Order, error) {
	r.mu.Lock()
	stored, ok := r.orders[ord.ID]
	if !ok {
		r.mu.Unlock()
		return Order{}, ErrNotFound
	}
	// re-check against the stored status, not the caller's snapshot; a
	// cancel that already won the race must not restore stock twice
	if !stored.Status.Cancellable() {
		r.mu.Unlock()
		return Order{}, ErrNotCancellable
	}
	r.orders[ord.ID] = ord
	r.mu.Unlock()

	for _, it := range ord.Items {
		r.products.RestoreStock(it.ProductID, it.Quantity)
	}
	return ord, nil
}
