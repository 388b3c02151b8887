package order

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
	"github.com/Arafat-alim/shoporbit-backend/internal/product"
)

// Catalog is the slice of the product service the order workflow needs.
type Catalog interface {
	GetByID(id int) (product.Product, error)
}

// Notifier is told about orders worth emailing the customer about.
// Implementations must be safe to call from request goroutines.
type Notifier interface {
	OrderCreated(ord Order)
}

type nopNotifier struct{}

func (nopNotifier) OrderCreated(Order) {}

type Service struct {
	repo     Repository
	catalog  Catalog
	notifier Notifier
	logger   *zap.Logger
}

func NewService(repo Repository, catalog Catalog, notifier Notifier, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, catalog: catalog, notifier: notifier, logger: logger}
}

// ItemInput is one (product, quantity) pair of a checkout request.
type ItemInput struct {
	ProductID int
	Quantity  int
}

type CreateInput struct {
	Items         []ItemInput
	Shipping      ShippingAddress
	PaymentMethod string
	Notes         string
}

// Create turns a list of product references into a priced order. Product
// name, price and image are snapshotted at this instant; the stock
// decrement and the order insert happen atomically in the repository.
func (s *Service) Create(userID int, in CreateInput) (Order, error) {
	if len(in.Items) == 0 {
		return Order{}, apperr.BadRequest("order must contain at least one item")
	}

	items := make([]Item, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return Order{}, apperr.BadRequest(fmt.Sprintf("invalid quantity for product %d", it.ProductID))
		}

		p, err := s.catalog.GetByID(it.ProductID)
		if err != nil {
			if err == product.ErrNotFound {
				return Order{}, apperr.NotFound(fmt.Sprintf("product %d not found", it.ProductID))
			}
			return Order{}, err
		}
		if p.Stock < it.Quantity {
			return Order{}, apperr.InsufficientStock(fmt.Sprintf("insufficient stock for product %d", it.ProductID))
		}

		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.FirstImage(),
			Quantity:  it.Quantity,
		})
	}

	now := time.Now().UTC()
	ord := Order{
		UserID:        userID,
		Items:         items,
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		CreatedAt:     now,
	}
	ord.ComputePrices()
	ord.AppendStatus(StatusPending, "order placed", now)

	created, err := s.repo.Create(ord)
	if err != nil {
		switch err {
		case ErrProductNotFound:
			return Order{}, apperr.NotFound("ordered product not found")
		case ErrInsufficientStock:
			return Order{}, apperr.InsufficientStock("insufficient stock")
		default:
			return Order{}, err
		}
	}

	s.notifier.OrderCreated(created)
	s.logger.Info("order created",
		zap.Int("order_id", created.ID),
		zap.Int("user_id", userID),
		zap.Float64("total", created.TotalPrice),
	)
	return created, nil
}

// Get returns the order if the caller owns it or is an admin.
func (s *Service) Get(callerID int, isAdmin bool, orderID int) (Order, error) {
	ord, err := s.repo.GetByID(orderID)
	if err != nil {
		if err == ErrNotFound {
			return Order{}, apperr.NotFound("order not found")
		}
		return Order{}, err
	}
	if ord.UserID != callerID && !isAdmin {
		return Order{}, apperr.Forbidden("not your order")
	}
	return ord, nil
}

func (s *Service) ListMine(userID int) ([]Order, error) {
	return s.repo.ListByUser(userID)
}

func (s *Service) ListAll() ([]Order, error) {
	return s.repo.ListAll()
}

// Cancel is permitted only while the order is pending or confirmed. It
// appends a cancelled history entry and restores stock for every item.
func (s *Service) Cancel(callerID int, isAdmin bool, orderID int, note string) (Order, error) {
	ord, err := s.Get(callerID, isAdmin, orderID)
	if err != nil {
		return Order{}, err
	}

	if !ord.Status.Cancellable() {
		return Order{}, apperr.Conflict(fmt.Sprintf("cannot cancel an order in status %q", ord.Status))
	}

	if note == "" {
		note = "cancelled by customer"
	}
	ord.AppendStatus(StatusCancelled, note, time.Now().UTC())

	cancelled, err := s.repo.Cancel(ord)
	if err != nil {
		if err == ErrNotCancellable {
			return Order{}, apperr.Conflict("order status changed, cancellation no longer allowed")
		}
		return Order{}, err
	}

	s.logger.Info("order cancelled", zap.Int("order_id", orderID))
	return cancelled, nil
}

// UpdateStatus is the privileged transition path. It only accepts edges
// of the legal status graph.
func (s *Service) UpdateStatus(orderID int, next Status, note, trackingNumber string) (Order, error) {
	ord, err := s.repo.GetByID(orderID)
	if err != nil {
		if err == ErrNotFound {
			return Order{}, apperr.NotFound("order not found")
		}
		return Order{}, err
	}

	if !CanTransition(ord.Status, next) {
		return Order{}, apperr.Conflict(fmt.Sprintf("illegal transition %q -> %q", ord.Status, next))
	}
	if next == StatusShipped && trackingNumber == "" && ord.TrackingNumber == "" {
		return Order{}, apperr.BadRequest("tracking number required to mark an order shipped")
	}

	if next == StatusCancelled {
		// the admin path still restores stock on cancellation
		return s.Cancel(ord.UserID, true, orderID, note)
	}

	if trackingNumber != "" {
		ord.TrackingNumber = trackingNumber
	}
	ord.AppendStatus(next, note, time.Now().UTC())

	return s.repo.Update(ord)
}
