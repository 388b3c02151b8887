package order

import (
	"sync"
	"testing"
	"time"

	"github.com/Arafat-alim/shoporbit-backend/internal/apperr"
	"github.com/Arafat-alim/shoporbit-backend/internal/product"
)

func newTestService(products []product.Product) (*Service, *product.InMemoryRepository) {
	productRepo := product.NewInMemoryRepository(products)
	repo := NewInMemoryRepository(productRepo)
	return NewService(repo, productRepo, nil, nil), productRepo
}

func TestCreate_SnapshotsAndPrices(t *testing.T) {
	svc, _ := newTestService([]product.Product{
		{ID: 1, Name: "Desk Lamp", Price: 100.50, Stock: 5, Images: []string{"/img/lamp.jpg"}},
	})

	ord, err := svc.Create(7, CreateInput{
		Items:         []ItemInput{{ProductID: 1, Quantity: 2}},
		PaymentMethod: "razorpay",
	})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	if len(ord.Items) != 1 || ord.Items[0].Name != "Desk Lamp" || ord.Items[0].Price != 100.50 {
		t.Fatalf("expected snapshotted line item, got %+v", ord.Items)
	}
	if ord.ItemsPrice != 201.00 {
		t.Fatalf("expected items price 201.00, got %v", ord.ItemsPrice)
	}
	// below the free shipping threshold
	if ord.ShippingPrice != 50.00 {
		t.Fatalf("expected shipping 50.00, got %v", ord.ShippingPrice)
	}
	if ord.TaxPrice != 36.18 {
		t.Fatalf("expected tax 36.18, got %v", ord.TaxPrice)
	}
	if ord.TotalPrice != 287.18 {
		t.Fatalf("expected total 287.18, got %v", ord.TotalPrice)
	}
	if ord.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", ord.Status)
	}
	if len(ord.History) != 1 || ord.History[0].Status != StatusPending {
		t.Fatalf("expected one pending history entry, got %+v", ord.History)
	}
}

func TestCreate_FreeShippingOverThreshold(t *testing.T) {
	svc, _ := newTestService([]product.Product{
		{ID: 1, Name: "Monitor", Price: 1200.00, Stock: 3},
	})

	ord, err := svc.Create(1, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 1}}})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if ord.ShippingPrice != 0 {
		t.Fatalf("expected free shipping, got %v", ord.ShippingPrice)
	}
}

func TestCreate_SnapshotSurvivesProductEdit(t *testing.T) {
	svc, productRepo := newTestService([]product.Product{
		{ID: 1, Name: "Mug", Price: 10.00, Stock: 10},
	})

	ord, err := svc.Create(1, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 1}}})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	// raise the price afterwards; the order must not change
	p, _ := productRepo.GetByID(1)
	p.Price = 99.00
	productRepo.Update(1, p)

	got, err := svc.Get(1, false, ord.ID)
	if err != nil {
		t.Fatalf("expected get to succeed, got %v", err)
	}
	if got.Items[0].Price != 10.00 {
		t.Fatalf("expected snapshot price 10.00, got %v", got.Items[0].Price)
	}
}

func TestCreate_InsufficientStockLeavesStockAlone(t *testing.T) {
	svc, productRepo := newTestService([]product.Product{
		{ID: 1, Name: "Chair", Price: 80.00, Stock: 2},
	})

	_, err := svc.Create(1, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 3}}})
	e, ok := apperr.As(err)
	if !ok || e.Code != "INSUFFICIENT_STOCK" {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	p, _ := productRepo.GetByID(1)
	if p.Stock != 2 {
		t.Fatalf("expected stock unchanged at 2, got %d", p.Stock)
	}
}

func TestCreate_UnknownProduct(t *testing.T) {
	svc, _ := newTestService(nil)

	_, err := svc.Create(1, CreateInput{Items: []ItemInput{{ProductID: 42, Quantity: 1}}})
	e, ok := apperr.As(err)
	if !ok || e.Code != "NOT_FOUND" {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCancel_RestoresStockAndAppendsHistory(t *testing.T) {
	svc, productRepo := newTestService([]product.Product{
		{ID: 1, Name: "Shoes", Price: 60.00, Stock: 5},
	})

	ord, err := svc.Create(9, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 2}}})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	p, _ := productRepo.GetByID(1)
	if p.Stock != 3 {
		t.Fatalf("expected stock 3 after order, got %d", p.Stock)
	}

	cancelled, err := svc.Cancel(9, false, ord.ID, "changed my mind")
	if err != nil {
		t.Fatalf("expected cancel to succeed, got %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if len(cancelled.History) != 2 {
		t.Fatalf("expected history of 2 entries, got %d", len(cancelled.History))
	}
	if cancelled.History[0].Status != StatusPending {
		t.Fatalf("expected first history entry to stay pending, got %s", cancelled.History[0].Status)
	}

	p, _ = productRepo.GetByID(1)
	if p.Stock != 5 {
		t.Fatalf("expected stock restored to 5, got %d", p.Stock)
	}
}

func TestCancel_RejectedOnceProcessing(t *testing.T) {
	svc, _ := newTestService([]product.Product{
		{ID: 1, Name: "Kettle", Price: 30.00, Stock: 5},
	})

	ord, _ := svc.Create(1, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 1}}})
	if _, err := svc.UpdateStatus(ord.ID, StatusConfirmed, "", ""); err != nil {
		t.Fatalf("expected confirm to succeed, got %v", err)
	}
	if _, err := svc.UpdateStatus(ord.ID, StatusProcessing, "", ""); err != nil {
		t.Fatalf("expected processing to succeed, got %v", err)
	}

	_, err := svc.Cancel(1, false, ord.ID, "")
	e, ok := apperr.As(err)
	if !ok || e.Code != "CONFLICT" {
		t.Fatalf("expected conflict cancelling a processing order, got %v", err)
	}
}

func TestCancel_RacingCancelsRestoreStockOnce(t *testing.T) {
	productRepo := product.NewInMemoryRepository([]product.Product{
		{ID: 1, Name: "Shoes", Price: 60.00, Stock: 5},
	})
	repo := NewInMemoryRepository(productRepo)
	svc := NewService(repo, productRepo, nil, nil)

	ord, err := svc.Create(9, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 2}}})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	// both callers read the order while it was still pending
	stale, _ := repo.GetByID(ord.ID)
	stale.AppendStatus(StatusCancelled, "cancelled by customer", time.Now().UTC())

	if _, err := repo.Cancel(stale); err != nil {
		t.Fatalf("expected first cancel to succeed, got %v", err)
	}
	if _, err := repo.Cancel(stale); err != ErrNotCancellable {
		t.Fatalf("expected ErrNotCancellable for the losing cancel, got %v", err)
	}

	p, _ := productRepo.GetByID(1)
	if p.Stock != 5 {
		t.Fatalf("expected stock restored exactly once to 5, got %d", p.Stock)
	}
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	svc, _ := newTestService([]product.Product{
		{ID: 1, Name: "Plant", Price: 15.00, Stock: 5},
	})

	ord, _ := svc.Create(1, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 1}}})

	// pending cannot jump straight to shipped
	_, err := svc.UpdateStatus(ord.ID, StatusShipped, "", "TRK1")
	e, ok := apperr.As(err)
	if !ok || e.Code != "CONFLICT" {
		t.Fatalf("expected conflict for pending->shipped, got %v", err)
	}
}

func TestUpdateStatus_ShippedRequiresTracking(t *testing.T) {
	svc, _ := newTestService([]product.Product{
		{ID: 1, Name: "Book", Price: 20.00, Stock: 5},
	})

	ord, _ := svc.Create(1, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 1}}})
	svc.UpdateStatus(ord.ID, StatusConfirmed, "", "")
	svc.UpdateStatus(ord.ID, StatusProcessing, "", "")

	_, err := svc.UpdateStatus(ord.ID, StatusShipped, "", "")
	e, ok := apperr.As(err)
	if !ok || e.Code != "BAD_REQUEST" {
		t.Fatalf("expected bad request without tracking number, got %v", err)
	}

	shipped, err := svc.UpdateStatus(ord.ID, StatusShipped, "", "TRK123")
	if err != nil {
		t.Fatalf("expected shipped with tracking to succeed, got %v", err)
	}
	if shipped.TrackingNumber != "TRK123" {
		t.Fatalf("expected tracking number to be stored, got %q", shipped.TrackingNumber)
	}
}

func TestGet_OwnershipEnforced(t *testing.T) {
	svc, _ := newTestService([]product.Product{
		{ID: 1, Name: "Bag", Price: 40.00, Stock: 5},
	})

	ord, _ := svc.Create(3, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 1}}})

	if _, err := svc.Get(4, false, ord.ID); err == nil {
		t.Fatalf("expected forbidden for another customer")
	}
	if _, err := svc.Get(4, true, ord.ID); err != nil {
		t.Fatalf("expected admin read to succeed, got %v", err)
	}
}

func TestLifecycle_StockRoundTrip(t *testing.T) {
	svc, productRepo := newTestService([]product.Product{
		{ID: 1, Name: "Lamp", Price: 25.00, Stock: 5},
	})

	ord, err := svc.Create(2, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 2}}})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	p, _ := productRepo.GetByID(1)
	if p.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", p.Stock)
	}

	cancelled, err := svc.Cancel(2, false, ord.ID, "")
	if err != nil {
		t.Fatalf("expected cancel to succeed, got %v", err)
	}
	p, _ = productRepo.GetByID(1)
	if p.Stock != 5 {
		t.Fatalf("expected stock back at 5, got %d", p.Stock)
	}
	for i, st := range []Status{StatusPending, StatusCancelled} {
		if cancelled.History[i].Status != st {
			t.Fatalf("expected history[%d]=%s, got %s", i, st, cancelled.History[i].Status)
		}
	}
}

func TestCreate_ConcurrentOrdersNeverOversell(t *testing.T) {
	svc, productRepo := newTestService([]product.Product{
		{ID: 1, Name: "Console", Price: 500.00, Stock: 1},
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(i+1, CreateInput{Items: []ItemInput{{ProductID: 1, Quantity: 1}}})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one order to win the last unit, got %d", succeeded)
	}

	p, _ := productRepo.GetByID(1)
	if p.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", p.Stock)
	}
}
