package order

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func sampleOrder() Order {
	now := time.Now().UTC()
	ord := Order{
		UserID: 7,
		Items: []Item{
			{ProductID: 1, Name: "Lamp", Price: 100, Quantity: 2},
		},
		PaymentMethod: "razorpay",
		CreatedAt:     now,
	}
	ord.ComputePrices()
	ord.AppendStatus(StatusPending, "order placed", now)
	return ord
}

func TestPostgresCreate_DecrementsStockAndInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE product").
		WithArgs(2, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(11))
	mock.ExpectCommit()

	created, err := repo.Create(sampleOrder())
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}
	if created.ID != 11 {
		t.Fatalf("expected order id 11, got %d", created.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate_InsufficientStockRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	// conditional decrement touches no row: stock too low
	mock.ExpectExec("UPDATE product").
		WithArgs(2, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT stock FROM product").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(1))
	mock.ExpectRollback()

	if _, err := repo.Create(sampleOrder()); err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCancel_RestoresStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	ord := sampleOrder()
	ord.ID = 11
	ord.AppendStatus(StatusCancelled, "cancelled by customer", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET stock = stock \+`).
		WithArgs(2, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if _, err := repo.Cancel(ord); err != nil {
		t.Fatalf("expected cancel to succeed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCancel_LosingRaceRestoresNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	ord := sampleOrder()
	ord.ID = 11
	ord.AppendStatus(StatusCancelled, "cancelled by customer", time.Now().UTC())

	mock.ExpectBegin()
	// the status guard rejects the write: another cancel got there first
	mock.ExpectExec("UPDATE orders").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM orders").
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))
	mock.ExpectRollback()

	if _, err := repo.Cancel(ord); err != ErrNotCancellable {
		t.Fatalf("expected ErrNotCancellable, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
