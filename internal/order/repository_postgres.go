package order

import (
	"database/sql"
	"encoding/json"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	orderColumns = `order_id, user_id, items, shipping_address, payment_method, notes,
		items_price, shipping_price, tax_price, total_price,
		status, status_history, tracking_number,
		payment, is_paid, paid_at, created_at, updated_at`

	getOrderByIDQuery = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	getOrderByGatewayIDQuery = `SELECT ` + orderColumns + ` FROM orders WHERE payment->>'gatewayOrderId' = $1`

	listOrdersByUserQuery = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listAllOrdersQuery = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	insertOrderQuery = `
		INSERT INTO orders (user_id, items, shipping_address, payment_method, notes,
			items_price, shipping_price, tax_price, total_price,
			status, status_history, tracking_number, payment, is_paid, paid_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING order_id
	`

	updateOrderQuery = `
		UPDATE orders
		SET status = $1,
			status_history = $2,
			tracking_number = $3,
			payment = $4,
			is_paid = $5,
			paid_at = $6,
			updated_at = $7
		WHERE order_id = $8
	`

	// conditional on the stored status so racing cancels cannot both
	// succeed; zero rows affected means the order was not cancellable
	cancelOrderQuery = `
		UPDATE orders
		SET status = $1,
			status_history = $2,
			tracking_number = $3,
			payment = $4,
			is_paid = $5,
			paid_at = $6,
			updated_at = $7
		WHERE order_id = $8 AND status IN ('pending', 'confirmed')
	`

	// conditional decrement, same contract as the product repository:
	// zero rows affected means the stock check failed
	decrementStockQuery = `
		UPDATE product
		SET stock = stock - $1, updated_at = $3
		WHERE product_id = $2 AND stock >= $1
	`

	restoreStockQuery = `
		UPDATE product
		SET stock = stock + $1, updated_at = $3
		WHERE product_id = $2
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create runs the stock decrements and the order insert in one
// transaction, so a failed item leaves nothing behind.
func (r *PostgresRepository) Create(ord Order) (Order, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, it := range ord.Items {
		res, err := tx.Exec(decrementStockQuery, it.Quantity, it.ProductID, now)
		if err != nil {
			return Order{}, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Order{}, err
		}
		if n == 0 {
			var stock int
			err := tx.QueryRow(`SELECT stock FROM product WHERE product_id = $1`, it.ProductID).Scan(&stock)
			if err == sql.ErrNoRows {
				return Order{}, ErrProductNotFound
			}
			if err != nil {
				return Order{}, err
			}
			return Order{}, ErrInsufficientStock
		}
	}

	doc, err := marshalOrderDocs(ord)
	if err != nil {
		return Order{}, err
	}

	err = tx.QueryRow(insertOrderQuery,
		ord.UserID, doc.items, doc.shipping, ord.PaymentMethod, ord.Notes,
		ord.ItemsPrice, ord.ShippingPrice, ord.TaxPrice, ord.TotalPrice,
		ord.Status, doc.history, ord.TrackingNumber, doc.payment,
		ord.IsPaid, nullTime(ord.PaidAt), ord.CreatedAt, ord.UpdatedAt,
	).Scan(&ord.ID)
	if err != nil {
		return Order{}, err
	}

	if err := tx.Commit(); err != nil {
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) GetByID(id int) (Order, error) {
	ord, err := scanOrder(r.db.QueryRow(getOrderByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) GetByGatewayOrderID(gatewayOrderID string) (Order, error) {
	ord, err := scanOrder(r.db.QueryRow(getOrderByGatewayIDQuery, gatewayOrderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) ListByUser(userID int) ([]Order, error) {
	return r.list(listOrdersByUserQuery, userID)
}

func (r *PostgresRepository) ListAll() ([]Order, error) {
	return r.list(listAllOrdersQuery)
}

func (r *PostgresRepository) list(query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ord)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Update(ord Order) (Order, error) {
	doc, err := marshalOrderDocs(ord)
	if err != nil {
		return Order{}, err
	}

	res, err := r.db.Exec(updateOrderQuery,
		ord.Status, doc.history, ord.TrackingNumber, doc.payment,
		ord.IsPaid, nullTime(ord.PaidAt), ord.UpdatedAt, ord.ID,
	)
	if err != nil {
		return Order{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Order{}, ErrNotFound
	}
	return ord, nil
}

// Cancel updates the order and restores stock in one transaction. The
// update itself guards on the stored status, so a cancel racing another
// cancel (or a status advance) affects zero rows and restores nothing.
func (r *PostgresRepository) Cancel(ord Order) (Order, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback()

	doc, err := marshalOrderDocs(ord)
	if err != nil {
		return Order{}, err
	}

	res, err := tx.Exec(cancelOrderQuery,
		ord.Status, doc.history, ord.TrackingNumber, doc.payment,
		ord.IsPaid, nullTime(ord.PaidAt), ord.UpdatedAt, ord.ID,
	)
	if err != nil {
		return Order{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// distinguish a missing order from one that lost the race
		var status string
		if err := tx.QueryRow(`SELECT status FROM orders WHERE order_id = $1`, ord.ID).Scan(&status); err != nil {
			if err == sql.ErrNoRows {
				return Order{}, ErrNotFound
			}
			return Order{}, err
		}
		return Order{}, ErrNotCancellable
	}

	now := time.Now().UTC()
	for _, it := range ord.Items {
		if _, err := tx.Exec(restoreStockQuery, it.Quantity, it.ProductID, now); err != nil {
			return Order{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Order{}, err
	}
	return ord, nil
}

type orderDocs struct {
	items    []byte
	shipping []byte
	history  []byte
	payment  []byte
}

func marshalOrderDocs(ord Order) (orderDocs, error) {
	items := ord.Items
	if items == nil {
		items = []Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return orderDocs{}, err
	}

	shippingJSON, err := json.Marshal(ord.Shipping)
	if err != nil {
		return orderDocs{}, err
	}

	history := ord.History
	if history == nil {
		history = []StatusEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return orderDocs{}, err
	}

	paymentJSON, err := json.Marshal(ord.Payment)
	if err != nil {
		return orderDocs{}, err
	}

	return orderDocs{items: itemsJSON, shipping: shippingJSON, history: historyJSON, payment: paymentJSON}, nil
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		ord                                           Order
		itemsJSON, shippingJSON, historyJSON, payJSON []byte
		paidAt                                        sql.NullTime
	)

	err := row.Scan(
		&ord.ID, &ord.UserID, &itemsJSON, &shippingJSON, &ord.PaymentMethod, &ord.Notes,
		&ord.ItemsPrice, &ord.ShippingPrice, &ord.TaxPrice, &ord.TotalPrice,
		&ord.Status, &historyJSON, &ord.TrackingNumber,
		&payJSON, &ord.IsPaid, &paidAt, &ord.CreatedAt, &ord.UpdatedAt,
	)
	if err != nil {
		return Order{}, err
	}

	json.Unmarshal(itemsJSON, &ord.Items)
	json.Unmarshal(shippingJSON, &ord.Shipping)
	json.Unmarshal(historyJSON, &ord.History)
	json.Unmarshal(payJSON, &ord.Payment)
	if paidAt.Valid {
		t := paidAt.Time
		ord.PaidAt = &t
	}

	return ord, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
