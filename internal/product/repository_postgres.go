package product

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	productColumns = `product_id, name, description, price, stock, category, images, rating_average, rating_count, reviews, created_at, updated_at`

	getProductByIDQuery = `SELECT ` + productColumns + ` FROM product WHERE product_id = $1`

	insertProductQuery = `
		INSERT INTO product (name, description, price, stock, category, images, rating_average, rating_count, reviews, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING product_id
	`

	updateProductQuery = `
		UPDATE product
		SET name = $1,
			description = $2,
			price = $3,
			stock = $4,
			category = $5,
			images = $6,
			rating_average = $7,
			rating_count = $8,
			reviews = $9,
			updated_at = $10
		WHERE product_id = $11
	`

	// touches only the review fields; stock and price stay whatever a
	// concurrent writer made them
	updateReviewsQuery = `
		UPDATE product
		SET reviews = $1,
			rating_average = $2,
			rating_count = $3,
			updated_at = $4
		WHERE product_id = $5
	`

	deleteProductQuery = `DELETE FROM product WHERE product_id = $1`

	listFeaturedQuery = `SELECT ` + productColumns + ` FROM product
		WHERE stock > 0 ORDER BY rating_average DESC, product_id LIMIT $1`

	// conditional decrement: zero rows affected means the stock check failed
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

func (r *PostgresRepository) List(filter ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM product`
	args := []any{}
	if filter.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY product_id`
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += ` LIMIT ` + strconv.Itoa(filter.PageSize) + ` OFFSET ` + strconv.Itoa((page-1)*filter.PageSize)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) ListFeatured(limit int) ([]Product, error) {
	rows, err := r.db.Query(listFeaturedQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(getProductByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Create(p Product) (Product, error) {
	imagesJSON, reviewsJSON, err := marshalDocFields(p)
	if err != nil {
		return Product{}, err
	}

	err = r.db.QueryRow(insertProductQuery,
		p.Name, p.Description, p.Price, p.Stock, p.Category,
		imagesJSON, p.Rating.Average, p.Rating.Count, reviewsJSON,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Update(id int, p Product) (Product, error) {
	imagesJSON, reviewsJSON, err := marshalDocFields(p)
	if err != nil {
		return Product{}, err
	}

	res, err := r.db.Exec(updateProductQuery,
		p.Name, p.Description, p.Price, p.Stock, p.Category,
		imagesJSON, p.Rating.Average, p.Rating.Count, reviewsJSON,
		p.UpdatedAt, id,
	)
	if err != nil {
		return Product{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Product{}, ErrNotFound
	}

	p.ID = id
	return p, nil
}

func (r *PostgresRepository) UpdateReviews(id int, reviews map[string]Review, rating Rating) (Product, error) {
	if reviews == nil {
		reviews = map[string]Review{}
	}
	reviewsJSON, err := json.Marshal(reviews)
	if err != nil {
		return Product{}, err
	}

	res, err := r.db.Exec(updateReviewsQuery,
		reviewsJSON, rating.Average, rating.Count, time.Now().UTC(), id,
	)
	if err != nil {
		return Product{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Product{}, ErrNotFound
	}
	return r.GetByID(id)
}

func (r *PostgresRepository) Delete(id int) error {
	res, err := r.db.Exec(deleteProductQuery, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DecrementStock(id, qty int) error {
	res, err := r.db.Exec(decrementStockQuery, qty, id, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// distinguish a missing product from a failed stock check
		var stock int
		if err := r.db.QueryRow(`SELECT stock FROM product WHERE product_id = $1`, id).Scan(&stock); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *PostgresRepository) RestoreStock(id, qty int) error {
	res, err := r.db.Exec(restoreStockQuery, qty, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p           Product
		imagesJSON  []byte
		reviewsJSON []byte
	)

	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category,
		&imagesJSON, &p.Rating.Average, &p.Rating.Count, &reviewsJSON,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Product{}, err
	}

	if len(imagesJSON) > 0 {
		json.Unmarshal(imagesJSON, &p.Images)
	}
	if len(reviewsJSON) > 0 {
		json.Unmarshal(reviewsJSON, &p.Reviews)
	}

	return p, nil
}

func marshalDocFields(p Product) ([]byte, []byte, error) {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, nil, err
	}

	reviews := p.Reviews
	if reviews == nil {
		reviews = map[string]Review{}
	}
	reviewsJSON, err := json.Marshal(reviews)
	if err != nil {
		return nil, nil, err
	}

	return imagesJSON, reviewsJSON, nil
}
