package wishlist

import (
	"database/sql"

	"github.com/lib/pq"
)

// PostgresRepository keeps the wishlist as an integer array column on the
// users row.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(userID int) ([]int, error) {
	var ids pq.Int64Array
	err := r.db.QueryRow(`SELECT COALESCE(wishlist, '{}') FROM users WHERE user_id = $1`, userID).Scan(&ids)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toInts(ids), nil
}

func (r *PostgresRepository) Add(userID, productID int) ([]int, error) {
	current, err := r.List(userID)
	if err != nil {
		return nil, err
	}
	for _, pid := range current {
		if pid == productID {
			return nil, ErrAlreadyListed
		}
	}
	return r.save(userID, append(current, productID))
}

func (r *PostgresRepository) Remove(userID, productID int) ([]int, error) {
	current, err := r.List(userID)
	if err != nil {
		return nil, err
	}

	found := false
	next := make([]int, 0, len(current))
	for _, pid := range current {
		if pid == productID {
			found = true
			continue
		}
		next = append(next, pid)
	}
	if !found {
		return nil, ErrNotListed
	}
	return r.save(userID, next)
}

func (r *PostgresRepository) save(userID int, ids []int) ([]int, error) {
	arr := make(pq.Int64Array, len(ids))
	for i, pid := range ids {
		arr[i] = int64(pid)
	}

	var saved pq.Int64Array
	err := r.db.QueryRow(`UPDATE users SET wishlist = $1, updated_at = NOW() WHERE user_id = $2 RETURNING wishlist`,
		arr, userID).Scan(&saved)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toInts(saved), nil
}

func toInts(arr pq.Int64Array) []int {
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}
