package cart

import (
	"database/sql"
	"encoding/json"
	"strconv"
)

// PostgresRepository keeps the cart as a jsonb map on the users row, keyed
// by product id.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetCart(userID int) (map[int]int, error) {
	var raw sql.NullString
	if err := r.db.QueryRow(`SELECT cart FROM users WHERE user_id = $1`, userID).Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items := make(map[int]int)
	if !raw.Valid || raw.String == "" {
		return items, nil
	}

	// jsonb object keys are strings; convert back to product ids
	var m map[string]int
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil, err
	}
	for key, qty := range m {
		pid, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		items[pid] = qty
	}
	return items, nil
}

func (r *PostgresRepository) SaveCart(userID int, items map[int]int) error {
	m := make(map[string]int, len(items))
	for pid, qty := range items {
		m[strconv.Itoa(pid)] = qty
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}

	res, err := r.db.Exec(`UPDATE users SET cart = $1, updated_at = NOW() WHERE user_id = $2`, string(raw), userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
