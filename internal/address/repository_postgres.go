package address

import (
	"database/sql"
)

const addressColumns = `address_id, user_id, label, full_name, line1, line2, city, state, postal_code, country, phone, is_default, created_at, updated_at`

const (
	listAddressesQuery = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY address_id`
	getAddressQuery    = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND address_id = $2`

	insertAddressQuery = `
		INSERT INTO addresses (user_id, label, full_name, line1, line2, city, state, postal_code, country, phone, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + addressColumns

	updateAddressQuery = `
		UPDATE addresses
		SET label = $3, full_name = $4, line1 = $5, line2 = $6, city = $7, state = $8,
		    postal_code = $9, country = $10, phone = $11, is_default = $12, updated_at = NOW()
		WHERE user_id = $1 AND address_id = $2
		RETURNING ` + addressColumns

	deleteAddressQuery = `DELETE FROM addresses WHERE user_id = $1 AND address_id = $2`
	clearDefaultQuery  = `UPDATE addresses SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default`
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAddress(row rowScanner) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.FullName, &a.Line1, &a.Line2,
		&a.City, &a.State, &a.PostalCode, &a.Country, &a.Phone, &a.IsDefault,
		&a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *PostgresRepository) ListByUser(userID int) ([]Address, error) {
	rows, err := r.db.Query(listAddressesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(userID, addressID int) (Address, error) {
	a, err := scanAddress(r.db.QueryRow(getAddressQuery, userID, addressID))
	if err == sql.ErrNoRows {
		return Address{}, ErrNotFound
	}
	return a, err
}

func (r *PostgresRepository) Create(addr Address) (Address, error) {
	return scanAddress(r.db.QueryRow(insertAddressQuery,
		addr.UserID, addr.Label, addr.FullName, addr.Line1, addr.Line2,
		addr.City, addr.State, addr.PostalCode, addr.Country, addr.Phone, addr.IsDefault))
}

func (r *PostgresRepository) Update(addr Address) (Address, error) {
	a, err := scanAddress(r.db.QueryRow(updateAddressQuery,
		addr.UserID, addr.ID, addr.Label, addr.FullName, addr.Line1, addr.Line2,
		addr.City, addr.State, addr.PostalCode, addr.Country, addr.Phone, addr.IsDefault))
	if err == sql.ErrNoRows {
		return Address{}, ErrNotFound
	}
	return a, err
}

func (r *PostgresRepository) Delete(userID, addressID int) error {
	res, err := r.db.Exec(deleteAddressQuery, userID, addressID)
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

func (r *PostgresRepository) ClearDefault(userID int) error {
	_, err := r.db.Exec(clearDefaultQuery, userID)
	return err
}
