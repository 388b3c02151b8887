package user

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
	userColumns = `user_id, email, password, name, phone, role,
		refresh_tokens, totp_secret, totp_enabled, backup_codes,
		failed_logins, locked_until, created_at, updated_at`

	listUsersQuery = `SELECT ` + userColumns + ` FROM users ORDER BY user_id`

	getUserByIDQuery = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	// jsonb containment: matches any element of the set carrying this token
	getUserByRefreshTokenQuery = `SELECT ` + userColumns + ` FROM users
		WHERE refresh_tokens @> jsonb_build_array(jsonb_build_object('token', $1::text))`

	insertUserQuery = `
		INSERT INTO users (email, password, name, phone, role, refresh_tokens, totp_secret, totp_enabled, backup_codes, failed_logins, locked_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING user_id
	`

	updateUserQuery = `
		UPDATE users
		SET email = $1,
			password = $2,
			name = $3,
			phone = $4,
			role = $5,
			refresh_tokens = $6,
			totp_secret = $7,
			totp_enabled = $8,
			backup_codes = $9,
			failed_logins = $10,
			locked_until = $11,
			updated_at = $12
		WHERE user_id = $13
	`

	deleteUserQuery = `DELETE FROM users WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List() []User {
	rows, err := r.db.Query(listUsersQuery)
	if err != nil {
		return []User{}
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			continue
		}
		users = append(users, u)
	}

	return users
}

func (r *PostgresRepository) GetByID(id int) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(email string) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByEmailQuery, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) GetByRefreshToken(token string) (User, error) {
	u, err := scanUser(r.db.QueryRow(getUserByRefreshTokenQuery, token))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(u User) (User, error) {
	tokensJSON, codesJSON, err := marshalTokenFields(u)
	if err != nil {
		return User{}, err
	}

	err = r.db.QueryRow(insertUserQuery,
		u.Email, u.Password, u.Name, u.Phone, u.Role,
		tokensJSON, u.TOTPSecret, u.TOTPEnabled, codesJSON,
		u.FailedLogins, nullTime(u.LockedUntil), u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) Update(id int, u User) (User, error) {
	tokensJSON, codesJSON, err := marshalTokenFields(u)
	if err != nil {
		return User{}, err
	}

	res, err := r.db.Exec(updateUserQuery,
		u.Email, u.Password, u.Name, u.Phone, u.Role,
		tokensJSON, u.TOTPSecret, u.TOTPEnabled, codesJSON,
		u.FailedLogins, nullTime(u.LockedUntil), u.UpdatedAt, id,
	)
	if err != nil {
		return User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return User{}, ErrNotFound
	}

	u.ID = id
	return u, nil
}

func (r *PostgresRepository) Delete(id int) error {
	res, err := r.db.Exec(deleteUserQuery, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row rowScanner) (User, error) {
	var (
		u          User
		tokensJSON []byte
		codesJSON  []byte
		locked     sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.Name, &u.Phone, &u.Role,
		&tokensJSON, &u.TOTPSecret, &u.TOTPEnabled, &codesJSON,
		&u.FailedLogins, &locked, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}

	if len(tokensJSON) > 0 {
		json.Unmarshal(tokensJSON, &u.RefreshTokens)
	}
	if len(codesJSON) > 0 {
		json.Unmarshal(codesJSON, &u.BackupCodes)
	}
	if locked.Valid {
		t := locked.Time
		u.LockedUntil = &t
	}

	return u, nil
}

func marshalTokenFields(u User) ([]byte, []byte, error) {
	tokens := u.RefreshTokens
	if tokens == nil {
		tokens = []RefreshToken{}
	}
	tokensJSON, err := json.Marshal(tokens)
	if err != nil {
		return nil, nil, err
	}

	codes := u.BackupCodes
	if codes == nil {
		codes = []BackupCode{}
	}
	codesJSON, err := json.Marshal(codes)
	if err != nil {
		return nil, nil, err
	}

	return tokensJSON, codesJSON, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
