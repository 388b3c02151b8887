package user

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// RefreshToken is one entry of a user's active token set. A refresh token
// is valid only while it is present in the set; logout removes it.
type RefreshToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// BackupCode is a single-use 2FA recovery code.
type BackupCode struct {
	Code string `json:"code"`
	Used bool   `json:"used"`
}

type User struct {
	ID       int    `json:"userId"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`

	RefreshTokens []RefreshToken `json:"-"`

	TOTPSecret  string       `json:"-"`
	TOTPEnabled bool         `json:"totpEnabled"`
	BackupCodes []BackupCode `json:"-"`

	FailedLogins int        `json:"-"`
	LockedUntil  *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Locked reports whether the account is under a login lockout at t.
func (u User) Locked(t time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(t)
}

// HasRefreshToken reports whether token is in the active set and unexpired.
func (u User) HasRefreshToken(token string, t time.Time) bool {
	for _, rt := range u.RefreshTokens {
		if rt.Token == token && rt.ExpiresAt.After(t) {
			return true
		}
	}
	return false
}
