package user

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxLoginAttempts = 5
	lockDuration     = 15 * time.Minute
	backupCodeCount  = 10
)

type Service struct {
	repo       Repository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(repo Repository, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// TOTPSetup carries the provisioning data returned by Setup2FA.
type TOTPSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

func (s *Service) List() []User {
	return s.repo.List()
}

func (s *Service) GetByID(id int) (User, error) {
	return s.repo.GetByID(id)
}

func (s *Service) Register(u User) (User, error) {
	if _, err := s.repo.GetByEmail(u.Email); err == nil {
		return User{}, ErrEmailExists
	} else if err != ErrNotFound {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	u.Password = string(hashed)
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return s.repo.Create(u)
}

// Login authenticates email/password (plus a TOTP or backup code when 2FA
// is enabled) and issues a token pair. Five consecutive failures lock the
// account for fifteen minutes.
func (s *Service) Login(email, password, totpCode string) (User, TokenPair, error) {
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return User{}, TokenPair{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if u.Locked(now) {
		return User{}, TokenPair{}, ErrLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		s.recordFailure(u, now)
		return User{}, TokenPair{}, ErrInvalidCredentials
	}

	if u.TOTPEnabled {
		if totpCode == "" {
			return User{}, TokenPair{}, ErrTOTPRequired
		}
		if !totp.Validate(totpCode, u.TOTPSecret) && !consumeBackupCode(&u, totpCode) {
			s.recordFailure(u, now)
			return User{}, TokenPair{}, ErrInvalidTOTP
		}
	}

	u.FailedLogins = 0
	u.LockedUntil = nil

	pair, err := s.issueTokens(&u, now)
	if err != nil {
		return User{}, TokenPair{}, err
	}

	u.UpdatedAt = now
	updated, err := s.repo.Update(u.ID, u)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	return updated, pair, nil
}

// Refresh rotates a refresh token: the presented token must be in some
// user's active set, it is removed, and a fresh pair is issued.
func (s *Service) Refresh(token string) (TokenPair, error) {
	u, err := s.repo.GetByRefreshToken(token)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if !u.HasRefreshToken(token, now) {
		return TokenPair{}, ErrInvalidCredentials
	}

	removeRefreshToken(&u, token)
	pair, err := s.issueTokens(&u, now)
	if err != nil {
		return TokenPair{}, err
	}

	u.UpdatedAt = now
	if _, err := s.repo.Update(u.ID, u); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Logout removes one refresh token from the active set.
func (s *Service) Logout(userID int, token string) error {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	removeRefreshToken(&u, token)
	u.UpdatedAt = time.Now().UTC()
	_, err = s.repo.Update(u.ID, u)
	return err
}

// LogoutAll clears the whole refresh token set.
func (s *Service) LogoutAll(userID int) error {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	u.RefreshTokens = nil
	u.UpdatedAt = time.Now().UTC()
	_, err = s.repo.Update(u.ID, u)
	return err
}

func (s *Service) Update(id int, u User) (User, error) {
	u.UpdatedAt = time.Now().UTC()
	return s.repo.Update(id, u)
}

func (s *Service) Delete(id int) error {
	return s.repo.Delete(id)
}

// Setup2FA generates a TOTP secret for the user. 2FA stays disabled until
// the secret is confirmed via Enable2FA.
func (s *Service) Setup2FA(userID int) (TOTPSetup, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return TOTPSetup{}, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "ShopOrbit",
		AccountName: u.Email,
	})
	if err != nil {
		return TOTPSetup{}, err
	}

	u.TOTPSecret = key.Secret()
	u.TOTPEnabled = false
	u.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Update(u.ID, u); err != nil {
		return TOTPSetup{}, err
	}

	return TOTPSetup{Secret: key.Secret(), URL: key.URL()}, nil
}

// Enable2FA confirms the pending secret with a live code and returns a set
// of single-use backup codes.
func (s *Service) Enable2FA(userID int, code string) ([]string, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if u.TOTPSecret == "" || !totp.Validate(code, u.TOTPSecret) {
		return nil, ErrInvalidTOTP
	}

	codes := make([]string, 0, backupCodeCount)
	u.BackupCodes = make([]BackupCode, 0, backupCodeCount)
	for i := 0; i < backupCodeCount; i++ {
		c := uuid.NewString()[:8]
		codes = append(codes, c)
		u.BackupCodes = append(u.BackupCodes, BackupCode{Code: c})
	}

	u.TOTPEnabled = true
	u.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Update(u.ID, u); err != nil {
		return nil, err
	}
	return codes, nil
}

// Disable2FA turns 2FA off after verifying a live code.
func (s *Service) Disable2FA(userID int, code string) error {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if !u.TOTPEnabled {
		return nil
	}
	if !totp.Validate(code, u.TOTPSecret) {
		return ErrInvalidTOTP
	}

	u.TOTPEnabled = false
	u.TOTPSecret = ""
	u.BackupCodes = nil
	u.UpdatedAt = time.Now().UTC()
	_, err = s.repo.Update(u.ID, u)
	return err
}

// LoginWithOAuth upserts a user identified by a verified provider email.
// Accounts created this way get a random password so the password path
// still works via reset later.
func (s *Service) LoginWithOAuth(email, name string) (User, error) {
	u, err := s.repo.GetByEmail(email)
	if err == nil {
		return u, nil
	}
	if err != ErrNotFound {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	return s.repo.Create(User{
		Email:     email,
		Password:  string(hashed),
		Name:      name,
		Role:      RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// issueAndStore issues a token pair for u and persists the updated
// refresh token set.
func (s *Service) issueAndStore(u User) (TokenPair, error) {
	now := time.Now().UTC()
	pair, err := s.issueTokens(&u, now)
	if err != nil {
		return TokenPair{}, err
	}
	u.UpdatedAt = now
	if _, err := s.repo.Update(u.ID, u); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (s *Service) recordFailure(u User, now time.Time) {
	u.FailedLogins++
	if u.FailedLogins >= maxLoginAttempts {
		until := now.Add(lockDuration)
		u.LockedUntil = &until
		u.FailedLogins = 0
	}
	u.UpdatedAt = now
	// best effort; the login already failed
	s.repo.Update(u.ID, u)
}

func (s *Service) issueTokens(u *User, now time.Time) (TokenPair, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    u.Role,
		"exp":     now.Add(s.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return TokenPair{}, err
	}

	refresh := RefreshToken{
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}

	// drop expired tokens while appending the new one
	kept := make([]RefreshToken, 0, len(u.RefreshTokens)+1)
	for _, rt := range u.RefreshTokens {
		if rt.ExpiresAt.After(now) {
			kept = append(kept, rt)
		}
	}
	u.RefreshTokens = append(kept, refresh)

	return TokenPair{
		AccessToken:  signed,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func removeRefreshToken(u *User, token string) {
	kept := u.RefreshTokens[:0]
	for _, rt := range u.RefreshTokens {
		if rt.Token != token {
			kept = append(kept, rt)
		}
	}
	u.RefreshTokens = kept
}

func consumeBackupCode(u *User, code string) bool {
	for i, bc := range u.BackupCodes {
		if bc.Code == code && !bc.Used {
			u.BackupCodes[i].Used = true
			return true
		}
	}
	return false
}
