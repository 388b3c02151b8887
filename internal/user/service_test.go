package user

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func newTestService(seed []User) (*Service, *InMemoryRepository) {
	repo := NewInMemoryRepository(seed)
	return NewService(repo, "test-secret", 15*time.Minute, 24*time.Hour), repo
}

func register(t *testing.T, svc *Service, email, password string) User {
	t.Helper()
	u, err := svc.Register(User{Email: email, Password: password, Name: "Test User"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestRegister_HashesPasswordAndDefaultsRole(t *testing.T) {
	svc, _ := newTestService(nil)

	u := register(t, svc, "a@example.com", "hunter2hunter2")
	if u.Password == "hunter2hunter2" {
		t.Fatalf("expected password to be hashed")
	}
	if u.Role != RoleCustomer {
		t.Fatalf("expected default customer role, got %s", u.Role)
	}

	if _, err := svc.Register(User{Email: "a@example.com", Password: "x", Name: "Dup"}); err != ErrEmailExists {
		t.Fatalf("expected ErrEmailExists for duplicate email, got %v", err)
	}
}

func TestLogin_SuccessResetsFailures(t *testing.T) {
	svc, repo := newTestService(nil)
	u := register(t, svc, "a@example.com", "hunter2hunter2")

	// a couple of failures first
	svc.Login("a@example.com", "wrong", "")
	svc.Login("a@example.com", "wrong", "")

	logged, pair, err := svc.Login("a@example.com", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", pair)
	}
	if logged.FailedLogins != 0 {
		t.Fatalf("expected failure counter reset, got %d", logged.FailedLogins)
	}

	stored, _ := repo.GetByID(u.ID)
	if len(stored.RefreshTokens) != 1 {
		t.Fatalf("expected one stored refresh token, got %d", len(stored.RefreshTokens))
	}
}

func TestLogin_LocksAfterFiveFailures(t *testing.T) {
	svc, repo := newTestService(nil)
	u := register(t, svc, "a@example.com", "hunter2hunter2")

	for i := 0; i < 5; i++ {
		if _, _, err := svc.Login("a@example.com", "wrong", ""); err != ErrInvalidCredentials {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	stored, _ := repo.GetByID(u.ID)
	if stored.LockedUntil == nil {
		t.Fatalf("expected account to be locked after five failures")
	}

	// even the correct password is rejected while locked
	if _, _, err := svc.Login("a@example.com", "hunter2hunter2", ""); err != ErrLocked {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _ := newTestService(nil)
	register(t, svc, "a@example.com", "hunter2hunter2")

	_, pair, err := svc.Login("a@example.com", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	next, err := svc.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("expected refresh to succeed, got %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("expected a rotated refresh token")
	}

	// the old token is gone after rotation
	if _, err := svc.Refresh(pair.RefreshToken); err != ErrInvalidCredentials {
		t.Fatalf("expected old token to be rejected, got %v", err)
	}
	if _, err := svc.Refresh(next.RefreshToken); err != nil {
		t.Fatalf("expected new token to work, got %v", err)
	}
}

func TestLogoutAll_ClearsRefreshTokens(t *testing.T) {
	svc, repo := newTestService(nil)
	u := register(t, svc, "a@example.com", "hunter2hunter2")

	svc.Login("a@example.com", "hunter2hunter2", "")
	svc.Login("a@example.com", "hunter2hunter2", "")

	if err := svc.LogoutAll(u.ID); err != nil {
		t.Fatalf("logout all: %v", err)
	}
	stored, _ := repo.GetByID(u.ID)
	if len(stored.RefreshTokens) != 0 {
		t.Fatalf("expected empty refresh token set, got %d", len(stored.RefreshTokens))
	}
}

func TestTwoFactor_EnableAndLogin(t *testing.T) {
	svc, _ := newTestService(nil)
	u := register(t, svc, "a@example.com", "hunter2hunter2")

	setup, err := svc.Setup2FA(u.ID)
	if err != nil {
		t.Fatalf("setup 2fa: %v", err)
	}

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatalf("generate totp code: %v", err)
	}
	backupCodes, err := svc.Enable2FA(u.ID, code)
	if err != nil {
		t.Fatalf("enable 2fa: %v", err)
	}
	if len(backupCodes) != 10 {
		t.Fatalf("expected 10 backup codes, got %d", len(backupCodes))
	}

	// password alone is no longer enough
	if _, _, err := svc.Login("a@example.com", "hunter2hunter2", ""); err != ErrTOTPRequired {
		t.Fatalf("expected ErrTOTPRequired, got %v", err)
	}

	code, _ = totp.GenerateCode(setup.Secret, time.Now())
	if _, _, err := svc.Login("a@example.com", "hunter2hunter2", code); err != nil {
		t.Fatalf("expected totp login to succeed, got %v", err)
	}
}

func TestTwoFactor_BackupCodeIsSingleUse(t *testing.T) {
	svc, _ := newTestService(nil)
	u := register(t, svc, "a@example.com", "hunter2hunter2")

	setup, _ := svc.Setup2FA(u.ID)
	code, _ := totp.GenerateCode(setup.Secret, time.Now())
	backupCodes, err := svc.Enable2FA(u.ID, code)
	if err != nil {
		t.Fatalf("enable 2fa: %v", err)
	}

	if _, _, err := svc.Login("a@example.com", "hunter2hunter2", backupCodes[0]); err != nil {
		t.Fatalf("expected backup code login to succeed, got %v", err)
	}
	if _, _, err := svc.Login("a@example.com", "hunter2hunter2", backupCodes[0]); err != ErrInvalidTOTP {
		t.Fatalf("expected reused backup code to be rejected, got %v", err)
	}
}
