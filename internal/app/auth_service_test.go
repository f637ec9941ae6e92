package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fittrack/internal/domain"
)

type mockUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn        func(ctx context.Context, username, passwordHash string) (*domain.User, error)
	countFn         func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, passwordHash)
	}
	return &domain.User{ID: 1, Username: username, PasswordHash: passwordHash}, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, userAgent, ip, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	// MinCost keeps the suite fast; production uses DefaultCost.
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	hash := hashed(t, "testpass123")

	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "lifter", PasswordHash: hash}, nil
		},
	}

	var gotUA, gotIP string
	var gotExpiry time.Time
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
			if userID != 1 {
				t.Errorf("expected userID 1, got %d", userID)
			}
			if token == "" {
				t.Error("token should not be empty")
			}
			gotUA, gotIP, gotExpiry = userAgent, ip, expiresAt
			return nil
		},
	}

	svc := NewAuthService(users, sessions, 2*time.Hour)
	token, err := svc.Login(ctx, "lifter", "testpass123", "test-agent", "10.0.0.1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected token, got empty string")
	}
	if gotUA != "test-agent" || gotIP != "10.0.0.1" {
		t.Errorf("session recorded ua=%q ip=%q", gotUA, gotIP)
	}
	if d := time.Until(gotExpiry); d < 119*time.Minute || d > 121*time.Minute {
		t.Errorf("expected ~2h expiry, got %v", d)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	hash := hashed(t, "correctpass")
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "lifter", PasswordHash: hash}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	_, err := svc.Login(context.Background(), "lifter", "wrongpass", "ua", "ip")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_SSOUserHasNoPassword(t *testing.T) {
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 3, Username: "sso@example.com"}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	_, err := svc.Login(context.Background(), "sso@example.com", "", "ua", "ip")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	validSession := func(ctx context.Context, tok string) (*domain.Session, error) {
		return &domain.Session{Token: tok, UserID: 1, UserAgent: "ua", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	knownUser := func(ctx context.Context, id int64) (*domain.User, error) {
		return &domain.User{ID: id, Username: "lifter"}, nil
	}

	tests := []struct {
		name        string
		getByToken  func(ctx context.Context, token string) (*domain.Session, error)
		getByID     func(ctx context.Context, id int64) (*domain.User, error)
		userAgent   string
		wantErr     error
		wantDeleted bool
	}{
		{name: "valid", getByToken: validSession, getByID: knownUser, userAgent: "ua"},
		{name: "missing", userAgent: "ua", wantErr: ErrSessionNotFound},
		{
			name: "expired",
			getByToken: func(ctx context.Context, tok string) (*domain.Session, error) {
				return &domain.Session{Token: tok, UserID: 1, UserAgent: "ua", ExpiresAt: time.Now().Add(-time.Hour)}, nil
			},
			userAgent: "ua", wantErr: ErrSessionExpired, wantDeleted: true,
		},
		{name: "user agent changed", getByToken: validSession, userAgent: "other", wantErr: ErrSessionExpired, wantDeleted: true},
		{name: "user gone", getByToken: validSession, userAgent: "ua", wantErr: ErrUserNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deleted := false
			sessions := &mockSessionRepo{
				getByTokenFn: tc.getByToken,
				deleteFn: func(ctx context.Context, token string) error {
					deleted = true
					return nil
				},
			}
			svc := NewAuthService(&mockUserRepo{getByIDFn: tc.getByID}, sessions, 0)

			user, err := svc.ValidateSession(context.Background(), "tok", tc.userAgent)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if user.Username != "lifter" {
					t.Errorf("expected username 'lifter', got %s", user.Username)
				}
			}
			if deleted != tc.wantDeleted {
				t.Errorf("deleted = %v, want %v", deleted, tc.wantDeleted)
			}
		})
	}
}

func TestAuthService_CreateInitialUser(t *testing.T) {
	ctx := context.Background()

	created := false
	users := &mockUserRepo{
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			if username != "admin" {
				t.Errorf("expected username 'admin', got %s", username)
			}
			if passwordHash == "" || passwordHash == "password123" {
				t.Error("password must be stored hashed")
			}
			created = true
			return &domain.User{ID: 1, Username: username}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	if err := svc.CreateInitialUser(ctx, " admin ", "password123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !created {
		t.Fatal("expected user to be created")
	}

	var verr *domain.ValidationError
	if err := svc.CreateInitialUser(ctx, "admin", "short"); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for short password, got %v", err)
	}
}

func TestAuthService_CreateInitialUser_UsersExist(t *testing.T) {
	users := &mockUserRepo{
		countFn: func(ctx context.Context) (int, error) { return 1, nil },
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	err := svc.CreateInitialUser(context.Background(), "admin", "password123")
	if !errors.Is(err, ErrUsersExist) {
		t.Errorf("expected ErrUsersExist, got %v", err)
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	var sessionUser int64
	users := &mockUserRepo{
		countFn: func(ctx context.Context) (int, error) { return 3, nil },
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			if username != "sam" {
				t.Errorf("expected trimmed username 'sam', got %q", username)
			}
			if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte("password123")) != nil {
				t.Error("password must be stored as a bcrypt hash")
			}
			return &domain.User{ID: 4, Username: username, PasswordHash: passwordHash}, nil
		},
	}
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
			sessionUser = userID
			return nil
		},
	}

	svc := NewAuthService(users, sessions, time.Hour)
	token, err := svc.Register(ctx, " sam ", "password123", "ua", "127.0.0.1")
	if err != nil {
		t.Fatalf("register with existing users must succeed, got %v", err)
	}
	if token == "" || sessionUser != 4 {
		t.Errorf("expected a session for user 4, got token %q user %d", token, sessionUser)
	}

	var verr *domain.ValidationError
	if _, err := svc.Register(ctx, "", "password123", "ua", ""); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for empty username, got %v", err)
	}
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: username}, nil
		},
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			t.Error("an existing username must not be created again")
			return nil, errors.New("duplicate")
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, 0)
	if _, err := svc.Register(context.Background(), "admin", "password123", "ua", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthService_ValidateForwardAuth(t *testing.T) {
	ctx := context.Background()

	existing := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: username}, nil
		},
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			t.Error("existing user must not be re-created")
			return nil, errors.New("unexpected")
		},
	}
	user, err := NewAuthService(existing, &mockSessionRepo{}, 0).ValidateForwardAuth(ctx, "ssouser")
	if err != nil || user.Username != "ssouser" {
		t.Fatalf("got %v, %v", user, err)
	}

	fresh := &mockUserRepo{
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			return &domain.User{ID: 2, Username: username}, nil
		},
	}
	user, err = NewAuthService(fresh, &mockSessionRepo{}, 0).ValidateForwardAuth(ctx, "newssouser")
	if err != nil || user.ID != 2 {
		t.Fatalf("got %v, %v", user, err)
	}

	if _, err := NewAuthService(fresh, &mockSessionRepo{}, 0).ValidateForwardAuth(ctx, ""); err == nil {
		t.Error("expected error for empty header")
	}
}

func TestAuthService_LoginWithUser_CreateRace(t *testing.T) {
	lookups := 0
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			lookups++
			if lookups == 1 {
				return nil, nil
			}
			return &domain.User{ID: 9, Username: username}, nil
		},
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			return nil, errors.New("duplicate key")
		},
	}
	var sessionUser int64
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
			sessionUser = userID
			return nil
		},
	}

	token, err := NewAuthService(users, sessions, 0).LoginWithUser(context.Background(), "sso@example.com", "ua", "ip")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" || sessionUser != 9 {
		t.Errorf("token=%q sessionUser=%d", token, sessionUser)
	}
}

func TestAuthService_DefaultTTL(t *testing.T) {
	if got := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}, 0).SessionTTL(); got != DefaultSessionTTL {
		t.Errorf("expected default TTL, got %v", got)
	}
}
