package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketloft-backend/internal/users"
	"github.com/angelmondragon/marketloft-backend/pkg/auth/session"
	"github.com/angelmondragon/marketloft-backend/pkg/config"
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketloft-backend/pkg/errors"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "marketloft",
	ExpirationMinutes: 30,
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	repo := newStubUserRepo()
	svc := newTestAuthService(t, repo, &stubSessionManager{})

	registered, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "  Shopper@Example.COM ",
		Password:    "correct-horse-battery",
		DisplayName: "Shopper",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.User.Email != "shopper@example.com" {
		t.Fatalf("expected normalized email, got %q", registered.User.Email)
	}
	if registered.AccessToken == "" || registered.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != registered.User.ID {
		t.Fatal("expected the same user")
	}
	if login.User.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	repo := newStubUserRepo()
	svc := newTestAuthService(t, repo, &stubSessionManager{})

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "shopper@example.com",
		Password: "correct-horse-battery",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "wrong",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != invalidCredentialsMessage {
		t.Fatalf("credential failures must not leak detail, got %q", typed.Message())
	}
}

func TestLoginUnknownUser(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t, newStubUserRepo(), &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	repo := newStubUserRepo()
	sessions := &stubSessionManager{}
	svc := newTestAuthService(t, repo, sessions)

	login, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "shopper@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == login.AccessToken || pair.RefreshToken == login.RefreshToken {
		t.Fatal("expected a rotated token pair")
	}
}

func TestRefreshRejectsBadToken(t *testing.T) {
	t.Parallel()

	repo := newStubUserRepo()
	sessions := &stubSessionManager{}
	svc := newTestAuthService(t, repo, sessions)

	login, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "shopper@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: "forged",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := newStubUserRepo()
	svc := newTestAuthService(t, repo, &stubSessionManager{})

	req := RegisterRequest{Email: "shopper@example.com", Password: "correct-horse-battery"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), req)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func newTestAuthService(t *testing.T, repo userRepository, sessions sessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
		PasswordConfig: testPasswordConfig,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type stubUserRepo struct {
	byEmail map[string]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*models.User{}}
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if _, exists := s.byEmail[user.Email]; exists {
		return nil, &stubUniqueViolation{constraint: "ux_users_email"}
	}
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	for _, user := range s.byEmail {
		if user.ID == id {
			user.LastLoginAt = &at
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// stubUniqueViolation mimics the driver error shape IsUniqueViolation matches.
type stubUniqueViolation struct {
	constraint string
}

func (e *stubUniqueViolation) Error() string {
	return "duplicate key value violates unique constraint \"" + e.constraint + "\""
}

type stubSessionManager struct {
	tokens map[string]string
}

func (s *stubSessionManager) ensure() {
	if s.tokens == nil {
		s.tokens = map[string]string{}
	}
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.ensure()
	token := "refresh-" + uuid.NewString()
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	s.ensure()
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newAccessID := session.NewAccessID()
	token := "refresh-" + uuid.NewString()
	s.tokens[newAccessID] = token
	return newAccessID, token, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.ensure()
	delete(s.tokens, accessID)
	return nil
}
