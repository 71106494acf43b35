package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddygate/paddygate/internal/auth"
	"github.com/paddygate/paddygate/internal/models"
	pkgauth "github.com/paddygate/paddygate/pkg/auth"
)

func newAuthService(repo UserRepository, allowAdmin bool) *AuthService {
	logger, audit := NewTestLoggers()
	return NewAuthService(repo, &MockTokenIssuer{}, nil, allowAdmin, logger, audit)
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Username: "alice",
		Email:    "  Alice@Example.com ",
		Password: "password123",
		Role:     models.RoleFarmer,
		Profile:  models.Profile{Name: "Alice", Location: models.ProfileLocation{District: "Kandy"}},
	}
}

// ============================================================================
// Register
// ============================================================================

func TestAuthService_Register_Success(t *testing.T) {
	var created *models.User
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user-1"
			created = user
			return user, nil
		},
	}

	res, err := newAuthService(repo, true).Register(context.Background(), validRegistration())

	require.NoError(t, err)
	assert.Equal(t, "token-user-1", res.Token)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, models.AccountPending, created.AccountStatus)
	assert.NotEqual(t, "password123", created.PasswordHash)
	assert.NoError(t, pkgauth.ComparePassword(created.PasswordHash, "password123"))
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	createCalled := false
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "alice@example.com", email)
			return NewTestUser("existing", "other", models.RoleFarmer, models.AccountActive), nil
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			createCalled = true
			return user, nil
		},
	}

	_, err := newAuthService(repo, true).Register(context.Background(), validRegistration())

	assert.ErrorIs(t, err, models.ErrEmailTaken)
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.False(t, createCalled)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	repo := &MockUserRepository{
		GetByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return NewTestUser("existing", username, models.RoleFarmer, models.AccountActive), nil
		},
	}

	_, err := newAuthService(repo, true).Register(context.Background(), validRegistration())

	assert.ErrorIs(t, err, models.ErrUsernameTaken)
}

func TestAuthService_Register_RaceOnInsert(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrEmailTaken
		},
	}

	_, err := newAuthService(repo, true).Register(context.Background(), validRegistration())

	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestAuthService_Register_AdminSignup(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "admin-1"
			return user, nil
		},
	}
	in := validRegistration()
	in.Role = models.RoleAdmin

	t.Run("allowed starts pending", func(t *testing.T) {
		res, err := newAuthService(repo, true).Register(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, models.AccountPending, res.User.AccountStatus)
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := newAuthService(repo, false).Register(context.Background(), in)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestAuthService_Register_StoreFailure(t *testing.T) {
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, errors.New("connection reset")
		},
	}

	_, err := newAuthService(repo, true).Register(context.Background(), validRegistration())

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

// ============================================================================
// Login
// ============================================================================

func userWithPassword(t *testing.T, status models.AccountStatus) *models.User {
	t.Helper()
	hash, err := pkgauth.HashPassword("password123")
	require.NoError(t, err)
	u := NewTestUser("user-1", "alice", models.RoleFarmer, status)
	u.PasswordHash = hash
	return u
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name     string
		status   models.AccountStatus
		email    string
		password string
		wantErr  error
	}{
		{name: "active user", status: models.AccountActive, email: "alice@example.com", password: "password123"},
		{name: "email is case-insensitive", status: models.AccountActive, email: "ALICE@example.com ", password: "password123"},
		{name: "wrong password", status: models.AccountActive, email: "alice@example.com", password: "wrong-password", wantErr: models.ErrUnauthorized},
		{name: "unknown email", status: models.AccountActive, email: "nobody@example.com", password: "password123", wantErr: models.ErrUnauthorized},
		{name: "pending with right password", status: models.AccountPending, email: "alice@example.com", password: "password123", wantErr: models.ErrAccountInactive},
		{name: "suspended with right password", status: models.AccountSuspended, email: "alice@example.com", password: "password123", wantErr: models.ErrAccountInactive},
		{name: "pending with wrong password", status: models.AccountPending, email: "alice@example.com", password: "nope-nope", wantErr: models.ErrUnauthorized},
		{name: "empty email", status: models.AccountActive, email: "", password: "password123", wantErr: models.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := userWithPassword(t, tt.status)
			repo := &MockUserRepository{
				GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
					if email == user.Email {
						return user, nil
					}
					return nil, models.ErrNotFound
				},
			}

			res, err := newAuthService(repo, true).Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "token-user-1", res.Token)
			assert.Equal(t, user.ID, res.User.ID)
		})
	}
}

func TestAuthService_Login_PadsFailures(t *testing.T) {
	logger, audit := NewTestLoggers()
	svc := NewAuthService(&MockUserRepository{}, &MockTokenIssuer{},
		&auth.TimingDelay{Base: 60 * time.Millisecond}, true, logger, audit)

	start := time.Now()
	_, err := svc.Login(context.Background(), "nobody@example.com", "password123")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestAuthService_Login_TokenFailure(t *testing.T) {
	user := userWithPassword(t, models.AccountActive)
	logger, audit := NewTestLoggers()
	svc := NewAuthService(
		&MockUserRepository{GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) { return user, nil }},
		&MockTokenIssuer{GenerateFunc: func(string) (string, error) { return "", errors.New("boom") }},
		nil, true, logger, audit,
	)

	_, err := svc.Login(context.Background(), user.Email, "password123")

	assert.ErrorIs(t, err, models.ErrInternalServer)
}
