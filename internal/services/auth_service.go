package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/paddygate/paddygate/internal/auth"
	"github.com/paddygate/paddygate/internal/models"
	pkgauth "github.com/paddygate/paddygate/pkg/auth"
	pkglogger "github.com/paddygate/paddygate/pkg/logger"
)

// UserRepository defines the user data access the services need
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateStatus(ctx context.Context, id string, status models.AccountStatus) (*models.User, error)
}

// TokenIssuer signs bearer tokens
type TokenIssuer interface {
	Generate(userID string) (string, error)
}

// RegisterInput carries a validated registration request
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
	Profile  models.Profile
}

// AuthResult is a user together with a freshly issued token
type AuthResult struct {
	User  *models.User
	Token string
}

// AuthService handles registration and login
type AuthService struct {
	repo             UserRepository
	tokens           TokenIssuer
	timing           *auth.TimingDelay
	allowAdminSignup bool
	logger           *slog.Logger
	auditLogger      *pkglogger.AuditLogger
}

func NewAuthService(
	repo UserRepository,
	tokens TokenIssuer,
	timing *auth.TimingDelay,
	allowAdminSignup bool,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		repo:             repo,
		tokens:           tokens,
		timing:           timing,
		allowAdminSignup: allowAdminSignup,
		logger:           logger,
		auditLogger:      auditLogger,
	}
}

// NormalizeEmail lowercases and trims an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a Pending user and returns it with a token. The token is
// issued even though the account cannot log in until an administrator activates it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if in.Role == models.RoleAdmin && !s.allowAdminSignup {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType: "register", Email: in.Email, FailureReason: "admin_signup_disabled",
		})
		return nil, models.ErrForbidden
	}

	if err := s.ensureAvailable(ctx, in.Email, in.Username); err != nil {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType: "register", Email: in.Email, FailureReason: "duplicate",
		})
		return nil, err
	}

	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, models.ErrBadRequest
	}
	hash, err := pkgauth.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  hash,
		Role:          in.Role,
		Profile:       in.Profile,
		AccountStatus: models.AccountPending,
	})
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrBadRequest) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "register", UserID: user.ID, Email: user.Email, Success: true,
	})

	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, email, username string) error {
	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return models.ErrEmailTaken
	case !errors.Is(err, models.ErrNotFound):
		s.logger.Error("failed to check email", slog.Any("error", err))
		return models.ErrInternalServer
	}

	_, err = s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return models.ErrUsernameTaken
	case !errors.Is(err, models.ErrNotFound):
		s.logger.Error("failed to check username", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

// Login verifies credentials. Unknown email and wrong password both yield
// ErrUnauthorized after the same timing pad; a correct password on a non-Active
// account yields ErrAccountInactive.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	start := time.Now()
	email = NormalizeEmail(email)

	fail := func(userID, reason string, err error) (*AuthResult, error) {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType: "login", UserID: userID, Email: email, FailureReason: reason,
		})
		s.timing.WaitFrom(ctx, start)
		return nil, err
	}

	if email == "" || password == "" {
		return fail("", "missing_credentials", models.ErrUnauthorized)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fail("", "invalid_credentials", models.ErrUnauthorized)
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return fail(user.ID, "invalid_credentials", models.ErrUnauthorized)
	}

	if user.AccountStatus != models.AccountActive {
		s.logger.Info("login blocked due to account state",
			slog.String("user_id", user.ID),
			slog.String("status", string(user.AccountStatus)),
		)
		return fail(user.ID, "account_"+strings.ToLower(string(user.AccountStatus)), models.ErrAccountInactive)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.Error("failed to generate token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "login", UserID: user.ID, Email: email, Success: true,
	})

	return &AuthResult{User: user, Token: token}, nil
}
