package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/paddygate/paddygate/internal/models"
	"github.com/paddygate/paddygate/internal/services"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Username string         `json:"username" validate:"required,min=3,max=50"`
	Email    string         `json:"email" validate:"required,mailaddr"`
	Password string         `json:"password" validate:"required,min=8,max=128"`
	Role     string         `json:"role" validate:"required,oneof=Farmer Miller Admin"`
	Profile  ProfileRequest `json:"profile"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
		Profile:  req.Profile.toModel(),
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmailTaken):
			pkghttp.WriteConflict(w, "User with this email already exists")
		case errors.Is(err, models.ErrUsernameTaken):
			pkghttp.WriteConflict(w, "Username already taken")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "User already exists")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "Registration as Admin is disabled")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid registration details")
		default:
			pkghttp.WriteInternalError(w, "Server error during registration")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, authResultToResponse(result))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAccountInactive):
			pkghttp.WriteUnauthorized(w, "Account is not active. Please contact administrator.")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		default:
			pkghttp.WriteInternalError(w, "Server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, authResultToResponse(result))
}

// CurrentUser handles GET /auth/user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

func authResultToResponse(result *services.AuthResult) *AuthResponse {
	return &AuthResponse{
		UserResponse: *userModelToResponse(result.User),
		Token:        result.Token,
	}
}
