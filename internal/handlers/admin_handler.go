package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paddygate/paddygate/internal/models"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

// AdminServiceInterface defines the administrator service contract.
type AdminServiceInterface interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	SetUserStatus(ctx context.Context, actor *models.User, id string, status models.AccountStatus) (*models.User, error)
	ListMills(ctx context.Context) ([]*models.Mill, error)
	SetMillVerification(ctx context.Context, actor *models.User, id string, status models.VerificationStatus) (*models.Mill, error)
}

// AdminHandler handles admin HTTP requests.
type AdminHandler struct {
	service AdminServiceInterface
}

func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

type UpdateUserStatusRequest struct {
	AccountStatus string `json:"accountStatus" validate:"required,oneof=Pending Active Suspended"`
}

type VerifyMillRequest struct {
	VerificationStatus string `json:"verificationStatus" validate:"required,oneof=Pending Verified Rejected"`
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve users")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, usersToResponse(users))
}

// UpdateUserStatus handles PUT /admin/users/{id}/status
func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req UpdateUserStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.SetUserStatus(r.Context(), actor, chi.URLParam(r, "id"), models.AccountStatus(req.AccountStatus))
	if err != nil {
		writeServiceError(w, err, errorMessages{notFound: "User not found"})
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, userModelToResponse(user))
}

// ListMills handles GET /admin/mills; every mill, with owner username and email.
func (h *AdminHandler) ListMills(w http.ResponseWriter, r *http.Request) {
	mills, err := h.service.ListMills(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve mills")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, millsToResponse(mills))
}

// VerifyMill handles PUT /admin/mills/{id}/verify
func (h *AdminHandler) VerifyMill(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req VerifyMillRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	mill, err := h.service.SetMillVerification(r.Context(), actor, chi.URLParam(r, "id"), models.VerificationStatus(req.VerificationStatus))
	if err != nil {
		writeServiceError(w, err, errorMessages{notFound: "Mill not found"})
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, millModelToResponse(mill))
}
