package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paddygate/paddygate/internal/models"
	"github.com/paddygate/paddygate/internal/services"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

// MillService defines the interface for mill business logic
type MillService interface {
	ListPublic(ctx context.Context, district string, specialization models.RiceVariety) ([]*models.Mill, error)
	ListOwned(ctx context.Context, ownerID string) ([]*models.Mill, error)
	Create(ctx context.Context, caller *models.User, in services.MillInput) (*models.Mill, error)
	Update(ctx context.Context, caller *models.User, id string, changes services.MillUpdate) (*models.Mill, error)
}

type MillHandler struct {
	service MillService
}

func NewMillHandler(service MillService) *MillHandler {
	return &MillHandler{service: service}
}

type CreateMillRequest struct {
	Name            string              `json:"name" validate:"required,min=2,max=100"`
	Location        MillLocationRequest `json:"location"`
	ContactInfo     ContactInfoRequest  `json:"contactInfo"`
	Specializations []string            `json:"specializations" validate:"omitempty,dive,variety"`
}

// UpdateMillRequest is partial: omitted fields keep their stored values. It is
// only decoded here; MillService.Update validates it after the owner check.
type UpdateMillRequest struct {
	Name            *string              `json:"name"`
	Location        *MillLocationRequest `json:"location"`
	ContactInfo     *ContactInfoRequest  `json:"contactInfo"`
	Specializations *[]string            `json:"specializations"`
}

func (req UpdateMillRequest) toUpdate() services.MillUpdate {
	var u services.MillUpdate
	u.Name = req.Name
	if req.Location != nil {
		loc := req.Location.toModel()
		u.Location = &loc
	}
	if req.ContactInfo != nil {
		ci := req.ContactInfo.toModel()
		u.ContactInfo = &ci
	}
	if req.Specializations != nil {
		specs := varietiesFromStrings(*req.Specializations)
		u.Specializations = &specs
	}
	return u
}

// ListMills handles GET /mills?district=&specialization=
func (h *MillHandler) ListMills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mills, err := h.service.ListPublic(r.Context(), q.Get("district"), models.RiceVariety(q.Get("specialization")))
	if err != nil {
		writeServiceError(w, err, errorMessages{})
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, millsToResponse(mills))
}

// ListOwnMills handles GET /mills/miller
func (h *MillHandler) ListOwnMills(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	mills, err := h.service.ListOwned(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err, errorMessages{})
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, millsToResponse(mills))
}

// CreateMill handles POST /mills
func (h *MillHandler) CreateMill(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CreateMillRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	mill, err := h.service.Create(r.Context(), user, services.MillInput{
		Name:            req.Name,
		Location:        req.Location.toModel(),
		ContactInfo:     req.ContactInfo.toModel(),
		Specializations: varietiesFromStrings(req.Specializations),
	})
	if err != nil {
		writeServiceError(w, err, errorMessages{badRequest: "Invalid mill details"})
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, millModelToResponse(mill))
}

// UpdateMill handles PUT /mills/{id}
func (h *MillHandler) UpdateMill(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req UpdateMillRequest
	if err := pkghttp.DecodeJSON(r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	mill, err := h.service.Update(r.Context(), user, chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		writeServiceError(w, err, errorMessages{
			notFound:   "Mill not found",
			forbidden:  "Not authorized to update this mill",
			badRequest: "Invalid mill details",
		})
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, millModelToResponse(mill))
}
