package handlers

import (
	"errors"
	"net/http"

	"github.com/paddygate/paddygate/internal/auth"
	"github.com/paddygate/paddygate/internal/models"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

// errorMessages supplies per-route text for the sentinels a service may return.
type errorMessages struct {
	notFound   string
	forbidden  string
	badRequest string
}

func writeServiceError(w http.ResponseWriter, err error, msgs errorMessages) {
	var fe *models.FieldError
	switch {
	case errors.As(err, &fe):
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "bad_request", fe.Error(), fe.Field)
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, orDefault(msgs.notFound, "Not found"))
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, orDefault(msgs.forbidden, "Not authorized"))
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, orDefault(msgs.badRequest, "Invalid request"))
	default:
		pkghttp.WriteInternalError(w, "Server error")
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// requireUser returns the authenticated caller or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		pkghttp.WriteUnauthorized(w, "Not authorized")
		return nil, false
	}
	return user, true
}
