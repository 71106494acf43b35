package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddygate/paddygate/internal/models"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

type stubUsers map[string]*models.User

func (s stubUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if id == "boom" {
		return nil, errors.New("db down")
	}
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func okHandler(seen **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = UserFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) pkghttp.ErrorResponse {
	t.Helper()
	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuthenticate(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	miller := &models.User{ID: "miller-1", Role: models.RoleMiller}
	users := stubUsers{miller.ID: miller}

	valid, err := tm.Generate(miller.ID)
	require.NoError(t, err)
	unknown, err := tm.Generate("ghost")
	require.NoError(t, err)
	failing, err := tm.Generate("boom")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{name: "no header", header: "", wantStatus: 401, wantMsg: "Not authorized, no token"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: 401, wantMsg: "Not authorized, no token"},
		{name: "bad token", header: "Bearer nope", wantStatus: 401, wantMsg: "Not authorized, token failed"},
		{name: "unknown user", header: "Bearer " + unknown, wantStatus: 401, wantMsg: "Not authorized, user not found"},
		{name: "store failure", header: "Bearer " + failing, wantStatus: 500},
		{name: "valid", header: "Bearer " + valid, wantStatus: 200},
		{name: "scheme is case-insensitive", header: "bearer " + valid, wantStatus: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.User
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Authenticate(tm, users)(okHandler(&seen)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == 200 {
				assert.Same(t, miller, seen)
				return
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decodeError(t, rec).Message)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		roles      []models.Role
		wantStatus int
	}{
		{name: "no user in context", user: nil, roles: []models.Role{models.RoleAdmin}, wantStatus: 401},
		{name: "role allowed", user: &models.User{Role: models.RoleAdmin}, roles: []models.Role{models.RoleAdmin}, wantStatus: 200},
		{name: "one of several", user: &models.User{Role: models.RoleMiller}, roles: []models.Role{models.RoleMiller, models.RoleAdmin}, wantStatus: 200},
		{name: "role denied", user: &models.User{Role: models.RoleFarmer}, roles: []models.Role{models.RoleMiller}, wantStatus: 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()

			RequireRole(tt.roles...)(okHandler(nil)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireRole_ForbiddenMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{Role: models.RoleFarmer}))
	rec := httptest.NewRecorder()

	RequireRole(models.RoleMiller)(okHandler(nil)).ServeHTTP(rec, req)

	resp := decodeError(t, rec)
	assert.Equal(t, "forbidden", resp.Error)
	assert.Equal(t, "User role Farmer is not authorized to access this route", resp.Message)
}
