package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddygate/paddygate/internal/handlers"
	"github.com/paddygate/paddygate/internal/models"
	"github.com/paddygate/paddygate/internal/services"
)

func validRegistration() map[string]any {
	return map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
		"role":     "Farmer",
		"profile": map[string]any{
			"name":     "Alice Perera",
			"contact":  map[string]any{"phone": "0771234567"},
			"location": map[string]any{"district": "Kandy"},
		},
	}
}

func TestRegister_Success(t *testing.T) {
	var got services.RegisterInput
	mock := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
			got = in
			user := handlers.NewTestUser("u1", in.Role)
			user.AccountStatus = models.AccountPending
			return &services.AuthResult{User: user, Token: "jwt-token"}, nil
		},
	}
	h := handlers.NewAuthHandler(mock)

	w := httptest.NewRecorder()
	h.Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/register", validRegistration()))

	var resp handlers.AuthResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "u1", resp.ID)
	assert.Equal(t, "jwt-token", resp.Token)
	assert.Equal(t, models.AccountPending, resp.AccountStatus)
	assert.Equal(t, models.RoleFarmer, got.Role)
	assert.Equal(t, "Kandy", got.Profile.Location.District)
	assert.Equal(t, "0771234567", got.Profile.Contact.Phone)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(body map[string]any)
		field  string
	}{
		{"short username", func(b map[string]any) { b["username"] = "al" }, "username"},
		{"bad email", func(b map[string]any) { b["email"] = "not-an-email" }, "email"},
		{"short password", func(b map[string]any) { b["password"] = "short" }, "password"},
		{"unknown role", func(b map[string]any) { b["role"] = "Trader" }, "role"},
		{"missing profile name", func(b map[string]any) { b["profile"] = map[string]any{} }, "profile.name"},
		{"bad phone", func(b map[string]any) {
			b["profile"] = map[string]any{"name": "A", "contact": map[string]any{"phone": "12345"}}
		}, "profile.contact.phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validRegistration()
			tt.mutate(body)
			h := handlers.NewAuthHandler(&handlers.MockAuthService{})

			w := httptest.NewRecorder()
			h.Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/register", body))

			resp := handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
			assert.Equal(t, tt.field, resp.Details)
		})
	}
}

func TestRegister_Duplicates(t *testing.T) {
	tests := []struct {
		err     error
		message string
	}{
		{models.ErrEmailTaken, "User with this email already exists"},
		{models.ErrUsernameTaken, "Username already taken"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			h := handlers.NewAuthHandler(&handlers.MockAuthService{
				RegisterFunc: func(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
					return nil, tt.err
				},
			})

			w := httptest.NewRecorder()
			h.Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/register", validRegistration()))

			resp := handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "conflict")
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestRegister_AdminSignupDisabled(t *testing.T) {
	h := handlers.NewAuthHandler(&handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
			return nil, models.ErrForbidden
		},
	})
	body := validRegistration()
	body["role"] = "Admin"

	w := httptest.NewRecorder()
	h.Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/register", body))

	handlers.AssertErrorResponse(t, w, http.StatusForbidden, "forbidden")
}

func TestRegister_MalformedBody(t *testing.T) {
	h := handlers.NewAuthHandler(&handlers.MockAuthService{})

	w := httptest.NewRecorder()
	h.Register(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/register", `{"username":`))

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestLogin_Success(t *testing.T) {
	h := handlers.NewAuthHandler(&handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			assert.Equal(t, "alice@example.com", email)
			assert.Equal(t, "password123", password)
			return &services.AuthResult{User: handlers.NewTestUser("u1", models.RoleFarmer), Token: "jwt"}, nil
		},
	})

	w := httptest.NewRecorder()
	h.Login(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "alice@example.com", "password": "password123"}))

	var resp handlers.AuthResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "jwt", resp.Token)
	assert.Equal(t, models.RoleFarmer, resp.Role)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"invalid credentials", models.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Invalid credentials"},
		{"inactive account", models.ErrAccountInactive, http.StatusUnauthorized, "unauthorized", "Account is not active. Please contact administrator."},
		{"store failure", models.ErrInternalServer, http.StatusInternalServerError, "internal_error", "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewAuthHandler(&handlers.MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
					return nil, tt.err
				},
			})

			w := httptest.NewRecorder()
			h.Login(w, handlers.NewTestRequest(t, http.MethodPost, "/api/auth/login",
				map[string]string{"email": "alice@example.com", "password": "password123"}))

			resp := handlers.AssertErrorResponse(t, w, tt.status, tt.code)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestCurrentUser(t *testing.T) {
	h := handlers.NewAuthHandler(&handlers.MockAuthService{})

	t.Run("returns caller", func(t *testing.T) {
		req := handlers.WithUser(httptest.NewRequest(http.MethodGet, "/api/auth/user", nil),
			handlers.NewTestUser("u1", models.RoleMiller))
		w := httptest.NewRecorder()
		h.CurrentUser(w, req)

		var resp handlers.UserResponse
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		require.Equal(t, "u1", resp.ID)
		assert.Equal(t, models.AccountActive, resp.AccountStatus)
	})

	t.Run("no user in context", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.CurrentUser(w, httptest.NewRequest(http.MethodGet, "/api/auth/user", nil))
		handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
	})
}
