package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/paddygate/paddygate/internal/auth"
	"github.com/paddygate/paddygate/internal/models"
	"github.com/paddygate/paddygate/internal/services"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUser puts an authenticated user on the request as Authenticate would
func WithUser(req *http.Request, user *models.User) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), user))
}

// WithURLParams sets chi route parameters on the request
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc func(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	LoginFunc    func(ctx context.Context, email, password string) (*services.AuthResult, error)
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, in)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password)
}

// MockMillService implements MillService for testing
type MockMillService struct {
	ListPublicFunc func(ctx context.Context, district string, specialization models.RiceVariety) ([]*models.Mill, error)
	ListOwnedFunc  func(ctx context.Context, ownerID string) ([]*models.Mill, error)
	CreateFunc     func(ctx context.Context, caller *models.User, in services.MillInput) (*models.Mill, error)
	UpdateFunc     func(ctx context.Context, caller *models.User, id string, changes services.MillUpdate) (*models.Mill, error)
}

func (m *MockMillService) ListPublic(ctx context.Context, district string, specialization models.RiceVariety) ([]*models.Mill, error) {
	if m.ListPublicFunc == nil {
		return []*models.Mill{}, nil
	}
	return m.ListPublicFunc(ctx, district, specialization)
}

func (m *MockMillService) ListOwned(ctx context.Context, ownerID string) ([]*models.Mill, error) {
	if m.ListOwnedFunc == nil {
		return []*models.Mill{}, nil
	}
	return m.ListOwnedFunc(ctx, ownerID)
}

func (m *MockMillService) Create(ctx context.Context, caller *models.User, in services.MillInput) (*models.Mill, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, caller, in)
}

func (m *MockMillService) Update(ctx context.Context, caller *models.User, id string, changes services.MillUpdate) (*models.Mill, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateFunc(ctx, caller, id, changes)
}

// MockPriceService implements PriceService for testing
type MockPriceService struct {
	ListFunc    func(ctx context.Context, filter models.PriceFilter) ([]*models.Price, error)
	PostFunc    func(ctx context.Context, caller *models.User, in services.PostPriceInput) (*models.Price, error)
	HistoryFunc func(ctx context.Context, millID string, variety models.RiceVariety) ([]models.PricePoint, error)
}

func (m *MockPriceService) List(ctx context.Context, filter models.PriceFilter) ([]*models.Price, error) {
	if m.ListFunc == nil {
		return []*models.Price{}, nil
	}
	return m.ListFunc(ctx, filter)
}

func (m *MockPriceService) Post(ctx context.Context, caller *models.User, in services.PostPriceInput) (*models.Price, error) {
	if m.PostFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.PostFunc(ctx, caller, in)
}

func (m *MockPriceService) History(ctx context.Context, millID string, variety models.RiceVariety) ([]models.PricePoint, error) {
	if m.HistoryFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.HistoryFunc(ctx, millID, variety)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	ListUsersFunc           func(ctx context.Context) ([]*models.User, error)
	SetUserStatusFunc       func(ctx context.Context, actor *models.User, id string, status models.AccountStatus) (*models.User, error)
	ListMillsFunc           func(ctx context.Context) ([]*models.Mill, error)
	SetMillVerificationFunc func(ctx context.Context, actor *models.User, id string, status models.VerificationStatus) (*models.Mill, error)
}

func (m *MockAdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	if m.ListUsersFunc == nil {
		return []*models.User{}, nil
	}
	return m.ListUsersFunc(ctx)
}

func (m *MockAdminService) SetUserStatus(ctx context.Context, actor *models.User, id string, status models.AccountStatus) (*models.User, error) {
	if m.SetUserStatusFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.SetUserStatusFunc(ctx, actor, id, status)
}

func (m *MockAdminService) ListMills(ctx context.Context) ([]*models.Mill, error) {
	if m.ListMillsFunc == nil {
		return []*models.Mill{}, nil
	}
	return m.ListMillsFunc(ctx)
}

func (m *MockAdminService) SetMillVerification(ctx context.Context, actor *models.User, id string, status models.VerificationStatus) (*models.Mill, error) {
	if m.SetMillVerificationFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.SetMillVerificationFunc(ctx, actor, id, status)
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(context.Context) error { return m.Err }

func NewTestUser(id string, role models.Role) *models.User {
	return &models.User{
		ID:            id,
		Username:      "user-" + id,
		Email:         "user-" + id + "@example.com",
		Role:          role,
		AccountStatus: models.AccountActive,
		Profile:       models.Profile{Name: "Test " + id},
	}
}
