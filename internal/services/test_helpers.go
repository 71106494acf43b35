package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/paddygate/paddygate/internal/models"
	pkglogger "github.com/paddygate/paddygate/pkg/logger"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc        func(ctx context.Context, user *models.User) (*models.User, error)
	GetByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*models.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	ListFunc          func(ctx context.Context) ([]*models.User, error)
	UpdateStatusFunc  func(ctx context.Context, id string, status models.AccountStatus) (*models.User, error)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id string, status models.AccountStatus) (*models.User, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil, models.ErrNotFound
}

// MockMillRepository implements MillRepository for testing
type MockMillRepository struct {
	CreateFunc             func(ctx context.Context, mill *models.Mill) (*models.Mill, error)
	GetByIDFunc            func(ctx context.Context, id string) (*models.Mill, error)
	UpdateFunc             func(ctx context.Context, mill *models.Mill) (*models.Mill, error)
	UpdateVerificationFunc func(ctx context.Context, id string, status models.VerificationStatus) (*models.Mill, error)
	ListFunc               func(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error)
	ListWithOwnersFunc     func(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error)
}

func (m *MockMillRepository) Create(ctx context.Context, mill *models.Mill) (*models.Mill, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, mill)
	}
	return nil, models.ErrInternalServer
}

func (m *MockMillRepository) GetByID(ctx context.Context, id string) (*models.Mill, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockMillRepository) Update(ctx context.Context, mill *models.Mill) (*models.Mill, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, mill)
	}
	return mill, nil
}

func (m *MockMillRepository) UpdateVerification(ctx context.Context, id string, status models.VerificationStatus) (*models.Mill, error) {
	if m.UpdateVerificationFunc != nil {
		return m.UpdateVerificationFunc(ctx, id, status)
	}
	return nil, models.ErrNotFound
}

func (m *MockMillRepository) List(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Mill{}, nil
}

func (m *MockMillRepository) ListWithOwners(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error) {
	if m.ListWithOwnersFunc != nil {
		return m.ListWithOwnersFunc(ctx, filter)
	}
	return []*models.Mill{}, nil
}

// MockPriceRepository implements PriceRepository with an in-memory Save that
// serialises writers the way the Postgres implementation does.
type MockPriceRepository struct {
	ListFunc                func(ctx context.Context, filter models.PriceFilter) ([]*models.Price, error)
	GetByMillAndVarietyFunc func(ctx context.Context, millID string, variety models.RiceVariety) (*models.Price, error)
	SaveErr                 error

	mu     sync.Mutex
	Stored map[string]*models.Price
}

func (m *MockPriceRepository) List(ctx context.Context, filter models.PriceFilter) ([]*models.Price, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Price{}, nil
}

func (m *MockPriceRepository) GetByMillAndVariety(ctx context.Context, millID string, variety models.RiceVariety) (*models.Price, error) {
	if m.GetByMillAndVarietyFunc != nil {
		return m.GetByMillAndVarietyFunc(ctx, millID, variety)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Stored[millID+"|"+string(variety)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, models.ErrNotFound
}

func (m *MockPriceRepository) Save(ctx context.Context, millID string, variety models.RiceVariety,
	mutate func(current *models.Price) (*models.Price, error)) (*models.Price, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Stored == nil {
		m.Stored = map[string]*models.Price{}
	}

	key := millID + "|" + string(variety)
	var current *models.Price
	if p, ok := m.Stored[key]; ok {
		cp := *p
		cp.HistoricalPrices = append([]models.PricePoint(nil), p.HistoricalPrices...)
		current = &cp
	}

	next, err := mutate(current)
	if err != nil {
		return nil, err
	}
	if next.ID == "" {
		next.ID = "price-" + key
	}
	next.MillID = millID
	next.RiceVariety = variety
	m.Stored[key] = next
	out := *next
	return &out, nil
}

// MockPriceCache keeps entries in memory with the same generation rule as
// RedisPriceCache: a Set for a superseded generation is never served.
type MockPriceCache struct {
	mu            sync.Mutex
	Entries       map[models.PriceFilter][]*models.Price
	Gen           int64
	Invalidations int
}

func (c *MockPriceCache) Get(_ context.Context, filter models.PriceFilter) ([]*models.Price, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.Entries[filter]
	return p, c.Gen, ok
}

func (c *MockPriceCache) Set(_ context.Context, filter models.PriceFilter, gen int64, prices []*models.Price) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.Gen {
		return
	}
	if c.Entries == nil {
		c.Entries = map[models.PriceFilter][]*models.Price{}
	}
	c.Entries[filter] = prices
}

func (c *MockPriceCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gen++
	c.Invalidations++
	c.Entries = nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	GenerateFunc func(userID string) (string, error)
}

func (m *MockTokenIssuer) Generate(userID string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(userID)
	}
	return "token-" + userID, nil
}

// MockNotifier records notifications
type MockNotifier struct {
	Err           error
	StatusChanges []*models.User
	MillChanges   []*models.Mill
}

func (m *MockNotifier) AccountStatusChanged(_ context.Context, user *models.User) error {
	m.StatusChanges = append(m.StatusChanges, user)
	return m.Err
}

func (m *MockNotifier) MillVerificationChanged(_ context.Context, _ *models.User, mill *models.Mill) error {
	m.MillChanges = append(m.MillChanges, mill)
	return m.Err
}

// NewTestLoggers returns a discarding logger and an audit logger over it
func NewTestLoggers() (*slog.Logger, *pkglogger.AuditLogger) {
	logger := slog.New(slog.DiscardHandler)
	return logger, pkglogger.NewAuditLogger(logger)
}

func NewTestUser(id, username string, role models.Role, status models.AccountStatus) *models.User {
	return &models.User{
		ID:            id,
		Username:      username,
		Email:         username + "@example.com",
		Role:          role,
		AccountStatus: status,
		Profile:       models.Profile{Name: username},
	}
}

func NewTestMill(id, ownerID, district string) *models.Mill {
	return &models.Mill{
		ID:                 id,
		Name:               "Golden Rice Mill",
		OwnerID:            ownerID,
		Location:           models.MillLocation{District: district},
		Specializations:    []models.RiceVariety{models.VarietyBasmati},
		VerificationStatus: models.VerificationVerified,
	}
}
