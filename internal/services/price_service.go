package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paddygate/paddygate/internal/models"
)

// PriceRepository defines price data access
type PriceRepository interface {
	List(ctx context.Context, filter models.PriceFilter) ([]*models.Price, error)
	GetByMillAndVariety(ctx context.Context, millID string, variety models.RiceVariety) (*models.Price, error)
	Save(ctx context.Context, millID string, variety models.RiceVariety,
		mutate func(current *models.Price) (*models.Price, error)) (*models.Price, error)
}

// MillGetter resolves the mill a price is posted against
type MillGetter interface {
	GetByID(ctx context.Context, id string) (*models.Mill, error)
}

// PostPriceInput carries a price post as decoded from the request
type PostPriceInput struct {
	MillID      string
	RiceVariety models.RiceVariety
	PricePerKg  float64
	District    string
}

// PriceService handles price listings, writes and history
type PriceService struct {
	prices PriceRepository
	mills  MillGetter
	cache  PriceCache
	now    func() time.Time
	logger *slog.Logger
}

// NewPriceService wires the service. A nil cache disables caching.
func NewPriceService(prices PriceRepository, mills MillGetter, cache PriceCache, logger *slog.Logger) *PriceService {
	if cache == nil {
		cache = noopPriceCache{}
	}
	return &PriceService{
		prices: prices,
		mills:  mills,
		cache:  cache,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// List returns matching prices with their mill summaries attached.
func (s *PriceService) List(ctx context.Context, filter models.PriceFilter) ([]*models.Price, error) {
	cached, gen, ok := s.cache.Get(ctx, filter)
	if ok {
		return cached, nil
	}

	prices, err := s.prices.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list prices", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.cache.Set(ctx, filter, gen, prices)
	return prices, nil
}

// Post records a price for a mill owned by caller. The mill and its owner are
// checked before the variety and amount. An existing (mill, variety) price is
// updated in place with its previous value appended to history; otherwise a
// new price is created with empty history. District is taken from the
// request, falling back to the mill's district, and is set only on create.
func (s *PriceService) Post(ctx context.Context, caller *models.User, in PostPriceInput) (*models.Price, error) {
	mill, err := s.mills.GetByID(ctx, in.MillID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get mill", slog.String("mill_id", in.MillID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if mill.OwnerID != caller.ID {
		s.logger.Warn("price post by non-owner",
			slog.String("mill_id", mill.ID),
			slog.String("caller_id", caller.ID),
		)
		return nil, models.ErrForbidden
	}

	if err := validatePriceInput(in); err != nil {
		return nil, err
	}

	district := in.District
	if district == "" {
		district = mill.Location.District
	}

	now := s.now()
	price, err := s.prices.Save(ctx, mill.ID, in.RiceVariety, func(current *models.Price) (*models.Price, error) {
		if current == nil {
			return &models.Price{
				MillID:           mill.ID,
				RiceVariety:      in.RiceVariety,
				PricePerKg:       in.PricePerKg,
				UpdateTimestamp:  now,
				HistoricalPrices: []models.PricePoint{},
				District:         district,
			}, nil
		}
		current.Record(in.PricePerKg, now)
		return current, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			return nil, err
		}
		s.logger.Error("failed to save price", slog.String("mill_id", mill.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("price recorded",
		slog.String("mill_id", mill.ID),
		slog.String("rice_variety", string(price.RiceVariety)),
		slog.Float64("price_per_kg", price.PricePerKg),
		slog.Int("history_len", len(price.HistoricalPrices)),
	)
	return price, nil
}

func validatePriceInput(in PostPriceInput) error {
	if !in.RiceVariety.Valid() {
		return &models.FieldError{Field: "riceVariety", Message: varietyMessage}
	}
	if in.PricePerKg < 0 || in.PricePerKg > models.MaxPricePerKg {
		return &models.FieldError{
			Field:   "pricePerKg",
			Message: fmt.Sprintf("must be between 0 and %d", models.MaxPricePerKg),
		}
	}
	return nil
}

// History returns stored history followed by the current price.
func (s *PriceService) History(ctx context.Context, millID string, variety models.RiceVariety) ([]models.PricePoint, error) {
	price, err := s.prices.GetByMillAndVariety(ctx, millID, variety)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get price", slog.String("mill_id", millID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return price.History(), nil
}
