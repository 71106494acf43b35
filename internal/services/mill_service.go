package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paddygate/paddygate/internal/models"
)

// MillRepository defines mill data access
type MillRepository interface {
	Create(ctx context.Context, mill *models.Mill) (*models.Mill, error)
	GetByID(ctx context.Context, id string) (*models.Mill, error)
	Update(ctx context.Context, mill *models.Mill) (*models.Mill, error)
	UpdateVerification(ctx context.Context, id string, status models.VerificationStatus) (*models.Mill, error)
	List(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error)
	ListWithOwners(ctx context.Context, filter models.MillFilter) ([]*models.Mill, error)
}

// MillInput carries the owner-editable fields of a new mill
type MillInput struct {
	Name            string
	Location        models.MillLocation
	ContactInfo     models.ContactInfo
	Specializations []models.RiceVariety
}

// MillUpdate replaces only the fields that are non-nil
type MillUpdate struct {
	Name            *string
	Location        *models.MillLocation
	ContactInfo     *models.ContactInfo
	Specializations *[]models.RiceVariety
}

// MillService handles mill business logic
type MillService struct {
	repo   MillRepository
	prices PriceCache
	logger *slog.Logger
}

// NewMillService wires the service. prices is the listing cache that embeds
// mill summaries; nil disables invalidation.
func NewMillService(repo MillRepository, prices PriceCache, logger *slog.Logger) *MillService {
	if prices == nil {
		prices = noopPriceCache{}
	}
	return &MillService{repo: repo, prices: prices, logger: logger}
}

// ListPublic returns Verified mills, optionally narrowed by district and specialization.
func (s *MillService) ListPublic(ctx context.Context, district string, specialization models.RiceVariety) ([]*models.Mill, error) {
	mills, err := s.repo.List(ctx, models.MillFilter{
		District:       district,
		Specialization: specialization,
		Status:         models.VerificationVerified,
	})
	if err != nil {
		s.logger.Error("failed to list mills", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return mills, nil
}

// ListOwned returns every mill owned by ownerID regardless of verification.
func (s *MillService) ListOwned(ctx context.Context, ownerID string) ([]*models.Mill, error) {
	mills, err := s.repo.List(ctx, models.MillFilter{OwnerID: ownerID})
	if err != nil {
		s.logger.Error("failed to list owned mills", slog.String("owner_id", ownerID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return mills, nil
}

// Create registers a Pending mill owned by caller. Any client-supplied owner is ignored.
func (s *MillService) Create(ctx context.Context, caller *models.User, in MillInput) (*models.Mill, error) {
	if err := validateSpecializations(in.Specializations); err != nil {
		return nil, err
	}

	mill, err := s.repo.Create(ctx, &models.Mill{
		Name:               in.Name,
		OwnerID:            caller.ID,
		Location:           in.Location,
		ContactInfo:        in.ContactInfo,
		Specializations:    in.Specializations,
		VerificationStatus: models.VerificationPending,
	})
	if err != nil {
		return nil, s.mapWriteError("create", err)
	}

	s.logger.Info("mill created", slog.String("mill_id", mill.ID), slog.String("owner_id", caller.ID))
	return mill, nil
}

// Update applies changes to a mill owned by caller. Ownership is checked before
// the changes are validated, and cached price listings are retired on success.
func (s *MillService) Update(ctx context.Context, caller *models.User, id string, changes MillUpdate) (*models.Mill, error) {
	mill, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get mill", slog.String("mill_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if mill.OwnerID != caller.ID {
		s.logger.Warn("mill update by non-owner",
			slog.String("mill_id", id),
			slog.String("caller_id", caller.ID),
		)
		return nil, models.ErrForbidden
	}

	if err := validateMillUpdate(changes); err != nil {
		return nil, err
	}

	if changes.Name != nil {
		mill.Name = *changes.Name
	}
	if changes.Location != nil {
		mill.Location = *changes.Location
	}
	if changes.ContactInfo != nil {
		mill.ContactInfo = *changes.ContactInfo
	}
	if changes.Specializations != nil {
		mill.Specializations = *changes.Specializations
	}

	updated, err := s.repo.Update(ctx, mill)
	if err != nil {
		return nil, s.mapWriteError("update", err)
	}
	s.prices.Invalidate(ctx)
	return updated, nil
}

func (s *MillService) mapWriteError(op string, err error) error {
	switch {
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrNotFound):
		return err
	}
	s.logger.Error("failed to "+op+" mill", slog.Any("error", err))
	return models.ErrInternalServer
}

const varietyMessage = "must be one of: Basmati, Red Rice, White Rice, Brown Rice"

func validateSpecializations(in []models.RiceVariety) error {
	for i, v := range in {
		if !v.Valid() {
			return &models.FieldError{Field: fmt.Sprintf("specializations[%d]", i), Message: varietyMessage}
		}
	}
	return nil
}

func validateMillUpdate(u MillUpdate) error {
	if u.Name != nil && !models.ValidMillName(*u.Name) {
		return &models.FieldError{
			Field:   "name",
			Message: fmt.Sprintf("must have between %d and %d characters", models.MinMillNameLen, models.MaxMillNameLen),
		}
	}
	if u.Location != nil {
		if u.Location.District == "" {
			return &models.FieldError{Field: "location.district", Message: "this field is required"}
		}
		if c := u.Location.Coordinates; c != nil && len(c.Coordinates) != 2 {
			return &models.FieldError{Field: "location.coordinates.coordinates", Message: "must have exactly 2 elements"}
		}
	}
	if c := u.ContactInfo; c != nil {
		if c.Phone != "" && !models.ValidPhone(c.Phone) {
			return &models.FieldError{Field: "contactInfo.phone", Message: "must be a 10 digit phone number"}
		}
		if c.Email != "" && !models.ValidEmail(c.Email) {
			return &models.FieldError{Field: "contactInfo.email", Message: "must be a valid email address"}
		}
	}
	if u.Specializations != nil {
		return validateSpecializations(*u.Specializations)
	}
	return nil
}
