package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/paddygate/paddygate/internal/models"
	pkglogger "github.com/paddygate/paddygate/pkg/logger"
)

// AdminService performs administrator-only status changes. There is no state
// machine: any status may be set from any other.
type AdminService struct {
	users       UserRepository
	mills       MillRepository
	notifier    Notifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAdminService(
	users UserRepository,
	mills MillRepository,
	notifier Notifier,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AdminService {
	return &AdminService{
		users:       users,
		mills:       mills,
		notifier:    notifier,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return users, nil
}

func (s *AdminService) SetUserStatus(ctx context.Context, actor *models.User, id string, status models.AccountStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, models.ErrBadRequest
	}

	user, err := s.users.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update user status", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogStatusChange(ctx, pkglogger.StatusChange{
		Kind: "account_status_changed", ActorID: actor.ID, TargetID: user.ID, Status: string(status),
	})

	if err := s.notifier.AccountStatusChanged(ctx, user); err != nil {
		s.logger.Warn("failed to notify user", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	return user, nil
}

// ListMills returns every mill with its owner's username and email.
func (s *AdminService) ListMills(ctx context.Context) ([]*models.Mill, error) {
	mills, err := s.mills.ListWithOwners(ctx, models.MillFilter{})
	if err != nil {
		s.logger.Error("failed to list mills", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return mills, nil
}

func (s *AdminService) SetMillVerification(ctx context.Context, actor *models.User, id string, status models.VerificationStatus) (*models.Mill, error) {
	if !status.Valid() {
		return nil, models.ErrBadRequest
	}

	mill, err := s.mills.UpdateVerification(ctx, id, status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update mill verification", slog.String("mill_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogStatusChange(ctx, pkglogger.StatusChange{
		Kind: "mill_verification_changed", ActorID: actor.ID, TargetID: mill.ID, Status: string(status),
	})

	owner, err := s.users.GetByID(ctx, mill.OwnerID)
	if err != nil {
		s.logger.Warn("failed to load mill owner for notification", slog.String("mill_id", mill.ID), slog.Any("error", err))
		return mill, nil
	}
	if err := s.notifier.MillVerificationChanged(ctx, owner, mill); err != nil {
		s.logger.Warn("failed to notify mill owner", slog.String("mill_id", mill.ID), slog.Any("error", err))
	}
	return mill, nil
}
