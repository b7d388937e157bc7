package location

import (
	"context"
	"log/slog"
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
	"github.com/qu-security/guardforce/pkg/logger"
)

type UpdateLocationDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	OnShift   bool    `json:"on_shift"`
}

func (d *UpdateLocationDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("latitude", d.Latitude).FloatRange(-90, 90)
	validator.Field("longitude", d.Longitude).FloatRange(-180, 180)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type PermissionChecker interface {
	IsAdminOrManager(userID int64) (bool, error)
}

// ProfileResolver ties the caller to a guard profile; only the guard
// itself may report its position.
type ProfileResolver interface {
	GuardIDByUserID(userID int64) (int64, bool, error)
}

type Service struct {
	cache    Cache
	perms    PermissionChecker
	profiles ProfileResolver
	logger   *slog.Logger
}

func NewService(cache Cache, perms PermissionChecker, profiles ProfileResolver, log *slog.Logger) *Service {
	if log == nil {
		log = logger.LoggerWrapper()
		if log == nil {
			log = slog.Default()
		}
	}
	return &Service{cache: cache, perms: perms, profiles: profiles, logger: log}
}

// Update records the caller's position. Admins and managers may write any
// guard's entry, everyone else only their own.
func (s *Service) Update(ctx context.Context, callerID int64, guardID int64, dto *UpdateLocationDTO) (*Location, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.requireSelfOrManager(callerID, guardID); err != nil {
		return nil, err
	}

	loc := &Location{
		GuardID:   guardID,
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
		OnShift:   dto.OnShift,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, loc); err != nil {
		s.logger.Error("failed to store guard location", "error", err, "guard_id", guardID)
		return nil, internal.NewInternalError("failed to store location", err)
	}
	return loc, nil
}

// Get returns one guard's cached position under the same self-or-manager
// rule as Update.
func (s *Service) Get(ctx context.Context, callerID int64, guardID int64) (*Location, error) {
	if err := s.requireSelfOrManager(callerID, guardID); err != nil {
		return nil, err
	}

	loc, found, err := s.cache.Get(ctx, guardID)
	if err != nil {
		s.logger.Error("failed to read guard location", "error", err, "guard_id", guardID)
		return nil, internal.NewInternalError("failed to read location", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("no cached location for guard", internal.ErrCodeGuardNotFound)
	}
	return loc, nil
}

// All returns every cached position. Dispatch view, admin and manager
// only.
func (s *Service) All(ctx context.Context, callerID int64) ([]*Location, error) {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !allowed {
		return nil, internal.NewForbiddenError("only admins and managers may list guard locations", internal.ErrCodePermissionDenied)
	}

	locations, err := s.cache.All(ctx)
	if err != nil {
		s.logger.Error("failed to list guard locations", "error", err)
		return nil, internal.NewInternalError("failed to list locations", err)
	}
	return locations, nil
}

func (s *Service) requireSelfOrManager(callerID int64, guardID int64) error {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if allowed {
		return nil
	}

	ownGuardID, ok, err := s.profiles.GuardIDByUserID(callerID)
	if err != nil {
		return internal.NewInternalError("failed to resolve guard profile", err)
	}
	if !ok || ownGuardID != guardID {
		return internal.NewForbiddenError("guards may only touch their own location", internal.ErrCodePermissionDenied)
	}
	return nil
}
