package tariff

import (
	"log/slog"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/pkg/logger"
)

// Filter narrows a tariff listing to one guard or one property. Nil fields
// do not constrain.
type Filter struct {
	GuardID    *int64
	PropertyID *int64
}

type Repository interface {
	Create(t *Tariff) error
	GetByID(id int64) (*Tariff, bool, error)
	List(q listing.Query, rf permissions.RowFilter, f Filter) ([]*Tariff, error)
	Update(t *Tariff) error
	Deactivate(id int64) error
	Activate(id int64) error
	GuardExists(guardID int64) (bool, error)
	PropertyOwner(propertyID int64) (int64, bool, error)
}

type PermissionChecker interface {
	IsAdminOrManager(userID int64) (bool, error)
}

// ProfileResolver finds the caller's profiles. Tariff visibility follows
// the profile, not the role: a client sees the tariffs on their properties,
// a guard sees their own rates.
type ProfileResolver interface {
	ClientIDByUserID(userID int64) (int64, bool, error)
	GuardIDByUserID(userID int64) (int64, bool, error)
}

type Service struct {
	repo     Repository
	perms    PermissionChecker
	profiles ProfileResolver
	logger   *slog.Logger
}

func NewService(repo Repository, perms PermissionChecker, profiles ProfileResolver, log *slog.Logger) *Service {
	if log == nil {
		log = logger.LoggerWrapper()
		if log == nil {
			log = slog.Default()
		}
	}
	return &Service{repo: repo, perms: perms, profiles: profiles, logger: log}
}

func (s *Service) List(callerID int64, q listing.Query, f Filter) ([]*Tariff, error) {
	q = q.Normalize()
	if q.IncludeInactive {
		allowed, err := s.perms.IsAdminOrManager(callerID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		q.IncludeInactive = allowed
	}

	rf, err := s.listScope(callerID)
	if err != nil {
		return nil, err
	}
	if rf.Scope == permissions.ScopeNone {
		return []*Tariff{}, nil
	}

	tariffs, err := s.repo.List(q, rf, f)
	if err != nil {
		s.logger.Error("failed to list tariffs", "error", err)
		return nil, internal.NewInternalError("failed to list tariffs", err)
	}
	return tariffs, nil
}

// GetByID hides tariffs outside the caller's visibility: an id the caller
// cannot see reads as missing rather than forbidden.
func (s *Service) GetByID(callerID int64, id int64) (*Tariff, error) {
	return s.visibleTariff(callerID, id)
}

// Create sets a guard's rate at a property. Admins and managers may price
// any property; a client may only price their own. The new tariff becomes
// the pair's active rate and retires any previous one.
func (s *Service) Create(callerID int64, dto *CreateTariffDTO) (*Tariff, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	owner, found, err := s.repo.PropertyOwner(dto.PropertyID)
	if err != nil {
		return nil, internal.NewInternalError("failed to create tariff", err)
	}
	if !found {
		return nil, internal.NewValidationFieldError("property_id", "property does not exist", internal.ErrCodePropertyNotFound)
	}
	exists, err := s.repo.GuardExists(dto.GuardID)
	if err != nil {
		return nil, internal.NewInternalError("failed to create tariff", err)
	}
	if !exists {
		return nil, internal.NewValidationFieldError("guard_id", "guard does not exist", internal.ErrCodeGuardNotFound)
	}

	if err := s.requireOwnership(callerID, owner); err != nil {
		return nil, err
	}

	t := &Tariff{
		GuardID:    dto.GuardID,
		PropertyID: dto.PropertyID,
		Rate:       *dto.Rate,
		IsActive:   true,
	}
	if err := s.repo.Create(t); err != nil {
		s.logger.Error("failed to create tariff", "guard_id", dto.GuardID, "property_id", dto.PropertyID, "error", err)
		return nil, internal.NewInternalError("failed to create tariff", err)
	}

	s.logger.Info("tariff created", "tariff_id", t.ID, "guard_id", t.GuardID, "property_id", t.PropertyID, "rate", t.Rate)
	return t, nil
}

func (s *Service) Update(callerID int64, id int64, dto *UpdateTariffDTO) (*Tariff, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.visibleTariff(callerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(callerID, t.PropertyOwnerID); err != nil {
		return nil, err
	}

	if dto.PropertyID != nil && *dto.PropertyID != t.PropertyID {
		owner, found, err := s.repo.PropertyOwner(*dto.PropertyID)
		if err != nil {
			return nil, internal.NewInternalError("failed to update tariff", err)
		}
		if !found {
			return nil, internal.NewValidationFieldError("property_id", "property does not exist", internal.ErrCodePropertyNotFound)
		}
		// Moving a tariff is pricing the target property, so the same
		// ownership rule applies there.
		if err := s.requireOwnership(callerID, owner); err != nil {
			return nil, err
		}
		t.PropertyID = *dto.PropertyID
	}
	if dto.GuardID != nil && *dto.GuardID != t.GuardID {
		exists, err := s.repo.GuardExists(*dto.GuardID)
		if err != nil {
			return nil, internal.NewInternalError("failed to update tariff", err)
		}
		if !exists {
			return nil, internal.NewValidationFieldError("guard_id", "guard does not exist", internal.ErrCodeGuardNotFound)
		}
		t.GuardID = *dto.GuardID
	}
	if dto.Rate != nil {
		t.Rate = *dto.Rate
	}
	if dto.IsActive != nil {
		t.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to update tariff", "tariff_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update tariff", err)
	}
	return t, nil
}

// Delete retires a tariff. The pair is left without an active rate until a
// new one is created or an old one restored.
func (s *Service) Delete(callerID int64, id int64) error {
	t, err := s.visibleTariff(callerID, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(callerID, t.PropertyOwnerID); err != nil {
		return err
	}
	if err := s.repo.Deactivate(id); err != nil {
		s.logger.Error("failed to deactivate tariff", "tariff_id", id, "error", err)
		return internal.NewInternalError("failed to delete tariff", err)
	}
	return nil
}

// Restore reactivates a retired tariff, making it the pair's current rate
// and retiring whichever one held that place.
func (s *Service) Restore(callerID int64, id int64) error {
	t, err := s.visibleTariff(callerID, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(callerID, t.PropertyOwnerID); err != nil {
		return err
	}
	if err := s.repo.Activate(id); err != nil {
		s.logger.Error("failed to activate tariff", "tariff_id", id, "error", err)
		return internal.NewInternalError("failed to restore tariff", err)
	}
	return nil
}

// listScope maps the caller onto a row filter. Admins and managers see
// everything, a client profile sees its properties' tariffs, a guard
// profile sees its own, anyone else sees nothing. The client profile wins
// when a user carries both.
func (s *Service) listScope(callerID int64) (permissions.RowFilter, error) {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return permissions.FilterNone(), internal.NewInternalError("failed to check permissions", err)
	}
	if allowed {
		return permissions.FilterAll(), nil
	}

	clientID, ok, err := s.profiles.ClientIDByUserID(callerID)
	if err != nil {
		return permissions.FilterNone(), internal.NewInternalError("failed to resolve client profile", err)
	}
	if ok {
		return permissions.FilterOwnerClient(clientID), nil
	}

	guardID, ok, err := s.profiles.GuardIDByUserID(callerID)
	if err != nil {
		return permissions.FilterNone(), internal.NewInternalError("failed to resolve guard profile", err)
	}
	if ok {
		return permissions.FilterSelfGuard(guardID), nil
	}
	return permissions.FilterNone(), nil
}

func (s *Service) visibleTariff(callerID int64, id int64) (*Tariff, error) {
	t, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load tariff", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("tariff not found", internal.ErrCodeTariffNotFound)
	}

	rf, err := s.listScope(callerID)
	if err != nil {
		return nil, err
	}
	if !scopeCovers(rf, t) {
		return nil, internal.NewNotFoundError("tariff not found", internal.ErrCodeTariffNotFound)
	}
	return t, nil
}

// requireOwnership lets admins, managers and the client owning the priced
// property through. Guards cannot set their own rates.
func (s *Service) requireOwnership(callerID int64, propertyOwnerID int64) error {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if allowed {
		return nil
	}

	clientID, ok, err := s.profiles.ClientIDByUserID(callerID)
	if err != nil {
		return internal.NewInternalError("failed to resolve client profile", err)
	}
	if !ok {
		return internal.ErrPermissionDenied
	}
	if clientID != propertyOwnerID {
		return internal.NewForbiddenError("you can only manage tariffs for your own properties", internal.ErrCodeNotPropertyOwner)
	}
	return nil
}

func scopeCovers(rf permissions.RowFilter, t *Tariff) bool {
	switch rf.Scope {
	case permissions.ScopeAll:
		return true
	case permissions.ScopeOwnerClient:
		return rf.ClientID == t.PropertyOwnerID
	case permissions.ScopeSelfGuard:
		return rf.GuardID == t.GuardID
	}
	return false
}
