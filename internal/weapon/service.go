package weapon

import (
	"log/slog"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/pkg/logger"
)

// Filter narrows weapon listings beyond the caller's read scope.
type Filter struct {
	GuardID *int64
}

type Repository interface {
	Create(w *Weapon) error
	GetByID(id int64) (*Weapon, bool, error)
	List(q listing.Query, rf permissions.RowFilter, f Filter) ([]*Weapon, error)
	Update(w *Weapon) error
	SetActive(id int64, active bool) error
	GuardExists(guardID int64) (bool, error)
	SerialTaken(guardID int64, serialNumber string, excludeID int64) (bool, error)
}

type PermissionChecker interface {
	IsAdminOrManager(userID int64) (bool, error)
}

type Service struct {
	repo   Repository
	perms  PermissionChecker
	logger *slog.Logger
}

func NewService(repo Repository, perms PermissionChecker, log *slog.Logger) *Service {
	if log == nil {
		log = logger.LoggerWrapper()
		if log == nil {
			log = slog.Default()
		}
	}
	return &Service{repo: repo, perms: perms, logger: log}
}

// List returns the weapon register. The listing filter has no weapon
// branch, so the register opens only to admin or manager standing;
// everyone else gets an empty page rather than an error.
func (s *Service) List(callerID int64, q listing.Query, f Filter) ([]*Weapon, error) {
	q = q.Normalize()

	isManager, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !isManager {
		return []*Weapon{}, nil
	}

	weapons, err := s.repo.List(q, permissions.FilterAll(), f)
	if err != nil {
		s.logger.Error("failed to list weapons", "error", err)
		return nil, internal.NewInternalError("failed to list weapons", err)
	}
	return weapons, nil
}

// GetByID hides weapons from anyone below admin or manager standing: an
// id the caller cannot see reads as missing rather than forbidden.
func (s *Service) GetByID(callerID int64, id int64) (*Weapon, error) {
	isManager, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !isManager {
		return nil, internal.NewNotFoundError("weapon not found", internal.ErrCodeWeaponNotFound)
	}
	return s.loadWeapon(id)
}

func (s *Service) Create(callerID int64, dto *CreateWeaponDTO) (*Weapon, error) {
	if err := s.requireManager(callerID); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.GuardExists(dto.GuardID)
	if err != nil {
		return nil, internal.NewInternalError("failed to verify guard", err)
	}
	if !exists {
		return nil, internal.NewValidationFieldError("guard_id", "guard does not exist", internal.ErrCodeGuardNotFound)
	}

	taken, err := s.repo.SerialTaken(dto.GuardID, dto.SerialNumber, 0)
	if err != nil {
		return nil, internal.NewInternalError("failed to check serial number", err)
	}
	if taken {
		return nil, internal.NewConflictError("this guard already has a weapon with this serial number", internal.ErrCodeDuplicateSerial)
	}

	w := &Weapon{
		GuardID:      dto.GuardID,
		SerialNumber: dto.SerialNumber,
		Model:        dto.Model,
		Caliber:      dto.Caliber,
		PermitNumber: dto.PermitNumber,
		IsActive:     true,
	}
	if err := s.repo.Create(w); err != nil {
		s.logger.Error("failed to create weapon", "guard_id", dto.GuardID, "error", err)
		return nil, internal.NewInternalError("failed to create weapon", err)
	}

	s.logger.Info("weapon registered", "weapon_id", w.ID, "guard_id", w.GuardID, "registered_by", callerID)
	return w, nil
}

func (s *Service) Update(callerID int64, id int64, dto *UpdateWeaponDTO) (*Weapon, error) {
	if err := s.requireManager(callerID); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	w, err := s.loadWeapon(id)
	if err != nil {
		return nil, err
	}

	if dto.SerialNumber != nil && *dto.SerialNumber != w.SerialNumber {
		taken, err := s.repo.SerialTaken(w.GuardID, *dto.SerialNumber, id)
		if err != nil {
			return nil, internal.NewInternalError("failed to check serial number", err)
		}
		if taken {
			return nil, internal.NewConflictError("this guard already has another weapon with this serial number", internal.ErrCodeDuplicateSerial)
		}
		w.SerialNumber = *dto.SerialNumber
	}
	if dto.Model != nil {
		w.Model = *dto.Model
	}
	if dto.Caliber != nil {
		w.Caliber = *dto.Caliber
	}
	if dto.PermitNumber != nil {
		w.PermitNumber = *dto.PermitNumber
	}

	if err := s.repo.Update(w); err != nil {
		s.logger.Error("failed to update weapon", "weapon_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update weapon", err)
	}

	s.logger.Info("weapon updated", "weapon_id", id, "updated_by", callerID)
	return w, nil
}

func (s *Service) Delete(callerID int64, id int64) error {
	if err := s.requireManager(callerID); err != nil {
		return err
	}
	if _, err := s.loadWeapon(id); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, false); err != nil {
		s.logger.Error("failed to soft delete weapon", "weapon_id", id, "error", err)
		return internal.NewInternalError("failed to delete weapon", err)
	}
	return nil
}

func (s *Service) Restore(callerID int64, id int64) error {
	if err := s.requireManager(callerID); err != nil {
		return err
	}
	if _, err := s.loadWeapon(id); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, true); err != nil {
		s.logger.Error("failed to restore weapon", "weapon_id", id, "error", err)
		return internal.NewInternalError("failed to restore weapon", err)
	}
	return nil
}

func (s *Service) requireManager(callerID int64) error {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !allowed {
		return internal.ErrPermissionDenied
	}
	return nil
}

func (s *Service) loadWeapon(id int64) (*Weapon, error) {
	w, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load weapon", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("weapon not found", internal.ErrCodeWeaponNotFound)
	}
	return w, nil
}
