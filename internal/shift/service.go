package shift

import (
	"log/slog"
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/pkg/logger"
)

// Filter narrows a shift listing to one guard, property or service. Nil
// fields do not constrain.
type Filter struct {
	GuardID    *int64
	PropertyID *int64
	ServiceID  *int64
}

type Repository interface {
	Create(sh *Shift) error
	GetByID(id int64) (*Shift, bool, error)
	List(q listing.Query, rf permissions.RowFilter, f Filter) ([]*Shift, error)
	Update(sh *Shift) error
	SetActive(id int64, active bool) error
	NextShift(guardID int64, after time.Time) (*Shift, bool, error)
	GuardExists(guardID int64) (bool, error)
	PropertyExists(propertyID int64) (bool, error)
}

type PermissionChecker interface {
	ReadScope(userID int64, resourceType permissions.ResourceType) (permissions.RowFilter, error)
	IsAdminOrManager(userID int64) (bool, error)
}

// ProfileResolver finds the caller's guard profile, which decides whether
// they count as the assigned guard of a shift.
type ProfileResolver interface {
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

func (s *Service) List(callerID int64, q listing.Query, f Filter) ([]*Shift, error) {
	q = q.Normalize()
	if q.IncludeInactive {
		allowed, err := s.perms.IsAdminOrManager(callerID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		q.IncludeInactive = allowed
	}

	rf, err := s.perms.ReadScope(callerID, permissions.ResourceShift)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve read scope", err)
	}
	if rf.Scope == permissions.ScopeNone {
		return []*Shift{}, nil
	}

	shifts, err := s.repo.List(q, rf, f)
	if err != nil {
		s.logger.Error("failed to list shifts", "error", err)
		return nil, internal.NewInternalError("failed to list shifts", err)
	}
	return shifts, nil
}

// GetByID hides shifts outside the caller's read scope: an id the caller
// cannot see reads as missing rather than forbidden.
func (s *Service) GetByID(callerID int64, id int64) (*Shift, error) {
	return s.visibleShift(callerID, id)
}

// Create is open to any authenticated caller; scheduling on behalf of
// another guard is deliberately allowed. The referenced guard and property
// must exist, hour counters are derived from the timestamps.
func (s *Service) Create(callerID int64, dto *CreateShiftDTO) (*Shift, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(dto.GuardID, dto.PropertyID); err != nil {
		return nil, err
	}

	status := dto.Status
	if status == "" {
		status = StatusScheduled
	}

	sh := &Shift{
		GuardID:          dto.GuardID,
		PropertyID:       dto.PropertyID,
		ServiceID:        dto.ServiceID,
		WeaponID:         dto.WeaponID,
		IsArmed:          dto.IsArmed,
		PlannedStartTime: dto.PlannedStartTime,
		PlannedEndTime:   dto.PlannedEndTime,
		ActualStartTime:  dto.ActualStartTime,
		ActualEndTime:    dto.ActualEndTime,
		Status:           status,
		IsActive:         true,
	}
	sh.Recalculate()

	if err := s.repo.Create(sh); err != nil {
		s.logger.Error("failed to create shift", "guard_id", dto.GuardID, "property_id", dto.PropertyID, "error", err)
		return nil, internal.NewInternalError("failed to create shift", err)
	}

	s.logger.Info("shift created", "shift_id", sh.ID, "guard_id", sh.GuardID, "property_id", sh.PropertyID, "created_by", callerID)
	return sh, nil
}

func (s *Service) Update(callerID int64, id int64, dto *UpdateShiftDTO) (*Shift, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	sh, err := s.visibleShift(callerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignedOrManager(callerID, sh); err != nil {
		return nil, err
	}

	if dto.GuardID != nil && *dto.GuardID != sh.GuardID {
		exists, err := s.repo.GuardExists(*dto.GuardID)
		if err != nil {
			return nil, internal.NewInternalError("failed to update shift", err)
		}
		if !exists {
			return nil, internal.NewValidationFieldError("guard_id", "guard does not exist", internal.ErrCodeGuardNotFound)
		}
		sh.GuardID = *dto.GuardID
	}
	if dto.PropertyID != nil && *dto.PropertyID != sh.PropertyID {
		exists, err := s.repo.PropertyExists(*dto.PropertyID)
		if err != nil {
			return nil, internal.NewInternalError("failed to update shift", err)
		}
		if !exists {
			return nil, internal.NewValidationFieldError("property_id", "property does not exist", internal.ErrCodePropertyNotFound)
		}
		sh.PropertyID = *dto.PropertyID
	}
	if dto.ServiceID != nil {
		sh.ServiceID = dto.ServiceID
	}
	if dto.WeaponID != nil {
		sh.WeaponID = dto.WeaponID
	}
	if dto.IsArmed != nil {
		sh.IsArmed = *dto.IsArmed
	}
	if dto.PlannedStartTime != nil {
		sh.PlannedStartTime = dto.PlannedStartTime
	}
	if dto.PlannedEndTime != nil {
		sh.PlannedEndTime = dto.PlannedEndTime
	}
	if dto.ActualStartTime != nil {
		sh.ActualStartTime = dto.ActualStartTime
	}
	if dto.ActualEndTime != nil {
		sh.ActualEndTime = dto.ActualEndTime
	}
	if dto.Status != nil {
		sh.Status = *dto.Status
	}
	sh.Recalculate()

	if err := s.repo.Update(sh); err != nil {
		s.logger.Error("failed to update shift", "shift_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update shift", err)
	}
	return sh, nil
}

func (s *Service) Delete(callerID int64, id int64) error {
	sh, err := s.visibleShift(callerID, id)
	if err != nil {
		return err
	}
	if err := s.requireAssignedOrManager(callerID, sh); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, false); err != nil {
		s.logger.Error("failed to soft delete shift", "shift_id", id, "error", err)
		return internal.NewInternalError("failed to delete shift", err)
	}
	return nil
}

// Restore is gated like an edit: only the assigned guard or a manager can
// bring a voided-out row back.
func (s *Service) Restore(callerID int64, id int64) error {
	sh, err := s.visibleShift(callerID, id)
	if err != nil {
		return err
	}
	if err := s.requireAssignedOrManager(callerID, sh); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, true); err != nil {
		s.logger.Error("failed to restore shift", "shift_id", id, "error", err)
		return internal.NewInternalError("failed to restore shift", err)
	}
	return nil
}

// NextShift returns the guard's earliest scheduled shift whose planned
// start is still ahead of the clock. Any authenticated caller may ask for
// any guard, matching the mobile check-in flow.
func (s *Service) NextShift(guardID int64) (*Shift, error) {
	sh, found, err := s.repo.NextShift(guardID, time.Now())
	if err != nil {
		return nil, internal.NewInternalError("failed to find next shift", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("no scheduled shifts found for this guard", internal.ErrCodeShiftNotFound)
	}
	return sh, nil
}

func (s *Service) visibleShift(callerID int64, id int64) (*Shift, error) {
	sh, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load shift", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("shift not found", internal.ErrCodeShiftNotFound)
	}

	rf, err := s.perms.ReadScope(callerID, permissions.ResourceShift)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve read scope", err)
	}
	if !scopeCovers(rf, sh) {
		return nil, internal.NewNotFoundError("shift not found", internal.ErrCodeShiftNotFound)
	}
	return sh, nil
}

// requireAssignedOrManager lets the assigned guard and admins or managers
// through; everyone else who can see the row still cannot change it.
func (s *Service) requireAssignedOrManager(callerID int64, sh *Shift) error {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if allowed {
		return nil
	}

	guardID, ok, err := s.profiles.GuardIDByUserID(callerID)
	if err != nil {
		return internal.NewInternalError("failed to resolve guard profile", err)
	}
	if ok && guardID == sh.GuardID {
		return nil
	}
	return internal.ErrPermissionDenied
}

func scopeCovers(rf permissions.RowFilter, sh *Shift) bool {
	switch rf.Scope {
	case permissions.ScopeAll:
		return true
	case permissions.ScopeSelfGuard:
		return rf.GuardID == sh.GuardID
	case permissions.ScopeOwnerClient:
		return rf.ClientID == sh.PropertyOwnerID
	}
	return false
}

func (s *Service) checkReferences(guardID, propertyID int64) error {
	exists, err := s.repo.GuardExists(guardID)
	if err != nil {
		return internal.NewInternalError("failed to create shift", err)
	}
	if !exists {
		return internal.NewValidationFieldError("guard_id", "guard does not exist", internal.ErrCodeGuardNotFound)
	}

	exists, err = s.repo.PropertyExists(propertyID)
	if err != nil {
		return internal.NewInternalError("failed to create shift", err)
	}
	if !exists {
		return internal.NewValidationFieldError("property_id", "property does not exist", internal.ErrCodePropertyNotFound)
	}
	return nil
}
