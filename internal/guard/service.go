package guard

import (
	"log/slog"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/pkg/logger"
)

type Repository interface {
	// Create inserts a profile for an existing user account.
	Create(g *Guard) error
	// CreateWithUser inserts a fresh user account and the profile in one
	// transaction. The username comes from the email local part and the
	// password stays unset.
	CreateWithUser(g *Guard) error
	GetByID(id int64) (*Guard, bool, error)
	List(q listing.Query, rf permissions.RowFilter) ([]*Guard, error)
	Update(g *Guard) error
	SetActive(id int64, active bool) error
	ShiftsCount(guardID int64) (int64, error)
	PropertiesShifts(guardID int64) ([]*PropertyShifts, error)
	HasProfile(userID int64) (bool, error)
	UserExists(userID int64) (bool, error)
	EmailInUse(email string, excludeUserID int64) (bool, error)
}

// PermissionChecker is the slice of the permission engine this service
// needs: the mutation gate and the listing scope.
type PermissionChecker interface {
	IsAdminOrManager(userID int64) (bool, error)
	ReadScope(userID int64, resourceType permissions.ResourceType) (permissions.RowFilter, error)
}

// RoleAssigner grants the guard role to the profile's user. Satisfied by
// the permissions service so the two-step assignment and its audit trail
// stay in one place.
type RoleAssigner interface {
	AssignRole(dto permissions.AssignRoleDTO, performedBy int64) (*permissions.RoleAssignmentResponse, error)
}

type Service struct {
	repo   Repository
	perms  PermissionChecker
	roles  RoleAssigner
	logger *slog.Logger
}

func NewService(repo Repository, perms PermissionChecker, roles RoleAssigner, log *slog.Logger) *Service {
	if log == nil {
		log = logger.LoggerWrapper()
		if log == nil {
			log = slog.Default()
		}
	}
	return &Service{repo: repo, perms: perms, roles: roles, logger: log}
}

// List narrows the result to what the caller may see: admins and managers
// get everything, guards see themselves, clients see the guards serving
// their properties through active tariffs.
func (s *Service) List(callerID int64, q listing.Query) ([]*Guard, error) {
	q = q.Normalize()
	if q.IncludeInactive {
		allowed, err := s.perms.IsAdminOrManager(callerID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		q.IncludeInactive = allowed
	}

	rf, err := s.perms.ReadScope(callerID, permissions.ResourceGuard)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve read scope", err)
	}
	if rf.Scope == permissions.ScopeNone {
		return []*Guard{}, nil
	}

	guards, err := s.repo.List(q, rf)
	if err != nil {
		s.logger.Error("failed to list guards", "error", err)
		return nil, internal.NewInternalError("failed to list guards", err)
	}
	return guards, nil
}

func (s *Service) GetByID(callerID int64, id int64) (*Detail, error) {
	g, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get guard", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("guard not found", internal.ErrCodeGuardNotFound)
	}

	count, err := s.repo.ShiftsCount(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to count shifts", err)
	}
	return &Detail{Guard: *g, ShiftsCount: count}, nil
}

func (s *Service) Create(callerID int64, dto *CreateGuardDTO) (*Guard, error) {
	if err := s.requireAdminOrManager(callerID); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	birthDate, err := parseBirthDate(dto.BirthDate)
	if err != nil {
		return nil, err
	}

	g := &Guard{
		Email:     dto.Email,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Phone:     dto.Phone,
		SSN:       dto.SSN,
		Address:   dto.Address,
		BirthDate: birthDate,
		IsActive:  true,
	}

	if dto.UserID != nil {
		if err := s.createForExistingUser(g, *dto.UserID); err != nil {
			return nil, err
		}
	} else {
		if err := s.createWithNewUser(g); err != nil {
			return nil, err
		}
	}

	// Both flows leave the target user holding the guard role.
	if _, err := s.roles.AssignRole(permissions.AssignRoleDTO{
		UserID: g.UserID,
		Role:   string(permissions.RoleGuard),
		Reason: "guard profile created",
	}, callerID); err != nil {
		s.logger.Error("failed to assign guard role", "user_id", g.UserID, "error", err)
		return nil, internal.NewInternalError("failed to assign guard role", err)
	}

	s.logger.Info("guard created", "guard_id", g.ID, "user_id", g.UserID, "created_by", callerID)
	return g, nil
}

func (s *Service) createForExistingUser(g *Guard, userID int64) error {
	exists, err := s.repo.UserExists(userID)
	if err != nil {
		return internal.NewInternalError("failed to create guard", err)
	}
	if !exists {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	hasProfile, err := s.repo.HasProfile(userID)
	if err != nil {
		return internal.NewInternalError("failed to create guard", err)
	}
	if hasProfile {
		return internal.NewConflictError("this user already has a guard profile", internal.ErrCodeDuplicateProfile)
	}

	g.UserID = userID
	if err := s.repo.Create(g); err != nil {
		s.logger.Error("failed to create guard", "user_id", userID, "error", err)
		return internal.NewInternalError("failed to create guard", err)
	}
	return nil
}

func (s *Service) createWithNewUser(g *Guard) error {
	taken, err := s.repo.EmailInUse(g.Email, 0)
	if err != nil {
		return internal.NewInternalError("failed to create guard", err)
	}
	if taken {
		return internal.NewConflictError("email is already in use", internal.ErrCodeDuplicateEmail)
	}

	if err := s.repo.CreateWithUser(g); err != nil {
		s.logger.Error("failed to create guard with user", "email", g.Email, "error", err)
		return internal.NewInternalError("failed to create guard", err)
	}
	return nil
}

func (s *Service) Update(callerID int64, id int64, dto *UpdateGuardDTO) (*Guard, error) {
	if err := s.requireAdminOrManager(callerID); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	g, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get guard", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("guard not found", internal.ErrCodeGuardNotFound)
	}

	if dto.Email != nil && *dto.Email != g.Email {
		taken, err := s.repo.EmailInUse(*dto.Email, g.UserID)
		if err != nil {
			return nil, internal.NewInternalError("failed to update guard", err)
		}
		if taken {
			return nil, internal.NewConflictError("email is already in use", internal.ErrCodeDuplicateEmail)
		}
		g.Email = *dto.Email
	}
	if dto.FirstName != nil {
		g.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		g.LastName = *dto.LastName
	}
	if dto.Phone != nil {
		g.Phone = *dto.Phone
	}
	if dto.SSN != nil {
		g.SSN = *dto.SSN
	}
	if dto.Address != nil {
		g.Address = *dto.Address
	}
	if dto.BirthDate != nil {
		birthDate, err := parseBirthDate(dto.BirthDate)
		if err != nil {
			return nil, err
		}
		g.BirthDate = birthDate
	}

	if err := s.repo.Update(g); err != nil {
		s.logger.Error("failed to update guard", "guard_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update guard", err)
	}
	return g, nil
}

func (s *Service) Delete(callerID int64, id int64) error {
	return s.setActive(callerID, id, false)
}

func (s *Service) Restore(callerID int64, id int64) error {
	return s.setActive(callerID, id, true)
}

func (s *Service) setActive(callerID int64, id int64, active bool) error {
	if err := s.requireAdminOrManager(callerID); err != nil {
		return err
	}
	_, found, err := s.repo.GetByID(id)
	if err != nil {
		return internal.NewInternalError("failed to get guard", err)
	}
	if !found {
		return internal.NewNotFoundError("guard not found", internal.ErrCodeGuardNotFound)
	}
	if err := s.repo.SetActive(id, active); err != nil {
		s.logger.Error("failed to change guard active state", "guard_id", id, "active", active, "error", err)
		return internal.NewInternalError("failed to update guard", err)
	}
	return nil
}

// PropertiesShifts returns the guard's shifts grouped by the property they
// were worked at.
func (s *Service) PropertiesShifts(callerID int64, id int64) (*Workload, error) {
	g, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get guard", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("guard not found", internal.ErrCodeGuardNotFound)
	}

	grouped, err := s.repo.PropertiesShifts(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load guard workload", err)
	}
	return &Workload{Guard: g, PropertiesAndShifts: grouped}, nil
}

func (s *Service) requireAdminOrManager(callerID int64) error {
	allowed, err := s.perms.IsAdminOrManager(callerID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !allowed {
		return internal.ErrPermissionDenied
	}
	return nil
}
