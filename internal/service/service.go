package service

import (
	"log/slog"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/pkg/logger"
)

// Filter narrows engagement listings beyond the caller's permissions.
type Filter struct {
	GuardID    *int64
	PropertyID *int64
}

type Repository interface {
	Create(gs *GuardService) error
	GetByID(id int64) (*GuardService, bool, error)
	List(q listing.Query, f Filter) ([]*GuardService, error)
	Update(gs *GuardService) error
	SetActive(id int64, active bool) error
	Shifts(serviceID int64) ([]*ServiceShift, error)
	GuardExists(guardID int64) (bool, error)
	PropertyExists(propertyID int64) (bool, error)
}

// PermissionChecker is the decision engine surface this module needs. Every
// engagement action goes through the resource table, there is no row
// scoping.
type PermissionChecker interface {
	HasResourcePermission(userID int64, resourceType permissions.ResourceType, action permissions.Action, resourceID *int64) (bool, error)
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

func (s *Service) List(callerID int64, q listing.Query, f Filter) ([]*GuardService, error) {
	if err := s.requirePermission(callerID, permissions.ActionRead, nil); err != nil {
		return nil, err
	}

	q = q.Normalize()
	if q.IncludeInactive {
		isManager, err := s.perms.IsAdminOrManager(callerID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		if !isManager {
			q.IncludeInactive = false
		}
	}

	services, err := s.repo.List(q, f)
	if err != nil {
		s.logger.Error("failed to list services", "error", err)
		return nil, internal.NewInternalError("failed to list services", err)
	}
	return services, nil
}

func (s *Service) GetByID(callerID int64, id int64) (*GuardService, error) {
	if err := s.requirePermission(callerID, permissions.ActionRead, &id); err != nil {
		return nil, err
	}
	return s.loadService(id)
}

func (s *Service) Create(callerID int64, dto *CreateServiceDTO) (*GuardService, error) {
	if err := s.requirePermission(callerID, permissions.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(dto.GuardID, dto.PropertyID); err != nil {
		return nil, err
	}

	contractStart, _ := parseDate("contract_start_date", dto.ContractStartDate)
	startDate, _ := parseDate("start_date", dto.StartDate)
	endDate, _ := parseDate("end_date", dto.EndDate)

	gs := &GuardService{
		Name:              dto.Name,
		Description:       dto.Description,
		GuardID:           dto.GuardID,
		PropertyID:        dto.PropertyID,
		Rate:              dto.Rate,
		MonthlyBudget:     dto.MonthlyBudget,
		ContractStartDate: contractStart,
		Schedule:          dto.Schedule,
		Recurrent:         dto.Recurrent,
		StartTime:         dto.StartTime,
		EndTime:           dto.EndTime,
		Weekly:            dto.Weekly,
		StartDate:         startDate,
		EndDate:           endDate,
		TotalHours:        dto.ScheduledTotalHours,
		IsActive:          true,
	}
	if err := s.repo.Create(gs); err != nil {
		s.logger.Error("failed to create service", "name", dto.Name, "error", err)
		return nil, internal.NewInternalError("failed to create service", err)
	}

	s.logger.Info("service created", "service_id", gs.ID, "name", gs.Name, "created_by", callerID)
	return gs, nil
}

func (s *Service) Update(callerID int64, id int64, dto *UpdateServiceDTO) (*GuardService, error) {
	if err := s.requirePermission(callerID, permissions.ActionUpdate, &id); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	gs, err := s.loadService(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(dto.GuardID, dto.PropertyID); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		gs.Name = *dto.Name
	}
	if dto.Description != nil {
		gs.Description = *dto.Description
	}
	if dto.GuardID != nil {
		gs.GuardID = dto.GuardID
	}
	if dto.PropertyID != nil {
		gs.PropertyID = dto.PropertyID
	}
	if dto.Rate != nil {
		gs.Rate = dto.Rate
	}
	if dto.MonthlyBudget != nil {
		gs.MonthlyBudget = dto.MonthlyBudget
	}
	if dto.ContractStartDate != nil {
		gs.ContractStartDate, _ = parseDate("contract_start_date", dto.ContractStartDate)
	}
	if dto.Schedule != nil {
		gs.Schedule = dto.Schedule
	}
	if dto.Recurrent != nil {
		gs.Recurrent = *dto.Recurrent
	}
	if dto.StartTime != nil {
		gs.StartTime = dto.StartTime
	}
	if dto.EndTime != nil {
		gs.EndTime = dto.EndTime
	}
	if dto.Weekly != nil {
		gs.Weekly = dto.Weekly
		gs.WeeklyDisplay = WeeklyDisplayText(dto.Weekly)
	}
	if dto.StartDate != nil {
		gs.StartDate, _ = parseDate("start_date", dto.StartDate)
	}
	if dto.EndDate != nil {
		gs.EndDate, _ = parseDate("end_date", dto.EndDate)
	}
	if dto.ScheduledTotalHours != nil {
		gs.TotalHours = *dto.ScheduledTotalHours
	}

	if err := s.repo.Update(gs); err != nil {
		s.logger.Error("failed to update service", "service_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update service", err)
	}

	s.logger.Info("service updated", "service_id", id, "updated_by", callerID)
	return gs, nil
}

func (s *Service) Delete(callerID int64, id int64) error {
	if err := s.requirePermission(callerID, permissions.ActionDelete, &id); err != nil {
		return err
	}
	if _, err := s.loadService(id); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, false); err != nil {
		s.logger.Error("failed to soft delete service", "service_id", id, "error", err)
		return internal.NewInternalError("failed to delete service", err)
	}
	return nil
}

// Restore is gated like an edit rather than a read: bringing an engagement
// back changes state.
func (s *Service) Restore(callerID int64, id int64) error {
	if err := s.requirePermission(callerID, permissions.ActionUpdate, &id); err != nil {
		return err
	}
	if _, err := s.loadService(id); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, true); err != nil {
		s.logger.Error("failed to restore service", "service_id", id, "error", err)
		return internal.NewInternalError("failed to restore service", err)
	}
	return nil
}

// Shifts lists the shifts worked under one engagement, most recent first.
func (s *Service) Shifts(callerID int64, id int64) ([]*ServiceShift, error) {
	if err := s.requirePermission(callerID, permissions.ActionRead, &id); err != nil {
		return nil, err
	}
	if _, err := s.loadService(id); err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shifts(id)
	if err != nil {
		s.logger.Error("failed to list service shifts", "service_id", id, "error", err)
		return nil, internal.NewInternalError("failed to list service shifts", err)
	}
	return shifts, nil
}

func (s *Service) requirePermission(callerID int64, action permissions.Action, resourceID *int64) error {
	allowed, err := s.perms.HasResourcePermission(callerID, permissions.ResourceService, action, resourceID)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !allowed {
		return internal.ErrPermissionDenied
	}
	return nil
}

func (s *Service) loadService(id int64) (*GuardService, error) {
	gs, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load service", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("service not found", internal.ErrCodeServiceNotFound)
	}
	return gs, nil
}

func (s *Service) checkReferences(guardID, propertyID *int64) error {
	if guardID != nil {
		exists, err := s.repo.GuardExists(*guardID)
		if err != nil {
			return internal.NewInternalError("failed to verify guard", err)
		}
		if !exists {
			return internal.NewValidationFieldError("guard_id", "guard does not exist", internal.ErrCodeGuardNotFound)
		}
	}
	if propertyID != nil {
		exists, err := s.repo.PropertyExists(*propertyID)
		if err != nil {
			return internal.NewInternalError("failed to verify property", err)
		}
		if !exists {
			return internal.NewValidationFieldError("property_id", "property does not exist", internal.ErrCodePropertyNotFound)
		}
	}
	return nil
}
