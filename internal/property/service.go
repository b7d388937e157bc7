package property

import (
	"log/slog"
	"strings"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/pkg/logger"
)

type Repository interface {
	Create(p *Property) error
	GetByID(id int64) (*Property, bool, error)
	List(q listing.Query, rf permissions.RowFilter) ([]*Property, error)
	Update(p *Property) error
	SetActive(id int64, active bool) error
	AliasInUse(ownerID int64, alias string, excludeID int64) (bool, error)
	ClientExists(clientID int64) (bool, error)
	Counters(propertyID int64) (shifts int64, expenses int64, totalExpenses float64, err error)
	Shifts(propertyID int64) ([]*ShiftSummary, error)
	Expenses(propertyID int64) ([]*ExpenseSummary, error)
	GuardsShifts(propertyID int64) ([]*GuardShifts, error)
	Types() ([]*TypeOption, error)
}

// PermissionChecker is the slice of the permission engine this service
// needs: row-level decisions, listing scopes and the detail-scope union
// that folds explicit grants in.
type PermissionChecker interface {
	HasResourcePermission(userID int64, resourceType permissions.ResourceType, action permissions.Action, resourceID *int64) (bool, error)
	ReadScope(userID int64, resourceType permissions.ResourceType) (permissions.RowFilter, error)
	PropertyDetailScope(userID int64, actions []permissions.Action) (permissions.RowFilter, []int64, error)
	IsAdminOrManager(userID int64) (bool, error)
}

// ProfileResolver finds the caller's client profile, which decides whether
// a created property is forced to self-ownership.
type ProfileResolver interface {
	ClientIDByUserID(userID int64) (int64, bool, error)
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

func (s *Service) List(callerID int64, q listing.Query) ([]*Property, error) {
	q = q.Normalize()
	if q.IncludeInactive {
		allowed, err := s.perms.IsAdminOrManager(callerID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		q.IncludeInactive = allowed
	}

	rf, err := s.perms.ReadScope(callerID, permissions.ResourceProperty)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve read scope", err)
	}
	if rf.Scope == permissions.ScopeNone {
		return []*Property{}, nil
	}

	properties, err := s.repo.List(q, rf)
	if err != nil {
		s.logger.Error("failed to list properties", "error", err)
		return nil, internal.NewInternalError("failed to list properties", err)
	}
	return properties, nil
}

// GetByID resolves visibility before authority: rows outside the caller's
// detail scope read as missing, visible rows still need a row-level read
// decision.
func (s *Service) GetByID(callerID int64, id int64) (*Detail, error) {
	p, err := s.visibleProperty(callerID, id, []permissions.Action{permissions.ActionRead})
	if err != nil {
		return nil, err
	}
	if err := s.requireRowPermission(callerID, permissions.ActionRead, id); err != nil {
		return nil, err
	}

	shifts, expenses, totalExpenses, err := s.repo.Counters(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load property counters", err)
	}
	return &Detail{
		Property:            *p,
		ShiftsCount:         shifts,
		ExpensesCount:       expenses,
		TotalExpensesAmount: totalExpenses,
	}, nil
}

func (s *Service) Create(callerID int64, dto *CreatePropertyDTO) (*Property, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	contractStart, err := parseDate("contract_start_date", dto.ContractStartDate)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.resolveOwner(callerID, dto.OwnerID)
	if err != nil {
		return nil, err
	}

	alias := normalizeAlias(dto.Alias)
	if alias != nil {
		taken, err := s.repo.AliasInUse(ownerID, *alias, 0)
		if err != nil {
			return nil, internal.NewInternalError("failed to create property", err)
		}
		if taken {
			return nil, internal.NewConflictError("alias must be unique for this owner", internal.ErrCodeDuplicateAlias)
		}
	}

	p := &Property{
		OwnerID:           ownerID,
		Name:              dto.Name,
		Alias:             alias,
		Address:           dto.Address,
		MonthlyRate:       dto.MonthlyRate,
		ContractStartDate: contractStart,
		IsActive:          true,
	}
	if err := s.repo.Create(p); err != nil {
		s.logger.Error("failed to create property", "owner_id", ownerID, "error", err)
		return nil, internal.NewInternalError("failed to create property", err)
	}

	s.logger.Info("property created", "property_id", p.ID, "owner_id", ownerID, "created_by", callerID)
	return p, nil
}

// resolveOwner picks the owning client: a caller with a client profile
// always owns what they create, anyone else needs the create permission
// and must name the owner.
func (s *Service) resolveOwner(callerID int64, requested *int64) (int64, error) {
	clientID, hasProfile, err := s.profiles.ClientIDByUserID(callerID)
	if err != nil {
		return 0, internal.NewInternalError("failed to resolve client profile", err)
	}
	if hasProfile {
		return clientID, nil
	}

	allowed, err := s.perms.HasResourcePermission(callerID, permissions.ResourceProperty, permissions.ActionCreate, nil)
	if err != nil {
		return 0, internal.NewInternalError("failed to check permissions", err)
	}
	if !allowed {
		return 0, internal.ErrPermissionDenied
	}

	if requested == nil {
		return 0, internal.NewValidationFieldError("owner_id", "owner_id is required when the caller has no client profile", internal.ErrCodeValidationFailed)
	}
	exists, err := s.repo.ClientExists(*requested)
	if err != nil {
		return 0, internal.NewInternalError("failed to resolve owner", err)
	}
	if !exists {
		return 0, internal.NewNotFoundError("owner not found", internal.ErrCodeClientNotFound)
	}
	return *requested, nil
}

func (s *Service) Update(callerID int64, id int64, dto *UpdatePropertyDTO) (*Property, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.visibleProperty(callerID, id, []permissions.Action{permissions.ActionUpdate})
	if err != nil {
		return nil, err
	}
	if err := s.requireRowPermission(callerID, permissions.ActionUpdate, id); err != nil {
		return nil, err
	}

	if dto.Name != nil {
		p.Name = *dto.Name
	}
	if dto.Alias != nil {
		alias := normalizeAlias(dto.Alias)
		if alias != nil {
			taken, err := s.repo.AliasInUse(p.OwnerID, *alias, p.ID)
			if err != nil {
				return nil, internal.NewInternalError("failed to update property", err)
			}
			if taken {
				return nil, internal.NewConflictError("alias must be unique for this owner", internal.ErrCodeDuplicateAlias)
			}
		}
		p.Alias = alias
	}
	if dto.Address != nil {
		p.Address = *dto.Address
	}
	if dto.MonthlyRate != nil {
		p.MonthlyRate = dto.MonthlyRate
	}
	if dto.ContractStartDate != nil {
		contractStart, err := parseDate("contract_start_date", dto.ContractStartDate)
		if err != nil {
			return nil, err
		}
		p.ContractStartDate = contractStart
	}

	if err := s.repo.Update(p); err != nil {
		s.logger.Error("failed to update property", "property_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update property", err)
	}
	return p, nil
}

func (s *Service) Delete(callerID int64, id int64) error {
	if _, err := s.visibleProperty(callerID, id, []permissions.Action{permissions.ActionDelete}); err != nil {
		return err
	}
	if err := s.requireRowPermission(callerID, permissions.ActionDelete, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, false); err != nil {
		s.logger.Error("failed to soft delete property", "property_id", id, "error", err)
		return internal.NewInternalError("failed to delete property", err)
	}
	return nil
}

// Restore reuses the update scope, matching how edits gate reactivation.
func (s *Service) Restore(callerID int64, id int64) error {
	if _, err := s.visibleProperty(callerID, id, []permissions.Action{permissions.ActionUpdate}); err != nil {
		return err
	}
	if err := s.requireRowPermission(callerID, permissions.ActionUpdate, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, true); err != nil {
		s.logger.Error("failed to restore property", "property_id", id, "error", err)
		return internal.NewInternalError("failed to restore property", err)
	}
	return nil
}

func (s *Service) Shifts(callerID int64, id int64) ([]*ShiftSummary, error) {
	if err := s.requireSubListAccess(callerID, id); err != nil {
		return nil, err
	}
	shifts, err := s.repo.Shifts(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to list property shifts", err)
	}
	return shifts, nil
}

func (s *Service) Expenses(callerID int64, id int64) ([]*ExpenseSummary, error) {
	if err := s.requireSubListAccess(callerID, id); err != nil {
		return nil, err
	}
	expenses, err := s.repo.Expenses(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to list property expenses", err)
	}
	return expenses, nil
}

// GuardsShifts returns the property's shifts grouped by the guard who
// worked them.
func (s *Service) GuardsShifts(callerID int64, id int64) (*Staffing, error) {
	p, err := s.visibleProperty(callerID, id, []permissions.Action{permissions.ActionRead})
	if err != nil {
		return nil, err
	}
	if err := s.requireRowPermission(callerID, permissions.ActionRead, id); err != nil {
		return nil, err
	}

	grouped, err := s.repo.GuardsShifts(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load property staffing", err)
	}
	return &Staffing{Property: p, GuardsAndShifts: grouped}, nil
}

// Types lists the active service-type catalog. Reference data, readable
// by any authenticated caller.
func (s *Service) Types() ([]*TypeOption, error) {
	types, err := s.repo.Types()
	if err != nil {
		s.logger.Error("failed to list property types", "error", err)
		return nil, internal.NewInternalError("failed to list property types", err)
	}
	return types, nil
}

func (s *Service) requireSubListAccess(callerID int64, id int64) error {
	if _, err := s.visibleProperty(callerID, id, []permissions.Action{permissions.ActionRead}); err != nil {
		return err
	}
	return s.requireRowPermission(callerID, permissions.ActionRead, id)
}

// visibleProperty loads the property if the caller's detail scope covers
// it; rows outside the scope read as missing.
func (s *Service) visibleProperty(callerID int64, id int64, actions []permissions.Action) (*Property, error) {
	p, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get property", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("property not found", internal.ErrCodePropertyNotFound)
	}

	rf, extraIDs, err := s.perms.PropertyDetailScope(callerID, actions)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve detail scope", err)
	}
	if !scopeCovers(rf, extraIDs, p) {
		return nil, internal.NewNotFoundError("property not found", internal.ErrCodePropertyNotFound)
	}
	return p, nil
}

func (s *Service) requireRowPermission(callerID int64, action permissions.Action, id int64) error {
	allowed, err := s.perms.HasResourcePermission(callerID, permissions.ResourceProperty, action, &id)
	if err != nil {
		return internal.NewInternalError("failed to check permissions", err)
	}
	if !allowed {
		return internal.ErrPermissionDenied
	}
	return nil
}

func scopeCovers(rf permissions.RowFilter, extraIDs []int64, p *Property) bool {
	switch rf.Scope {
	case permissions.ScopeAll:
		return true
	case permissions.ScopeOwnerClient:
		if p.OwnerID == rf.ClientID {
			return true
		}
	case permissions.ScopeAssignedProperties:
		for _, id := range rf.PropertyIDs {
			if id == p.ID {
				return true
			}
		}
	}
	for _, id := range extraIDs {
		if id == p.ID {
			return true
		}
	}
	return false
}

// normalizeAlias trims the alias and folds blank values to nil so they do
// not trip the per-owner uniqueness rule.
func normalizeAlias(alias *string) *string {
	if alias == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*alias)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
