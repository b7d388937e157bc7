package expense

import (
	"log/slog"
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/pkg/logger"
)

// Filter narrows an expense listing to one property. A nil field does not
// constrain.
type Filter struct {
	PropertyID *int64
}

type Repository interface {
	Create(e *Expense) error
	GetByID(id int64) (*Expense, bool, error)
	List(q listing.Query, rf permissions.RowFilter, f Filter) ([]*Expense, error)
	Update(e *Expense) error
	SetActive(id int64, active bool) error
	PropertyExists(propertyID int64) (bool, error)
}

// PermissionChecker is the slice of the permission engine expenses need:
// the create capability (role table or per-property grant flag), listing
// scopes and the manager override.
type PermissionChecker interface {
	CanCreateExpenses(userID int64, propertyID int64) (bool, error)
	ReadScope(userID int64, resourceType permissions.ResourceType) (permissions.RowFilter, error)
	IsAdminOrManager(userID int64) (bool, error)
}

// ProfileResolver finds the caller's client profile, which decides whether
// they own the property an expense is booked against.
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

func (s *Service) List(callerID int64, q listing.Query, f Filter) ([]*Expense, error) {
	q = q.Normalize()
	if q.IncludeInactive {
		allowed, err := s.perms.IsAdminOrManager(callerID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check permissions", err)
		}
		q.IncludeInactive = allowed
	}

	rf, err := s.perms.ReadScope(callerID, permissions.ResourceExpense)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve read scope", err)
	}
	if rf.Scope == permissions.ScopeNone {
		return []*Expense{}, nil
	}

	expenses, err := s.repo.List(q, rf, f)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err)
		return nil, internal.NewInternalError("failed to list expenses", err)
	}
	return expenses, nil
}

// GetByID hides expenses outside the caller's read scope: an id the caller
// cannot see reads as missing rather than forbidden.
func (s *Service) GetByID(callerID int64, id int64) (*Expense, error) {
	return s.visibleExpense(callerID, id)
}

// Create books a cost against a property. The capability check passes for
// the expense-create column of the role table or an access grant on the
// property with the expense flag set; ownership of the property is not
// required.
func (s *Service) Create(callerID int64, dto *CreateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.PropertyExists(dto.PropertyID)
	if err != nil {
		return nil, internal.NewInternalError("failed to create expense", err)
	}
	if !exists {
		return nil, internal.NewValidationFieldError("property_id", "property does not exist", internal.ErrCodePropertyNotFound)
	}

	allowed, err := s.perms.CanCreateExpenses(callerID, dto.PropertyID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check permissions", err)
	}
	if !allowed {
		return nil, internal.ErrPermissionDenied
	}

	expenseDate, err := parseExpenseDate(dto.ExpenseDate)
	if err != nil {
		return nil, err
	}
	if expenseDate == nil {
		today := time.Now()
		expenseDate = &today
	}

	e := &Expense{
		PropertyID:  dto.PropertyID,
		Description: dto.Description,
		Amount:      dto.Amount,
		ExpenseDate: *expenseDate,
		CreatedBy:   &callerID,
		IsActive:    true,
	}
	if err := s.repo.Create(e); err != nil {
		s.logger.Error("failed to create expense", "property_id", dto.PropertyID, "error", err)
		return nil, internal.NewInternalError("failed to create expense", err)
	}

	s.logger.Info("expense created", "expense_id", e.ID, "property_id", e.PropertyID, "amount", e.Amount, "created_by", callerID)
	return e, nil
}

func (s *Service) Update(callerID int64, id int64, dto *UpdateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	e, err := s.visibleExpense(callerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnerOrManager(callerID, e); err != nil {
		return nil, err
	}

	if dto.PropertyID != nil && *dto.PropertyID != e.PropertyID {
		exists, err := s.repo.PropertyExists(*dto.PropertyID)
		if err != nil {
			return nil, internal.NewInternalError("failed to update expense", err)
		}
		if !exists {
			return nil, internal.NewValidationFieldError("property_id", "property does not exist", internal.ErrCodePropertyNotFound)
		}
		e.PropertyID = *dto.PropertyID
	}
	if dto.Description != nil {
		e.Description = *dto.Description
	}
	if dto.Amount != nil {
		e.Amount = *dto.Amount
	}
	if dto.ExpenseDate != nil {
		expenseDate, err := parseExpenseDate(dto.ExpenseDate)
		if err != nil {
			return nil, err
		}
		if expenseDate != nil {
			e.ExpenseDate = *expenseDate
		}
	}

	if err := s.repo.Update(e); err != nil {
		s.logger.Error("failed to update expense", "expense_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update expense", err)
	}
	return e, nil
}

func (s *Service) Delete(callerID int64, id int64) error {
	e, err := s.visibleExpense(callerID, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrManager(callerID, e); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, false); err != nil {
		s.logger.Error("failed to soft delete expense", "expense_id", id, "error", err)
		return internal.NewInternalError("failed to delete expense", err)
	}
	return nil
}

// Restore is gated like an edit: only the owning client or a manager can
// bring a written-off row back.
func (s *Service) Restore(callerID int64, id int64) error {
	e, err := s.visibleExpense(callerID, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrManager(callerID, e); err != nil {
		return err
	}
	if err := s.repo.SetActive(id, true); err != nil {
		s.logger.Error("failed to restore expense", "expense_id", id, "error", err)
		return internal.NewInternalError("failed to restore expense", err)
	}
	return nil
}

func (s *Service) visibleExpense(callerID int64, id int64) (*Expense, error) {
	e, found, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load expense", err)
	}
	if !found {
		return nil, internal.NewNotFoundError("expense not found", internal.ErrCodeExpenseNotFound)
	}

	rf, err := s.perms.ReadScope(callerID, permissions.ResourceExpense)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve read scope", err)
	}
	if !scopeCovers(rf, e) {
		return nil, internal.NewNotFoundError("expense not found", internal.ErrCodeExpenseNotFound)
	}
	return e, nil
}

// requireOwnerOrManager lets the client owning the underlying property and
// admins or managers through.
func (s *Service) requireOwnerOrManager(callerID int64, e *Expense) error {
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
	if ok && clientID == e.PropertyOwnerID {
		return nil
	}
	return internal.ErrPermissionDenied
}

func scopeCovers(rf permissions.RowFilter, e *Expense) bool {
	switch rf.Scope {
	case permissions.ScopeAll:
		return true
	case permissions.ScopeOwnerClient:
		return rf.ClientID == e.PropertyOwnerID
	}
	return false
}
