package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/core/common/listing"
	expenseDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/expense"
	propertyDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/property"
	"github.com/qu-security/guardforce/internal/expense"
	"github.com/qu-security/guardforce/internal/permissions"
)

const expenseColumns = "expenses.id, expenses.property_id, expenses.description, " +
	"expenses.amount, expenses.expense_date, expenses.created_by, expenses.is_active, " +
	"expenses.created_at, expenses.updated_at, " +
	"properties.address AS property_address, properties.owner_id AS property_owner_id"

var expenseOrderColumns = map[string]string{
	"id":           "expenses.id",
	"amount":       "expenses.amount",
	"expense_date": "expenses.expense_date",
	"created_at":   "expenses.created_at",
}

type expenseRow struct {
	ID              int64
	PropertyID      int64
	Description     string
	Amount          float64
	ExpenseDate     time.Time
	CreatedBy       *int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PropertyAddress string
	PropertyOwnerID int64
}

func (row *expenseRow) toDomain() *expense.Expense {
	return &expense.Expense{
		ID:              row.ID,
		PropertyID:      row.PropertyID,
		PropertyAddress: row.PropertyAddress,
		PropertyOwnerID: row.PropertyOwnerID,
		Description:     row.Description,
		Amount:          row.Amount,
		ExpenseDate:     row.ExpenseDate,
		CreatedBy:       row.CreatedBy,
		IsActive:        row.IsActive,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(e *expense.Expense) error {
	dm := expense.ToDataModel(e)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}

	loaded, found, err := r.GetByID(dm.ID)
	if err != nil {
		return err
	}
	if !found {
		return gorm.ErrRecordNotFound
	}
	*e = *loaded
	return nil
}

func (r *ExpenseRepository) GetByID(id int64) (*expense.Expense, bool, error) {
	var row expenseRow
	err := r.joined().Where("expenses.id = ?", id).Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.toDomain(), true, nil
}

func (r *ExpenseRepository) List(q listing.Query, rf permissions.RowFilter, f expense.Filter) ([]*expense.Expense, error) {
	tx := r.joined()

	switch rf.Scope {
	case permissions.ScopeAll:
	case permissions.ScopeOwnerClient:
		tx = tx.Where("properties.owner_id = ?", rf.ClientID)
	default:
		return []*expense.Expense{}, nil
	}

	if f.PropertyID != nil {
		tx = tx.Where("expenses.property_id = ?", *f.PropertyID)
	}

	if !q.IncludeInactive {
		tx = tx.Where("expenses.is_active = ?", true)
	}
	if q.DateFrom != nil {
		tx = tx.Where("expenses.created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("expenses.created_at <= ?", *q.DateTo)
	}

	var rows []expenseRow
	err := tx.Order(q.Column(expenseOrderColumns, "expenses.id DESC")).
		Limit(q.Limit).Offset(q.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	expenses := make([]*expense.Expense, 0, len(rows))
	for i := range rows {
		expenses = append(expenses, rows[i].toDomain())
	}
	return expenses, nil
}

func (r *ExpenseRepository) Update(e *expense.Expense) error {
	updates := map[string]interface{}{
		"property_id":  e.PropertyID,
		"description":  e.Description,
		"amount":       e.Amount,
		"expense_date": e.ExpenseDate,
		"updated_at":   time.Now(),
	}
	if err := r.db.Model(&expenseDatamodel.Expense{}).Where("id = ?", e.ID).Updates(updates).Error; err != nil {
		return err
	}

	// Moving the expense re-points the property join, so refresh the
	// denormalized address and owner.
	loaded, found, err := r.GetByID(e.ID)
	if err != nil {
		return err
	}
	if found {
		*e = *loaded
	}
	return nil
}

func (r *ExpenseRepository) SetActive(id int64, active bool) error {
	updates := map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	}
	return r.db.Model(&expenseDatamodel.Expense{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ExpenseRepository) PropertyExists(propertyID int64) (bool, error) {
	var count int64
	err := r.db.Model(&propertyDatamodel.Property{}).Where("id = ?", propertyID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ExpenseRepository) joined() *gorm.DB {
	return r.db.Table("expenses").
		Select(expenseColumns).
		Joins("JOIN properties ON properties.id = expenses.property_id")
}
