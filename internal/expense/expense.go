package expense

import (
	"time"

	expenseDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/expense"
)

// Expense is an operating cost booked against a property: repairs, fuel,
// replacement gear. The property address rides along for display.
type Expense struct {
	ID              int64     `json:"id"`
	PropertyID      int64     `json:"property_id"`
	PropertyAddress string    `json:"property_address"`
	PropertyOwnerID int64     `json:"-"`
	Description     string    `json:"description"`
	Amount          float64   `json:"amount"`
	ExpenseDate     time.Time `json:"expense_date"`
	CreatedBy       *int64    `json:"created_by"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:          e.ID,
		PropertyID:  e.PropertyID,
		Description: e.Description,
		Amount:      e.Amount,
		ExpenseDate: e.ExpenseDate,
		CreatedBy:   e.CreatedBy,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
