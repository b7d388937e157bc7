package property

import (
	"time"

	propertyDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/property"
)

// Property is a guarded site owned by a client. The owner's display name
// is denormalized onto the view for API output.
type Property struct {
	ID                int64      `json:"id"`
	OwnerID           int64      `json:"owner_id"`
	OwnerName         string     `json:"owner_name"`
	Name              string     `json:"name"`
	Alias             *string    `json:"alias"`
	Address           string     `json:"address"`
	MonthlyRate       *float64   `json:"monthly_rate"`
	ContractStartDate *time.Time `json:"contract_start_date"`
	TotalHours        float64    `json:"total_hours"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Detail is the single-property view with the activity counters the list
// view skips.
type Detail struct {
	Property
	ShiftsCount         int64   `json:"shifts_count"`
	ExpensesCount       int64   `json:"expenses_count"`
	TotalExpensesAmount float64 `json:"total_expenses_amount"`
}

// TypeOption is a service-type catalog entry, reference data shared by
// every property.
type TypeOption struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
}

// ShiftSummary is the slim shift view used by the property sub-listings.
type ShiftSummary struct {
	ID               int64      `json:"id"`
	GuardID          int64      `json:"guard_id"`
	ServiceID        *int64     `json:"service_id"`
	PlannedStartTime *time.Time `json:"planned_start_time"`
	PlannedEndTime   *time.Time `json:"planned_end_time"`
	Status           string     `json:"status"`
	HoursWorked      int64      `json:"hours_worked"`
	IsArmed          bool       `json:"is_armed"`
}

// ExpenseSummary is the slim expense view used by the property sub-listing.
type ExpenseSummary struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	ExpenseDate time.Time `json:"expense_date"`
	IsActive    bool      `json:"is_active"`
}

// GuardSummary is the slim guard view used inside the staffing grouping.
type GuardSummary struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// GuardShifts groups one guard working the property with their shifts
// there.
type GuardShifts struct {
	Guard  *GuardSummary   `json:"guard"`
	Shifts []*ShiftSummary `json:"shifts"`
}

// Staffing is the guards-shifts response: the property plus its shifts
// grouped by guard.
type Staffing struct {
	Property        *Property      `json:"property"`
	GuardsAndShifts []*GuardShifts `json:"guards_and_shifts"`
}

func ToDataModel(p *Property) *propertyDatamodel.Property {
	return &propertyDatamodel.Property{
		ID:                p.ID,
		OwnerID:           p.OwnerID,
		Name:              p.Name,
		Alias:             p.Alias,
		Address:           p.Address,
		MonthlyRate:       p.MonthlyRate,
		ContractStartDate: p.ContractStartDate,
		TotalHours:        p.TotalHours,
		IsActive:          p.IsActive,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
