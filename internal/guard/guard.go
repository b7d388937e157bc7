package guard

import (
	"strings"
	"time"

	guardDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/guard"
)

// Guard is a security guard profile tied one-to-one to a user account,
// with the user's identity fields denormalized onto the view.
type Guard struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone"`
	SSN       string     `json:"ssn"`
	Address   string     `json:"address"`
	BirthDate *time.Time `json:"birth_date"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Name returns the display name: full name when set, username otherwise.
func (g *Guard) Name() string {
	full := strings.TrimSpace(strings.TrimSpace(g.FirstName) + " " + strings.TrimSpace(g.LastName))
	if full != "" {
		return full
	}
	return g.Username
}

// Detail is the single-guard view with the shift counter the list view
// skips.
type Detail struct {
	Guard
	ShiftsCount int64 `json:"shifts_count"`
}

// PropertySummary is the slim property view used inside the workload
// grouping.
type PropertySummary struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Alias    *string `json:"alias"`
	Address  string  `json:"address"`
	IsActive bool    `json:"is_active"`
}

// ShiftSummary is the slim shift view used inside the workload grouping.
type ShiftSummary struct {
	ID               int64      `json:"id"`
	PropertyID       int64      `json:"property_id"`
	ServiceID        *int64     `json:"service_id"`
	PlannedStartTime *time.Time `json:"planned_start_time"`
	PlannedEndTime   *time.Time `json:"planned_end_time"`
	Status           string     `json:"status"`
	HoursWorked      int64      `json:"hours_worked"`
	IsArmed          bool       `json:"is_armed"`
}

// PropertyShifts groups one property the guard works at with the guard's
// shifts there.
type PropertyShifts struct {
	Property *PropertySummary `json:"property"`
	Shifts   []*ShiftSummary  `json:"shifts"`
}

// Workload is the properties-shifts response: the guard plus their shifts
// grouped by property.
type Workload struct {
	Guard               *Guard            `json:"guard"`
	PropertiesAndShifts []*PropertyShifts `json:"properties_and_shifts"`
}

func ToDataModel(g *Guard) *guardDatamodel.Guard {
	return &guardDatamodel.Guard{
		ID:        g.ID,
		UserID:    g.UserID,
		Phone:     g.Phone,
		SSN:       g.SSN,
		Address:   g.Address,
		BirthDate: g.BirthDate,
		IsActive:  g.IsActive,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}
