package service

import (
	"strings"
	"time"

	serviceDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/service"
)

// Weekday names accepted in the weekly schedule.
var Weekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// GuardService is a contracted engagement: a guard performing work at a
// property, on listed dates or a weekly recurrence. Guard and property are
// both optional so an engagement can be drafted before staffing it.
type GuardService struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	GuardID           *int64     `json:"guard_id"`
	GuardName         string     `json:"guard_name"`
	PropertyID        *int64     `json:"property_id"`
	PropertyName      string     `json:"property_name"`
	Rate              *float64   `json:"rate"`
	MonthlyBudget     *float64   `json:"monthly_budget"`
	ContractStartDate *time.Time `json:"contract_start_date"`
	Schedule          []string   `json:"schedule"`
	Recurrent         bool       `json:"recurrent"`
	StartTime         *string    `json:"start_time"`
	EndTime           *string    `json:"end_time"`
	Weekly            []string   `json:"weekly"`
	WeeklyDisplay     string     `json:"weekly_display"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	TotalHours        int64      `json:"total_hours"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ServiceShift is one shift worked under an engagement, for the shifts
// sub-listing.
type ServiceShift struct {
	ID               int64      `json:"id"`
	GuardID          int64      `json:"guard_id"`
	GuardName        string     `json:"guard_name"`
	PropertyID       int64      `json:"property_id"`
	PlannedStartTime *time.Time `json:"planned_start_time"`
	PlannedEndTime   *time.Time `json:"planned_end_time"`
	ActualStartTime  *time.Time `json:"actual_start_time"`
	ActualEndTime    *time.Time `json:"actual_end_time"`
	Status           string     `json:"status"`
	HoursWorked      int64      `json:"hours_worked"`
	IsArmed          bool       `json:"is_armed"`
}

// WeeklyDisplayText renders the weekly days the way listings show them.
func WeeklyDisplayText(weekly []string) string {
	if len(weekly) == 0 {
		return "No days selected"
	}
	return strings.Join(weekly, ", ")
}

func ValidWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

func ToDataModel(gs *GuardService) *serviceDatamodel.Service {
	return &serviceDatamodel.Service{
		ID:                  gs.ID,
		Name:                gs.Name,
		Description:         gs.Description,
		GuardID:             gs.GuardID,
		PropertyID:          gs.PropertyID,
		Rate:                gs.Rate,
		MonthlyBudget:       gs.MonthlyBudget,
		ContractStartDate:   gs.ContractStartDate,
		Schedule:            serviceDatamodel.StringList(gs.Schedule),
		StartTime:           gs.StartTime,
		EndTime:             gs.EndTime,
		Recurrent:           gs.Recurrent,
		Weekly:              serviceDatamodel.StringList(gs.Weekly),
		StartDate:           gs.StartDate,
		EndDate:             gs.EndDate,
		ScheduledTotalHours: gs.TotalHours,
		IsActive:            gs.IsActive,
		CreatedAt:           gs.CreatedAt,
		UpdatedAt:           gs.UpdatedAt,
	}
}
