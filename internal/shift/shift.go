package shift

import (
	"math"
	"time"

	shiftDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/shift"
)

const (
	StatusScheduled = shiftDatamodel.StatusScheduled
	StatusCompleted = shiftDatamodel.StatusCompleted
	StatusVoided    = shiftDatamodel.StatusVoided
)

// Shift is one guard working one property for a window of time, optionally
// tied to a recurring service and a weapon. Guard and property display
// fields are denormalized onto the view.
type Shift struct {
	ID                 int64      `json:"id"`
	GuardID            int64      `json:"guard_id"`
	GuardName          string     `json:"guard_name"`
	PropertyID         int64      `json:"property_id"`
	PropertyAddress    string     `json:"property_address"`
	PropertyOwnerID    int64      `json:"-"`
	ServiceID          *int64     `json:"service_id"`
	WeaponID           *int64     `json:"weapon_id"`
	IsArmed            bool       `json:"is_armed"`
	PlannedStartTime   *time.Time `json:"planned_start_time"`
	PlannedEndTime     *time.Time `json:"planned_end_time"`
	ActualStartTime    *time.Time `json:"actual_start_time"`
	ActualEndTime      *time.Time `json:"actual_end_time"`
	PlannedHoursWorked float64    `json:"planned_hours_worked"`
	HoursWorked        int64      `json:"hours_worked"`
	Status             string     `json:"status"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Recalculate derives the hour counters from the timestamps. Planned hours
// come from the planned window, rounded to two decimals. Actual hours only
// count on completed shifts and round to whole hours; any other status
// resets them.
func (s *Shift) Recalculate() {
	if s.PlannedStartTime != nil && s.PlannedEndTime != nil {
		hours := s.PlannedEndTime.Sub(*s.PlannedStartTime).Hours()
		if hours < 0 {
			hours = 0
		}
		s.PlannedHoursWorked = math.Round(hours*100) / 100
	} else {
		s.PlannedHoursWorked = 0
	}

	if s.Status == StatusCompleted && s.ActualStartTime != nil && s.ActualEndTime != nil {
		hours := s.ActualEndTime.Sub(*s.ActualStartTime).Hours()
		if hours < 0 {
			hours = 0
		}
		s.HoursWorked = int64(math.Round(hours))
	} else if s.Status != StatusCompleted {
		s.HoursWorked = 0
	}
}

func ValidStatus(status string) bool {
	switch status {
	case StatusScheduled, StatusCompleted, StatusVoided:
		return true
	}
	return false
}

func ToDataModel(s *Shift) *shiftDatamodel.Shift {
	return &shiftDatamodel.Shift{
		ID:                 s.ID,
		GuardID:            s.GuardID,
		PropertyID:         s.PropertyID,
		ServiceID:          s.ServiceID,
		WeaponID:           s.WeaponID,
		IsArmed:            s.IsArmed,
		PlannedStartTime:   s.PlannedStartTime,
		PlannedEndTime:     s.PlannedEndTime,
		ActualStartTime:    s.ActualStartTime,
		ActualEndTime:      s.ActualEndTime,
		PlannedHoursWorked: s.PlannedHoursWorked,
		HoursWorked:        s.HoursWorked,
		Status:             s.Status,
		IsActive:           s.IsActive,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
