package shift

import (
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

// CreateShiftDTO is the request payload for scheduling a shift. Planned and
// actual times arrive as RFC 3339 timestamps; the hour counters are always
// derived server-side, never taken from the request.
type CreateShiftDTO struct {
	GuardID          int64      `json:"guard_id"`
	PropertyID       int64      `json:"property_id"`
	ServiceID        *int64     `json:"service_id"`
	WeaponID         *int64     `json:"weapon_id"`
	IsArmed          bool       `json:"is_armed"`
	PlannedStartTime *time.Time `json:"planned_start_time"`
	PlannedEndTime   *time.Time `json:"planned_end_time"`
	ActualStartTime  *time.Time `json:"actual_start_time"`
	ActualEndTime    *time.Time `json:"actual_end_time"`
	Status           string     `json:"status"`
}

func (dto CreateShiftDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("guard_id", dto.GuardID).Required().PositiveID()
	validator.Field("property_id", dto.PropertyID).Required().PositiveID()
	if dto.ServiceID != nil {
		validator.Field("service_id", *dto.ServiceID).PositiveID()
	}
	if dto.WeaponID != nil {
		validator.Field("weapon_id", *dto.WeaponID).PositiveID()
	}
	validator.Field("status", dto.Status).OneOf(StatusScheduled, StatusCompleted, StatusVoided)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateShiftDTO carries a partial update; nil fields keep their current
// value.
type UpdateShiftDTO struct {
	GuardID          *int64     `json:"guard_id"`
	PropertyID       *int64     `json:"property_id"`
	ServiceID        *int64     `json:"service_id"`
	WeaponID         *int64     `json:"weapon_id"`
	IsArmed          *bool      `json:"is_armed"`
	PlannedStartTime *time.Time `json:"planned_start_time"`
	PlannedEndTime   *time.Time `json:"planned_end_time"`
	ActualStartTime  *time.Time `json:"actual_start_time"`
	ActualEndTime    *time.Time `json:"actual_end_time"`
	Status           *string    `json:"status"`
}

func (dto UpdateShiftDTO) Validate() error {
	validator := validation.NewValidator()

	if dto.GuardID != nil {
		validator.Field("guard_id", *dto.GuardID).Required().PositiveID()
	}
	if dto.PropertyID != nil {
		validator.Field("property_id", *dto.PropertyID).Required().PositiveID()
	}
	if dto.ServiceID != nil {
		validator.Field("service_id", *dto.ServiceID).PositiveID()
	}
	if dto.WeaponID != nil {
		validator.Field("weapon_id", *dto.WeaponID).PositiveID()
	}
	if dto.Status != nil {
		validator.Field("status", *dto.Status).Custom(func(v interface{}) *internal.AppError {
			if s, ok := v.(string); ok && !ValidStatus(s) {
				return internal.NewValidationFieldError("status", "status must be one of scheduled, completed or voided", internal.ErrCodeInvalidStatus)
			}
			return nil
		})
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
