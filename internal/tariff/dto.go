package tariff

import (
	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

type CreateTariffDTO struct {
	GuardID    int64    `json:"guard_id"`
	PropertyID int64    `json:"property_id"`
	Rate       *float64 `json:"rate"`
}

func (d *CreateTariffDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("guard_id", d.GuardID).Required().PositiveID()
	validator.Field("property_id", d.PropertyID).Required().PositiveID()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	// A zero rate is a valid arrangement, a missing one is not.
	if d.Rate == nil {
		return internal.NewValidationFieldError("rate", "rate is required", internal.ErrCodeInvalidAmount)
	}
	if *d.Rate < 0 {
		return internal.NewValidationFieldError("rate", "rate cannot be negative", internal.ErrCodeInvalidAmount)
	}
	return nil
}

// UpdateTariffDTO patches the tariff; nil fields are left untouched.
// Setting is_active re-runs the one-active-per-pair rule.
type UpdateTariffDTO struct {
	GuardID    *int64   `json:"guard_id"`
	PropertyID *int64   `json:"property_id"`
	Rate       *float64 `json:"rate"`
	IsActive   *bool    `json:"is_active"`
}

func (d *UpdateTariffDTO) Validate() error {
	validator := validation.NewValidator()
	if d.GuardID != nil {
		validator.Field("guard_id", *d.GuardID).PositiveID()
	}
	if d.PropertyID != nil {
		validator.Field("property_id", *d.PropertyID).PositiveID()
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	if d.Rate != nil && *d.Rate < 0 {
		return internal.NewValidationFieldError("rate", "rate cannot be negative", internal.ErrCodeInvalidAmount)
	}
	return nil
}
