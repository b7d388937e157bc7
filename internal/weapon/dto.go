package weapon

import (
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

type CreateWeaponDTO struct {
	GuardID      int64  `json:"guard_id"`
	SerialNumber string `json:"serial_number"`
	Model        string `json:"model"`
	Caliber      string `json:"caliber"`
	PermitNumber string `json:"permit_number"`
}

func (d *CreateWeaponDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("guard_id", d.GuardID).Required().PositiveID()
	validator.Field("serial_number", d.SerialNumber).Required().MaxLength(100)
	validator.Field("model", d.Model).Required().MaxLength(100)
	validator.Field("caliber", d.Caliber).MaxLength(50)
	validator.Field("permit_number", d.PermitNumber).MaxLength(100)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateWeaponDTO patches the weapon; the guard it belongs to cannot be
// re-pointed, transfers go through delete and re-register.
type UpdateWeaponDTO struct {
	SerialNumber *string `json:"serial_number"`
	Model        *string `json:"model"`
	Caliber      *string `json:"caliber"`
	PermitNumber *string `json:"permit_number"`
}

func (d *UpdateWeaponDTO) Validate() error {
	validator := validation.NewValidator()
	if d.SerialNumber != nil {
		validator.Field("serial_number", *d.SerialNumber).Required().MaxLength(100)
	}
	if d.Model != nil {
		validator.Field("model", *d.Model).Required().MaxLength(100)
	}
	if d.Caliber != nil {
		validator.Field("caliber", *d.Caliber).MaxLength(50)
	}
	if d.PermitNumber != nil {
		validator.Field("permit_number", *d.PermitNumber).MaxLength(100)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
