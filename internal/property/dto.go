package property

import (
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

// CreatePropertyDTO creates a property. Callers with a client profile
// always own what they create; admins and managers name the owner instead.
type CreatePropertyDTO struct {
	OwnerID           *int64   `json:"owner_id"`
	Name              string   `json:"name"`
	Alias             *string  `json:"alias"`
	Address           string   `json:"address"`
	MonthlyRate       *float64 `json:"monthly_rate"`
	ContractStartDate *string  `json:"contract_start_date"`
}

func (d *CreatePropertyDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("address", d.Address).Required().MaxLength(255)
	validator.Field("name", d.Name).MaxLength(150)
	if d.OwnerID != nil {
		validator.Field("owner_id", *d.OwnerID).PositiveID()
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	if d.MonthlyRate != nil && *d.MonthlyRate < 0 {
		return internal.NewValidationFieldError("monthly_rate", "monthly_rate cannot be negative", internal.ErrCodeInvalidAmount)
	}
	if _, err := parseDate("contract_start_date", d.ContractStartDate); err != nil {
		return err
	}
	return nil
}

// UpdatePropertyDTO patches the property; nil fields are left untouched.
type UpdatePropertyDTO struct {
	Name              *string  `json:"name"`
	Alias             *string  `json:"alias"`
	Address           *string  `json:"address"`
	MonthlyRate       *float64 `json:"monthly_rate"`
	ContractStartDate *string  `json:"contract_start_date"`
}

func (d *UpdatePropertyDTO) Validate() error {
	validator := validation.NewValidator()
	if d.Address != nil {
		validator.Field("address", *d.Address).Required().MaxLength(255)
	}
	if d.Name != nil {
		validator.Field("name", *d.Name).MaxLength(150)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	if d.MonthlyRate != nil && *d.MonthlyRate < 0 {
		return internal.NewValidationFieldError("monthly_rate", "monthly_rate cannot be negative", internal.ErrCodeInvalidAmount)
	}
	if _, err := parseDate("contract_start_date", d.ContractStartDate); err != nil {
		return err
	}
	return nil
}

// parseDate accepts a plain date. Nil and empty both mean "not set".
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, internal.NewValidationFieldError(field, field+" must be a date in YYYY-MM-DD form", internal.ErrCodeInvalidDate)
	}
	return &t, nil
}
