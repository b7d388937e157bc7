package client

import (
	"strings"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

// CreateClientDTO creates the client profile together with its user
// account. The username is derived from the email local part and the
// account starts without a usable password.
type CreateClientDTO struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (d *CreateClientDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("email", d.Email).Required().Custom(validEmail)
	validator.Field("first_name", d.FirstName).MaxLength(150)
	validator.Field("last_name", d.LastName).MaxLength(150)
	validator.Field("phone", d.Phone).MaxLength(20)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateClientDTO patches the profile and the linked user's identity
// fields; nil fields are left untouched.
type UpdateClientDTO struct {
	Email     *string  `json:"email"`
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Phone     *string  `json:"phone"`
	Balance   *float64 `json:"balance"`
}

func (d *UpdateClientDTO) Validate() error {
	validator := validation.NewValidator()
	if d.Email != nil {
		validator.Field("email", *d.Email).Required().Custom(validEmail)
	}
	if d.FirstName != nil {
		validator.Field("first_name", *d.FirstName).MaxLength(150)
	}
	if d.LastName != nil {
		validator.Field("last_name", *d.LastName).MaxLength(150)
	}
	if d.Phone != nil {
		validator.Field("phone", *d.Phone).MaxLength(20)
	}
	if d.Balance != nil && *d.Balance < 0 {
		return internal.NewValidationFieldError("balance", "balance cannot be negative", internal.ErrCodeInvalidAmount)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func validEmail(v interface{}) *internal.AppError {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 || strings.ContainsAny(s, " \t") {
		return internal.NewValidationFieldError("email", "email must be a valid address", internal.ErrCodeValidationFailed)
	}
	return nil
}
