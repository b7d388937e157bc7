package user

import (
	"strings"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

type RegisterDTO struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (d *RegisterDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("username", d.Username).Required().MaxLength(150)
	validator.Field("email", d.Email).Required().Custom(validEmail)
	validator.Field("password", d.Password).Required().MinLength(8)
	validator.Field("first_name", d.FirstName).MaxLength(150)
	validator.Field("last_name", d.LastName).MaxLength(150)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateUserDTO carries partial updates; nil fields are left untouched.
type UpdateUserDTO struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (d *UpdateUserDTO) Validate() error {
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
