package guard

import (
	"strings"
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

// CreateGuardDTO creates a guard profile in one of two flows: name an
// existing account via user_id, or supply an email and a fresh account is
// created without a usable password. Either way the target user ends up
// with the guard role.
type CreateGuardDTO struct {
	UserID    *int64  `json:"user_id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     string  `json:"phone"`
	SSN       string  `json:"ssn"`
	Address   string  `json:"address"`
	BirthDate *string `json:"birth_date"`
}

func (d *CreateGuardDTO) Validate() error {
	if d.UserID == nil && strings.TrimSpace(d.Email) == "" {
		return internal.NewValidationFieldError("email", "email is required when no user is provided", internal.ErrCodeValidationFailed)
	}

	validator := validation.NewValidator()
	if d.UserID != nil {
		validator.Field("user_id", *d.UserID).PositiveID()
	}
	if d.Email != "" {
		validator.Field("email", d.Email).Custom(validEmail)
	}
	validator.Field("first_name", d.FirstName).MaxLength(150)
	validator.Field("last_name", d.LastName).MaxLength(150)
	validator.Field("phone", d.Phone).MaxLength(20)
	validator.Field("ssn", d.SSN).MaxLength(32)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	if _, err := parseBirthDate(d.BirthDate); err != nil {
		return err
	}
	return nil
}

// UpdateGuardDTO patches the profile and the linked user's identity
// fields; nil fields are left untouched.
type UpdateGuardDTO struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	SSN       *string `json:"ssn"`
	Address   *string `json:"address"`
	BirthDate *string `json:"birth_date"`
}

func (d *UpdateGuardDTO) Validate() error {
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
	if d.SSN != nil {
		validator.Field("ssn", *d.SSN).MaxLength(32)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	if _, err := parseBirthDate(d.BirthDate); err != nil {
		return err
	}
	return nil
}

// parseBirthDate accepts a plain date. Nil and empty both mean "not set".
func parseBirthDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, internal.NewValidationFieldError("birth_date", "birth_date must be a date in YYYY-MM-DD form", internal.ErrCodeInvalidDate)
	}
	return &t, nil
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
