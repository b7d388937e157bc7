package expense

import (
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

// CreateExpenseDTO books a cost against a property. The expense date is a
// plain date and defaults to today when omitted.
type CreateExpenseDTO struct {
	PropertyID  int64   `json:"property_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	ExpenseDate *string `json:"expense_date"`
}

func (dto CreateExpenseDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("property_id", dto.PropertyID).Required().PositiveID()
	validator.Field("description", dto.Description).Required().MaxLength(255)
	validator.Field("amount", dto.Amount).Custom(validAmount)
	validator.Field("expense_date", dto.ExpenseDate).Custom(validExpenseDate)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateExpenseDTO carries a partial update; nil fields keep their current
// value.
type UpdateExpenseDTO struct {
	PropertyID  *int64   `json:"property_id"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	ExpenseDate *string  `json:"expense_date"`
}

func (dto UpdateExpenseDTO) Validate() error {
	validator := validation.NewValidator()

	if dto.PropertyID != nil {
		validator.Field("property_id", *dto.PropertyID).Required().PositiveID()
	}
	if dto.Description != nil {
		validator.Field("description", *dto.Description).Required().MaxLength(255)
	}
	if dto.Amount != nil {
		validator.Field("amount", *dto.Amount).Custom(validAmount)
	}
	if dto.ExpenseDate != nil {
		validator.Field("expense_date", dto.ExpenseDate).Custom(validExpenseDate)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Amounts are money: at least one cent.
func validAmount(v interface{}) *internal.AppError {
	if amount, ok := v.(float64); ok {
		if amount < 0.01 {
			return internal.NewValidationFieldError("amount", "amount must be at least 0.01", internal.ErrCodeInvalidAmount)
		}
	}
	return nil
}

func validExpenseDate(v interface{}) *internal.AppError {
	raw, ok := v.(*string)
	if !ok {
		return nil
	}
	if _, err := parseExpenseDate(raw); err != nil {
		appErr, _ := internal.IsAppError(err)
		return appErr
	}
	return nil
}

func parseExpenseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, internal.NewValidationFieldError("expense_date", "expense_date must be a date in YYYY-MM-DD form", internal.ErrCodeInvalidDate)
	}
	return &parsed, nil
}
