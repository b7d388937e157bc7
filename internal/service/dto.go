package service

import (
	"strings"
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

type CreateServiceDTO struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	GuardID             *int64   `json:"guard_id"`
	PropertyID          *int64   `json:"property_id"`
	Rate                *float64 `json:"rate"`
	MonthlyBudget       *float64 `json:"monthly_budget"`
	ContractStartDate   *string  `json:"contract_start_date"`
	Schedule            []string `json:"schedule"`
	Recurrent           bool     `json:"recurrent"`
	StartTime           *string  `json:"start_time"`
	EndTime             *string  `json:"end_time"`
	Weekly              []string `json:"weekly"`
	StartDate           *string  `json:"start_date"`
	EndDate             *string  `json:"end_date"`
	ScheduledTotalHours int64    `json:"scheduled_total_hours"`
}

func (d *CreateServiceDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("name", d.Name).Required().MaxLength(255)
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
	if d.MonthlyBudget != nil && *d.MonthlyBudget < 0 {
		return internal.NewValidationFieldError("monthly_budget", "monthly_budget cannot be negative", internal.ErrCodeInvalidAmount)
	}
	if d.ScheduledTotalHours < 0 {
		return internal.NewValidationFieldError("scheduled_total_hours", "scheduled_total_hours cannot be negative", internal.ErrCodeInvalidAmount)
	}

	if err := validWeekly(d.Weekly); err != nil {
		return err
	}
	if err := validScheduleDates(d.Schedule); err != nil {
		return err
	}
	if err := validTime("start_time", d.StartTime); err != nil {
		return err
	}
	if err := validTime("end_time", d.EndTime); err != nil {
		return err
	}
	if _, err := parseDate("contract_start_date", d.ContractStartDate); err != nil {
		return err
	}
	return validDateWindow(d.StartDate, d.EndDate)
}

// UpdateServiceDTO patches the engagement; nil fields are left untouched.
// A present empty slice clears the schedule or weekly days.
type UpdateServiceDTO struct {
	Name                *string  `json:"name"`
	Description         *string  `json:"description"`
	GuardID             *int64   `json:"guard_id"`
	PropertyID          *int64   `json:"property_id"`
	Rate                *float64 `json:"rate"`
	MonthlyBudget       *float64 `json:"monthly_budget"`
	ContractStartDate   *string  `json:"contract_start_date"`
	Schedule            []string `json:"schedule"`
	Recurrent           *bool    `json:"recurrent"`
	StartTime           *string  `json:"start_time"`
	EndTime             *string  `json:"end_time"`
	Weekly              []string `json:"weekly"`
	StartDate           *string  `json:"start_date"`
	EndDate             *string  `json:"end_date"`
	ScheduledTotalHours *int64   `json:"scheduled_total_hours"`
}

func (d *UpdateServiceDTO) Validate() error {
	validator := validation.NewValidator()
	if d.Name != nil {
		validator.Field("name", *d.Name).Required().MaxLength(255)
	}
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
	if d.MonthlyBudget != nil && *d.MonthlyBudget < 0 {
		return internal.NewValidationFieldError("monthly_budget", "monthly_budget cannot be negative", internal.ErrCodeInvalidAmount)
	}
	if d.ScheduledTotalHours != nil && *d.ScheduledTotalHours < 0 {
		return internal.NewValidationFieldError("scheduled_total_hours", "scheduled_total_hours cannot be negative", internal.ErrCodeInvalidAmount)
	}

	if err := validWeekly(d.Weekly); err != nil {
		return err
	}
	if err := validScheduleDates(d.Schedule); err != nil {
		return err
	}
	if err := validTime("start_time", d.StartTime); err != nil {
		return err
	}
	if err := validTime("end_time", d.EndTime); err != nil {
		return err
	}
	if _, err := parseDate("contract_start_date", d.ContractStartDate); err != nil {
		return err
	}
	return validDateWindow(d.StartDate, d.EndDate)
}

func validWeekly(weekly []string) error {
	var invalid []string
	for _, day := range weekly {
		if !ValidWeekday(day) {
			invalid = append(invalid, day)
		}
	}
	if len(invalid) > 0 {
		message := "invalid weekdays: " + strings.Join(invalid, ", ") +
			". Valid options are: " + strings.Join(Weekdays, ", ")
		return internal.NewValidationFieldError("weekly", message, internal.ErrCodeInvalidWeekday)
	}
	return nil
}

func validScheduleDates(schedule []string) error {
	for _, entry := range schedule {
		if _, err := time.Parse("2006-01-02", entry); err != nil {
			return internal.NewValidationFieldError("schedule", "schedule entries must be dates in YYYY-MM-DD form", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}

// validTime accepts the clock formats listings produce, with or without
// seconds.
func validTime(field string, value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	if _, err := time.Parse("15:04:05", *value); err == nil {
		return nil
	}
	if _, err := time.Parse("15:04", *value); err == nil {
		return nil
	}
	return internal.NewValidationFieldError(field, field+" must be a time in HH:MM or HH:MM:SS form", internal.ErrCodeInvalidTime)
}

// validDateWindow rejects an engagement that ends before it begins.
func validDateWindow(start, end *string) error {
	startDate, err := parseDate("start_date", start)
	if err != nil {
		return err
	}
	endDate, err := parseDate("end_date", end)
	if err != nil {
		return err
	}
	if startDate != nil && endDate != nil && startDate.After(*endDate) {
		return internal.NewValidationFieldError("end_date", "end date must be after start date", internal.ErrCodeInvalidDate)
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
