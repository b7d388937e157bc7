package note

import (
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

type CreateNoteDTO struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Amount         *float64 `json:"amount"`
	Clients        []int64  `json:"clients"`
	Properties     []int64  `json:"properties"`
	Guards         []int64  `json:"guards"`
	Services       []int64  `json:"services"`
	Shifts         []int64  `json:"shifts"`
	Weapons        []int64  `json:"weapons"`
	TypeOfServices []int64  `json:"type_of_services"`
}

func (d *CreateNoteDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("name", d.Name).Required().MaxLength(255)
	validator.Field("description", d.Description).MaxLength(5000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateNoteDTO patches a note. Nil fields keep their stored values; a
// present-but-empty relation list clears that relation.
type UpdateNoteDTO struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	Amount         *float64 `json:"amount"`
	Clients        *[]int64 `json:"clients"`
	Properties     *[]int64 `json:"properties"`
	Guards         *[]int64 `json:"guards"`
	Services       *[]int64 `json:"services"`
	Shifts         *[]int64 `json:"shifts"`
	Weapons        *[]int64 `json:"weapons"`
	TypeOfServices *[]int64 `json:"type_of_services"`
}

func (d *UpdateNoteDTO) Validate() error {
	validator := validation.NewValidator()
	if d.Name != nil {
		validator.Field("name", *d.Name).Required().MaxLength(255)
	}
	if d.Description != nil {
		validator.Field("description", *d.Description).MaxLength(5000)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
