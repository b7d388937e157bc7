package weapon

import (
	"time"

	weaponDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/weapon"
)

// Weapon is a firearm registered to one guard. The same serial number may
// exist across guards but never twice under one guard.
type Weapon struct {
	ID           int64     `json:"id"`
	GuardID      int64     `json:"guard_id"`
	GuardName    string    `json:"guard_name"`
	SerialNumber string    `json:"serial_number"`
	Model        string    `json:"model"`
	Caliber      string    `json:"caliber"`
	PermitNumber string    `json:"permit_number"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToDataModel(w *Weapon) *weaponDatamodel.Weapon {
	return &weaponDatamodel.Weapon{
		ID:           w.ID,
		GuardID:      w.GuardID,
		Model:        w.Model,
		SerialNumber: w.SerialNumber,
		Caliber:      w.Caliber,
		PermitNumber: w.PermitNumber,
		IsActive:     w.IsActive,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}
