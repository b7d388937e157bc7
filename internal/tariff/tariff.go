package tariff

import (
	"time"

	tariffDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/tariff"
)

// Tariff is the hourly rate one guard bills at one property. The active row
// is the pair's current rate; deactivated rows stay behind as history.
type Tariff struct {
	ID              int64     `json:"id"`
	GuardID         int64     `json:"guard_id"`
	GuardName       string    `json:"guard_name"`
	PropertyID      int64     `json:"property_id"`
	PropertyAddress string    `json:"property_address"`
	PropertyOwnerID int64     `json:"-"`
	Rate            float64   `json:"rate"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func ToDataModel(t *Tariff) *tariffDatamodel.Tariff {
	return &tariffDatamodel.Tariff{
		ID:         t.ID,
		GuardID:    t.GuardID,
		PropertyID: t.PropertyID,
		Rate:       t.Rate,
		IsActive:   t.IsActive,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}
