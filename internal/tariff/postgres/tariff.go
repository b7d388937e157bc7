package postgres

import (
	"strings"
	"time"

	"gorm.io/gorm"

	guardDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/guard"
	propertyDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/property"
	tariffDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/tariff"

	"github.com/qu-security/guardforce/internal/core/common/listing"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/internal/tariff"
)

const tariffColumns = "tariffs.id, tariffs.guard_id, tariffs.property_id, tariffs.rate, " +
	"tariffs.is_active, tariffs.created_at, tariffs.updated_at, " +
	"users.username AS guard_username, users.first_name AS guard_first_name, users.last_name AS guard_last_name, " +
	"properties.address AS property_address, properties.owner_id AS property_owner_id"

var tariffOrderColumns = map[string]string{
	"id":         "tariffs.id",
	"rate":       "tariffs.rate",
	"created_at": "tariffs.created_at",
	"updated_at": "tariffs.updated_at",
}

type tariffRow struct {
	ID              int64
	GuardID         int64
	PropertyID      int64
	Rate            float64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	GuardUsername   string
	GuardFirstName  string
	GuardLastName   string
	PropertyAddress string
	PropertyOwnerID int64
}

func (r *tariffRow) toDomain() *tariff.Tariff {
	name := strings.TrimSpace(r.GuardFirstName + " " + r.GuardLastName)
	if name == "" {
		name = r.GuardUsername
	}
	return &tariff.Tariff{
		ID:              r.ID,
		GuardID:         r.GuardID,
		GuardName:       name,
		PropertyID:      r.PropertyID,
		PropertyAddress: r.PropertyAddress,
		PropertyOwnerID: r.PropertyOwnerID,
		Rate:            r.Rate,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// TariffRepository implements the tariff.Repository interface using GORM
type TariffRepository struct {
	db *gorm.DB
}

func NewTariffRepository(db *gorm.DB) tariff.Repository {
	return &TariffRepository{db: db}
}

// Create inserts the tariff and, when it is active, retires the pair's
// previous active row in the same transaction.
func (r *TariffRepository) Create(t *tariff.Tariff) error {
	row := tariff.ToDataModel(t)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if row.IsActive {
			if err := deactivateOthers(tx, row.GuardID, row.PropertyID, 0); err != nil {
				return err
			}
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return err
	}

	loaded, found, err := r.GetByID(row.ID)
	if err != nil {
		return err
	}
	if found {
		*t = *loaded
	}
	return nil
}

func (r *TariffRepository) GetByID(id int64) (*tariff.Tariff, bool, error) {
	var row tariffRow
	err := r.joined().Where("tariffs.id = ?", id).Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.toDomain(), true, nil
}

func (r *TariffRepository) List(q listing.Query, rf permissions.RowFilter, f tariff.Filter) ([]*tariff.Tariff, error) {
	query := r.joined()

	switch rf.Scope {
	case permissions.ScopeAll:
	case permissions.ScopeOwnerClient:
		query = query.Where("properties.owner_id = ?", rf.ClientID)
	case permissions.ScopeSelfGuard:
		query = query.Where("tariffs.guard_id = ?", rf.GuardID)
	default:
		return []*tariff.Tariff{}, nil
	}

	if f.GuardID != nil {
		query = query.Where("tariffs.guard_id = ?", *f.GuardID)
	}
	if f.PropertyID != nil {
		query = query.Where("tariffs.property_id = ?", *f.PropertyID)
	}
	if !q.IncludeInactive {
		query = query.Where("tariffs.is_active = ?", true)
	}
	if q.DateFrom != nil {
		query = query.Where("tariffs.created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where("tariffs.created_at <= ?", *q.DateTo)
	}

	var rows []tariffRow
	err := query.
		Order(q.Column(tariffOrderColumns, "tariffs.id DESC")).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	tariffs := make([]*tariff.Tariff, 0, len(rows))
	for i := range rows {
		tariffs = append(tariffs, rows[i].toDomain())
	}
	return tariffs, nil
}

// Update patches the row and keeps the one-active-per-pair rule: when the
// updated tariff ends up active, the pair's other rows are retired first.
func (r *TariffRepository) Update(t *tariff.Tariff) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if t.IsActive {
			if err := deactivateOthers(tx, t.GuardID, t.PropertyID, t.ID); err != nil {
				return err
			}
		}
		return tx.Model(&tariffDatamodel.Tariff{}).
			Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"guard_id":    t.GuardID,
				"property_id": t.PropertyID,
				"rate":        t.Rate,
				"is_active":   t.IsActive,
				"updated_at":  time.Now(),
			}).Error
	})
	if err != nil {
		return err
	}

	// Restaffing or moving the tariff re-points the joins, so refresh the
	// denormalized names.
	loaded, found, err := r.GetByID(t.ID)
	if err != nil {
		return err
	}
	if found {
		*t = *loaded
	}
	return nil
}

func (r *TariffRepository) Deactivate(id int64) error {
	return r.db.Model(&tariffDatamodel.Tariff{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}

// Activate makes the row the pair's current rate, retiring whichever row
// held that place.
func (r *TariffRepository) Activate(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var row tariffDatamodel.Tariff
		if err := tx.Where("id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		if err := deactivateOthers(tx, row.GuardID, row.PropertyID, id); err != nil {
			return err
		}
		return tx.Model(&tariffDatamodel.Tariff{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"is_active":  true,
				"updated_at": time.Now(),
			}).Error
	})
}

func (r *TariffRepository) GuardExists(guardID int64) (bool, error) {
	var count int64
	err := r.db.Model(&guardDatamodel.Guard{}).
		Where("id = ?", guardID).
		Count(&count).Error
	return count > 0, err
}

func (r *TariffRepository) PropertyOwner(propertyID int64) (int64, bool, error) {
	var row propertyDatamodel.Property
	err := r.db.Select("owner_id").Where("id = ?", propertyID).Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.OwnerID, true, nil
}

func deactivateOthers(tx *gorm.DB, guardID, propertyID, excludeID int64) error {
	query := tx.Model(&tariffDatamodel.Tariff{}).
		Where("guard_id = ? AND property_id = ? AND is_active = ?", guardID, propertyID, true)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	return query.Updates(map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	}).Error
}

func (r *TariffRepository) joined() *gorm.DB {
	return r.db.Table("tariffs").
		Select(tariffColumns).
		Joins("JOIN guards ON guards.id = tariffs.guard_id").
		Joins("JOIN users ON users.id = guards.user_id").
		Joins("JOIN properties ON properties.id = tariffs.property_id")
}
