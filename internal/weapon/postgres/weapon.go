package postgres

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/core/common/listing"
	guardDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/guard"
	weaponDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/weapon"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/internal/weapon"
)

const weaponColumns = "weapons.id, weapons.guard_id, weapons.serial_number, weapons.model, " +
	"weapons.caliber, weapons.permit_number, weapons.is_active, weapons.created_at, weapons.updated_at, " +
	"users.username AS guard_username, users.first_name AS guard_first_name, users.last_name AS guard_last_name"

var weaponOrderColumns = map[string]string{
	"id":             "weapons.id",
	"serial_number":  "weapons.serial_number",
	"model":          "weapons.model",
	"guard_username": "users.username",
	"created_at":     "weapons.created_at",
	"updated_at":     "weapons.updated_at",
}

type weaponRow struct {
	ID             int64
	GuardID        int64
	SerialNumber   string
	Model          string
	Caliber        string
	PermitNumber   string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	GuardUsername  string
	GuardFirstName string
	GuardLastName  string
}

func (row *weaponRow) toDomain() *weapon.Weapon {
	name := strings.TrimSpace(row.GuardFirstName + " " + row.GuardLastName)
	if name == "" {
		name = row.GuardUsername
	}
	return &weapon.Weapon{
		ID:           row.ID,
		GuardID:      row.GuardID,
		GuardName:    name,
		SerialNumber: row.SerialNumber,
		Model:        row.Model,
		Caliber:      row.Caliber,
		PermitNumber: row.PermitNumber,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type WeaponRepository struct {
	db *gorm.DB
}

func NewWeaponRepository(db *gorm.DB) weapon.Repository {
	return &WeaponRepository{db: db}
}

func (r *WeaponRepository) Create(w *weapon.Weapon) error {
	dm := weapon.ToDataModel(w)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}

	loaded, found, err := r.GetByID(dm.ID)
	if err != nil {
		return err
	}
	if !found {
		return gorm.ErrRecordNotFound
	}
	*w = *loaded
	return nil
}

func (r *WeaponRepository) GetByID(id int64) (*weapon.Weapon, bool, error) {
	var row weaponRow
	err := r.joined().Where("weapons.id = ?", id).Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.toDomain(), true, nil
}

func (r *WeaponRepository) List(q listing.Query, rf permissions.RowFilter, f weapon.Filter) ([]*weapon.Weapon, error) {
	// Weapons have no partial scope, only full visibility reaches rows.
	if rf.Scope != permissions.ScopeAll {
		return []*weapon.Weapon{}, nil
	}

	tx := r.joined()
	if f.GuardID != nil {
		tx = tx.Where("weapons.guard_id = ?", *f.GuardID)
	}

	if !q.IncludeInactive {
		tx = tx.Where("weapons.is_active = ?", true)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where(
			"LOWER(weapons.serial_number) LIKE ? OR LOWER(weapons.model) LIKE ? OR LOWER(users.username) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	if q.DateFrom != nil {
		tx = tx.Where("weapons.created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("weapons.created_at <= ?", *q.DateTo)
	}

	var rows []weaponRow
	err := tx.Order(q.Column(weaponOrderColumns, "weapons.id ASC")).
		Limit(q.Limit).Offset(q.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	weapons := make([]*weapon.Weapon, 0, len(rows))
	for i := range rows {
		weapons = append(weapons, rows[i].toDomain())
	}
	return weapons, nil
}

func (r *WeaponRepository) Update(w *weapon.Weapon) error {
	updates := map[string]interface{}{
		"serial_number": w.SerialNumber,
		"model":         w.Model,
		"caliber":       w.Caliber,
		"permit_number": w.PermitNumber,
		"updated_at":    time.Now(),
	}
	return r.db.Model(&weaponDatamodel.Weapon{}).Where("id = ?", w.ID).Updates(updates).Error
}

func (r *WeaponRepository) SetActive(id int64, active bool) error {
	updates := map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	}
	return r.db.Model(&weaponDatamodel.Weapon{}).Where("id = ?", id).Updates(updates).Error
}

func (r *WeaponRepository) GuardExists(guardID int64) (bool, error) {
	var count int64
	err := r.db.Model(&guardDatamodel.Guard{}).Where("id = ?", guardID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SerialTaken reports whether the guard already holds a weapon with the
// serial. Soft-deleted rows still block re-registration, the unique index
// covers them too.
func (r *WeaponRepository) SerialTaken(guardID int64, serialNumber string, excludeID int64) (bool, error) {
	tx := r.db.Model(&weaponDatamodel.Weapon{}).
		Where("guard_id = ? AND serial_number = ?", guardID, serialNumber)
	if excludeID > 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *WeaponRepository) joined() *gorm.DB {
	return r.db.Table("weapons").
		Select(weaponColumns).
		Joins("JOIN guards ON guards.id = weapons.guard_id").
		Joins("JOIN users ON users.id = guards.user_id")
}
