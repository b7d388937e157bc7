package postgres

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/core/common/listing"
	guardDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/guard"
	propertyDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/property"
	shiftDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/shift"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/internal/shift"
)

const shiftColumns = "shifts.id, shifts.guard_id, shifts.property_id, shifts.service_id, " +
	"shifts.weapon_id, shifts.is_armed, shifts.planned_start_time, shifts.planned_end_time, " +
	"shifts.actual_start_time, shifts.actual_end_time, shifts.planned_hours_worked, " +
	"shifts.hours_worked, shifts.status, shifts.is_active, shifts.created_at, shifts.updated_at, " +
	"users.username AS guard_username, users.first_name AS guard_first_name, " +
	"users.last_name AS guard_last_name, properties.address AS property_address, " +
	"properties.owner_id AS property_owner_id"

var shiftOrderColumns = map[string]string{
	"id":                 "shifts.id",
	"planned_start_time": "shifts.planned_start_time",
	"planned_end_time":   "shifts.planned_end_time",
	"actual_start_time":  "shifts.actual_start_time",
	"actual_end_time":    "shifts.actual_end_time",
	"status":             "shifts.status",
	"hours_worked":       "shifts.hours_worked",
	"created_at":         "shifts.created_at",
}

type shiftRow struct {
	ID                 int64
	GuardID            int64
	PropertyID         int64
	ServiceID          *int64
	WeaponID           *int64
	IsArmed            bool
	PlannedStartTime   *time.Time
	PlannedEndTime     *time.Time
	ActualStartTime    *time.Time
	ActualEndTime      *time.Time
	PlannedHoursWorked float64
	HoursWorked        int64
	Status             string
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	GuardUsername      string
	GuardFirstName     string
	GuardLastName      string
	PropertyAddress    string
	PropertyOwnerID    int64
}

func (row *shiftRow) toDomain() *shift.Shift {
	guardName := strings.TrimSpace(strings.TrimSpace(row.GuardFirstName) + " " + strings.TrimSpace(row.GuardLastName))
	if guardName == "" {
		guardName = row.GuardUsername
	}
	return &shift.Shift{
		ID:                 row.ID,
		GuardID:            row.GuardID,
		GuardName:          guardName,
		PropertyID:         row.PropertyID,
		PropertyAddress:    row.PropertyAddress,
		PropertyOwnerID:    row.PropertyOwnerID,
		ServiceID:          row.ServiceID,
		WeaponID:           row.WeaponID,
		IsArmed:            row.IsArmed,
		PlannedStartTime:   row.PlannedStartTime,
		PlannedEndTime:     row.PlannedEndTime,
		ActualStartTime:    row.ActualStartTime,
		ActualEndTime:      row.ActualEndTime,
		PlannedHoursWorked: row.PlannedHoursWorked,
		HoursWorked:        row.HoursWorked,
		Status:             row.Status,
		IsActive:           row.IsActive,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

type ShiftRepository struct {
	db *gorm.DB
}

func NewShiftRepository(db *gorm.DB) shift.Repository {
	return &ShiftRepository{db: db}
}

func (r *ShiftRepository) Create(sh *shift.Shift) error {
	dm := shift.ToDataModel(sh)
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
	*sh = *loaded
	return nil
}

func (r *ShiftRepository) GetByID(id int64) (*shift.Shift, bool, error) {
	var row shiftRow
	err := r.joined().Where("shifts.id = ?", id).Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.toDomain(), true, nil
}

func (r *ShiftRepository) List(q listing.Query, rf permissions.RowFilter, f shift.Filter) ([]*shift.Shift, error) {
	tx := r.joined()

	switch rf.Scope {
	case permissions.ScopeAll:
	case permissions.ScopeSelfGuard:
		tx = tx.Where("shifts.guard_id = ?", rf.GuardID)
	case permissions.ScopeOwnerClient:
		tx = tx.Where("properties.owner_id = ?", rf.ClientID)
	default:
		return []*shift.Shift{}, nil
	}

	if f.GuardID != nil {
		tx = tx.Where("shifts.guard_id = ?", *f.GuardID)
	}
	if f.PropertyID != nil {
		tx = tx.Where("shifts.property_id = ?", *f.PropertyID)
	}
	if f.ServiceID != nil {
		tx = tx.Where("shifts.service_id = ?", *f.ServiceID)
	}

	if !q.IncludeInactive {
		tx = tx.Where("shifts.is_active = ?", true)
	}
	if q.DateFrom != nil {
		tx = tx.Where("shifts.created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("shifts.created_at <= ?", *q.DateTo)
	}

	var rows []shiftRow
	err := tx.Order(q.Column(shiftOrderColumns, "shifts.actual_start_time DESC")).
		Limit(q.Limit).Offset(q.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	shifts := make([]*shift.Shift, 0, len(rows))
	for i := range rows {
		shifts = append(shifts, rows[i].toDomain())
	}
	return shifts, nil
}

func (r *ShiftRepository) Update(sh *shift.Shift) error {
	updates := map[string]interface{}{
		"guard_id":             sh.GuardID,
		"property_id":          sh.PropertyID,
		"service_id":           sh.ServiceID,
		"weapon_id":            sh.WeaponID,
		"is_armed":             sh.IsArmed,
		"planned_start_time":   sh.PlannedStartTime,
		"planned_end_time":     sh.PlannedEndTime,
		"actual_start_time":    sh.ActualStartTime,
		"actual_end_time":      sh.ActualEndTime,
		"planned_hours_worked": sh.PlannedHoursWorked,
		"hours_worked":         sh.HoursWorked,
		"status":               sh.Status,
		"updated_at":           time.Now(),
	}
	if err := r.db.Model(&shiftDatamodel.Shift{}).Where("id = ?", sh.ID).Updates(updates).Error; err != nil {
		return err
	}

	// Reassignments re-point the joins, so refresh the denormalized names.
	loaded, found, err := r.GetByID(sh.ID)
	if err != nil {
		return err
	}
	if found {
		*sh = *loaded
	}
	return nil
}

func (r *ShiftRepository) SetActive(id int64, active bool) error {
	updates := map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	}
	return r.db.Model(&shiftDatamodel.Shift{}).Where("id = ?", id).Updates(updates).Error
}

// NextShift picks the earliest scheduled shift for the guard whose planned
// start is after the given instant. Soft-deleted rows never surface here.
func (r *ShiftRepository) NextShift(guardID int64, after time.Time) (*shift.Shift, bool, error) {
	var row shiftRow
	err := r.joined().
		Where("shifts.guard_id = ?", guardID).
		Where("shifts.status = ?", shiftDatamodel.StatusScheduled).
		Where("shifts.planned_start_time IS NOT NULL").
		Where("shifts.planned_start_time > ?", after).
		Where("shifts.is_active = ?", true).
		Order("shifts.planned_start_time ASC").
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.toDomain(), true, nil
}

func (r *ShiftRepository) GuardExists(guardID int64) (bool, error) {
	var count int64
	err := r.db.Model(&guardDatamodel.Guard{}).Where("id = ?", guardID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ShiftRepository) PropertyExists(propertyID int64) (bool, error) {
	var count int64
	err := r.db.Model(&propertyDatamodel.Property{}).Where("id = ?", propertyID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ShiftRepository) joined() *gorm.DB {
	return r.db.Table("shifts").
		Select(shiftColumns).
		Joins("JOIN guards ON guards.id = shifts.guard_id").
		Joins("JOIN users ON users.id = guards.user_id").
		Joins("JOIN properties ON properties.id = shifts.property_id")
}
