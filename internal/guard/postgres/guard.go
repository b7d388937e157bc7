package postgres

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/core/common/listing"
	guardDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/guard"
	shiftDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/shift"
	userDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/user"
	"github.com/qu-security/guardforce/internal/guard"
	"github.com/qu-security/guardforce/internal/permissions"
)

const guardColumns = "guards.id, guards.user_id, users.username, users.email, " +
	"users.first_name, users.last_name, guards.phone, guards.ssn, guards.address, " +
	"guards.birth_date, guards.is_active, guards.created_at, guards.updated_at"

var guardOrderColumns = map[string]string{
	"id":         "guards.id",
	"username":   "users.username",
	"email":      "users.email",
	"first_name": "users.first_name",
	"last_name":  "users.last_name",
	"phone":      "guards.phone",
	"created_at": "guards.created_at",
}

type guardRow struct {
	ID        int64
	UserID    int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	SSN       string
	Address   string
	BirthDate *time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (row *guardRow) toDomain() *guard.Guard {
	return &guard.Guard{
		ID:        row.ID,
		UserID:    row.UserID,
		Username:  row.Username,
		Email:     row.Email,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Phone:     row.Phone,
		SSN:       row.SSN,
		Address:   row.Address,
		BirthDate: row.BirthDate,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

type GuardRepository struct {
	db *gorm.DB
}

func NewGuardRepository(db *gorm.DB) guard.Repository {
	return &GuardRepository{db: db}
}

func (r *GuardRepository) Create(g *guard.Guard) error {
	dm := guard.ToDataModel(g)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	return r.refresh(dm.ID, g)
}

// CreateWithUser inserts the backing user account and the guard profile in
// one transaction. The password hash stays empty, which no login attempt
// can ever match.
func (r *GuardRepository) CreateWithUser(g *guard.Guard) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		username, err := uniqueUsername(tx, g.Email)
		if err != nil {
			return err
		}

		now := time.Now()
		u := &userDatamodel.User{
			Username:   username,
			Email:      g.Email,
			FirstName:  g.FirstName,
			LastName:   g.LastName,
			IsStaff:    false,
			IsActive:   true,
			DateJoined: now,
			UpdatedAt:  now,
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}

		dm := guard.ToDataModel(g)
		dm.UserID = u.ID
		if err := tx.Create(dm).Error; err != nil {
			return err
		}

		g.ID = dm.ID
		g.UserID = u.ID
		g.Username = username
		g.CreatedAt = dm.CreatedAt
		g.UpdatedAt = dm.UpdatedAt
		return nil
	})
}

func (r *GuardRepository) GetByID(id int64) (*guard.Guard, bool, error) {
	var row guardRow
	err := r.db.Table("guards").
		Select(guardColumns).
		Joins("JOIN users ON users.id = guards.user_id").
		Where("guards.id = ?", id).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.toDomain(), true, nil
}

func (r *GuardRepository) List(q listing.Query, rf permissions.RowFilter) ([]*guard.Guard, error) {
	tx := r.db.Table("guards").
		Select(guardColumns).
		Joins("JOIN users ON users.id = guards.user_id")

	switch rf.Scope {
	case permissions.ScopeAll:
	case permissions.ScopeSelfUser:
		tx = tx.Where("guards.user_id = ?", rf.UserID)
	case permissions.ScopeOwnerClient:
		// Guards serving the client's properties through an active tariff.
		tx = tx.Where(
			"guards.id IN (SELECT t.guard_id FROM tariffs t JOIN properties p ON p.id = t.property_id WHERE p.owner_id = ? AND t.is_active = ?)",
			rf.ClientID, true,
		)
	default:
		return []*guard.Guard{}, nil
	}

	if !q.IncludeInactive {
		tx = tx.Where("guards.is_active = ?", true)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where(
			"LOWER(users.username) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(guards.phone) LIKE ? OR LOWER(guards.address) LIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern,
		)
	}

	var rows []guardRow
	err := tx.Order(q.Column(guardOrderColumns, "guards.id ASC")).
		Limit(q.Limit).Offset(q.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	guards := make([]*guard.Guard, 0, len(rows))
	for i := range rows {
		guards = append(guards, rows[i].toDomain())
	}
	return guards, nil
}

// Update patches the profile fields on the guard row and the identity
// fields on the backing user row.
func (r *GuardRepository) Update(g *guard.Guard) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		userUpdates := map[string]interface{}{
			"email":      g.Email,
			"first_name": g.FirstName,
			"last_name":  g.LastName,
			"updated_at": now,
		}
		if err := tx.Model(&userDatamodel.User{}).Where("id = ?", g.UserID).Updates(userUpdates).Error; err != nil {
			return err
		}

		guardUpdates := map[string]interface{}{
			"phone":      g.Phone,
			"ssn":        g.SSN,
			"address":    g.Address,
			"birth_date": g.BirthDate,
			"updated_at": now,
		}
		return tx.Model(&guardDatamodel.Guard{}).Where("id = ?", g.ID).Updates(guardUpdates).Error
	})
}

func (r *GuardRepository) SetActive(id int64, active bool) error {
	updates := map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	}
	return r.db.Model(&guardDatamodel.Guard{}).Where("id = ?", id).Updates(updates).Error
}

func (r *GuardRepository) ShiftsCount(guardID int64) (int64, error) {
	var count int64
	err := r.db.Model(&shiftDatamodel.Shift{}).Where("guard_id = ?", guardID).Count(&count).Error
	return count, err
}

type workloadRow struct {
	ShiftID          int64
	PropertyID       int64
	ServiceID        *int64
	PlannedStartTime *time.Time
	PlannedEndTime   *time.Time
	Status           string
	HoursWorked      int64
	IsArmed          bool
	PropertyName     string
	PropertyAlias    *string
	PropertyAddress  string
	PropertyActive   bool
}

// PropertiesShifts loads the guard's shifts joined with their properties
// and groups them per property, preserving first-seen order.
func (r *GuardRepository) PropertiesShifts(guardID int64) ([]*guard.PropertyShifts, error) {
	var rows []workloadRow
	err := r.db.Table("shifts").
		Select("shifts.id AS shift_id, shifts.property_id, shifts.service_id, "+
			"shifts.planned_start_time, shifts.planned_end_time, shifts.status, "+
			"shifts.hours_worked, shifts.is_armed, "+
			"properties.name AS property_name, properties.alias AS property_alias, "+
			"properties.address AS property_address, properties.is_active AS property_active").
		Joins("JOIN properties ON properties.id = shifts.property_id").
		Where("shifts.guard_id = ?", guardID).
		Order("shifts.property_id ASC, shifts.planned_start_time ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make([]*guard.PropertyShifts, 0)
	index := make(map[int64]*guard.PropertyShifts)
	for i := range rows {
		row := &rows[i]
		entry, ok := index[row.PropertyID]
		if !ok {
			entry = &guard.PropertyShifts{
				Property: &guard.PropertySummary{
					ID:       row.PropertyID,
					Name:     row.PropertyName,
					Alias:    row.PropertyAlias,
					Address:  row.PropertyAddress,
					IsActive: row.PropertyActive,
				},
			}
			index[row.PropertyID] = entry
			grouped = append(grouped, entry)
		}
		entry.Shifts = append(entry.Shifts, &guard.ShiftSummary{
			ID:               row.ShiftID,
			PropertyID:       row.PropertyID,
			ServiceID:        row.ServiceID,
			PlannedStartTime: row.PlannedStartTime,
			PlannedEndTime:   row.PlannedEndTime,
			Status:           row.Status,
			HoursWorked:      row.HoursWorked,
			IsArmed:          row.IsArmed,
		})
	}
	return grouped, nil
}

func (r *GuardRepository) HasProfile(userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&guardDatamodel.Guard{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GuardRepository) UserExists(userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).Where("id = ?", userID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GuardRepository) EmailInUse(email string, excludeUserID int64) (bool, error) {
	tx := r.db.Model(&userDatamodel.User{}).Where("LOWER(email) = LOWER(?)", email)
	if excludeUserID > 0 {
		tx = tx.Where("id <> ?", excludeUserID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GuardRepository) refresh(id int64, g *guard.Guard) error {
	loaded, found, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if !found {
		return gorm.ErrRecordNotFound
	}
	*g = *loaded
	return nil
}

// uniqueUsername derives a username from the email local part, shrinking
// the base so the numeric suffix keeps the result under 150 characters.
func uniqueUsername(tx *gorm.DB, email string) (string, error) {
	base := email
	if at := strings.Index(email, "@"); at > 0 {
		base = email[:at]
	}
	base = strings.TrimSpace(base)
	if base == "" {
		base = "guard"
	}
	if len(base) > 150 {
		base = base[:150]
	}

	name := base
	for i := 1; ; i++ {
		var count int64
		if err := tx.Model(&userDatamodel.User{}).Where("username = ?", name).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return name, nil
		}
		suffix := strconv.Itoa(i)
		maxBase := 150 - len(suffix)
		if len(base) > maxBase {
			name = base[:maxBase] + suffix
		} else {
			name = base + suffix
		}
	}
}
