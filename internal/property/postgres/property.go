package postgres

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/core/common/listing"
	clientDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/client"
	expenseDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/expense"
	propertyDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/property"
	shiftDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/shift"
	"github.com/qu-security/guardforce/internal/permissions"
	"github.com/qu-security/guardforce/internal/property"
)

const propertyColumns = "properties.id, properties.owner_id, properties.name, " +
	"properties.alias, properties.address, properties.monthly_rate, " +
	"properties.contract_start_date, properties.total_hours, properties.is_active, " +
	"properties.created_at, properties.updated_at, " +
	"users.username AS owner_username, users.first_name AS owner_first_name, " +
	"users.last_name AS owner_last_name"

var propertyOrderColumns = map[string]string{
	"id":                  "properties.id",
	"name":                "properties.name",
	"alias":               "properties.alias",
	"contract_start_date": "properties.contract_start_date",
	"created_at":          "properties.created_at",
}

type propertyRow struct {
	ID                int64
	OwnerID           int64
	Name              string
	Alias             *string
	Address           string
	MonthlyRate       *float64
	ContractStartDate *time.Time
	TotalHours        float64
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	OwnerUsername     string
	OwnerFirstName    string
	OwnerLastName     string
}

func (row *propertyRow) toDomain() *property.Property {
	ownerName := strings.TrimSpace(strings.TrimSpace(row.OwnerFirstName) + " " + strings.TrimSpace(row.OwnerLastName))
	if ownerName == "" {
		ownerName = row.OwnerUsername
	}
	return &property.Property{
		ID:                row.ID,
		OwnerID:           row.OwnerID,
		OwnerName:         ownerName,
		Name:              row.Name,
		Alias:             row.Alias,
		Address:           row.Address,
		MonthlyRate:       row.MonthlyRate,
		ContractStartDate: row.ContractStartDate,
		TotalHours:        row.TotalHours,
		IsActive:          row.IsActive,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) property.Repository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(p *property.Property) error {
	dm := property.ToDataModel(p)
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
	*p = *loaded
	return nil
}

func (r *PropertyRepository) GetByID(id int64) (*property.Property, bool, error) {
	var row propertyRow
	err := r.joined().Where("properties.id = ?", id).Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.toDomain(), true, nil
}

func (r *PropertyRepository) List(q listing.Query, rf permissions.RowFilter) ([]*property.Property, error) {
	tx := r.joined()

	switch rf.Scope {
	case permissions.ScopeAll:
	case permissions.ScopeOwnerClient:
		tx = tx.Where("properties.owner_id = ?", rf.ClientID)
	case permissions.ScopeAssignedProperties:
		if len(rf.PropertyIDs) == 0 {
			return []*property.Property{}, nil
		}
		tx = tx.Where("properties.id IN ?", rf.PropertyIDs)
	default:
		return []*property.Property{}, nil
	}

	if !q.IncludeInactive {
		tx = tx.Where("properties.is_active = ?", true)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where(
			"LOWER(properties.name) LIKE ? OR LOWER(properties.alias) LIKE ? OR LOWER(properties.address) LIKE ? OR LOWER(users.username) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern, pattern,
		)
	}

	var rows []propertyRow
	err := tx.Order(q.Column(propertyOrderColumns, "properties.id ASC")).
		Limit(q.Limit).Offset(q.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	properties := make([]*property.Property, 0, len(rows))
	for i := range rows {
		properties = append(properties, rows[i].toDomain())
	}
	return properties, nil
}

func (r *PropertyRepository) Update(p *property.Property) error {
	updates := map[string]interface{}{
		"name":                p.Name,
		"alias":               p.Alias,
		"address":             p.Address,
		"monthly_rate":        p.MonthlyRate,
		"contract_start_date": p.ContractStartDate,
		"updated_at":          time.Now(),
	}
	return r.db.Model(&propertyDatamodel.Property{}).Where("id = ?", p.ID).Updates(updates).Error
}

func (r *PropertyRepository) SetActive(id int64, active bool) error {
	updates := map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	}
	return r.db.Model(&propertyDatamodel.Property{}).Where("id = ?", id).Updates(updates).Error
}

func (r *PropertyRepository) AliasInUse(ownerID int64, alias string, excludeID int64) (bool, error) {
	tx := r.db.Model(&propertyDatamodel.Property{}).
		Where("owner_id = ? AND alias = ?", ownerID, alias)
	if excludeID > 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PropertyRepository) ClientExists(clientID int64) (bool, error) {
	var count int64
	err := r.db.Model(&clientDatamodel.Client{}).Where("id = ?", clientID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PropertyRepository) Counters(propertyID int64) (int64, int64, float64, error) {
	var shifts int64
	if err := r.db.Model(&shiftDatamodel.Shift{}).Where("property_id = ?", propertyID).Count(&shifts).Error; err != nil {
		return 0, 0, 0, err
	}

	var expenses int64
	if err := r.db.Model(&expenseDatamodel.Expense{}).Where("property_id = ?", propertyID).Count(&expenses).Error; err != nil {
		return 0, 0, 0, err
	}

	var total struct {
		Amount float64
	}
	err := r.db.Model(&expenseDatamodel.Expense{}).
		Select("COALESCE(SUM(amount), 0) AS amount").
		Where("property_id = ?", propertyID).
		Scan(&total).Error
	if err != nil {
		return 0, 0, 0, err
	}
	return shifts, expenses, total.Amount, nil
}

func (r *PropertyRepository) Shifts(propertyID int64) ([]*property.ShiftSummary, error) {
	var dms []*shiftDatamodel.Shift
	err := r.db.Where("property_id = ?", propertyID).
		Order("planned_start_time ASC").
		Find(&dms).Error
	if err != nil {
		return nil, err
	}

	shifts := make([]*property.ShiftSummary, 0, len(dms))
	for _, dm := range dms {
		shifts = append(shifts, &property.ShiftSummary{
			ID:               dm.ID,
			GuardID:          dm.GuardID,
			ServiceID:        dm.ServiceID,
			PlannedStartTime: dm.PlannedStartTime,
			PlannedEndTime:   dm.PlannedEndTime,
			Status:           dm.Status,
			HoursWorked:      dm.HoursWorked,
			IsArmed:          dm.IsArmed,
		})
	}
	return shifts, nil
}

func (r *PropertyRepository) Expenses(propertyID int64) ([]*property.ExpenseSummary, error) {
	var dms []*expenseDatamodel.Expense
	err := r.db.Where("property_id = ?", propertyID).
		Order("expense_date DESC").
		Find(&dms).Error
	if err != nil {
		return nil, err
	}

	expenses := make([]*property.ExpenseSummary, 0, len(dms))
	for _, dm := range dms {
		expenses = append(expenses, &property.ExpenseSummary{
			ID:          dm.ID,
			Description: dm.Description,
			Amount:      dm.Amount,
			ExpenseDate: dm.ExpenseDate,
			IsActive:    dm.IsActive,
		})
	}
	return expenses, nil
}

type staffingRow struct {
	ShiftID          int64
	GuardID          int64
	ServiceID        *int64
	PlannedStartTime *time.Time
	PlannedEndTime   *time.Time
	Status           string
	HoursWorked      int64
	IsArmed          bool
	GuardUserID      int64
	GuardUsername    string
	GuardFirstName   string
	GuardLastName    string
	GuardPhone       string
}

// GuardsShifts loads the property's shifts joined with their guards and
// groups them per guard, preserving first-seen order.
func (r *PropertyRepository) GuardsShifts(propertyID int64) ([]*property.GuardShifts, error) {
	var rows []staffingRow
	err := r.db.Table("shifts").
		Select("shifts.id AS shift_id, shifts.guard_id, shifts.service_id, "+
			"shifts.planned_start_time, shifts.planned_end_time, shifts.status, "+
			"shifts.hours_worked, shifts.is_armed, "+
			"guards.user_id AS guard_user_id, users.username AS guard_username, "+
			"users.first_name AS guard_first_name, users.last_name AS guard_last_name, "+
			"guards.phone AS guard_phone").
		Joins("JOIN guards ON guards.id = shifts.guard_id").
		Joins("JOIN users ON users.id = guards.user_id").
		Where("shifts.property_id = ?", propertyID).
		Order("shifts.guard_id ASC, shifts.planned_start_time ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make([]*property.GuardShifts, 0)
	index := make(map[int64]*property.GuardShifts)
	for i := range rows {
		row := &rows[i]
		entry, ok := index[row.GuardID]
		if !ok {
			entry = &property.GuardShifts{
				Guard: &property.GuardSummary{
					ID:        row.GuardID,
					UserID:    row.GuardUserID,
					Username:  row.GuardUsername,
					FirstName: row.GuardFirstName,
					LastName:  row.GuardLastName,
					Phone:     row.GuardPhone,
				},
			}
			index[row.GuardID] = entry
			grouped = append(grouped, entry)
		}
		entry.Shifts = append(entry.Shifts, &property.ShiftSummary{
			ID:               row.ShiftID,
			GuardID:          row.GuardID,
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

func (r *PropertyRepository) Types() ([]*property.TypeOption, error) {
	var dms []*propertyDatamodel.PropertyType
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&dms).Error
	if err != nil {
		return nil, err
	}

	types := make([]*property.TypeOption, 0, len(dms))
	for _, dm := range dms {
		types = append(types, &property.TypeOption{
			ID:    dm.ID,
			Name:  dm.Name,
			Notes: dm.Notes,
		})
	}
	return types, nil
}

func (r *PropertyRepository) joined() *gorm.DB {
	return r.db.Table("properties").
		Select(propertyColumns).
		Joins("JOIN clients ON clients.id = properties.owner_id").
		Joins("JOIN users ON users.id = clients.user_id")
}
