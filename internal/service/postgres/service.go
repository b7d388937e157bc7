package postgres

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/core/common/listing"
	guardDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/guard"
	propertyDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/property"
	serviceDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/service"
	"github.com/qu-security/guardforce/internal/service"
)

const serviceColumns = "services.id, services.name, services.description, services.guard_id, " +
	"services.property_id, services.rate, services.monthly_budget, services.contract_start_date, " +
	"services.schedule, services.start_time, services.end_time, services.recurrent, services.weekly, " +
	"services.start_date, services.end_date, services.scheduled_total_hours, services.is_active, " +
	"services.created_at, services.updated_at, " +
	"users.username AS guard_username, users.first_name AS guard_first_name, " +
	"users.last_name AS guard_last_name, properties.name AS property_name"

var serviceOrderColumns = map[string]string{
	"id":             "services.id",
	"name":           "services.name",
	"rate":           "services.rate",
	"monthly_budget": "services.monthly_budget",
	"created_at":     "services.created_at",
}

type serviceRow struct {
	ID                  int64
	Name                string
	Description         string
	GuardID             *int64
	PropertyID          *int64
	Rate                *float64
	MonthlyBudget       *float64
	ContractStartDate   *time.Time
	Schedule            serviceDatamodel.StringList
	StartTime           *string
	EndTime             *string
	Recurrent           bool
	Weekly              serviceDatamodel.StringList
	StartDate           *time.Time
	EndDate             *time.Time
	ScheduledTotalHours int64
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	GuardUsername       *string
	GuardFirstName      *string
	GuardLastName       *string
	PropertyName        *string
}

func (row *serviceRow) toDomain() *service.GuardService {
	gs := &service.GuardService{
		ID:                  row.ID,
		Name:                row.Name,
		Description:         row.Description,
		GuardID:             row.GuardID,
		PropertyID:          row.PropertyID,
		Rate:                row.Rate,
		MonthlyBudget:       row.MonthlyBudget,
		ContractStartDate:   row.ContractStartDate,
		Schedule:            []string(row.Schedule),
		Recurrent:           row.Recurrent,
		StartTime:           row.StartTime,
		EndTime:             row.EndTime,
		Weekly:              []string(row.Weekly),
		WeeklyDisplay:       service.WeeklyDisplayText(row.Weekly),
		StartDate:           row.StartDate,
		EndDate:             row.EndDate,
		TotalHours:          row.ScheduledTotalHours,
		IsActive:            row.IsActive,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	gs.GuardName = guardName(row.GuardUsername, row.GuardFirstName, row.GuardLastName)
	if row.PropertyName != nil {
		gs.PropertyName = *row.PropertyName
	}
	return gs
}

func guardName(username, first, last *string) string {
	var parts []string
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if username != nil {
		return *username
	}
	return ""
}

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) service.Repository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(gs *service.GuardService) error {
	dm := service.ToDataModel(gs)
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
	*gs = *loaded
	return nil
}

func (r *ServiceRepository) GetByID(id int64) (*service.GuardService, bool, error) {
	var row serviceRow
	err := r.joined().Where("services.id = ?", id).Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.toDomain(), true, nil
}

func (r *ServiceRepository) List(q listing.Query, f service.Filter) ([]*service.GuardService, error) {
	tx := r.joined()

	if f.GuardID != nil {
		tx = tx.Where("services.guard_id = ?", *f.GuardID)
	}
	if f.PropertyID != nil {
		tx = tx.Where("services.property_id = ?", *f.PropertyID)
	}

	if !q.IncludeInactive {
		tx = tx.Where("services.is_active = ?", true)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where(
			"LOWER(services.name) LIKE ? OR LOWER(services.description) LIKE ? OR LOWER(users.username) LIKE ? OR LOWER(properties.name) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if q.DateFrom != nil {
		tx = tx.Where("services.created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("services.created_at <= ?", *q.DateTo)
	}

	var rows []serviceRow
	err := tx.Order(q.Column(serviceOrderColumns, "services.id ASC")).
		Limit(q.Limit).Offset(q.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	services := make([]*service.GuardService, 0, len(rows))
	for i := range rows {
		services = append(services, rows[i].toDomain())
	}
	return services, nil
}

func (r *ServiceRepository) Update(gs *service.GuardService) error {
	updates := map[string]interface{}{
		"name":                  gs.Name,
		"description":           gs.Description,
		"guard_id":              gs.GuardID,
		"property_id":           gs.PropertyID,
		"rate":                  gs.Rate,
		"monthly_budget":        gs.MonthlyBudget,
		"contract_start_date":   gs.ContractStartDate,
		"schedule":              serviceDatamodel.StringList(gs.Schedule),
		"start_time":            gs.StartTime,
		"end_time":              gs.EndTime,
		"recurrent":             gs.Recurrent,
		"weekly":                serviceDatamodel.StringList(gs.Weekly),
		"start_date":            gs.StartDate,
		"end_date":              gs.EndDate,
		"scheduled_total_hours": gs.TotalHours,
		"updated_at":            time.Now(),
	}
	if err := r.db.Model(&serviceDatamodel.Service{}).Where("id = ?", gs.ID).Updates(updates).Error; err != nil {
		return err
	}

	// Restaffing re-points the joins, so refresh the denormalized names.
	loaded, found, err := r.GetByID(gs.ID)
	if err != nil {
		return err
	}
	if found {
		*gs = *loaded
	}
	return nil
}

func (r *ServiceRepository) SetActive(id int64, active bool) error {
	updates := map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	}
	return r.db.Model(&serviceDatamodel.Service{}).Where("id = ?", id).Updates(updates).Error
}

// Shifts lists the shifts booked under one engagement, most recent first.
// Soft-deleted shifts stay out.
func (r *ServiceRepository) Shifts(serviceID int64) ([]*service.ServiceShift, error) {
	type shiftRow struct {
		ID               int64
		GuardID          int64
		PropertyID       int64
		PlannedStartTime *time.Time
		PlannedEndTime   *time.Time
		ActualStartTime  *time.Time
		ActualEndTime    *time.Time
		Status           string
		HoursWorked      int64
		IsArmed          bool
		GuardUsername    *string
		GuardFirstName   *string
		GuardLastName    *string
	}

	var rows []shiftRow
	err := r.db.Table("shifts").
		Select("shifts.id, shifts.guard_id, shifts.property_id, shifts.planned_start_time, "+
			"shifts.planned_end_time, shifts.actual_start_time, shifts.actual_end_time, "+
			"shifts.status, shifts.hours_worked, shifts.is_armed, "+
			"users.username AS guard_username, users.first_name AS guard_first_name, "+
			"users.last_name AS guard_last_name").
		Joins("JOIN guards ON guards.id = shifts.guard_id").
		Joins("JOIN users ON users.id = guards.user_id").
		Where("shifts.service_id = ? AND shifts.is_active = ?", serviceID, true).
		Order("shifts.actual_start_time DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	shifts := make([]*service.ServiceShift, 0, len(rows))
	for i := range rows {
		row := rows[i]
		shifts = append(shifts, &service.ServiceShift{
			ID:               row.ID,
			GuardID:          row.GuardID,
			GuardName:        guardName(row.GuardUsername, row.GuardFirstName, row.GuardLastName),
			PropertyID:       row.PropertyID,
			PlannedStartTime: row.PlannedStartTime,
			PlannedEndTime:   row.PlannedEndTime,
			ActualStartTime:  row.ActualStartTime,
			ActualEndTime:    row.ActualEndTime,
			Status:           row.Status,
			HoursWorked:      row.HoursWorked,
			IsArmed:          row.IsArmed,
		})
	}
	return shifts, nil
}

func (r *ServiceRepository) GuardExists(guardID int64) (bool, error) {
	var count int64
	err := r.db.Model(&guardDatamodel.Guard{}).Where("id = ?", guardID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ServiceRepository) PropertyExists(propertyID int64) (bool, error) {
	var count int64
	err := r.db.Model(&propertyDatamodel.Property{}).Where("id = ?", propertyID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ServiceRepository) joined() *gorm.DB {
	return r.db.Table("services").
		Select(serviceColumns).
		Joins("LEFT JOIN guards ON guards.id = services.guard_id").
		Joins("LEFT JOIN users ON users.id = guards.user_id").
		Joins("LEFT JOIN properties ON properties.id = services.property_id")
}
