package shift

import "time"

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusVoided    = "voided"
)

type Shift struct {
	ID                 int64      `gorm:"primaryKey"`
	GuardID            int64      `gorm:"column:guard_id;index;not null"`
	PropertyID         int64      `gorm:"column:property_id;index;not null"`
	ServiceID          *int64     `gorm:"column:service_id"`
	WeaponID           *int64     `gorm:"column:weapon_id"`
	IsArmed            bool       `gorm:"column:is_armed;default:false"`
	PlannedStartTime   *time.Time `gorm:"column:planned_start_time"`
	PlannedEndTime     *time.Time `gorm:"column:planned_end_time"`
	ActualStartTime    *time.Time `gorm:"column:actual_start_time"`
	ActualEndTime      *time.Time `gorm:"column:actual_end_time"`
	PlannedHoursWorked float64    `gorm:"column:planned_hours_worked;type:numeric(5,2);default:0"`
	HoursWorked        int64      `gorm:"column:hours_worked;default:0"`
	Status             string     `gorm:"column:status;default:scheduled"`
	IsActive           bool       `gorm:"column:is_active"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
