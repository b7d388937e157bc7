package tariff

import "time"

// Tariff is the hourly rate a guard bills against a specific property.
// Only one active tariff may exist per (guard, property) pair; activating
// a new one deactivates the rest.
type Tariff struct {
	ID         int64     `gorm:"primaryKey"`
	GuardID    int64     `gorm:"column:guard_id;index;not null"`
	PropertyID int64     `gorm:"column:property_id;index;not null"`
	Rate       float64   `gorm:"column:rate;type:numeric(10,2);not null"`
	IsActive   bool      `gorm:"column:is_active"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
