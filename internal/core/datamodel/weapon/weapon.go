package weapon

import "time"

type Weapon struct {
	ID           int64     `gorm:"primaryKey"`
	GuardID      int64     `gorm:"column:guard_id;uniqueIndex:idx_weapons_guard_serial;not null"`
	Model        string    `gorm:"column:model;not null"`
	SerialNumber string    `gorm:"column:serial_number;uniqueIndex:idx_weapons_guard_serial;not null"`
	Caliber      string    `gorm:"column:caliber"`
	PermitNumber string    `gorm:"column:permit_number"`
	IsActive     bool      `gorm:"column:is_active"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
