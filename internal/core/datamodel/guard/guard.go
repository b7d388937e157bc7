package guard

import "time"

type Guard struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    int64      `gorm:"column:user_id;uniqueIndex;not null"`
	Phone     string     `gorm:"column:phone"`
	SSN       string     `gorm:"column:ssn"`
	Address   string     `gorm:"column:address"`
	BirthDate *time.Time `gorm:"column:birth_date;type:date"`
	IsActive  bool       `gorm:"column:is_active"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
