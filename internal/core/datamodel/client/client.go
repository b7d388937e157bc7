package client

import "time"

type Client struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;uniqueIndex;not null"`
	Phone     string    `gorm:"column:phone"`
	Balance   float64   `gorm:"column:balance;type:numeric(10,2);default:0"`
	IsActive  bool      `gorm:"column:is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
