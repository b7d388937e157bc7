package expense

import "time"

// Expense is an operating cost booked against a property, e.g. equipment
// repairs or fuel for a patrol vehicle.
type Expense struct {
	ID          int64     `gorm:"primaryKey"`
	PropertyID  int64     `gorm:"column:property_id;index;not null"`
	Description string    `gorm:"column:description;not null"`
	Amount      float64   `gorm:"column:amount;type:numeric(10,2);not null"`
	ExpenseDate time.Time `gorm:"column:expense_date;type:date"`
	CreatedBy   *int64    `gorm:"column:created_by"`
	IsActive    bool      `gorm:"column:is_active"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
