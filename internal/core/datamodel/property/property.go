package property

import "time"

type Property struct {
	ID                int64      `gorm:"primaryKey"`
	OwnerID           int64      `gorm:"column:owner_id;index;not null"`
	Name              string     `gorm:"column:name;not null"`
	Alias             *string    `gorm:"column:alias"`
	Address           string     `gorm:"column:address"`
	MonthlyRate       *float64   `gorm:"column:monthly_rate;type:numeric(10,2)"`
	ContractStartDate *time.Time `gorm:"column:contract_start_date"`
	TotalHours        float64    `gorm:"column:total_hours;type:numeric(10,2);default:0"`
	IsActive          bool       `gorm:"column:is_active"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

type PropertyType struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	Notes     string    `gorm:"column:notes"`
	IsActive  bool      `gorm:"column:is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PropertyTypeLink ties a property to a type with an effective date, so a
// property can change type over time without losing history.
type PropertyTypeLink struct {
	ID             int64     `gorm:"primaryKey"`
	PropertyID     int64     `gorm:"column:property_id;uniqueIndex:idx_property_type_links_pair;not null"`
	PropertyTypeID int64     `gorm:"column:property_type_id;uniqueIndex:idx_property_type_links_pair;not null"`
	EffectiveDate  time.Time `gorm:"column:effective_date"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
