package service

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList stores a list of short strings as a JSON array in a text
// column, portable across postgres and sqlite.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("service: cannot scan %T into StringList", src)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// Service is a contracted engagement: a guard performing work at a
// property, either on listed dates or on a weekly recurrence. Both ends
// are nullable so a service can be drafted before staffing it.
type Service struct {
	ID                  int64      `gorm:"primaryKey"`
	Name                string     `gorm:"column:name;not null"`
	Description         string     `gorm:"column:description;type:text"`
	GuardID             *int64     `gorm:"column:guard_id;index"`
	PropertyID          *int64     `gorm:"column:property_id;index"`
	Rate                *float64   `gorm:"column:rate;type:numeric(10,2)"`
	MonthlyBudget       *float64   `gorm:"column:monthly_budget;type:numeric(10,2)"`
	ContractStartDate   *time.Time `gorm:"column:contract_start_date;type:date"`
	Schedule            StringList `gorm:"column:schedule;type:text"`
	StartTime           *string    `gorm:"column:start_time"`
	EndTime             *string    `gorm:"column:end_time"`
	Recurrent           bool       `gorm:"column:recurrent;default:false"`
	Weekly              StringList `gorm:"column:weekly;type:text"`
	StartDate           *time.Time `gorm:"column:start_date;type:date"`
	EndDate             *time.Time `gorm:"column:end_date;type:date"`
	ScheduledTotalHours int64      `gorm:"column:scheduled_total_hours;default:0"`
	IsActive            bool       `gorm:"column:is_active"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
