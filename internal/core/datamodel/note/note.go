package note

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Int64List stores a set of row ids as a JSON array in a single text
// column, which keeps the column portable across postgres and sqlite.
type Int64List []int64

func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int64(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *Int64List) Scan(src interface{}) error {
	if src == nil {
		*l = Int64List{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("note: cannot scan %T into Int64List", src)
	}
	if len(data) == 0 {
		*l = Int64List{}
		return nil
	}
	var out []int64
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// Contains reports whether id is present in the list.
func (l Int64List) Contains(id int64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Overlaps reports whether the list shares at least one id with ids.
func (l Int64List) Overlaps(ids []int64) bool {
	if len(l) == 0 || len(ids) == 0 {
		return false
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for _, v := range l {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// Note is a free-form record pinned to any combination of entities by id.
// A signed amount carries financial meaning: positive is income, negative
// is expense, zero is neutral.
type Note struct {
	ID             int64      `gorm:"primaryKey"`
	Name           string     `gorm:"column:name;index;not null"`
	Description    string     `gorm:"column:description;type:text"`
	Amount         *float64   `gorm:"column:amount;type:numeric(12,2)"`
	Clients        Int64List  `gorm:"column:clients;type:text"`
	Properties     Int64List  `gorm:"column:properties;type:text"`
	Guards         Int64List  `gorm:"column:guards;type:text"`
	Services       Int64List  `gorm:"column:services;type:text"`
	Shifts         Int64List  `gorm:"column:shifts;type:text"`
	Weapons        Int64List  `gorm:"column:weapons;type:text"`
	TypeOfServices Int64List  `gorm:"column:type_of_services;type:text"`
	ViewedByIDs    Int64List  `gorm:"column:viewed_by_ids;type:text"`
	CreatedBy      *int64     `gorm:"column:created_by;index"`
	IsActive       bool       `gorm:"column:is_active"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
