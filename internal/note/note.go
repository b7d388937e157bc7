package note

import (
	"time"

	noteDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/note"
)

// Note is a free-form record pinned to any combination of entities by id
// arrays. A signed amount gives it financial meaning: positive counts as
// income, negative as expense.
type Note struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Amount         *float64  `json:"amount"`
	Clients        []int64   `json:"clients"`
	Properties     []int64   `json:"properties"`
	Guards         []int64   `json:"guards"`
	Services       []int64   `json:"services"`
	Shifts         []int64   `json:"shifts"`
	Weapons        []int64   `json:"weapons"`
	TypeOfServices []int64   `json:"type_of_services"`
	ViewedBy       []int64   `json:"viewed_by"`
	CreatedBy      *int64    `json:"created_by"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Viewed reports whether the user already opened this note.
func (n *Note) Viewed(userID int64) bool {
	for _, id := range n.ViewedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Statistics summarizes the notes visible to one caller.
type Statistics struct {
	TotalNotes    int     `json:"total_notes"`
	TotalIncome   float64 `json:"total_income"`
	TotalExpense  float64 `json:"total_expense"`
	NetAmount     float64 `json:"net_amount"`
	WithClients   int     `json:"with_clients"`
	WithProperty  int     `json:"with_properties"`
	WithGuards    int     `json:"with_guards"`
	WithServices  int     `json:"with_services"`
	WithShifts    int     `json:"with_shifts"`
	WithWeapons   int     `json:"with_weapons"`
	UnviewedNotes int     `json:"unviewed_notes"`
}

func FromDataModel(m *noteDatamodel.Note) *Note {
	return &Note{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		Amount:         m.Amount,
		Clients:        m.Clients,
		Properties:     m.Properties,
		Guards:         m.Guards,
		Services:       m.Services,
		Shifts:         m.Shifts,
		Weapons:        m.Weapons,
		TypeOfServices: m.TypeOfServices,
		ViewedBy:       m.ViewedByIDs,
		CreatedBy:      m.CreatedBy,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func ToDataModel(n *Note) *noteDatamodel.Note {
	return &noteDatamodel.Note{
		ID:             n.ID,
		Name:           n.Name,
		Description:    n.Description,
		Amount:         n.Amount,
		Clients:        n.Clients,
		Properties:     n.Properties,
		Guards:         n.Guards,
		Services:       n.Services,
		Shifts:         n.Shifts,
		Weapons:        n.Weapons,
		TypeOfServices: n.TypeOfServices,
		ViewedByIDs:    n.ViewedBy,
		CreatedBy:      n.CreatedBy,
		IsActive:       n.IsActive,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}
