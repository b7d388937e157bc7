package postgres

import (
	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/core/common/listing"
	noteDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/note"
	"github.com/qu-security/guardforce/internal/note"
)

var noteOrderColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"amount":     "amount",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// NoteRepository stores notes with their relation lists as JSON arrays in
// text columns. Visibility filtering happens in memory after the SQL
// narrowing: the arrays are opaque to portable SQL, and note volumes are
// small enough that scanning the caller's candidate set is cheap.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) note.Repository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(n *note.Note) error {
	row := note.ToDataModel(n)
	if err := r.db.Create(row).Error; err != nil {
		return err
	}
	*n = *note.FromDataModel(row)
	return nil
}

func (r *NoteRepository) GetByID(id int64) (*note.Note, bool, error) {
	var row noteDatamodel.Note
	err := r.db.First(&row, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return note.FromDataModel(&row), true, nil
}

func (r *NoteRepository) List(q listing.Query, vis note.Visibility) ([]*note.Note, error) {
	notes, err := r.fetch(q, vis)
	if err != nil {
		return nil, err
	}

	// Pagination applies after the in-memory visibility pass so page
	// boundaries line up with what the caller can actually see.
	if q.Offset >= len(notes) {
		return []*note.Note{}, nil
	}
	notes = notes[q.Offset:]
	if q.Limit > 0 && len(notes) > q.Limit {
		notes = notes[:q.Limit]
	}
	return notes, nil
}

func (r *NoteRepository) AllVisible(vis note.Visibility) ([]*note.Note, error) {
	return r.fetch(listing.Query{}, vis)
}

func (r *NoteRepository) fetch(q listing.Query, vis note.Visibility) ([]*note.Note, error) {
	query := r.db.Model(&noteDatamodel.Note{})
	if !q.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if q.DateFrom != nil {
		query = query.Where("created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where("created_at <= ?", *q.DateTo)
	}
	query = query.Order(q.Column(noteOrderColumns, "created_at DESC"))

	var rows []*noteDatamodel.Note
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	notes := make([]*note.Note, 0, len(rows))
	for _, row := range rows {
		n := note.FromDataModel(row)
		if r.visible(n, vis) {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

func (r *NoteRepository) visible(n *note.Note, vis note.Visibility) bool {
	if vis.All {
		return true
	}
	if n.CreatedBy != nil && *n.CreatedBy == vis.UserID {
		return true
	}
	if vis.ClientID != nil && noteDatamodel.Int64List(n.Clients).Contains(*vis.ClientID) {
		return true
	}
	if vis.GuardID != nil && noteDatamodel.Int64List(n.Guards).Contains(*vis.GuardID) {
		return true
	}
	return noteDatamodel.Int64List(n.Properties).Overlaps(vis.PropertyIDs)
}

func (r *NoteRepository) Update(n *note.Note) error {
	row := note.ToDataModel(n)
	return r.db.Model(&noteDatamodel.Note{}).
		Where("id = ?", n.ID).
		Updates(map[string]interface{}{
			"name":             row.Name,
			"description":      row.Description,
			"amount":           row.Amount,
			"clients":          row.Clients,
			"properties":       row.Properties,
			"guards":           row.Guards,
			"services":         row.Services,
			"shifts":           row.Shifts,
			"weapons":          row.Weapons,
			"type_of_services": row.TypeOfServices,
			"viewed_by_ids":    row.ViewedByIDs,
		}).Error
}

func (r *NoteRepository) SetActive(id int64, active bool) error {
	result := r.db.Model(&noteDatamodel.Note{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NoteRepository) MarkViewed(id int64, userID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var row noteDatamodel.Note
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if row.ViewedByIDs.Contains(userID) {
			return nil
		}
		viewed := append(row.ViewedByIDs, userID)
		return tx.Model(&noteDatamodel.Note{}).
			Where("id = ?", id).
			Update("viewed_by_ids", viewed).Error
	})
}
