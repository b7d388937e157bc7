package postgres

import (
	permissionsDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/permissions"
	"github.com/qu-security/guardforce/internal/permissions"
	"gorm.io/gorm"
)

// AuditRepository implements the permissions.AuditStore interface using GORM
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) permissions.AuditStore {
	return &AuditRepository{db: db}
}

// Append writes one log row. The generated id and timestamp are copied
// back so callers can echo the stored entry.
func (r *AuditRepository) Append(entry *permissions.AuditEntry) error {
	row := &permissionsDatamodel.PermissionLog{
		EventID:        entry.EventID,
		UserID:         entry.UserID,
		PermissionType: entry.PermissionType,
		Details:        entry.Details,
		Action:         entry.Action,
		PerformedBy:    entry.PerformedBy,
		Reason:         entry.Reason,
	}
	if err := r.db.Create(row).Error; err != nil {
		return err
	}

	entry.ID = row.ID
	entry.CreatedAt = row.CreatedAt
	return nil
}

func (r *AuditRepository) Query(q permissions.AuditQuery) ([]*permissions.AuditEntry, error) {
	query := r.db.Model(&permissionsDatamodel.PermissionLog{})
	if q.UserID != nil {
		query = query.Where("user_id = ?", *q.UserID)
	}
	if q.PermissionType != "" {
		query = query.Where("permission_type = ?", q.PermissionType)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var rows []*permissionsDatamodel.PermissionLog
	err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return permissions.AuditEntriesFromDataModel(rows), nil
}
