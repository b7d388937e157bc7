package postgres

import (
	"time"

	permissionsDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/permissions"
	"github.com/qu-security/guardforce/internal/permissions"
	"gorm.io/gorm"
)

// RoleRepository implements the permissions.RoleStore interface using GORM
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) permissions.RoleStore {
	return &RoleRepository{db: db}
}

// ActiveRole returns the single active assignment for a user. Two or more
// active rows mean the table is inconsistent; the caller gets
// ErrAmbiguousRole instead of an arbitrary winner.
func (r *RoleRepository) ActiveRole(userID int64) (*permissions.RoleAssignment, bool, error) {
	var rows []*permissionsDatamodel.RoleAssignment
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, false, err
	}

	switch len(rows) {
	case 0:
		return nil, false, nil
	case 1:
		return permissions.RoleAssignmentFromDataModel(rows[0]), true, nil
	default:
		return nil, false, permissions.ErrAmbiguousRole
	}
}

func (r *RoleRepository) HasActiveRole(userID int64, role permissions.Role) (bool, error) {
	var count int64
	err := r.db.Model(&permissionsDatamodel.RoleAssignment{}).
		Where("user_id = ? AND role = ? AND is_active = ?", userID, string(role), true).
		Count(&count).Error
	return count > 0, err
}

// Upsert deactivates every assignment the user holds, then reactivates the
// existing row for the requested role or creates one. Old rows stay as
// history. Group membership is recomputed separately by the caller.
func (r *RoleRepository) Upsert(userID int64, role permissions.Role) (*permissions.RoleAssignment, bool, error) {
	var result *permissionsDatamodel.RoleAssignment
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&permissionsDatamodel.RoleAssignment{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Updates(map[string]interface{}{
				"is_active":  false,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		var existing permissionsDatamodel.RoleAssignment
		err := tx.Where("user_id = ? AND role = ?", userID, string(role)).
			Order("id ASC").
			First(&existing).Error
		if err == nil {
			existing.IsActive = true
			existing.UpdatedAt = time.Now()
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			result = &existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		row := &permissionsDatamodel.RoleAssignment{
			UserID:   userID,
			Role:     string(role),
			IsActive: true,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		result = row
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return permissions.RoleAssignmentFromDataModel(result), created, nil
}
