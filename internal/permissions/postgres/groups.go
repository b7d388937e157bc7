package postgres

import (
	permissionsDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/permissions"
	"github.com/qu-security/guardforce/internal/permissions"
	"gorm.io/gorm"
)

// GroupRepository implements the permissions.GroupStore interface using GORM
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) permissions.GroupStore {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) IsMember(userID int64, group string) (bool, error) {
	var count int64
	err := r.db.Model(&permissionsDatamodel.UserGroup{}).
		Where("user_id = ? AND name = ?", userID, group).
		Count(&count).Error
	return count > 0, err
}

func (r *GroupRepository) GroupsForUser(userID int64) ([]string, error) {
	var names []string
	err := r.db.Model(&permissionsDatamodel.UserGroup{}).
		Where("user_id = ?", userID).
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

// RecomputeForUser replaces the user's derived membership with the single
// group implied by the role. Roles that carry no group (supervisor) leave
// the user in no group at all.
func (r *GroupRepository) RecomputeForUser(userID int64, role permissions.Role) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).
			Delete(&permissionsDatamodel.UserGroup{}).Error; err != nil {
			return err
		}

		group := permissions.GroupForRole(role)
		if group == "" {
			return nil
		}
		return tx.Create(&permissionsDatamodel.UserGroup{
			UserID: userID,
			Name:   group,
		}).Error
	})
}
