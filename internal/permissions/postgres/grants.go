package postgres

import (
	"time"

	permissionsDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/permissions"
	"github.com/qu-security/guardforce/internal/permissions"
	"gorm.io/gorm"
)

// GrantRepository implements the permissions.GrantStore interface using GORM
type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) permissions.GrantStore {
	return &GrantRepository{db: db}
}

// HasActiveGrant reports whether an active grant covers the action. A
// concrete resource id is matched by its own row or by a type-wide row
// with a null resource id; a nil id matches any row for the type+action.
func (r *GrantRepository) HasActiveGrant(userID int64, resourceType permissions.ResourceType, action permissions.Action, resourceID *int64) (bool, error) {
	query := r.db.Model(&permissionsDatamodel.ResourceGrant{}).
		Where("user_id = ? AND resource_type = ? AND action = ? AND is_active = ?",
			userID, string(resourceType), string(action), true)
	if resourceID != nil {
		query = query.Where("resource_id = ? OR resource_id IS NULL", *resourceID)
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// Upsert reactivates and overwrites the grant matching the scope key
// (user, resource type, action, resource id), or creates it. Re-granting
// refreshes granted_by and expires_at rather than stacking rows.
func (r *GrantRepository) Upsert(grant *permissions.ResourceGrant) (*permissions.ResourceGrant, bool, error) {
	var result *permissionsDatamodel.ResourceGrant
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		scope := tx.Where("user_id = ? AND resource_type = ? AND action = ?",
			grant.UserID, string(grant.ResourceType), string(grant.Action))
		if grant.ResourceID != nil {
			scope = scope.Where("resource_id = ?", *grant.ResourceID)
		} else {
			scope = scope.Where("resource_id IS NULL")
		}

		var existing permissionsDatamodel.ResourceGrant
		err := scope.First(&existing).Error
		if err == nil {
			existing.GrantedBy = grant.GrantedBy
			existing.ExpiresAt = grant.ExpiresAt
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

		row := &permissionsDatamodel.ResourceGrant{
			UserID:       grant.UserID,
			ResourceType: string(grant.ResourceType),
			Action:       string(grant.Action),
			ResourceID:   grant.ResourceID,
			GrantedBy:    grant.GrantedBy,
			ExpiresAt:    grant.ExpiresAt,
			IsActive:     true,
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

	return permissions.ResourceGrantFromDataModel(result), created, nil
}

func (r *GrantRepository) GetByID(id int64) (*permissions.ResourceGrant, bool, error) {
	var row permissionsDatamodel.ResourceGrant
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return permissions.ResourceGrantFromDataModel(&row), true, nil
}

func (r *GrantRepository) Deactivate(id int64) error {
	return r.db.Model(&permissionsDatamodel.ResourceGrant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}

func (r *GrantRepository) ActiveForUser(userID int64) ([]*permissions.ResourceGrant, error) {
	var rows []*permissionsDatamodel.ResourceGrant
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("granted_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return permissions.ResourceGrantsFromDataModel(rows), nil
}

// ActivePropertyGrantIDs collects the concrete property ids the user holds
// active grants for under any of the given actions. global is true when at
// least one matching grant has a null resource id, meaning every property.
func (r *GrantRepository) ActivePropertyGrantIDs(userID int64, actions []permissions.Action) ([]int64, bool, error) {
	actionValues := make([]string, len(actions))
	for i, a := range actions {
		actionValues[i] = string(a)
	}

	var rows []*permissionsDatamodel.ResourceGrant
	err := r.db.Select("resource_id").
		Where("user_id = ? AND resource_type = ? AND action IN ? AND is_active = ?",
			userID, string(permissions.ResourceProperty), actionValues, true).
		Find(&rows).Error
	if err != nil {
		return nil, false, err
	}

	ids := make([]int64, 0, len(rows))
	global := false
	for _, row := range rows {
		if row.ResourceID == nil {
			global = true
			continue
		}
		ids = append(ids, *row.ResourceID)
	}
	return ids, global, nil
}
