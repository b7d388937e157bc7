package postgres

import (
	"time"

	permissionsDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/permissions"
	"github.com/qu-security/guardforce/internal/permissions"
	"gorm.io/gorm"
)

// AccessRepository implements the permissions.AccessStore interface using GORM
type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) permissions.AccessStore {
	return &AccessRepository{db: db}
}

// HasActiveAccess reports whether the user holds an active grant for the
// property. An empty access type matches any grant.
func (r *AccessRepository) HasActiveAccess(userID int64, propertyID int64, accessType permissions.AccessType) (bool, error) {
	query := r.db.Model(&permissionsDatamodel.PropertyAccessGrant{}).
		Where("user_id = ? AND property_id = ? AND is_active = ?", userID, propertyID, true)
	if accessType != "" {
		query = query.Where("access_type = ?", string(accessType))
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *AccessRepository) ActivePropertyIDs(userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&permissionsDatamodel.PropertyAccessGrant{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("property_id", &ids).Error
	return ids, err
}

func (r *AccessRepository) ActiveGrant(userID int64, propertyID int64) (*permissions.PropertyAccess, bool, error) {
	var row permissionsDatamodel.PropertyAccessGrant
	err := r.db.Where("user_id = ? AND property_id = ? AND is_active = ?", userID, propertyID, true).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return permissions.PropertyAccessFromDataModel(&row), true, nil
}

// Apply reuses the (user, property) row when one exists, even a revoked
// one, so the pair never accumulates duplicates. Capabilities left nil in
// the patch keep their stored values; on a new row they default to false.
func (r *AccessRepository) Apply(userID int64, propertyID int64, accessType permissions.AccessType, patch permissions.CapabilityPatch, grantedBy int64) (*permissions.PropertyAccess, bool, error) {
	var result *permissionsDatamodel.PropertyAccessGrant
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing permissionsDatamodel.PropertyAccessGrant
		err := tx.Where("user_id = ? AND property_id = ?", userID, propertyID).
			First(&existing).Error
		if err == nil {
			existing.AccessType = string(accessType)
			existing.GrantedBy = &grantedBy
			existing.IsActive = true
			applyCapabilityPatch(&existing, patch)
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

		row := &permissionsDatamodel.PropertyAccessGrant{
			UserID:     userID,
			PropertyID: propertyID,
			AccessType: string(accessType),
			GrantedBy:  &grantedBy,
			IsActive:   true,
		}
		applyCapabilityPatch(row, patch)
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

	return permissions.PropertyAccessFromDataModel(result), created, nil
}

func applyCapabilityPatch(row *permissionsDatamodel.PropertyAccessGrant, patch permissions.CapabilityPatch) {
	if patch.CanCreateShifts != nil {
		row.CanCreateShifts = *patch.CanCreateShifts
	}
	if patch.CanEditShifts != nil {
		row.CanEditShifts = *patch.CanEditShifts
	}
	if patch.CanCreateExpenses != nil {
		row.CanCreateExpenses = *patch.CanCreateExpenses
	}
	if patch.CanEditExpenses != nil {
		row.CanEditExpenses = *patch.CanEditExpenses
	}
	if patch.CanApproveExpenses != nil {
		row.CanApproveExpenses = *patch.CanApproveExpenses
	}
}

func (r *AccessRepository) GetByID(id int64) (*permissions.PropertyAccess, bool, error) {
	var row permissionsDatamodel.PropertyAccessGrant
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return permissions.PropertyAccessFromDataModel(&row), true, nil
}

func (r *AccessRepository) Deactivate(id int64) error {
	return r.db.Model(&permissionsDatamodel.PropertyAccessGrant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}

func (r *AccessRepository) ActiveForUser(userID int64) ([]*permissions.PropertyAccess, error) {
	var rows []*permissionsDatamodel.PropertyAccessGrant
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("granted_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return permissions.PropertyAccessesFromDataModel(rows), nil
}
