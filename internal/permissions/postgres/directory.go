package postgres

import (
	clientDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/client"
	guardDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/guard"
	propertyDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/property"
	userDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/user"
	"github.com/qu-security/guardforce/internal/permissions"
	"gorm.io/gorm"
)

// Directory answers the identity, profile, and ownership lookups the
// permission engine needs, reading the core tables directly so decisions
// never go through domain services.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) GetByID(userID int64) (*permissions.User, bool, error) {
	var row userDatamodel.User
	err := d.db.Where("id = ?", userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return userView(&row), true, nil
}

func (d *Directory) ListAll() ([]*permissions.User, error) {
	var rows []*userDatamodel.User
	err := d.db.Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	users := make([]*permissions.User, len(rows))
	for i, row := range rows {
		users[i] = userView(row)
	}
	return users, nil
}

func userView(m *userDatamodel.User) *permissions.User {
	return &permissions.User{
		ID:          m.ID,
		Username:    m.Username,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		IsActive:    m.IsActive,
		IsSuperuser: m.IsSuperuser,
		DateJoined:  m.DateJoined,
		LastLogin:   m.LastLogin,
	}
}

// ClientIDByUserID resolves the caller's client profile. Profiles are
// looked up regardless of is_active so ownership checks stay stable while
// an account is suspended.
func (d *Directory) ClientIDByUserID(userID int64) (int64, bool, error) {
	var row clientDatamodel.Client
	err := d.db.Select("id").Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return row.ID, true, nil
}

func (d *Directory) GuardIDByUserID(userID int64) (int64, bool, error) {
	var row guardDatamodel.Guard
	err := d.db.Select("id").Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return row.ID, true, nil
}

// PropertyOwnerClientID resolves ownership for active and soft-deleted
// properties alike; owners keep access to rows awaiting restore.
func (d *Directory) PropertyOwnerClientID(propertyID int64) (int64, bool, error) {
	var row propertyDatamodel.Property
	err := d.db.Select("owner_id").Where("id = ?", propertyID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return row.OwnerID, true, nil
}

// PropertyIDsByClientID lists the active properties a client owns, used
// for relation-based note visibility.
func (d *Directory) PropertyIDsByClientID(clientID int64) ([]int64, error) {
	var ids []int64
	err := d.db.Model(&propertyDatamodel.Property{}).
		Where("owner_id = ? AND is_active = ?", clientID, true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *Directory) PropertySummary(propertyID int64) (*permissions.PropertySummary, bool, error) {
	var row propertyDatamodel.Property
	err := d.db.Select("id, name, address").Where("id = ?", propertyID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &permissions.PropertySummary{
		ID:      row.ID,
		Name:    row.Name,
		Address: row.Address,
	}, true, nil
}
