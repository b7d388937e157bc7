package postgres

import (
	"time"

	"gorm.io/gorm"

	userDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/user"
	"github.com/qu-security/guardforce/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	dm := user.ToDataModel(u)
	if dm.DateJoined.IsZero() {
		dm.DateJoined = time.Now()
	}
	dm.UpdatedAt = time.Now()

	if err := r.db.Create(dm).Error; err != nil {
		return err
	}

	u.ID = dm.ID
	u.DateJoined = dm.DateJoined
	u.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *UserRepository) GetByID(id int64) (*user.User, bool, error) {
	var dm userDatamodel.User
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user.FromDataModel(&dm), true, nil
}

func (r *UserRepository) GetByUsername(username string) (*user.User, bool, error) {
	var dm userDatamodel.User
	err := r.db.Where("username = ?", username).First(&dm).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user.FromDataModel(&dm), true, nil
}

// List returns staff and superuser accounts only, newest first. Regular
// accounts are reachable by id, never by listing.
func (r *UserRepository) List(limit, offset int) ([]*user.User, error) {
	var dms []*userDatamodel.User
	err := r.db.Where("is_staff = ? OR is_superuser = ?", true, true).
		Order("date_joined DESC").
		Limit(limit).Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(dms), nil
}

func (r *UserRepository) Update(u *user.User) error {
	updates := map[string]interface{}{
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"updated_at": time.Now(),
	}
	return r.db.Model(&userDatamodel.User{}).Where("id = ?", u.ID).Updates(updates).Error
}

func (r *UserRepository) Deactivate(id int64) error {
	updates := map[string]interface{}{
		"is_active":  false,
		"updated_at": time.Now(),
	}
	return r.db.Model(&userDatamodel.User{}).Where("id = ?", id).Updates(updates).Error
}
