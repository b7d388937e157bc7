package postgres

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qu-security/guardforce/internal/client"
	"github.com/qu-security/guardforce/internal/core/common/listing"
	clientDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/client"
	propertyDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/property"
	userDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/user"
)

const clientColumns = "clients.id, clients.user_id, users.username, users.email, " +
	"users.first_name, users.last_name, clients.phone, clients.balance, " +
	"clients.is_active, clients.created_at, clients.updated_at"

var clientOrderColumns = map[string]string{
	"id":         "clients.id",
	"username":   "users.username",
	"email":      "users.email",
	"first_name": "users.first_name",
	"last_name":  "users.last_name",
	"phone":      "clients.phone",
	"balance":    "clients.balance",
	"created_at": "clients.created_at",
}

type clientRow struct {
	ID        int64
	UserID    int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Balance   float64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (row *clientRow) toDomain() *client.Client {
	return &client.Client{
		ID:        row.ID,
		UserID:    row.UserID,
		Username:  row.Username,
		Email:     row.Email,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Phone:     row.Phone,
		Balance:   row.Balance,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) client.Repository {
	return &ClientRepository{db: db}
}

// CreateWithUser inserts the backing user account and the client profile in
// one transaction. The username comes from the email local part, suffixed
// with a counter until it is free. The password hash stays empty, which no
// login attempt can ever match.
func (r *ClientRepository) CreateWithUser(c *client.Client) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		username, err := uniqueUsername(tx, c.Email)
		if err != nil {
			return err
		}

		now := time.Now()
		u := &userDatamodel.User{
			Username:   username,
			Email:      c.Email,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			IsStaff:    false,
			IsActive:   true,
			DateJoined: now,
			UpdatedAt:  now,
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}

		dm := client.ToDataModel(c)
		dm.UserID = u.ID
		if err := tx.Create(dm).Error; err != nil {
			return err
		}

		c.ID = dm.ID
		c.UserID = u.ID
		c.Username = username
		c.CreatedAt = dm.CreatedAt
		c.UpdatedAt = dm.UpdatedAt
		return nil
	})
}

func (r *ClientRepository) GetByID(id int64) (*client.Client, bool, error) {
	var row clientRow
	err := r.db.Table("clients").
		Select(clientColumns).
		Joins("JOIN users ON users.id = clients.user_id").
		Where("clients.id = ?", id).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.toDomain(), true, nil
}

func (r *ClientRepository) List(q listing.Query) ([]*client.Client, error) {
	tx := r.db.Table("clients").
		Select(clientColumns).
		Joins("JOIN users ON users.id = clients.user_id")

	if !q.IncludeInactive {
		tx = tx.Where("clients.is_active = ?", true)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where(
			"LOWER(users.username) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(clients.phone) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	var rows []clientRow
	err := tx.Order(q.Column(clientOrderColumns, "clients.id ASC")).
		Limit(q.Limit).Offset(q.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	clients := make([]*client.Client, 0, len(rows))
	for i := range rows {
		clients = append(clients, rows[i].toDomain())
	}
	return clients, nil
}

// Update patches the profile fields on the client row and the identity
// fields on the backing user row.
func (r *ClientRepository) Update(c *client.Client) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		userUpdates := map[string]interface{}{
			"email":      c.Email,
			"first_name": c.FirstName,
			"last_name":  c.LastName,
			"updated_at": now,
		}
		if err := tx.Model(&userDatamodel.User{}).Where("id = ?", c.UserID).Updates(userUpdates).Error; err != nil {
			return err
		}

		clientUpdates := map[string]interface{}{
			"phone":      c.Phone,
			"balance":    c.Balance,
			"updated_at": now,
		}
		return tx.Model(&clientDatamodel.Client{}).Where("id = ?", c.ID).Updates(clientUpdates).Error
	})
}

func (r *ClientRepository) SetActive(id int64, active bool) error {
	updates := map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	}
	return r.db.Model(&clientDatamodel.Client{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ClientRepository) OwnedProperties(clientID int64) ([]*client.OwnedProperty, error) {
	var dms []*propertyDatamodel.Property
	err := r.db.Where("owner_id = ? AND is_active = ?", clientID, true).
		Order("name ASC").
		Find(&dms).Error
	if err != nil {
		return nil, err
	}

	properties := make([]*client.OwnedProperty, 0, len(dms))
	for _, dm := range dms {
		properties = append(properties, &client.OwnedProperty{
			ID:                dm.ID,
			Name:              dm.Name,
			Alias:             dm.Alias,
			Address:           dm.Address,
			ContractStartDate: dm.ContractStartDate,
			IsActive:          dm.IsActive,
		})
	}
	return properties, nil
}

func (r *ClientRepository) EmailInUse(email string) (bool, error) {
	var count int64
	err := r.db.Model(&userDatamodel.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// uniqueUsername derives a username from the email local part, truncated so
// a numeric suffix still fits under the 150 character column limit.
func uniqueUsername(tx *gorm.DB, email string) (string, error) {
	base := email
	if at := strings.Index(email, "@"); at > 0 {
		base = email[:at]
	}
	if len(base) > 140 {
		base = base[:140]
	}

	name := base
	for i := 1; ; i++ {
		var count int64
		if err := tx.Model(&userDatamodel.User{}).Where("username = ?", name).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return name, nil
		}
		name = base + strconv.Itoa(i)
	}
}
