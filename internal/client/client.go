package client

import (
	"strings"
	"time"

	clientDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/client"
)

// Client is a customer profile tied one-to-one to a user account. The
// user's identity fields are denormalized onto the view for API output.
type Client struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Balance   float64   `json:"balance"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Name returns the display name: full name when set, username otherwise.
func (c *Client) Name() string {
	full := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if full != "" {
		return full
	}
	return c.Username
}

// OwnedProperty is the slim property view returned by the owned-properties
// sub-listing.
type OwnedProperty struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Alias             *string    `json:"alias"`
	Address           string     `json:"address"`
	ContractStartDate *time.Time `json:"contract_start_date"`
	IsActive          bool       `json:"is_active"`
}

func ToDataModel(c *Client) *clientDatamodel.Client {
	return &clientDatamodel.Client{
		ID:        c.ID,
		UserID:    c.UserID,
		Phone:     c.Phone,
		Balance:   c.Balance,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
