package permissions

import "time"

// RoleAssignment keeps the full assignment history; at most one row per user
// is active at a time (partial unique index role_assignments_one_active).
type RoleAssignment struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Role      string    `gorm:"column:role;not null"`
	IsActive  bool      `gorm:"column:is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UserGroup is derived membership recomputed after role changes, consulted
// independently of the role enum by the decision engine.
type UserGroup struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_groups_user_name"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_user_groups_user_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ResourceGrant scopes (user, resource_type, action, resource_id|null); a
// null resource id means every instance of the type. ExpiresAt is recorded
// and exposed but not consulted by the decision engine.
type ResourceGrant struct {
	ID           int64      `gorm:"primaryKey"`
	UserID       int64      `gorm:"column:user_id;not null;uniqueIndex:idx_resource_grants_scope"`
	ResourceType string     `gorm:"column:resource_type;not null;uniqueIndex:idx_resource_grants_scope"`
	Action       string     `gorm:"column:action;not null;uniqueIndex:idx_resource_grants_scope"`
	ResourceID   *int64     `gorm:"column:resource_id;uniqueIndex:idx_resource_grants_scope"`
	GrantedBy    *int64     `gorm:"column:granted_by"`
	GrantedAt    time.Time  `gorm:"column:granted_at;autoCreateTime"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	IsActive     bool       `gorm:"column:is_active"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// PropertyAccessGrant is keyed on (user, property); revocation flips
// is_active so the trail survives.
type PropertyAccessGrant struct {
	ID                 int64     `gorm:"primaryKey"`
	UserID             int64     `gorm:"column:user_id;not null;uniqueIndex:idx_property_access_user_property"`
	PropertyID         int64     `gorm:"column:property_id;not null;uniqueIndex:idx_property_access_user_property"`
	AccessType         string    `gorm:"column:access_type;not null"`
	CanCreateShifts    bool      `gorm:"column:can_create_shifts;default:false"`
	CanEditShifts      bool      `gorm:"column:can_edit_shifts;default:false"`
	CanCreateExpenses  bool      `gorm:"column:can_create_expenses;default:false"`
	CanEditExpenses    bool      `gorm:"column:can_edit_expenses;default:false"`
	CanApproveExpenses bool      `gorm:"column:can_approve_expenses;default:false"`
	GrantedBy          *int64    `gorm:"column:granted_by"`
	GrantedAt          time.Time `gorm:"column:granted_at;autoCreateTime"`
	IsActive           bool      `gorm:"column:is_active"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PermissionLog rows are append-only; EventID is a ULID so entries sort by
// issue time without trusting the sequence.
type PermissionLog struct {
	ID             int64     `gorm:"primaryKey"`
	EventID        string    `gorm:"column:event_id;uniqueIndex;not null"`
	UserID         int64     `gorm:"column:user_id;not null;index"`
	PermissionType string    `gorm:"column:permission_type;not null"`
	Details        string    `gorm:"column:details;type:text"`
	Action         string    `gorm:"column:action;not null"`
	PerformedBy    *int64    `gorm:"column:performed_by"`
	Reason         string    `gorm:"column:reason"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
