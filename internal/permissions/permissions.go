package permissions

import (
	"time"

	"github.com/qu-security/guardforce/internal"
	permissionsDatamodel "github.com/qu-security/guardforce/internal/core/datamodel/permissions"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleClient     Role = "client"
	RoleGuard      Role = "guard"
	RoleSupervisor Role = "supervisor"
)

func ValidRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleClient, RoleGuard, RoleSupervisor}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleClient, RoleGuard, RoleSupervisor:
		return true
	}
	return false
}

// Group names derived from roles. A supervisor role maps to no group;
// group membership for supervisors comes only from manual assignment.
const (
	GroupAdministrators = "Administrators"
	GroupManagers       = "Managers"
	GroupClients        = "Clients"
	GroupGuards         = "Guards"
)

// GroupForRole returns the derived group for a role, or "" when the role
// carries no group.
func GroupForRole(r Role) string {
	switch r {
	case RoleAdmin:
		return GroupAdministrators
	case RoleManager:
		return GroupManagers
	case RoleClient:
		return GroupClients
	case RoleGuard:
		return GroupGuards
	}
	return ""
}

type ResourceType string

const (
	ResourceProperty ResourceType = "property"
	ResourceShift    ResourceType = "shift"
	ResourceExpense  ResourceType = "expense"
	ResourceGuard    ResourceType = "guard"
	ResourceClient   ResourceType = "client"
	ResourceService  ResourceType = "service"
)

func ValidResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceProperty, ResourceShift, ResourceExpense,
		ResourceGuard, ResourceClient, ResourceService,
	}
}

func (rt ResourceType) IsValid() bool {
	switch rt {
	case ResourceProperty, ResourceShift, ResourceExpense, ResourceGuard, ResourceClient, ResourceService:
		return true
	}
	return false
}

type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionAssign  Action = "assign"
)

func ValidActions() []Action {
	return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove, ActionAssign}
}

func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove, ActionAssign:
		return true
	}
	return false
}

type AccessType string

const (
	AccessOwner         AccessType = "owner"
	AccessAssignedGuard AccessType = "assigned_guard"
	AccessSupervisor    AccessType = "supervisor"
	AccessViewer        AccessType = "viewer"
)

func ValidAccessTypes() []AccessType {
	return []AccessType{AccessOwner, AccessAssignedGuard, AccessSupervisor, AccessViewer}
}

func (at AccessType) IsValid() bool {
	switch at {
	case AccessOwner, AccessAssignedGuard, AccessSupervisor, AccessViewer:
		return true
	}
	return false
}

// Audit log vocabulary.
const (
	PermissionTypeUserRole           = "user_role"
	PermissionTypeResourcePermission = "resource_permission"
	PermissionTypePropertyAccess     = "property_access"

	LogActionGranted  = "granted"
	LogActionRevoked  = "revoked"
	LogActionModified = "modified"
	LogActionExpired  = "expired"
)

var (
	ErrAmbiguousRole = internal.NewConflictError("multiple active role assignments for user", internal.ErrCodeAmbiguousRoleState)

	ErrUnknownResourceType = internal.NewValidationError("unknown resource type", internal.ErrCodeUnknownResource)
	ErrUnknownAction       = internal.NewValidationError("unknown action", internal.ErrCodeUnknownAction)
)

// Scope classifies how a listing should be narrowed for a caller.
type Scope int

const (
	// ScopeNone yields no rows. Deny by default.
	ScopeNone Scope = iota
	// ScopeAll yields the unfiltered collection.
	ScopeAll
	// ScopeOwnerClient yields rows belonging to the caller's client profile.
	ScopeOwnerClient
	// ScopeAssignedProperties yields rows whose property id is in the set.
	ScopeAssignedProperties
	// ScopeSelfGuard yields rows keyed by the caller's guard profile id.
	ScopeSelfGuard
	// ScopeSelfUser yields rows keyed by the caller's user id.
	ScopeSelfUser
)

// RowFilter is the verdict of the queryset filter: a repository translates
// it into a WHERE clause for its own table layout. Keeping SQL out of the
// engine lets every repository share one decision path.
type RowFilter struct {
	Scope       Scope
	ClientID    int64
	GuardID     int64
	UserID      int64
	PropertyIDs []int64
}

func FilterAll() RowFilter  { return RowFilter{Scope: ScopeAll} }
func FilterNone() RowFilter { return RowFilter{Scope: ScopeNone} }

func FilterOwnerClient(clientID int64) RowFilter {
	return RowFilter{Scope: ScopeOwnerClient, ClientID: clientID}
}

func FilterAssignedProperties(propertyIDs []int64) RowFilter {
	return RowFilter{Scope: ScopeAssignedProperties, PropertyIDs: propertyIDs}
}

func FilterSelfGuard(guardID int64) RowFilter {
	return RowFilter{Scope: ScopeSelfGuard, GuardID: guardID}
}

func FilterSelfUser(userID int64) RowFilter {
	return RowFilter{Scope: ScopeSelfUser, UserID: userID}
}

type RoleAssignment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ResourceGrant struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	ResourceType ResourceType `json:"resource_type"`
	Action       Action       `json:"action"`
	ResourceID   *int64       `json:"resource_id"`
	GrantedBy    *int64       `json:"granted_by"`
	GrantedAt    time.Time    `json:"granted_at"`
	ExpiresAt    *time.Time   `json:"expires_at"`
	IsActive     bool         `json:"is_active"`
}

type PropertyAccess struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	PropertyID         int64      `json:"property_id"`
	AccessType         AccessType `json:"access_type"`
	CanCreateShifts    bool       `json:"can_create_shifts"`
	CanEditShifts      bool       `json:"can_edit_shifts"`
	CanCreateExpenses  bool       `json:"can_create_expenses"`
	CanEditExpenses    bool       `json:"can_edit_expenses"`
	CanApproveExpenses bool       `json:"can_approve_expenses"`
	GrantedBy          *int64     `json:"granted_by"`
	GrantedAt          time.Time  `json:"granted_at"`
	IsActive           bool       `json:"is_active"`
}

type AuditEntry struct {
	ID             int64     `json:"id"`
	EventID        string    `json:"event_id"`
	UserID         int64     `json:"user_id"`
	PermissionType string    `json:"permission_type"`
	Details        string    `json:"details"`
	Action         string    `json:"action"`
	PerformedBy    *int64    `json:"performed_by"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}

func RoleAssignmentFromDataModel(m *permissionsDatamodel.RoleAssignment) *RoleAssignment {
	return &RoleAssignment{
		ID:        m.ID,
		UserID:    m.UserID,
		Role:      Role(m.Role),
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ResourceGrantFromDataModel(m *permissionsDatamodel.ResourceGrant) *ResourceGrant {
	return &ResourceGrant{
		ID:           m.ID,
		UserID:       m.UserID,
		ResourceType: ResourceType(m.ResourceType),
		Action:       Action(m.Action),
		ResourceID:   m.ResourceID,
		GrantedBy:    m.GrantedBy,
		GrantedAt:    m.GrantedAt,
		ExpiresAt:    m.ExpiresAt,
		IsActive:     m.IsActive,
	}
}

func ResourceGrantsFromDataModel(models []*permissionsDatamodel.ResourceGrant) []*ResourceGrant {
	result := make([]*ResourceGrant, len(models))
	for i, m := range models {
		result[i] = ResourceGrantFromDataModel(m)
	}
	return result
}

func PropertyAccessFromDataModel(m *permissionsDatamodel.PropertyAccessGrant) *PropertyAccess {
	return &PropertyAccess{
		ID:                 m.ID,
		UserID:             m.UserID,
		PropertyID:         m.PropertyID,
		AccessType:         AccessType(m.AccessType),
		CanCreateShifts:    m.CanCreateShifts,
		CanEditShifts:      m.CanEditShifts,
		CanCreateExpenses:  m.CanCreateExpenses,
		CanEditExpenses:    m.CanEditExpenses,
		CanApproveExpenses: m.CanApproveExpenses,
		GrantedBy:          m.GrantedBy,
		GrantedAt:          m.GrantedAt,
		IsActive:           m.IsActive,
	}
}

func PropertyAccessesFromDataModel(models []*permissionsDatamodel.PropertyAccessGrant) []*PropertyAccess {
	result := make([]*PropertyAccess, len(models))
	for i, m := range models {
		result[i] = PropertyAccessFromDataModel(m)
	}
	return result
}

func AuditEntryFromDataModel(m *permissionsDatamodel.PermissionLog) *AuditEntry {
	return &AuditEntry{
		ID:             m.ID,
		EventID:        m.EventID,
		UserID:         m.UserID,
		PermissionType: m.PermissionType,
		Details:        m.Details,
		Action:         m.Action,
		PerformedBy:    m.PerformedBy,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
}

func AuditEntriesFromDataModel(models []*permissionsDatamodel.PermissionLog) []*AuditEntry {
	result := make([]*AuditEntry, len(models))
	for i, m := range models {
		result[i] = AuditEntryFromDataModel(m)
	}
	return result
}
