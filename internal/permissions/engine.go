package permissions

import (
	"log/slog"
	"time"

	"github.com/qu-security/guardforce/internal/metrics"
)

// User is the slice of the identity record the engine needs for decisions
// and the admin API needs for listings.
type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	DateJoined  time.Time  `json:"date_joined"`
	LastLogin   *time.Time `json:"last_login"`
}

type UserDirectory interface {
	GetByID(userID int64) (*User, bool, error)
	ListAll() ([]*User, error)
}

// RoleStore persists role assignments. ActiveRole returns found=false when
// the user has no active assignment and ErrAmbiguousRole when the store
// holds more than one, which is an inconsistency the caller must surface.
type RoleStore interface {
	ActiveRole(userID int64) (*RoleAssignment, bool, error)
	HasActiveRole(userID int64, role Role) (bool, error)
	Upsert(userID int64, role Role) (*RoleAssignment, bool, error)
}

// GroupStore persists derived group membership, recomputed after every
// role change. Membership is consulted independently of the role row.
type GroupStore interface {
	IsMember(userID int64, group string) (bool, error)
	GroupsForUser(userID int64) ([]string, error)
	RecomputeForUser(userID int64, role Role) error
}

type GrantStore interface {
	HasActiveGrant(userID int64, resourceType ResourceType, action Action, resourceID *int64) (bool, error)
	Upsert(grant *ResourceGrant) (*ResourceGrant, bool, error)
	GetByID(id int64) (*ResourceGrant, bool, error)
	Deactivate(id int64) error
	ActiveForUser(userID int64) ([]*ResourceGrant, error)
	// ActivePropertyGrantIDs returns the concrete property ids the user
	// holds active grants for under any of the given actions; global is
	// true when at least one matching grant has a null resource id.
	ActivePropertyGrantIDs(userID int64, actions []Action) (ids []int64, global bool, err error)
}

type AccessStore interface {
	HasActiveAccess(userID int64, propertyID int64, accessType AccessType) (bool, error)
	ActivePropertyIDs(userID int64) ([]int64, error)
	// ActiveGrant returns the user's active access row for one property,
	// found=false when none exists.
	ActiveGrant(userID int64, propertyID int64) (*PropertyAccess, bool, error)
	// Apply grants or updates property access for a user. Capability fields
	// left nil in the patch keep their stored values. The bool result
	// reports whether a new grant row was created.
	Apply(userID int64, propertyID int64, accessType AccessType, patch CapabilityPatch, grantedBy int64) (*PropertyAccess, bool, error)
	GetByID(id int64) (*PropertyAccess, bool, error)
	Deactivate(id int64) error
	ActiveForUser(userID int64) ([]*PropertyAccess, error)
}

// OwnershipResolver answers profile and ownership lookups from the domain
// tables. PropertyOwnerClientID must resolve soft-deleted properties too,
// so owners keep access to rows awaiting restore.
type OwnershipResolver interface {
	ClientIDByUserID(userID int64) (int64, bool, error)
	GuardIDByUserID(userID int64) (int64, bool, error)
	PropertyOwnerClientID(propertyID int64) (int64, bool, error)
}

type AuditQuery struct {
	UserID         *int64
	PermissionType string
	Action         string
	Limit          int
}

type AuditStore interface {
	Append(entry *AuditEntry) error
	Query(q AuditQuery) ([]*AuditEntry, error)
}

// Engine computes allow/deny decisions. It is stateless: every decision is
// read fresh from the stores, nothing is cached between calls.
type Engine struct {
	users     UserDirectory
	roles     RoleStore
	groups    GroupStore
	grants    GrantStore
	access    AccessStore
	ownership OwnershipResolver
	logger    *slog.Logger
}

func NewEngine(
	users UserDirectory,
	roles RoleStore,
	groups GroupStore,
	grants GrantStore,
	access AccessStore,
	ownership OwnershipResolver,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		users:     users,
		roles:     roles,
		groups:    groups,
		grants:    grants,
		access:    access,
		ownership: ownership,
		logger:    logger,
	}
}

// HasResourcePermission decides whether the user may take action on the
// resource type, optionally scoped to one instance. Unknown resource types
// and actions are rejected up front so misconfigured callers fail fast.
//
// Decision order, first match wins:
//  1. superuser or Administrators group member
//  2. role table lookup; for property with a concrete id only the manager
//     role passes on the table alone, everyone else falls through
//  3. owner-type property access for read/update/delete on a concrete id
//     (client ownership, or Managers group standing without a role row)
//  4. explicit grant matching the exact id or a null (global) id
func (e *Engine) HasResourcePermission(userID int64, resourceType ResourceType, action Action, resourceID *int64) (bool, error) {
	if !resourceType.IsValid() {
		return false, ErrUnknownResourceType
	}
	if !action.IsValid() {
		return false, ErrUnknownAction
	}

	allowed, err := e.decide(userID, resourceType, action, resourceID)
	if err != nil {
		return false, err
	}

	metrics.ObserveDecision(string(resourceType), allowed)
	if !allowed {
		e.logger.Debug("permission denied",
			"user_id", userID,
			"resource_type", resourceType,
			"action", action)
	}
	return allowed, nil
}

func (e *Engine) decide(userID int64, resourceType ResourceType, action Action, resourceID *int64) (bool, error) {
	user, found, err := e.users.GetByID(userID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if user.IsSuperuser {
		return true, nil
	}
	isAdmin, err := e.groups.IsMember(userID, GroupAdministrators)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	assignment, hasRole, err := e.roles.ActiveRole(userID)
	if err != nil {
		return false, err
	}
	if hasRole && RoleAllows(assignment.Role, resourceType, action) {
		if resourceType == ResourceProperty && resourceID != nil {
			// Instance-level property actions: the table alone satisfies
			// managers only. Other roles still need ownership or a grant.
			if assignment.Role == RoleManager {
				return true, nil
			}
		} else {
			return true, nil
		}
	}

	if resourceType == ResourceProperty && resourceID != nil &&
		(action == ActionRead || action == ActionUpdate || action == ActionDelete) {
		// Owner-type property access, which also admits Managers group
		// members whose role row is missing or inactive.
		viaOwner, err := e.HasPropertyAccess(userID, *resourceID, AccessOwner)
		if err != nil {
			return false, err
		}
		if viaOwner {
			return true, nil
		}
	}

	return e.grants.HasActiveGrant(userID, resourceType, action, resourceID)
}

// HasPropertyAccess checks one user's access of a given type to a property.
// Superusers, admins and managers always pass; the owner type is resolved
// from the client profile; anything else needs an active access grant row.
func (e *Engine) HasPropertyAccess(userID int64, propertyID int64, accessType AccessType) (bool, error) {
	user, found, err := e.users.GetByID(userID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if user.IsSuperuser {
		return true, nil
	}
	for _, group := range []string{GroupAdministrators, GroupManagers} {
		member, err := e.groups.IsMember(userID, group)
		if err != nil {
			return false, err
		}
		if member {
			return true, nil
		}
	}

	if accessType == AccessOwner {
		ownerClientID, ok, err := e.ownership.PropertyOwnerClientID(propertyID)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		clientID, hasProfile, err := e.ownership.ClientIDByUserID(userID)
		if err != nil {
			return false, err
		}
		return hasProfile && clientID == ownerClientID, nil
	}

	return e.access.HasActiveAccess(userID, propertyID, accessType)
}

// HasRole reports whether the user's active role is one of the allowed
// set. Superusers always pass. An ambiguous role state (two active rows)
// propagates as an error instead of picking a winner.
func (e *Engine) HasRole(userID int64, allowed ...Role) (bool, error) {
	user, found, err := e.users.GetByID(userID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}

	assignment, hasRole, err := e.roles.ActiveRole(userID)
	if err != nil {
		return false, err
	}
	if !hasRole {
		return false, nil
	}
	for _, role := range allowed {
		if assignment.Role == role {
			return true, nil
		}
	}
	return false, nil
}

// IsAdminOrManager is the gate most domain mutations use.
func (e *Engine) IsAdminOrManager(userID int64) (bool, error) {
	return e.HasRole(userID, RoleAdmin, RoleManager)
}

// CanCreateExpenses reports whether the user may book expenses on the
// property. The role table answers first; failing that, a property access
// row with the expense-create flag set suffices.
func (e *Engine) CanCreateExpenses(userID int64, propertyID int64) (bool, error) {
	allowed, err := e.HasResourcePermission(userID, ResourceExpense, ActionCreate, nil)
	if err != nil {
		return false, err
	}
	if allowed {
		return true, nil
	}
	grant, found, err := e.access.ActiveGrant(userID, propertyID)
	if err != nil {
		return false, err
	}
	return found && grant.CanCreateExpenses, nil
}

// ClaimsSnapshot is the advisory permission summary embedded in issued
// tokens for frontend checks. It is never consulted server-side; every
// request still goes through the engine.
type ClaimsSnapshot struct {
	Role                 string              `json:"role"`
	AccessibleProperties []int64             `json:"accessible_properties"`
	ResourcePermissions  map[string][]string `json:"resource_permissions"`
	IsAdmin              bool                `json:"is_admin"`
}

// Snapshot assembles the claims summary for one user at login time.
func (e *Engine) Snapshot(userID int64) (*ClaimsSnapshot, error) {
	user, found, err := e.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	snapshot := &ClaimsSnapshot{
		Role:                 "user",
		AccessibleProperties: []int64{},
		ResourcePermissions:  map[string][]string{},
	}
	if !found {
		return snapshot, nil
	}

	assignment, hasRole, err := e.roles.ActiveRole(userID)
	if err != nil {
		return nil, err
	}
	if hasRole {
		snapshot.Role = string(assignment.Role)
	}
	snapshot.IsAdmin = user.IsSuperuser || (hasRole && assignment.Role == RoleAdmin)

	propertyIDs, err := e.access.ActivePropertyIDs(userID)
	if err != nil {
		return nil, err
	}
	if propertyIDs != nil {
		snapshot.AccessibleProperties = propertyIDs
	}

	grants, err := e.grants.ActiveForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, grant := range grants {
		resourceType := string(grant.ResourceType)
		action := string(grant.Action)
		existing := snapshot.ResourcePermissions[resourceType]
		duplicate := false
		for _, a := range existing {
			if a == action {
				duplicate = true
				break
			}
		}
		if !duplicate {
			snapshot.ResourcePermissions[resourceType] = append(existing, action)
		}
	}

	return snapshot, nil
}
