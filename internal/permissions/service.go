package permissions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/events"
	"github.com/qu-security/guardforce/internal/ids"
	"github.com/qu-security/guardforce/internal/metrics"
)

// PropertySummary is the slice of a property the admin API shows in grant
// responses and audit details.
type PropertySummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type PropertyDirectory interface {
	PropertySummary(propertyID int64) (*PropertySummary, bool, error)
}

// CapabilityPatch carries optional capability updates for a property
// access grant; nil fields leave the stored value untouched.
type CapabilityPatch struct {
	CanCreateShifts    *bool
	CanEditShifts      *bool
	CanCreateExpenses  *bool
	CanEditExpenses    *bool
	CanApproveExpenses *bool
}

// Service implements the operator-facing permission management API. It is
// the only writer of the audit log: engine reads and bare store calls never
// append entries.
type Service struct {
	users      UserDirectory
	roles      RoleStore
	groups     GroupStore
	grants     GrantStore
	access     AccessStore
	properties PropertyDirectory
	audit      AuditStore
	eventBus   *events.EventBus
	logger     *slog.Logger
}

func NewService(
	users UserDirectory,
	roles RoleStore,
	groups GroupStore,
	grants GrantStore,
	access AccessStore,
	properties PropertyDirectory,
	audit AuditStore,
	eventBus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:      users,
		roles:      roles,
		groups:     groups,
		grants:     grants,
		access:     access,
		properties: properties,
		audit:      audit,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// IsAdmin reports whether the user may call the management API: superusers
// and holders of an active admin role qualify.
func (s *Service) IsAdmin(userID int64) (bool, error) {
	user, found, err := s.users.GetByID(userID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}
	return s.roles.HasActiveRole(userID, RoleAdmin)
}

func (s *Service) ListUsersWithPermissions() (*UserListResponse, error) {
	users, err := s.users.ListAll()
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}

	views := make([]*UserPermissionsView, 0, len(users))
	for _, user := range users {
		view := &UserPermissionsView{
			User:                user,
			Groups:              []string{},
			ResourcePermissions: []*ResourceGrant{},
			PropertyAccess:      []*PropertyAccess{},
		}

		assignment, hasRole, err := s.roles.ActiveRole(user.ID)
		if err != nil {
			return nil, err
		}
		if hasRole {
			view.Role = assignment
		}

		groups, err := s.groups.GroupsForUser(user.ID)
		if err != nil {
			return nil, err
		}
		if groups != nil {
			view.Groups = groups
		}

		grants, err := s.grants.ActiveForUser(user.ID)
		if err != nil {
			return nil, err
		}
		if grants != nil {
			view.ResourcePermissions = grants
		}

		accesses, err := s.access.ActiveForUser(user.ID)
		if err != nil {
			return nil, err
		}
		if accesses != nil {
			view.PropertyAccess = accesses
		}

		views = append(views, view)
	}

	return &UserListResponse{Count: len(views), Users: views}, nil
}

// AssignRole changes a user's role in two steps: the assignment store is
// updated first, then derived group membership is recomputed from the new
// role. Recomputing rather than patching keeps groups correct even when the
// previous state was inconsistent.
func (s *Service) AssignRole(dto AssignRoleDTO, performedBy int64) (*RoleAssignmentResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, found, err := s.users.GetByID(dto.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	}

	role := Role(dto.Role)

	// Assignment deactivates every existing row, so an ambiguous previous
	// state is repaired here rather than reported.
	previousRole := ""
	if previous, hasPrevious, err := s.roles.ActiveRole(dto.UserID); err == nil && hasPrevious {
		previousRole = string(previous.Role)
	}

	assignment, created, err := s.roles.Upsert(dto.UserID, role)
	if err != nil {
		s.logger.Error("failed to upsert role assignment", "error", err, "user_id", dto.UserID, "role", role)
		return nil, err
	}

	if err := s.groups.RecomputeForUser(dto.UserID, role); err != nil {
		s.logger.Error("failed to recompute groups", "error", err, "user_id", dto.UserID, "role", role)
		return nil, err
	}

	s.appendAudit(dto.UserID, PermissionTypeUserRole, map[string]interface{}{
		"role":   string(role),
		"action": "assigned",
	}, LogActionGranted, performedBy, dto.Reason)

	s.eventBus.Publish(context.Background(),
		events.NewRoleAssignedEvent(dto.UserID, string(role), previousRole, performedBy))
	metrics.ObservePermissionChange(events.EventTypeRoleAssigned)

	s.logger.Info("role assigned",
		"user_id", dto.UserID,
		"role", role,
		"previous_role", previousRole,
		"performed_by", performedBy)

	return &RoleAssignmentResponse{
		Message:      fmt.Sprintf("Role %s assigned to user %s", role, user.Username),
		AssignmentID: assignment.ID,
		UserID:       user.ID,
		Username:     user.Username,
		Role:         string(role),
		Created:      created,
	}, nil
}

func (s *Service) GrantResourcePermission(dto GrantResourcePermissionDTO, performedBy int64) (*GrantResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, found, err := s.users.GetByID(dto.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	}

	grant, created, err := s.grants.Upsert(&ResourceGrant{
		UserID:       dto.UserID,
		ResourceType: ResourceType(dto.ResourceType),
		Action:       Action(dto.Action),
		ResourceID:   dto.ResourceID,
		GrantedBy:    &performedBy,
		ExpiresAt:    dto.ExpiresAt,
		IsActive:     true,
	})
	if err != nil {
		s.logger.Error("failed to upsert resource grant", "error", err, "user_id", dto.UserID)
		return nil, err
	}

	s.appendAudit(dto.UserID, PermissionTypeResourcePermission, map[string]interface{}{
		"resource_type": dto.ResourceType,
		"action":        dto.Action,
		"resource_id":   dto.ResourceID,
		"expires_at":    dto.ExpiresAt,
	}, LogActionGranted, performedBy, dto.Reason)

	s.eventBus.Publish(context.Background(),
		events.NewPermissionGrantedEvent(dto.UserID, dto.ResourceType, dto.Action, dto.ResourceID, performedBy))
	metrics.ObservePermissionChange(events.EventTypePermissionGranted)

	s.logger.Info("resource permission granted",
		"user_id", dto.UserID,
		"resource_type", dto.ResourceType,
		"action", dto.Action,
		"performed_by", performedBy)

	return &GrantResponse{
		Message:      fmt.Sprintf("%s permission for %s granted to %s", title(dto.Action), dto.ResourceType, user.Username),
		PermissionID: grant.ID,
		UserID:       user.ID,
		Username:     user.Username,
		ResourceType: dto.ResourceType,
		Action:       dto.Action,
		ResourceID:   dto.ResourceID,
		ExpiresAt:    dto.ExpiresAt,
		Created:      created,
	}, nil
}

func (s *Service) RevokeResourcePermission(dto RevokeResourcePermissionDTO, performedBy int64) (*RevokeResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	grant, found, err := s.grants.GetByID(dto.PermissionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, internal.NewNotFoundError("Permission not found", internal.ErrCodeGrantNotFound)
	}

	if err := s.grants.Deactivate(grant.ID); err != nil {
		s.logger.Error("failed to deactivate resource grant", "error", err, "permission_id", grant.ID)
		return nil, err
	}

	s.appendAudit(grant.UserID, PermissionTypeResourcePermission, map[string]interface{}{
		"resource_type": string(grant.ResourceType),
		"action":        string(grant.Action),
		"resource_id":   grant.ResourceID,
	}, LogActionRevoked, performedBy, dto.Reason)

	s.eventBus.Publish(context.Background(),
		events.NewPermissionRevokedEvent(grant.UserID, string(grant.ResourceType), string(grant.Action), grant.ResourceID, performedBy))
	metrics.ObservePermissionChange(events.EventTypePermissionRevoked)

	username := ""
	if user, found, err := s.users.GetByID(grant.UserID); err == nil && found {
		username = user.Username
	}

	s.logger.Info("resource permission revoked",
		"permission_id", grant.ID,
		"user_id", grant.UserID,
		"performed_by", performedBy)

	return &RevokeResponse{
		Message:      fmt.Sprintf("%s permission for %s revoked from %s", title(string(grant.Action)), grant.ResourceType, username),
		PermissionID: grant.ID,
		UserID:       grant.UserID,
		Username:     username,
		ResourceType: string(grant.ResourceType),
		Action:       string(grant.Action),
	}, nil
}

func (s *Service) GrantPropertyAccess(dto GrantPropertyAccessDTO, performedBy int64) (*PropertyAccessResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	accessType := AccessType(dto.AccessType)
	if dto.AccessType == "" {
		accessType = AccessViewer
	}

	user, found, err := s.users.GetByID(dto.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	}

	property, found, err := s.properties.PropertySummary(dto.PropertyID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, internal.NewNotFoundError("Property not found", internal.ErrCodePropertyNotFound)
	}

	patch := CapabilityPatch{
		CanCreateShifts:    dto.Permissions.CanCreateShifts,
		CanEditShifts:      dto.Permissions.CanEditShifts,
		CanCreateExpenses:  dto.Permissions.CanCreateExpenses,
		CanEditExpenses:    dto.Permissions.CanEditExpenses,
		CanApproveExpenses: dto.Permissions.CanApproveExpenses,
	}

	access, created, err := s.access.Apply(dto.UserID, dto.PropertyID, accessType, patch, performedBy)
	if err != nil {
		s.logger.Error("failed to apply property access", "error", err, "user_id", dto.UserID, "property_id", dto.PropertyID)
		return nil, err
	}

	capabilities := PropertyAccessCapabilities{
		CanCreateShifts:    access.CanCreateShifts,
		CanEditShifts:      access.CanEditShifts,
		CanCreateExpenses:  access.CanCreateExpenses,
		CanEditExpenses:    access.CanEditExpenses,
		CanApproveExpenses: access.CanApproveExpenses,
	}

	s.appendAudit(dto.UserID, PermissionTypePropertyAccess, map[string]interface{}{
		"property_id":      dto.PropertyID,
		"property_name":    property.Name,
		"property_address": property.Address,
		"access_type":      string(accessType),
		"permissions":      capabilities,
	}, LogActionGranted, performedBy, dto.Reason)

	s.eventBus.Publish(context.Background(),
		events.NewPropertyAccessChangedEvent(dto.UserID, dto.PropertyID, string(accessType), false, performedBy))
	metrics.ObservePermissionChange(events.EventTypePropertyAccessChanged)

	s.logger.Info("property access granted",
		"user_id", dto.UserID,
		"property_id", dto.PropertyID,
		"access_type", accessType,
		"performed_by", performedBy)

	return &PropertyAccessResponse{
		Message:     fmt.Sprintf("%s access to %s granted to %s", title(string(accessType)), property.Name, user.Username),
		AccessID:    access.ID,
		UserID:      user.ID,
		Username:    user.Username,
		PropertyID:  dto.PropertyID,
		AccessType:  string(accessType),
		Permissions: capabilities,
		Created:     created,
	}, nil
}

func (s *Service) RevokePropertyAccess(dto RevokePropertyAccessDTO, performedBy int64) (*RevokeAccessResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	access, found, err := s.access.GetByID(dto.AccessID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, internal.NewNotFoundError("Property access not found", internal.ErrCodeAccessGrantNotFound)
	}

	if err := s.access.Deactivate(access.ID); err != nil {
		s.logger.Error("failed to deactivate property access", "error", err, "access_id", access.ID)
		return nil, err
	}

	propertyName := ""
	propertyAddress := ""
	if property, found, err := s.properties.PropertySummary(access.PropertyID); err == nil && found {
		propertyName = property.Name
		propertyAddress = property.Address
	}

	s.appendAudit(access.UserID, PermissionTypePropertyAccess, map[string]interface{}{
		"property_id":      access.PropertyID,
		"property_name":    propertyName,
		"property_address": propertyAddress,
		"access_type":      string(access.AccessType),
	}, LogActionRevoked, performedBy, dto.Reason)

	s.eventBus.Publish(context.Background(),
		events.NewPropertyAccessChangedEvent(access.UserID, access.PropertyID, string(access.AccessType), true, performedBy))
	metrics.ObservePermissionChange(events.EventTypePropertyAccessChanged)

	username := ""
	if user, found, err := s.users.GetByID(access.UserID); err == nil && found {
		username = user.Username
	}

	s.logger.Info("property access revoked",
		"access_id", access.ID,
		"user_id", access.UserID,
		"property_id", access.PropertyID,
		"performed_by", performedBy)

	return &RevokeAccessResponse{
		Message:    fmt.Sprintf("%s access to %s revoked from %s", title(string(access.AccessType)), propertyName, username),
		AccessID:   access.ID,
		UserID:     access.UserID,
		Username:   username,
		PropertyID: access.PropertyID,
	}, nil
}

const maxAuditLogLimit = 100

func (s *Service) AuditLog(query AuditQuery) (*AuditLogResponse, error) {
	if query.Limit <= 0 || query.Limit > maxAuditLogLimit {
		query.Limit = maxAuditLogLimit
	}

	entries, err := s.audit.Query(query)
	if err != nil {
		s.logger.Error("failed to query audit log", "error", err)
		return nil, err
	}

	userRefs := make(map[int64]*UserRef)
	resolve := func(userID int64) *UserRef {
		if ref, ok := userRefs[userID]; ok {
			return ref
		}
		user, found, err := s.users.GetByID(userID)
		if err != nil || !found {
			userRefs[userID] = nil
			return nil
		}
		ref := &UserRef{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			FullName: strings.TrimSpace(user.FirstName + " " + user.LastName),
		}
		userRefs[userID] = ref
		return ref
	}

	views := make([]*AuditEntryView, len(entries))
	for i, entry := range entries {
		view := &AuditEntryView{AuditEntry: entry, User: resolve(entry.UserID)}
		if entry.PerformedBy != nil {
			view.PerformedByUser = resolve(*entry.PerformedBy)
		}
		views[i] = view
	}

	return &AuditLogResponse{
		Count: len(views),
		Logs:  views,
		Filters: AuditLogFilters{
			UserID:         query.UserID,
			PermissionType: query.PermissionType,
			Action:         query.Action,
			Limit:          query.Limit,
		},
	}, nil
}

// BulkUpdate applies many grant/revoke operations, collecting per-item
// outcomes instead of failing the batch. Bulk changes are not audited;
// only the single-operation endpoints write log entries.
func (s *Service) BulkUpdate(dto BulkPermissionUpdateDTO, performedBy int64) (*BulkUpdateResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	results := make([]BulkUpdateResult, 0, len(dto.Updates))
	successful := 0
	failed := 0

	fail := func(result BulkUpdateResult, message string) {
		result.Success = false
		result.Error = message
		results = append(results, result)
		failed++
	}

	for _, update := range dto.Updates {
		result := BulkUpdateResult{UserID: update.UserID, Operation: update.Operation}

		if update.Operation != BulkOperationGrant && update.Operation != BulkOperationRevoke {
			fail(result, `Invalid operation. Must be "grant" or "revoke"`)
			continue
		}

		user, found, err := s.users.GetByID(update.UserID)
		if err != nil {
			fail(result, err.Error())
			continue
		}
		if !found {
			fail(result, "User not found")
			continue
		}
		result.Username = user.Username

		data := update.PermissionData
		switch {
		case update.Operation == BulkOperationGrant && data.Type == BulkTypeResource:
			if !ResourceType(data.ResourceType).IsValid() || !Action(data.Action).IsValid() {
				fail(result, "Invalid resource_type or action")
				continue
			}
			grant, created, err := s.grants.Upsert(&ResourceGrant{
				UserID:       update.UserID,
				ResourceType: ResourceType(data.ResourceType),
				Action:       Action(data.Action),
				ResourceID:   data.ResourceID,
				GrantedBy:    &performedBy,
				IsActive:     true,
			})
			if err != nil {
				fail(result, err.Error())
				continue
			}
			result.Success = true
			result.PermissionID = grant.ID
			result.Created = created
			results = append(results, result)
			successful++

		case update.Operation == BulkOperationGrant && data.Type == BulkTypeProperty:
			accessType := AccessType(data.AccessType)
			if data.AccessType == "" {
				accessType = AccessViewer
			}
			if _, found, err := s.properties.PropertySummary(data.PropertyID); err != nil {
				fail(result, err.Error())
				continue
			} else if !found {
				fail(result, "Property not found")
				continue
			}
			access, created, err := s.access.Apply(update.UserID, data.PropertyID, accessType, CapabilityPatch{}, performedBy)
			if err != nil {
				fail(result, err.Error())
				continue
			}
			result.Success = true
			result.AccessID = access.ID
			result.Created = created
			results = append(results, result)
			successful++

		case update.Operation == BulkOperationRevoke && data.Type == BulkTypeResource:
			if err := s.grants.Deactivate(data.PermissionID); err != nil {
				fail(result, err.Error())
				continue
			}
			result.Success = true
			result.PermissionID = data.PermissionID
			results = append(results, result)
			successful++

		case update.Operation == BulkOperationRevoke && data.Type == BulkTypeProperty:
			if err := s.access.Deactivate(data.AccessID); err != nil {
				fail(result, err.Error())
				continue
			}
			result.Success = true
			result.AccessID = data.AccessID
			results = append(results, result)
			successful++

		default:
			fail(result, `Invalid permission type. Must be "resource" or "property"`)
		}
	}

	s.logger.Info("bulk permission update completed",
		"total", len(dto.Updates),
		"successful", successful,
		"failed", failed,
		"performed_by", performedBy)

	return &BulkUpdateResponse{
		Message: fmt.Sprintf("Bulk update completed. %d successful, %d failed.", successful, failed),
		Summary: BulkUpdateSummary{Total: len(dto.Updates), Successful: successful, Failed: failed},
		Results: results,
	}, nil
}

func (s *Service) AvailableOptions() *AvailableOptionsResponse {
	return &AvailableOptionsResponse{
		UserRoles: []OptionEntry{
			{Value: string(RoleAdmin), Label: "Administrator"},
			{Value: string(RoleManager), Label: "Manager"},
			{Value: string(RoleClient), Label: "Client"},
			{Value: string(RoleGuard), Label: "Guard"},
			{Value: string(RoleSupervisor), Label: "Supervisor"},
		},
		ResourceTypes: []OptionEntry{
			{Value: string(ResourceProperty), Label: "Property"},
			{Value: string(ResourceShift), Label: "Shift"},
			{Value: string(ResourceExpense), Label: "Expense"},
			{Value: string(ResourceGuard), Label: "Guard"},
			{Value: string(ResourceClient), Label: "Client"},
			{Value: string(ResourceService), Label: "Service"},
		},
		Actions: []OptionEntry{
			{Value: string(ActionCreate), Label: "Create"},
			{Value: string(ActionRead), Label: "Read"},
			{Value: string(ActionUpdate), Label: "Update"},
			{Value: string(ActionDelete), Label: "Delete"},
			{Value: string(ActionApprove), Label: "Approve"},
			{Value: string(ActionAssign), Label: "Assign"},
		},
		AccessTypes: []OptionEntry{
			{Value: string(AccessOwner), Label: "Owner"},
			{Value: string(AccessAssignedGuard), Label: "Assigned Guard"},
			{Value: string(AccessSupervisor), Label: "Supervisor"},
			{Value: string(AccessViewer), Label: "Viewer"},
		},
		PermissionTypes: []OptionEntry{
			{Value: PermissionTypeUserRole, Label: "User Role"},
			{Value: PermissionTypeResourcePermission, Label: "Resource Permission"},
			{Value: PermissionTypePropertyAccess, Label: "Property Access"},
		},
		LogActions: []OptionEntry{
			{Value: LogActionGranted, Label: "Granted"},
			{Value: LogActionRevoked, Label: "Revoked"},
			{Value: LogActionModified, Label: "Modified"},
			{Value: LogActionExpired, Label: "Expired"},
		},
	}
}

// appendAudit writes one log entry; failures are logged and swallowed so
// an audit outage cannot block a permission change already applied.
func (s *Service) appendAudit(userID int64, permissionType string, details map[string]interface{}, action string, performedBy int64, reason string) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		s.logger.Error("failed to marshal audit details", "error", err)
		detailsJSON = []byte("{}")
	}

	entry := &AuditEntry{
		EventID:        ids.New(),
		UserID:         userID,
		PermissionType: permissionType,
		Details:        string(detailsJSON),
		Action:         action,
		PerformedBy:    &performedBy,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}
	if err := s.audit.Append(entry); err != nil {
		s.logger.Error("failed to append audit entry",
			"error", err,
			"user_id", userID,
			"permission_type", permissionType,
			"action", action)
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
