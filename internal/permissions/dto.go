package permissions

import (
	"time"

	"github.com/qu-security/guardforce/internal"
	"github.com/qu-security/guardforce/internal/core/common/validation"
)

// AssignRoleDTO is the request payload for assigning a role to a user.
type AssignRoleDTO struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Reason string `json:"reason,omitempty"`
}

func (dto AssignRoleDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("user_id", dto.UserID).PositiveID()
	validator.Field("role", dto.Role).Required()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	if !Role(dto.Role).IsValid() {
		return internal.NewValidationError("invalid role", internal.ErrCodeValidationFailed)
	}
	return nil
}

// GrantResourcePermissionDTO is the request payload for an explicit grant.
type GrantResourcePermissionDTO struct {
	UserID       int64      `json:"user_id"`
	ResourceType string     `json:"resource_type"`
	Action       string     `json:"action"`
	ResourceID   *int64     `json:"resource_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

func (dto GrantResourcePermissionDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("user_id", dto.UserID).PositiveID()
	validator.Field("resource_type", dto.ResourceType).Required()
	validator.Field("action", dto.Action).Required()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	if !ResourceType(dto.ResourceType).IsValid() {
		return ErrUnknownResourceType
	}
	if !Action(dto.Action).IsValid() {
		return ErrUnknownAction
	}
	if dto.ResourceID != nil && *dto.ResourceID <= 0 {
		return internal.NewValidationError("resource_id must be positive", internal.ErrCodeInvalidID)
	}
	return nil
}

// RevokeResourcePermissionDTO identifies the grant row to deactivate.
type RevokeResourcePermissionDTO struct {
	PermissionID int64  `json:"permission_id"`
	Reason       string `json:"reason,omitempty"`
}

func (dto RevokeResourcePermissionDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("permission_id", dto.PermissionID).PositiveID()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// PropertyAccessCapabilitiesDTO carries the per-capability flags of a
// property access grant. Pointers distinguish "not sent" from false so a
// re-grant can leave existing capabilities untouched.
type PropertyAccessCapabilitiesDTO struct {
	CanCreateShifts    *bool `json:"can_create_shifts,omitempty"`
	CanEditShifts      *bool `json:"can_edit_shifts,omitempty"`
	CanCreateExpenses  *bool `json:"can_create_expenses,omitempty"`
	CanEditExpenses    *bool `json:"can_edit_expenses,omitempty"`
	CanApproveExpenses *bool `json:"can_approve_expenses,omitempty"`
}

// GrantPropertyAccessDTO is the request payload for a property access grant.
type GrantPropertyAccessDTO struct {
	UserID      int64                         `json:"user_id"`
	PropertyID  int64                         `json:"property_id"`
	AccessType  string                        `json:"access_type,omitempty"`
	Permissions PropertyAccessCapabilitiesDTO `json:"permissions"`
	Reason      string                        `json:"reason,omitempty"`
}

func (dto GrantPropertyAccessDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("user_id", dto.UserID).PositiveID()
	validator.Field("property_id", dto.PropertyID).PositiveID()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	if dto.AccessType != "" && !AccessType(dto.AccessType).IsValid() {
		return internal.NewValidationError("invalid access_type", internal.ErrCodeValidationFailed)
	}
	return nil
}

// RevokePropertyAccessDTO identifies the access row to deactivate.
type RevokePropertyAccessDTO struct {
	AccessID int64  `json:"access_id"`
	Reason   string `json:"reason,omitempty"`
}

func (dto RevokePropertyAccessDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("access_id", dto.AccessID).PositiveID()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// BulkPermissionUpdateDTO applies many grant/revoke operations in one call.
type BulkPermissionUpdateDTO struct {
	Updates []BulkUpdateItemDTO `json:"updates"`
}

type BulkUpdateItemDTO struct {
	UserID         int64                 `json:"user_id"`
	Operation      string                `json:"operation"`
	PermissionData BulkPermissionDataDTO `json:"permission_data"`
}

type BulkPermissionDataDTO struct {
	Type         string `json:"type"`
	ResourceType string `json:"resource_type,omitempty"`
	Action       string `json:"action,omitempty"`
	ResourceID   *int64 `json:"resource_id,omitempty"`
	PermissionID int64  `json:"permission_id,omitempty"`
	PropertyID   int64  `json:"property_id,omitempty"`
	AccessType   string `json:"access_type,omitempty"`
	AccessID     int64  `json:"access_id,omitempty"`
}

func (dto BulkPermissionUpdateDTO) Validate() error {
	if len(dto.Updates) == 0 {
		return internal.NewValidationError("updates array is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

// Responses.

type RoleAssignmentResponse struct {
	Message      string `json:"message"`
	AssignmentID int64  `json:"assignment_id"`
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	Created      bool   `json:"created"`
}

type GrantResponse struct {
	Message      string     `json:"message"`
	PermissionID int64      `json:"permission_id"`
	UserID       int64      `json:"user_id"`
	Username     string     `json:"username"`
	ResourceType string     `json:"resource_type"`
	Action       string     `json:"action"`
	ResourceID   *int64     `json:"resource_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Created      bool       `json:"created"`
}

type RevokeResponse struct {
	Message      string `json:"message"`
	PermissionID int64  `json:"permission_id"`
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	ResourceType string `json:"resource_type"`
	Action       string `json:"action"`
}

type PropertyAccessResponse struct {
	Message     string                     `json:"message"`
	AccessID    int64                      `json:"access_id"`
	UserID      int64                      `json:"user_id"`
	Username    string                     `json:"username"`
	PropertyID  int64                      `json:"property_id"`
	AccessType  string                     `json:"access_type"`
	Permissions PropertyAccessCapabilities `json:"permissions"`
	Created     bool                       `json:"created"`
}

type PropertyAccessCapabilities struct {
	CanCreateShifts    bool `json:"can_create_shifts"`
	CanEditShifts      bool `json:"can_edit_shifts"`
	CanCreateExpenses  bool `json:"can_create_expenses"`
	CanEditExpenses    bool `json:"can_edit_expenses"`
	CanApproveExpenses bool `json:"can_approve_expenses"`
}

type RevokeAccessResponse struct {
	Message    string `json:"message"`
	AccessID   int64  `json:"access_id"`
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	PropertyID int64  `json:"property_id"`
}

// UserPermissionsView is one row of the admin user listing: the identity
// record plus everything currently granted to it.
type UserPermissionsView struct {
	User                *User             `json:"user"`
	Role                *RoleAssignment   `json:"role"`
	Groups              []string          `json:"groups"`
	ResourcePermissions []*ResourceGrant  `json:"resource_permissions"`
	PropertyAccess      []*PropertyAccess `json:"property_access"`
}

type UserListResponse struct {
	Count int                    `json:"count"`
	Users []*UserPermissionsView `json:"users"`
}

// UserRef is the short identity block embedded in audit log views.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// AuditEntryView decorates an audit entry with resolved identities.
type AuditEntryView struct {
	*AuditEntry
	User            *UserRef `json:"user_info,omitempty"`
	PerformedByUser *UserRef `json:"performed_by_info,omitempty"`
}

type AuditLogResponse struct {
	Count   int               `json:"count"`
	Logs    []*AuditEntryView `json:"logs"`
	Filters AuditLogFilters   `json:"filters"`
}

type AuditLogFilters struct {
	UserID         *int64 `json:"user_id"`
	PermissionType string `json:"permission_type"`
	Action         string `json:"action"`
	Limit          int    `json:"limit"`
}

type BulkUpdateResult struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username,omitempty"`
	Operation    string `json:"operation"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	PermissionID int64  `json:"permission_id,omitempty"`
	AccessID     int64  `json:"access_id,omitempty"`
	Created      bool   `json:"created,omitempty"`
}

type BulkUpdateResponse struct {
	Message string             `json:"message"`
	Summary BulkUpdateSummary  `json:"summary"`
	Results []BulkUpdateResult `json:"results"`
}

// bulk update vocabulary
const (
	BulkOperationGrant  = "grant"
	BulkOperationRevoke = "revoke"

	BulkTypeResource = "resource"
	BulkTypeProperty = "property"
)

type BulkUpdateSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// OptionEntry is one selectable value with its display label.
type OptionEntry struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type AvailableOptionsResponse struct {
	UserRoles       []OptionEntry `json:"user_roles"`
	ResourceTypes   []OptionEntry `json:"resource_types"`
	Actions         []OptionEntry `json:"actions"`
	AccessTypes     []OptionEntry `json:"access_types"`
	PermissionTypes []OptionEntry `json:"permission_types"`
	LogActions      []OptionEntry `json:"log_actions"`
}
