package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRoleAssigned          = "permission.role_assigned"
	EventTypePermissionGranted     = "permission.granted"
	EventTypePermissionRevoked     = "permission.revoked"
	EventTypePropertyAccessChanged = "permission.property_access_changed"
)

type RoleAssignedEvent struct {
	BaseEvent
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	PreviousRole string `json:"previous_role"`
	AssignedBy   int64  `json:"assigned_by"`
}

func NewRoleAssignedEvent(userID int64, role, previousRole string, assignedBy int64) *RoleAssignedEvent {
	return &RoleAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRoleAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":       userID,
				"role":          role,
				"previous_role": previousRole,
				"assigned_by":   assignedBy,
			},
		},
		UserID:       userID,
		Role:         role,
		PreviousRole: previousRole,
		AssignedBy:   assignedBy,
	}
}

type PermissionGrantedEvent struct {
	BaseEvent
	UserID       int64  `json:"user_id"`
	ResourceType string `json:"resource_type"`
	Action       string `json:"action"`
	ResourceID   *int64 `json:"resource_id"`
	GrantedBy    int64  `json:"granted_by"`
}

func NewPermissionGrantedEvent(userID int64, resourceType, action string, resourceID *int64, grantedBy int64) *PermissionGrantedEvent {
	return &PermissionGrantedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermissionGranted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":       userID,
				"resource_type": resourceType,
				"action":        action,
				"resource_id":   resourceID,
				"granted_by":    grantedBy,
			},
		},
		UserID:       userID,
		ResourceType: resourceType,
		Action:       action,
		ResourceID:   resourceID,
		GrantedBy:    grantedBy,
	}
}

type PermissionRevokedEvent struct {
	BaseEvent
	UserID       int64  `json:"user_id"`
	ResourceType string `json:"resource_type"`
	Action       string `json:"action"`
	ResourceID   *int64 `json:"resource_id"`
	RevokedBy    int64  `json:"revoked_by"`
}

func NewPermissionRevokedEvent(userID int64, resourceType, action string, resourceID *int64, revokedBy int64) *PermissionRevokedEvent {
	return &PermissionRevokedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermissionRevoked,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":       userID,
				"resource_type": resourceType,
				"action":        action,
				"resource_id":   resourceID,
				"revoked_by":    revokedBy,
			},
		},
		UserID:       userID,
		ResourceType: resourceType,
		Action:       action,
		ResourceID:   resourceID,
		RevokedBy:    revokedBy,
	}
}

type PropertyAccessChangedEvent struct {
	BaseEvent
	UserID     int64  `json:"user_id"`
	PropertyID int64  `json:"property_id"`
	AccessType string `json:"access_type"`
	Revoked    bool   `json:"revoked"`
	ChangedBy  int64  `json:"changed_by"`
}

func NewPropertyAccessChangedEvent(userID, propertyID int64, accessType string, revoked bool, changedBy int64) *PropertyAccessChangedEvent {
	return &PropertyAccessChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePropertyAccessChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":     userID,
				"property_id": propertyID,
				"access_type": accessType,
				"revoked":     revoked,
				"changed_by":  changedBy,
			},
		},
		UserID:     userID,
		PropertyID: propertyID,
		AccessType: accessType,
		Revoked:    revoked,
		ChangedBy:  changedBy,
	}
}
