package permissions

import "fmt"

// roleTable maps role and resource type to the actions the role may take
// without an ownership or grant check. The rows differ between resource
// types on purpose; do not symmetrize them. Supervisors have no row and
// depend entirely on ownership and explicit grants.
var roleTable = map[Role]map[ResourceType][]Action{
	RoleAdmin: {
		ResourceProperty: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAssign},
		ResourceShift:    {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove},
		ResourceExpense:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove},
		ResourceGuard:    {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceClient:   {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceService:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	},
	RoleManager: {
		ResourceProperty: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAssign},
		ResourceShift:    {ActionRead, ActionUpdate, ActionApprove},
		ResourceExpense:  {ActionRead, ActionApprove},
		ResourceGuard:    {ActionRead, ActionUpdate},
		ResourceClient:   {ActionRead, ActionUpdate},
		ResourceService:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	},
	RoleClient: {
		ResourceProperty: {ActionCreate, ActionRead, ActionUpdate},
		ResourceExpense:  {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
		ResourceShift:    {ActionRead},
		ResourceService:  {ActionRead},
	},
	RoleGuard: {
		ResourceShift:    {ActionCreate, ActionRead, ActionUpdate},
		ResourceProperty: {ActionRead},
		ResourceService:  {ActionRead},
	},
}

// RoleAllows reports whether the role table grants action on resourceType.
func RoleAllows(role Role, resourceType ResourceType, action Action) bool {
	resources, ok := roleTable[role]
	if !ok {
		return false
	}
	for _, a := range resources[resourceType] {
		if a == action {
			return true
		}
	}
	return false
}

// ValidateRoleTable checks every key and action in the table against the
// known enums. Run once at startup so a bad table edit fails the boot
// instead of a request.
func ValidateRoleTable() error {
	if len(roleTable) == 0 {
		return fmt.Errorf("role table: empty")
	}
	for role, resources := range roleTable {
		if !role.IsValid() {
			return fmt.Errorf("role table: unknown role %q", role)
		}
		for resourceType, actions := range resources {
			if !resourceType.IsValid() {
				return fmt.Errorf("role table: role %q references unknown resource type %q", role, resourceType)
			}
			if len(actions) == 0 {
				return fmt.Errorf("role table: role %q has an empty action list for %q", role, resourceType)
			}
			seen := make(map[Action]bool, len(actions))
			for _, a := range actions {
				if !a.IsValid() {
					return fmt.Errorf("role table: role %q, resource %q: unknown action %q", role, resourceType, a)
				}
				if seen[a] {
					return fmt.Errorf("role table: role %q, resource %q: duplicate action %q", role, resourceType, a)
				}
				seen[a] = true
			}
		}
	}
	return nil
}
