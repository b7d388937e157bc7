package permissions

// ReadScope narrows a listing for one caller without running the decision
// engine per row. For property reads backed by roles and ownership the
// verdict agrees with a row-by-row HasResourcePermission(userID, type,
// read, id) sweep; explicit grants widen per-row decisions without
// widening the verdict. PropertyDetailScope folds granted ids back in for
// property detail routes, other resource types keep the narrow listing.
// Everything the filter does not recognize scopes to nothing.
//
// Repositories interpret the verdict against their own schema: owner-client
// scope means "owned properties" on the property table but "guards serving
// the client's properties through an active tariff" on the guard table.
func (e *Engine) ReadScope(userID int64, resourceType ResourceType) (RowFilter, error) {
	if !resourceType.IsValid() {
		return FilterNone(), ErrUnknownResourceType
	}

	user, found, err := e.users.GetByID(userID)
	if err != nil {
		return FilterNone(), err
	}
	if !found {
		return FilterNone(), nil
	}

	if user.IsSuperuser {
		return FilterAll(), nil
	}
	for _, group := range []string{GroupAdministrators, GroupManagers} {
		member, err := e.groups.IsMember(userID, group)
		if err != nil {
			return FilterNone(), err
		}
		if member {
			return FilterAll(), nil
		}
	}

	assignment, hasRole, err := e.roles.ActiveRole(userID)
	if err != nil {
		return FilterNone(), err
	}
	if hasRole {
		return e.roleScope(userID, assignment.Role, resourceType)
	}
	return e.fallbackScope(userID, resourceType)
}

func (e *Engine) roleScope(userID int64, role Role, resourceType ResourceType) (RowFilter, error) {
	switch resourceType {
	case ResourceProperty:
		switch role {
		case RoleClient:
			return e.ownerClientScope(userID)
		case RoleGuard:
			ids, err := e.access.ActivePropertyIDs(userID)
			if err != nil {
				return FilterNone(), err
			}
			return FilterAssignedProperties(ids), nil
		}

	case ResourceGuard:
		switch role {
		case RoleGuard:
			return FilterSelfUser(userID), nil
		case RoleClient:
			return e.ownerClientScope(userID)
		}

	case ResourceShift:
		switch role {
		case RoleGuard:
			guardID, ok, err := e.ownership.GuardIDByUserID(userID)
			if err != nil {
				return FilterNone(), err
			}
			if !ok {
				return FilterNone(), nil
			}
			return FilterSelfGuard(guardID), nil
		case RoleClient:
			return e.ownerClientScope(userID)
		}

	case ResourceExpense:
		if role == RoleClient {
			return e.ownerClientScope(userID)
		}
	}

	return FilterNone(), nil
}

// fallbackScope covers users without an active role assignment: visibility
// is inferred from whichever profile rows exist.
func (e *Engine) fallbackScope(userID int64, resourceType ResourceType) (RowFilter, error) {
	switch resourceType {
	case ResourceProperty:
		clientID, ok, err := e.ownership.ClientIDByUserID(userID)
		if err != nil {
			return FilterNone(), err
		}
		if ok {
			return FilterOwnerClient(clientID), nil
		}

	case ResourceShift:
		clientID, ok, err := e.ownership.ClientIDByUserID(userID)
		if err != nil {
			return FilterNone(), err
		}
		if ok {
			return FilterOwnerClient(clientID), nil
		}
		guardID, ok, err := e.ownership.GuardIDByUserID(userID)
		if err != nil {
			return FilterNone(), err
		}
		if ok {
			return FilterSelfGuard(guardID), nil
		}

	case ResourceGuard:
		return FilterSelfUser(userID), nil
	}

	return FilterNone(), nil
}

func (e *Engine) ownerClientScope(userID int64) (RowFilter, error) {
	clientID, ok, err := e.ownership.ClientIDByUserID(userID)
	if err != nil {
		return FilterNone(), err
	}
	if !ok {
		return FilterNone(), nil
	}
	return FilterOwnerClient(clientID), nil
}

// PropertyDetailScope widens a read scope with the property ids the user
// holds explicit grants for, so detail routes can reach granted rows that
// the role filter alone would hide. A global grant widens to everything.
func (e *Engine) PropertyDetailScope(userID int64, actions []Action) (RowFilter, []int64, error) {
	base, err := e.ReadScope(userID, ResourceProperty)
	if err != nil {
		return FilterNone(), nil, err
	}
	if base.Scope == ScopeAll {
		return base, nil, nil
	}

	ids, global, err := e.grants.ActivePropertyGrantIDs(userID, actions)
	if err != nil {
		return FilterNone(), nil, err
	}
	if global {
		return FilterAll(), nil, nil
	}
	return base, ids, nil
}
