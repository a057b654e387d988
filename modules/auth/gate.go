package auth

import (
	"fmt"

	"github.com/example/worklog-dashboard/domain/entry"
	"github.com/example/worklog-dashboard/domain/identity"
)

// The access gate is a stateless policy over validated claims. It fails with
// an explicit forbidden error rather than silently narrowing results, so a
// denial is auditable and never looks like "no data".

// AuthorizeScope checks that the caller may read the requested scope.
// A caller always has access to their own user scope. Team scope requires a
// manager claim for that same team, or admin. Global scope requires admin.
func AuthorizeScope(caller identity.Claims, scope identity.Scope) error {
	if caller.Role == identity.RoleAdmin {
		return nil
	}
	switch scope.Kind {
	case identity.ScopeUser:
		if scope.ID == caller.UserID {
			return nil
		}
		return fmt.Errorf("%w: user %s may not access entries of user %s",
			entry.ErrForbidden, caller.UserID, scope.ID)
	case identity.ScopeTeam:
		if caller.Role == identity.RoleManager && scope.ID != "" && scope.ID == caller.TeamID {
			return nil
		}
		return fmt.Errorf("%w: team scope %q requires a manager claim for that team",
			entry.ErrForbidden, scope.ID)
	case identity.ScopeGlobal:
		return fmt.Errorf("%w: global scope requires an admin claim", entry.ErrForbidden)
	default:
		return fmt.Errorf("%w: unknown scope kind %q", entry.ErrValidation, scope.Kind)
	}
}

// AuthorizeMutation checks that the caller may mutate an entry owned by
// ownerID. Writes are owner-only; elevated read access does not grant edit
// rights over someone else's ledger history.
func AuthorizeMutation(caller identity.Claims, ownerID string) error {
	if caller.UserID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: only the owner may modify this entry", entry.ErrForbidden)
}

// AuthorizeRead checks that the caller may read a single entry. Owners read
// their own entries; managers read entries of their team; admins read
// anything.
func AuthorizeRead(caller identity.Claims, e *entry.TaskEntry) error {
	if caller.UserID == e.OwnerID {
		return nil
	}
	if e.TeamID != "" {
		if err := AuthorizeScope(caller, identity.TeamScope(e.TeamID)); err == nil {
			return nil
		}
	}
	if caller.Role == identity.RoleAdmin {
		return nil
	}
	return fmt.Errorf("%w: entry %s is outside the caller's scope", entry.ErrForbidden, e.ID)
}
