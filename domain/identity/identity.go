// Package identity defines the caller identity and scope vocabulary shared
// by the access gate, the ledger and the dashboard. Identities originate
// from the external authentication collaborator; this service only consumes
// them.
package identity

// Role is the authorization level carried in the caller's claims.
type Role string

const (
	// RoleMember may read and write entries in their own user scope only.
	RoleMember Role = "member"
	// RoleManager additionally has access to their own team's scope.
	RoleManager Role = "manager"
	// RoleAdmin has access to any scope, including global.
	RoleAdmin Role = "admin"
)

// Elevated reports whether the role grants access beyond the caller's own
// user scope.
func (r Role) Elevated() bool {
	return r == RoleManager || r == RoleAdmin
}

// Claims is the validated identity of a caller, extracted from a bearer
// token issued by the external authentication service.
type Claims struct {
	UserID string `json:"user_id"`
	TeamID string `json:"team_id,omitempty"`
	Role   Role   `json:"role"`
}

// ScopeKind selects the dimension a query is restricted to.
type ScopeKind string

const (
	ScopeUser   ScopeKind = "user"
	ScopeTeam   ScopeKind = "team"
	ScopeGlobal ScopeKind = "global"
)

// Scope is the set of entries a query targets: one user, one team, or the
// whole ledger.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	// ID is the user or team identifier; empty for the global scope.
	ID string `json:"id,omitempty"`
}

// UserScope returns the scope covering a single user's entries.
func UserScope(userID string) Scope {
	return Scope{Kind: ScopeUser, ID: userID}
}

// TeamScope returns the scope covering one team's entries.
func TeamScope(teamID string) Scope {
	return Scope{Kind: ScopeTeam, ID: teamID}
}

// GlobalScope returns the scope covering the whole ledger.
func GlobalScope() Scope {
	return Scope{Kind: ScopeGlobal}
}
