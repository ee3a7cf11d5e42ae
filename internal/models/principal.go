package models

import "github.com/google/uuid"

// PrincipalKind distinguishes authenticated users from the shared
// password-bypass identity.
type PrincipalKind string

const (
	PrincipalUser   PrincipalKind = "user"
	PrincipalBypass PrincipalKind = "bypass"
)

// BypassPrincipalID is the reserved identity under which password-bypass
// usage is tracked. A fixed UUID rather than a string sentinel, so it can
// never collide with a generated user id.
var BypassPrincipalID = uuid.MustParse("00000000-0000-0000-0000-00000000b19a")

// Principal is the resolved identity of a request: either a real user or
// the bypass pseudo-user.
type Principal struct {
	Kind   PrincipalKind
	UserID uuid.UUID
	User   *User // nil for bypass
}

// UserPrincipal wraps an authenticated user.
func UserPrincipal(u *User) Principal {
	return Principal{Kind: PrincipalUser, UserID: u.ID, User: u}
}

// BypassPrincipal is the shared unlimited-quota identity.
func BypassPrincipal() Principal {
	return Principal{Kind: PrincipalBypass, UserID: BypassPrincipalID}
}

// QuotaExempt reports whether the principal is exempt from the monthly
// token cap. Bypass identities are exempt but still tracked.
func (p Principal) QuotaExempt() bool {
	return p.Kind == PrincipalBypass
}
