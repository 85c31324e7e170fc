package model

import "strings"

// Role is the authorization label attached to an identity.  Roles form a
// total order: anonymous < user < premium < admin.  Every gate in the
// application compares roles with AtLeast so that the premium gate and the
// content access policy agree on who counts as a premium member.
type Role string

const (
    RoleAnonymous Role = ""        // not persisted; the caller presented no usable token
    RoleUser      Role = "user"    // default role for new accounts
    RolePremium   Role = "premium" // paying member
    RoleAdmin     Role = "admin"   // catalog editor
)

// rank maps each role to its position in the order.  Unknown strings rank
// with anonymous so a corrupted role value never grants access.
func (r Role) rank() int {
    switch r {
    case RoleUser:
        return 1
    case RolePremium:
        return 2
    case RoleAdmin:
        return 3
    }
    return 0
}

// AtLeast reports whether r is the same as or above min in the role order.
func (r Role) AtLeast(min Role) bool {
    return r.rank() >= min.rank()
}

// Valid reports whether r is one of the persisted roles.
func (r Role) Valid() bool {
    return r == RoleUser || r == RolePremium || r == RoleAdmin
}

// String returns the wire form, "anonymous" for the zero role.
func (r Role) String() string {
    if r == RoleAnonymous {
        return "anonymous"
    }
    return string(r)
}

// ParseRole converts a stored role string into a Role.  Unknown values map
// to RoleAnonymous and ok=false.
func ParseRole(s string) (Role, bool) {
    r := Role(strings.ToLower(strings.TrimSpace(s)))
    if !r.Valid() {
        return RoleAnonymous, false
    }
    return r, true
}
