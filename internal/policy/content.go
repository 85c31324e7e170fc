// Package policy decides whether a caller may read a prompt's full content.
package policy

import "github.com/iliyamo/prompt-library/internal/model"

// Decision is the outcome of a content access check.
type Decision int

const (
	Allow                Decision = iota
	DenyUnauthenticated           // no usable identity; respond 401
	DenyInsufficientRole          // identity below premium; respond 403
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthenticated"
	case DenyInsufficientRole:
		return "insufficient_role"
	}
	return "unknown"
}

// ContentPolicy gates single-prompt reads.  Premium prompts need a premium
// or admin identity.  Free prompts are open to anonymous callers unless
// FreeRequiresAuth is set.
type ContentPolicy struct {
	FreeRequiresAuth bool
}

// Decide applies the policy to a viewer's role and the prompt's premium flag.
func (p ContentPolicy) Decide(viewer model.Role, isPremium bool) Decision {
	authenticated := viewer.AtLeast(model.RoleUser)
	if !isPremium {
		if p.FreeRequiresAuth && !authenticated {
			return DenyUnauthenticated
		}
		return Allow
	}
	if !authenticated {
		return DenyUnauthenticated
	}
	if !viewer.AtLeast(model.RolePremium) {
		return DenyInsufficientRole
	}
	return Allow
}
