package users

import "strings"

// DefaultRestrictedRoles are the role name fragments confining an actor to a
// single division.
var DefaultRestrictedRoles = []string{
	"business officer",
	"warehouse manager",
	"area business manager",
}

// RestrictedRolePolicy decides whether an actor is confined to one tenant.
// A role matches when it contains any configured fragment, case-insensitively.
type RestrictedRolePolicy struct {
	fragments []string
}

// NewRestrictedRolePolicy builds a policy from role name fragments. No
// fragments means DefaultRestrictedRoles.
func NewRestrictedRolePolicy(fragments ...string) RestrictedRolePolicy {
	if len(fragments) == 0 {
		fragments = DefaultRestrictedRoles
	}
	p := RestrictedRolePolicy{fragments: make([]string, 0, len(fragments))}
	for _, f := range fragments {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			p.fragments = append(p.fragments, f)
		}
	}
	return p
}

// IsRestricted reports whether any of the roles matches a restricted fragment.
func (p RestrictedRolePolicy) IsRestricted(roles []RoleDescriptor) bool {
	for _, r := range roles {
		name := strings.ToLower(r.Name)
		if name == "" {
			continue
		}
		for _, f := range p.fragments {
			if strings.Contains(name, f) {
				return true
			}
		}
	}
	return false
}
