package auth

import "strings"

// DefaultExemptRoutes are URL fragments whose requests are never tenant
// scoped: authentication, the public division lookup, public-prefixed routes
// and the subordinate listing.
var DefaultExemptRoutes = []string{
	"/auth/",
	"/divisions/public-lookup",
	"/public/",
	"/employees/subordinates",
}

// RequestPolicy is the single source of routes exempt from tenant injection.
// A request is exempt when its URL contains any configured fragment.
type RequestPolicy struct {
	exempt []string
}

// NewRequestPolicy builds a policy from URL fragments. No fragments means
// DefaultExemptRoutes.
func NewRequestPolicy(fragments ...string) RequestPolicy {
	if len(fragments) == 0 {
		fragments = DefaultExemptRoutes
	}
	p := RequestPolicy{exempt: make([]string, 0, len(fragments))}
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			p.exempt = append(p.exempt, f)
		}
	}
	return p
}

// IsExempt reports whether rawURL matches an exempt fragment.
func (p RequestPolicy) IsExempt(rawURL string) bool {
	for _, f := range p.exempt {
		if strings.Contains(rawURL, f) {
			return true
		}
	}
	return false
}

// ExemptRoutes returns a copy of the configured fragments.
func (p RequestPolicy) ExemptRoutes() []string {
	return append([]string(nil), p.exempt...)
}
