package tenants

import "github.com/jrsteele09/go-erp-client/users"

// Resolver decides which division scoping, if any, a request carries. It is
// pure: the outcome depends only on its arguments and the role policy.
type Resolver struct {
	policy users.RestrictedRolePolicy
}

func NewResolver(policy users.RestrictedRolePolicy) Resolver {
	return Resolver{policy: policy}
}

// Resolve maps an actor and the current selection to an Injection.
//
// A restricted actor is never given "all": with a concrete selected id it is
// scoped to that id, otherwise nothing is injected. The latter leaves a
// restricted actor holding a stale "all" selection unscoped; that matches the
// backend contract observed so far and is tracked as a known gap.
func (r Resolver) Resolve(actor users.Actor, selection *Selection) Injection {
	if selection == nil {
		return None
	}

	if r.policy.IsRestricted(actor.Roles) {
		if selection.ID.IsConcrete() {
			return Division(selection.ID)
		}
		return None
	}

	if selection.IsAllDivisions || selection.ID.IsAll() {
		return All()
	}
	if selection.ID.IsConcrete() {
		return Division(selection.ID)
	}
	return None
}
