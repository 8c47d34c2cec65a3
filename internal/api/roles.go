package api

import "fmt"

// Role is a claim string the backend attaches to an identity.
type Role string

const (
	RolePublisher           Role = "publisher"
	RoleCartPlanner         Role = "cartplanner"
	RoleFieldServicePlanner Role = "fieldserviceplanner"
	RoleAdmin               Role = "admin"
)

var knownRoles = map[Role]struct{}{
	RolePublisher:           {},
	RoleCartPlanner:         {},
	RoleFieldServicePlanner: {},
	RoleAdmin:               {},
}

// RoleSet is the closed set of role claims held by an identity.
type RoleSet []Role

// ParseRoleSet validates raw role strings against the known claim set.
// An unknown claim makes the whole set invalid; callers treat that as
// corrupt persisted data.
func ParseRoleSet(raw []string) (RoleSet, error) {
	set := make(RoleSet, 0, len(raw))
	for _, s := range raw {
		r := Role(s)
		if _, ok := knownRoles[r]; !ok {
			return nil, fmt.Errorf("unknown role %q", s)
		}
		if set.Has(r) {
			continue
		}
		set = append(set, r)
	}
	return set, nil
}

// Has reports whether the exact role claim is present.
func (s RoleSet) Has(r Role) bool {
	for _, have := range s {
		if have == r {
			return true
		}
	}
	return false
}

// Allows reports whether the set grants an action gated on r. The admin
// claim grants every gated action.
func (s RoleSet) Allows(r Role) bool {
	return s.Has(RoleAdmin) || s.Has(r)
}

// Strings returns the set as raw claim strings for persistence.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}
