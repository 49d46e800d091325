package authroles

import (
	"strings"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
)

// StaticResolver maps IdP group names to roles from a fixed configuration.
// Matching is case-insensitive and ignores surrounding whitespace; several
// groups may map to the same role.
type StaticResolver struct {
	byGroup map[string]domainauth.Role
}

// NewStaticResolver builds a resolver from per-role group lists.
func NewStaticResolver(groupsByRole map[domainauth.Role][]string) *StaticResolver {
	byGroup := make(map[string]domainauth.Role)
	for role, groups := range groupsByRole {
		for _, g := range groups {
			key := canonical(g)
			if key == "" {
				continue
			}
			// When two roles claim the same group, the higher
			// privilege wins.
			if existing, ok := byGroup[key]; ok && existing.Rank() >= role.Rank() {
				continue
			}
			byGroup[key] = role
		}
	}
	return &StaticResolver{byGroup: byGroup}
}

// ResolveRole returns the highest-privilege role among the given groups.
// ok is false when no group is recognized.
func (r *StaticResolver) ResolveRole(groups []string) (domainauth.Role, bool) {
	var best domainauth.Role
	found := false
	for _, g := range groups {
		role, ok := r.byGroup[canonical(g)]
		if !ok {
			continue
		}
		if !found || role.Rank() > best.Rank() {
			best = role
			found = true
		}
	}
	return best, found
}

// ResolvePermissions unions the permissions of every recognized group. With
// internalNames set, the inputs are role names instead of IdP group names.
func (r *StaticResolver) ResolvePermissions(groups []string, internalNames bool) domainauth.Permissions {
	var perms domainauth.Permissions
	for _, g := range groups {
		var role domainauth.Role
		if internalNames {
			role = domainauth.Role(canonical(g))
			if role.Rank() == 0 {
				continue
			}
		} else {
			mapped, ok := r.byGroup[canonical(g)]
			if !ok {
				continue
			}
			role = mapped
		}
		perms = perms.Union(RolePermissions(role))
	}
	return perms
}

// RolePermissions returns the capability set granted by a role. Plain users
// get no administrative capabilities.
func RolePermissions(role domainauth.Role) domainauth.Permissions {
	switch role {
	case domainauth.RoleAdmin, domainauth.RoleDeveloper:
		return domainauth.Permissions{CanViewAdmin: true, CanEditAdmin: true}
	default:
		return domainauth.Permissions{}
	}
}

func canonical(group string) string {
	return strings.ToLower(strings.TrimSpace(group))
}
