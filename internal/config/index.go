package config

import (
	"regexp"
	"strings"

	gwerrors "github.com/owings1/auth-proxy/internal/errors"
)

// CompiledRoute is a Route with its path and host patterns precompiled,
// as stored inside a Snapshot and consumed by the route matcher.
type CompiledRoute struct {
	PathRe    *regexp.Regexp
	HostRes   []*regexp.Regexp
	Methods   map[string]bool // nil means any method matches
	Target    string
	Resource  string
	Anonymous bool
}

// Allow is one user's permission for one resource: either every method
// (Wildcard) or an explicit set of methods.
type Allow struct {
	Wildcard bool
	Methods  map[string]bool
}

// buildRoutes compiles every route's path and host regexes once, in
// declared order, so the matcher never recompiles a pattern per request.
func buildRoutes(routes []Route) ([]CompiledRoute, error) {
	out := make([]CompiledRoute, 0, len(routes))
	for i, r := range routes {
		pathRe, err := regexp.Compile(r.Path)
		if err != nil {
			return nil, gwerrors.ConfigWrap(err, "routes[%d]: path %q does not compile", i, r.Path)
		}

		var hostRes []*regexp.Regexp
		for j, h := range r.Hosts {
			hostRe, err := regexp.Compile(h)
			if err != nil {
				return nil, gwerrors.ConfigWrap(err, "routes[%d]: hosts[%d] %q does not compile", i, j, h)
			}
			hostRes = append(hostRes, hostRe)
		}

		var methods map[string]bool
		if len(r.Methods) > 0 {
			methods = make(map[string]bool, len(r.Methods))
			for _, m := range r.Methods {
				methods[strings.ToUpper(m)] = true
			}
		}

		out = append(out, CompiledRoute{
			PathRe:    pathRe,
			HostRes:   hostRes,
			Methods:   methods,
			Target:    r.Proxy.Target,
			Resource:  r.Resource,
			Anonymous: r.Anonymous,
		})
	}
	return out, nil
}

// buildTokenIndex maps each token string to its owning user name.
// Uniqueness was already enforced by validateTokens; this is a pure fold.
func buildTokenIndex(tokens []Token) map[string]string {
	idx := make(map[string]string, len(tokens))
	for _, t := range tokens {
		idx[t.Token] = t.User
	}
	return idx
}

// buildUserIndex maps each user name to its record.
func buildUserIndex(users []User) map[string]User {
	idx := make(map[string]User, len(users))
	for _, u := range users {
		idx[u.Name] = u
	}
	return idx
}

// buildRoleIndex maps each role name to its record.
func buildRoleIndex(roles []Role) map[string]Role {
	idx := make(map[string]Role, len(roles))
	for _, r := range roles {
		idx[r.Name] = r
	}
	return idx
}

// buildGrantIndex folds each non-admin user's roles into a per-resource
// Allow value. Roles referencing an unknown role name are silently
// ignored. Duplicate grants for the same (resource, method) within or
// across roles are idempotent — set semantics, not a count.
func buildGrantIndex(users []User, roleIndex map[string]Role) map[string]map[string]Allow {
	grantIndex := make(map[string]map[string]Allow)

	for _, u := range users {
		if u.Admin {
			continue
		}
		resources := make(map[string]Allow)
		for _, roleName := range u.Roles {
			role, ok := roleIndex[roleName]
			if !ok {
				continue // unknown role contributes no grants
			}
			for _, g := range role.Grants {
				allow, exists := resources[g.Resource]
				if !exists {
					allow = Allow{Methods: make(map[string]bool)}
				}
				if len(g.Methods) == 0 {
					allow.Wildcard = true
				} else {
					for _, m := range g.Methods {
						allow.Methods[strings.ToUpper(m)] = true
					}
				}
				resources[g.Resource] = allow
			}
		}
		if len(resources) > 0 {
			grantIndex[u.Name] = resources
		}
	}

	return grantIndex
}
