package config

import (
	"regexp"

	gwerrors "github.com/owings1/auth-proxy/internal/errors"
)

// validateRoutes checks shape and type rules on every route record.
// Regex compilation doubles as validation: an uncompilable path or
// host pattern is a ConfigError. The compiled object is discarded here;
// buildRoutes compiles each pattern again when it builds the Snapshot.
func validateRoutes(routes []Route) error {
	for i, r := range routes {
		if r.Path == "" {
			return gwerrors.Config("routes[%d]: path must not be empty", i)
		}
		if _, err := regexp.Compile(r.Path); err != nil {
			return gwerrors.ConfigWrap(err, "routes[%d]: path %q does not compile", i, r.Path)
		}
		for j, h := range r.Hosts {
			if h == "" {
				return gwerrors.Config("routes[%d]: hosts[%d] must not be empty", i, j)
			}
			if _, err := regexp.Compile(h); err != nil {
				return gwerrors.ConfigWrap(err, "routes[%d]: hosts[%d] %q does not compile", i, j, h)
			}
		}
		if r.Proxy.Target == "" {
			return gwerrors.Config("routes[%d]: proxy.target must not be empty", i)
		}
		if r.Resource == "" {
			return gwerrors.Config("routes[%d]: resource must not be empty", i)
		}
	}
	return nil
}

// validateTokens enforces non-empty fields and global token uniqueness.
func validateTokens(tokens []Token) error {
	seen := make(map[string]bool, len(tokens))
	for i, t := range tokens {
		if t.Token == "" {
			return gwerrors.Config("tokens[%d]: token must not be empty", i)
		}
		if t.User == "" {
			return gwerrors.Config("tokens[%d]: user must not be empty", i)
		}
		if seen[t.Token] {
			return gwerrors.Config("tokens[%d]: duplicate token %q", i, t.Token)
		}
		seen[t.Token] = true
	}
	return nil
}

// validateUsers enforces non-empty names and global name uniqueness.
func validateUsers(users []User) error {
	seen := make(map[string]bool, len(users))
	for i, u := range users {
		if u.Name == "" {
			return gwerrors.Config("users[%d]: name must not be empty", i)
		}
		if seen[u.Name] {
			return gwerrors.Config("users[%d]: duplicate user name %q", i, u.Name)
		}
		seen[u.Name] = true
	}
	return nil
}

// validateRoles enforces non-empty names and global name uniqueness.
// Grants with an unknown resource are still valid — grants are pure
// data; a role being unreferenced by any user is not an error.
func validateRoles(roles []Role) error {
	seen := make(map[string]bool, len(roles))
	for i, r := range roles {
		if r.Name == "" {
			return gwerrors.Config("roles[%d]: name must not be empty", i)
		}
		if seen[r.Name] {
			return gwerrors.Config("roles[%d]: duplicate role name %q", i, r.Name)
		}
		seen[r.Name] = true
		for j, g := range r.Grants {
			if g.Resource == "" {
				return gwerrors.Config("roles[%d].grants[%d]: resource must not be empty", i, j)
			}
		}
	}
	return nil
}
