package config

import (
	"strings"
	"time"
)

// Snapshot is an immutable, fully-indexed view of the four content
// documents as of one successful reload. A Snapshot is never mutated
// after construction; a reload builds a new one and publishes it.
type Snapshot struct {
	routes     []CompiledRoute
	tokenIndex map[string]string
	userIndex  map[string]User
	roleIndex  map[string]Role
	grantIndex map[string]map[string]Allow
	sourceTime time.Time
}

// buildSnapshot validates the raw documents and folds them into a
// Snapshot's derived indices. It returns an error on the first
// validation failure; no partial Snapshot is ever returned.
func buildSnapshot(raw *rawDocuments, sourceTime time.Time) (*Snapshot, error) {
	if err := validateRoutes(raw.routes); err != nil {
		return nil, err
	}
	if err := validateTokens(raw.tokens); err != nil {
		return nil, err
	}
	if err := validateUsers(raw.users); err != nil {
		return nil, err
	}
	if err := validateRoles(raw.roles); err != nil {
		return nil, err
	}

	routes, err := buildRoutes(raw.routes)
	if err != nil {
		return nil, err
	}

	roleIndex := buildRoleIndex(raw.roles)

	return &Snapshot{
		routes:     routes,
		tokenIndex: buildTokenIndex(raw.tokens),
		userIndex:  buildUserIndex(raw.users),
		roleIndex:  roleIndex,
		grantIndex: buildGrantIndex(raw.users, roleIndex),
		sourceTime: sourceTime,
	}, nil
}

// Routes returns the compiled routes in declared order.
func (s *Snapshot) Routes() []CompiledRoute {
	return s.routes
}

// UserByToken resolves an opaque bearer token to its owning user name.
// Lookup is exact string equality; no cryptographic verification is
// performed, per the opaque-token model this snapshot implements.
func (s *Snapshot) UserByToken(token string) (string, bool) {
	name, ok := s.tokenIndex[token]
	return name, ok
}

// User returns the named user's record.
func (s *Snapshot) User(name string) (User, bool) {
	u, ok := s.userIndex[name]
	return u, ok
}

// Allow reports whether user is permitted to invoke method on resource.
// Admins bypass the grant index entirely. Absence of the user, or of a
// grant for the given resource, denies. A grant's Wildcard flag allows
// every method; otherwise the method must appear in its Methods set.
func (s *Snapshot) Allow(user, resource, method string) bool {
	if u, ok := s.userIndex[user]; ok && u.Admin {
		return true
	}

	resources, ok := s.grantIndex[user]
	if !ok {
		return false
	}
	allow, ok := resources[resource]
	if !ok {
		return false
	}
	if allow.Wildcard {
		return true
	}
	return allow.Methods[strings.ToUpper(method)]
}

// SourceMTime returns the latest modification time, across all four
// source files, that produced this Snapshot. The reloader compares this
// against a fresh stat to decide whether a reload is needed at all.
func (s *Snapshot) SourceMTime() time.Time {
	return s.sourceTime
}
