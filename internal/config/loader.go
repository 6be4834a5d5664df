package config

import (
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	gwerrors "github.com/owings1/auth-proxy/internal/errors"
)

// openFile is a config file held open across the read-parse-validate
// span of a single reload attempt, so it can be closed on every exit
// path regardless of how the attempt ends.
type openFile struct {
	path  string
	f     *os.File
	mtime time.Time
}

func openAndStat(path string) (*openFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gwerrors.IO(err, "open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, gwerrors.IO(err, "stat %s", path)
	}
	return &openFile{path: path, f: f, mtime: info.ModTime()}, nil
}

func (o *openFile) read() ([]byte, error) {
	data, err := io.ReadAll(o.f)
	if err != nil {
		return nil, gwerrors.IO(err, "read %s", o.path)
	}
	return data, nil
}

func (o *openFile) Close() error {
	if o == nil || o.f == nil {
		return nil
	}
	return o.f.Close()
}

// openFileSet is the four config file handles for one reload attempt.
type openFileSet struct {
	routes *openFile
	users  *openFile
	roles  *openFile
	tokens *openFile
}

// closeAll closes every handle in the set, ignoring individual close
// errors — nothing meaningful can be done about a close failure here,
// and the reload's success/failure is already decided by this point.
func (s *openFileSet) closeAll() {
	s.routes.Close()
	s.users.Close()
	s.roles.Close()
	s.tokens.Close()
}

// openAll opens and stats all four configuration files. On any failure
// it closes whatever was already opened before returning the error.
func openAll(s Settings) (*openFileSet, error) {
	set := &openFileSet{}

	var err error
	set.routes, err = openAndStat(s.RoutesPath)
	if err != nil {
		set.closeAll()
		return nil, err
	}
	set.users, err = openAndStat(s.UsersPath)
	if err != nil {
		set.closeAll()
		return nil, err
	}
	set.roles, err = openAndStat(s.RolesPath)
	if err != nil {
		set.closeAll()
		return nil, err
	}
	set.tokens, err = openAndStat(s.TokensPath)
	if err != nil {
		set.closeAll()
		return nil, err
	}

	return set, nil
}

// maxMTime returns the latest modification time across all four files.
func (s *openFileSet) maxMTime() time.Time {
	max := s.routes.mtime
	for _, t := range []time.Time{s.users.mtime, s.roles.mtime, s.tokens.mtime} {
		if t.After(max) {
			max = t
		}
	}
	return max
}

// rawDocuments is the parsed-but-unvalidated content of all four files.
type rawDocuments struct {
	routes []Route
	users  []User
	roles  []Role
	tokens []Token
}

// parseAll reads and parses all four open files into raw documents.
// It does not validate record-level rules — that is the validator's job.
func parseAll(set *openFileSet) (*rawDocuments, error) {
	routesData, err := set.routes.read()
	if err != nil {
		return nil, err
	}
	usersData, err := set.users.read()
	if err != nil {
		return nil, err
	}
	rolesData, err := set.roles.read()
	if err != nil {
		return nil, err
	}
	tokensData, err := set.tokens.read()
	if err != nil {
		return nil, err
	}

	routes, err := parseWrapper[routesDocument](routesData, "routes", set.routes.path)
	if err != nil {
		return nil, err
	}
	users, err := parseWrapper[usersDocument](usersData, "users", set.users.path)
	if err != nil {
		return nil, err
	}
	roles, err := parseWrapper[rolesDocument](rolesData, "roles", set.roles.path)
	if err != nil {
		return nil, err
	}
	tokens, err := parseWrapper[tokensDocument](tokensData, "tokens", set.tokens.path)
	if err != nil {
		return nil, err
	}

	return &rawDocuments{
		routes: routes.Routes,
		users:  users.Users,
		roles:  roles.Roles,
		tokens: tokens.Tokens,
	}, nil
}

// parseWrapper validates that the document has the required top-level
// key as an ordered sequence, then unmarshals it into the typed wrapper W.
func parseWrapper[W any](data []byte, key, path string) (W, error) {
	var zero W

	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return zero, gwerrors.ConfigWrap(err, "%s: invalid YAML", path)
	}

	val, ok := generic[key]
	if !ok {
		return zero, gwerrors.Config("%s: missing top-level %q key", path, key)
	}
	if _, isSeq := val.([]any); !isSeq {
		// An empty wrapper ("tokens:" with no value) decodes as nil,
		// which is a valid empty sequence.
		if val != nil {
			return zero, gwerrors.Config("%s: %q must be a sequence", path, key)
		}
	}

	var wrapper W
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return zero, gwerrors.ConfigWrap(err, "%s: invalid %q records", path, key)
	}
	return wrapper, nil
}
