package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, dir string) Settings {
	t.Helper()

	routes := `routes:
  - path: "^/api/.*$"
    methods: ["GET"]
    proxy:
      target: "http://upstream:8080"
    resource: "api"
`
	users := `users:
  - name: alice
    roles: ["reader"]
`
	roles := `roles:
  - name: reader
    grants:
      - resource: api
        methods: ["GET"]
`
	tokens := `tokens:
  - token: alice-token
    user: alice
`
	files := map[string]string{
		"routes.yaml": routes,
		"users.yaml":  users,
		"roles.yaml":  roles,
		"tokens.yaml": tokens,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	return Settings{
		ConfigDir:  dir,
		RoutesPath: filepath.Join(dir, "routes.yaml"),
		UsersPath:  filepath.Join(dir, "users.yaml"),
		RolesPath:  filepath.Join(dir, "roles.yaml"),
		TokensPath: filepath.Join(dir, "tokens.yaml"),
	}
}

func TestOpenAll_AllFourFilesOpen(t *testing.T) {
	dir := t.TempDir()
	settings := writeTempConfig(t, dir)

	set, err := openAll(settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer set.closeAll()

	if set.routes == nil || set.users == nil || set.roles == nil || set.tokens == nil {
		t.Fatal("expected all four handles to be populated")
	}
}

func TestOpenAll_MissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	settings := writeTempConfig(t, dir)
	settings.TokensPath = filepath.Join(dir, "does-not-exist.yaml")

	_, err := openAll(settings)
	if err == nil {
		t.Fatal("expected an error when a config file is missing")
	}
}

func TestParseAll_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	settings := writeTempConfig(t, dir)

	set, err := openAll(settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer set.closeAll()

	raw, err := parseAll(set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(raw.routes) != 1 || raw.routes[0].Resource != "api" {
		t.Fatalf("unexpected routes: %+v", raw.routes)
	}
	if len(raw.users) != 1 || raw.users[0].Name != "alice" {
		t.Fatalf("unexpected users: %+v", raw.users)
	}
	if len(raw.roles) != 1 || raw.roles[0].Name != "reader" {
		t.Fatalf("unexpected roles: %+v", raw.roles)
	}
	if len(raw.tokens) != 1 || raw.tokens[0].Token != "alice-token" {
		t.Fatalf("unexpected tokens: %+v", raw.tokens)
	}
}

func TestParseWrapper_MissingKeyErrors(t *testing.T) {
	_, err := parseWrapper[routesDocument]([]byte("not_routes: []\n"), "routes", "routes.yaml")
	if err == nil {
		t.Fatal("expected error for missing top-level key")
	}
}

func TestParseWrapper_EmptySequenceIsValid(t *testing.T) {
	doc, err := parseWrapper[tokensDocument]([]byte("tokens:\n"), "tokens", "tokens.yaml")
	if err != nil {
		t.Fatalf("expected an empty wrapper to be a valid empty sequence, got: %v", err)
	}
	if len(doc.Tokens) != 0 {
		t.Fatalf("expected zero tokens, got %d", len(doc.Tokens))
	}
}

func TestParseWrapper_NonSequenceErrors(t *testing.T) {
	_, err := parseWrapper[tokensDocument]([]byte("tokens: \"oops\"\n"), "tokens", "tokens.yaml")
	if err == nil {
		t.Fatal("expected error when the wrapper key is not a sequence")
	}
}
