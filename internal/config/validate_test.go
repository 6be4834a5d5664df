package config

import "testing"

func TestValidateRoutes_EmptyPath(t *testing.T) {
	err := validateRoutes([]Route{{Path: "", Proxy: ProxyTarget{Target: "http://up"}, Resource: "r"}})
	if err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestValidateRoutes_BadRegex(t *testing.T) {
	err := validateRoutes([]Route{{Path: "(", Proxy: ProxyTarget{Target: "http://up"}, Resource: "r"}})
	if err == nil {
		t.Fatal("expected error for uncompilable path regex")
	}
}

func TestValidateRoutes_BadHostRegex(t *testing.T) {
	routes := []Route{{
		Path:     "/x",
		Hosts:    []string{"("},
		Proxy:    ProxyTarget{Target: "http://up"},
		Resource: "r",
	}}
	if err := validateRoutes(routes); err == nil {
		t.Fatal("expected error for uncompilable host regex")
	}
}

func TestValidateRoutes_MissingTarget(t *testing.T) {
	err := validateRoutes([]Route{{Path: "/x", Resource: "r"}})
	if err == nil {
		t.Fatal("expected error for missing proxy target")
	}
}

func TestValidateRoutes_MissingResource(t *testing.T) {
	err := validateRoutes([]Route{{Path: "/x", Proxy: ProxyTarget{Target: "http://up"}}})
	if err == nil {
		t.Fatal("expected error for missing resource")
	}
}

func TestValidateRoutes_Valid(t *testing.T) {
	routes := []Route{{
		Path:     "^/api/.*$",
		Hosts:    []string{"^example\\.com$"},
		Methods:  []string{"GET"},
		Proxy:    ProxyTarget{Target: "http://upstream:8080"},
		Resource: "api",
	}}
	if err := validateRoutes(routes); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateTokens_DuplicateDetected(t *testing.T) {
	tokens := []Token{
		{Token: "abc", User: "alice"},
		{Token: "abc", User: "bob"},
	}
	if err := validateTokens(tokens); err == nil {
		t.Fatal("expected error for duplicate token")
	}
}

func TestValidateTokens_EmptyFields(t *testing.T) {
	if err := validateTokens([]Token{{Token: "", User: "alice"}}); err == nil {
		t.Fatal("expected error for empty token")
	}
	if err := validateTokens([]Token{{Token: "abc", User: ""}}); err == nil {
		t.Fatal("expected error for empty user")
	}
}

func TestValidateUsers_DuplicateName(t *testing.T) {
	users := []User{{Name: "alice"}, {Name: "alice"}}
	if err := validateUsers(users); err == nil {
		t.Fatal("expected error for duplicate user name")
	}
}

func TestValidateRoles_DuplicateName(t *testing.T) {
	roles := []Role{{Name: "admin"}, {Name: "admin"}}
	if err := validateRoles(roles); err == nil {
		t.Fatal("expected error for duplicate role name")
	}
}

func TestValidateRoles_UnreferencedRoleIsValid(t *testing.T) {
	roles := []Role{{Name: "orphan", Grants: []Grant{{Resource: "r"}}}}
	if err := validateRoles(roles); err != nil {
		t.Fatalf("unreferenced role must still validate, got: %v", err)
	}
}

func TestValidateRoles_EmptyGrantResource(t *testing.T) {
	roles := []Role{{Name: "r", Grants: []Grant{{Resource: ""}}}}
	if err := validateRoles(roles); err == nil {
		t.Fatal("expected error for empty grant resource")
	}
}
