package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Settings holds the environment-derived, startup-fixed configuration:
// where the four content documents live, which ports to listen on, how
// often to poll for changes, and which headers carry bearer tokens.
// This is distinct from the hot-reloaded routes/users/roles/tokens
// content itself.
type Settings struct {
	ConfigDir        string
	TokensPath       string
	UsersPath        string
	RoutesPath       string
	RolesPath        string
	HTTPPort         int
	MetricsPort      int
	ReloadIntervalMs int
	AuthHeaders      []string
}

// SettingsFromEnv reads Settings from the process environment, applying
// the defaults documented in spec §6.
func SettingsFromEnv() Settings {
	configDir := getenv("CONFIG_DIR", "local/config")

	s := Settings{
		ConfigDir:        configDir,
		TokensPath:       filepath.Join(configDir, getenv("TOKENS_FILE", "tokens.yaml")),
		UsersPath:        filepath.Join(configDir, getenv("USERS_FILE", "users.yaml")),
		RoutesPath:       filepath.Join(configDir, getenv("ROUTES_FILE", "routes.yaml")),
		RolesPath:        filepath.Join(configDir, getenv("ROLES_FILE", "roles.yaml")),
		HTTPPort:         getenvInt("HTTP_PORT", 8080),
		MetricsPort:      getenvInt("METRICS_PORT", 8181),
		ReloadIntervalMs: getenvInt("RELOAD_INTERVAL_MS", 15000),
		AuthHeaders:      parseAuthHeaders(getenv("AUTH_HEADERS", "x-authorization")),
	}

	// A non-zero interval is floored at 1000ms; 0 disables polling.
	if s.ReloadIntervalMs != 0 && s.ReloadIntervalMs < 1000 {
		s.ReloadIntervalMs = 1000
	}

	return s
}

func parseAuthHeaders(raw string) []string {
	parts := strings.Split(raw, ",")
	headers := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			headers = append(headers, p)
		}
	}
	return headers
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
