package config

import (
	"os"
	"strings"
)

// Deployment environment handling. Production-like environments get their
// own config files and refuse ambiguous configuration that a developer
// laptop can tolerate.
const (
	appEnvVar = "APP_ENV"

	EnvironmentDevelopment = "development"
	EnvironmentStaging     = "staging"
	EnvironmentProduction  = "production"
)

// Misspellings seen in deployment manifests normalize to the canonical
// identifiers.
var environmentAliases = map[string]string{
	"prod":        EnvironmentProduction,
	"producation": EnvironmentProduction,
	"stag":        EnvironmentStaging,
	"stagging":    EnvironmentStaging,
}

// AppEnvironment returns the normalized deployment environment read from
// APP_ENV. An unset variable means development.
func AppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(appEnvVar)))
	if env == "" {
		return EnvironmentDevelopment
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return env
}

// IsProductionLike reports whether env carries production expectations.
// Staging mirrors production so configuration mistakes surface there first.
func IsProductionLike(env string) bool {
	return env == EnvironmentProduction || env == EnvironmentStaging
}

// resolveEnvSpecificPath swaps the default config path for the current
// environment's variant when that variant exists on disk. An explicit path
// other than the default always wins.
func resolveEnvSpecificPath(path, defaultPath string, envPaths map[string]string) string {
	if path == "" {
		path = defaultPath
	}
	envPath, ok := envPaths[AppEnvironment()]
	if !ok || envPath == "" {
		return path
	}
	if path != defaultPath && path != envPath {
		return path
	}
	if _, err := os.Stat(envPath); err != nil {
		return path
	}
	return envPath
}
