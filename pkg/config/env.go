package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// DiscoveryOrder lists the file names DiscoverConfig looks for.
var DiscoveryOrder = []string{
	"soapmap.yaml",
	"soapmap.yml",
	"soapmap.json",
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax. Request context
// placeholders ({{name}}) are left alone.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultVal := ""
		if len(submatch) >= 3 {
			defaultVal = submatch[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}

// DiscoverConfig finds a config file via SOAPMAP_CONFIG or in the current
// directory.
func DiscoverConfig() (string, error) {
	if envPath := os.Getenv("SOAPMAP_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: SOAPMAP_CONFIG points to %s", ErrFileNotFound, envPath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	for _, name := range DiscoveryOrder {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no soapmap.yaml in %s, specify --config", ErrFileNotFound, cwd)
}
