package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envExpr matches ${VAR} and ${VAR:-default} expressions.
var envExpr = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads the YAML configuration file at path, expands environment
// variable references, and parses the result. Validation is separate;
// call Validate on the returned config before using it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// expandEnv substitutes ${VAR} and ${VAR:-default} references in raw
// YAML bytes. Variables with neither an environment value nor a default
// are collected into a single joined error naming each one.
func expandEnv(raw []byte) ([]byte, error) {
	var errs []error

	expanded := envExpr.ReplaceAllFunc(raw, func(match []byte) []byte {
		parts := envExpr.FindSubmatch(match)
		name := string(parts[1])

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if parts[2] != nil {
			return parts[2]
		}

		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})

	return expanded, errors.Join(errs...)
}
