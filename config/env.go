package config

import (
	"os"
	"strings"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment. CI=true wins over ENV;
// anything unrecognised is treated as development.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch env := Environment(strings.ToLower(os.Getenv("ENV"))); env {
	case Production, Test, Development:
		return env
	default:
		return Development
	}
}

// IsProduction reports whether secrets are mandatory and cookies must be Secure.
func (e Environment) IsProduction() bool {
	return e == Production
}

// GinMode maps the environment onto gin's run modes.
func (e Environment) GinMode() string {
	switch e {
	case Production:
		return "release"
	case Test, CI:
		return "test"
	default:
		return "debug"
	}
}
