package config

import (
	"fmt"
	"strings"
)

// Environment represents the deployment environment
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvStaging
	EnvProduction
	EnvTest
)

// ParseEnvironment parses an environment name into an Environment value
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(s) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	default:
		return EnvDevelopment, fmt.Errorf("ENV must be one of: dev, staging, prod, test, got: %s", s)
	}
}

// String returns the canonical name of the environment
func (e Environment) String() string {
	switch e {
	case EnvStaging:
		return "staging"
	case EnvProduction:
		return "prod"
	case EnvTest:
		return "test"
	default:
		return "dev"
	}
}

// IsProduction reports whether the environment is production
func (e Environment) IsProduction() bool {
	return e == EnvProduction
}
