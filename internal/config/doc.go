// Package config loads the runtime settings of the conductor tool itself from
// multiple sources (environment variables, a YAML file, CLI flags) with
// precedence: CLI flags > YAML config > Environment variables > Defaults.
// The test session configuration is resolved by package conductor.
package config
