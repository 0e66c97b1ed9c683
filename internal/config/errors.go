// Package config loads and validates copycat configuration from YAML files
// and environment variables.
package config

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// ErrInvalidConfig indicates a configuration value the pipeline cannot run with.
const ErrInvalidConfig = constError("invalid configuration")
