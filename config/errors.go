package config

import "errors"

var (
	// ErrInvalidConfig indicates a setting outside its allowed range.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("config: missing required environment variables")
)
