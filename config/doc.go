// Package config loads surcharge settings from a YAML file, SURCHARGE_*
// environment variables and built-in defaults, in increasing order of
// precedence: defaults, then the file, then the environment.
//
// Keys are dotted paths such as cache.dir; the matching environment variable
// upper-cases the path and replaces dots with underscores (SURCHARGE_CACHE_DIR).
// The cache directory may reference environment variables as ${VAR}; a
// reference to an unset variable is an error rather than an empty string.
package config
