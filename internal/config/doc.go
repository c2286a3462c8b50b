// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config.yaml file and COURSES_-prefixed
// environment variables. It provides type-safe access to the settings
// needed by the server while keeping configuration details separate from
// business logic.
package config
