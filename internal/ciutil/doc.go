// Package ciutil detects CI environments and resolves the connection URLs
// that integration tests use for their backing services.
//
// Tests never hard-code a database or redis location: they ask this package,
// which reads the environment and, in CI, normalizes the Postgres URL to the
// standard service-container credentials.
package ciutil
