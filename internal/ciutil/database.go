package ciutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Standard Postgres service settings in CI.
const (
	StandardCIUser     = "postgres"
	StandardCIPassword = "postgres"
	StandardCIPort     = "5432"
	StandardCIDatabase = "courses_test"
	StandardCIOptions  = "sslmode=disable"
)

// TestDatabaseURL returns the Postgres URL for integration tests, checking
// DATABASE_URL and then COURSES_TEST_DB_URL. In CI the credentials are
// rewritten to the standard service credentials. Returns "" when unset.
func TestDatabaseURL(logger *slog.Logger) string {
	dbURL := GetEnvWithFallbacks([]string{EnvDatabaseURL, EnvTestDBURL}, "", logger)
	if dbURL == "" || !IsCI() {
		return dbURL
	}

	standardized, err := StandardizeDatabaseURL(dbURL)
	if err != nil {
		if logger != nil {
			logger.Warn("Failed to standardize database URL, using it as-is",
				"error", err,
				"url", MaskSensitiveValue(dbURL))
		}
		return dbURL
	}
	return standardized
}

// TestRedisURL returns the redis URL for integration tests, or "" when unset.
func TestRedisURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvTestRedisURL, EnvRedisURLShort}, "", logger)
}

// StandardizeDatabaseURL replaces the credentials of a postgres URL with the
// standard CI ones and fills in a missing local port, database name and
// options. Non-postgres URLs are returned unchanged.
func StandardizeDatabaseURL(dbURL string) (string, error) {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return dbURL, nil
	}

	parsed.User = url.UserPassword(StandardCIUser, StandardCIPassword)

	host := parsed.Hostname()
	if (host == "" || host == "localhost" || host == "127.0.0.1") && parsed.Port() == "" {
		if host == "" {
			host = "localhost"
		}
		parsed.Host = host + ":" + StandardCIPort
	}
	if strings.TrimPrefix(parsed.Path, "/") == "" {
		parsed.Path = "/" + StandardCIDatabase
	}
	if parsed.RawQuery == "" {
		parsed.RawQuery = StandardCIOptions
	}

	return parsed.String(), nil
}

// MaskSensitiveValue masks the password of connection URLs so they can be
// logged. Other values are returned unchanged.
func MaskSensitiveValue(value string) string {
	parsed, err := url.Parse(value)
	if err != nil || parsed.User == nil {
		return value
	}
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return value
	}
	parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
	return parsed.String()
}
