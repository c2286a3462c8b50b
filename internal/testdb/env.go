package testdb

import "github.com/phrazzld/courses-api/internal/ciutil"

// GetTestDatabaseURL returns the database URL for integration tests from
// DATABASE_URL or COURSES_TEST_DB_URL, or "" when neither is set.
// In CI the URL is normalized to the standard service credentials.
func GetTestDatabaseURL() string {
	return ciutil.TestDatabaseURL(nil)
}

// IsIntegrationTestEnvironment returns true if a database URL is configured,
// indicating that integration tests can be run.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}
