//go:build integration

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/courses-api/internal/testdb"
)

func TestMigrate_Integration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	require.NoError(t, migrate(ctx, db, "up", testLogger()))
	// up is idempotent
	require.NoError(t, migrate(ctx, db, "up", testLogger()))
	require.NoError(t, migrate(ctx, db, "status", testLogger()))
	require.NoError(t, migrate(ctx, db, "version", testLogger()))

	var tables int
	err := db.QueryRowContext(ctx, `
		SELECT count(*) FROM information_schema.tables
		WHERE table_name IN ('courses', 'students', 'course_students')`).Scan(&tables)
	require.NoError(t, err)
	require.Equal(t, 3, tables)
}
