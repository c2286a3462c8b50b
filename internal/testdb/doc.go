// Package testdb provides utilities for PostgreSQL integration tests.
//
// Tests obtain a connection with GetTestDBWithT, which skips the test when no
// database URL is configured, apply the embedded schema once with
// SetupTestDatabaseSchema and then isolate themselves with WithTx: every test
// runs inside its own transaction that is rolled back when it finishes, so
// tests can run in parallel without seeing each other's rows.
//
//	db := testdb.GetTestDBWithT(t)
//	testdb.SetupTestDatabaseSchema(t, db)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//		courses := postgres.NewPostgresCourseStore(tx, nil)
//		// ...
//	})
//
// Note that sequences are not transactional: IDs keep increasing across
// rolled-back tests.
package testdb
