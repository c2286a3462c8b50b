package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/phrazzld/courses-api/internal/store"
)

// withTx runs fn atomically. On a connection pool it opens its own
// transaction; when the store was built on a caller-owned *sql.Tx (or any
// other DBTX) fn runs directly on it and the caller decides the outcome.
func withTx(ctx context.Context, db store.DBTX, fn func(ctx context.Context, q store.DBTX) error) error {
	pool, ok := db.(*sql.DB)
	if !ok {
		return fn(ctx, db)
	}
	return store.RunInTransaction(ctx, pool, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, tx)
	})
}

// int64Array returns a scanner for a bigint[] column. database/sql cannot scan
// arrays on its own, so the pgx type map decodes the text representation.
func int64Array(dst *[]int64) sql.Scanner {
	return pgtype.NewMap().SQLScanner(dst)
}

// existingStudentIDs returns the subset of ids present in the students table.
func existingStudentIDs(ctx context.Context, q store.DBTX, ids []int64) ([]int64, error) {
	existing := make([]int64, 0, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := q.QueryContext(ctx, `SELECT id FROM students WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing = append(existing, id)
	}
	return existing, rows.Err()
}
