// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package.
// It handles the details of query execution, enrollment bookkeeping in the
// course_students join table, and data mapping between domain entities and
// database records. The schema itself ships with the package as embedded
// goose migrations.
package postgres
