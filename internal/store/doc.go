// Package store defines interfaces for course and student persistence.
// These interfaces abstract the underlying storage mechanism (PostgreSQL,
// Redis or process memory) from the application's services, so business
// rules stay independent of a specific database technology.
package store
