// Package service contains the application use cases for courses and
// students. It orchestrates domain objects and the repositories defined in
// internal/store: checking that referenced students exist, enforcing the
// enrollment limit and importing students from spreadsheets.
//
// The service layer depends on domain entities and repository interfaces,
// never on a specific storage backend.
package service
