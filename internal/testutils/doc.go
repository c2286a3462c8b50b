// Package testutils provides shared helpers for tests: a fixture factory that
// persists randomized courses and students directly through the store
// interfaces, and small HTTP helpers for exercising the API.
package testutils
