// Package domain contains the core business entities of the courses API:
// courses, students and the enrollment relation between them. It holds the
// validation rules for those entities and is independent of any storage or
// delivery mechanism.
package domain
