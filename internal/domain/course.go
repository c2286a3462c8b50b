package domain

import (
	"errors"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest name accepted for courses and students.
const MaxNameLength = 256

// Common validation errors for Course
var (
	ErrEmptyCourseName   = errors.New("course name cannot be empty")
	ErrCourseNameTooLong = errors.New("course name is too long")
	ErrInvalidStudentID  = errors.New("student ID must be positive")
	ErrTooManyStudents   = errors.New("too many students for course")
)

// Course is a named course that students can be enrolled in.
// StudentIDs is kept sorted and free of duplicates.
type Course struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	StudentIDs []int64 `json:"students"`
}

// NewCourse creates a new, not yet persisted Course.
// The ID is assigned by the store on creation.
func NewCourse(name string, studentIDs []int64) (*Course, error) {
	course := &Course{
		Name:       strings.TrimSpace(name),
		StudentIDs: NormalizeIDs(studentIDs),
	}

	if err := course.Validate(); err != nil {
		return nil, err
	}

	return course, nil
}

// Validate checks if the Course has valid data.
func (c *Course) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "is required", ErrEmptyCourseName)
	}
	if utf8.RuneCountInString(c.Name) > MaxNameLength {
		return NewValidationError("name", "is too long", ErrCourseNameTooLong)
	}
	for _, id := range c.StudentIDs {
		if id <= 0 {
			return NewValidationError("students", "contains an invalid ID", ErrInvalidStudentID)
		}
	}
	return nil
}

// Rename changes the course name.
func (c *Course) Rename(name string) error {
	name = strings.TrimSpace(name)
	prev := c.Name
	c.Name = name
	if err := c.Validate(); err != nil {
		c.Name = prev
		return err
	}
	return nil
}

// SetStudents replaces the set of enrolled students.
// maxStudents <= 0 disables the enrollment limit.
func (c *Course) SetStudents(studentIDs []int64, maxStudents int) error {
	ids := NormalizeIDs(studentIDs)
	if maxStudents > 0 && len(ids) > maxStudents {
		return NewValidationError("students", "exceeds the enrollment limit", ErrTooManyStudents)
	}

	prev := c.StudentIDs
	c.StudentIDs = ids
	if err := c.Validate(); err != nil {
		c.StudentIDs = prev
		return err
	}
	return nil
}

// HasStudent reports whether the student is enrolled.
func (c *Course) HasStudent(studentID int64) bool {
	_, found := slices.BinarySearch(c.StudentIDs, studentID)
	return found
}

// Clone returns a deep copy of the course.
func (c *Course) Clone() *Course {
	clone := *c
	clone.StudentIDs = slices.Clone(c.StudentIDs)
	if clone.StudentIDs == nil {
		clone.StudentIDs = []int64{}
	}
	return &clone
}

// NormalizeIDs returns ids sorted ascending with duplicates removed.
// It never returns nil.
func NormalizeIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []int64{}
	}
	return out
}
