package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = time.DateOnly

// Common validation errors for Student
var (
	ErrEmptyStudentName   = errors.New("student name cannot be empty")
	ErrStudentNameTooLong = errors.New("student name is too long")
	ErrBirthDateInFuture  = errors.New("birth date cannot be in the future")
)

// Student is a person that can be enrolled in courses.
type Student struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birth_date"`
}

// NewStudent creates a new, not yet persisted Student.
func NewStudent(name string, birthDate *time.Time) (*Student, error) {
	student := &Student{
		Name:      strings.TrimSpace(name),
		BirthDate: truncateDate(birthDate),
	}

	if err := student.Validate(); err != nil {
		return nil, err
	}

	return student, nil
}

// Validate checks if the Student has valid data.
func (s *Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError("name", "is required", ErrEmptyStudentName)
	}
	if utf8.RuneCountInString(s.Name) > MaxNameLength {
		return NewValidationError("name", "is too long", ErrStudentNameTooLong)
	}
	if s.BirthDate != nil && s.BirthDate.After(time.Now().UTC()) {
		return NewValidationError("birth_date", "is in the future", ErrBirthDateInFuture)
	}
	return nil
}

// Rename changes the student name.
func (s *Student) Rename(name string) error {
	prev := s.Name
	s.Name = strings.TrimSpace(name)
	if err := s.Validate(); err != nil {
		s.Name = prev
		return err
	}
	return nil
}

// SetBirthDate replaces the birth date. A nil date clears it.
func (s *Student) SetBirthDate(birthDate *time.Time) error {
	prev := s.BirthDate
	s.BirthDate = truncateDate(birthDate)
	if err := s.Validate(); err != nil {
		s.BirthDate = prev
		return err
	}
	return nil
}

// Clone returns a deep copy of the student.
func (s *Student) Clone() *Student {
	clone := *s
	clone.BirthDate = truncateDate(s.BirthDate)
	return &clone
}

// ParseDate parses a YYYY-MM-DD date. An empty string yields nil.
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, NewValidationError("birth_date", "must be formatted as YYYY-MM-DD", ErrInvalidDate)
	}
	return &t, nil
}

// FormatDate renders a date as YYYY-MM-DD, or nil for a missing date.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// truncateDate drops the time-of-day part and normalizes to UTC.
func truncateDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
