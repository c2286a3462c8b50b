package api

import (
	"bytes"
	"encoding/json"

	"github.com/phrazzld/courses-api/internal/domain"
)

// CourseRequest is the body of course create and update requests.
// Nil fields were not supplied.
type CourseRequest struct {
	Name     *string  `json:"name"     validate:"omitnil,max=256"`
	Students *[]int64 `json:"students" validate:"omitnil"`
}

// StudentRequest is the body of student create and update requests.
type StudentRequest struct {
	Name      *string        `json:"name"       validate:"omitnil,max=256"`
	BirthDate OptionalString `json:"birth_date"`
}

// OptionalString distinguishes an absent JSON field from an explicit null.
type OptionalString struct {
	// Set is true when the field was present in the request.
	Set bool
	// Value is nil for an explicit null.
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// String returns the value, or "" for null and absent fields.
func (o OptionalString) String() string {
	if o.Value == nil {
		return ""
	}
	return *o.Value
}

// CourseResponse is the JSON representation of a course.
type CourseResponse struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Students []int64 `json:"students"`
}

// StudentResponse is the JSON representation of a student.
type StudentResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	BirthDate *string `json:"birth_date"`
}

// ImportResponse reports the outcome of a spreadsheet import.
type ImportResponse struct {
	Imported int     `json:"imported"`
	Skipped  int     `json:"skipped"`
	Students []int64 `json:"students"`
}

func courseToResponse(c *domain.Course) CourseResponse {
	students := c.StudentIDs
	if students == nil {
		students = []int64{}
	}
	return CourseResponse{ID: c.ID, Name: c.Name, Students: students}
}

func coursesToResponse(courses []*domain.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, courseToResponse(c))
	}
	return out
}

func studentToResponse(s *domain.Student) StudentResponse {
	return StudentResponse{ID: s.ID, Name: s.Name, BirthDate: domain.FormatDate(s.BirthDate)}
}

func studentsToResponse(students []*domain.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, studentToResponse(s))
	}
	return out
}
