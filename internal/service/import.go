package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/phrazzld/courses-api/internal/domain"
)

// ImportInput describes a spreadsheet upload.
type ImportInput struct {
	// File is an xlsx workbook. The first sheet is read; its first row is a
	// header, column A holds the name and column B an optional YYYY-MM-DD date.
	File io.Reader
	// CourseID, when set, enrolls every imported student in that course.
	CourseID *int64
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Imported   int     `json:"imported"`
	Skipped    int     `json:"skipped"`
	StudentIDs []int64 `json:"students"`
}

// Import implements StudentService.
// Invalid rows are skipped. If the target course would exceed the enrollment
// limit, nothing is created.
func (s *studentServiceImpl) Import(ctx context.Context, in ImportInput) (*ImportResult, error) {
	log := s.log(ctx)

	parsed, skipped, err := readStudentRows(in.File)
	if err != nil {
		log.Warn("failed to read spreadsheet", slog.String("error", err.Error()))
		return nil, err
	}

	var course *domain.Course
	if in.CourseID != nil {
		course, err = s.courses.GetByID(ctx, *in.CourseID)
		if err != nil {
			return nil, newServiceError("student", "import", "failed to load course", err)
		}
		total := len(course.StudentIDs) + len(parsed)
		if s.maxStudents > 0 && total > s.maxStudents {
			return nil, domain.NewValidationError(
				"course",
				fmt.Sprintf("import would enroll %d students, limit is %d", total, s.maxStudents),
				domain.ErrTooManyStudents,
			)
		}
	}

	result := &ImportResult{Skipped: skipped, StudentIDs: make([]int64, 0, len(parsed))}
	for _, student := range parsed {
		if err := s.students.Create(ctx, student); err != nil {
			return nil, newServiceError("student", "import", "failed to save student", err)
		}
		result.StudentIDs = append(result.StudentIDs, student.ID)
	}
	result.Imported = len(result.StudentIDs)

	if course != nil && len(result.StudentIDs) > 0 {
		ids := slices.Concat(course.StudentIDs, result.StudentIDs)
		if err := course.SetStudents(ids, s.maxStudents); err != nil {
			return nil, err
		}
		if err := s.courses.Update(ctx, course); err != nil {
			return nil, newServiceError("student", "import", "failed to enroll imported students", err)
		}
	}

	log.Info("students imported",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// readStudentRows parses the first sheet of an xlsx workbook into unsaved
// students, counting rows that could not be used.
func readStudentRows(r io.Reader) ([]*domain.Student, int, error) {
	if r == nil {
		return nil, 0, domain.NewValidationError("file", "is required", ErrInvalidSpreadsheet)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, domain.NewValidationError("file", "is not a valid xlsx workbook", ErrInvalidSpreadsheet)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, 0, domain.NewValidationError("file", "contains no sheets", ErrInvalidSpreadsheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, domain.NewValidationError("file", "could not be read", ErrInvalidSpreadsheet)
	}

	var (
		students []*domain.Student
		skipped  int
	)
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if isBlankRow(row) {
			continue
		}

		var name, date string
		name = row[0]
		if len(row) > 1 {
			date = row[1]
		}

		birthDate, err := domain.ParseDate(date)
		if err != nil {
			skipped++
			continue
		}
		student, err := domain.NewStudent(name, birthDate)
		if err != nil {
			skipped++
			continue
		}
		students = append(students, student)
	}

	return students, skipped, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
