package api_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/phrazzld/courses-api/internal/api"
	"github.com/phrazzld/courses-api/internal/testutils"
)

func TestCreateStudent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := testutils.DoJSONRequest(t, env.server, http.MethodPost, "/api/v1/students/",
		map[string]any{"name": "Ada Lovelace", "birth_date": "1815-12-10"})

	var got api.StudentResponse
	testutils.DecodeJSONResponse(t, resp, http.StatusCreated, &got)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Ada Lovelace", got.Name)
	require.NotNil(t, got.BirthDate)
	assert.Equal(t, "1815-12-10", *got.BirthDate)
}

func TestCreateStudent_WithoutBirthDate(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := testutils.DoFormRequest(t, env.server, http.MethodPost, "/api/v1/students",
		url.Values{"name": {"Grace Hopper"}})

	var got api.StudentResponse
	testutils.DecodeJSONResponse(t, resp, http.StatusCreated, &got)
	assert.Equal(t, "Grace Hopper", got.Name)
	assert.Nil(t, got.BirthDate)
}

func TestCreateStudent_Invalid(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	tomorrow := time.Now().UTC().AddDate(0, 0, 2).Format(time.DateOnly)

	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{name: "missing name", body: map[string]any{"birth_date": "2000-01-01"}, message: "Invalid name"},
		{name: "bad date", body: map[string]any{"name": "A", "birth_date": "01/02/2000"}, message: "Invalid birth_date"},
		{name: "future date", body: map[string]any{"name": "A", "birth_date": tomorrow}, message: "Invalid birth_date"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := testutils.DoJSONRequest(t, env.server, http.MethodPost, "/api/v1/students", tc.body)
			testutils.AssertErrorResponse(t, resp, http.StatusBadRequest, tc.message)
		})
	}
}

func TestListStudents_FilterByName(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.factory.Students(t, 5)
	twins := env.factory.Students(t, 2, testutils.WithStudentName("Castor Pollux"))

	resp := testutils.DoJSONRequest(t, env.server, http.MethodGet,
		"/api/v1/students?name="+url.QueryEscape("Castor Pollux"), nil)

	var got []api.StudentResponse
	testutils.DecodeJSONResponse(t, resp, http.StatusOK, &got)
	require.Len(t, got, 2)
	assert.Equal(t, twins[0].ID, got[0].ID)
	assert.Equal(t, twins[1].ID, got[1].ID)
}

func TestGetStudent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	student := env.factory.Student(t)

	resp := testutils.DoJSONRequest(t, env.server, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/", student.ID), nil)

	var got api.StudentResponse
	testutils.DecodeJSONResponse(t, resp, http.StatusOK, &got)
	assert.Equal(t, student.Name, got.Name)
	require.NotNil(t, got.BirthDate)
	assert.Equal(t, student.BirthDate.Format(time.DateOnly), *got.BirthDate)

	resp = testutils.DoJSONRequest(t, env.server, http.MethodGet, "/api/v1/students/999", nil)
	testutils.AssertErrorResponse(t, resp, http.StatusNotFound, "Student not found")
}

func TestPatchStudent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	student := env.factory.Student(t)
	path := fmt.Sprintf("/api/v1/students/%d", student.ID)

	t.Run("name only keeps birth date", func(t *testing.T) {
		resp := testutils.DoJSONRequest(t, env.server, http.MethodPatch, path, map[string]any{"name": "Renamed"})

		var got api.StudentResponse
		testutils.DecodeJSONResponse(t, resp, http.StatusOK, &got)
		assert.Equal(t, "Renamed", got.Name)
		assert.NotNil(t, got.BirthDate)
	})

	t.Run("null birth date clears it", func(t *testing.T) {
		resp := testutils.DoJSONRequest(t, env.server, http.MethodPatch, path, map[string]any{"birth_date": nil})

		var got api.StudentResponse
		testutils.DecodeJSONResponse(t, resp, http.StatusOK, &got)
		assert.Equal(t, "Renamed", got.Name)
		assert.Nil(t, got.BirthDate)
	})

	t.Run("put requires name", func(t *testing.T) {
		resp := testutils.DoJSONRequest(t, env.server, http.MethodPut, path, map[string]any{"birth_date": "1999-09-09"})
		testutils.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid name")
	})
}

func TestDeleteStudent_DetachesFromCourses(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ids := testutils.IDs(env.factory.Students(t, 2))
	course := env.factory.Course(t, testutils.WithCourseStudents(ids...))

	resp := testutils.DoJSONRequest(t, env.server, http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", ids[0]), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = testutils.DoJSONRequest(t, env.server, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d", course.ID), nil)

	var got api.CourseResponse
	testutils.DecodeJSONResponse(t, resp, http.StatusOK, &got)
	assert.Equal(t, []int64{ids[1]}, got.Students)

	resp = testutils.DoJSONRequest(t, env.server, http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", ids[0]), nil)
	testutils.AssertErrorResponse(t, resp, http.StatusNotFound, "Student not found")
}

// workbook builds an xlsx file with a header row followed by rows.
func workbook(t *testing.T, rows ...[]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	all := append([][]string{{"name", "birth_date"}}, rows...)
	for i, row := range all {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStr(sheet, cell, value))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func importRequest(t *testing.T, env *testEnv, file *bytes.Buffer, fields map[string]string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		part, err := mw.CreateFormFile("file", "students.xlsx")
		require.NoError(t, err)
		_, err = part.Write(file.Bytes())
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/students/import/", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutils.DoRequest(t, env.server, req)
}

func TestImportStudents(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	file := workbook(t,
		[]string{"Alan Turing", "1912-06-23"},
		[]string{"Barbara Liskov"},
		[]string{"", ""},
		[]string{"Broken Date", "23.06.1912"},
	)

	var got api.ImportResponse
	testutils.DecodeJSONResponse(t, importRequest(t, env, file, nil), http.StatusCreated, &got)
	assert.Equal(t, 2, got.Imported)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, []int64{1, 2}, got.Students)

	stored, err := env.store.Students().GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Barbara Liskov", stored.Name)
	assert.Nil(t, stored.BirthDate)
}

func TestImportStudents_IntoCourse(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	existing := env.factory.Student(t)
	course := env.factory.Course(t, testutils.WithCourseStudents(existing.ID))

	file := workbook(t, []string{"Edsger Dijkstra", "1930-05-11"})

	var got api.ImportResponse
	testutils.DecodeJSONResponse(t,
		importRequest(t, env, file, map[string]string{"course": fmt.Sprint(course.ID)}),
		http.StatusCreated, &got)
	require.Len(t, got.Students, 1)

	stored, err := env.store.Courses().GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{existing.ID, got.Students[0]}, stored.StudentIDs)
}

func TestImportStudents_Errors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	course := env.factory.Course(t)

	t.Run("missing file", func(t *testing.T) {
		resp := importRequest(t, env, nil, map[string]string{"course": "1"})
		testutils.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid file")
	})

	t.Run("not a workbook", func(t *testing.T) {
		resp := importRequest(t, env, bytes.NewBufferString("name,birth_date\nAda,1815-12-10\n"), nil)
		testutils.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid file")
	})

	t.Run("unknown course", func(t *testing.T) {
		resp := importRequest(t, env, workbook(t, []string{"Ada"}), map[string]string{"course": "999"})
		testutils.AssertErrorResponse(t, resp, http.StatusNotFound, "Course not found")
	})

	t.Run("bad course id", func(t *testing.T) {
		resp := importRequest(t, env, workbook(t, []string{"Ada"}), map[string]string{"course": "abc"})
		testutils.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid course")
	})

	t.Run("enrollment limit", func(t *testing.T) {
		rows := make([][]string, 0, testMaxStudents+1)
		for i := range testMaxStudents + 1 {
			rows = append(rows, []string{fmt.Sprintf("Student %d", i)})
		}
		resp := importRequest(t, env, workbook(t, rows...), map[string]string{"course": fmt.Sprint(course.ID)})
		testutils.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid course")
	})

	count, err := env.store.Students().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "failed imports must not create students")
}
