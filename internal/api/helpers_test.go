package api_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/courses-api/internal/api"
	"github.com/phrazzld/courses-api/internal/api/middleware"
	"github.com/phrazzld/courses-api/internal/api/shared"
	"github.com/phrazzld/courses-api/internal/platform/memory"
	"github.com/phrazzld/courses-api/internal/service"
	"github.com/phrazzld/courses-api/internal/testutils"
)

const testMaxStudents = 20

type testEnv struct {
	server  *httptest.Server
	handler http.Handler
	store   *memory.Store
	factory *testutils.Factory
}

// newTestEnv starts an API server backed by a fresh in-memory store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := memory.New(log)

	courses, err := service.NewCourseService(s.Courses(), s.Students(), testMaxStudents, log)
	require.NoError(t, err)
	students, err := service.NewStudentService(s.Students(), s.Courses(), testMaxStudents, log)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(chimiddleware.StripSlashes)
	r.Use(chimiddleware.RequestSize(shared.MaxBodyBytes))
	r.Use(middleware.TraceMiddleware(log))
	api.RegisterRoutes(r, api.NewCourseHandler(courses, log), api.NewStudentHandler(students, log))

	return &testEnv{
		server:  testutils.CreateTestServer(t, r),
		handler: r,
		store:   s,
		factory: testutils.NewFactory(s.Courses(), s.Students()),
	}
}
