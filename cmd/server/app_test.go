package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/courses-api/internal/config"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 0, LogLevel: "debug", LogFormat: "json"},
		Database: config.DatabaseConfig{
			Driver:    driver,
			KeyPrefix: "courses-test",
		},
		Courses: config.CoursesConfig{MaxStudents: 20},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemoryApp(t *testing.T) *application {
	t.Helper()
	app, err := newApplication(context.Background(), testConfig(config.DriverMemory), testLogger())
	require.NoError(t, err)
	return app
}

func TestNewApplication_Memory(t *testing.T) {
	t.Parallel()
	app := newMemoryApp(t)

	assert.NotNil(t, app.courseStore)
	assert.NotNil(t, app.studentStore)
	assert.NotNil(t, app.courseService)
	assert.NotNil(t, app.studentService)
	assert.Nil(t, app.db)
	assert.Nil(t, app.redis)
}

func TestNewApplication_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown driver", func(t *testing.T) {
		_, err := newApplication(context.Background(), testConfig("sqlite"), testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})

	t.Run("malformed redis url", func(t *testing.T) {
		cfg := testConfig(config.DriverRedis)
		cfg.Database.URL = "not-a-redis-url"
		_, err := newApplication(context.Background(), cfg, testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis")
	})
}

func TestRouter(t *testing.T) {
	t.Parallel()
	app := newMemoryApp(t)
	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(server.Close)

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OK", string(body))
	})

	t.Run("create and fetch course", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/api/v1/courses/", "application/json", strings.NewReader(`{"name":"Python"}`))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

		resp, err = http.Get(server.URL + "/api/v1/courses/1/")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/v1/unknown")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestStartHTTPServer_StopsOnCancel(t *testing.T) {
	t.Parallel()
	app := newMemoryApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
