package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/courses-api/internal/api/shared"
)

// CreateTestServer creates a httptest server with the given handler.
// Automatically registers cleanup via t.Cleanup() so callers don't need to manually close the server.
func CreateTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// CleanupResponseBody registers a cleanup function to close the response body
// to prevent resource leaks.
func CleanupResponseBody(t *testing.T, resp *http.Response) {
	t.Helper()
	if resp != nil && resp.Body != nil {
		t.Cleanup(func() {
			if err := resp.Body.Close(); err != nil {
				t.Logf("Warning: failed to close response body: %v", err)
			}
		})
	}
}

// DoJSONRequest sends body encoded as JSON (nil sends no body).
func DoJSONRequest(t *testing.T, server *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return do(t, server, req)
}

// DoFormRequest sends values as an application/x-www-form-urlencoded body.
func DoFormRequest(t *testing.T, server *httptest.Server, method, path string, values url.Values) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, server.URL+path, strings.NewReader(values.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(t, server, req)
}

// DoRequest sends a prepared request to server.
func DoRequest(t *testing.T, server *httptest.Server, req *http.Request) *http.Response {
	t.Helper()
	return do(t, server, req)
}

func do(t *testing.T, server *httptest.Server, req *http.Request) *http.Response {
	t.Helper()
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	CleanupResponseBody(t, resp)
	return resp
}

// DecodeJSONResponse asserts the status code and decodes the body into v.
func DecodeJSONResponse(t *testing.T, resp *http.Response, expectedStatus int, v any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")
	require.Equal(t, expectedStatus, resp.StatusCode, "unexpected status, body: %s", body)
	require.NoError(t, json.Unmarshal(body, v), "Failed to unmarshal response: %s", body)
}

// AssertErrorResponse checks that a response contains an error with the expected status code and message.
func AssertErrorResponse(
	t *testing.T,
	resp *http.Response,
	expectedStatus int,
	expectedErrorMsgPart string,
) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode,
		"Expected status code %d but got %d", expectedStatus, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")

	if expectedStatus == http.StatusNoContent {
		assert.Empty(t, body, "Expected empty body for 204 No Content")
		return
	}

	var errResp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp), "Failed to unmarshal error response: %s", body)

	assert.Contains(t, errResp.Error, expectedErrorMsgPart,
		"Expected error message to contain %q but got %q", expectedErrorMsgPart, errResp.Error)
	assert.NotEmpty(t, errResp.TraceID, "Expected error response to carry a trace ID")
}
