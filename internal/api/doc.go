// Package api implements the HTTP handlers for the courses and students
// resources. Handlers decode JSON or form bodies into request DTOs, delegate
// to the service layer and translate errors into status codes with
// MapErrorToStatusCode, so internal error text never reaches clients.
//
// Subpackage shared holds response and request helpers used by every handler;
// subpackage middleware holds the trace middleware.
package api
