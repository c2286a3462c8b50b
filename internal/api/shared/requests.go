package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes bounds request bodies, spreadsheet uploads included. The
// router enforces it with chi's RequestSize middleware.
const MaxBodyBytes = 10 << 20

// ErrTrailingData is returned when a JSON body holds more than one value.
var ErrTrailingData = errors.New("request body must contain a single JSON value")

// Validate is the shared validator instance.
var Validate = validator.New()

// DecodeJSON decodes the request body into the given struct.
// An empty body is reported as io.EOF.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}

// ValidateRequest validates the given struct using the validator package.
func ValidateRequest(v interface{}) error {
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}
	return Validate.Struct(v)
}

// MediaType returns the request's media type without parameters. A missing
// Content-Type is treated as JSON.
func MediaType(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return "application/json"
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}

// IsFormRequest reports whether the body is urlencoded or multipart form data.
func IsFormRequest(r *http.Request) bool {
	switch MediaType(r) {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return true
	}
	return false
}

// ParseForm parses urlencoded and multipart bodies into r.Form.
func ParseForm(r *http.Request) error {
	if MediaType(r) == "multipart/form-data" {
		if err := r.ParseMultipartForm(MaxBodyBytes); err != nil {
			return fmt.Errorf("parse multipart form: %w", err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// IsBodyTooLarge reports whether err came from reading past MaxBodyBytes.
func IsBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// IsEmptyBody reports whether a decode error means there was no body at all.
func IsEmptyBody(err error) bool {
	return errors.Is(err, io.EOF)
}
