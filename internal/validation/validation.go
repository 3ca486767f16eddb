// Package validation collects field-level input errors.
package validation

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?)*\.[A-Za-z]{2,}$`)

// Error reports malformed input. It marshals to the same shape the web client
// already renders: {"formErrors": [...], "fieldErrors": {"field": [...]}}.
type Error struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// New returns an empty error ready to collect problems.
func New() *Error {
	return &Error{FormErrors: []string{}, FieldErrors: map[string][]string{}}
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields)+len(e.FormErrors))
	parts = append(parts, e.FormErrors...)
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.FieldErrors[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field records a problem with one input field.
func (e *Error) Field(field, msg string) {
	e.FieldErrors[field] = append(e.FieldErrors[field], msg)
}

// Form records a problem that is not tied to a field.
func (e *Error) Form(msg string) {
	e.FormErrors = append(e.FormErrors, msg)
}

// Err returns e if anything was recorded and nil otherwise.
func (e *Error) Err() error {
	if len(e.FieldErrors) == 0 && len(e.FormErrors) == 0 {
		return nil
	}
	return e
}

// Email reports whether s is a syntactically valid address.
func Email(s string) bool {
	return len(s) <= 254 && emailPattern.MatchString(s)
}

// MinLen checks s has at least n characters.
func MinLen(s string, n int) bool {
	return utf8.RuneCountInString(s) >= n
}
