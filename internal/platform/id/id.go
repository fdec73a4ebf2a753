// Package id generates and validates the ULID identifiers used for users,
// books and loans.
package id

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID. ulid.Make uses a process-wide monotonic entropy
// source, so ids created in the same millisecond still sort.
func New() string {
	return ulid.Make().String()
}

// Valid reports whether s is a well-formed ULID. Handlers treat malformed ids
// as "not found" rather than as a validation error.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(strings.ToUpper(s))
	return err == nil
}
