package cassette

import (
	"errors"
	"fmt"
)

// MatchError reports a replay request that matched no recorded
// interaction. This is fatal for the test: replay must never fall
// through to a live call.
type MatchError struct {
	// Method is the HTTP method of the unmatched request.
	Method string

	// URL is the full URL of the unmatched request.
	URL string

	// Cassette is the name of the cassette that was searched.
	Cassette string
}

// Error implements the error interface.
func (e *MatchError) Error() string {
	return fmt.Sprintf("no matching recorded interaction for %s %s in cassette %q (stale recording?)",
		e.Method, e.URL, e.Cassette)
}

// IsMatchError reports whether err is a replay match failure.
// Uses errors.As to handle wrapped errors.
func IsMatchError(err error) bool {
	var me *MatchError
	return errors.As(err, &me)
}

// MalformedError reports a cassette file whose stored format could not
// be parsed. The cassette is never partially loaded.
type MalformedError struct {
	// Path is the cassette file that failed to parse.
	Path string

	// Err is the underlying parse error.
	Err error
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed cassette %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *MalformedError) Unwrap() error { return e.Err }
