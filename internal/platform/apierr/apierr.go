// Package apierr carries a service error to the HTTP boundary with the
// status and machine-readable code it should surface as. Handlers build
// these from the package sentinels (not_found, token_expired,
// invalid_transition, predicate_not_satisfied, ...) and the response layer
// serializes Code into the error envelope; Err stays wrapped for logging
// and errors.Is.
package apierr

import "fmt"

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
