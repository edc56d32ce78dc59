package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Op         string
	StatusCode int
	// Detail is the human-readable "detail" field of the body, empty when absent.
	Detail string
	// NotJSON is set when the body was not JSON at all, e.g. a proxy's HTML error page.
	NotJSON bool
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

// TransportError means the request could not be completed (dial, TLS, reset, timeout, ...).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a 2xx response whose body did not have the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return e.Op + ": decode response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// DetailOf returns the backend detail carried by err, or "" when there is none.
func DetailOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Detail
	}
	return ""
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, code int) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.StatusCode == code
}

// newError builds the *Error for a non-2xx response body.
func newError(op string, status int, body []byte) *Error {
	return &Error{Op: op, StatusCode: status, Detail: parseDetail(body), NotJSON: !json.Valid(body)}
}

// parseDetail extracts "detail" from an error body.
//
// FastAPI sends a string for HTTPException and a list of {loc, msg, type} objects for
// request validation failures; the list is flattened into "msg; msg".
func parseDetail(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, it := range list {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
