package cli

import (
	"errors"
	"fmt"
)

type notLoggedInError struct {
	server string
}

func (e notLoggedInError) Error() string {
	return fmt.Sprintf("not logged in to %s; run `freamarket login`", e.server)
}

func errNotLoggedIn(server string) error {
	return notLoggedInError{server: server}
}

type invalidArgError struct {
	name  string
	value string
}

func (e invalidArgError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.name, e.value)
}

func errInvalidArg(name, value string) error {
	return invalidArgError{name: name, value: value}
}

// reportedError wraps an error whose message has already been written to stderr
// (by writeErr or as a notification), so main does not print it again.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
