package pkg

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Error is a chain of errors, innermost first. It matches each of its
// members with [errors.Is] and [errors.As].
type Error []error

var (
	// ErrReadConfig is returned when the configuration file exists but
	// cannot be read or decoded.
	ErrReadConfig = MakeErrorf("read configuration")
	// ErrNoObjects is returned when a command that compiles profiles is
	// given no object templates.
	ErrNoObjects = MakeErrorf("no object templates given")
	// ErrNoLoadPath is returned when no template directory exists.
	ErrNoLoadPath = MakeErrorf("no template directory")
	// ErrCompile wraps the failures of one or more object templates.
	ErrCompile = MakeErrorf("compilation failed")
)

// MakeError returns a chain of errs, dropping nil entries. Members that are
// themselves chains are spliced in; other errors keep their own wrapping.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		switch c := err.(type) {
		case nil:
		case Error:
			e = append(e, c...)
		default:
			e = append(e, err)
		}
	}

	return e
}

// MakeErrorf returns a chain holding one formatted error.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error joins the messages of the chain with ": ", outermost first, so a
// sentinel reads as the prefix of its causes.
func (e Error) Error() string {
	msgs := make([]string, 0, len(e))

	for i := len(e) - 1; i >= 0; i-- {
		if e[i] != nil {
			msgs = append(msgs, e[i].Error())
		}
	}

	return strings.Join(msgs, ": ")
}

// Wrap returns a new chain with errs added inside the receiver.
func (e Error) Wrap(errs ...error) Error {
	return append(MakeError(errs...), e...)
}

// Wrapf returns a new chain with a formatted error added inside the receiver.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

func (e Error) Unwrap() []error { return e }

// Is reports whether every member of target is a member of e, so that a
// chain made by wrapping a sentinel matches the sentinel.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok || len(t) == 0 || len(t) > len(e) {
		return false
	}

	for _, want := range t {
		if !slices.ContainsFunc(e, func(have error) bool { return same(have, want) }) {
			return false
		}
	}

	return true
}

func same(a, b error) bool {
	ta := reflect.TypeOf(a)

	return ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}
