package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrorKind classifies an [Error] by the phase of compilation that raised it.
type ErrorKind uint8

const (
	ErrorEvaluation ErrorKind = iota // evaluation
	ErrorDefinition                  // definition
	ErrorValidation                  // validation
	ErrorDefect                      // defect
)

// Predefined errors (sentinel values).
//
// Definition errors are raised while paths, ranges, types, statements and
// templates are constructed.
var (
	ErrInvalidPath         = NewError(ErrorDefinition, "invalid path")
	ErrInvalidTerm         = NewError(ErrorDefinition, "invalid term")
	ErrInvalidEscape       = NewError(ErrorDefinition, "invalid escape sequence")
	ErrInvalidRange        = NewError(ErrorDefinition, "invalid range")
	ErrInvalidChoice       = NewError(ErrorDefinition, "choice type requires at least two choices")
	ErrInvalidType         = NewError(ErrorDefinition, "invalid type definition")
	ErrReservedVariable    = NewError(ErrorDefinition, "cannot modify reserved variable")
	ErrInvalidTemplateName = NewError(ErrorDefinition, "invalid template name")
	ErrDuplicateDefinition = NewError(ErrorDefinition, "duplicate definition")
	ErrStatementNotAllowed = NewError(ErrorDefinition, "statement not allowed in template")
	ErrInvalidExpression   = NewError(ErrorDefinition, "invalid expression")
	ErrInvalidStatement    = NewError(ErrorDefinition, "invalid statement")
)

// Evaluation errors are raised while statements and expressions execute.
var (
	ErrInvalidTermKind        = NewError(ErrorEvaluation, "invalid term for resource")
	ErrFinalViolation         = NewError(ErrorEvaluation, "cannot modify final element")
	ErrFinalVariable          = NewError(ErrorEvaluation, "cannot modify final variable")
	ErrTemplateNotFound       = NewError(ErrorEvaluation, "failed to load template")
	ErrInvalidInclude         = NewError(ErrorEvaluation, "invalid include")
	ErrCallDepthExceeded      = NewError(ErrorEvaluation, "call depth limit exceeded")
	ErrIterationLimit         = NewError(ErrorEvaluation, "iteration limit exceeded")
	ErrUndefinedVariable      = NewError(ErrorEvaluation, "undefined variable")
	ErrUndefinedFunction      = NewError(ErrorEvaluation, "undefined function")
	ErrNonexistentElement     = NewError(ErrorEvaluation, "nonexistent element")
	ErrTypeNotFound           = NewError(ErrorEvaluation, "nonexistent type")
	ErrWrongTypeKind          = NewError(ErrorEvaluation, "type has wrong kind")
	ErrMismatchedTypes        = NewError(ErrorEvaluation, "mismatched types")
	ErrInvalidReplacement     = NewError(ErrorEvaluation, "invalid replacement")
	ErrConcurrentModification = NewError(ErrorEvaluation, "resource modified during iteration")
	ErrDivisionByZero         = NewError(ErrorEvaluation, "division by zero")
	ErrInvalidArgument        = NewError(ErrorEvaluation, "invalid argument")
	ErrInvalidBinding         = NewError(ErrorEvaluation, "invalid binding")
	ErrUserError              = NewError(ErrorEvaluation, "user-initiated error")
	ErrRedefined              = NewError(ErrorEvaluation, "already defined")
	ErrNotCompileTime         = NewError(ErrorEvaluation, "operation not allowed at compile time")
)

// Validation and defect errors.
var (
	ErrValidation = NewError(ErrorValidation, "validation error")
	ErrDefect     = NewError(ErrorDefect, "compiler defect")
)

// Error represents an error with a phase classification and optional
// structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	base  *Error // sentinel identity for errors.Is
	err   error  // Wrapped error (for errors.Unwrap)
	msg   string
	where string      // source location annotation
	attrs []slog.Attr // Attributes for structured logging
	kind  ErrorKind
}

// NewError creates a new Error with a kind and message.
// The returned value acts as a sentinel: every Error derived from it through
// [Error.Wrap], [Error.With] or [Error.Locate] matches it with errors.Is.
func NewError(kind ErrorKind, msg string) *Error {
	e := &Error{msg: msg, kind: kind}
	e.base = e

	return e
}

// WrapError wraps a standard error into an Error.
// Errors that already are (or wrap) an *Error are returned unchanged.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err, kind: ErrorEvaluation}
}

// Kind returns the phase classification of the error.
func (e *Error) Kind() ErrorKind { return e.kind }

// Where returns the source location annotation, if any.
func (e *Error) Where() string { return e.where }

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "[<where>] <msg>: <err>"
	//   2. "<msg>: <err>"
	//   3. "<msg>"
	//   4. "<err>"
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	s := strings.Join(part, ": ")
	if e.where != "" {
		s = "[" + e.where + "] " + s
	}

	return s
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel this error was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.base != nil && e.base == t.base
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	attrs = append(attrs, slog.String("kind", e.kind.String()))

	if e.where != "" {
		attrs = append(attrs, slog.String("where", e.where))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// Wrapf creates a new Error wrapping a formatted error.
func (e *Error) Wrapf(format string, args ...any) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	c := *e
	c.attrs = newAttrs

	return &c
}

// Locate annotates the error with a source location.
// The innermost location wins: an already located error is returned as is.
func (e *Error) Locate(where string) *Error {
	if e.where != "" || where == "" {
		return e
	}

	c := *e
	c.where = where

	return &c
}

// locate annotates any error raised while executing the statement at where.
func locate(err error, where string) error {
	if err == nil {
		return nil
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.template == "" {
			ve.template = where
		}

		return err
	}

	return WrapError(err).Locate(where)
}

// defect reports an internal invariant violation.
func defect(format string, args ...any) *Error {
	return ErrDefect.Wrapf(format, args...)
}

// ValidationError is raised by the defaults and validation pass. It carries
// the offending value, the chain of terms leading from the bound path to the
// offending element, the stack of type names being checked and an optional
// nested cause (include or link failures).
type ValidationError struct {
	value     Element
	cause     error
	msg       string
	typeName  string
	template  string
	terms     []Term
	typeStack []string
	path      Path
	bound     bool
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// addTerm prepends t to the term chain. Callers add terms while unwinding,
// so the outermost term ends up first.
func (v *ValidationError) addTerm(t Term) *ValidationError {
	v.terms = append([]Term{t}, v.terms...)

	return v
}

func (v *ValidationError) addType(name string) *ValidationError {
	v.typeStack = append(v.typeStack, name)

	return v
}

func (v *ValidationError) withValue(e Element) *ValidationError {
	if _, ok := e.(Property); ok {
		v.value = e
	}

	return v
}

func (v *ValidationError) wrap(cause error) *ValidationError {
	v.cause = cause

	return v
}

// bind records the bound path and type name of the failing binding. Only the
// first binding is kept.
func (v *ValidationError) bind(p Path, typeName string) *ValidationError {
	if !v.bound {
		v.path, v.typeName, v.bound = p, typeName, true
	}

	return v
}

// Message returns the bare validation message.
func (v *ValidationError) Message() string { return v.msg }

// Value returns the offending value, or nil if none was recorded.
func (v *ValidationError) Value() Element { return v.value }

// TypeStack returns the names of the alias and included record types that
// were being checked, innermost first.
func (v *ValidationError) TypeStack() []string { return v.typeStack }

// Cause returns the nested validation failure, if any.
func (v *ValidationError) Cause() error { return v.cause }

// ElementPath returns the full path of the offending element. The second
// result is false when the error was raised outside of a binding.
func (v *ValidationError) ElementPath() (Path, bool) {
	if !v.bound {
		return Path{}, false
	}

	p, err := v.path.Append(v.terms...)
	if err != nil {
		return v.path, true
	}

	return p, true
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	var sb strings.Builder

	sb.WriteString("validation error")

	if v.template != "" {
		sb.WriteString(" [")
		sb.WriteString(v.template)
		sb.WriteString("]")
	}

	sb.WriteString(": ")
	sb.WriteString(v.msg)

	if p, ok := v.ElementPath(); ok {
		fmt.Fprintf(&sb, "\nelement path: '%s'", p)
	}

	if v.value != nil {
		fmt.Fprintf(&sb, "\nelement value: %s", v.value)
	}

	for _, name := range v.typeStack {
		fmt.Fprintf(&sb, "\ntype: '%s'", name)
	}

	if v.bound && v.typeName != "" {
		fmt.Fprintf(&sb, "\npath '%s' bound to type %s", v.path, v.typeName)
	}

	if v.cause != nil {
		fmt.Fprintf(&sb, "\ncaused by: %s", v.cause)
	}

	return sb.String()
}

// Unwrap returns the nested cause.
func (v *ValidationError) Unwrap() error { return v.cause }

// Is matches [ErrValidation].
func (v *ValidationError) Is(target error) bool { return target == ErrValidation }

// LogValue implements slog.LogValuer.
func (v *ValidationError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("error", v.msg),
		slog.String("kind", ErrorValidation.String()),
	}

	if p, ok := v.ElementPath(); ok {
		attrs = append(attrs, slog.String("path", p.String()))
	}

	if v.value != nil {
		attrs = append(attrs, slog.String("value", v.value.String()))
	}

	if len(v.typeStack) > 0 {
		attrs = append(attrs, slog.Any("types", v.typeStack))
	}

	if v.cause != nil {
		attrs = append(attrs, slog.String("cause", v.cause.Error()))
	}

	return slog.GroupValue(attrs...)
}
