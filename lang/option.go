package lang

import (
	"slices"

	"github.com/ardnew/panc/log"
)

// DefaultCallLimit is the default maximum depth of nested template
// inclusions and function calls.
var DefaultCallLimit = 50

// DefaultIterationLimit is the default maximum number of iterations of a
// single loop.
var DefaultIterationLimit = 5000

type options struct {
	logger    log.Logger
	loadPath  []string
	callLimit int
	iterLimit int
}

// Option configures a build.
type Option func(*options)

// WithCallLimit sets the maximum depth of nested templates and functions.
func WithCallLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.callLimit = limit
		}
	}
}

// WithIterationLimit sets the maximum number of iterations of a loop.
func WithIterationLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.iterLimit = limit
		}
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLoadPath appends relative load path prefixes tried after those set by
// the LOADPATH variable.
func WithLoadPath(prefix ...string) Option {
	return func(o *options) {
		o.loadPath = append(slices.Clone(o.loadPath), prefix...)
	}
}

func makeOptions(opts ...Option) options {
	o := options{
		callLimit: DefaultCallLimit,
		iterLimit: DefaultIterationLimit,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
