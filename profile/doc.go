// Package profile starts runtime profiling of the compiler with
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	panc --pprof-mode cpu compile node01
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op
// stopper, so callers need no build tag of their own.
//
// The supported modes are allocs, block, clock, cpu, goroutine, heap, mem,
// mutex, thread and trace. Each writes <mode>.pprof (or trace.out) below the
// profiler's directory, ready for "go tool pprof". Builds with the tag also
// register the net/http/pprof handlers on the default mux.
package profile

// Tag is the build tag that enables profiling.
const Tag = "pprof"

// Profiler describes one profiling session.
type Profiler struct {
	// Mode is one of [Modes]. An empty mode disables profiling.
	Mode string
	// Dir receives the profile. Empty selects the working directory.
	Dir string
	// Quiet suppresses the messages of the profiling library.
	Quiet bool
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start begins profiling as described by p. Unknown modes and builds
// without the [Tag] yield a stopper that does nothing.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
