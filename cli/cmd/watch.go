package cmd

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/ardnew/panc/log"
	"github.com/ardnew/panc/pkg"
	"github.com/ardnew/panc/source"
)

// Watch compiles object templates, then recompiles each one whenever a
// template it depends on changes.
type Watch struct {
	Compile `embed:""`

	Delay time.Duration `default:"250ms" help:"Wait for changes to settle this long before recompiling."`
}

// Run executes the watch command until the context is canceled.
func (w *Watch) Run(ctx context.Context) error {
	s := settingsFrom(ctx)

	if len(w.Objects) == 0 {
		return pkg.ErrNoObjects
	}

	l, err := s.loader()
	if err != nil {
		return err
	}

	deps := make(map[string][]string, len(w.Objects))

	w.rebuild(ctx, s, l, deps, w.Objects)

	return l.Watch(ctx, w.Delay, func(changed []string) {
		objects := affected(w.Objects, deps, changed)

		log.DebugContext(ctx, "templates changed",
			slog.Any("templates", changed),
			slog.Any("objects", objects))

		if len(objects) > 0 {
			w.rebuild(ctx, s, l, deps, objects)
		}
	})
}

// rebuild compiles objects, records their dependencies, and writes the
// profiles. Failures are logged; watching continues.
func (w *Watch) rebuild(
	ctx context.Context,
	s Settings,
	l *source.Loader,
	deps map[string][]string,
	objects []string,
) {
	results := build(ctx, s, l, objects, w.Jobs, true)

	for _, r := range results {
		if r.err != nil {
			delete(deps, r.object)

			continue
		}

		deps[r.object] = r.profile.Dependencies()
	}

	if err := w.emit(ctx, results); err != nil {
		log.ErrorContext(ctx, "rebuild failed", slog.Any("error", err))
	}
}

// affected returns the objects, in order, whose last build loaded one of
// the changed templates. Objects without a successful build are always
// included, since their dependencies are unknown.
func affected(objects []string, deps map[string][]string, changed []string) []string {
	var out []string

	for _, object := range objects {
		d, ok := deps[object]
		if !ok || slices.ContainsFunc(d, func(name string) bool {
			return slices.Contains(changed, name)
		}) {
			out = append(out, object)
		}
	}

	return out
}
