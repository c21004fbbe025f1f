package source

import (
	"context"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay is how long [Loader.Watch] waits for further changes
// before reporting a batch.
const DefaultWatchDelay = 250 * time.Millisecond

// Watch reports changes to template files below the loader's directories
// until ctx is done. Changes are collected until none arrive for delay, then
// onChange is called with the sorted names of the changed templates.
// Directories created while watching are watched as well.
func (l *Loader) Watch(ctx context.Context, delay time.Duration, onChange func([]string)) error {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err)
	}
	defer w.Close()

	for _, dir := range l.dirs {
		if err := watchTree(w, dir); err != nil {
			return ErrWatch.Wrap(err).With(slog.String("dir", dir))
		}
	}

	l.logger.InfoContext(ctx, "watching templates", slog.Any("dirs", l.dirs))

	var (
		pending = map[string]bool{}
		timer   = time.NewTimer(delay)
		fire    <-chan time.Time
	)

	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = watchTree(w, ev.Name)

					continue
				}
			}

			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}

			name, ok := l.NameOf(ev.Name)
			if !ok {
				continue
			}

			l.logger.DebugContext(ctx, "template changed",
				slog.String("name", name),
				slog.String("op", ev.Op.String()))

			pending[name] = true

			timer.Reset(delay)
			fire = timer.C

		case <-fire:
			fire = nil

			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)

			onChange(changed)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			l.logger.WarnContext(ctx, "watch error", slog.Any("error", err))
		}
	}
}

func watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return w.Add(p)
		}

		return nil
	})
}
