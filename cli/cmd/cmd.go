package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/alecthomas/kong"

	"github.com/ardnew/panc/lang"
	"github.com/ardnew/panc/log"
	"github.com/ardnew/panc/pkg"
	"github.com/ardnew/panc/source"
)

type (
	kongKey     struct{}
	settingsKey struct{}
	outputKey   struct{}
)

// WithContext returns a context carrying the parsed command line.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, kongKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(kongKey{}).(*kong.Context)

	return ktx
}

// Settings are the compiler settings shared by every command.
type Settings struct {
	Logger log.Logger
	// Templates are the template directories, searched in order.
	Templates []string
	// LoadPath holds name prefixes tried before each bare template name.
	LoadPath       []string
	CallLimit      int
	IterationLimit int
}

// WithSettings returns a context carrying s.
func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// settingsFrom returns the settings in ctx. Missing settings select the
// working directory and the default limits.
func settingsFrom(ctx context.Context) Settings {
	s, _ := ctx.Value(settingsKey{}).(Settings)

	if len(s.Templates) == 0 {
		s.Templates = []string{"."}
	}

	return s
}

// WithOutput returns a context directing profiles written to standard
// output to w instead.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok {
		return w
	}

	return os.Stdout
}

// options returns the build options selected by s.
func (s Settings) options() []lang.Option {
	opts := []lang.Option{
		lang.WithLogger(s.Logger),
		lang.WithLoadPath(s.LoadPath...),
	}

	if s.CallLimit > 0 {
		opts = append(opts, lang.WithCallLimit(s.CallLimit))
	}

	if s.IterationLimit > 0 {
		opts = append(opts, lang.WithIterationLimit(s.IterationLimit))
	}

	return opts
}

// loader returns a template loader over the existing template directories.
func (s Settings) loader() (*source.Loader, error) {
	dirs := uniqueDirs(s.Templates)
	if len(dirs) == 0 {
		return nil, pkg.ErrNoLoadPath.Wrapf("none of %q is a directory", s.Templates)
	}

	return source.New(dirs, source.WithLogger(s.Logger)), nil
}

// uniqueDirs returns the absolute forms of the directories in dirs, in
// order, dropping entries that do not exist and entries naming a directory
// already listed through another path or symlink.
func uniqueDirs(dirs []string) []string {
	var (
		out  []string
		seen []os.FileInfo
	)

	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}

		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}

		if slices.ContainsFunc(seen, func(fi os.FileInfo) bool { return os.SameFile(fi, info) }) {
			continue
		}

		seen = append(seen, info)
		out = append(out, abs)
	}

	return out
}
