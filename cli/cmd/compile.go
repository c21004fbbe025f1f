package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/panc/lang"
	"github.com/ardnew/panc/log"
	"github.com/ardnew/panc/pkg"
)

// Compile builds object templates into profiles.
type Compile struct {
	Output    string   `help:"Write each profile to DIR/<object>.<ext> instead of standard output." placeholder:"DIR" short:"o" type:"path"`
	Format    string   `default:"json" enum:"${formats}" help:"Output format (${enum})." short:"f"`
	Objects   []string `arg:""         help:"Object templates to compile."                          name:"object"`
	Indent    int      `default:"2"    help:"Indent width of JSON and YAML output, 0 for compact."  short:"i"`
	Jobs      int      `default:"0"    help:"Maximum concurrent builds, 0 for one per CPU."         short:"j"`
	Unescape  bool     `help:"Unescape dict keys on output."`
	KeepGoing bool     `help:"Build every object even after a failure." short:"k"`
}

// Run executes the compile command.
func (c *Compile) Run(ctx context.Context) error {
	s := settingsFrom(ctx)

	if len(c.Objects) == 0 {
		return pkg.ErrNoObjects
	}

	l, err := s.loader()
	if err != nil {
		return err
	}

	results := build(ctx, s, l, c.Objects, c.Jobs, c.KeepGoing)

	return c.emit(ctx, results)
}

// result is the outcome of building one object.
type result struct {
	profile *lang.Profile
	err     error
	object  string
}

// build compiles objects concurrently, at most jobs at a time. Unless
// keepGoing is set, the first failure cancels the builds still running;
// their results then hold [context.Canceled].
func build(
	ctx context.Context,
	s Settings,
	l lang.Loader,
	objects []string,
	jobs int,
	keepGoing bool,
) []result {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	if keepGoing {
		g, gctx = new(errgroup.Group), ctx
	}

	g.SetLimit(jobs)

	results := make([]result, len(objects))
	opts := s.options()

	for i, object := range objects {
		results[i].object = object

		g.Go(func() error {
			p, err := lang.Build(gctx, l, object, opts...)
			results[i].profile, results[i].err = p, err

			return err
		})
	}

	_ = g.Wait()

	return results
}

// failures joins the errors of results, each prefixed by its object.
// Builds canceled because another one failed are not reported.
func failures(ctx context.Context, results []result) error {
	var errs []error

	for _, r := range results {
		if r.err == nil {
			continue
		}

		if errors.Is(r.err, context.Canceled) && ctx.Err() == nil {
			continue
		}

		errs = append(errs, fmt.Errorf("%s: %w", r.object, r.err))
	}

	if len(errs) == 0 {
		return nil
	}

	return pkg.ErrCompile.Wrap(errors.Join(errs...))
}

// emit writes the profiles of the successful results and reports the
// failures.
func (c *Compile) emit(ctx context.Context, results []result) error {
	format, err := lang.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	opts := []lang.EncodeOption{
		lang.WithIndent(c.Indent),
		lang.WithUnescapedKeys(c.Unescape),
	}

	stdout := outputFrom(ctx)
	stream := c.Output == "" && len(results) > 1

	for _, r := range results {
		if r.err != nil {
			continue
		}

		var buf bytes.Buffer

		if stream {
			separate(&buf, format, r.object)
		}

		if err := r.profile.Encode(ctx, &buf, format, opts...); err != nil {
			return ErrEncode.Wrap(err).With(slog.String("object", r.object))
		}

		if err := c.write(ctx, stdout, r.object, format, buf.Bytes()); err != nil {
			return err
		}
	}

	return failures(ctx, results)
}

// separate introduces one profile of several written to standard output.
// JSON profiles need no separator.
func separate(w io.Writer, format lang.Format, object string) {
	switch format {
	case lang.FormatYAML:
		fmt.Fprintf(w, "--- # %s\n", object)
	case lang.FormatText:
		fmt.Fprintf(w, "# %s\n", object)
	case lang.FormatJSON:
	}
}

// extension returns the file name extension of profiles in format.
func extension(format lang.Format) string {
	if format == lang.FormatText {
		return ".txt"
	}

	return "." + format.String()
}

func (c *Compile) write(ctx context.Context, stdout io.Writer, object string, format lang.Format, data []byte) error {
	if c.Output == "" {
		if _, err := stdout.Write(data); err != nil {
			return ErrWriteOutput.Wrap(err).With(slog.String("object", object))
		}

		return nil
	}

	file := filepath.Join(c.Output, filepath.FromSlash(object)+extension(format))

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("file", file))
	}

	if err := os.WriteFile(file, data, 0o644); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("file", file))
	}

	log.DebugContext(ctx, "wrote profile",
		slog.String("object", object),
		slog.String("file", file),
		slog.Int("bytes", len(data)))

	return nil
}
