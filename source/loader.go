package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/panc/lang"
	"github.com/ardnew/panc/log"
)

// Extensions are the file name extensions tried for each template, in order.
var Extensions = []string{".yaml", ".yml"}

// Loader reads templates from a list of directories. It implements
// [lang.Loader] and is safe for concurrent use.
type Loader struct {
	validate *validator.Validate
	logger   log.Logger
	compile  []lang.Option
	dirs     []string

	// templates holds parsed templates keyed by name and content hash.
	templates sync.Map
	// files maps each file read to the key of its current content.
	files sync.Map
}

type cacheKey struct {
	name string
	sum  uint64
}

// Option configures a [Loader].
type Option func(*Loader)

// WithLogger sets the logger used to trace file reads and cache hits.
func WithLogger(logger log.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
		l.compile = append(l.compile, lang.WithLogger(logger))
	}
}

// New returns a loader searching dirs in order.
func New(dirs []string, opts ...Option) *Loader {
	l := &Loader{
		dirs:     slices.Clone(dirs),
		validate: newValidator(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Dirs returns the directories searched, in order.
func (l *Loader) Dirs() []string { return slices.Clone(l.dirs) }

// Load implements [lang.Loader].
func (l *Loader) Load(ctx context.Context, name string, prefixes []string) (*lang.Template, error) {
	for _, candidate := range lang.Candidates(name, prefixes) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, ok := l.find(candidate)
		if !ok {
			continue
		}

		return l.LoadFile(ctx, file, candidate)
	}

	return nil, lang.ErrTemplateNotFound.Wrapf("%s%s", name, lang.DidYouMean(name, l.Names()))
}

// find returns the first file holding the template name.
func (l *Loader) find(name string) (string, bool) {
	rel := filepath.FromSlash(name)

	for _, dir := range l.dirs {
		for _, ext := range Extensions {
			file := filepath.Join(dir, rel+ext)

			if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
				return file, true
			}
		}
	}

	return "", false
}

// LoadFile parses the template name from file. The document's name must
// equal name. A file whose content has not changed since it was last parsed
// is served from the cache.
func (l *Loader) LoadFile(ctx context.Context, file, name string) (*lang.Template, error) {
	data, err := read(file)
	if err != nil {
		return nil, ErrReadTemplate.Wrap(err).With(slog.String("file", file))
	}

	key := cacheKey{name: name, sum: xxh3.Hash(data)}

	if prev, ok := l.files.Swap(file, key); ok && prev != key {
		l.templates.Delete(prev)
	}

	if v, ok := l.templates.Load(key); ok {
		l.logger.TraceContext(ctx, "template cache hit",
			slog.String("name", name),
			slog.String("file", file))

		return v.(*lang.Template), nil
	}

	tpl, err := l.parse(ctx, data, name)
	if err != nil {
		return nil, lang.WrapError(err).Locate(file)
	}

	v, _ := l.templates.LoadOrStore(key, tpl)

	l.logger.DebugContext(ctx, "parse template",
		slog.String("name", name),
		slog.String("file", file),
		slog.Int("statements", tpl.Len()))

	return v.(*lang.Template), nil
}

// read loads a whole file through an asynchronous read-ahead buffer.
func read(file string) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	return io.ReadAll(ra)
}

func (l *Loader) parse(ctx context.Context, data []byte, name string) (*lang.Template, error) {
	var doc Document

	if err := yaml.UnmarshalContext(ctx, data, &doc, yaml.DisallowUnknownField()); err != nil {
		return nil, ErrParseTemplate.Wrap(errors.New(yaml.FormatError(err, false, true)))
	}

	if err := l.validate.StructCtx(ctx, &doc); err != nil {
		return nil, ErrInvalidDocument.Wrap(err)
	}

	if doc.Name != name {
		return nil, ErrInvalidDocument.Wrapf("document name %q does not match template name %q",
			doc.Name, name)
	}

	return doc.Template(string(data), l.compile...)
}

// Names returns the names of every template file below the loader's
// directories, sorted and without duplicates.
func (l *Loader) Names() []string {
	var names []string

	for _, dir := range l.dirs {
		_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil //nolint:nilerr // unreadable entries are skipped
			}

			ext := filepath.Ext(p)
			if !slices.Contains(Extensions, ext) {
				return nil
			}

			rel, err := filepath.Rel(dir, strings.TrimSuffix(p, ext))
			if err == nil {
				names = append(names, filepath.ToSlash(rel))
			}

			return nil
		})
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// NameOf returns the template name of file, or false if file does not lie
// below one of the loader's directories.
func (l *Loader) NameOf(file string) (string, bool) {
	ext := filepath.Ext(file)
	if !slices.Contains(Extensions, ext) {
		return "", false
	}

	for _, dir := range l.dirs {
		rel, err := filepath.Rel(dir, strings.TrimSuffix(file, ext))
		if err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel), true
		}
	}

	return "", false
}
