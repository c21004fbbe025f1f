package lang

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

// Profile is the finished configuration tree of one object template.
type Profile struct {
	root     Resource
	name     string
	deps     []string
	duration time.Duration
}

// Name returns the name of the object template.
func (p *Profile) Name() string { return p.name }

// Root returns the protected root dict of the profile.
func (p *Profile) Root() Resource { return p.root }

// Dependencies returns the names of every template the build loaded, the
// object template first.
func (p *Profile) Dependencies() []string { return slices.Clone(p.deps) }

// Duration returns how long the build took.
func (p *Profile) Duration() time.Duration { return p.duration }

// Build compiles the object template named object into a [Profile].
//
// The template is loaded through loader and executed in a fresh
// [BuildContext]; the defaults and validation passes then run over every
// bound path. The returned error is an [*Error] or, for failures of the
// validation pass, a [*ValidationError].
func Build(ctx context.Context, loader Loader, object string, opts ...Option) (*Profile, error) {
	start := time.Now()
	logger := makeOptions(opts...).logger

	b := NewBuildContext(ctx, loader, object, opts...)

	tpl, err := b.GlobalLoad(object)
	if err != nil {
		return nil, err
	}

	if tpl.Kind() != TemplateObject {
		return nil, ErrInvalidInclude.Wrapf(
			"%s is a %s template, expected object", tpl.Name(), tpl.Kind())
	}

	if err := run(b, tpl); err != nil {
		logger.Debug("build failed",
			slog.String("object", object),
			slog.Any("error", err))

		return nil, err
	}

	root, err := b.Finish()
	if err != nil {
		logger.Debug("validation failed",
			slog.String("object", object),
			slog.Any("error", err))

		return nil, err
	}

	p := &Profile{
		name:     object,
		root:     root,
		deps:     b.Dependencies(),
		duration: time.Since(start),
	}

	logger.Info("compiled profile",
		slog.String("object", object),
		slog.Int("templates", len(p.deps)),
		slog.Duration("duration", p.duration))

	return p, nil
}
