package lang

import (
	"context"
	"log/slog"
	"maps"
	"regexp"
	"slices"

	"github.com/ardnew/panc/log"
)

// Context carries the mutable state that statements and expressions execute
// against. A context is used by a single goroutine.
type Context interface {
	// GlobalVariable returns the value of a global variable, or nil.
	GlobalVariable(name string) Element
	// SetGlobalVariable sets a global variable, optionally marking it final.
	SetGlobalVariable(name string, value Element, final bool) error
	// LocalVariable returns the value of a variable in the innermost frame,
	// or nil.
	LocalVariable(name string) Element
	// SetLocalVariable sets a variable in the innermost frame. A nil value
	// removes it.
	SetLocalVariable(name string, value Element) error

	// Element returns the element at the absolute path p, or nil.
	Element(p Path) (Element, error)
	// PutElement stores e at the absolute path p. A nil or Null e removes
	// the element. Final paths are not checked.
	PutElement(p Path, e Element) error
	// IsFinal reports whether p or one of its ancestors is final.
	IsFinal(p Path) bool
	// SetFinal marks p final.
	SetFinal(p Path)
	// FinalReason explains why p cannot be modified, or returns "".
	FinalReason(p Path) string

	// FullType returns the type declared as name.
	FullType(name string) (*FullType, error)
	// SetFullType declares a named type.
	SetFullType(name string, t *FullType) error
	// SetBinding binds t to the absolute path p.
	SetBinding(p Path, t *FullType) error

	// Function returns the function declared as name.
	Function(name string) (*Function, error)
	// SetFunction declares a function.
	SetFunction(fn *Function) error
	// PushFrame enters fn with the given arguments.
	PushFrame(fn *Function, args []Element) error
	// PopFrame leaves the innermost function.
	PopFrame()

	// PushTemplate enters tpl.
	PushTemplate(tpl *Template) error
	// PopTemplate leaves the innermost template.
	PopTemplate()
	// CurrentTemplate returns the innermost template, or nil.
	CurrentTemplate() *Template
	// LocalLoad returns a template already loaded by this context, or nil.
	LocalLoad(name string) (*Template, error)
	// GlobalLoad loads a template through the loader.
	GlobalLoad(name string) (*Template, error)
	// FirstInclusion reports whether name has not been included before and
	// records that it now has.
	FirstInclusion(name string) bool

	// IterationLimit is the maximum number of loop iterations.
	IterationLimit() int
	// CallLimit is the maximum depth of nested templates and functions.
	CallLimit() int

	// Self returns the value SELF refers to.
	Self() Element
	// SetSelf rebinds SELF and returns the previous value.
	SetSelf(e Element) Element
	// RestoreSelf reinstates a value returned by SetSelf.
	RestoreSelf(prev Element)
	// RelativeRoot returns the target of relative assignments, or nil
	// outside of structure templates.
	RelativeRoot() Container
	// SetRelativeRoot replaces the relative root and returns the previous
	// one.
	SetRelativeRoot(c Container) Container

	// IsCompileTime reports whether the context is the side-effect free
	// context used to fold constant expressions.
	IsCompileTime() bool
}

// reserved variables cannot be assigned by variable statements.
var reserved = map[string]bool{
	"OBJECT":   true,
	"SELF":     true,
	"ARGC":     true,
	"ARGV":     true,
	"FUNCTION": true,
	"TEMPLATE": true,
}

// IsReserved reports whether name is a reserved variable.
func IsReserved(name string) bool { return reserved[name] }

// Function is a user-declared function.
type Function struct {
	Body     Operation
	Name     string
	Template string
}

type global struct {
	value Element
	final bool
}

type binding struct {
	typ  *FullType
	path Path
	from string
}

type frame struct {
	vars map[string]Element
	fn   *Function
}

// BuildContext is the [Context] used to compile one object template.
type BuildContext struct {
	ctx       context.Context
	loader    Loader
	self      Element
	relRoot   Container
	root      *Dict
	globals   map[string]global
	functions map[string]*Function
	types     map[string]*FullType
	loaded    map[string]*Template
	included  map[string]bool
	finals    finalTrie
	logger    log.Logger
	loadPath  []string
	bindings  []binding
	frames    []frame
	templates []*Template
	deps      []string
	object    string
	callLimit int
	iterLimit int
	depth     int
}

// NewBuildContext returns a context for compiling the object template
// named object. The builtin primitive types are declared and OBJECT is set.
func NewBuildContext(
	ctx context.Context,
	loader Loader,
	object string,
	opts ...Option,
) *BuildContext {
	o := makeOptions(opts...)

	b := &BuildContext{
		ctx:       ctx,
		loader:    loader,
		self:      Undef,
		root:      NewDict(),
		globals:   map[string]global{},
		functions: map[string]*Function{},
		types:     map[string]*FullType{},
		loaded:    map[string]*Template{},
		included:  map[string]bool{},
		logger:    o.logger,
		loadPath:  o.loadPath,
		frames:    []frame{{vars: map[string]Element{}}},
		object:    object,
		callLimit: o.callLimit,
		iterLimit: o.iterLimit,
	}

	for _, name := range PrimitiveNames() {
		pt, _ := NewPrimitiveType(name, nil)
		b.types[name] = NewFullType(pt, nil, nil).named(name)
	}

	b.globals["OBJECT"] = global{value: String(object), final: true}

	return b
}

// Object returns the name of the object template.
func (b *BuildContext) Object() string { return b.object }

// Dependencies returns the names of every template loaded, in load order.
func (b *BuildContext) Dependencies() []string { return slices.Clone(b.deps) }

// Root returns a protected handle on the configuration tree.
func (b *BuildContext) Root() Resource { return b.root.Protect() }

// GlobalVariable implements [Context].
func (b *BuildContext) GlobalVariable(name string) Element {
	g, ok := b.globals[name]
	if !ok {
		return nil
	}

	return g.value
}

// SetGlobalVariable implements [Context].
func (b *BuildContext) SetGlobalVariable(name string, value Element, final bool) error {
	if g, ok := b.globals[name]; ok && g.final {
		return ErrFinalVariable.Wrapf("variable %s is final", name)
	}

	if value == nil {
		delete(b.globals, name)

		return nil
	}

	b.globals[name] = global{value: value, final: final}

	b.logger.Trace("set variable",
		slog.String("name", name),
		attrElement("value", value),
		slog.Bool("final", final))

	return nil
}

// LocalVariable implements [Context].
func (b *BuildContext) LocalVariable(name string) Element {
	return b.frames[len(b.frames)-1].vars[name]
}

// SetLocalVariable implements [Context].
func (b *BuildContext) SetLocalVariable(name string, value Element) error {
	vars := b.frames[len(b.frames)-1].vars
	if value == nil {
		delete(vars, name)
	} else {
		vars[name] = value
	}

	return nil
}

// Element implements [Context].
func (b *BuildContext) Element(p Path) (Element, error) {
	if !p.IsAbsolute() {
		return nil, ErrInvalidPath.Wrapf("path %q is not absolute", p)
	}

	e, err := getPath(b.root, p.terms, false)
	if err != nil || e == nil {
		return e, err
	}

	return protect(e), nil
}

// PutElement implements [Context].
func (b *BuildContext) PutElement(p Path, e Element) error {
	if !p.IsAbsolute() {
		return ErrInvalidPath.Wrapf("path %q is not absolute", p)
	}

	if p.Len() == 0 {
		return b.replaceRoot(e)
	}

	return putPath(b.root, p.terms, e)
}

func (b *BuildContext) replaceRoot(e Element) error {
	if e == nil || IsNull(e) {
		b.root = NewDict()

		return nil
	}

	r, ok := e.(Resource)
	if !ok || r.Kind() != KindDict {
		return ErrInvalidReplacement.Wrapf("cannot replace root dict with %s", TypeName(e))
	}

	d, ok := r.WritableCopy().(*Dict)
	if !ok {
		return defect("writable copy of dict is %T", r.WritableCopy())
	}

	b.root = d

	return nil
}

// IsFinal implements [Context].
func (b *BuildContext) IsFinal(p Path) bool {
	_, ok := b.finals.ancestor(p.terms)

	return ok
}

// SetFinal implements [Context].
func (b *BuildContext) SetFinal(p Path) { b.finals.mark(p.terms) }

// FinalReason implements [Context].
func (b *BuildContext) FinalReason(p Path) string { return b.finals.reason(p) }

// FullType implements [Context].
func (b *BuildContext) FullType(name string) (*FullType, error) {
	t, ok := b.types[name]
	if !ok {
		return nil, ErrTypeNotFound.Wrapf("%s%s", name,
			DidYouMean(name, slices.Collect(maps.Keys(b.types))))
	}

	return t, nil
}

// SetFullType implements [Context].
func (b *BuildContext) SetFullType(name string, t *FullType) error {
	if _, ok := b.types[name]; ok {
		return ErrRedefined.Wrapf("type %s", name)
	}

	b.types[name] = t.named(name)

	b.logger.Trace("declare type",
		slog.String("type", name),
		slog.String("template", b.currentName()))

	return nil
}

// SetBinding implements [Context].
func (b *BuildContext) SetBinding(p Path, t *FullType) error {
	if !p.IsAbsolute() {
		return ErrInvalidBinding.Wrapf("path %q is not absolute", p)
	}

	b.bindings = append(b.bindings, binding{path: p, typ: t, from: b.currentName()})

	b.logger.Trace("bind type",
		slog.String("path", p.String()),
		slog.String("type", t.String()),
		slog.String("template", b.currentName()))

	return nil
}

// Function implements [Context].
func (b *BuildContext) Function(name string) (*Function, error) {
	fn, ok := b.functions[name]
	if !ok {
		return nil, ErrUndefinedFunction.Wrapf("%s%s", name, DidYouMean(name, functionNames(b.functions)))
	}

	return fn, nil
}

// SetFunction implements [Context].
func (b *BuildContext) SetFunction(fn *Function) error {
	if _, ok := builtins()[fn.Name]; ok {
		return ErrRedefined.Wrapf("function %s is a builtin", fn.Name)
	}

	if prev, ok := b.functions[fn.Name]; ok {
		return ErrRedefined.Wrapf("function %s already defined in %s", fn.Name, prev.Template)
	}

	b.functions[fn.Name] = fn

	return nil
}

// PushFrame implements [Context].
func (b *BuildContext) PushFrame(fn *Function, args []Element) error {
	if err := b.enter(fn.Name); err != nil {
		return err
	}

	argv := NewList(args...)
	b.frames = append(b.frames, frame{
		fn: fn,
		vars: map[string]Element{
			"ARGC":     Long(len(args)),
			"ARGV":     argv.Protect(),
			"FUNCTION": String(fn.Name),
		},
	})

	return nil
}

// PopFrame implements [Context].
func (b *BuildContext) PopFrame() {
	if len(b.frames) > 1 {
		b.frames = b.frames[:len(b.frames)-1]
		b.depth--
	}
}

func (b *BuildContext) enter(name string) error {
	if b.depth >= b.callLimit {
		return ErrCallDepthExceeded.Wrapf("entering %s exceeds call depth limit %d", name, b.callLimit)
	}

	b.depth++

	return nil
}

// PushTemplate implements [Context].
func (b *BuildContext) PushTemplate(tpl *Template) error {
	if err := b.ctx.Err(); err != nil {
		return WrapError(err).Locate(tpl.Name())
	}

	if err := b.enter(tpl.Name()); err != nil {
		return err
	}

	b.templates = append(b.templates, tpl)

	b.logger.Trace("enter template",
		slog.String("template", tpl.Name()),
		slog.String("kind", tpl.Kind().String()),
		slog.Int("depth", b.depth))

	return nil
}

// PopTemplate implements [Context].
func (b *BuildContext) PopTemplate() {
	if len(b.templates) == 0 {
		return
	}

	tpl := b.templates[len(b.templates)-1]
	b.templates = b.templates[:len(b.templates)-1]
	b.depth--

	b.logger.Trace("leave template", slog.String("template", tpl.Name()))
}

// CurrentTemplate implements [Context].
func (b *BuildContext) CurrentTemplate() *Template {
	if len(b.templates) == 0 {
		return nil
	}

	return b.templates[len(b.templates)-1]
}

func (b *BuildContext) currentName() string {
	if tpl := b.CurrentTemplate(); tpl != nil {
		return tpl.Name()
	}

	return ""
}

// LocalLoad implements [Context].
func (b *BuildContext) LocalLoad(name string) (*Template, error) {
	return b.loaded[name], nil
}

// GlobalLoad implements [Context]. The relative load path prefixes set
// through LOADPATH are tried in order before the bare name.
func (b *BuildContext) GlobalLoad(name string) (*Template, error) {
	if b.loader == nil {
		return nil, ErrTemplateNotFound.Wrapf("%s: no loader configured", name)
	}

	prefixes, err := b.relativeLoadPath()
	if err != nil {
		return nil, err
	}

	tpl, err := b.loader.Load(b.ctx, name, prefixes)
	if err != nil {
		return nil, err
	}

	if _, ok := b.loaded[tpl.Name()]; !ok {
		b.deps = append(b.deps, tpl.Name())
	}

	b.loaded[name] = tpl
	b.loaded[tpl.Name()] = tpl

	b.logger.Debug("load template",
		slog.String("name", name),
		slog.String("template", tpl.Name()),
		slog.String("source", tpl.Source()))

	return tpl, nil
}

// relativeLoadPath returns the LOADPATH prefixes followed by those given
// with [WithLoadPath].
func (b *BuildContext) relativeLoadPath() ([]string, error) {
	prefixes, err := loadPathOf(b.GlobalVariable("LOADPATH"))
	if err != nil {
		return nil, err
	}

	return append(prefixes, b.loadPath...), nil
}

// loadPathOf converts a LOADPATH value to a list of prefixes.
func loadPathOf(e Element) ([]string, error) {
	switch v := e.(type) {
	case nil, nullElement, undefElement:
		return nil, nil
	case String:
		return []string{string(v)}, nil
	case Resource:
		if v.Kind() != KindList {
			break
		}

		out := make([]string, 0, v.Len())

		for _, child := range v.All() {
			s, ok := child.(String)
			if !ok {
				return nil, ErrInvalidArgument.Wrapf(
					"LOADPATH entries must be strings, found %s", TypeName(child))
			}

			out = append(out, string(s))
		}

		return out, nil
	}

	return nil, ErrInvalidArgument.Wrapf(
		"LOADPATH must be a string or list of strings, found %s", TypeName(e))
}

// FirstInclusion implements [Context].
func (b *BuildContext) FirstInclusion(name string) bool {
	if b.included[name] {
		return false
	}

	b.included[name] = true

	return true
}

// IterationLimit implements [Context].
func (b *BuildContext) IterationLimit() int { return b.iterLimit }

// CallLimit implements [Context].
func (b *BuildContext) CallLimit() int { return b.callLimit }

// Self implements [Context].
func (b *BuildContext) Self() Element { return b.self }

// SetSelf implements [Context].
func (b *BuildContext) SetSelf(e Element) Element {
	prev := b.self
	if e == nil {
		e = Undef
	}

	b.self = e

	return prev
}

// RestoreSelf implements [Context].
func (b *BuildContext) RestoreSelf(prev Element) { b.self = prev }

// RelativeRoot implements [Context].
func (b *BuildContext) RelativeRoot() Container { return b.relRoot }

// SetRelativeRoot implements [Context].
func (b *BuildContext) SetRelativeRoot(c Container) Container {
	prev := b.relRoot
	b.relRoot = c

	return prev
}

// IsCompileTime implements [Context].
func (*BuildContext) IsCompileTime() bool { return false }

// Finish runs the defaults pass and then the validation pass over every
// binding, in path order. It returns the protected root of the finished
// tree. Undef values left anywhere in the tree are reported as validation
// errors.
func (b *BuildContext) Finish() (Resource, error) {
	order := slices.Clone(b.bindings)
	slices.SortStableFunc(order, func(x, y binding) int { return x.path.Compare(y.path) })

	for _, bd := range order {
		cur, err := b.Element(bd.path)
		if err != nil {
			return nil, locate(err, bd.from)
		}

		next, err := bd.typ.SetDefaults(b, cur)
		if err != nil {
			return nil, locate(err, bd.from)
		}

		if next != nil {
			if err := b.PutElement(bd.path, next); err != nil {
				return nil, locate(err, bd.from)
			}
		}
	}

	for _, bd := range order {
		b.logger.Trace("validate",
			slog.String("path", bd.path.String()),
			slog.String("type", bd.typ.String()))

		cur, err := b.Element(bd.path)
		if err != nil {
			return nil, locate(err, bd.from)
		}

		if err := bd.typ.Validate(b, cur); err != nil {
			if ve, ok := asValidationError(err); ok {
				ve.bind(bd.path, bd.typ.String())
			}

			return nil, locate(err, bd.from)
		}
	}

	if ve := findUndef(b.root); ve != nil {
		return nil, ve.bind(Root, "")
	}

	return b.root.Protect(), nil
}

// findUndef reports the first Undef element below r.
func findUndef(r Resource) *ValidationError {
	for t, child := range r.All() {
		if IsUndef(child) {
			return newValidationError("undefined element in profile").addTerm(t)
		}

		if res, ok := child.(Resource); ok {
			if ve := findUndef(res); ve != nil {
				return ve.addTerm(t)
			}
		}
	}

	return nil
}

var substitution = regexp.MustCompile(`\$\{([^}]*)\}`)

// substitute replaces every ${name} in s with the string form of the
// global variable name.
func substitute(ctx Context, s string) (string, error) {
	var err error

	out := substitution.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-1]

		v := ctx.GlobalVariable(name)
		if v == nil {
			if err == nil {
				err = ErrUndefinedVariable.Wrapf("%s", name)
			}

			return m
		}

		return v.String()
	})

	return out, err
}

func functionNames(m map[string]*Function) []string {
	names := slices.Collect(maps.Keys(m))
	for name := range builtins() {
		names = append(names, name)
	}

	return names
}
