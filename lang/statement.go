package lang

import (
	"strings"
)

// Statement is an executable unit of a template. Statements are immutable
// and may be executed any number of times, against any context.
type Statement interface {
	Execute(ctx Context) error

	statement()
}

func (*Assignment) statement()        {}
func (*ConstAssignment) statement()   {}
func (*DeleteAssignment) statement()  {}
func (*VariableStatement) statement() {}
func (*BindStatement) statement()     {}
func (*FunctionStatement) statement() {}
func (*TypeStatement) statement()     {}
func (*IncludeStatement) statement()  {}

// assigner is implemented by the statements that write to the tree.
type assigner interface {
	target() Path
}

// assignTarget holds what every assignment variant shares: the target path
// and the conditional and final flags.
type assignTarget struct {
	path        Path
	conditional bool
	final       bool
}

func newAssignTarget(p Path, conditional, final bool) (assignTarget, error) {
	if p.IsExternal() {
		return assignTarget{}, ErrInvalidStatement.Wrapf(
			"external path %s cannot be assigned", p)
	}

	return assignTarget{path: p, conditional: conditional, final: final}, nil
}

func (a assignTarget) target() Path { return a.path }

func (a assignTarget) current(ctx Context) (Element, error) {
	if a.path.IsRelative() {
		root := ctx.RelativeRoot()
		if root == nil {
			return nil, ErrInvalidStatement.Wrapf(
				"relative path %s outside of structure template", a.path)
		}

		return getPath(root, a.path.terms, true)
	}

	return ctx.Element(a.path)
}

// run performs the assignment protocol. The current value is read, the
// conditional guard is applied, compute is called to produce the new value
// and the result is written, subject to the final checks. The path is
// marked final afterwards if requested, whether or not a write happened.
func (a assignTarget) run(ctx Context, compute func(cur Element) (Element, error)) error {
	cur, err := a.current(ctx)
	if err != nil {
		return err
	}

	if !a.conditional || IsUndef(cur) {
		v, err := compute(cur)
		if err != nil {
			return err
		}

		if err := a.write(ctx, cur, v); err != nil {
			return err
		}
	}

	if a.final && a.path.IsAbsolute() {
		ctx.SetFinal(a.path)
	}

	return nil
}

func (a assignTarget) write(ctx Context, cur, v Element) error {
	if a.path.IsRelative() {
		return putPath(ctx.RelativeRoot(), a.path.terms, v)
	}

	if reason := ctx.FinalReason(a.path); reason != "" {
		if ctx.IsFinal(a.path) && cur != nil && v != nil && Equal(cur, v) {
			return nil
		}

		return ErrFinalViolation.Wrapf("%s", reason)
	}

	return ctx.PutElement(a.path, v)
}

// Assignment writes the value of an expression to a path. SELF refers to
// the current value at the path while the expression runs.
type Assignment struct {
	value Operation
	assignTarget
}

// ConstAssignment writes a constant to a path.
type ConstAssignment struct {
	value Element
	assignTarget
}

// DeleteAssignment removes the element at a path.
type DeleteAssignment struct {
	assignTarget
}

// NewAssignment returns the statement "path = value", or "path ?= value"
// if conditional, optionally marking the path final. Constant values select
// a [*ConstAssignment] and a constant null a [*DeleteAssignment].
func NewAssignment(p Path, value Operation, conditional, final bool) (Statement, error) {
	at, err := newAssignTarget(p, conditional, final)
	if err != nil {
		return nil, err
	}

	if value == nil {
		return nil, ErrInvalidStatement.Wrapf("assignment to %s has no value", p)
	}

	if v, ok := Constant(value); ok {
		if IsNull(v) {
			return &DeleteAssignment{assignTarget: at}, nil
		}

		return &ConstAssignment{assignTarget: at, value: v}, nil
	}

	return &Assignment{assignTarget: at, value: value}, nil
}

// Execute implements [Statement].
func (s *Assignment) Execute(ctx Context) error {
	return s.run(ctx, func(cur Element) (Element, error) {
		prev := ctx.SetSelf(protect(cur))
		defer ctx.RestoreSelf(prev)

		return s.value.Execute(ctx)
	})
}

// Execute implements [Statement].
func (s *ConstAssignment) Execute(ctx Context) error {
	return s.run(ctx, func(Element) (Element, error) { return s.value, nil })
}

// Execute implements [Statement].
func (s *DeleteAssignment) Execute(ctx Context) error {
	return s.run(ctx, func(Element) (Element, error) { return nil, nil })
}

// VariableStatement sets a global variable.
type VariableStatement struct {
	value       Operation
	constant    Element
	name        string
	conditional bool
	final       bool
}

// NewVariable returns the statement "variable name = value", or "?=" if
// conditional, optionally marking the variable final.
func NewVariable(name string, value Operation, conditional, final bool) (*VariableStatement, error) {
	if IsReserved(name) {
		return nil, ErrReservedVariable.Wrapf("%s", name)
	}

	if value == nil {
		return nil, ErrInvalidStatement.Wrapf("variable %s has no value", name)
	}

	if _, err := Key(name); err != nil {
		return nil, ErrInvalidStatement.Wrapf("invalid variable name %q", name)
	}

	s := &VariableStatement{
		name:        name,
		conditional: conditional,
		final:       final,
	}

	if v, ok := Constant(value); ok {
		s.constant = v
	} else {
		s.value = value
	}

	return s, nil
}

// Execute implements [Statement].
func (s *VariableStatement) Execute(ctx Context) error {
	cur := ctx.GlobalVariable(s.name)
	if s.conditional && !(IsUndef(cur) || IsNull(cur)) {
		return nil
	}

	v := s.constant
	if s.value != nil {
		prev := ctx.SetSelf(protect(cur))

		var err error

		v, err = s.value.Execute(ctx)

		ctx.RestoreSelf(prev)

		if err != nil {
			return err
		}
	}

	if s.name == "LOADPATH" {
		if _, err := loadPathOf(v); err != nil {
			return err
		}
	}

	return ctx.SetGlobalVariable(s.name, protect(v), s.final)
}

// BindStatement binds a type to an absolute path. A dynamic binding
// substitutes ${name} references with global variables when executed.
type BindStatement struct {
	typ     *FullType
	pattern string
	path    Path
}

// NewBind returns the statement "bind path = type".
func NewBind(path string, typ *FullType) (*BindStatement, error) {
	if strings.Contains(path, "${") {
		return &BindStatement{pattern: path, typ: typ}, nil
	}

	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	if !p.IsAbsolute() {
		return nil, ErrInvalidStatement.Wrapf("bind path %s must be absolute", p)
	}

	return &BindStatement{path: p, typ: typ}, nil
}

// Execute implements [Statement].
func (s *BindStatement) Execute(ctx Context) error {
	p := s.path

	if s.pattern != "" {
		text, err := substitute(ctx, s.pattern)
		if err != nil {
			return err
		}

		if p, err = ParsePath(text); err != nil {
			return ErrInvalidBinding.Wrap(err)
		}

		if !p.IsAbsolute() {
			return ErrInvalidBinding.Wrapf("bind path %s must be absolute", p)
		}
	}

	return ctx.SetBinding(p, s.typ)
}

// FunctionStatement declares a function.
type FunctionStatement struct {
	body Operation
	name string
}

// NewFunction returns the statement "function name = body".
func NewFunction(name string, body Operation) (*FunctionStatement, error) {
	if _, err := Key(name); err != nil {
		return nil, ErrInvalidStatement.Wrapf("invalid function name %q", name)
	}

	return &FunctionStatement{name: name, body: body}, nil
}

// Execute implements [Statement].
func (s *FunctionStatement) Execute(ctx Context) error {
	var from string
	if tpl := ctx.CurrentTemplate(); tpl != nil {
		from = tpl.Name()
	}

	return ctx.SetFunction(&Function{Name: s.name, Body: s.body, Template: from})
}

// TypeStatement declares a named type.
type TypeStatement struct {
	typ  *FullType
	name string
}

// NewTypeStatement returns the statement "type name = type".
func NewTypeStatement(name string, typ *FullType) (*TypeStatement, error) {
	if _, err := Key(name); err != nil {
		return nil, ErrInvalidStatement.Wrapf("invalid type name %q", name)
	}

	return &TypeStatement{name: name, typ: typ}, nil
}

// Execute implements [Statement].
func (s *TypeStatement) Execute(ctx Context) error {
	return ctx.SetFullType(s.name, s.typ)
}

// IncludeStatement executes another template in the current context.
type IncludeStatement struct {
	value Operation
	name  string
}

// NewInclude returns the statement "include name".
func NewInclude(name string) (*IncludeStatement, error) {
	if !ValidTemplateName(name) {
		return nil, ErrInvalidTemplateName.Wrapf("%q", name)
	}

	return &IncludeStatement{name: name}, nil
}

// NewComputedInclude returns an include whose template name is computed. A
// null or undefined name makes the include a no-op.
func NewComputedInclude(value Operation) (*IncludeStatement, error) {
	if v, ok := Constant(value); ok {
		if s, ok := v.(String); ok {
			return NewInclude(string(s))
		}
	}

	return &IncludeStatement{value: value}, nil
}

// Execute implements [Statement].
func (s *IncludeStatement) Execute(ctx Context) error {
	name := s.name

	if s.value != nil {
		v, err := s.value.Execute(ctx)
		if err != nil {
			return err
		}

		switch v := v.(type) {
		case String:
			name = string(v)
		case nullElement, undefElement:
			return nil
		default:
			return ErrInvalidInclude.Wrapf(
				"template name must be a string, found %s", TypeName(v))
		}

		if !ValidTemplateName(name) {
			return ErrInvalidTemplateName.Wrapf("%q", name)
		}
	}

	tpl, err := load(ctx, name)
	if err != nil {
		return err
	}

	if cur := ctx.CurrentTemplate(); cur != nil && !cur.Kind().CanInclude(tpl.Kind()) {
		return ErrInvalidInclude.Wrapf("%s template %s cannot include %s template %s",
			cur.Kind(), cur.Name(), tpl.Kind(), tpl.Name())
	}

	if tpl.Kind() == TemplateUnique || tpl.Kind() == TemplateDeclaration {
		if !ctx.FirstInclusion(tpl.Name()) {
			return nil
		}
	}

	return run(ctx, tpl)
}

// load finds a template already loaded by ctx, or loads it.
func load(ctx Context, name string) (*Template, error) {
	tpl, err := ctx.LocalLoad(name)
	if err != nil {
		return nil, err
	}

	if tpl != nil {
		return tpl, nil
	}

	return ctx.GlobalLoad(name)
}

// run executes tpl as the innermost template.
func run(ctx Context, tpl *Template) error {
	if err := ctx.PushTemplate(tpl); err != nil {
		return err
	}

	defer ctx.PopTemplate()

	return tpl.Execute(ctx)
}
