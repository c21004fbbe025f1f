package lang

import (
	"strings"
)

// Operation is a compiled expression.
type Operation interface {
	// Execute evaluates the expression. Resources in the result are either
	// protected or freshly created and owned by the caller.
	Execute(ctx Context) (Element, error)
}

// Literal is a constant expression.
type Literal struct {
	value Element
}

// NewLiteral returns an operation that always evaluates to e. Resources
// are stored protected.
func NewLiteral(e Element) *Literal { return &Literal{value: protect(e)} }

// Execute implements [Operation].
func (l *Literal) Execute(Context) (Element, error) { return l.value, nil }

// Value returns the constant.
func (l *Literal) Value() Element { return l.value }

// Constant reports whether op is a literal and returns its value.
func Constant(op Operation) (Element, bool) {
	if l, ok := op.(*Literal); ok {
		return l.value, true
	}

	return nil, false
}

// variableRef reads a variable. Locals shadow globals. An owned container
// held by a local is relinquished on read: the variable keeps a protected
// handle so later modifications copy instead of changing what the reader
// saw.
type variableRef struct {
	name string
}

func (v *variableRef) Execute(ctx Context) (Element, error) {
	switch v.name {
	case "SELF":
		self := ctx.Self()
		if c, ok := self.(Container); ok {
			h := c.Protect()
			ctx.SetSelf(h)

			return h, nil
		}

		return self, nil

	case "TEMPLATE":
		if tpl := ctx.CurrentTemplate(); tpl != nil {
			return String(tpl.Name()), nil
		}

		return Undef, nil
	}

	if e := ctx.LocalVariable(v.name); e != nil {
		if c, ok := e.(Container); ok {
			h := c.Protect()
			if err := ctx.SetLocalVariable(v.name, h); err != nil {
				return nil, err
			}

			return h, nil
		}

		return e, nil
	}

	if e := ctx.GlobalVariable(v.name); e != nil {
		return protect(e), nil
	}

	return nil, ErrUndefinedVariable.Wrapf("%s", v.name)
}

type unaryOp struct {
	x  Operation
	op string
}

func (u *unaryOp) Execute(ctx Context) (Element, error) {
	x, err := u.x.Execute(ctx)
	if err != nil {
		return nil, err
	}

	switch u.op {
	case "-":
		return negate(x)
	case "+":
		if _, ok := toFloat(x); !ok {
			return nil, ErrMismatchedTypes.Wrapf("unary + not defined for %s", TypeName(x))
		}

		return x, nil
	case "!", "not":
		b, ok := x.(Boolean)
		if !ok {
			return nil, ErrMismatchedTypes.Wrapf("logical not requires boolean, found %s", TypeName(x))
		}

		return !b, nil
	}

	return nil, defect("unknown unary operator %q", u.op)
}

type binaryOp struct {
	l, r Operation
	op   string
}

func (b *binaryOp) Execute(ctx Context) (Element, error) {
	l, err := b.l.Execute(ctx)
	if err != nil {
		return nil, err
	}

	r, err := b.r.Execute(ctx)
	if err != nil {
		return nil, err
	}

	switch b.op {
	case "+", "-", "*", "/", "%":
		return arithmetic(b.op, l, r)
	case "==", "!=", "<", "<=", ">", ">=":
		return comparison(b.op, l, r)
	case "matches":
		return matches(l, r)
	case "in":
		return membership(l, r)
	case "contains", "startsWith", "endsWith":
		return stringTest(b.op, l, r)
	case "..":
		return span(ctx.IterationLimit(), l, r)
	}

	return nil, defect("unknown binary operator %q", b.op)
}

func stringTest(op string, l, r Element) (Element, error) {
	s, ok1 := l.(String)
	sub, ok2 := r.(String)

	if !ok1 || !ok2 {
		return nil, ErrMismatchedTypes.Wrapf(
			"%s requires strings, found %s and %s", op, TypeName(l), TypeName(r))
	}

	switch op {
	case "contains":
		return Boolean(strings.Contains(string(s), string(sub))), nil
	case "startsWith":
		return Boolean(strings.HasPrefix(string(s), string(sub))), nil
	default:
		return Boolean(strings.HasSuffix(string(s), string(sub))), nil
	}
}

// logicalOp is a short-circuiting && or ||.
type logicalOp struct {
	l, r Operation
	and  bool
}

func (o *logicalOp) Execute(ctx Context) (Element, error) {
	l, err := evalBoolean(ctx, o.l)
	if err != nil {
		return nil, err
	}

	if l != o.and {
		return Boolean(l), nil
	}

	r, err := evalBoolean(ctx, o.r)
	if err != nil {
		return nil, err
	}

	return Boolean(r), nil
}

func evalBoolean(ctx Context, op Operation) (bool, error) {
	v, err := op.Execute(ctx)
	if err != nil {
		return false, err
	}

	b, ok := v.(Boolean)
	if !ok {
		return false, ErrMismatchedTypes.Wrapf("expected boolean, found %s", TypeName(v))
	}

	return bool(b), nil
}

// coalesceOp returns its left operand unless it is undef or null.
type coalesceOp struct {
	l, r Operation
}

func (o *coalesceOp) Execute(ctx Context) (Element, error) {
	l, err := o.l.Execute(ctx)
	if err != nil {
		return nil, err
	}

	if !IsUndef(l) && !IsNull(l) {
		return l, nil
	}

	return o.r.Execute(ctx)
}

type conditionalOp struct {
	cond, then, els Operation
}

func (o *conditionalOp) Execute(ctx Context) (Element, error) {
	c, err := evalBoolean(ctx, o.cond)
	if err != nil {
		return nil, err
	}

	if c {
		return o.then.Execute(ctx)
	}

	return o.els.Execute(ctx)
}

type sequenceOp struct {
	ops []Operation
}

func (o *sequenceOp) Execute(ctx Context) (Element, error) {
	var (
		v   Element = Undef
		err error
	)

	for _, op := range o.ops {
		if v, err = op.Execute(ctx); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// letOp binds a local variable for the duration of its body.
type letOp struct {
	value, body Operation
	name        string
}

func (o *letOp) Execute(ctx Context) (Element, error) {
	v, err := o.value.Execute(ctx)
	if err != nil {
		return nil, err
	}

	prev := ctx.LocalVariable(o.name)
	if err := ctx.SetLocalVariable(o.name, v); err != nil {
		return nil, err
	}

	out, err := o.body.Execute(ctx)

	if rerr := ctx.SetLocalVariable(o.name, prev); err == nil {
		err = rerr
	}

	return out, err
}

type listOp struct {
	items []Operation
}

func (o *listOp) Execute(ctx Context) (Element, error) {
	l := &List{items: make([]Element, 0, len(o.items))}

	for _, item := range o.items {
		v, err := item.Execute(ctx)
		if err != nil {
			return nil, err
		}

		l.items = append(l.items, v)
	}

	return l, nil
}

type dictOp struct {
	keys, values []Operation
}

func (o *dictOp) Execute(ctx Context) (Element, error) {
	d := NewDict()

	for i, kop := range o.keys {
		k, err := kop.Execute(ctx)
		if err != nil {
			return nil, err
		}

		s, ok := k.(String)
		if !ok {
			return nil, ErrInvalidTerm.Wrapf("dict key must be a string, found %s", TypeName(k))
		}

		v, err := o.values[i].Execute(ctx)
		if err != nil {
			return nil, err
		}

		if err := d.PutKey(string(s), v); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// indexOp reads a child of a resource. With optional set, a missing
// child or a null base yields null instead of an error.
type indexOp struct {
	base, sub Operation
	optional  bool
}

func (o *indexOp) Execute(ctx Context) (Element, error) {
	b, err := o.base.Execute(ctx)
	if err != nil {
		return nil, err
	}

	if o.optional && (IsUndef(b) || IsNull(b)) {
		return Null, nil
	}

	s, err := o.sub.Execute(ctx)
	if err != nil {
		return nil, err
	}

	r, ok := b.(Resource)
	if !ok {
		return nil, ErrMismatchedTypes.Wrapf("cannot index %s", TypeName(b))
	}

	t, err := TermOf(s)
	if err != nil {
		return nil, err
	}

	if mismatched(r, t) {
		return nil, termMismatch(r, t, 0)
	}

	child, err := r.Get(t)
	if err != nil {
		return nil, err
	}

	if child == nil {
		if o.optional {
			return Null, nil
		}

		return nil, ErrNonexistentElement.Wrapf("no entry %s in %s", t, TypeName(b))
	}

	return protect(child), nil
}

// sliceOp selects a range of a list or a string. Missing bounds default
// to the start and the end.
type sliceOp struct {
	base, from, to Operation
}

func (o *sliceOp) Execute(ctx Context) (Element, error) {
	b, err := o.base.Execute(ctx)
	if err != nil {
		return nil, err
	}

	var n int

	switch v := b.(type) {
	case String:
		n = len(v)
	case Resource:
		if v.Kind() != KindList {
			return nil, ErrMismatchedTypes.Wrapf("cannot slice %s", TypeName(b))
		}

		n = v.Len()
	default:
		return nil, ErrMismatchedTypes.Wrapf("cannot slice %s", TypeName(b))
	}

	lo, err := optionalIndex(ctx, o.from, 0)
	if err != nil {
		return nil, err
	}

	hi, err := optionalIndex(ctx, o.to, n)
	if err != nil {
		return nil, err
	}

	if lo < 0 || hi > n || lo > hi {
		return nil, ErrInvalidArgument.Wrapf("slice bounds [%d:%d] out of range [0:%d]", lo, hi, n)
	}

	if s, ok := b.(String); ok {
		return s[lo:hi], nil
	}

	out := NewList()
	for t, e := range b.(Resource).All() {
		if i := t.Index(); i >= lo && i < hi {
			out.items = append(out.items, protect(e))
		}
	}

	return out, nil
}

func optionalIndex(ctx Context, op Operation, def int) (int, error) {
	if op == nil {
		return def, nil
	}

	v, err := op.Execute(ctx)
	if err != nil {
		return 0, err
	}

	l, ok := v.(Long)
	if !ok {
		return 0, ErrMismatchedTypes.Wrapf("index must be long, found %s", TypeName(v))
	}

	return int(l), nil
}

// functionCall invokes a user function. Arguments are evaluated in the
// caller's frame.
type functionCall struct {
	name string
	args []Operation
}

func (o *functionCall) Execute(ctx Context) (Element, error) {
	fn, err := ctx.Function(o.name)
	if err != nil {
		return nil, err
	}

	args, err := evalAll(ctx, o.args)
	if err != nil {
		return nil, err
	}

	if err := ctx.PushFrame(fn, args); err != nil {
		return nil, err
	}

	defer ctx.PopFrame()

	v, err := fn.Body.Execute(ctx)
	if err != nil {
		return nil, err
	}

	if v == nil {
		return Undef, nil
	}

	return v, nil
}

func evalAll(ctx Context, ops []Operation) ([]Element, error) {
	out := make([]Element, len(ops))

	for i, op := range ops {
		v, err := op.Execute(ctx)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

// setOp modifies a variable or a part of one. The root is SELF, a local
// or a global; subscripts address a child, creating intermediate
// containers as needed. The assigned value is the result.
type setOp struct {
	value Operation
	root  string
	subs  []Operation
}

func (o *setOp) Execute(ctx Context) (Element, error) {
	v, err := o.value.Execute(ctx)
	if err != nil {
		return nil, err
	}

	terms := make([]Term, len(o.subs))

	for i, sub := range o.subs {
		s, err := sub.Execute(ctx)
		if err != nil {
			return nil, err
		}

		if terms[i], err = TermOf(s); err != nil {
			return nil, err
		}
	}

	cur, store := o.target(ctx)

	if len(terms) == 0 {
		return v, store(v)
	}

	var c Container

	switch r := cur.(type) {
	case Container:
		c = r
	case Resource:
		c = r.WritableCopy()
	default:
		if !IsUndef(cur) && !IsNull(cur) {
			return nil, ErrInvalidTermKind.Wrapf("cannot index %s %s", TypeName(cur), o.root)
		}

		c = newContainerFor(terms[0])
	}

	if err := putPath(c, terms, v); err != nil {
		return nil, err
	}

	if c != cur {
		if err := store(c); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// target returns the current value of the root variable and a function
// that replaces it. Globals are always stored protected.
func (o *setOp) target(ctx Context) (Element, func(Element) error) {
	if o.root == "SELF" {
		return ctx.Self(), func(e Element) error {
			ctx.SetSelf(e)

			return nil
		}
	}

	if e := ctx.LocalVariable(o.root); e != nil || ctx.GlobalVariable(o.root) == nil {
		return e, func(v Element) error { return ctx.SetLocalVariable(o.root, v) }
	}

	return protect(ctx.GlobalVariable(o.root)), func(v Element) error {
		return ctx.SetGlobalVariable(o.root, protect(v), false)
	}
}

// forOp is for(init, cond, step, body).
type forOp struct {
	init, cond, step, body Operation
}

func (o *forOp) Execute(ctx Context) (Element, error) {
	if _, err := o.init.Execute(ctx); err != nil {
		return nil, err
	}

	return loop(ctx, o.cond, o.body, o.step)
}

// whileOp is while(cond, body).
type whileOp struct {
	cond, body Operation
}

func (o *whileOp) Execute(ctx Context) (Element, error) {
	return loop(ctx, o.cond, o.body, nil)
}

func loop(ctx Context, cond, body, step Operation) (Element, error) {
	var result Element = Undef

	for n := 0; ; n++ {
		c, err := cond.Execute(ctx)
		if err != nil {
			return nil, err
		}

		b, ok := c.(Boolean)
		if !ok {
			return nil, ErrMismatchedTypes.Wrapf(
				"loop condition must be boolean, found %s", TypeName(c))
		}

		if !b {
			return result, nil
		}

		if n >= ctx.IterationLimit() {
			return nil, ErrIterationLimit.Wrapf("more than %d iterations", ctx.IterationLimit())
		}

		if result, err = body.Execute(ctx); err != nil {
			return nil, err
		}

		if step != nil {
			if _, err := step.Execute(ctx); err != nil {
				return nil, err
			}
		}
	}
}

// foreachOp is foreach(k, v, resource, body). When the resource is a
// plain variable its storage is iterated directly, so modifying the
// variable's structure from the body is detected.
type foreachOp struct {
	res, body  Operation
	key, value string
	variable   string
}

func (o *foreachOp) Execute(ctx Context) (Element, error) {
	var r Resource

	if e := ctx.LocalVariable(o.variable); o.variable != "" && e != nil {
		r, _ = e.(Resource)
	}

	if r == nil {
		e, err := o.res.Execute(ctx)
		if err != nil {
			return nil, err
		}

		var ok bool
		if r, ok = e.(Resource); !ok {
			return nil, ErrMismatchedTypes.Wrapf("foreach requires list or dict, found %s", TypeName(e))
		}
	}

	var (
		result Element = Undef
		err    error
		n      int
	)

	mods := r.modCount()

	for t, e := range r.All() {
		if n >= ctx.IterationLimit() {
			return nil, ErrIterationLimit.Wrapf("more than %d iterations", ctx.IterationLimit())
		}

		n++

		if err := bindLoopVars(ctx, o.key, o.value, Undef, Undef); err != nil {
			return nil, err
		}

		if err := bindLoopVars(ctx, o.key, o.value, t.Element(), protect(e)); err != nil {
			return nil, err
		}

		if result, err = o.body.Execute(ctx); err != nil {
			return nil, err
		}

		if r.modCount() != mods {
			return nil, ErrConcurrentModification.Wrapf("%s changed while iterating", TypeName(r))
		}
	}

	return result, nil
}

func bindLoopVars(ctx Context, key, value string, k, v Element) error {
	if err := ctx.SetLocalVariable(key, k); err != nil {
		return err
	}

	return ctx.SetLocalVariable(value, v)
}
