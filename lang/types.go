package lang

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

// BaseType is the structural part of a [FullType]. The set of
// implementations is closed: [*PrimitiveType], [*ListType], [*DictType],
// [*LinkType], [*RecordType], [*AliasType] and [*ChoiceType].
type BaseType interface {
	String() string

	baseType()
}

func (*PrimitiveType) baseType() {}
func (*ListType) baseType()      {}
func (*DictType) baseType()      {}
func (*LinkType) baseType()      {}
func (*RecordType) baseType()    {}
func (*AliasType) baseType()     {}
func (*ChoiceType) baseType()    {}

// primitives maps the builtin type names to the kinds they accept.
var primitives = map[string]func(Kind) bool{
	"boolean": func(k Kind) bool { return k == KindBoolean },
	"long":    func(k Kind) bool { return k == KindLong },
	"double":  func(k Kind) bool { return k == KindDouble },
	"number":  func(k Kind) bool { return k == KindLong || k == KindDouble },
	"string":  func(k Kind) bool { return k == KindString },
	"property": func(k Kind) bool {
		return k == KindBoolean || k == KindLong || k == KindDouble || k == KindString
	},
	"element":  func(k Kind) bool { return k != KindUndef && k != KindNull },
	"resource": func(k Kind) bool { return k == KindList || k == KindDict },
	"list":     func(k Kind) bool { return k == KindList },
	"nlist":    func(k Kind) bool { return k == KindDict },
	"dict":     func(k Kind) bool { return k == KindDict },
}

// PrimitiveNames returns the names of the builtin primitive types.
func PrimitiveNames() []string {
	names := make([]string, 0, len(primitives))
	for name := range primitives {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// IsPrimitive reports whether name is a builtin primitive type.
func IsPrimitive(name string) bool {
	_, ok := primitives[name]

	return ok
}

// PrimitiveType asserts the kind of an element and optionally its range.
type PrimitiveType struct {
	accepts func(Kind) bool
	rng     *Range
	name    string
}

// NewPrimitiveType returns the builtin primitive type name constrained by
// rng, which may be nil.
func NewPrimitiveType(name string, rng *Range) (*PrimitiveType, error) {
	accepts, ok := primitives[name]
	if !ok {
		return nil, ErrInvalidType.Wrapf("unknown primitive type %q", name)
	}

	if rng != nil && name == "boolean" {
		return nil, ErrInvalidRange.Wrapf("range not allowed on boolean type")
	}

	return &PrimitiveType{name: name, accepts: accepts, rng: rng}, nil
}

func (t *PrimitiveType) String() string { return t.name + rangeSuffix(t.rng) }

// ListType is a list whose children share one type.
type ListType struct {
	elem *FullType
	rng  *Range
}

// NewListType returns the type of lists of elem.
func NewListType(elem *FullType, rng *Range) *ListType {
	return &ListType{elem: elem, rng: rng}
}

func (t *ListType) String() string { return t.elem.String() + "[" + rangeText(t.rng) + "]" }

// DictType is a dict whose children share one type.
type DictType struct {
	elem *FullType
	rng  *Range
}

// NewDictType returns the type of dicts of elem.
func NewDictType(elem *FullType, rng *Range) *DictType {
	return &DictType{elem: elem, rng: rng}
}

func (t *DictType) String() string { return t.elem.String() + "{" + rangeText(t.rng) + "}" }

// LinkType is a string holding the path of an element of the target type.
type LinkType struct {
	target *FullType
}

// NewLinkType returns the type of links to elements of target.
func NewLinkType(target *FullType) *LinkType { return &LinkType{target: target} }

func (t *LinkType) String() string { return t.target.String() + "*" }

// Field is a named entry of a [RecordType].
type Field struct {
	Type     *FullType
	Name     string
	Required bool
}

// RecordType is a dict with named, typed fields. Included record types
// contribute their fields and checks.
type RecordType struct {
	rng        *Range
	includes   []string
	fields     []Field
	terms      []Term
	extensible bool
}

// NewRecordType returns a record type. Field names must be valid keys and
// must be unique.
func NewRecordType(
	includes []string,
	fields []Field,
	extensible bool,
	rng *Range,
) (*RecordType, error) {
	r := &RecordType{
		includes:   slices.Clone(includes),
		fields:     slices.Clone(fields),
		terms:      make([]Term, len(fields)),
		extensible: extensible,
		rng:        rng,
	}

	seen := make(map[string]bool, len(fields))

	for i, f := range fields {
		t, err := Key(f.Name)
		if err != nil {
			return nil, ErrInvalidType.Wrap(err)
		}

		if seen[f.Name] {
			return nil, ErrInvalidType.Wrapf("duplicate field %q in record", f.Name)
		}

		seen[f.Name] = true
		r.terms[i] = t
	}

	return r, nil
}

// Includes returns the names of the included record types.
func (r *RecordType) Includes() []string { return slices.Clone(r.includes) }

// Fields returns the declared fields in order.
func (r *RecordType) Fields() []Field { return slices.Clone(r.fields) }

func (r *RecordType) String() string {
	var sb strings.Builder

	sb.WriteString("{")

	for i, inc := range r.includes {
		if i > 0 {
			sb.WriteString(" ")
		}

		sb.WriteString("include ")
		sb.WriteString(inc)
	}

	for i, f := range r.fields {
		if i > 0 || len(r.includes) > 0 {
			sb.WriteString(" ")
		}

		sb.WriteString(f.Name)

		if !f.Required {
			sb.WriteString("?")
		}

		sb.WriteString(": ")
		sb.WriteString(f.Type.String())
	}

	sb.WriteString("}")

	if r.extensible {
		sb.WriteString("...")
	}

	return sb.String() + rangeSuffix(r.rng)
}

// AliasType refers to a named type, optionally narrowing its range.
type AliasType struct {
	rng  *Range
	name string
}

// NewAliasType returns a reference to the type declared as name.
func NewAliasType(name string, rng *Range) *AliasType {
	return &AliasType{name: name, rng: rng}
}

// Name returns the referenced type name.
func (t *AliasType) Name() string { return t.name }

func (t *AliasType) String() string { return t.name + rangeSuffix(t.rng) }

// ChoiceType is a property of a primitive type restricted to a fixed set
// of values. Values are compared by their string form.
type ChoiceType struct {
	prim    *PrimitiveType
	choices []string
}

// NewChoiceType returns a choice between at least two strings.
func NewChoiceType(choices ...string) (*ChoiceType, error) {
	return NewPropertyChoice("string", choices...)
}

// NewPropertyChoice returns a choice between at least two values of the
// primitive property type prim, such as long or property.
func NewPropertyChoice(prim string, choices ...string) (*ChoiceType, error) {
	if len(choices) < 2 {
		return nil, ErrInvalidChoice.Wrapf("found %d", len(choices))
	}

	p, err := NewPrimitiveType(prim, nil)
	if err != nil {
		return nil, err
	}

	if p.accepts(KindList) || p.accepts(KindDict) {
		return nil, ErrInvalidType.Wrapf("choice of %s: not a property type", prim)
	}

	return &ChoiceType{prim: p, choices: slices.Clone(choices)}, nil
}

func (t *ChoiceType) String() string {
	quoted := make([]string, len(t.choices))
	for i, c := range t.choices {
		quoted[i] = strconv.Quote(c)
	}

	if t.prim.name != "string" {
		return t.prim.name + " choice(" + strings.Join(quoted, ", ") + ")"
	}

	return "choice(" + strings.Join(quoted, ", ") + ")"
}

func rangeText(r *Range) string {
	if r == nil {
		return ""
	}

	return r.String()
}

func rangeSuffix(r *Range) string {
	if r == nil {
		return ""
	}

	return "(" + r.String() + ")"
}

// FullType couples a base type with an optional default value and an
// optional validation expression that must evaluate to true.
type FullType struct {
	base  BaseType
	def   Element
	check Operation
	name  string
}

// NewFullType returns a full type. The default, if any, is stored
// protected so it may be shared by every element it is assigned to.
func NewFullType(base BaseType, def Element, check Operation) *FullType {
	if def != nil {
		def = protect(def)
	}

	return &FullType{base: base, def: def, check: check}
}

// Base returns the base type.
func (t *FullType) Base() BaseType { return t.base }

// Default returns the declared default, or nil.
func (t *FullType) Default() Element { return t.def }

// named returns a copy of t reporting name in diagnostics.
func (t *FullType) named(name string) *FullType {
	c := *t
	c.name = name

	return &c
}

// String returns the declared name of the type, or its structure.
func (t *FullType) String() string {
	if t.name != "" {
		return t.name
	}

	return t.base.String()
}

// Validate checks e against the type. It returns a [*ValidationError] when
// e does not conform, or an evaluation error when the validation expression
// fails to run.
func (t *FullType) Validate(ctx Context, e Element) error {
	return t.validate(ctx, e, false)
}

func (t *FullType) validate(ctx Context, e Element, asIncluded bool) error {
	if e == nil {
		return newValidationError("nonexistent element")
	}

	if err := validateBase(ctx, t.base, e, asIncluded); err != nil {
		return err
	}

	if t.check == nil {
		return nil
	}

	ok, err := runCheck(ctx, t.check, e)
	if err != nil {
		return err
	}

	if !ok {
		return newValidationError("user validation failed").withValue(e)
	}

	return nil
}

// runCheck evaluates a validation expression with SELF bound to e.
func runCheck(ctx Context, check Operation, e Element) (bool, error) {
	prev := ctx.SetSelf(e)
	defer ctx.RestoreSelf(prev)

	v, err := check.Execute(ctx)
	if err != nil {
		return false, err
	}

	b, ok := v.(Boolean)
	if !ok {
		return false, ErrInvalidArgument.Wrapf(
			"validation expression returned %s, expected boolean", TypeName(v))
	}

	return bool(b), nil
}

// FindDefault returns the default value of the type, following aliases.
func (t *FullType) FindDefault(ctx Context) (Element, error) {
	if t.def != nil {
		return t.def, nil
	}

	if a, ok := t.base.(*AliasType); ok {
		ref, err := ctx.FullType(a.name)
		if err != nil {
			return nil, err
		}

		return ref.FindDefault(ctx)
	}

	return nil, nil
}

// SetDefaults fills Undef and missing children of e with the defaults of
// their types. It returns the replacement for e, or nil when nothing
// changed. Replacements are fresh owned containers; e itself is never
// modified.
func (t *FullType) SetDefaults(ctx Context, e Element) (Element, error) {
	if IsUndef(e) {
		def, err := t.FindDefault(ctx)
		if err != nil || IsUndef(def) {
			return nil, err
		}

		// The default is an element like any other; its own children may
		// still lack values.
		next, err := t.SetDefaults(ctx, def)
		if err != nil || next != nil {
			return next, err
		}

		return def, nil
	}

	switch b := t.base.(type) {
	case *ListType:
		return childDefaults(ctx, b.elem, e, KindList)
	case *DictType:
		return childDefaults(ctx, b.elem, e, KindDict)
	case *RecordType:
		return recordDefaults(ctx, b, e)
	case *AliasType:
		ref, err := ctx.FullType(b.name)
		if err != nil {
			return nil, err
		}

		return ref.SetDefaults(ctx, e)
	case *LinkType:
		linkDefaults(ctx, b, e)

		return nil, nil
	default:
		return nil, nil
	}
}

// replacer accumulates replacements for the children of a resource and
// copies the resource only on the first one.
type replacer struct {
	orig Resource
	copy Container
}

func (r *replacer) current() Resource {
	if r.copy != nil {
		return r.copy
	}

	return r.orig
}

func (r *replacer) put(t Term, e Element) error {
	if r.copy == nil {
		r.copy = r.orig.WritableCopy()
	}

	return r.copy.Put(t, e)
}

func (r *replacer) result() Element {
	if r.copy == nil {
		return nil
	}

	return r.copy
}

func childDefaults(ctx Context, elem *FullType, e Element, kind Kind) (Element, error) {
	res, ok := e.(Resource)
	if !ok || res.Kind() != kind {
		// reported by validation
		return nil, nil
	}

	rep := &replacer{orig: res}

	for t, child := range res.All() {
		next, err := elem.SetDefaults(ctx, child)
		if err != nil {
			return nil, err
		}

		if next != nil {
			if err := rep.put(t, next); err != nil {
				return nil, err
			}
		}
	}

	return rep.result(), nil
}

func recordDefaults(ctx Context, r *RecordType, e Element) (Element, error) {
	res, ok := e.(Resource)
	if !ok || res.Kind() != KindDict {
		return nil, nil
	}

	rep := &replacer{orig: res}

	for _, name := range r.includes {
		inc, err := ctx.FullType(name)
		if err != nil {
			return nil, err
		}

		next, err := inc.SetDefaults(ctx, rep.current())
		if err != nil {
			return nil, err
		}

		if c, ok := next.(Container); ok {
			rep.copy = c
		}
	}

	for i, f := range r.fields {
		t := r.terms[i]

		child, err := rep.current().Get(t)
		if err != nil {
			return nil, err
		}

		if child == nil && !f.Required {
			continue
		}

		if IsUndef(child) {
			def, err := f.Type.FindDefault(ctx)
			if err != nil {
				return nil, err
			}

			if def == nil {
				continue
			}

			if err := rep.put(t, def); err != nil {
				return nil, err
			}

			child = def
		}

		next, err := f.Type.SetDefaults(ctx, child)
		if err != nil {
			return nil, err
		}

		if next != nil {
			if err := rep.put(t, next); err != nil {
				return nil, err
			}
		}
	}

	return rep.result(), nil
}

// linkDefaults applies the defaults of the target type to the linked
// element in place. Problems are left for validation to report.
func linkDefaults(ctx Context, l *LinkType, e Element) {
	s, ok := e.(String)
	if !ok {
		return
	}

	p, err := ParsePath(string(s))
	if err != nil || !p.IsAbsolute() {
		return
	}

	target, err := ctx.Element(p)
	if err != nil || target == nil {
		return
	}

	next, err := l.target.SetDefaults(ctx, target)
	if err != nil || next == nil {
		return
	}

	_ = ctx.PutElement(p, next)
}

func validateBase(ctx Context, base BaseType, e Element, asIncluded bool) error {
	switch b := base.(type) {
	case *PrimitiveType:
		if !b.accepts(e.Kind()) {
			return mismatchedTypes(b.name, e)
		}

		return rangeError(b.rng, e)

	case *ListType:
		return validateChildren(ctx, b.elem, b.rng, e, KindList)

	case *DictType:
		return validateChildren(ctx, b.elem, b.rng, e, KindDict)

	case *LinkType:
		return validateLink(ctx, b, e)

	case *RecordType:
		return validateRecord(ctx, b, e, asIncluded)

	case *AliasType:
		ref, err := ctx.FullType(b.name)
		if err != nil {
			return err
		}

		if err := ref.validate(ctx, e, asIncluded); err != nil {
			if ve, ok := asValidationError(err); ok {
				ve.addType(b.name)
			}

			return err
		}

		return rangeError(b.rng, e)

	case *ChoiceType:
		if !b.prim.accepts(e.Kind()) {
			return mismatchedTypes(b.prim.name, e)
		}

		if !slices.Contains(b.choices, e.String()) {
			return newValidationError("%s is not one of %s", Quote(e), b).withValue(e)
		}

		return nil

	default:
		return defect("unknown base type %T", base)
	}
}

func validateChildren(ctx Context, elem *FullType, rng *Range, e Element, kind Kind) error {
	res, ok := e.(Resource)
	if !ok || res.Kind() != kind {
		return mismatchedTypes(kind.String(), e)
	}

	if err := rangeError(rng, e); err != nil {
		return err
	}

	for t, child := range res.All() {
		if err := elem.Validate(ctx, child); err != nil {
			return addTerm(err, t)
		}
	}

	return nil
}

func validateLink(ctx Context, l *LinkType, e Element) error {
	s, ok := e.(String)
	if !ok {
		return newValidationError("conflicting types; expected link, found %s", TypeName(e))
	}

	p, err := ParsePath(string(s))
	if err != nil || !p.IsAbsolute() {
		return newValidationError("invalid link path: %s", Quote(s)).withValue(e)
	}

	target, err := ctx.Element(p)
	if err != nil {
		return newValidationError("error evaluating path %s: %v", p, err)
	}

	if target == nil {
		return newValidationError("nonexistent link element: %s", p).withValue(e)
	}

	if err := l.target.Validate(ctx, target); err != nil {
		return newValidationError("link element failed validation: %s", p).
			withValue(e).wrap(err)
	}

	return nil
}

func validateRecord(ctx Context, r *RecordType, e Element, asIncluded bool) error {
	res, ok := e.(Resource)
	if !ok || res.Kind() != KindDict {
		return mismatchedTypes("dict", e)
	}

	if !asIncluded && !r.extensible {
		defined, err := definedFields(ctx, r, map[string]bool{})
		if err != nil {
			return err
		}

		var unexpected []string

		for t := range res.All() {
			if !defined[t.Key()] {
				unexpected = append(unexpected, t.Key())
			}
		}

		if len(unexpected) > 0 {
			return newValidationError("unexpected fields: %s", strings.Join(unexpected, ", "))
		}
	}

	if err := rangeError(r.rng, e); err != nil {
		return err
	}

	for _, name := range r.includes {
		inc, err := includedRecord(ctx, name)
		if err != nil {
			return err
		}

		if err := inc.validate(ctx, e, true); err != nil {
			if ve, ok := asValidationError(err); ok {
				ve.addType(name)
			}

			return err
		}
	}

	for i, f := range r.fields {
		t := r.terms[i]

		child, err := res.Get(t)
		if err != nil {
			return err
		}

		if child == nil {
			if f.Required {
				return newValidationError("missing field %q", f.Name)
			}

			continue
		}

		if err := f.Type.Validate(ctx, child); err != nil {
			return addTerm(err, t)
		}
	}

	return nil
}

// definedFields collects the names of all fields declared by r and the
// records it includes, recursively.
func definedFields(ctx Context, r *RecordType, into map[string]bool) (map[string]bool, error) {
	for _, f := range r.fields {
		into[f.Name] = true
	}

	for _, name := range r.includes {
		inc, err := includedRecord(ctx, name)
		if err != nil {
			return nil, err
		}

		if _, err := definedFields(ctx, inc.base.(*RecordType), into); err != nil {
			return nil, err
		}
	}

	return into, nil
}

// includedRecord resolves an included type, which must be a record.
func includedRecord(ctx Context, name string) (*FullType, error) {
	ft, err := ctx.FullType(name)
	if err != nil {
		return nil, err
	}

	if _, ok := ft.base.(*RecordType); !ok {
		return nil, ErrWrongTypeKind.Wrapf("included type %s is not a record", name)
	}

	return ft, nil
}

func mismatchedTypes(expected string, e Element) *ValidationError {
	return newValidationError(
		"mismatched types; expected %s, found %s", expected, TypeName(e)).withValue(e)
}

func rangeError(r *Range, e Element) error {
	if r == nil {
		return nil
	}

	if ve := checkRange(*r, e); ve != nil {
		return ve
	}

	return nil
}

func asValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}

	return nil, false
}

func addTerm(err error, t Term) error {
	if ve, ok := asValidationError(err); ok {
		ve.addTerm(t)
	}

	return err
}
