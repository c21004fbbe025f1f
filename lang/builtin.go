package lang

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

type builtinFunc func(ctx Context, args []Element) (Element, error)

// builtin describes a builtin function. Pure builtins have no effect on
// and no dependency on the context, so calls with constant arguments are
// folded when compiled. A negative max means variadic.
type builtin struct {
	fn   builtinFunc
	min  int
	max  int
	pure bool
}

func pure(lo, hi int, fn builtinFunc) builtin {
	return builtin{fn: fn, min: lo, max: hi, pure: true}
}

func impure(lo, hi int, fn builtinFunc) builtin {
	return builtin{fn: fn, min: lo, max: hi}
}

// builtins returns the table of builtin functions by name.
var builtins = sync.OnceValue(func() map[string]builtin {
	return map[string]builtin{
		"value":        impure(1, 2, biValue),
		"exists":       impure(1, 1, biExists),
		"is_defined":   pure(1, 1, isKind(func(e Element) bool { return !IsUndef(e) && !IsNull(e) })),
		"is_null":      pure(1, 1, isKind(IsNull)),
		"is_boolean":   pure(1, 1, isKind(kindIs(KindBoolean))),
		"is_long":      pure(1, 1, isKind(kindIs(KindLong))),
		"is_double":    pure(1, 1, isKind(kindIs(KindDouble))),
		"is_number":    pure(1, 1, isKind(kindIs(KindLong, KindDouble))),
		"is_string":    pure(1, 1, isKind(kindIs(KindString))),
		"is_property":  pure(1, 1, isKind(kindIs(KindBoolean, KindLong, KindDouble, KindString))),
		"is_list":      pure(1, 1, isKind(kindIs(KindList))),
		"is_dict":      pure(1, 1, isKind(kindIs(KindDict))),
		"is_resource":  pure(1, 1, isKind(kindIs(KindList, KindDict))),
		"to_string":    pure(1, 1, biToString),
		"to_long":      pure(1, 1, biToLong),
		"to_double":    pure(1, 1, biToDouble),
		"to_boolean":   pure(1, 1, biToBoolean),
		"to_uppercase": pure(1, 1, stringFunc(strings.ToUpper)),
		"to_lowercase": pure(1, 1, stringFunc(strings.ToLower)),
		"trim":         pure(1, 1, stringFunc(strings.TrimSpace)),
		"length":       pure(1, 1, biLength),
		"list":         pure(0, -1, biList),
		"dict":         pure(0, -1, biDict),
		"append":       impure(1, -1, biAppend),
		"prepend":      impure(1, -1, biPrepend),
		"merge":        pure(1, -1, biMerge),
		"splice":       pure(3, 4, biSplice),
		"index":        pure(2, 3, biIndex),
		"key":          pure(2, 2, biKey),
		"join":         pure(2, 2, biJoin),
		"split":        pure(2, 2, biSplit),
		"format":       pure(1, -1, biFormat),
		"substr":       pure(2, 3, biSubstr),
		"escape":       pure(1, 1, biEscape),
		"unescape":     pure(1, 1, biUnescape),
		"error":        impure(1, -1, biError),
		"create":       impure(1, -1, biCreate),
		"mung.prefix":  pure(1, -1, biMungPrefix),
	}
})

// builtinAliases maps names the expression grammar treats as its own
// builtins onto ours.
var builtinAliases = map[string]string{
	"len":    "length",
	"upper":  "to_uppercase",
	"lower":  "to_lowercase",
	"string": "to_string",
	"int":    "to_long",
	"float":  "to_double",
}

// BuiltinNames returns the names of all builtin functions, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins()))
	for name := range builtins() {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// builtinCall invokes a builtin with eagerly evaluated arguments.
type builtinCall struct {
	fn   builtinFunc
	name string
	args []Operation
}

func (o *builtinCall) Execute(ctx Context) (Element, error) {
	args, err := evalAll(ctx, o.args)
	if err != nil {
		return nil, err
	}

	v, err := o.fn(ctx, args)
	if err != nil {
		return nil, wrapBuiltin(o.name, err)
	}

	return v, nil
}

func wrapBuiltin(name string, err error) error {
	if e, ok := err.(*Error); ok && e.Is(ErrUserError) {
		return err
	}

	return WrapError(err).With(slog.String("function", name))
}

func kindIs(kinds ...Kind) func(Element) bool {
	return func(e Element) bool { return e != nil && slices.Contains(kinds, e.Kind()) }
}

func isKind(test func(Element) bool) builtinFunc {
	return func(_ Context, args []Element) (Element, error) {
		return Boolean(test(args[0])), nil
	}
}

func stringArg(fn string, args []Element, i int) (string, error) {
	s, ok := args[i].(String)
	if !ok {
		return "", ErrInvalidArgument.Wrapf(
			"%s: argument %d must be a string, found %s", fn, i+1, TypeName(args[i]))
	}

	return string(s), nil
}

func longArg(fn string, args []Element, i int) (int64, error) {
	l, ok := args[i].(Long)
	if !ok {
		return 0, ErrInvalidArgument.Wrapf(
			"%s: argument %d must be a long, found %s", fn, i+1, TypeName(args[i]))
	}

	return int64(l), nil
}

func resourceArg(fn string, args []Element, i int, kind Kind) (Resource, error) {
	r, ok := args[i].(Resource)
	if !ok || r.Kind() != kind {
		return nil, ErrInvalidArgument.Wrapf(
			"%s: argument %d must be a %s, found %s", fn, i+1, kind, TypeName(args[i]))
	}

	return r, nil
}

func stringFunc(f func(string) string) builtinFunc {
	return func(_ Context, args []Element) (Element, error) {
		s, err := stringArg("string function", args, 0)
		if err != nil {
			return nil, err
		}

		return String(f(s)), nil
	}
}

// pathArg resolves a path argument to an element. Relative paths are
// resolved against the relative root of a structure template.
func pathArg(ctx Context, fn string, args []Element) (Path, Element, error) {
	s, err := stringArg(fn, args, 0)
	if err != nil {
		return Path{}, nil, err
	}

	p, err := ParsePath(s)
	if err != nil {
		return Path{}, nil, err
	}

	switch p.Kind() {
	case PathAbsolute:
		e, err := ctx.Element(p)

		return p, e, err
	case PathRelative:
		root := ctx.RelativeRoot()
		if root == nil {
			return p, nil, ErrInvalidArgument.Wrapf("%s: relative path %s outside of structure template", fn, p)
		}

		e, err := getPath(root, p.terms, true)

		return p, e, err
	default:
		return p, nil, ErrInvalidArgument.Wrapf("%s: external path %s is not supported", fn, p)
	}
}

func biValue(ctx Context, args []Element) (Element, error) {
	p, e, err := pathArg(ctx, "value", args)
	if err != nil {
		return nil, err
	}

	if e == nil {
		if len(args) > 1 {
			return args[1], nil
		}

		return nil, ErrNonexistentElement.Wrapf("%s", p)
	}

	return detach(e), nil
}

func biExists(ctx Context, args []Element) (Element, error) {
	_, e, err := pathArg(ctx, "exists", args)
	if err != nil {
		return nil, err
	}

	return Boolean(e != nil), nil
}

func biToString(_ Context, args []Element) (Element, error) {
	return String(args[0].String()), nil
}

func biToLong(_ Context, args []Element) (Element, error) {
	switch v := args[0].(type) {
	case Long:
		return v, nil
	case Double:
		return Long(v), nil
	case Boolean:
		if v {
			return Long(1), nil
		}

		return Long(0), nil
	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 0, 64)
		if err != nil {
			return nil, ErrInvalidArgument.Wrapf("to_long: cannot convert %q", string(v))
		}

		return Long(n), nil
	}

	return nil, ErrInvalidArgument.Wrapf("to_long: cannot convert %s", TypeName(args[0]))
}

func biToDouble(_ Context, args []Element) (Element, error) {
	switch v := args[0].(type) {
	case Long:
		return Double(v), nil
	case Double:
		return v, nil
	case String:
		x, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, ErrInvalidArgument.Wrapf("to_double: cannot convert %q", string(v))
		}

		return Double(x), nil
	}

	return nil, ErrInvalidArgument.Wrapf("to_double: cannot convert %s", TypeName(args[0]))
}

func biToBoolean(_ Context, args []Element) (Element, error) {
	switch v := args[0].(type) {
	case Boolean:
		return v, nil
	case Long:
		return Boolean(v != 0), nil
	case Double:
		return Boolean(v != 0), nil
	case String:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(string(v))))
		if err != nil {
			return nil, ErrInvalidArgument.Wrapf("to_boolean: cannot convert %q", string(v))
		}

		return Boolean(b), nil
	}

	return nil, ErrInvalidArgument.Wrapf("to_boolean: cannot convert %s", TypeName(args[0]))
}

func biLength(_ Context, args []Element) (Element, error) {
	switch v := args[0].(type) {
	case String:
		return Long(len(v)), nil
	case Resource:
		return Long(v.Len()), nil
	}

	return nil, ErrInvalidArgument.Wrapf("length: not defined for %s", TypeName(args[0]))
}

func biList(_ Context, args []Element) (Element, error) {
	return NewList(args...), nil
}

func biDict(_ Context, args []Element) (Element, error) {
	if len(args)%2 != 0 {
		return nil, ErrInvalidArgument.Wrapf("dict: requires key/value pairs")
	}

	d := NewDict()

	for i := 0; i < len(args); i += 2 {
		k, err := stringArg("dict", args, i)
		if err != nil {
			return nil, err
		}

		if err := d.PutKey(k, args[i+1]); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// listTarget returns a writable copy of the list to modify: the first
// argument when it is a list and more follow, otherwise SELF. The second
// result holds the values to add.
func listTarget(ctx Context, fn string, args []Element) (*List, []Element, bool, error) {
	target, values, self := Element(nil), args, true

	if len(args) > 1 {
		target, values, self = args[0], args[1:], false
	} else {
		target = ctx.Self()
	}

	if IsUndef(target) || IsNull(target) {
		return NewList(), values, self, nil
	}

	r, ok := target.(Resource)
	if !ok || r.Kind() != KindList {
		return nil, nil, false, ErrInvalidArgument.Wrapf(
			"%s: target must be a list, found %s", fn, TypeName(target))
	}

	if l, ok := r.(*List); ok && self {
		return l, values, self, nil
	}

	return copyList(listOf(r)), values, self, nil
}

func listOf(r Resource) *List {
	switch v := r.(type) {
	case *List:
		return v
	case sharedList:
		return v.l
	}

	return NewList()
}

func biAppend(ctx Context, args []Element) (Element, error) {
	l, values, self, err := listTarget(ctx, "append", args)
	if err != nil {
		return nil, err
	}

	for _, v := range values {
		l.Append(v)
	}

	if self {
		ctx.SetSelf(l)
	}

	return l, nil
}

func biPrepend(ctx Context, args []Element) (Element, error) {
	l, values, self, err := listTarget(ctx, "prepend", args)
	if err != nil {
		return nil, err
	}

	for _, v := range values {
		l.Prepend(v)
	}

	if self {
		ctx.SetSelf(l)
	}

	return l, nil
}

func biMerge(_ Context, args []Element) (Element, error) {
	first, ok := args[0].(Resource)
	if !ok {
		return nil, ErrInvalidArgument.Wrapf("merge: arguments must be lists or dicts")
	}

	if first.Kind() == KindList {
		out := NewList()

		for i := range args {
			r, err := resourceArg("merge", args, i, KindList)
			if err != nil {
				return nil, err
			}

			for _, e := range r.All() {
				out.items = append(out.items, protect(e))
			}
		}

		return out, nil
	}

	out := NewDict()

	for i := range args {
		r, err := resourceArg("merge", args, i, KindDict)
		if err != nil {
			return nil, err
		}

		for t, e := range r.All() {
			if _, dup := out.items[t.Key()]; dup {
				return nil, ErrInvalidArgument.Wrapf("merge: duplicate key %s", t.Key())
			}

			out.items[t.Key()] = protect(e)
		}
	}

	return out, nil
}

func biSplice(_ Context, args []Element) (Element, error) {
	start, err := longArg("splice", args, 1)
	if err != nil {
		return nil, err
	}

	n, err := longArg("splice", args, 2)
	if err != nil {
		return nil, err
	}

	if s, ok := args[0].(String); ok {
		insert := ""
		if len(args) > 3 {
			if insert, err = stringArg("splice", args, 3); err != nil {
				return nil, err
			}
		}

		if start < 0 || start > int64(len(s)) || n < 0 {
			return nil, ErrInvalidArgument.Wrapf("splice: start %d out of range", start)
		}

		end := int64(len(s))
		if n < end-start {
			end = start + n
		}

		return s[:start] + String(insert) + s[end:], nil
	}

	r, err := resourceArg("splice", args, 0, KindList)
	if err != nil {
		return nil, err
	}

	var insert []Element

	if len(args) > 3 {
		ins, err := resourceArg("splice", args, 3, KindList)
		if err != nil {
			return nil, err
		}

		for _, e := range ins.All() {
			insert = append(insert, protect(e))
		}
	}

	out := copyList(listOf(r))
	if err := out.Splice(int(start), int(n), insert...); err != nil {
		return nil, err
	}

	return out, nil
}

func biIndex(_ Context, args []Element) (Element, error) {
	var from int64

	if len(args) > 2 {
		var err error
		if from, err = longArg("index", args, 2); err != nil {
			return nil, err
		}
	}

	switch h := args[1].(type) {
	case String:
		sub, err := stringArg("index", args, 0)
		if err != nil {
			return nil, err
		}

		if from < 0 || from > int64(len(h)) {
			return Long(-1), nil
		}

		i := strings.Index(string(h[from:]), sub)
		if i < 0 {
			return Long(-1), nil
		}

		return Long(int64(i) + from), nil

	case Resource:
		if h.Kind() == KindDict {
			for t, e := range h.All() {
				if equality(args[0], e) {
					return String(t.Key()), nil
				}
			}

			return String(""), nil
		}

		for t, e := range h.All() {
			if int64(t.Index()) >= from && equality(args[0], e) {
				return Long(t.Index()), nil
			}
		}

		return Long(-1), nil
	}

	return nil, ErrInvalidArgument.Wrapf("index: cannot search %s", TypeName(args[1]))
}

func biKey(_ Context, args []Element) (Element, error) {
	r, err := resourceArg("key", args, 0, KindDict)
	if err != nil {
		return nil, err
	}

	i, err := longArg("key", args, 1)
	if err != nil {
		return nil, err
	}

	if i < 0 || i >= int64(r.Len()) {
		return nil, ErrInvalidArgument.Wrapf("key: index %d out of range", i)
	}

	var n int64

	for t := range r.All() {
		if n == i {
			return String(t.Key()), nil
		}

		n++
	}

	return nil, defect("key: index %d not reached", i)
}

func biJoin(_ Context, args []Element) (Element, error) {
	r, err := resourceArg("join", args, 0, KindList)
	if err != nil {
		return nil, err
	}

	sep, err := stringArg("join", args, 1)
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, r.Len())
	for _, e := range r.All() {
		parts = append(parts, e.String())
	}

	return String(strings.Join(parts, sep)), nil
}

func biSplit(_ Context, args []Element) (Element, error) {
	s, err := stringArg("split", args, 0)
	if err != nil {
		return nil, err
	}

	sep, err := stringArg("split", args, 1)
	if err != nil {
		return nil, err
	}

	out := NewList()
	for _, part := range strings.Split(s, sep) {
		out.items = append(out.items, String(part))
	}

	return out, nil
}

func biFormat(_ Context, args []Element) (Element, error) {
	f, err := stringArg("format", args, 0)
	if err != nil {
		return nil, err
	}

	vals := make([]any, 0, len(args)-1)

	for _, a := range args[1:] {
		switch v := a.(type) {
		case Long:
			vals = append(vals, int64(v))
		case Double:
			vals = append(vals, float64(v))
		case Boolean:
			vals = append(vals, bool(v))
		case String:
			vals = append(vals, string(v))
		default:
			vals = append(vals, a.String())
		}
	}

	return String(fmt.Sprintf(f, vals...)), nil
}

func biSubstr(_ Context, args []Element) (Element, error) {
	s, err := stringArg("substr", args, 0)
	if err != nil {
		return nil, err
	}

	start, err := longArg("substr", args, 1)
	if err != nil {
		return nil, err
	}

	n := int64(len(s)) - start

	if len(args) > 2 {
		if n, err = longArg("substr", args, 2); err != nil {
			return nil, err
		}
	}

	if start < 0 || start > int64(len(s)) || n < 0 || n > int64(len(s))-start {
		return nil, ErrInvalidArgument.Wrapf("substr: range out of bounds for length %d", len(s))
	}

	return String(s[start : start+n]), nil
}

func biEscape(_ Context, args []Element) (Element, error) {
	s, err := stringArg("escape", args, 0)
	if err != nil {
		return nil, err
	}

	out, err := Escape(s)

	return String(out), err
}

func biUnescape(_ Context, args []Element) (Element, error) {
	s, err := stringArg("unescape", args, 0)
	if err != nil {
		return nil, err
	}

	out, err := Unescape(s)

	return String(out), err
}

func biError(_ Context, args []Element) (Element, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}

	return nil, ErrUserError.Wrapf("%s", strings.Join(parts, ""))
}

// biCreate runs a structure template against a fresh dict and returns it.
// Additional key/value arguments are written into the result.
func biCreate(ctx Context, args []Element) (Element, error) {
	name, err := stringArg("create", args, 0)
	if err != nil {
		return nil, err
	}

	if len(args)%2 != 1 {
		return nil, ErrInvalidArgument.Wrapf("create: requires key/value pairs after the template name")
	}

	tpl, err := load(ctx, name)
	if err != nil {
		return nil, err
	}

	if tpl.Kind() != TemplateStructure {
		return nil, ErrInvalidInclude.Wrapf(
			"create: %s is a %s template, expected structure", tpl.Name(), tpl.Kind())
	}

	d := NewDict()

	prev := ctx.SetRelativeRoot(d)
	defer ctx.SetRelativeRoot(prev)

	if err := run(ctx, tpl); err != nil {
		return nil, err
	}

	for i := 1; i < len(args); i += 2 {
		k, err := stringArg("create", args, i)
		if err != nil {
			return nil, err
		}

		if err := d.PutKey(k, args[i+1]); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// pathListDelim separates the entries of a path list string. It is fixed
// so that profiles do not depend on the compiling host.
const pathListDelim = ":"

// biMungPrefix moves or inserts items at the front of a path list. The
// subject is either a delimited string or a list of strings; the result has
// the same form.
func biMungPrefix(_ Context, args []Element) (Element, error) {
	delim := pathListDelim

	items := make([]string, 0, len(args)-1)

	for i := 1; i < len(args); i++ {
		s, err := stringArg("mung.prefix", args, i)
		if err != nil {
			return nil, err
		}

		items = append(items, s)
	}

	munge := func(subject string) string {
		return mung.Make(
			mung.WithSubjectItems(subject),
			mung.WithDelim(delim),
			mung.WithPrefixItems(items...),
		).String()
	}

	switch v := args[0].(type) {
	case String:
		return String(munge(string(v))), nil
	case Resource:
		if v.Kind() != KindList {
			break
		}

		parts := make([]string, 0, v.Len())

		for _, e := range v.All() {
			s, ok := e.(String)
			if !ok {
				return nil, ErrInvalidArgument.Wrapf("mung.prefix: list entries must be strings")
			}

			parts = append(parts, string(s))
		}

		out := NewList()

		if res := munge(strings.Join(parts, delim)); res != "" {
			for _, p := range strings.Split(res, delim) {
				out.items = append(out.items, String(p))
			}
		}

		return out, nil
	}

	return nil, ErrInvalidArgument.Wrapf(
		"mung.prefix: subject must be a string or list, found %s", TypeName(args[0]))
}
