package source

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/ardnew/panc/lang"
)

// TypeSpec is the YAML form of a type. It is either a short string, held
// in Text, or a mapping with exactly one of Type, Record, Choice, List,
// Dict or Link set. Of names the primitive type of a choice's values.
type TypeSpec struct {
	Default    any                  `yaml:"default"`
	Record     map[string]*TypeSpec `yaml:"record"     validate:"omitempty,dive,required"`
	List       *TypeSpec            `yaml:"list"`
	Dict       *TypeSpec            `yaml:"dict"`
	Link       *TypeSpec            `yaml:"link"`
	Text       string               `yaml:"-"`
	Type       string               `yaml:"type"`
	Range      string               `yaml:"range"`
	Validate   string               `yaml:"validate"`
	Include    []string             `yaml:"include"    validate:"omitempty,dive,required"`
	Choice     []string             `yaml:"choice"     validate:"omitempty,min=2,unique"`
	Of         string               `yaml:"of"         validate:"excluded_without=Choice"`
	Extensible bool                 `yaml:"extensible"`
	Required   bool                 `yaml:"required"`
}

// UnmarshalYAML accepts a scalar short form or a mapping.
func (t *TypeSpec) UnmarshalYAML(unmarshal func(any) error) error {
	var text string
	if err := unmarshal(&text); err == nil {
		t.Text = text

		return nil
	}

	type plain TypeSpec

	return unmarshal((*plain)(t))
}

// selectors returns the names of the structural fields that are set.
func (t *TypeSpec) selectors() []string {
	var set []string

	for name, ok := range map[string]bool{
		"type":   t.Type != "",
		"record": t.Record != nil,
		"choice": t.Choice != nil,
		"list":   t.List != nil,
		"dict":   t.Dict != nil,
		"link":   t.Link != nil,
	} {
		if ok {
			set = append(set, name)
		}
	}

	slices.Sort(set)

	return set
}

// FullType converts the specification. Defaults are converted with
// [Element] and validation expressions are compiled with opts.
func (t *TypeSpec) FullType(opts ...lang.Option) (*lang.FullType, error) {
	if t.Text != "" {
		return ParseType(t.Text)
	}

	if set := t.selectors(); len(set) != 1 {
		return nil, ErrInvalidTypeSpec.Wrapf(
			"exactly one of type, record, choice, list, dict or link is required, found %v", set)
	}

	if t.Of != "" && t.Choice == nil {
		return nil, ErrInvalidTypeSpec.Wrapf("of requires choice")
	}

	rng, err := t.rangeOf()
	if err != nil {
		return nil, err
	}

	var base lang.BaseType

	switch {
	case t.Type != "":
		ft, err := ParseType(t.Type)
		if err != nil {
			return nil, err
		}

		base = ft.Base()

		if rng != nil {
			if base, err = narrow(t.Type, rng); err != nil {
				return nil, err
			}
		}

	case t.Record != nil:
		if base, err = t.record(rng, opts...); err != nil {
			return nil, err
		}

	case t.Choice != nil:
		if rng != nil {
			return nil, ErrInvalidTypeSpec.Wrapf("range not allowed on choice")
		}

		if base, err = lang.NewPropertyChoice(cmp.Or(t.Of, "string"), t.Choice...); err != nil {
			return nil, err
		}

	case t.Link != nil:
		if rng != nil {
			return nil, ErrInvalidTypeSpec.Wrapf("range not allowed on link")
		}

		target, err := t.Link.FullType(opts...)
		if err != nil {
			return nil, err
		}

		base = lang.NewLinkType(target)

	default:
		elem := t.List
		if elem == nil {
			elem = t.Dict
		}

		ft, err := elem.FullType(opts...)
		if err != nil {
			return nil, err
		}

		if t.List != nil {
			base = lang.NewListType(ft, rng)
		} else {
			base = lang.NewDictType(ft, rng)
		}
	}

	return t.complete(base, opts...)
}

func (t *TypeSpec) rangeOf() (*lang.Range, error) {
	if t.Range == "" {
		return nil, nil
	}

	r, err := lang.ParseRange(t.Range)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// complete attaches the default and the validation expression to base.
func (t *TypeSpec) complete(base lang.BaseType, opts ...lang.Option) (*lang.FullType, error) {
	var (
		def   lang.Element
		check lang.Operation
		err   error
	)

	if t.Default != nil {
		if def, err = Element(t.Default); err != nil {
			return nil, err
		}
	}

	if t.Validate != "" {
		if check, err = lang.Compile(t.Validate, opts...); err != nil {
			return nil, err
		}
	}

	return lang.NewFullType(base, def, check), nil
}

// record builds a record type. Fields are declared in name order.
func (t *TypeSpec) record(rng *lang.Range, opts ...lang.Option) (*lang.RecordType, error) {
	names := make([]string, 0, len(t.Record))
	for name := range t.Record {
		names = append(names, name)
	}

	slices.Sort(names)

	fields := make([]lang.Field, 0, len(names))

	for _, name := range names {
		spec := t.Record[name]

		ft, err := spec.FullType(opts...)
		if err != nil {
			return nil, lang.WrapError(err).Locate("field " + name)
		}

		fields = append(fields, lang.Field{Name: name, Type: ft, Required: spec.Required})
	}

	return lang.NewRecordType(t.Include, fields, t.Extensible, rng)
}

// narrow applies rng to the named primitive or alias text.
func narrow(text string, rng *lang.Range) (lang.BaseType, error) {
	if !isName(text) {
		return nil, ErrInvalidTypeSpec.Wrapf("range requires a plain type name, found %q", text)
	}

	if lang.IsPrimitive(text) {
		p, err := lang.NewPrimitiveType(text, rng)
		if err != nil {
			return nil, err
		}

		return p, nil
	}

	return lang.NewAliasType(text, rng), nil
}

// ParseType parses the short form of a type:
//
//	name            primitive type or alias
//	name(lo..hi)    with a range
//	T[lo..hi]       list of T, optionally sized
//	T{lo..hi}       dict of T, optionally sized
//	T*              link to a T
//
// Suffixes apply left to right, so "port[]*" is a link to a list of ports.
func ParseType(text string) (*lang.FullType, error) {
	s := strings.TrimSpace(text)

	end := strings.IndexFunc(s, func(r rune) bool { return !isNameRune(r) })
	if end < 0 {
		end = len(s)
	}

	name, rest := s[:end], s[end:]
	if !isName(name) {
		return nil, ErrInvalidTypeSpec.Wrapf("%q: missing type name", text)
	}

	var rng *lang.Range

	if strings.HasPrefix(rest, "(") {
		inner, after, err := enclosed(text, rest, '(', ')')
		if err != nil {
			return nil, err
		}

		r, err := lang.ParseRange(inner)
		if err != nil {
			return nil, err
		}

		rng, rest = &r, after
	}

	base, err := narrow(name, rng)
	if err != nil {
		return nil, err
	}

	ft := lang.NewFullType(base, nil, nil)

	for rest = strings.TrimSpace(rest); rest != ""; rest = strings.TrimSpace(rest) {
		switch rest[0] {
		case '*':
			ft, rest = lang.NewFullType(lang.NewLinkType(ft), nil, nil), rest[1:]

		case '[', '{':
			closing := byte(']')
			if rest[0] == '{' {
				closing = '}'
			}

			inner, after, err := enclosed(text, rest, rest[0], closing)
			if err != nil {
				return nil, err
			}

			var size *lang.Range

			if strings.TrimSpace(inner) != "" {
				r, err := lang.ParseRange(inner)
				if err != nil {
					return nil, err
				}

				size = &r
			}

			if closing == ']' {
				ft = lang.NewFullType(lang.NewListType(ft, size), nil, nil)
			} else {
				ft = lang.NewFullType(lang.NewDictType(ft, size), nil, nil)
			}

			rest = after

		default:
			return nil, ErrInvalidTypeSpec.Wrapf("%q: unexpected %q", text, rest[0])
		}
	}

	return ft, nil
}

// enclosed splits s, which starts with open, at the matching close.
func enclosed(text, s string, open, closing byte) (string, string, error) {
	i := strings.IndexByte(s, closing)
	if i < 0 || strings.IndexByte(s[1:i], open) >= 0 {
		return "", "", ErrInvalidTypeSpec.Wrapf("%q: unbalanced %q", text, open)
	}

	return s[1:i], s[i+1:], nil
}

func isNameRune(r rune) bool {
	return r == '_' || r == '.' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isName(s string) bool {
	if s == "" || !(s[0] == '_' || unicode.IsLetter(rune(s[0]))) {
		return false
	}

	return strings.IndexFunc(s, func(r rune) bool { return !isNameRune(r) }) < 0
}
