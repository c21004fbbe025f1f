package lang

import (
	"regexp"
	"strconv"
	"strings"
)

// TemplateKind classifies a [Template].
type TemplateKind uint8

const (
	TemplateObject      TemplateKind = iota // object
	TemplateOrdinary                        // ordinary
	TemplateUnique                          // unique
	TemplateDeclaration                     // declaration
	TemplateStructure                       // structure
)

// ParseTemplateKind converts the name of a template kind.
func ParseTemplateKind(s string) (TemplateKind, error) {
	for k := TemplateObject; k <= TemplateStructure; k++ {
		if k.String() == s {
			return k, nil
		}
	}

	return 0, ErrInvalidStatement.Wrapf("unknown template kind %q", s)
}

// CanInclude reports whether a template of kind k may include one of kind o.
func (k TemplateKind) CanInclude(o TemplateKind) bool {
	switch k {
	case TemplateObject, TemplateOrdinary, TemplateUnique:
		return o == TemplateOrdinary || o == TemplateDeclaration || o == TemplateUnique
	case TemplateStructure:
		return o == TemplateDeclaration || o == TemplateStructure
	case TemplateDeclaration:
		return o == TemplateDeclaration
	default:
		return false
	}
}

var templateName = regexp.MustCompile(`^[\w./+-]+$`)

// ValidTemplateName reports whether s is a valid template name: slash
// separated segments of word characters and "./+-", none of them empty or
// starting with a dot.
func ValidTemplateName(s string) bool {
	if !templateName.MatchString(s) {
		return false
	}

	for seg := range strings.SplitSeq(s, "/") {
		if seg == "" || seg[0] == '.' {
			return false
		}
	}

	return true
}

// Template is a named, immutable sequence of statements. Templates are
// shared by every build that loads them.
type Template struct {
	name       string
	source     string
	statements []Statement
	kind       TemplateKind
}

// NewTemplate returns a template after checking that its name is valid,
// that each statement is allowed in a template of the given kind, and that
// no function or type is declared twice.
func NewTemplate(
	name string,
	kind TemplateKind,
	source string,
	statements ...Statement,
) (*Template, error) {
	if !ValidTemplateName(name) {
		return nil, ErrInvalidTemplateName.Wrapf("%q", name)
	}

	functions := map[string]bool{}
	types := map[string]bool{}

	for i, s := range statements {
		where := name + ":" + strconv.Itoa(i+1)

		if err := allowed(kind, s); err != nil {
			return nil, err.Locate(where)
		}

		switch s := s.(type) {
		case *FunctionStatement:
			if functions[s.name] {
				return nil, ErrDuplicateDefinition.Wrapf("function %s", s.name).Locate(where)
			}

			functions[s.name] = true

		case *TypeStatement:
			if types[s.name] {
				return nil, ErrDuplicateDefinition.Wrapf("type %s", s.name).Locate(where)
			}

			types[s.name] = true
		}
	}

	return &Template{
		name:       name,
		kind:       kind,
		source:     source,
		statements: statements,
	}, nil
}

func allowed(kind TemplateKind, s Statement) *Error {
	a, ok := s.(assigner)
	if !ok {
		return nil
	}

	p := a.target()

	switch {
	case kind == TemplateDeclaration:
		return ErrStatementNotAllowed.Wrapf("assignment to %s in declaration template", p)
	case kind == TemplateStructure && !p.IsRelative():
		return ErrStatementNotAllowed.Wrapf("absolute assignment to %s in structure template", p)
	case kind != TemplateStructure && p.IsRelative():
		return ErrStatementNotAllowed.Wrapf("relative assignment to %s outside structure template", p)
	}

	return nil
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// Kind returns the template kind.
func (t *Template) Kind() TemplateKind { return t.kind }

// Source returns where the template was loaded from.
func (t *Template) Source() string { return t.source }

// Len returns the number of statements.
func (t *Template) Len() int { return len(t.statements) }

// Execute runs every statement in order against ctx. Errors are annotated
// with the template name and the position of the failing statement.
func (t *Template) Execute(ctx Context) error {
	for i, s := range t.statements {
		if err := s.Execute(ctx); err != nil {
			return locate(err, t.name+":"+strconv.Itoa(i+1))
		}
	}

	return nil
}
