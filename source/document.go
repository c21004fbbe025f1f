package source

import (
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/ardnew/panc/lang"
)

// Document is the YAML form of a template.
type Document struct {
	Kind       string       `yaml:"kind"       validate:"required,oneof=object ordinary unique declaration structure"`
	Name       string       `yaml:"name"       validate:"required,template_name"`
	Statements []*Statement `yaml:"statements" validate:"dive,required"`
}

// Statement is one entry of a document's statement list. Exactly one of
// Assign, Variable, Bind, Function, Type and Include selects what it is.
type Statement struct {
	Value       any       `yaml:"value"`
	Include     any       `yaml:"include"`
	Spec        *TypeSpec `yaml:"spec"        validate:"required_with=Bind Type"`
	Assign      string    `yaml:"assign"`
	Variable    string    `yaml:"variable"`
	Bind        string    `yaml:"bind"`
	Function    string    `yaml:"function"`
	Type        string    `yaml:"type"`
	Expr        string    `yaml:"expr"`
	Conditional bool      `yaml:"conditional"`
	Final       bool      `yaml:"final"`
	hasValue    bool
}

// UnmarshalYAML records whether a value key is present, so that an
// explicit null can be told apart from a missing value.
func (s *Statement) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Statement
	if err := unmarshal((*plain)(s)); err != nil {
		return err
	}

	var keys map[string]any
	if err := unmarshal(&keys); err != nil {
		return err
	}

	_, s.hasValue = keys["value"]

	return nil
}

func (s *Statement) selectors() []string {
	var set []string

	for _, sel := range []struct {
		name string
		ok   bool
	}{
		{"assign", s.Assign != ""},
		{"variable", s.Variable != ""},
		{"bind", s.Bind != ""},
		{"function", s.Function != ""},
		{"type", s.Type != ""},
		{"include", s.Include != nil},
	} {
		if sel.ok {
			set = append(set, sel.name)
		}
	}

	return set
}

// newValidator returns a validator that knows template names and the
// cross-field rules of statements.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("template_name", func(fl validator.FieldLevel) bool {
		return lang.ValidTemplateName(fl.Field().String())
	})

	v.RegisterStructValidation(validateStatement, Statement{})

	return v
}

func validateStatement(sl validator.StructLevel) {
	s, ok := sl.Current().Interface().(Statement)
	if !ok {
		return
	}

	set := s.selectors()
	if len(set) != 1 {
		sl.ReportError(set, "Assign", "assign", "one_selector", "")

		return
	}

	switch set[0] {
	case "assign", "variable":
		if s.hasValue == (s.Expr != "") {
			sl.ReportError(s.Expr, "Expr", "expr", "value_or_expr", "")
		}

	case "function":
		if s.Expr == "" || s.hasValue {
			sl.ReportError(s.Expr, "Expr", "expr", "expr_only", "")
		}

	default:
		if s.hasValue || s.Expr != "" {
			sl.ReportError(s.Value, "Value", "value", "no_value", "")
		}
	}

	if (s.Conditional || s.Final) && set[0] != "assign" && set[0] != "variable" {
		sl.ReportError(s.Final, "Final", "final", "assignment_only", "")
	}
}

// Template converts the document to a template. Statement errors are
// located at "<name>:<n>", counting statements from one.
func (d *Document) Template(source string, opts ...lang.Option) (*lang.Template, error) {
	kind, err := lang.ParseTemplateKind(d.Kind)
	if err != nil {
		return nil, err
	}

	statements := make([]lang.Statement, 0, len(d.Statements))

	for i, s := range d.Statements {
		st, err := s.statement(opts...)
		if err != nil {
			return nil, lang.WrapError(err).Locate(d.Name + ":" + strconv.Itoa(i+1))
		}

		statements = append(statements, st)
	}

	return lang.NewTemplate(d.Name, kind, source, statements...)
}

func (s *Statement) statement(opts ...lang.Option) (lang.Statement, error) {
	switch {
	case s.Assign != "":
		p, err := lang.ParsePath(s.Assign)
		if err != nil {
			return nil, err
		}

		op, err := s.operation(opts...)
		if err != nil {
			return nil, err
		}

		return lang.NewAssignment(p, op, s.Conditional, s.Final)

	case s.Variable != "":
		op, err := s.operation(opts...)
		if err != nil {
			return nil, err
		}

		return lang.NewVariable(s.Variable, op, s.Conditional, s.Final)

	case s.Bind != "":
		ft, err := s.Spec.FullType(opts...)
		if err != nil {
			return nil, err
		}

		return lang.NewBind(s.Bind, ft)

	case s.Function != "":
		body, err := lang.Compile(s.Expr, opts...)
		if err != nil {
			return nil, err
		}

		return lang.NewFunction(s.Function, body)

	case s.Type != "":
		ft, err := s.Spec.FullType(opts...)
		if err != nil {
			return nil, err
		}

		return lang.NewTypeStatement(s.Type, ft)
	}

	return s.include(opts...)
}

// include accepts a template name or a mapping holding an expression that
// computes one.
func (s *Statement) include(opts ...lang.Option) (lang.Statement, error) {
	switch v := s.Include.(type) {
	case string:
		return lang.NewInclude(v)
	case map[string]any:
		text, ok := v["expr"].(string)
		if !ok || len(v) != 1 {
			return nil, ErrInvalidDocument.Wrapf("computed include requires only an expr string")
		}

		op, err := lang.Compile(text, opts...)
		if err != nil {
			return nil, err
		}

		return lang.NewComputedInclude(op)
	}

	return nil, ErrInvalidDocument.Wrapf("include must be a name or an expr mapping, found %T", s.Include)
}

// operation returns the literal value or the compiled expression.
func (s *Statement) operation(opts ...lang.Option) (lang.Operation, error) {
	if s.Expr != "" {
		return lang.Compile(s.Expr, opts...)
	}

	e, err := Element(s.Value)
	if err != nil {
		return nil, err
	}

	return lang.NewLiteral(e), nil
}
