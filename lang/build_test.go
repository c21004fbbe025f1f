package lang

import (
	"context"
	"errors"
	"testing"
)

func assign(t *testing.T, path, src string) Statement {
	t.Helper()

	return mustAssign(t, path, src, false, false)
}

func mustAssign(t *testing.T, path, src string, conditional, final bool) Statement {
	t.Helper()

	s, err := NewAssignment(MustParsePath(path), MustCompile(src), conditional, final)
	if err != nil {
		t.Fatalf("NewAssignment(%s) unexpected error: %v", path, err)
	}

	return s
}

func variable(t *testing.T, name, src string, conditional, final bool) Statement {
	t.Helper()

	s, err := NewVariable(name, MustCompile(src), conditional, final)
	if err != nil {
		t.Fatalf("NewVariable(%s) unexpected error: %v", name, err)
	}

	return s
}

func include(t *testing.T, name string) Statement {
	t.Helper()

	s, err := NewInclude(name)
	if err != nil {
		t.Fatalf("NewInclude(%s) unexpected error: %v", name, err)
	}

	return s
}

func function(t *testing.T, name, src string) Statement {
	t.Helper()

	s, err := NewFunction(name, MustCompile(src))
	if err != nil {
		t.Fatalf("NewFunction(%s) unexpected error: %v", name, err)
	}

	return s
}

func bind(t *testing.T, path string, typ *FullType) Statement {
	t.Helper()

	s, err := NewBind(path, typ)
	if err != nil {
		t.Fatalf("NewBind(%s) unexpected error: %v", path, err)
	}

	return s
}

func template(t *testing.T, name string, kind TemplateKind, statements ...Statement) *Template {
	t.Helper()

	tpl, err := NewTemplate(name, kind, "", statements...)
	if err != nil {
		t.Fatalf("NewTemplate(%s) unexpected error: %v", name, err)
	}

	return tpl
}

func primitive(t *testing.T, name string, rng *Range, def Element) *FullType {
	t.Helper()

	p, err := NewPrimitiveType(name, rng)
	if err != nil {
		t.Fatal(err)
	}

	return NewFullType(p, def, nil)
}

func rangeOf(t *testing.T, s string) *Range {
	t.Helper()

	r, err := ParseRange(s)
	if err != nil {
		t.Fatal(err)
	}

	return &r
}

func TestBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		templates func(t *testing.T) []*Template
		want      string
	}{
		{
			name: "assignments",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/a", "1"),
					assign(t, "/b/c", `"x" + "y"`),
					assign(t, "/l", "list(1, 2)"),
					assign(t, "/l/2", "3"),
					assign(t, "/d", "true"),
					assign(t, "/d", "null"),
				)}
			},
			want: `{"a":1,"b":{"c":"xy"},"l":[1,2,3]}`,
		},
		{
			name: "self",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/n", "1"),
					assign(t, "/n", "SELF + 1"),
					assign(t, "/l", "list(1)"),
					assign(t, "/l", "append(3)"),
					assign(t, "/m", "prepend(0)"),
				)}
			},
			want: `{"l":[1,3],"m":[0],"n":2}`,
		},
		{
			name: "value copies",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/a/x", "1"),
					assign(t, "/a/n/k", "1"),
					assign(t, "/b", `value("/a")`),
					assign(t, "/a/y", "2"),
					assign(t, "/a/n/j", "2"),
					assign(t, "/c", `value("/b/n")`),
					assign(t, "/b/n/k", "3"),
				)}
			},
			want: `{"a":{"n":{"j":2,"k":1},"x":1,"y":2},"b":{"n":{"k":3},"x":1},"c":{"k":1}}`,
		},
		{
			name: "nested defaults",
			templates: func(t *testing.T) []*Template {
				rec, err := NewRecordType(nil, []Field{
					{Name: "a", Type: primitive(t, "long", nil, Long(5)), Required: true},
				}, false, nil)
				if err != nil {
					t.Fatal(err)
				}

				item := NewFullType(rec, NewDict(), nil)
				list := NewFullType(NewListType(item, nil), nil, nil)

				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/l/1", `dict("a", 1)`),
					bind(t, "/l", list),
					bind(t, "/r", item),
				)}
			},
			want: `{"l":[{"a":5},{"a":1}],"r":{"a":5}}`,
		},
		{
			name: "ordinary and unique inclusion",
			templates: func(t *testing.T) []*Template {
				return []*Template{
					template(t, "obj", TemplateObject,
						include(t, "inc"),
						include(t, "inc"),
						include(t, "uni"),
						include(t, "uni"),
					),
					template(t, "inc", TemplateOrdinary, assign(t, "/l", "append(1)")),
					template(t, "uni", TemplateUnique, assign(t, "/u", "append(1)")),
				}
			},
			want: `{"l":[1,1],"u":[1]}`,
		},
		{
			name: "conditional assignment",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/a", "1"),
					mustAssign(t, "/a", "2", true, false),
					mustAssign(t, "/b", "3", true, false),
				)}
			},
			want: `{"a":1,"b":3}`,
		},
		{
			name: "final reassigned with equal value",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					mustAssign(t, "/a", `"x"`, false, true),
					assign(t, "/a", `"x"`),
				)}
			},
			want: `{"a":"x"}`,
		},
		{
			name: "variables",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					variable(t, "X", "2", false, false),
					variable(t, "X", "5", true, false),
					assign(t, "/x", "X * 10"),
				)}
			},
			want: `{"x":20}`,
		},
		{
			name: "functions",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					function(t, "double", "ARGV[0] * ARGC * 2"),
					assign(t, "/y", "double(21)"),
				)}
			},
			want: `{"y":42}`,
		},
		{
			name: "load path",
			templates: func(t *testing.T) []*Template {
				return []*Template{
					template(t, "obj", TemplateObject,
						variable(t, "LOADPATH", `list("site")`, false, false),
						include(t, "common"),
					),
					template(t, "site/common", TemplateOrdinary, assign(t, "/c", "1")),
					template(t, "common", TemplateOrdinary, assign(t, "/c", "2")),
				}
			},
			want: `{"c":1}`,
		},
		{
			name: "create",
			templates: func(t *testing.T) []*Template {
				return []*Template{
					template(t, "obj", TemplateObject,
						assign(t, "/disk", `create("struct/disk", "size", 20)`),
					),
					template(t, "struct/disk", TemplateStructure,
						assign(t, "name", `"sda"`),
						assign(t, "size", "10"),
					),
				}
			},
			want: `{"disk":{"name":"sda","size":20}}`,
		},
		{
			name: "type defaults",
			templates: func(t *testing.T) []*Template {
				host := primitive(t, "string", nil, nil)
				port := primitive(t, "long", nil, Long(22))

				rec, err := NewRecordType(nil, []Field{
					{Name: "host", Type: host, Required: true},
					{Name: "port", Type: port},
				}, false, nil)
				if err != nil {
					t.Fatal(err)
				}

				return []*Template{template(t, "obj", TemplateObject,
					variable(t, "SVC", `"web"`, false, false),
					assign(t, "/srv/host", `"h"`),
					bind(t, "/srv", NewFullType(rec, nil, nil)),
					bind(t, "/${SVC}/port", primitive(t, "long", nil, Long(80))),
				)}
			},
			want: `{"srv":{"host":"h","port":22},"web":{"port":80}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Build(t.Context(), NewMapLoader(tt.templates(t)...), "obj")
			if err != nil {
				t.Fatalf("Build() unexpected error: %v", err)
			}

			data, err := p.MarshalJSON()
			if err != nil {
				t.Fatal(err)
			}

			if string(data) != tt.want {
				t.Errorf("Build() = %s, want %s", data, tt.want)
			}

			if p.Name() != "obj" || p.Dependencies()[0] != "obj" {
				t.Errorf("Name() = %s, Dependencies() = %v", p.Name(), p.Dependencies())
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		templates func(t *testing.T) []*Template
		opts      []Option
		want      error
	}{
		{
			name: "final violation",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					mustAssign(t, "/a", "1", false, true),
					assign(t, "/a", "2"),
				)}
			},
			want: ErrFinalViolation,
		},
		{
			name: "final descendant",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					mustAssign(t, "/a/b", "1", false, true),
					assign(t, "/a", "dict()"),
				)}
			},
			want: ErrFinalViolation,
		},
		{
			name: "final variable",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					variable(t, "V", "1", false, true),
					variable(t, "V", "2", false, false),
				)}
			},
			want: ErrFinalVariable,
		},
		{
			name: "recursion",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					function(t, "f", "f()"),
					assign(t, "/x", "f()"),
				)}
			},
			want: ErrCallDepthExceeded,
		},
		{
			name: "iteration limit",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/x", "while(true, 1)"),
				)}
			},
			opts: []Option{WithIterationLimit(10)},
			want: ErrIterationLimit,
		},
		{
			name: "missing template",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject, include(t, "nope"))}
			},
			want: ErrTemplateNotFound,
		},
		{
			name: "object included",
			templates: func(t *testing.T) []*Template {
				return []*Template{
					template(t, "obj", TemplateObject, include(t, "other")),
					template(t, "other", TemplateObject),
				}
			},
			want: ErrInvalidInclude,
		},
		{
			name: "not an object",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateOrdinary)}
			},
			want: ErrInvalidInclude,
		},
		{
			name: "user error",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/x", `error("no ", "way")`),
				)}
			},
			want: ErrUserError,
		},
		{
			name: "duplicate function",
			templates: func(t *testing.T) []*Template {
				return []*Template{
					template(t, "obj", TemplateObject, function(t, "f", "1"), include(t, "fn")),
					template(t, "fn", TemplateOrdinary, function(t, "f", "2")),
				}
			},
			want: ErrRedefined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Build(t.Context(), NewMapLoader(tt.templates(t)...), "obj", tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		templates func(t *testing.T) []*Template
		path      string
	}{
		{
			name: "range",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/svc/port", "70000"),
					bind(t, "/svc/port", primitive(t, "long", rangeOf(t, "1..65535"), nil)),
				)}
			},
			path: "/svc/port",
		},
		{
			name: "wrong kind",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/l", `list(1, "two")`),
					bind(t, "/l", NewFullType(NewListType(primitive(t, "long", nil, nil), nil), nil, nil)),
				)}
			},
			path: "/l/1",
		},
		{
			name: "undefined element",
			templates: func(t *testing.T) []*Template {
				return []*Template{template(t, "obj", TemplateObject,
					assign(t, "/l", "list(1)"),
					assign(t, "/l/3", "2"),
				)}
			},
			path: "/l/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Build(t.Context(), NewMapLoader(tt.templates(t)...), "obj")

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Build() error = %v, want *ValidationError", err)
			}

			p, ok := ve.ElementPath()
			if !ok || p.String() != tt.path {
				t.Errorf("ElementPath() = %s, %v; want %s", p, ok, tt.path)
			}
		})
	}
}

func TestBuildCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	loader := NewMapLoader(template(t, "obj", TemplateObject, assign(t, "/a", "1")))

	if _, err := Build(ctx, loader, "obj"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Build() error = %v, want context.Canceled", err)
	}
}

func TestTemplateRestrictions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind TemplateKind
		stmt func(t *testing.T) Statement
		want error
	}{
		{
			name: "assignment in declaration",
			kind: TemplateDeclaration,
			stmt: func(t *testing.T) Statement { return assign(t, "/a", "1") },
			want: ErrStatementNotAllowed,
		},
		{
			name: "absolute assignment in structure",
			kind: TemplateStructure,
			stmt: func(t *testing.T) Statement { return assign(t, "/a", "1") },
			want: ErrStatementNotAllowed,
		},
		{
			name: "relative assignment in object",
			kind: TemplateObject,
			stmt: func(t *testing.T) Statement { return assign(t, "a", "1") },
			want: ErrStatementNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewTemplate("t", tt.kind, "", tt.stmt(t)); !errors.Is(err, tt.want) {
				t.Fatalf("NewTemplate() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := NewTemplate("bad name", TemplateObject, ""); !errors.Is(err, ErrInvalidTemplateName) {
		t.Errorf("NewTemplate(bad name) error = %v, want ErrInvalidTemplateName", err)
	}

	if _, err := NewVariable("SELF", MustCompile("1"), false, false); !errors.Is(err, ErrReservedVariable) {
		t.Errorf("NewVariable(SELF) error = %v, want ErrReservedVariable", err)
	}
}
