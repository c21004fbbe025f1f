package lang

import (
	"errors"
	"strings"
	"testing"
)

func evaluate(t *testing.T, src string, opts ...Option) (Element, error) {
	t.Helper()

	op, err := Compile(src)
	if err != nil {
		return nil, err
	}

	return op.Execute(NewBuildContext(t.Context(), nil, "test", opts...))
}

func TestCompileEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "long arithmetic", src: "1 + 2 * 3", want: "7"},
		{name: "long division truncates", src: "7 / 2", want: "3"},
		{name: "double promotion", src: "7.0 / 2", want: "3.5"},
		{name: "modulo", src: "7 % 3", want: "1"},
		{name: "negation", src: "-(2 - 5)", want: "3"},
		{name: "string concat", src: `"ab" + "cd"`, want: `"abcd"`},
		{name: "mixed equality", src: "1 == 1.0", want: "true"},
		{name: "string ordering", src: `"a" < "b"`, want: "true"},
		{name: "logical", src: "true && !false", want: "true"},
		{name: "short circuit", src: "false && (1 / x > 0)", want: "false"},
		{name: "matches", src: `"host01" matches "^host[0-9]+$"`, want: "true"},
		{name: "list membership", src: `"b" in ["a", "b"]`, want: "true"},
		{name: "dict membership", src: `"k" in {"k": 1}`, want: "true"},
		{name: "not in", src: `"z" not in ["a"]`, want: "true"},
		{name: "index", src: "[1, 2, 3][1]", want: "2"},
		{name: "member", src: `{"a": {"b": 1}}.a.b`, want: "1"},
		{name: "slice", src: "[1, 2, 3][1:]", want: "[2, 3]"},
		{name: "string slice", src: `"hello"[1:3]`, want: `"el"`},
		{name: "range", src: "1..3", want: "[1, 2, 3]"},
		{name: "coalesce", src: "nil ?? 5", want: "5"},
		{name: "undef coalesce", src: "undef ?? 6", want: "6"},
		{name: "optional member", src: `{"a": 1}?.b`, want: "null"},
		{name: "ternary", src: "1 > 2 ? 1 : 2", want: "2"},
		{name: "let", src: "let x = 3; x * x", want: "9"},
		{name: "sequence", src: "1; 2; 3", want: "3"},
		{name: "length", src: `length("abc") + len([1, 2])`, want: "5"},
		{name: "upper alias", src: `upper("ab")`, want: `"AB"`},
		{name: "to_long hex", src: `to_long("0x10")`, want: "16"},
		{name: "to_double", src: "to_double(2)", want: "2"},
		{name: "to_boolean", src: `to_boolean("TRUE")`, want: "true"},
		{name: "to_string", src: "to_string(1.5)", want: `"1.5"`},
		{name: "format", src: `format("%s-%03d", "a", 7)`, want: `"a-007"`},
		{name: "substr", src: `substr("hello", 1, 3)`, want: `"ell"`},
		{name: "splice list", src: "splice([1, 2, 3], 1, 1, [9, 8])", want: "[1, 9, 8, 3]"},
		{name: "splice string", src: `splice("abcd", 1, 2, "XY")`, want: `"aXYd"`},
		{name: "splice list to end", src: "splice([1, 2, 3], 1, 9223372036854775807)", want: "[1]"},
		{name: "splice string to end", src: `splice("abcd", 1, 9223372036854775807)`, want: `"a"`},
		{name: "negative range", src: "-2..0", want: "[-2, -1, 0]"},
		{name: "empty range", src: "3..1", want: "[]"},
		{
			name: "range to max long",
			src:  "let n = 9223372036854775807; (n - 1)..n",
			want: "[9223372036854775806, 9223372036854775807]",
		},
		{name: "merge lists", src: "merge([1], [2, 3])", want: "[1, 2, 3]"},
		{name: "merge dicts", src: `merge({"a": 1}, {"b": 2})`, want: "{a: 1, b: 2}"},
		{name: "index string", src: `index("lo", "hello")`, want: "3"},
		{name: "index list", src: `index("b", ["a", "b"])`, want: "1"},
		{name: "index missing", src: `index("z", ["a"])`, want: "-1"},
		{name: "key", src: `key({"b": 1, "a": 2}, 0)`, want: `"a"`},
		{name: "escape", src: `escape("a/b")`, want: `"a_2fb"`},
		{name: "unescape", src: `unescape("a_2fb")`, want: `"a/b"`},
		{name: "join", src: `join(["a", "b"], ",")`, want: `"a,b"`},
		{name: "split", src: `split("a,b", ",")`, want: `["a", "b"]`},
		{name: "is_list", src: "is_list([1]) && !is_dict([1])", want: "true"},
		{name: "is_defined", src: "is_defined(undef) || is_defined(nil)", want: "false"},
		{name: "dict builtin", src: `dict("x", 1, "y", 2)`, want: "{x: 1, y: 2}"},
		{name: "append to list", src: "append([1], 2, 3)", want: "[1, 2, 3]"},
		{name: "prepend to list", src: "prepend([2], 1)", want: "[1, 2]"},
		{name: "set local", src: `let d = {}; set(d.a.b, 1); d`, want: "{a: {b: 1}}"},
		{name: "set index pads", src: "let l = [0]; set(l[2], 2); l", want: "[0, undef, 2]"},
		{name: "read does not alias", src: "let a = [1]; let b = a; set(b[0], 2); a", want: "[1]"},
		{
			name: "for loop",
			src:  "let n = 0; for(set(i, 0), i < 5, set(i, i + 1), set(n, n + i)); n",
			want: "10",
		},
		{
			name: "while loop",
			src:  "let n = 1; while(n < 100, set(n, n * 2)); n",
			want: "128",
		},
		{
			name: "foreach dict",
			src:  `let out = ""; foreach(k, v, {"b": 2, "a": 1}, set(out, out + k + to_string(v))); out`,
			want: `"a1b2"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := evaluate(t, tt.src)
			if err != nil {
				t.Fatalf("evaluate(%q) unexpected error: %v", tt.src, err)
			}

			if s := Quote(got); s != tt.want {
				t.Errorf("evaluate(%q) = %s, want %s", tt.src, s, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{name: "syntax", src: "1 +", want: ErrInvalidExpression},
		{name: "folded division by zero", src: "1 / 0", want: ErrDivisionByZero},
		{name: "folded type error", src: `1 + "a"`, want: ErrInvalidExpression},
		{name: "unknown dotted function", src: "mung.prefixx(1)", want: ErrUndefinedFunction},
		{name: "builtin arity", src: "length(1, 2)", want: ErrInvalidExpression},
		{name: "set reserved", src: "set(ARGV, 1)", want: ErrReservedVariable},
		{name: "foreach variable", src: "foreach(1, v, [1], v)", want: ErrInvalidExpression},
		{name: "predicate", src: "map([1], # * 2)", want: ErrInvalidExpression},
		{name: "power", src: "2 ** 3", want: ErrInvalidExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Compile(tt.src)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Compile(%q) error = %v, want %v", tt.src, err, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{name: "undefined variable", src: "x + 1", want: ErrUndefinedVariable},
		{name: "undefined function", src: "nope(1)", want: ErrUndefinedFunction},
		{name: "missing index", src: "let l = [1]; l[3]", want: ErrNonexistentElement},
		{name: "wrong term", src: `let l = [1]; l["a"]`, want: ErrInvalidTermKind},
		{name: "non-boolean condition", src: "let x = 1; x ? 1 : 2", want: ErrMismatchedTypes},
		{name: "user error", src: `let x = 1; error("bad ", x)`, want: ErrUserError},
		{name: "iteration limit", src: "let x = true; while(x, 1)", want: ErrIterationLimit},
		{
			name: "modification while iterating",
			src:  "let l = [1, 2]; set(l[0], 0); foreach(k, v, l, set(l[5], 1))",
			want: ErrConcurrentModification,
		},
		{name: "value outside build", src: `value("/a")`, want: ErrNonexistentElement},
		{name: "substr past end", src: `substr("abc", 1, 9223372036854775807)`, want: ErrInvalidArgument},
		{name: "substr length", src: `let n = 3; substr("abc", 1, n)`, want: ErrInvalidArgument},
		{name: "splice negative count", src: "splice([1, 2], 0, -1)", want: ErrInvalidArgument},
		{name: "range beyond limit", src: "let n = 20; 1..n", want: ErrIterationLimit},
		{
			name: "widest range",
			src:  "-5000000000000000000 .. 5000000000000000000",
			want: ErrIterationLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := evaluate(t, tt.src, WithIterationLimit(10))
			if !errors.Is(err, tt.want) {
				t.Fatalf("evaluate(%q) error = %v, want %v", tt.src, err, tt.want)
			}
		})
	}
}

func TestConstantFolding(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"1 + 2",
		`"a" + "b"`,
		"[1, [2, 3]]",
		`{"a": length("xyz")}`,
	} {
		op, err := Compile(src)
		if err != nil {
			t.Fatalf("Compile(%q) unexpected error: %v", src, err)
		}

		if _, ok := Constant(op); !ok {
			t.Errorf("Compile(%q) was not folded", src)
		}
	}

	for _, src := range []string{"x + 1", `value("/a")`, `error("x")`, "f(1)", "true ? 1 : x"} {
		op, err := Compile(src)
		if err != nil {
			t.Fatalf("Compile(%q) unexpected error: %v", src, err)
		}

		if _, ok := Constant(op); ok {
			t.Errorf("Compile(%q) was folded", src)
		}
	}
}

func TestMungPrefix(t *testing.T) {
	t.Parallel()

	got, err := evaluate(t, `mung.prefix("/usr/bin", "/opt/bin")`)
	if err != nil {
		t.Fatal(err)
	}

	s, ok := got.(String)
	if !ok {
		t.Fatalf("mung.prefix returned %s", TypeName(got))
	}

	if !strings.HasPrefix(string(s), "/opt/bin") || !strings.Contains(string(s), "/usr/bin") {
		t.Errorf("mung.prefix = %q, want /opt/bin before /usr/bin", s)
	}

	got, err = evaluate(t, `mung.prefix("/usr/bin:/bin", "/opt/bin")`)
	if err != nil {
		t.Fatal(err)
	}

	if want := String("/opt/bin:/usr/bin:/bin"); got != want {
		t.Errorf("mung.prefix = %s, want %s", Quote(got), Quote(want))
	}
}
