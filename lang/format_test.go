package lang

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/goccy/go-yaml"
)

func sampleProfile(t *testing.T) *Profile {
	t.Helper()

	loader := NewMapLoader(template(t, "obj", TemplateObject,
		assign(t, "/a", "1"),
		assign(t, "/b/c", `"xy"`),
		assign(t, "/l", "list(1, 2.5)"),
		assign(t, "/e", "dict()"),
		assign(t, "/_2fetc", "true"),
	))

	p, err := Build(t.Context(), loader, "obj")
	if err != nil {
		t.Fatal(err)
	}

	return p
}

func TestEncode(t *testing.T) {
	t.Parallel()

	p := sampleProfile(t)

	tests := []struct {
		name   string
		format Format
		opts   []EncodeOption
		want   string
	}{
		{
			name:   "compact json",
			format: FormatJSON,
			opts:   []EncodeOption{WithIndent(0)},
			want:   `{"_2fetc":true,"a":1,"b":{"c":"xy"},"e":{},"l":[1,2.5]}` + "\n",
		},
		{
			name:   "unescaped json",
			format: FormatJSON,
			opts:   []EncodeOption{WithIndent(0), WithUnescapedKeys(true)},
			want:   `{"/etc":true,"a":1,"b":{"c":"xy"},"e":{},"l":[1,2.5]}` + "\n",
		},
		{
			name:   "indented json",
			format: FormatJSON,
			opts:   []EncodeOption{WithIndent(1)},
			want: "{\n" +
				" \"_2fetc\": true,\n" +
				" \"a\": 1,\n" +
				" \"b\": {\n" +
				"  \"c\": \"xy\"\n" +
				" },\n" +
				" \"e\": {},\n" +
				" \"l\": [\n" +
				"  1,\n" +
				"  2.5\n" +
				" ]\n" +
				"}\n",
		},
		{
			name:   "text",
			format: FormatText,
			want: "/_2fetc = true\n" +
				"/a = 1\n" +
				"/b/c = \"xy\"\n" +
				"/e = {}\n" +
				"/l/0 = 1\n" +
				"/l/1 = 2.5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := p.Encode(t.Context(), &buf, tt.format, tt.opts...); err != nil {
				t.Fatalf("Encode() unexpected error: %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Encode() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestEncodeYAML(t *testing.T) {
	t.Parallel()

	p := sampleProfile(t)

	var buf bytes.Buffer
	if err := p.Encode(t.Context(), &buf, FormatYAML); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("yaml.Unmarshal() unexpected error: %v\n%s", err, buf.String())
	}

	b, ok := got["b"].(map[string]any)
	if !ok || b["c"] != "xy" {
		t.Errorf("b = %#v, want map with c: xy", got["b"])
	}

	if l, ok := got["l"].([]any); !ok || len(l) != 2 {
		t.Errorf("l = %#v, want two entries", got["l"])
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range Formats() {
		f, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%s) unexpected error: %v", name, err)
		}

		if f.String() != name {
			t.Errorf("ParseFormat(%s) = %s", name, f)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ParseFormat(xml) error = %v, want ErrInvalidArgument", err)
	}
}

func TestToNative(t *testing.T) {
	t.Parallel()

	got := ToNative(NewList(Long(1), String("a"), Boolean(true), Null, NewDict()), false)
	want := []any{int64(1), "a", true, nil, map[string]any{}}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToNative() = %#v, want %#v", got, want)
	}
}
