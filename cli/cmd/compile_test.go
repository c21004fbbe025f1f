package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/panc/lang"
	"github.com/ardnew/panc/pkg"
)

func objectTemplate(name, path, value string) string {
	return "kind: object\n" +
		"name: " + name + "\n" +
		"statements:\n" +
		"  - assign: " + path + "\n" +
		"    value: " + value + "\n"
}

func TestCompile(t *testing.T) {
	t.Parallel()

	dir := writeTemplates(t, map[string]string{
		"a.yaml":      objectTemplate("a", "/a", "1"),
		"b.yaml":      objectTemplate("b", "/b", "2"),
		"site/c.yaml": objectTemplate("site/c", "/c", "x"),
	})

	tests := []struct {
		name    string
		compile Compile
		want    string
	}{
		{
			name:    "single json",
			compile: Compile{Format: "json", Objects: []string{"a"}},
			want:    `{"a":1}` + "\n",
		},
		{
			name:    "several json",
			compile: Compile{Format: "json", Objects: []string{"b", "a"}},
			want:    `{"b":2}` + "\n" + `{"a":1}` + "\n",
		},
		{
			name:    "several text",
			compile: Compile{Format: "text", Objects: []string{"a", "site/c"}},
			want:    "# a\n/a = 1\n# site/c\n/c = \"x\"\n",
		},
		{
			name:    "several yaml",
			compile: Compile{Format: "yaml", Indent: 2, Objects: []string{"a", "b"}},
			want:    "--- # a\na: 1\n--- # b\nb: 2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			ctx := WithSettings(t.Context(), Settings{Templates: []string{dir}})
			ctx = WithOutput(ctx, &out)

			if err := tt.compile.Run(ctx); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompileOutputDir(t *testing.T) {
	t.Parallel()

	dir := writeTemplates(t, map[string]string{
		"a.yaml":      objectTemplate("a", "/a", "1"),
		"site/c.yaml": objectTemplate("site/c", "/c", "true"),
	})
	out := filepath.Join(t.TempDir(), "profiles")

	var stdout bytes.Buffer

	ctx := WithSettings(t.Context(), Settings{Templates: []string{dir}})
	ctx = WithOutput(ctx, &stdout)

	c := Compile{Output: out, Format: "json", Objects: []string{"a", "site/c"}}
	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stdout.Len() != 0 {
		t.Errorf("standard output = %q, want nothing", stdout.String())
	}

	for file, want := range map[string]string{
		"a.json":      `{"a":1}` + "\n",
		"site/c.json": `{"c":true}` + "\n",
	} {
		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(file)))
		if err != nil {
			t.Fatal(err)
		}

		if string(data) != want {
			t.Errorf("%s = %q, want %q", file, data, want)
		}
	}
}

func TestCompileFailure(t *testing.T) {
	t.Parallel()

	dir := writeTemplates(t, map[string]string{
		"a.yaml": objectTemplate("a", "/a", "1"),
	})

	t.Run("keep going", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer

		ctx := WithSettings(t.Context(), Settings{Templates: []string{dir}})
		ctx = WithOutput(ctx, &out)

		c := Compile{Format: "json", Objects: []string{"missing", "a"}, KeepGoing: true, Jobs: 1}

		err := c.Run(ctx)
		if !errors.Is(err, pkg.ErrCompile) {
			t.Fatalf("Run() error = %v, want %v", err, pkg.ErrCompile)
		}

		if !strings.Contains(err.Error(), "missing: ") {
			t.Errorf("error %q does not name the failed object", err)
		}

		if got, want := out.String(), `{"a":1}`+"\n"; got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
	})

	t.Run("no objects", func(t *testing.T) {
		t.Parallel()

		ctx := WithSettings(t.Context(), Settings{Templates: []string{dir}})

		var c Compile
		if err := c.Run(ctx); !errors.Is(err, pkg.ErrNoObjects) {
			t.Errorf("Run() error = %v, want %v", err, pkg.ErrNoObjects)
		}
	})

	t.Run("no template directory", func(t *testing.T) {
		t.Parallel()

		ctx := WithSettings(t.Context(), Settings{Templates: []string{filepath.Join(dir, "none")}})

		c := Compile{Format: "json", Objects: []string{"a"}}
		if err := c.Run(ctx); !errors.Is(err, pkg.ErrNoLoadPath) {
			t.Errorf("Run() error = %v, want %v", err, pkg.ErrNoLoadPath)
		}
	})
}

func TestExtension(t *testing.T) {
	t.Parallel()

	for format, want := range map[lang.Format]string{
		lang.FormatJSON: ".json",
		lang.FormatYAML: ".yaml",
		lang.FormatText: ".txt",
	} {
		if got := extension(format); got != want {
			t.Errorf("extension(%v) = %q, want %q", format, got, want)
		}
	}
}
