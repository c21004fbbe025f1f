package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/panc/lang"
	"github.com/ardnew/panc/source"
)

func writeTemplates(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, text := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))

		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return dir
}

const nodeTemplate = `
kind: object
name: node01
statements:
  - variable: LOADPATH
    value: [site]
  - include: base
  - assign: /system/hostname
    value: node01
  - assign: /system/ports
    expr: append(8080)
  - assign: /system/tags
    value: {role: web, rack: 4}
  - include:
      expr: '"os/" + OS'
`

const baseTemplate = `
kind: unique
name: site/base
statements:
  - include: types
  - variable: OS
    value: linux
  - assign: /system/ports
    value: [22]
  - bind: /system
    spec: system
`

const typesTemplate = `
kind: declaration
name: types
statements:
  - type: port
    spec: long(1..65535)
  - type: system
    spec:
      record:
        hostname: {type: string, required: true}
        ports: port[1..]
        tags: {dict: property}
        kernel: {type: string, default: stock}
  - function: double
    expr: ARGV[0] * 2
`

const osTemplate = `
kind: ordinary
name: os/linux
statements:
  - assign: /system/kernel
    expr: '"v" + to_string(double(3))'
    conditional: true
`

func TestLoaderBuild(t *testing.T) {
	t.Parallel()

	dir := writeTemplates(t, map[string]string{
		"node01.yaml":    nodeTemplate,
		"site/base.yaml": baseTemplate,
		"types.yml":      typesTemplate,
		"os/linux.yaml":  osTemplate,
	})

	p, err := lang.Build(t.Context(), source.New([]string{dir}), "node01")
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	data, err := p.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}

	want := `{"system":{"hostname":"node01","kernel":"v6","ports":[22,8080],"tags":{"rack":4,"role":"web"}}}`
	if string(data) != want {
		t.Errorf("Build() = %s, want %s", data, want)
	}

	deps := strings.Join(p.Dependencies(), ",")
	if deps != "node01,site/base,types,os/linux" {
		t.Errorf("Dependencies() = %s", deps)
	}
}

func TestLoaderCache(t *testing.T) {
	t.Parallel()

	dir := writeTemplates(t, map[string]string{"os/linux.yaml": osTemplate})
	l := source.New([]string{dir})

	first, err := l.Load(t.Context(), "os/linux", nil)
	if err != nil {
		t.Fatal(err)
	}

	second, err := l.Load(t.Context(), "os/linux", nil)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("unchanged template was parsed twice")
	}

	changed := strings.Replace(osTemplate, "conditional: true", "final: true", 1)
	if err := os.WriteFile(filepath.Join(dir, "os", "linux.yaml"), []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}

	third, err := l.Load(t.Context(), "os/linux", nil)
	if err != nil {
		t.Fatal(err)
	}

	if third == first {
		t.Error("modified template was served from the cache")
	}

	if third.Source() != changed {
		t.Error("Source() does not hold the document text")
	}
}

func TestLoaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want error
	}{
		{
			name: "syntax",
			text: "kind: [object\n",
			want: source.ErrParseTemplate,
		},
		{
			name: "unknown field",
			text: "kind: object\nname: bad\ncolour: red\n",
			want: source.ErrParseTemplate,
		},
		{
			name: "unknown kind",
			text: "kind: fancy\nname: bad\n",
			want: source.ErrInvalidDocument,
		},
		{
			name: "name mismatch",
			text: "kind: object\nname: other\n",
			want: source.ErrInvalidDocument,
		},
		{
			name: "two selectors",
			text: "kind: object\nname: bad\nstatements:\n  - assign: /a\n    variable: X\n    value: 1\n",
			want: source.ErrInvalidDocument,
		},
		{
			name: "value and expr",
			text: "kind: object\nname: bad\nstatements:\n  - assign: /a\n    value: 1\n    expr: '2'\n",
			want: source.ErrInvalidDocument,
		},
		{
			name: "missing value",
			text: "kind: object\nname: bad\nstatements:\n  - assign: /a\n",
			want: source.ErrInvalidDocument,
		},
		{
			name: "bind without spec",
			text: "kind: object\nname: bad\nstatements:\n  - bind: /a\n",
			want: source.ErrInvalidDocument,
		},
		{
			name: "final include",
			text: "kind: object\nname: bad\nstatements:\n  - include: x\n    final: true\n",
			want: source.ErrInvalidDocument,
		},
		{
			name: "bad expression",
			text: "kind: object\nname: bad\nstatements:\n  - assign: /a\n    expr: '1 +'\n",
			want: lang.ErrInvalidExpression,
		},
		{
			name: "bad path",
			text: "kind: object\nname: bad\nstatements:\n  - assign: /0\n    value: 1\n",
			want: lang.ErrInvalidPath,
		},
		{
			name: "relative in object",
			text: "kind: object\nname: bad\nstatements:\n  - assign: a\n    value: 1\n",
			want: lang.ErrStatementNotAllowed,
		},
		{
			name: "bad type spec",
			text: "kind: declaration\nname: bad\nstatements:\n  - type: t\n    spec: long[\n",
			want: source.ErrInvalidTypeSpec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := writeTemplates(t, map[string]string{"bad.yaml": tt.text})

			_, err := source.New([]string{dir}).Load(t.Context(), "bad", nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoaderNotFound(t *testing.T) {
	t.Parallel()

	dir := writeTemplates(t, map[string]string{
		"os/linux.yaml": osTemplate,
		"types.yaml":    typesTemplate,
	})

	l := source.New([]string{t.TempDir(), dir})

	if got := strings.Join(l.Names(), ","); got != "os/linux,types" {
		t.Errorf("Names() = %s, want os/linux,types", got)
	}

	_, err := l.Load(t.Context(), "os/linx", nil)
	if !errors.Is(err, lang.ErrTemplateNotFound) {
		t.Fatalf("Load() error = %v, want ErrTemplateNotFound", err)
	}

	if !strings.Contains(err.Error(), "os/linux") {
		t.Errorf("Load() error %q does not suggest os/linux", err)
	}
}

func TestLoaderWatch(t *testing.T) {
	t.Parallel()

	dir := writeTemplates(t, map[string]string{"os/linux.yaml": osTemplate})
	l := source.New([]string{dir})

	ctx := t.Context()
	changes := make(chan []string, 1)

	go func() {
		_ = l.Watch(ctx, 20*time.Millisecond, func(names []string) {
			select {
			case changes <- names:
			default:
			}
		})
	}()

	// Give the watcher time to register the directories.
	time.Sleep(100 * time.Millisecond)

	file := filepath.Join(dir, "os", "linux.yaml")
	if err := os.WriteFile(file, []byte(osTemplate+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case names := <-changes:
		if len(names) != 1 || names[0] != "os/linux" {
			t.Errorf("Watch() reported %v, want [os/linux]", names)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() reported no change")
	}
}
