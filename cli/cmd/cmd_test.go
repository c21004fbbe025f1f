package cmd

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
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

func TestUniqueDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")

	for _, dir := range []string{a, b} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	link := filepath.Join(root, "link")
	if err := os.Symlink(a, link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	file := filepath.Join(root, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got := uniqueDirs([]string{
		b,
		filepath.Join(root, "missing"),
		a,
		file,
		link,
		filepath.Join(b, "..", "b"),
	})

	if want := []string{b, a}; !slices.Equal(got, want) {
		t.Errorf("uniqueDirs() = %q, want %q", got, want)
	}
}

func TestSettingsLoader(t *testing.T) {
	t.Parallel()

	s := settingsFrom(t.Context())
	if !slices.Equal(s.Templates, []string{"."}) {
		t.Errorf("default Templates = %q", s.Templates)
	}

	s.Templates = []string{filepath.Join(t.TempDir(), "missing")}

	if _, err := s.loader(); err == nil {
		t.Error("loader() succeeded without a template directory")
	}
}

func TestErrorDerivation(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := ErrWriteOutput.Wrap(cause).With(slog.String("file", "out.json"))

	if !errors.Is(err, ErrWriteOutput) {
		t.Error("derived error does not match its sentinel")
	}

	if !errors.Is(err, cause) {
		t.Error("derived error does not match its cause")
	}

	if errors.Is(err, ErrEncode) {
		t.Error("derived error matches an unrelated sentinel")
	}

	if got, want := err.Error(), "write profile: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if n := len(ErrWriteOutput.attrs); n != 0 {
		t.Errorf("sentinel gained %d attrs", n)
	}

	attrs := err.LogValue().Group()
	if len(attrs) != 3 || attrs[2].Key != "file" {
		t.Errorf("LogValue() = %v", attrs)
	}
}
