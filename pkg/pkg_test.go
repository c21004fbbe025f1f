package pkg

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	t.Parallel()

	if !regexp.MustCompile(`^\d+\.\d+\.\d+`).MatchString(Version()) {
		t.Errorf("Version() = %q, want a semantic version", Version())
	}
}

func TestPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		exe  string
		want string
	}{
		{"/usr/local/bin/panc", "panc"},
		{`C:\bin\panc.exe`, "panc"},
		{"/tmp/__debug_bin3312", Name},
		{"/home/me/.panc", "panc"},
		{"...", Name},
	}

	for _, tt := range tests {
		t.Run(tt.exe, func(t *testing.T) {
			t.Parallel()

			exe := filepath.FromSlash(strings.ReplaceAll(tt.exe, `\`, "/"))
			if got := prefixOf(exe); got != tt.want {
				t.Errorf("prefixOf(%q) = %q, want %q", exe, got, tt.want)
			}
		})
	}
}

func TestUserDir(t *testing.T) {
	t.Parallel()

	base := t.TempDir()

	got := userDir(func() (string, error) { return base, nil }, ".config")
	if want := filepath.Join(base, Prefix()); got != want {
		t.Errorf("userDir() = %q, want %q", got, want)
	}

	got = userDir(func() (string, error) { return "", fs.ErrNotExist }, ".config")
	if filepath.Base(got) != Prefix() {
		t.Errorf("userDir() fallback = %q", got)
	}
}

func TestErrorChain(t *testing.T) {
	t.Parallel()

	cause := errors.New("object node01: undefined variable OS")
	err := ErrCompile.Wrap(cause, nil)

	if got, want := err.Error(), "compilation failed: object node01: undefined variable OS"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, ErrCompile) {
		t.Error("chain does not match its sentinel")
	}

	if !errors.Is(err, cause) {
		t.Error("chain does not match its cause")
	}

	if errors.Is(err, ErrNoObjects) {
		t.Error("chain matches an unrelated sentinel")
	}

	wrapped := fmt.Errorf("watch: %w", err)
	if !errors.Is(wrapped, ErrCompile) {
		t.Error("wrapped chain does not match its sentinel")
	}

	if len(ErrReadConfig.Wrapf("line %d", 3)) != 2 {
		t.Error("Wrapf() did not add one member")
	}

	if MakeError(nil, nil) != nil {
		t.Error("MakeError(nil) is not empty")
	}
}
