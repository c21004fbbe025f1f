package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
)

type initCLI struct {
	Templates []string      `default:"site"`
	Empty     string
	Limit     int           `default:"50"`
	Delay     time.Duration `default:"250ms"`
	Verbose   bool
	PprofMode string        `default:"cpu"`

	Init Init `cmd:""`
}

func parseInit(t *testing.T, file string, args ...string) (*initCLI, *kong.Context) {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli,
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Vars{ConfigIdentifier: file},
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"init"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	return &cli, ktx
}

func TestConfigDocument(t *testing.T) {
	t.Parallel()

	_, ktx := parseInit(t, "")

	data, err := configDocument(ktx)
	if err != nil {
		t.Fatal(err)
	}

	want := "templates:\n" +
		"  - site\n" +
		"limit: 50\n" +
		"delay: 250ms\n" +
		"verbose: false\n"

	if got := string(data); got != want {
		t.Errorf("configDocument() =\n%s\nwant\n%s", got, want)
	}
}

func TestConfigValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want any
		ok   bool
	}{
		{name: "nil", in: nil},
		{name: "empty string", in: ""},
		{name: "string", in: "x", want: "x", ok: true},
		{name: "uint", in: uint8(7), want: uint64(7), ok: true},
		{name: "duration", in: 2 * time.Second, want: "2s", ok: true},
		{name: "empty list", in: []string{}},
		{name: "blank list", in: []string{"", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := configValue(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("configValue(%#v) = %#v, %t; want %#v, %t", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestInitWrite(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "panc", "config.yaml")

	cli, ktx := parseInit(t, file)
	ctx := WithContext(t.Context(), ktx)

	if err := cli.Init.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(string(data), "templates:\n") {
		t.Errorf("config =\n%s", data)
	}

	if err := cli.Init.Run(ctx); !errors.Is(err, ErrFileExists) {
		t.Errorf("second Run() error = %v, want %v", err, ErrFileExists)
	}

	cli, ktx = parseInit(t, file, "--force")
	if err := cli.Init.Run(WithContext(t.Context(), ktx)); err != nil {
		t.Errorf("forced Run() error = %v", err)
	}
}

func TestInitPrint(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "config.yaml")

	cli, ktx := parseInit(t, file, "--print")

	var out bytes.Buffer
	if err := cli.Init.Run(WithOutput(WithContext(t.Context(), ktx), &out)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(out.String(), "limit: 50\n") {
		t.Errorf("output =\n%s", out.String())
	}

	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Errorf("--print wrote %s", file)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := (Version{}).Run(WithOutput(t.Context(), &out)); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(out.String(), "panc ") {
		t.Errorf("Version = %q", out.String())
	}
}
