package log

import (
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{" Info ", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"debug+2", LevelDebug + 2},
		{"verbose", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level Level
		want  string
	}{
		{LevelTrace, "trace"},
		{LevelTrace - 1, "trace-1"},
		{LevelTrace + 2, "trace+2"},
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn + 1, "warn+1"},
		{LevelError, "error"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", int(tt.level), got, tt.want)
		}
	}

	for _, name := range Levels() {
		if got := ParseLevel(name).String(); got != name {
			t.Errorf("ParseLevel(%q).String() = %q", name, got)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, name := range Formats() {
		if got := ParseFormat(name).String(); got != name {
			t.Errorf("ParseFormat(%q) = %v", name, got)
		}
	}

	if got := ParseFormat("xml"); got != DefaultFormat {
		t.Errorf("ParseFormat(xml) = %v, want %v", got, DefaultFormat)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	c := makeConfig(nil,
		WithLevel(LevelWarn),
		WithFormat(FormatJSON),
		WithCaller(true),
		WithPretty(false),
		nil)

	if c.level != LevelWarn || c.format != FormatJSON || !c.caller || c.pretty {
		t.Errorf("makeConfig() = %+v", c)
	}

	if c.output == nil {
		t.Error("nil writer was not replaced")
	}

	if d := WithDefaults(nil)(c); d.level != DefaultLevel || d.caller {
		t.Errorf("WithDefaults() did not reset: %+v", d)
	}
}

func TestTimeLayout(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 7, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2026-03-07T14:30:45Z"},
		{"rfc-3339-nano", "2026-03-07T14:30:45.123456789Z"},
		{"Kitchen", "2:30PM"},
		{"DateTime", "2026-03-07 14:30:45"},
		{"2006/01/02", "2026/03/07"},
		{DefaultTimeLayout, "14:30:45.123"},
		{"none", ""},
		{"", ""},
		{"  \t", ""},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			t.Parallel()

			if got := WithTimeLayout(tt.layout)(config{}).stamp(at); got != tt.want {
				t.Errorf("stamp = %q, want %q", got, tt.want)
			}
		})
	}
}
