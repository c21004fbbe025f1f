package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMakeDefaults(t *testing.T) {
	t.Parallel()

	l := Make(nil)

	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}

	if l.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", l.Format(), DefaultFormat)
	}

	if l.caller || !l.pretty {
		t.Errorf("caller = %t, pretty = %t", l.caller, l.pretty)
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		log    func(Logger, string, ...slog.Attr)
		min    Level
		logged bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at info", Logger.Info, LevelInfo, true},
		{"warn at error", Logger.Warn, LevelError, false},
		{"error at trace", Logger.Error, LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, pretty := range []bool{false, true} {
				var buf bytes.Buffer

				tt.log(Make(&buf, WithLevel(tt.min), WithPretty(pretty)), "message")

				if got := buf.Len() > 0; got != tt.logged {
					t.Errorf("pretty=%t: logged = %t, want %t", pretty, got, tt.logged)
				}
			}
		})
	}
}

func TestJSONRecord(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := Make(&buf,
		WithFormat(FormatJSON),
		WithPretty(false),
		WithLevel(LevelTrace),
		WithTimeLayout("none")).
		With(slog.String("object", "node01"))

	l.Trace("push template", slog.String("name", "site/base"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	want := map[string]any{
		"level":  "TRACE",
		"msg":    "push template",
		"object": "node01",
		"name":   "site/base",
	}

	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}

	if _, ok := rec["time"]; ok {
		t.Error("time present with layout none")
	}
}

func TestTextRecord(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatText), WithPretty(false)).
		Info("compiled profile", slog.Int("templates", 4))

	out := buf.String()
	for _, s := range []string{"level=INFO", `msg="compiled profile"`, "templates=4"} {
		if !strings.Contains(out, s) {
			t.Errorf("output %q does not contain %q", out, s)
		}
	}
}

func TestPrettyRecord(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		Make(&buf, WithTimeLayout("none"), WithLevel(LevelTrace)).
			With(slog.String("object", "node01")).
			Warn("build failed",
				slog.Group("error", slog.String("msg", "bad value"), slog.Int("line", 3)),
				slog.Any("cause", err),
				slog.Bool("final", false))

		got := buf.String()
		want := `WARN  build failed object=node01 error.msg="bad value" error.line=3 cause="boom" final=false` + "\n"

		if got != want {
			t.Errorf("got  %q\nwant %q", got, want)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		Make(&buf, WithTimeLayout("none"), WithFormat(FormatJSON)).
			WithGroup("build").
			Info("done", slog.String("object", "node01"))

		got := buf.String()
		want := "INFO  done\n  build.object=node01\n"

		if got != want {
			t.Errorf("got  %q\nwant %q", got, want)
		}
	})
}

func TestWrapKeepsAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false)).With(slog.String("object", "node01"))
	l = l.Wrap(WithLevel(LevelDebug), WithFormat(FormatJSON))

	l.Debug("loaded")

	if !strings.Contains(buf.String(), `"object":"node01"`) {
		t.Errorf("Wrap() dropped attributes: %s", buf.String())
	}
}

func TestCaller(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false), WithFormat(FormatJSON), WithCaller(true))
	l.InfoContext(t.Context(), "context variant")
	l.Info("plain variant")

	for line := range strings.Lines(buf.String()) {
		if !strings.Contains(line, "log_test.go") {
			t.Errorf("record does not name the calling file: %s", line)
		}
	}
}

func TestZeroLogger(t *testing.T) {
	t.Parallel()

	var l Logger

	l.Trace("x")
	l.Error("x")
	l.WarnContext(t.Context(), "x")

	if l.With(slog.String("k", "v")).Logger != nil {
		t.Error("With() on the zero logger returned a live logger")
	}

	if l.Wrap(WithLevel(LevelTrace)).Logger != nil {
		t.Error("Wrap() on the zero logger returned a live logger")
	}

	if l.Enabled(t.Context(), LevelError) {
		t.Error("zero logger reports enabled")
	}
}

func TestConcurrentLogging(t *testing.T) {
	t.Parallel()

	for _, pretty := range []bool{false, true} {
		var (
			buf bytes.Buffer
			wg  sync.WaitGroup
			mu  sync.Mutex
		)

		l := Make(&lockedWriter{w: &buf, mu: &mu}, WithPretty(pretty))

		for i := range 100 {
			wg.Go(func() { l.Info("concurrent", slog.Int("id", i)) })
		}

		wg.Wait()

		if n := strings.Count(buf.String(), "\n"); n != 100 {
			t.Errorf("pretty=%t: %d lines, want 100", pretty, n)
		}
	}
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.w.Write(p)
}

func BenchmarkInfo(b *testing.B) {
	for _, pretty := range []bool{false, true} {
		l := Make(&bytes.Buffer{}, WithPretty(pretty)).With(slog.String("object", "node01"))

		b.Run(map[bool]string{false: "plain", true: "pretty"}[pretty], func(b *testing.B) {
			for i := 0; b.Loop(); i++ {
				l.Info("statement", slog.Int("n", i))
			}
		})
	}
}
