package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of one output. The renderer inspects the writer,
// so styles render as plain text unless it is a color terminal.
type palette struct {
	stamp, source, key, str, num, dur, null, yes, no lipgloss.Style
	levels                                           map[Level]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	label := r.NewStyle().Bold(true).Width(5)

	return &palette{
		stamp:  r.NewStyle().Faint(true),
		source: r.NewStyle().Faint(true).Italic(true),
		key:    r.NewStyle().Foreground(lipgloss.Color("8")),
		str:    r.NewStyle().Foreground(lipgloss.Color("6")),
		num:    r.NewStyle().Foreground(lipgloss.Color("3")),
		dur:    r.NewStyle().Foreground(lipgloss.Color("5")),
		null:   r.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		yes:    r.NewStyle().Foreground(lipgloss.Color("2")),
		no:     r.NewStyle().Foreground(lipgloss.Color("1")),
		levels: map[Level]lipgloss.Style{
			LevelTrace: label.Foreground(lipgloss.Color("8")),
			LevelDebug: label.Foreground(lipgloss.Color("4")),
			LevelInfo:  label.Foreground(lipgloss.Color("2")),
			LevelWarn:  label.Foreground(lipgloss.Color("3")),
			LevelError: label.Foreground(lipgloss.Color("1")),
		},
	}
}

func (p *palette) level(l Level) lipgloss.Style {
	for _, named := range []Level{LevelError, LevelWarn, LevelInfo, LevelDebug} {
		if l >= named {
			return p.levels[named]
		}
	}

	return p.levels[LevelTrace]
}

// prettyHandler writes styled records for a terminal. In text format a
// record is one line; in JSON format each attribute gets its own indented
// line. Groups are flattened into dotted keys.
type prettyHandler struct {
	cfg     config
	palette *palette
	mu      *sync.Mutex
	prefix  string
	attrs   []slog.Attr
}

func newPrettyHandler(cfg config) *prettyHandler {
	return &prettyHandler{
		cfg:     cfg,
		palette: newPalette(cfg.output),
		mu:      &sync.Mutex{},
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return Level(level) >= h.cfg.level
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)

	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	p := h.palette

	var head []string

	if s := h.cfg.stamp(r.Time); s != "" && !r.Time.IsZero() {
		head = append(head, p.stamp.Render(s))
	}

	head = append(head, p.level(Level(r.Level)).Render(strings.ToUpper(Level(r.Level).String())))

	if h.cfg.caller && r.PC != 0 {
		if src := r.Source(); src != nil {
			head = append(head, p.source.Render(fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	head = append(head, r.Message)

	fields := make([][2]string, 0, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields = h.flatten(fields, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		fields = h.flatten(fields, h.prefix, a)

		return true
	})

	var buf bytes.Buffer

	buf.WriteString(strings.Join(head, " "))

	sep, end := " ", "\n"
	if h.cfg.format == FormatJSON && len(fields) > 0 {
		sep, end = "\n  ", "\n"
	}

	for _, f := range fields {
		buf.WriteString(sep)
		buf.WriteString(p.key.Render(f[0] + "="))
		buf.WriteString(f[1])
	}

	buf.WriteString(end)

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.cfg.output.Write(buf.Bytes())

	return err
}

// flatten appends the rendered key/value pairs of a, resolving log valuers
// and expanding groups.
func (h *prettyHandler) flatten(fields [][2]string, prefix string, a slog.Attr) [][2]string {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return fields
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range group {
			fields = h.flatten(fields, prefix, g)
		}

		return fields
	}

	return append(fields, [2]string{prefix + a.Key, h.value(a.Value)})
}

func (h *prettyHandler) value(v slog.Value) string {
	p := h.palette

	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			s = strconv.Quote(s)
		}

		return p.str.Render(s)

	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")

	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())

	case slog.KindTime:
		return p.stamp.Render(v.Time().Format(time.RFC3339))

	case slog.KindAny:
		switch x := v.Any().(type) {
		case nil:
			return p.null.Render("null")
		case error:
			return p.no.Render(strconv.Quote(x.Error()))
		case fmt.Stringer:
			return p.str.Render(x.String())
		}
	}

	return p.str.Render(fmt.Sprint(v.Any()))
}
