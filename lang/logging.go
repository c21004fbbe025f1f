package lang

import (
	"log/slog"
)

const maxLoggedSource = 80

func attrSource(src string) slog.Attr {
	if len(src) > maxLoggedSource {
		src = src[:maxLoggedSource] + "..."
	}

	return slog.String("source", src)
}

func attrConstant(op Operation) slog.Attr {
	_, ok := Constant(op)

	return slog.Bool("constant", ok)
}

func attrElement(key string, e Element) slog.Attr {
	if e == nil {
		return slog.String(key, "<nil>")
	}

	return slog.Group(key,
		slog.String("kind", e.Kind().String()),
		slog.String("value", e.String()))
}
