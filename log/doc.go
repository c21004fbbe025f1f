// Package log is a small structured logger built on [log/slog].
//
// A [Logger] is configured once with functional options and is immutable
// afterwards, so a value can be shared freely between goroutines. The zero
// Logger discards every record, which lets libraries accept a Logger
// without requiring one:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatJSON),
//		log.WithPretty(false))
//	logger.Info("compiled profile", slog.String("object", "node01"))
//
// # Levels
//
// Below the four slog levels sits [LevelTrace], used for per-statement
// detail from the compiler. [ParseLevel] accepts each name in any case.
//
// # Output
//
// [FormatJSON] and [FormatText] select the slog handlers. With
// [WithPretty], records go instead to a handler styled with lipgloss: text
// records are single lines and JSON records place each attribute on its own
// line. Colors are used only when the output is a terminal that supports
// them.
//
// # Default logger
//
// The package-level functions write through a default logger on standard
// error. [Config] reconfigures it; the CLI does so while parsing flags.
package log
