package cli

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/panc/log"
)

// logLevel configures the default logger as a side effect of parsing, so
// that the level applies to messages logged while kong is still running.
type logLevel string

func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(text))))

	return nil
}

// logFormat configures the default logger as a side effect of parsing.
type logFormat string

func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(text))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"                  enum:"${logLevels}"  help:"Minimum log level (${enum})."`
	Format     logFormat `default:"text"                  enum:"${logFormats}" help:"Log format (${enum})."`
	TimeLayout string    `default:"${logTimeLayout}"                           help:"Timestamp layout: a time package constant name, a literal layout, or none."`
	Caller     bool      `default:"false"                                      help:"Include the source location of each record." negatable:""`
	Pretty     bool      `default:"true"                                       help:"Style records for a terminal."                negatable:""`
}

func (logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevels":     strings.Join(log.Levels(), ","),
		"logFormats":    strings.Join(log.Formats(), ","),
		"logTimeLayout": log.DefaultTimeLayout,
	}
}

func (logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// options returns the logger options selected by f.
func (f *logConfig) options() []log.Option {
	return []log.Option{
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	}
}

// start applies the parsed flags to the default logger.
func (f *logConfig) start(ctx context.Context) {
	log.Config(f.options()...)

	log.DebugContext(ctx, "logger configured",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty))
}

// scan applies logging flags found in args before kong parses them, so that
// the logger is configured regardless of flag position and for messages
// logged during parsing. Boolean flags do not pass through UnmarshalText,
// which is why this pass exists.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		name, value, assigned := strings.Cut(args[i], "=")

		if name == "--" {
			return
		}

		negated := strings.HasPrefix(name, "--no-log-")
		if !negated && !strings.HasPrefix(name, "--log-") {
			continue
		}

		flag := strings.TrimPrefix(strings.TrimPrefix(name, "--no-"), "--")

		switch flag {
		case "log-level", "log-format", "log-time-layout":
			if negated {
				continue
			}

			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				value = args[i]
			}

			f.set(flag, value)

		case "log-caller", "log-pretty":
			on := true
			if assigned {
				v, err := strconv.ParseBool(value)
				if err != nil {
					continue
				}

				on = v
			}

			f.set(flag, strconv.FormatBool(on != negated))
		}
	}
}

func (f *logConfig) set(flag, value string) {
	switch flag {
	case "log-level":
		_ = f.Level.UnmarshalText([]byte(value))
	case "log-format":
		_ = f.Format.UnmarshalText([]byte(value))
	case "log-time-layout":
		f.TimeLayout = value
		log.Config(log.WithTimeLayout(value))
	case "log-caller":
		f.Caller = value == "true"
		log.Config(log.WithCaller(f.Caller))
	case "log-pretty":
		f.Pretty = value == "true"
		log.Config(log.WithPretty(f.Pretty))
	}
}
