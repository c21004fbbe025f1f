package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/panc/log"
	"github.com/ardnew/panc/profile"
)

// configIndent is the indent width of the written configuration file.
const configIndent = 2

// Init writes the current global flag values to the configuration file.
type Init struct {
	Force bool `help:"Overwrite an existing configuration file." short:"f"`
	Print bool `help:"Print the configuration instead of writing it." short:"p"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ErrWriteConfig.Wrapf("command line unavailable")
	}

	data, err := configDocument(ktx)
	if err != nil {
		return ErrWriteConfig.Wrap(err)
	}

	if i.Print {
		_, err := outputFrom(ctx).Write(data)

		return err
	}

	file := ktx.Model.Vars()[ConfigIdentifier]
	if file == "" {
		return ErrWriteConfig.Wrapf("configuration path undefined")
	}

	if _, err := os.Stat(file); err == nil && !i.Force {
		return ErrWriteConfig.With(slog.String("file", file)).Wrap(ErrFileExists)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return ErrWriteConfig.With(slog.String("file", file)).Wrap(err)
	}

	if err := os.WriteFile(file, data, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", file)).Wrap(err)
	}

	log.InfoContext(ctx, "wrote configuration", slog.String("file", file))

	return nil
}

// configDocument encodes the values of the application's own flags as a
// YAML mapping, in declaration order. Help and profiling flags, and flags
// without a value, are left out.
func configDocument(ktx *kong.Context) ([]byte, error) {
	var doc yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || flag.Name == "help" || strings.HasPrefix(flag.Name, profile.Tag+"-") {
			continue
		}

		if v, ok := configValue(ktx.FlagValue(flag)); ok {
			doc = append(doc, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return yaml.MarshalWithOptions(doc, yaml.Indent(configIndent), yaml.IndentSequence(true))
}

// configValue converts a flag value to the form the configuration
// resolver reads back. Empty strings and empty lists have no value.
func configValue(v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	if d, ok := v.(time.Duration); ok {
		return d.String(), true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), rv.Len() > 0

	case reflect.Bool:
		return rv.Bool(), true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true

	case reflect.Float32, reflect.Float64:
		return rv.Float(), true

	case reflect.Slice:
		if rv.Len() == 0 {
			return nil, false
		}

		list := make([]any, 0, rv.Len())

		for j := range rv.Len() {
			if e, ok := configValue(rv.Index(j).Interface()); ok {
				list = append(list, e)
			}
		}

		if len(list) == 0 {
			return nil, false
		}

		return list, true
	}

	return fmt.Sprint(v), true
}
