package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format selects how a [Profile] is written.
type Format uint8

const (
	FormatJSON Format = iota // json
	FormatYAML               // yaml
	FormatText               // text
)

// Formats lists the names of every output format.
func Formats() []string {
	return []string{FormatJSON.String(), FormatYAML.String(), FormatText.String()}
}

// ParseFormat converts the name of an output format.
func ParseFormat(s string) (Format, error) {
	for f := FormatJSON; f <= FormatText; f++ {
		if f.String() == s {
			return f, nil
		}
	}

	return 0, ErrInvalidArgument.Wrapf("unknown format %q%s", s, DidYouMean(s, Formats()))
}

type encodeOptions struct {
	indent   int
	unescape bool
}

// EncodeOption configures [Profile.Encode].
type EncodeOption func(*encodeOptions)

// WithIndent sets the indentation width of JSON and YAML output. Zero
// selects compact JSON and flow-style YAML.
func WithIndent(n int) EncodeOption {
	return func(o *encodeOptions) { o.indent = max(n, 0) }
}

// WithUnescapedKeys unescapes dict keys on output.
func WithUnescapedKeys(unescape bool) EncodeOption {
	return func(o *encodeOptions) { o.unescape = unescape }
}

// Encode writes the profile to w in format f.
func (p *Profile) Encode(ctx context.Context, w io.Writer, f Format, opts ...EncodeOption) error {
	o := encodeOptions{indent: 2}
	for _, opt := range opts {
		opt(&o)
	}

	switch f {
	case FormatJSON:
		return p.encodeJSON(w, o)
	case FormatYAML:
		return p.encodeYAML(ctx, w, o)
	case FormatText:
		return p.encodeText(w, o)
	}

	return ErrInvalidArgument.Wrapf("unknown format %d", f)
}

func (p *Profile) encodeJSON(w io.Writer, o encodeOptions) error {
	var (
		data []byte
		err  error
	)

	native := ToNative(p.root, o.unescape)

	if o.indent > 0 {
		data, err = json.MarshalIndent(native, "", strings.Repeat(" ", o.indent))
	} else {
		data, err = json.Marshal(native)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

func (p *Profile) encodeYAML(ctx context.Context, w io.Writer, o encodeOptions) error {
	var opts []yaml.EncodeOption
	if o.indent > 0 {
		opts = append(opts, yaml.Indent(o.indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, ToNative(p.root, o.unescape), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// encodeText writes one "path = value" line per property and empty
// resource, depth first in key order.
func (p *Profile) encodeText(w io.Writer, o encodeOptions) error {
	var walk func(prefix string, r Resource) error

	walk = func(prefix string, r Resource) error {
		for t, child := range r.All() {
			key := t.String()
			if t.IsKey() {
				key = displayKey(t, o.unescape)
			}

			path := prefix + "/" + key

			if sub, ok := child.(Resource); ok && sub.Len() > 0 {
				if err := walk(path, sub); err != nil {
					return err
				}

				continue
			}

			if _, err := fmt.Fprintf(w, "%s = %s\n", path, Quote(child)); err != nil {
				return err
			}
		}

		return nil
	}

	return walk("", p.root)
}
