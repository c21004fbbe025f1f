package cli

import (
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/panc/lang"
	"github.com/ardnew/panc/pkg"
)

// resolve is a [kong.ConfigurationLoader] for YAML configuration files.
//
// Keys name flags without their leading dashes. Nested mappings join their
// keys with a dash, so these are equivalent:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Underscores may stand in for dashes. Lists become comma-separated values.
// Flags given on the command line take precedence.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pkg.ErrReadConfig.Wrap(err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, pkg.ErrReadConfig.Wrapf("%s", yaml.FormatError(err, false, true))
	}

	c := config{}
	c.flatten("", doc)

	return c, nil
}

// config maps flag names to configured values.
type config map[string]any

func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		key := prefix + strings.ReplaceAll(k, "_", "-")

		switch v := v.(type) {
		case map[string]any:
			c.flatten(key+"-", v)
		default:
			c[key] = flagValue(v)
		}
	}
}

// flagValue converts a decoded YAML value to a form every kong mapper
// accepts: booleans stay booleans, everything else becomes a string.
func flagValue(v any) any {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		return v
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		items := make([]string, 0, len(v))
		for _, e := range v {
			items = append(items, stringify(flagValue(e)))
		}

		return strings.Join(items, ",")
	case nil:
		return ""
	}

	return stringify(v)
}

func stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	}

	b, _ := yaml.Marshal(v)

	return strings.TrimSpace(string(b))
}

// flagNames returns the names of the flags of n and its commands.
func flagNames(n *kong.Node) []string {
	names := make([]string, 0, len(n.Flags))

	for _, flag := range n.Flags {
		names = append(names, flag.Name)
	}

	for _, child := range n.Children {
		for _, name := range flagNames(child) {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}

	return names
}

// Validate rejects keys that name no flag of app or its commands.
func (c config) Validate(app *kong.Application) error {
	names := flagNames(app.Node)

	for _, key := range slices.Sorted(maps.Keys(c)) {
		if !slices.Contains(names, key) {
			return pkg.ErrReadConfig.Wrapf("unknown key %q%s", key, lang.DidYouMean(key, names))
		}
	}

	return nil
}

// Resolve returns the configured value of flag, or nil to keep its
// default.
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	return nil, nil //nolint:nilnil // no configured value
}
