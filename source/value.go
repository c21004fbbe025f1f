package source

import (
	"fmt"
	"math"
	"slices"

	"github.com/ardnew/panc/lang"
)

// Element converts a decoded YAML value to a language element. Mappings
// become dicts whose keys must be valid dict keys, sequences become lists
// and a YAML null becomes null.
func Element(v any) (lang.Element, error) {
	switch x := v.(type) {
	case nil:
		return lang.Null, nil
	case bool:
		return lang.Boolean(x), nil
	case string:
		return lang.String(x), nil
	case int:
		return lang.Long(x), nil
	case int8:
		return lang.Long(x), nil
	case int16:
		return lang.Long(x), nil
	case int32:
		return lang.Long(x), nil
	case int64:
		return lang.Long(x), nil
	case uint:
		return unsigned(uint64(x))
	case uint8:
		return lang.Long(x), nil
	case uint16:
		return lang.Long(x), nil
	case uint32:
		return lang.Long(x), nil
	case uint64:
		return unsigned(x)
	case float32:
		return lang.Double(x), nil
	case float64:
		return lang.Double(x), nil

	case []any:
		l := lang.NewList()

		for i, item := range x {
			e, err := Element(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}

			l.Append(e)
		}

		return l, nil

	case map[string]any:
		return dict(x)

	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = v
		}

		return dict(m)
	}

	return nil, ErrInvalidValue.Wrapf("unsupported YAML value of type %T", v)
}

func unsigned(n uint64) (lang.Element, error) {
	if n > math.MaxInt64 {
		return nil, ErrInvalidValue.Wrapf("%d overflows a long", n)
	}

	return lang.Long(n), nil
}

func dict(m map[string]any) (lang.Element, error) {
	d := lang.NewDict()

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		e, err := Element(m[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}

		if err := d.PutKey(k, e); err != nil {
			return nil, ErrInvalidValue.Wrap(err)
		}
	}

	return d, nil
}
