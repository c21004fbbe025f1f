package lang

import (
	"encoding/json"
)

// ToNative converts e to plain Go values: dicts become map[string]any,
// lists []any, and properties bool, int64, float64 or string. Undef and
// Null become nil. Dict keys are unescaped with [Unescape] when unescape is
// set; keys that do not unescape are kept as they are.
func ToNative(e Element, unescape bool) any {
	switch v := e.(type) {
	case Boolean:
		return bool(v)
	case Long:
		return int64(v)
	case Double:
		return float64(v)
	case String:
		return string(v)
	case Resource:
		if v.Kind() == KindList {
			out := make([]any, 0, v.Len())
			for _, child := range v.All() {
				out = append(out, ToNative(child, unescape))
			}

			return out
		}

		out := make(map[string]any, v.Len())

		for t, child := range v.All() {
			out[displayKey(t, unescape)] = ToNative(child, unescape)
		}

		return out
	}

	return nil
}

func displayKey(t Term, unescape bool) string {
	if !unescape {
		return t.Key()
	}

	k, err := Unescape(t.Key())
	if err != nil {
		return t.Key()
	}

	return k
}

// MarshalJSON implements json.Marshaler for Profile.
func (p *Profile) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToNative(p.root, false))
}
