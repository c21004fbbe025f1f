package lang

import (
	"cmp"
	"math"
	"regexp"
)

// arithmetic applies a binary arithmetic operator. Two longs produce a
// long, with "/" truncating; mixing a long and a double promotes to double.
// "%" is defined only for longs. "+" also concatenates strings.
func arithmetic(op string, a, b Element) (Element, error) {
	if sa, ok := a.(String); ok {
		if sb, ok := b.(String); ok && op == "+" {
			return sa + sb, nil
		}
	}

	la, aLong := a.(Long)
	lb, bLong := b.(Long)

	if aLong && bLong {
		return longArithmetic(op, la, lb)
	}

	x, okA := toFloat(a)
	y, okB := toFloat(b)

	if !okA || !okB || op == "%" {
		return nil, ErrMismatchedTypes.Wrapf(
			"operator %s not defined for %s and %s", op, TypeName(a), TypeName(b))
	}

	switch op {
	case "+":
		return Double(x + y), nil
	case "-":
		return Double(x - y), nil
	case "*":
		return Double(x * y), nil
	case "/":
		if y == 0 {
			return nil, ErrDivisionByZero.Wrapf("%s / %s", a, b)
		}

		return Double(x / y), nil
	}

	return nil, defect("unknown arithmetic operator %q", op)
}

func longArithmetic(op string, a, b Long) (Element, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, ErrDivisionByZero.Wrapf("%d / %d", a, b)
		}

		return a / b, nil
	case "%":
		if b == 0 {
			return nil, ErrDivisionByZero.Wrapf("%d %% %d", a, b)
		}

		return a % b, nil
	}

	return nil, defect("unknown arithmetic operator %q", op)
}

func toFloat(e Element) (float64, bool) {
	switch v := e.(type) {
	case Long:
		return float64(v), true
	case Double:
		return float64(v), true
	default:
		return 0, false
	}
}

// equality compares two elements, promoting mixed numeric operands.
func equality(a, b Element) bool {
	la, aLong := a.(Long)
	lb, bLong := b.(Long)

	if aLong && bLong {
		return la == lb
	}

	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return x == y
		}
	}

	return Equal(a, b)
}

// ordering compares numbers (with promotion) or strings.
func ordering(a, b Element) (int, error) {
	if la, ok := a.(Long); ok {
		if lb, ok := b.(Long); ok {
			return cmp.Compare(la, lb), nil
		}
	}

	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			if math.IsNaN(x) || math.IsNaN(y) {
				return 0, ErrInvalidArgument.Wrapf("cannot order NaN")
			}

			return cmp.Compare(x, y), nil
		}
	}

	if sa, ok := a.(String); ok {
		if sb, ok := b.(String); ok {
			return cmp.Compare(sa, sb), nil
		}
	}

	return 0, ErrMismatchedTypes.Wrapf(
		"cannot compare %s with %s", TypeName(a), TypeName(b))
}

func comparison(op string, a, b Element) (Element, error) {
	switch op {
	case "==":
		return Boolean(equality(a, b)), nil
	case "!=":
		return Boolean(!equality(a, b)), nil
	}

	c, err := ordering(a, b)
	if err != nil {
		return nil, err
	}

	switch op {
	case "<":
		return Boolean(c < 0), nil
	case "<=":
		return Boolean(c <= 0), nil
	case ">":
		return Boolean(c > 0), nil
	case ">=":
		return Boolean(c >= 0), nil
	}

	return nil, defect("unknown comparison operator %q", op)
}

func negate(e Element) (Element, error) {
	switch v := e.(type) {
	case Long:
		return -v, nil
	case Double:
		return -v, nil
	default:
		return nil, ErrMismatchedTypes.Wrapf("cannot negate %s", TypeName(e))
	}
}

func matches(s, pattern Element) (Element, error) {
	str, ok := s.(String)
	if !ok {
		return nil, ErrMismatchedTypes.Wrapf("matches requires string, found %s", TypeName(s))
	}

	pat, ok := pattern.(String)
	if !ok {
		return nil, ErrMismatchedTypes.Wrapf(
			"matches requires string pattern, found %s", TypeName(pattern))
	}

	re, err := regexp.Compile(string(pat))
	if err != nil {
		return nil, ErrInvalidArgument.Wrap(err)
	}

	return Boolean(re.MatchString(string(str))), nil
}

// membership reports whether needle is an entry of a list or a key of a
// dict.
func membership(needle, haystack Element) (Element, error) {
	r, ok := haystack.(Resource)
	if !ok {
		return nil, ErrMismatchedTypes.Wrapf("in requires list or dict, found %s", TypeName(haystack))
	}

	if r.Kind() == KindDict {
		s, ok := needle.(String)
		if !ok {
			return Boolean(false), nil
		}

		t, err := Key(string(s))
		if err != nil {
			return Boolean(false), nil //nolint:nilerr // invalid keys are never present
		}

		child, err := r.Get(t)

		return Boolean(child != nil), err
	}

	for _, e := range r.All() {
		if equality(needle, e) {
			return Boolean(true), nil
		}
	}

	return Boolean(false), nil
}

// span returns the list of longs from a to b inclusive. Lists of limit
// entries or more are refused.
func span(limit int, a, b Element) (Element, error) {
	lo, ok1 := a.(Long)
	hi, ok2 := b.(Long)

	if !ok1 || !ok2 {
		return nil, ErrMismatchedTypes.Wrapf(
			"range requires longs, found %s and %s", TypeName(a), TypeName(b))
	}

	out := NewList()
	if hi < lo {
		return out, nil
	}

	// hi-lo does not fit an int64 for the widest ranges.
	n := uint64(hi) - uint64(lo)
	if n >= uint64(max(limit, 1)) {
		return nil, ErrIterationLimit.Wrapf("range %d..%d too large", lo, hi)
	}

	out.items = make([]Element, 0, n+1)
	for i := range n + 1 {
		out.items = append(out.items, lo+Long(i))
	}

	return out, nil
}
