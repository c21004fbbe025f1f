package lang

import (
	"math"
	"strconv"
	"strings"
)

// Range is an inclusive interval [Min, Max] of non-negative integers used to
// constrain list and dict sizes, string lengths and numeric values.
// An unbounded maximum is represented by math.MaxInt64.
type Range struct {
	min int64
	max int64
}

// NewRange returns the range [lo, hi]. It is a definition error if lo is
// negative or greater than hi.
func NewRange(lo, hi int64) (Range, error) {
	if lo < 0 {
		return Range{}, ErrInvalidRange.Wrapf("minimum value cannot be negative: %d", lo)
	}

	if lo > hi {
		return Range{}, ErrInvalidRange.Wrapf(
			"minimum value %d cannot be greater than maximum value %d", lo, hi)
	}

	return Range{min: lo, max: hi}, nil
}

// ParseRange parses "lo..hi", "lo..", "..hi" or "n" (exactly n). A missing
// minimum is zero and a missing maximum is unbounded.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)

	lo, hi, found := strings.Cut(s, "..")
	if !found {
		hi = lo
	}

	parse := func(text string, def int64) (int64, error) {
		text = strings.TrimSpace(text)
		if text == "" {
			return def, nil
		}

		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return 0, ErrInvalidRange.Wrapf("range value is not a valid long: %q", text)
		}

		return n, nil
	}

	minValue, err := parse(lo, 0)
	if err != nil {
		return Range{}, err
	}

	maxValue, err := parse(hi, math.MaxInt64)
	if err != nil {
		return Range{}, err
	}

	return NewRange(minValue, maxValue)
}

// Min returns the lower bound.
func (r Range) Min() int64 { return r.min }

// Max returns the upper bound.
func (r Range) Max() int64 { return r.max }

// Bounded reports whether the range has a finite maximum.
func (r Range) Bounded() bool { return r.max != math.MaxInt64 }

// Contains reports whether n lies within the range.
func (r Range) Contains(n int64) bool { return n >= r.min && n <= r.max }

// ContainsFloat reports whether x lies within the range.
func (r Range) ContainsFloat(x float64) bool {
	return x >= float64(r.min) && x <= float64(r.max)
}

// String returns "min..max", omitting an unbounded maximum.
func (r Range) String() string {
	s := strconv.FormatInt(r.min, 10) + ".."
	if r.Bounded() {
		s += strconv.FormatInt(r.max, 10)
	}

	return s
}

// checkRange verifies that e falls within r: numeric properties by value,
// strings by length and resources by size.
func checkRange(r Range, e Element) *ValidationError {
	var ok bool

	switch v := e.(type) {
	case Long:
		ok = r.Contains(int64(v))
	case Double:
		ok = r.ContainsFloat(float64(v))
	case String:
		ok = r.Contains(int64(len(v)))
	case Resource:
		ok = r.Contains(int64(v.Len()))
	default:
		return newValidationError("range check not valid for %s", TypeName(e)).withValue(e)
	}

	if !ok {
		return newValidationError("%s is outside of range %s", describe(e), r).withValue(e)
	}

	return nil
}

func describe(e Element) string {
	switch v := e.(type) {
	case String:
		return "string length " + strconv.Itoa(len(v))
	case Resource:
		return TypeName(e) + " size " + strconv.Itoa(v.Len())
	default:
		return "value " + e.String()
	}
}
