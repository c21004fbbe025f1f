package lang

import (
	"cmp"
	"math"
	"regexp"
	"strconv"
)

// Term is an addressing atom: either a string key or a non-negative integer
// index. Terms are comparable values and may be used as map keys.
type Term struct {
	key   string
	index int
	isKey bool
}

var (
	keyPattern   = regexp.MustCompile(`^[a-zA-Z_][\w+\-.]*$`)
	indexPattern = regexp.MustCompile(`^\d`)
)

// Key returns a key term. The key must be a valid identifier-like key: a
// letter or underscore followed by letters, digits, and the characters
// "_+-.".
func Key(s string) (Term, error) {
	if s == "" {
		return Term{}, ErrInvalidTerm.Wrapf("key cannot be empty string")
	}

	if !keyPattern.MatchString(s) {
		return Term{}, ErrInvalidTerm.Wrapf("invalid key %q", s)
	}

	return Term{key: s, isKey: true}, nil
}

// Index returns an index term.
func Index(i int64) (Term, error) {
	switch {
	case i < 0:
		return Term{}, ErrInvalidTerm.Wrapf("index cannot be negative: %d", i)
	case i > math.MaxInt32:
		return Term{}, ErrInvalidTerm.Wrapf(
			"index %d exceeds maximum %d", i, math.MaxInt32)
	}

	return Term{index: int(i)}, nil
}

// MustKey is like [Key] but panics on an invalid key. It is intended for
// static keys in code and tests.
func MustKey(s string) Term {
	t, err := Key(s)
	if err != nil {
		panic(err)
	}

	return t
}

// MustIndex is like [Index] but panics on an invalid index.
func MustIndex(i int64) Term {
	t, err := Index(i)
	if err != nil {
		panic(err)
	}

	return t
}

// ParseTerm converts the textual form of a term. Text beginning with a digit
// is decoded as an integer index (decimal, 0x hexadecimal or 0-prefixed
// octal); anything else must be a valid key.
func ParseTerm(s string) (Term, error) {
	if s == "" {
		return Term{}, ErrInvalidTerm.Wrapf("key cannot be empty string")
	}

	if indexPattern.MatchString(s) {
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return Term{}, ErrInvalidTerm.Wrapf("key cannot begin with digit: %q", s)
		}

		return Index(n)
	}

	return Key(s)
}

// TermOf converts an element used as a subscript into a term. Strings are
// parsed with [ParseTerm] and longs must be valid indexes.
func TermOf(e Element) (Term, error) {
	switch v := e.(type) {
	case String:
		return ParseTerm(string(v))
	case Long:
		return Index(int64(v))
	default:
		return Term{}, ErrInvalidTerm.Wrapf(
			"%s cannot be used as a key or index", TypeName(e))
	}
}

// IsKey reports whether t is a key term.
func (t Term) IsKey() bool { return t.isKey }

// Key returns the key of a key term, or the empty string.
func (t Term) Key() string { return t.key }

// Index returns the index of an index term, or -1 for key terms.
func (t Term) Index() int {
	if t.isKey {
		return -1
	}

	return t.index
}

// Element returns the term as a String or Long element.
func (t Term) Element() Element {
	if t.isKey {
		return String(t.key)
	}

	return Long(t.index)
}

// String returns the textual form of the term.
func (t Term) String() string {
	if t.isKey {
		return t.key
	}

	return strconv.Itoa(t.index)
}

// Compare orders terms: every index sorts before every key, indexes compare
// numerically and keys lexically.
func (t Term) Compare(o Term) int {
	if t.isKey != o.isKey {
		if t.isKey {
			return 1
		}

		return -1
	}

	if t.isKey {
		return cmp.Compare(t.key, o.key)
	}

	return cmp.Compare(t.index, o.index)
}
