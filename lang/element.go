package lang

import (
	"strconv"
)

// Kind identifies the concrete variant of an [Element].
type Kind uint8

const (
	KindUndef   Kind = iota // undef
	KindNull                // null
	KindBoolean             // boolean
	KindLong                // long
	KindDouble              // double
	KindString              // string
	KindList                // list
	KindDict                // dict
)

// Element is a value of the configuration language. The set of
// implementations is closed: [Undef], [Null], the [Property] types
// [Boolean], [Long], [Double] and [String], and the [Resource] types built
// on [List] and [Dict].
type Element interface {
	Kind() Kind
	String() string

	element()
}

// Property is an immutable scalar element. Properties never need
// copy-on-write protection and are freely shared.
type Property interface {
	Element

	property()
}

type (
	// Boolean is a boolean property.
	Boolean bool
	// Long is a 64-bit integer property.
	Long int64
	// Double is a 64-bit floating point property.
	Double float64
	// String is a string property.
	String string

	undefElement struct{}
	nullElement  struct{}
)

var (
	// Undef marks a location that has not been assigned yet. It may not
	// appear in a finished profile.
	Undef Element = undefElement{}
	// Null marks explicit deletion. Writing Null to a path removes it.
	Null Element = nullElement{}
)

func (Boolean) element()      {}
func (Long) element()         {}
func (Double) element()       {}
func (String) element()       {}
func (undefElement) element() {}
func (nullElement) element()  {}

func (Boolean) property() {}
func (Long) property()    {}
func (Double) property()  {}
func (String) property()  {}

func (Boolean) Kind() Kind      { return KindBoolean }
func (Long) Kind() Kind         { return KindLong }
func (Double) Kind() Kind       { return KindDouble }
func (String) Kind() Kind       { return KindString }
func (undefElement) Kind() Kind { return KindUndef }
func (nullElement) Kind() Kind  { return KindNull }

func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }
func (l Long) String() string    { return strconv.FormatInt(int64(l), 10) }
func (s String) String() string  { return string(s) }

func (undefElement) String() string { return "undef" }
func (nullElement) String() string  { return "null" }

func (d Double) String() string {
	return strconv.FormatFloat(float64(d), 'g', -1, 64)
}

// TypeName returns the language-level type name of e. A nil element reports
// "undef".
func TypeName(e Element) string {
	if e == nil {
		return KindUndef.String()
	}

	return e.Kind().String()
}

// IsUndef reports whether e is nil or [Undef].
func IsUndef(e Element) bool { return e == nil || e.Kind() == KindUndef }

// IsNull reports whether e is [Null].
func IsNull(e Element) bool { return e != nil && e.Kind() == KindNull }

// Quote returns the display form of e, quoting strings.
func Quote(e Element) string {
	if s, ok := e.(String); ok {
		return strconv.Quote(string(s))
	}

	if e == nil {
		return "undef"
	}

	return e.String()
}

// Equal reports whether two elements hold the same value. Properties are
// equal when they have the same kind and value; resources are compared
// entry by entry.
func Equal(a, b Element) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Kind() != b.Kind() {
		return false
	}

	ra, ok := a.(Resource)
	if !ok {
		return a == b
	}

	rb := b.(Resource) //nolint:forcetypeassert // same kind

	if ra.Len() != rb.Len() {
		return false
	}

	for t, va := range ra.All() {
		vb, err := rb.Get(t)
		if err != nil || !Equal(va, vb) {
			return false
		}
	}

	return true
}

// validReplacement reports whether next may replace prev in place.
// Undef and Null may replace, and be replaced by, anything. Otherwise the
// kinds must agree.
func validReplacement(prev, next Element) bool {
	if IsUndef(prev) || IsNull(prev) || IsUndef(next) || IsNull(next) {
		return true
	}

	return prev.Kind() == next.Kind()
}

// checkReplacement returns an evaluation error if next cannot replace prev.
func checkReplacement(prev, next Element) error {
	if validReplacement(prev, next) {
		return nil
	}

	return ErrInvalidReplacement.Wrapf(
		"cannot replace %s with %s", TypeName(prev), TypeName(next))
}
