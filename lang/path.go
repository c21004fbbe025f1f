package lang

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

// PathKind classifies a [Path].
type PathKind uint8

const (
	PathRelative PathKind = iota // relative
	PathAbsolute                 // absolute
	PathExternal                 // external
)

// Path is an immutable address into a configuration tree: an ordered
// sequence of terms plus a kind and, for external paths, an authority naming
// the object the path refers to.
type Path struct {
	authority string
	terms     []Term
	kind      PathKind
}

var (
	validAuthority = regexp.MustCompile(`^[\w\-+.]+$`)
	oldAuthority   = regexp.MustCompile(`^//([^/]*)(?:/(.*))?$`)
	newAuthority   = regexp.MustCompile(`^([^:]*):/?(.*)$`)
	validBraces    = regexp.MustCompile(`^([^{}]*(\{[^{}]*\})?)*$`)
)

// Root is the absolute path to the root of a configuration tree.
var Root = Path{kind: PathAbsolute}

// ParsePath parses the textual form of a path.
//
// Absolute paths start with "/". External paths name an authority either as
// "//authority/a/b" or "authority:/a/b". Anything else is relative. Text
// enclosed in braces is escaped with [Escape], so "/a/{x/y}" has the two
// terms "a" and "x_2fy". Braces must be matched and cannot nest.
func ParsePath(s string) (Path, error) {
	if !validBraces.MatchString(s) {
		return Path{}, ErrInvalidPath.Wrapf("invalid braces in path %q", s)
	}

	text, err := escapeBraces(s)
	if err != nil {
		return Path{}, ErrInvalidPath.Wrap(err)
	}

	rest := text

	var p Path

	switch {
	case strings.HasPrefix(text, "//"):
		m := oldAuthority.FindStringSubmatch(text)
		if m == nil || !validAuthority.MatchString(m[1]) {
			return Path{}, ErrInvalidPath.Wrapf("invalid authority in path %q", s)
		}

		p.kind, p.authority, rest = PathExternal, m[1], m[2]

	case strings.Contains(text, ":"):
		m := newAuthority.FindStringSubmatch(text)
		if m == nil || !ValidTemplateName(m[1]) {
			return Path{}, ErrInvalidPath.Wrapf("invalid authority in path %q", s)
		}

		p.kind, p.authority, rest = PathExternal, m[1], m[2]

	case strings.HasPrefix(text, "/"):
		p.kind, rest = PathAbsolute, text[1:]
	}

	if rest != "" {
		parts := strings.Split(rest, "/")
		for len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}

		p.terms = make([]Term, 0, len(parts))

		for _, part := range parts {
			t, err := ParseTerm(part)
			if err != nil {
				return Path{}, ErrInvalidPath.Wrap(err)
			}

			p.terms = append(p.terms, t)
		}
	}

	return p, p.check()
}

// escapeBraces replaces every brace group with the escaped form of its
// content. The braces must already be known to be balanced.
func escapeBraces(s string) (string, error) {
	if !strings.ContainsRune(s, '{') {
		return s, nil
	}

	var sb strings.Builder

	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			sb.WriteString(s)

			return sb.String(), nil
		}

		end := open + strings.IndexByte(s[open:], '}')

		esc, err := Escape(s[open+1 : end])
		if err != nil {
			return "", err
		}

		sb.WriteString(s[:open])
		sb.WriteString(esc)

		s = s[end+1:]
	}
}

// MustParsePath is like [ParsePath] but panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}

	return p
}

// NewPath constructs a path from its parts. The authority is required for,
// and only allowed on, external paths.
func NewPath(kind PathKind, authority string, terms ...Term) (Path, error) {
	if (kind == PathExternal) != (authority != "") {
		return Path{}, ErrInvalidPath.Wrapf(
			"authority %q not valid for %s path", authority, kind)
	}

	p := Path{kind: kind, authority: authority, terms: slices.Clone(terms)}

	return p, p.check()
}

func (p Path) check() error {
	if p.kind == PathRelative && len(p.terms) == 0 {
		return ErrInvalidPath.Wrapf("relative path must contain at least one term")
	}

	if len(p.terms) > 0 && !p.terms[0].IsKey() {
		return ErrInvalidPath.Wrapf("first term of path %q must be a key", p)
	}

	return nil
}

// Append returns a new path with terms added to the end of p.
// External paths cannot be extended.
func (p Path) Append(terms ...Term) (Path, error) {
	if p.kind == PathExternal {
		return Path{}, ErrInvalidPath.Wrapf("external path %q cannot be extended", p)
	}

	q := Path{kind: p.kind, authority: p.authority}
	q.terms = make([]Term, 0, len(p.terms)+len(terms))
	q.terms = append(append(q.terms, p.terms...), terms...)

	return q, q.check()
}

// Resolve anchors a relative path under p. Absolute and external paths are
// returned unchanged.
func (p Path) Resolve(rel Path) (Path, error) {
	if rel.kind != PathRelative {
		return rel, nil
	}

	return p.Append(rel.terms...)
}

// Kind returns the path classification.
func (p Path) Kind() PathKind { return p.kind }

// Authority returns the authority of an external path.
func (p Path) Authority() string { return p.authority }

// IsAbsolute reports whether p is an absolute path.
func (p Path) IsAbsolute() bool { return p.kind == PathAbsolute }

// IsRelative reports whether p is a relative path.
func (p Path) IsRelative() bool { return p.kind == PathRelative }

// IsExternal reports whether p is an external path.
func (p Path) IsExternal() bool { return p.kind == PathExternal }

// Len returns the number of terms.
func (p Path) Len() int { return len(p.terms) }

// Terms returns a copy of the terms of p.
func (p Path) Terms() []Term { return slices.Clone(p.terms) }

// Parent returns the path without its last term. The parent of a path with
// a single term is the root of the same kind.
func (p Path) Parent() Path {
	if len(p.terms) == 0 {
		return p
	}

	return Path{kind: p.kind, authority: p.authority, terms: p.terms[:len(p.terms)-1]}
}

// Last returns the last term of p. The second result is false for an empty
// path.
func (p Path) Last() (Term, bool) {
	if len(p.terms) == 0 {
		return Term{}, false
	}

	return p.terms[len(p.terms)-1], true
}

// Equal reports whether p and o address the same location.
func (p Path) Equal(o Path) bool {
	return p.kind == o.kind && p.authority == o.authority &&
		slices.Equal(p.terms, o.terms)
}

// Compare orders paths: kinds first (relative, absolute, external), then
// the authority, then terms pairwise. When every compared term is equal the
// longer path sorts first.
func (p Path) Compare(o Path) int {
	if c := cmp.Compare(p.kind, o.kind); c != 0 {
		return c
	}

	if c := cmp.Compare(p.authority, o.authority); c != 0 {
		return c
	}

	for i := range min(len(p.terms), len(o.terms)) {
		if c := p.terms[i].Compare(o.terms[i]); c != 0 {
			return c
		}
	}

	return cmp.Compare(len(o.terms), len(p.terms))
}

// String returns the textual form of the path.
func (p Path) String() string {
	var sb strings.Builder

	switch p.kind {
	case PathExternal:
		sb.WriteString(p.authority)
		sb.WriteString(":/")
	case PathAbsolute:
		sb.WriteByte('/')
	}

	for i, t := range p.terms {
		if i > 0 {
			sb.WriteByte('/')
		}

		sb.WriteString(t.String())
	}

	return sb.String()
}
