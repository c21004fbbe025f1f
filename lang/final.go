package lang

// finalTrie records which absolute paths are final. A path is frozen when it
// or one of its ancestors is final, or when any of its descendants is.
type finalTrie struct {
	children map[Term]*finalTrie
	final    bool
}

func (f *finalTrie) mark(terms []Term) {
	n := f
	for _, t := range terms {
		if n.children == nil {
			n.children = map[Term]*finalTrie{}
		}

		child, ok := n.children[t]
		if !ok {
			child = &finalTrie{}
			n.children[t] = child
		}

		n = child
	}

	n.final = true
}

// ancestor returns the length of the shortest final prefix of terms, the
// path itself included.
func (f *finalTrie) ancestor(terms []Term) (int, bool) {
	n := f
	if n.final {
		return 0, true
	}

	for i, t := range terms {
		child, ok := n.children[t]
		if !ok {
			return 0, false
		}

		if child.final {
			return i + 1, true
		}

		n = child
	}

	return 0, false
}

// descendant returns the terms below the node at terms leading to the first
// final descendant, in term order.
func (f *finalTrie) descendant(terms []Term) ([]Term, bool) {
	n := f
	for _, t := range terms {
		child, ok := n.children[t]
		if !ok {
			return nil, false
		}

		n = child
	}

	return n.firstFinal()
}

func (f *finalTrie) firstFinal() ([]Term, bool) {
	var best []Term

	found := false

	for t, child := range f.children {
		var sub []Term

		if !child.final {
			var ok bool
			if sub, ok = child.firstFinal(); !ok {
				continue
			}
		}

		cand := append([]Term{t}, sub...)
		if !found || comparePrefix(cand, best) < 0 {
			best, found = cand, true
		}
	}

	return best, found
}

func comparePrefix(a, b []Term) int {
	for i := range min(len(a), len(b)) {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}

	return len(a) - len(b)
}

// reason explains why p cannot be modified, or returns "" if it can.
func (f *finalTrie) reason(p Path) string {
	if n, ok := f.ancestor(p.terms); ok {
		q := Path{kind: p.kind, terms: p.terms[:n]}

		return p.String() + " cannot be modified; " + q.String() + " is marked as final"
	}

	if sub, ok := f.descendant(p.terms); ok {
		q, _ := p.Append(sub...)

		return p.String() + " cannot be modified; " + q.String() + " is marked as final"
	}

	return ""
}
