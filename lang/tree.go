package lang

// getPath descends from r along terms. A missing child anywhere along the
// way yields nil. Unless lookup is set, indexing a property or using a term
// of the wrong kind is an error; in lookup mode those cases are also
// reported as absent.
func getPath(r Resource, terms []Term, lookup bool) (Element, error) {
	var cur Element = r

	for i, t := range terms {
		res, ok := cur.(Resource)
		if !ok {
			if lookup || IsUndef(cur) {
				return nil, nil
			}

			return nil, ErrInvalidTermKind.Wrapf(
				"cannot index %s with term %q at position %d", TypeName(cur), t, i)
		}

		if mismatched(res, t) {
			if lookup {
				return nil, nil
			}

			return nil, termMismatch(res, t, i)
		}

		child, err := res.Get(t)
		if err != nil {
			return nil, err
		}

		if child == nil {
			return nil, nil
		}

		cur = child
	}

	return cur, nil
}

// putPath stores e at terms below c. Missing and Undef intermediates are
// replaced by a new container whose kind follows the next term, and shared
// intermediates are replaced by writable copies before descending. A nil or
// Null e removes the target; removing beneath a missing intermediate is a
// no-op.
func putPath(c Container, terms []Term, e Element) error {
	if len(terms) == 0 {
		return defect("put with empty term list")
	}

	for i, t := range terms[:len(terms)-1] {
		if mismatched(c, t) {
			return termMismatch(c, t, i)
		}

		child, err := c.Get(t)
		if err != nil {
			return err
		}

		var next Container

		switch v := child.(type) {
		case Container:
			next = v
		case Resource:
			next = v.WritableCopy()
		default:
			if child != nil && !IsUndef(child) {
				return ErrInvalidTermKind.Wrapf(
					"cannot index %s with term %q at position %d",
					TypeName(child), terms[i+1], i+1)
			}

			if e == nil || IsNull(e) {
				return nil
			}

			next = newContainerFor(terms[i+1])
		}

		if next != child {
			if err := c.Put(t, next); err != nil {
				return err
			}
		}

		c = next
	}

	last := terms[len(terms)-1]
	if mismatched(c, last) {
		return termMismatch(c, last, len(terms)-1)
	}

	return c.Put(last, e)
}

// newContainerFor returns an empty container that t can index.
func newContainerFor(t Term) Container {
	if t.IsKey() {
		return NewDict()
	}

	return NewList()
}

func mismatched(r Resource, t Term) bool {
	return t.IsKey() != (r.Kind() == KindDict)
}

func termMismatch(r Resource, t Term, pos int) error {
	what := "index"
	if t.IsKey() {
		what = "key"
	}

	return ErrInvalidTermKind.Wrapf(
		"cannot use %s %q at position %d to address %s", what, t, pos, TypeName(r))
}
