package lang

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// Resource is a read-only view of a container element. Both owned
// containers ([*List], [*Dict]) and the shared handles returned by
// [Resource.Protect] implement it, but only owned containers implement
// [Container] and so only they can be mutated.
type Resource interface {
	Element

	// Len returns the number of entries.
	Len() int
	// Get returns the child at t, or nil if there is none. Indexing a list
	// with a key or a dict with an index is an error.
	Get(t Term) (Element, error)
	// All iterates over the entries: lists in index order, dicts in sorted
	// key order.
	All() iter.Seq2[Term, Element]
	// Protect returns a shared, read-only handle on the same storage.
	Protect() Resource
	// Protected reports whether the resource is a shared handle.
	Protected() bool
	// WritableCopy returns a new owned container holding the same children.
	// Child resources are not copied; they are protected instead.
	WritableCopy() Container

	modCount() uint64
}

// Container is an owned, mutable resource.
type Container interface {
	Resource

	// Put stores e at t. A nil or Null element removes the entry. Replacing
	// an existing entry with a value of a different kind is an error unless
	// one of them is Undef or Null.
	Put(t Term, e Element) error
}

// protect returns e with any resource replaced by its shared handle.
func protect(e Element) Element {
	if r, ok := e.(Resource); ok {
		return r.Protect()
	}

	return e
}

// List is an owned, dense, integer-indexed container.
type List struct {
	items []Element
	mods  uint64
}

// NewList returns an owned list holding elems.
func NewList(elems ...Element) *List {
	return &List{items: slices.Clone(elems)}
}

func (*List) element()        {}
func (*List) Kind() Kind      { return KindList }
func (l *List) Len() int      { return len(l.items) }
func (*List) Protected() bool { return false }

func (l *List) modCount() uint64 { return l.mods }

func (l *List) String() string { return formatResource(l) }

// Get implements [Resource].
func (l *List) Get(t Term) (Element, error) {
	if t.IsKey() {
		return nil, ErrInvalidTermKind.Wrapf("cannot index list with key %q", t.Key())
	}

	if t.Index() >= len(l.items) {
		return nil, nil
	}

	return l.items[t.Index()], nil
}

// At returns the element at index i, or nil if i is out of range.
func (l *List) At(i int) Element {
	if i < 0 || i >= len(l.items) {
		return nil
	}

	return l.items[i]
}

// All implements [Resource].
func (l *List) All() iter.Seq2[Term, Element] {
	return func(yield func(Term, Element) bool) {
		for i, e := range l.items {
			if !yield(Term{index: i}, e) {
				return
			}
		}
	}
}

// Protect implements [Resource].
func (l *List) Protect() Resource { return sharedList{l} }

// WritableCopy implements [Resource].
func (l *List) WritableCopy() Container { return copyList(l) }

// Put implements [Container]. Writing beyond the end pads the list with
// Undef; removing an entry shifts the following entries down.
func (l *List) Put(t Term, e Element) error {
	if t.IsKey() {
		return ErrInvalidTermKind.Wrapf("cannot index list with key %q", t.Key())
	}

	i := t.Index()

	if e == nil || IsNull(e) {
		if i < len(l.items) {
			l.items = slices.Delete(l.items, i, i+1)
			l.mods++
		}

		return nil
	}

	if i < len(l.items) {
		if err := checkReplacement(l.items[i], e); err != nil {
			return err
		}

		l.items[i] = e

		return nil
	}

	for len(l.items) < i {
		l.items = append(l.items, Undef)
	}

	l.items = append(l.items, e)
	l.mods++

	return nil
}

// Append adds e to the end of the list.
func (l *List) Append(e Element) {
	l.items = append(l.items, e)
	l.mods++
}

// Prepend inserts e at the start of the list.
func (l *List) Prepend(e Element) {
	l.items = slices.Insert(l.items, 0, e)
	l.mods++
}

// Splice removes n entries starting at i and inserts elems in their place.
func (l *List) Splice(i, n int, elems ...Element) error {
	if i < 0 || i > len(l.items) || n < 0 {
		return ErrInvalidArgument.Wrapf("splice start %d out of range", i)
	}

	end := len(l.items)
	if n < end-i {
		end = i + n
	}

	l.items = slices.Replace(l.items, i, end, elems...)
	l.mods++

	return nil
}

// Dict is an owned, key-indexed container. Dicts iterate in sorted key
// order.
type Dict struct {
	items map[string]Element
	mods  uint64
}

// NewDict returns an empty owned dict.
func NewDict() *Dict {
	return &Dict{items: map[string]Element{}}
}

func (*Dict) element()        {}
func (*Dict) Kind() Kind      { return KindDict }
func (d *Dict) Len() int      { return len(d.items) }
func (*Dict) Protected() bool { return false }

func (d *Dict) modCount() uint64 { return d.mods }

func (d *Dict) String() string { return formatResource(d) }

// Get implements [Resource].
func (d *Dict) Get(t Term) (Element, error) {
	if !t.IsKey() {
		return nil, ErrInvalidTermKind.Wrapf("cannot index dict with index %d", t.Index())
	}

	return d.items[t.Key()], nil
}

// Lookup returns the child stored under key k, or nil.
func (d *Dict) Lookup(k string) Element { return d.items[k] }

// Keys returns the keys in sorted order.
func (d *Dict) Keys() []string { return slices.Sorted(maps.Keys(d.items)) }

// All implements [Resource].
func (d *Dict) All() iter.Seq2[Term, Element] {
	return func(yield func(Term, Element) bool) {
		for _, k := range d.Keys() {
			e, ok := d.items[k]
			if !ok {
				continue
			}

			if !yield(Term{key: k, isKey: true}, e) {
				return
			}
		}
	}
}

// Protect implements [Resource].
func (d *Dict) Protect() Resource { return sharedDict{d} }

// WritableCopy implements [Resource].
func (d *Dict) WritableCopy() Container { return copyDict(d) }

// Put implements [Container].
func (d *Dict) Put(t Term, e Element) error {
	if !t.IsKey() {
		return ErrInvalidTermKind.Wrapf("cannot index dict with index %d", t.Index())
	}

	k := t.Key()

	if e == nil || IsNull(e) {
		if _, ok := d.items[k]; ok {
			delete(d.items, k)
			d.mods++
		}

		return nil
	}

	prev, ok := d.items[k]
	if ok {
		if err := checkReplacement(prev, e); err != nil {
			return err
		}
	} else {
		d.mods++
	}

	d.items[k] = e

	return nil
}

// PutKey is a convenience for Put with a key term built from k.
func (d *Dict) PutKey(k string, e Element) error {
	t, err := Key(k)
	if err != nil {
		return err
	}

	return d.Put(t, e)
}

// sharedList is the read-only handle returned by [List.Protect].
type sharedList struct{ l *List }

func (sharedList) element()                        {}
func (sharedList) Kind() Kind                      { return KindList }
func (s sharedList) Len() int                      { return s.l.Len() }
func (sharedList) Protected() bool                 { return true }
func (s sharedList) Protect() Resource             { return s }
func (s sharedList) Get(t Term) (Element, error)   { return protectedGet(s.l, t) }
func (s sharedList) All() iter.Seq2[Term, Element] { return protectedAll(s.l) }
func (s sharedList) WritableCopy() Container       { return copyList(s.l) }
func (s sharedList) String() string                { return s.l.String() }
func (s sharedList) modCount() uint64              { return s.l.mods }

// sharedDict is the read-only handle returned by [Dict.Protect].
type sharedDict struct{ d *Dict }

func (sharedDict) element()                        {}
func (sharedDict) Kind() Kind                      { return KindDict }
func (s sharedDict) Len() int                      { return s.d.Len() }
func (sharedDict) Protected() bool                 { return true }
func (s sharedDict) Protect() Resource             { return s }
func (s sharedDict) Get(t Term) (Element, error)   { return protectedGet(s.d, t) }
func (s sharedDict) All() iter.Seq2[Term, Element] { return protectedAll(s.d) }
func (s sharedDict) WritableCopy() Container       { return copyDict(s.d) }
func (s sharedDict) String() string                { return s.d.String() }
func (s sharedDict) modCount() uint64              { return s.d.mods }

// protectedGet reads a child of a shared handle's storage. Child
// resources are handed out protected as well.
func protectedGet(r Resource, t Term) (Element, error) {
	e, err := r.Get(t)
	if err != nil || e == nil {
		return e, err
	}

	return protect(e), nil
}

func protectedAll(r Resource) iter.Seq2[Term, Element] {
	return func(yield func(Term, Element) bool) {
		for t, e := range r.All() {
			if !yield(t, protect(e)) {
				return
			}
		}
	}
}

// detach returns e with every resource below it copied into fresh storage
// and protected. The result shares nothing that an owner could still
// change.
func detach(e Element) Element {
	r, ok := e.(Resource)
	if !ok {
		return e
	}

	if r.Kind() == KindList {
		l := &List{items: make([]Element, 0, r.Len())}
		for _, c := range r.All() {
			l.items = append(l.items, detach(c))
		}

		return l.Protect()
	}

	d := NewDict()
	for t, c := range r.All() {
		d.items[t.Key()] = detach(c)
	}

	return d.Protect()
}

func copyList(l *List) *List {
	c := &List{items: make([]Element, len(l.items))}
	for i, e := range l.items {
		c.items[i] = protect(e)
	}

	return c
}

func copyDict(d *Dict) *Dict {
	c := &Dict{items: make(map[string]Element, len(d.items))}
	for k, e := range d.items {
		c.items[k] = protect(e)
	}

	return c
}

// formatResource renders a resource in a compact, deterministic form used
// in diagnostics.
func formatResource(r Resource) string {
	var sb strings.Builder

	open, closing := "[", "]"
	if r.Kind() == KindDict {
		open, closing = "{", "}"
	}

	sb.WriteString(open)

	first := true

	for t, e := range r.All() {
		if !first {
			sb.WriteString(", ")
		}

		first = false

		if t.IsKey() {
			sb.WriteString(t.Key())
			sb.WriteString(": ")
		}

		sb.WriteString(Quote(e))
	}

	sb.WriteString(closing)

	return sb.String()
}
