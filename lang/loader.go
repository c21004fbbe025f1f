package lang

import (
	"context"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

// Loader locates templates by name. Implementations must be safe for
// concurrent use; the templates they return are immutable and shared.
type Loader interface {
	// Load returns the template name. Each of the relative load path
	// prefixes is tried, in order, before the bare name.
	Load(ctx context.Context, name string, prefixes []string) (*Template, error)
}

// MapLoader is an in-memory [Loader].
type MapLoader struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// NewMapLoader returns a loader holding templates.
func NewMapLoader(templates ...*Template) *MapLoader {
	m := &MapLoader{templates: make(map[string]*Template, len(templates))}
	for _, tpl := range templates {
		m.templates[tpl.Name()] = tpl
	}

	return m
}

// Add registers or replaces tpl.
func (m *MapLoader) Add(tpl *Template) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.templates[tpl.Name()] = tpl
}

// Load implements [Loader].
func (m *MapLoader) Load(ctx context.Context, name string, prefixes []string) (*Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, candidate := range Candidates(name, prefixes) {
		if tpl, ok := m.templates[candidate]; ok {
			return tpl, nil
		}
	}

	return nil, ErrTemplateNotFound.Wrapf("%s%s", name,
		DidYouMean(name, slices.Collect(maps.Keys(m.templates))))
}

// Candidates returns the template names tried for name: name under each
// prefix, in order, then name itself.
func Candidates(name string, prefixes []string) []string {
	out := make([]string, 0, len(prefixes)+1)

	for _, p := range prefixes {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}

		out = append(out, path.Join(p, name))
	}

	return append(out, name)
}

// Suggest returns the candidates that fuzzily match name, best first.
func Suggest(name string, candidates []string) []string {
	slices.Sort(candidates)

	matches := fuzzy.Find(name, candidates)

	out := make([]string, 0, min(len(matches), 3))
	for _, m := range matches {
		if len(out) == cap(out) {
			break
		}

		out = append(out, m.Str)
	}

	return out
}

// DidYouMean formats the suggestions for name as a parenthesized hint, or
// returns "" when nothing matches.
func DidYouMean(name string, candidates []string) string {
	s := Suggest(name, candidates)
	if len(s) == 0 {
		return ""
	}

	return " (did you mean " + strings.Join(s, ", ") + "?)"
}
