// Package content matches observed element sequences against particle
// content models. The matcher explores candidate end positions with a
// greedy-first ordering and backtracks through them; candidate sets are
// deduplicated per position, which keeps the worst case polynomial, and
// recursion follows the particle tree only, never the input length.
package content

import (
	"sort"

	"github.com/xmlschema-go/xmlschema/internal/components"
)

// Resolver supplies substitution-group lookup during matching. A nil
// Resolver disables substitution.
type Resolver interface {
	// Substitute returns the declaration to use when an element named
	// name appears where head is expected, or nil when name cannot
	// substitute for head.
	Substitute(head *components.ElementDecl, name components.QName) *components.ElementDecl
}

// Assignment records which term claimed one child element.
type Assignment struct {
	Decl     *components.ElementDecl
	Wildcard *components.Wildcard
}

// Result is a successful match: one assignment per child, in order.
type Result struct {
	Assignments []Assignment
}

// Mismatch reports the earliest point the content model could not
// continue. Index == len(children) means required content is missing;
// otherwise children[Index] is the offending element.
type Mismatch struct {
	Index    int
	Expected []string
}

// Match validates the child name sequence against the particle. Exactly
// one of the results is non-nil.
func Match(root *components.Particle, children []components.QName, resolver Resolver) (*Result, *Mismatch) {
	m := &matcher{children: children, resolver: resolver, furthest: -1}

	start := binding{end: 0}
	for _, b := range m.matchParticle(root, start) {
		if b.end == len(children) {
			return &Result{Assignments: b.collect(len(children))}, nil
		}
		m.noteBare(b.end)
	}

	idx := m.furthest
	if idx < 0 {
		idx = 0
	}
	return nil, &Mismatch{Index: idx, Expected: m.expectedNames()}
}

type assignNode struct {
	prev  *assignNode
	index int
	a     Assignment
}

type binding struct {
	end     int
	assigns *assignNode
}

func (b binding) extend(index int, a Assignment) binding {
	return binding{end: index + 1, assigns: &assignNode{prev: b.assigns, index: index, a: a}}
}

func (b binding) collect(n int) []Assignment {
	out := make([]Assignment, n)
	for node := b.assigns; node != nil; node = node.prev {
		out[node.index] = node.a
	}
	return out
}

type matcher struct {
	children []components.QName
	resolver Resolver

	furthest int
	expected map[string]bool
}

// matchParticle returns the candidate bindings after consuming the
// particle at the binding's position, greedy (most consumed) first.
func (m *matcher) matchParticle(p *components.Particle, start binding) []binding {
	maxIter := p.Max
	if remaining := len(m.children) - start.end; maxIter == components.Unbounded || maxIter > remaining {
		// An occurrence consumes at least one child once zero-width
		// repeats are excluded, so this bound loses nothing.
		maxIter = remaining
		if maxIter < p.Min {
			maxIter = p.Min
		}
	}

	effMin := p.Min
	if effMin > 0 && p.Emptiable() {
		effMin = 0
	}

	var results []binding
	current := []binding{start}
	for k := 1; k <= maxIter; k++ {
		var next []binding
		seen := make(map[int]bool)
		for _, b := range current {
			for _, nb := range m.matchTerm(p.Term, b) {
				if nb.end == b.end {
					continue // zero-width occurrence; repeating it cannot progress
				}
				if !seen[nb.end] {
					seen[nb.end] = true
					next = append(next, nb)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		if k >= effMin {
			results = append(results, next...)
		}
		current = next
	}
	if effMin == 0 {
		results = append(results, start)
	}
	return dedupeGreedy(results)
}

// dedupeGreedy orders bindings by most-consumed first and drops
// duplicate end positions.
func dedupeGreedy(bindings []binding) []binding {
	seen := make(map[int]bool, len(bindings))
	out := make([]binding, 0, len(bindings))
	for i := len(bindings) - 1; i >= 0; i-- {
		b := bindings[i]
		if !seen[b.end] {
			seen[b.end] = true
			out = append(out, b)
		}
	}
	return out
}

func (m *matcher) matchTerm(term components.Term, b binding) []binding {
	switch t := term.(type) {
	case *components.ElementDecl:
		return m.matchElement(t, b)
	case *components.Wildcard:
		return m.matchWildcard(t, b)
	case *components.Group:
		switch t.Compositor {
		case components.Sequence:
			return m.matchSequence(t, b)
		case components.Choice:
			return m.matchChoice(t, b)
		default:
			return m.matchAll(t, b)
		}
	}
	return nil
}

func (m *matcher) matchElement(decl *components.ElementDecl, b binding) []binding {
	if b.end >= len(m.children) {
		m.note(b.end, decl.Name.String())
		return nil
	}
	name := m.children[b.end]
	if name == decl.Name {
		return []binding{b.extend(b.end, Assignment{Decl: decl})}
	}
	if m.resolver != nil {
		if sub := m.resolver.Substitute(decl, name); sub != nil {
			return []binding{b.extend(b.end, Assignment{Decl: sub})}
		}
	}
	m.note(b.end, decl.Name.String())
	return nil
}

func (m *matcher) matchWildcard(w *components.Wildcard, b binding) []binding {
	if b.end >= len(m.children) {
		m.note(b.end, wildcardLabel(w))
		return nil
	}
	if w.Allows(m.children[b.end].Space) {
		return []binding{b.extend(b.end, Assignment{Wildcard: w})}
	}
	m.note(b.end, wildcardLabel(w))
	return nil
}

func (m *matcher) matchSequence(g *components.Group, b binding) []binding {
	current := []binding{b}
	for _, sub := range g.Particles {
		var next []binding
		seen := make(map[int]bool)
		for _, cur := range current {
			for _, nb := range m.matchParticle(sub, cur) {
				if !seen[nb.end] {
					seen[nb.end] = true
					next = append(next, nb)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

func (m *matcher) matchChoice(g *components.Group, b binding) []binding {
	var out []binding
	seen := make(map[int]bool)
	for _, alt := range g.Particles {
		for _, nb := range m.matchParticle(alt, b) {
			if !seen[nb.end] {
				seen[nb.end] = true
				out = append(out, nb)
			}
		}
	}
	return out
}

// matchAll matches an all-group: every branch in any order, each within
// its own occurrence bounds, tracked by per-branch consumption counts.
func (m *matcher) matchAll(g *components.Group, b binding) []binding {
	counts := make([]int, len(g.Particles))
	cur := b

consume:
	for cur.end < len(m.children) {
		name := m.children[cur.end]
		for i, sub := range g.Particles {
			decl, ok := sub.Term.(*components.ElementDecl)
			if !ok {
				continue
			}
			matched := decl
			if name != decl.Name {
				if m.resolver == nil {
					continue
				}
				if matched = m.resolver.Substitute(decl, name); matched == nil {
					continue
				}
			}
			if sub.IsOver(counts[i]) {
				m.note(cur.end, "at most "+sub.OccursString()+" of "+decl.Name.String())
				break consume
			}
			counts[i]++
			cur = cur.extend(cur.end, Assignment{Decl: matched})
			continue consume
		}
		break
	}

	for i, sub := range g.Particles {
		if sub.IsMissing(counts[i]) {
			if decl, ok := sub.Term.(*components.ElementDecl); ok {
				m.note(cur.end, decl.Name.String())
			}
			return nil
		}
	}
	return []binding{cur}
}

func (m *matcher) note(pos int, expected string) {
	if pos > m.furthest {
		m.furthest = pos
		m.expected = make(map[string]bool)
	}
	if pos == m.furthest && expected != "" {
		m.expected[expected] = true
	}
}

func (m *matcher) noteBare(pos int) {
	if pos > m.furthest {
		m.furthest = pos
		m.expected = make(map[string]bool)
	}
}

func (m *matcher) expectedNames() []string {
	out := make([]string, 0, len(m.expected))
	for name := range m.expected {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func wildcardLabel(w *components.Wildcard) string {
	switch w.Mode {
	case components.NSOther:
		return "any element from a foreign namespace"
	case components.NSList:
		return "any element from the allowed namespaces"
	default:
		return "any element"
	}
}
