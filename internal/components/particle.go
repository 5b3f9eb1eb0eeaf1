package components

import "fmt"

// Unbounded is the maxOccurs sentinel: only the lower bound is checked.
const Unbounded = -1

// Compositor is the model-group kind.
type Compositor uint8

const (
	Sequence Compositor = iota
	Choice
	All
)

// String returns the compositor's schema element name.
func (c Compositor) String() string {
	switch c {
	case Choice:
		return "choice"
	case All:
		return "all"
	default:
		return "sequence"
	}
}

// Term is the content of a particle. The variant set is closed:
// *ElementDecl, *Wildcard, or *Group.
type Term interface{ isTerm() }

// Group is a model group: a compositor over child particles. Shared
// group definitions are referenced, never copied, and are treated as
// immutable once resolved.
type Group struct {
	Name       QName // zero for anonymous groups
	Compositor Compositor
	Particles  []*Particle
}

func (*Group) isTerm() {}

// Particle is a node in a content model tree: a term with occurrence
// bounds. Max is Unbounded for maxOccurs="unbounded".
type Particle struct {
	Min  int
	Max  int
	Term Term
}

// Emptiable reports whether zero occurrences satisfy the particle.
func (p *Particle) Emptiable() bool {
	if p.Min == 0 {
		return true
	}
	if g, ok := p.Term.(*Group); ok {
		return groupEmptiable(g)
	}
	return false
}

func groupEmptiable(g *Group) bool {
	if g.Compositor == Choice {
		for _, sub := range g.Particles {
			if sub.Emptiable() {
				return true
			}
		}
		return len(g.Particles) == 0
	}
	for _, sub := range g.Particles {
		if !sub.Emptiable() {
			return false
		}
	}
	return true
}

// IsMissing reports whether the given occurrence count is under the minimum.
func (p *Particle) IsMissing(occurs int) bool {
	if occurs == 0 {
		return !p.Emptiable()
	}
	return p.Min > occurs
}

// IsOver reports whether the given occurrence count has reached the maximum.
func (p *Particle) IsOver(occurs int) bool {
	return p.Max != Unbounded && p.Max <= occurs
}

// WithinBounds reports whether p's occurrence range is a valid
// restriction of base's: the range must not widen in either direction.
func (p *Particle) WithinBounds(base *Particle) bool {
	if p.Min < base.Min {
		return false
	}
	if base.Max == Unbounded {
		return true
	}
	if p.Max == Unbounded {
		return false
	}
	return p.Max <= base.Max
}

// OccursString renders the bounds for diagnostics.
func (p *Particle) OccursString() string {
	if p.Max == Unbounded {
		return fmt.Sprintf("(%d, unbounded)", p.Min)
	}
	return fmt.Sprintf("(%d, %d)", p.Min, p.Max)
}
