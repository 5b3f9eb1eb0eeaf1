package builder

import (
	"strconv"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// buildParticle compiles one particle node: a model group, group
// reference, element declaration, or wildcard, with occurrence bounds.
func (b *builder) buildParticle(node *xmltree.Element, doc *schemaDoc, ctx string) *components.Particle {
	min, max := b.parseOccurs(node, ctx)

	var term components.Term
	switch node.Name.Local {
	case "sequence", "choice", "all":
		term = b.buildModelGroup(node, doc, ctx)
	case "group":
		raw, ok := node.AttrLocal("ref")
		if !ok {
			b.errorf(errors.BuildInvalidSchema, ctx, "group particle has no ref attribute")
			return nil
		}
		ref, ok := b.resolveRef(node, raw, ctx)
		if !ok {
			return nil
		}
		g := b.groupByName(ref, ctx)
		if g == nil {
			return nil
		}
		term = g
	case "element":
		decl := b.buildElementParticle(node, doc, ctx)
		if decl == nil {
			return nil
		}
		term = decl
	case "any":
		term = b.buildWildcard(node, doc)
	default:
		return nil
	}
	if term == nil {
		return nil
	}
	return &components.Particle{Min: min, Max: max, Term: term}
}

func (b *builder) buildModelGroup(node *xmltree.Element, doc *schemaDoc, ctx string) *components.Group {
	g := &components.Group{}
	switch node.Name.Local {
	case "choice":
		g.Compositor = components.Choice
	case "all":
		g.Compositor = components.All
	default:
		g.Compositor = components.Sequence
	}
	for _, child := range node.Children {
		if child.Name.Space != components.XSDNamespace {
			continue
		}
		switch child.Name.Local {
		case "sequence", "choice", "all", "group", "element", "any":
			if g.Compositor == components.All && child.Name.Local != "element" {
				b.errorf(errors.BuildInvalidSchema, ctx, "an all group may contain only element particles, found %s", child.Name.Local)
				continue
			}
			if p := b.buildParticle(child, doc, ctx); p != nil {
				g.Particles = append(g.Particles, p)
			}
		}
	}
	return g
}

// groupByName resolves a named model group, building it on demand. A
// group that references itself through any chain of refs is an error.
func (b *builder) groupByName(q components.QName, ctx string) *components.Group {
	if g, ok := b.builtGroups[q]; ok {
		return g
	}
	decl, ok := b.groupDecls[q]
	if !ok {
		b.errorf(errors.BuildUnresolvedReference, ctx, "unknown group %s", q)
		return nil
	}
	if b.resolvingGroups[q] {
		b.errorf(errors.BuildGroupCycle, q.String(), "group reference cycle through %s", q)
		return nil
	}
	b.resolvingGroups[q] = true
	defer delete(b.resolvingGroups, q)

	for _, child := range decl.node.Children {
		switch child.Name.Local {
		case "sequence", "choice", "all":
			if child.Name.Space != components.XSDNamespace {
				continue
			}
			g := b.buildModelGroup(child, decl.doc, q.String())
			g.Name = q
			b.builtGroups[q] = g
			b.set.Groups[q] = g
			return g
		}
	}
	b.errorf(errors.BuildInvalidSchema, q.String(), "group has no sequence, choice, or all child")
	return nil
}

func (b *builder) parseOccurs(node *xmltree.Element, ctx string) (int, int) {
	min, max := 1, 1
	if raw, ok := node.AttrLocal("minOccurs"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			b.errorf(errors.BuildInvalidSchema, ctx, "invalid minOccurs %q", raw)
		} else {
			min = n
		}
	}
	if raw, ok := node.AttrLocal("maxOccurs"); ok {
		if raw == "unbounded" {
			max = components.Unbounded
		} else {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				b.errorf(errors.BuildInvalidSchema, ctx, "invalid maxOccurs %q", raw)
			} else {
				max = n
			}
		}
	}
	if max != components.Unbounded && min > max {
		b.errorf(errors.BuildInvalidSchema, ctx, "minOccurs %d exceeds maxOccurs %d", min, max)
		max = min
	}
	return min, max
}

// buildWildcard compiles an xs:any or xs:anyAttribute node.
func (b *builder) buildWildcard(node *xmltree.Element, doc *schemaDoc) *components.Wildcard {
	w := &components.Wildcard{Target: doc.targetNamespace}

	switch pc, _ := node.AttrLocal("processContents"); pc {
	case "lax":
		w.Process = components.ProcessLax
	case "skip":
		w.Process = components.ProcessSkip
	default:
		w.Process = components.ProcessStrict
	}

	ns, ok := node.AttrLocal("namespace")
	if !ok || ns == "##any" {
		w.Mode = components.NSAny
		return w
	}
	if ns == "##other" {
		w.Mode = components.NSOther
		return w
	}
	w.Mode = components.NSList
	for _, token := range splitTokens(ns) {
		switch token {
		case "##targetNamespace":
			w.List = append(w.List, doc.targetNamespace)
		case "##local":
			w.List = append(w.List, "")
		default:
			w.List = append(w.List, token)
		}
	}
	return w
}
