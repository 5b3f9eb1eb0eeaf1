package builder

import (
	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/builtins"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// buildComplexType compiles one xs:complexType definition. The shell is
// registered before content is built so a content model may reference
// the type being defined; base-chain cycles are detected explicitly
// after the base resolves.
func (b *builder) buildComplexType(node *xmltree.Element, doc *schemaDoc, q components.QName) *components.ComplexType {
	ct := &components.ComplexType{Name: q, Abstract: boolAttr(node, "abstract")}
	b.set.Types[q] = ct
	mixed := boolAttr(node, "mixed")

	for _, child := range node.Children {
		switch {
		case isXSD(child, "simpleContent"):
			b.buildSimpleContent(ct, child, doc)
			return ct
		case isXSD(child, "complexContent"):
			if m, ok := child.AttrLocal("mixed"); ok {
				mixed = m == "true" || m == "1"
			}
			b.buildComplexContent(ct, child, doc, mixed)
			return ct
		}
	}

	// No explicit content derivation: an implicit restriction of anyType.
	ct.Base = builtins.AnyType()
	ct.Derivation = components.DerivationRestriction
	b.fillComplexBody(ct, node, doc, mixed)
	return ct
}

// fillComplexBody builds the particle, attribute uses, and content kind
// from the direct children of a complexType, restriction, or extension.
func (b *builder) fillComplexBody(ct *components.ComplexType, node *xmltree.Element, doc *schemaDoc, mixed bool) {
	for _, child := range node.Children {
		switch {
		case isXSD(child, "sequence"), isXSD(child, "choice"), isXSD(child, "all"), isXSD(child, "group"):
			ct.Content = b.buildParticle(child, doc, ct.Name.String())
		}
	}
	ct.Attributes, ct.AttributeWildcard = b.buildAttributeUses(node, doc, ct.Name.String())

	switch {
	case mixed:
		ct.Kind = components.ContentMixed
	case ct.Content != nil:
		ct.Kind = components.ContentElementOnly
	default:
		ct.Kind = components.ContentEmpty
	}
}

func (b *builder) buildSimpleContent(ct *components.ComplexType, sc *xmltree.Element, doc *schemaDoc) {
	ct.Kind = components.ContentSimple
	for _, child := range sc.Children {
		switch {
		case isXSD(child, "restriction"):
			b.buildSimpleContentRestriction(ct, child, doc)
			return
		case isXSD(child, "extension"):
			b.buildSimpleContentExtension(ct, child, doc)
			return
		}
	}
	b.errorf(errors.BuildInvalidSchema, ct.Name.String(), "simpleContent has no restriction or extension child")
}

func (b *builder) buildSimpleContentRestriction(ct *components.ComplexType, node *xmltree.Element, doc *schemaDoc) {
	ct.Derivation = components.DerivationRestriction
	base := b.baseType(node, ct.Name)
	if base == nil {
		return
	}
	ct.Base = base
	b.checkDerivationChain(ct)

	baseSimple := b.simpleContentOf(base, ct.Name, "restrict")
	if baseSimple == nil {
		return
	}
	// An inline simpleType narrows the base before the facets apply.
	for _, child := range node.Children {
		if isXSD(child, "simpleType") {
			if inline := b.buildSimpleType(child, doc, b.anonName(doc, ct.Name.Local)); inline != nil {
				baseSimple = inline
			}
			break
		}
	}
	ct.SimpleContent = b.restrictSimple(node, baseSimple, b.anonName(doc, ct.Name.Local))

	own, wildcard := b.buildAttributeUses(node, doc, ct.Name.String())
	ct.Attributes = b.mergeRestrictedAttributes(baseAttributes(base), own, ct.Name)
	ct.AttributeWildcard = wildcard
	if wildcard == nil {
		ct.AttributeWildcard = baseAttributeWildcard(base)
	}
}

func (b *builder) buildSimpleContentExtension(ct *components.ComplexType, node *xmltree.Element, doc *schemaDoc) {
	ct.Derivation = components.DerivationExtension
	base := b.baseType(node, ct.Name)
	if base == nil {
		return
	}
	ct.Base = base
	b.checkDerivationChain(ct)

	switch bt := base.(type) {
	case *components.SimpleType:
		ct.SimpleContent = bt
	case *components.ComplexType:
		if bt.Kind != components.ContentSimple {
			b.errorf(errors.BuildIllegalExtension, ct.Name.String(),
				"simpleContent cannot extend complex type %s, which does not have simple content", bt.Name)
			return
		}
		ct.SimpleContent = bt.SimpleContent
	}

	own, wildcard := b.buildAttributeUses(node, doc, ct.Name.String())
	ct.Attributes = b.mergeExtendedAttributes(baseAttributes(base), own, ct.Name)
	ct.AttributeWildcard = wildcard
	if wildcard == nil {
		ct.AttributeWildcard = baseAttributeWildcard(base)
	}
}

func (b *builder) buildComplexContent(ct *components.ComplexType, cc *xmltree.Element, doc *schemaDoc, mixed bool) {
	for _, child := range cc.Children {
		switch {
		case isXSD(child, "restriction"):
			b.buildComplexRestriction(ct, child, doc, mixed)
			return
		case isXSD(child, "extension"):
			b.buildComplexExtension(ct, child, doc, mixed)
			return
		}
	}
	b.errorf(errors.BuildInvalidSchema, ct.Name.String(), "complexContent has no restriction or extension child")
}

func (b *builder) buildComplexRestriction(ct *components.ComplexType, node *xmltree.Element, doc *schemaDoc, mixed bool) {
	ct.Derivation = components.DerivationRestriction
	base := b.complexBase(node, ct.Name)
	if base == nil {
		return
	}
	ct.Base = base
	b.checkDerivationChain(ct)

	b.fillComplexBody(ct, node, doc, mixed)
	ct.Attributes = b.mergeRestrictedAttributes(base.Attributes, ct.Attributes, ct.Name)
	if ct.AttributeWildcard == nil {
		ct.AttributeWildcard = base.AttributeWildcard
	}

	// A restriction must stay within the base content model; the check is
	// shallow, comparing top-level occurrence bounds when both content
	// models are present.
	if ct.Content != nil && base.Content != nil && !ct.Content.WithinBounds(base.Content) {
		b.errorf(errors.BuildIllegalRestriction, ct.Name.String(),
			"content occurs %s, wider than base %s", ct.Content.OccursString(), base.Content.OccursString())
	}
	if ct.Content != nil && base.Content == nil && !base.Builtin {
		b.errorf(errors.BuildIllegalRestriction, ct.Name.String(),
			"restriction adds content to empty base type %s", base.Name)
	}
}

func (b *builder) buildComplexExtension(ct *components.ComplexType, node *xmltree.Element, doc *schemaDoc, mixed bool) {
	ct.Derivation = components.DerivationExtension
	base := b.complexBase(node, ct.Name)
	if base == nil {
		return
	}
	ct.Base = base
	b.checkDerivationChain(ct)

	if base.Kind == components.ContentSimple {
		b.errorf(errors.BuildIllegalExtension, ct.Name.String(),
			"complexContent cannot extend %s, which has simple content", base.Name)
		return
	}

	if !mixed {
		mixed = base.Kind == components.ContentMixed
	}
	b.fillComplexBody(ct, node, doc, mixed)
	ct.Attributes = b.mergeExtendedAttributes(base.Attributes, ct.Attributes, ct.Name)
	if ct.AttributeWildcard == nil {
		ct.AttributeWildcard = base.AttributeWildcard
	}

	// Extension appends its particle after the base content.
	switch {
	case base.Content == nil || base.Builtin:
		// nothing to prepend
	case ct.Content == nil:
		ct.Content = base.Content
		if ct.Kind == components.ContentEmpty {
			ct.Kind = base.Kind
		}
	default:
		ct.Content = &components.Particle{
			Min: 1, Max: 1,
			Term: &components.Group{
				Compositor: components.Sequence,
				Particles:  []*components.Particle{base.Content, ct.Content},
			},
		}
	}
}

// baseType resolves the base attribute of a restriction or extension.
func (b *builder) baseType(node *xmltree.Element, owner components.QName) components.Type {
	raw, ok := node.AttrLocal("base")
	if !ok {
		b.errorf(errors.BuildInvalidSchema, owner.String(), "derivation step has no base attribute")
		return nil
	}
	ref, ok := b.resolveRef(node, raw, owner.String())
	if !ok {
		return nil
	}
	return b.typeByName(ref, owner.String())
}

func (b *builder) complexBase(node *xmltree.Element, owner components.QName) *components.ComplexType {
	base := b.baseType(node, owner)
	if base == nil {
		return nil
	}
	ct, ok := base.(*components.ComplexType)
	if !ok {
		b.errorf(errors.BuildInvalidSchema, owner.String(),
			"complexContent base %s is a simple type", base.TypeName())
		return nil
	}
	return ct
}

// checkDerivationChain reports a base chain that loops back to the type
// itself. Needed because complex type shells are registered before their
// bases resolve, so typeByName alone cannot see the loop.
func (b *builder) checkDerivationChain(ct *components.ComplexType) {
	seen := 0
	for cur := ct.Base; cur != nil; cur = cur.BaseType() {
		if cur == components.Type(ct) {
			b.errorf(errors.BuildDerivationCycle, ct.Name.String(), "type derives from itself")
			ct.Base = builtins.AnyType()
			return
		}
		if seen++; seen > 256 {
			b.errorf(errors.BuildDerivationCycle, ct.Name.String(), "derivation chain does not terminate")
			return
		}
	}
}

func (b *builder) simpleContentOf(base components.Type, owner components.QName, verb string) *components.SimpleType {
	switch bt := base.(type) {
	case *components.SimpleType:
		return bt
	case *components.ComplexType:
		if bt.Kind == components.ContentSimple {
			return bt.SimpleContent
		}
	}
	b.errorf(errors.BuildInvalidSchema, owner.String(),
		"simpleContent cannot %s %s, which does not have simple content", verb, base.TypeName())
	return nil
}

func baseAttributes(base components.Type) []*components.AttributeUse {
	if ct, ok := base.(*components.ComplexType); ok {
		return ct.Attributes
	}
	return nil
}

func baseAttributeWildcard(base components.Type) *components.Wildcard {
	if ct, ok := base.(*components.ComplexType); ok {
		return ct.AttributeWildcard
	}
	return nil
}

// mergeRestrictedAttributes starts from the base uses and lets the
// derived type override by name; a prohibited use removes the attribute.
func (b *builder) mergeRestrictedAttributes(base, own []*components.AttributeUse, owner components.QName) []*components.AttributeUse {
	merged := make([]*components.AttributeUse, 0, len(base)+len(own))
	overridden := make(map[components.QName]*components.AttributeUse, len(own))
	for _, use := range own {
		overridden[use.Decl.Name] = use
	}
	for _, use := range base {
		if repl, ok := overridden[use.Decl.Name]; ok {
			delete(overridden, use.Decl.Name)
			if repl.Use == components.UseProhibited {
				continue
			}
			if use.Use == components.UseRequired && repl.Use != components.UseRequired {
				b.errorf(errors.BuildIllegalRestriction, owner.String(),
					"attribute %s is required in the base type and cannot become optional", use.Decl.Name)
			}
			merged = append(merged, repl)
			continue
		}
		merged = append(merged, use)
	}
	for _, use := range own {
		if repl, ok := overridden[use.Decl.Name]; ok && repl == use {
			if use.Use != components.UseProhibited {
				merged = append(merged, use)
			}
		}
	}
	return merged
}

// mergeExtendedAttributes appends the extension's uses to the base's.
func (b *builder) mergeExtendedAttributes(base, own []*components.AttributeUse, owner components.QName) []*components.AttributeUse {
	merged := make([]*components.AttributeUse, 0, len(base)+len(own))
	seen := make(map[components.QName]bool, len(base))
	for _, use := range base {
		merged = append(merged, use)
		seen[use.Decl.Name] = true
	}
	for _, use := range own {
		if seen[use.Decl.Name] {
			b.errorf(errors.BuildIllegalExtension, owner.String(),
				"attribute %s is already declared by the base type", use.Decl.Name)
			continue
		}
		merged = append(merged, use)
	}
	return merged
}
