package builder

import (
	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/builtins"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// buildAttributeUses collects the attribute, attributeGroup, and
// anyAttribute children of a complex type body into attribute uses and
// an optional wildcard.
func (b *builder) buildAttributeUses(node *xmltree.Element, doc *schemaDoc, ctx string) ([]*components.AttributeUse, *components.Wildcard) {
	var (
		uses     []*components.AttributeUse
		wildcard *components.Wildcard
	)
	for _, child := range node.Children {
		switch {
		case isXSD(child, "attribute"):
			if use := b.buildAttributeUse(child, doc, ctx); use != nil {
				uses = append(uses, use)
			}
		case isXSD(child, "attributeGroup"):
			raw, ok := child.AttrLocal("ref")
			if !ok {
				b.errorf(errors.BuildInvalidSchema, ctx, "attributeGroup use has no ref attribute")
				continue
			}
			ref, ok := b.resolveRef(child, raw, ctx)
			if !ok {
				continue
			}
			ag := b.attrGroupByName(ref, ctx)
			if ag == nil {
				continue
			}
			uses = append(uses, ag.Uses...)
			if ag.Wildcard != nil {
				wildcard = ag.Wildcard
			}
		case isXSD(child, "anyAttribute"):
			wildcard = b.buildWildcard(child, doc)
		}
	}
	return uses, wildcard
}

// buildAttributeUse compiles one attribute child of a complex type or
// attribute group.
func (b *builder) buildAttributeUse(node *xmltree.Element, doc *schemaDoc, ctx string) *components.AttributeUse {
	use := &components.AttributeUse{}
	switch u, _ := node.AttrLocal("use"); u {
	case "required":
		use.Use = components.UseRequired
	case "prohibited":
		use.Use = components.UseProhibited
	}
	if v, ok := node.AttrLocal("default"); ok {
		use.Default, use.HasDefault = v, true
	}
	if v, ok := node.AttrLocal("fixed"); ok {
		use.Fixed, use.HasFixed = v, true
	}
	if use.HasDefault && use.HasFixed {
		b.errorf(errors.BuildInvalidSchema, ctx, "attribute has both default and fixed values")
	}
	if use.HasDefault && use.Use == components.UseRequired {
		b.errorf(errors.BuildInvalidSchema, ctx, "a required attribute cannot have a default value")
	}

	if raw, ok := node.AttrLocal("ref"); ok {
		ref, ok := b.resolveRef(node, raw, ctx)
		if !ok {
			return nil
		}
		decl := b.attrByName(ref, ctx)
		if decl == nil {
			return nil
		}
		use.Decl = decl
		return use
	}

	name, _ := node.AttrLocal("name")
	if name == "" {
		b.errorf(errors.BuildInvalidSchema, ctx, "attribute has neither a name nor a ref")
		return nil
	}
	decl := &components.AttributeDecl{Name: components.QName{Local: name}}
	if form, ok := node.AttrLocal("form"); (ok && form == "qualified") || (!ok && doc.attributeQualified) {
		decl.Name.Space = doc.targetNamespace
	}
	decl.Type = b.attributeType(node, doc, decl.Name, ctx)
	use.Decl = decl
	return use
}

// attrByName resolves a global attribute declaration, building it on
// demand.
func (b *builder) attrByName(q components.QName, ctx string) *components.AttributeDecl {
	if decl, ok := b.builtAttrs[q]; ok {
		return decl
	}
	gd, ok := b.attrDecls[q]
	if !ok {
		b.errorf(errors.BuildUnresolvedReference, ctx, "unknown attribute %s", q)
		return nil
	}
	decl := b.buildGlobalAttribute(gd.node, gd.doc)
	b.builtAttrs[q] = decl
	b.set.Attributes[q] = decl
	return decl
}

func (b *builder) buildGlobalAttribute(node *xmltree.Element, doc *schemaDoc) *components.AttributeDecl {
	name, _ := node.AttrLocal("name")
	decl := &components.AttributeDecl{Name: components.QName{Space: doc.targetNamespace, Local: name}}
	ctx := decl.Name.String()
	if v, ok := node.AttrLocal("default"); ok {
		decl.Default, decl.HasDefault = v, true
	}
	if v, ok := node.AttrLocal("fixed"); ok {
		decl.Fixed, decl.HasFixed = v, true
	}
	if decl.HasDefault && decl.HasFixed {
		b.errorf(errors.BuildInvalidSchema, ctx, "attribute has both default and fixed values")
	}
	decl.Type = b.attributeType(node, doc, decl.Name, ctx)
	return decl
}

// attributeType resolves an attribute's declared type: the type
// attribute, an inline simpleType, or anySimpleType.
func (b *builder) attributeType(node *xmltree.Element, doc *schemaDoc, name components.QName, ctx string) *components.SimpleType {
	if raw, ok := node.AttrLocal("type"); ok {
		ref, ok := b.resolveRef(node, raw, ctx)
		if !ok {
			return builtins.AnySimpleType()
		}
		if st := b.simpleTypeByName(ref, ctx); st != nil {
			return st
		}
		return builtins.AnySimpleType()
	}
	for _, child := range node.Children {
		if isXSD(child, "simpleType") {
			if st := b.buildSimpleType(child, doc, b.anonName(doc, name.Local)); st != nil {
				return st
			}
		}
	}
	return builtins.AnySimpleType()
}

// attrGroupByName resolves a named attribute group, building it on
// demand. Groups referencing themselves through any chain is an error.
func (b *builder) attrGroupByName(q components.QName, ctx string) *components.AttributeGroup {
	if ag, ok := b.builtAttrGroups[q]; ok {
		return ag
	}
	decl, ok := b.attrGroupDecls[q]
	if !ok {
		b.errorf(errors.BuildUnresolvedReference, ctx, "unknown attributeGroup %s", q)
		return nil
	}
	if b.resolvingGroups[q] {
		b.errorf(errors.BuildGroupCycle, q.String(), "attributeGroup reference cycle through %s", q)
		return nil
	}
	b.resolvingGroups[q] = true
	defer delete(b.resolvingGroups, q)

	uses, wildcard := b.buildAttributeUses(decl.node, decl.doc, q.String())
	ag := &components.AttributeGroup{Name: q, Uses: uses, Wildcard: wildcard}
	b.builtAttrGroups[q] = ag
	b.set.AttributeGroups[q] = ag
	return ag
}
