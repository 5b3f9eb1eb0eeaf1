package builder

import (
	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/builtins"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
	"github.com/xmlschema-go/xmlschema/internal/xpath"
)

// elementByName resolves a global element declaration, building it on
// demand.
func (b *builder) elementByName(q components.QName, ctx string) *components.ElementDecl {
	if decl, ok := b.set.Elements[q]; ok {
		return decl
	}
	gd, ok := b.elementDecls[q]
	if !ok {
		b.errorf(errors.BuildUnresolvedReference, ctx, "unknown element %s", q)
		return nil
	}
	return b.buildElement(gd.node, gd.doc, true)
}

// buildElement compiles an element declaration. Global declarations are
// registered before their type resolves, so a content model may
// reference the element being defined.
func (b *builder) buildElement(node *xmltree.Element, doc *schemaDoc, global bool) *components.ElementDecl {
	name, _ := node.AttrLocal("name")
	decl := &components.ElementDecl{Global: global}
	if global {
		decl.Name = components.QName{Space: doc.targetNamespace, Local: name}
		b.set.Elements[decl.Name] = decl
	} else {
		decl.Name = components.QName{Local: name}
		if form, ok := node.AttrLocal("form"); (ok && form == "qualified") || (!ok && doc.elementQualified) {
			decl.Name.Space = doc.targetNamespace
		}
	}
	ctx := decl.Name.String()

	decl.Nillable = boolAttr(node, "nillable")
	decl.Abstract = boolAttr(node, "abstract")
	if v, ok := node.AttrLocal("default"); ok {
		decl.Default, decl.HasDefault = v, true
	}
	if v, ok := node.AttrLocal("fixed"); ok {
		decl.Fixed, decl.HasFixed = v, true
	}
	if decl.HasDefault && decl.HasFixed {
		b.errorf(errors.BuildInvalidSchema, ctx, "element has both default and fixed values")
	}

	if raw, ok := node.AttrLocal("substitutionGroup"); ok {
		if !global {
			b.errorf(errors.BuildInvalidSchema, ctx, "substitutionGroup is only allowed on global elements")
		} else if head, ok := b.resolveRef(node, raw, ctx); ok {
			decl.SubstitutionGroup = head
		}
	}

	decl.Type = b.elementType(node, doc, decl, ctx)
	b.buildIdentityConstraints(decl, node, doc)
	return decl
}

// elementType resolves the declared type: the type attribute, an inline
// type definition, the substitution head's type, or anyType.
func (b *builder) elementType(node *xmltree.Element, doc *schemaDoc, decl *components.ElementDecl, ctx string) components.Type {
	if raw, ok := node.AttrLocal("type"); ok {
		ref, ok := b.resolveRef(node, raw, ctx)
		if !ok {
			return builtins.AnyType()
		}
		if t := b.typeByName(ref, ctx); t != nil {
			return t
		}
		return builtins.AnyType()
	}
	for _, child := range node.Children {
		switch {
		case isXSD(child, "complexType"):
			if t := b.buildComplexType(child, doc, b.anonName(doc, decl.Name.Local)); t != nil {
				return t
			}
		case isXSD(child, "simpleType"):
			if t := b.buildSimpleType(child, doc, b.anonName(doc, decl.Name.Local)); t != nil {
				return t
			}
		}
	}
	if !decl.SubstitutionGroup.IsZero() {
		if head := b.elementByName(decl.SubstitutionGroup, ctx); head != nil && head.Type != nil {
			return head.Type
		}
	}
	return builtins.AnyType()
}

// buildElementParticle compiles an element child of a model group:
// either a reference to a global declaration or a local declaration.
func (b *builder) buildElementParticle(node *xmltree.Element, doc *schemaDoc, ctx string) *components.ElementDecl {
	if raw, ok := node.AttrLocal("ref"); ok {
		ref, ok := b.resolveRef(node, raw, ctx)
		if !ok {
			return nil
		}
		return b.elementByName(ref, ctx)
	}
	if name, _ := node.AttrLocal("name"); name == "" {
		b.errorf(errors.BuildInvalidSchema, ctx, "element particle has neither a name nor a ref")
		return nil
	}
	return b.buildElement(node, doc, false)
}

// buildIdentityConstraints compiles the unique, key, and keyref children
// of an element declaration. Constraint names are global within their
// target namespace; keyref targets resolve in a final pass once every
// constraint is registered.
func (b *builder) buildIdentityConstraints(decl *components.ElementDecl, node *xmltree.Element, doc *schemaDoc) {
	for _, child := range node.Children {
		var category components.ICCategory
		switch {
		case isXSD(child, "unique"):
			category = components.ICUnique
		case isXSD(child, "key"):
			category = components.ICKey
		case isXSD(child, "keyref"):
			category = components.ICKeyRef
		default:
			continue
		}

		name, _ := child.AttrLocal("name")
		q := components.QName{Space: doc.targetNamespace, Local: name}
		ctx := q.String()
		if name == "" {
			b.errorf(errors.BuildInvalidSchema, decl.Name.String(), "identity constraint has no name")
			continue
		}
		if _, dup := b.set.Constraints[q]; dup {
			b.errorf(errors.BuildDuplicateComponent, ctx, "duplicate identity constraint")
			continue
		}

		ic := &components.IdentityConstraint{Name: q, Category: category}
		if category == components.ICKeyRef {
			raw, ok := child.AttrLocal("refer")
			if !ok {
				b.errorf(errors.BuildInvalidSchema, ctx, "keyref has no refer attribute")
				continue
			}
			if ic.Refer, ok = b.resolveRef(child, raw, ctx); !ok {
				continue
			}
		}

		ok := true
		for _, part := range child.Children {
			switch {
			case isXSD(part, "selector"):
				expr, _ := part.AttrLocal("xpath")
				compiled, err := xpath.Compile(expr, part.Bindings(), false)
				if err != nil {
					b.errorf(errors.BuildInvalidSchema, ctx, "selector: %v", err)
					ok = false
					continue
				}
				ic.Selector = compiled
			case isXSD(part, "field"):
				expr, _ := part.AttrLocal("xpath")
				compiled, err := xpath.Compile(expr, part.Bindings(), true)
				if err != nil {
					b.errorf(errors.BuildInvalidSchema, ctx, "field: %v", err)
					ok = false
					continue
				}
				ic.Fields = append(ic.Fields, compiled)
			}
		}
		if ic.Selector.Source == "" {
			b.errorf(errors.BuildInvalidSchema, ctx, "identity constraint has no selector")
			ok = false
		}
		if len(ic.Fields) == 0 {
			b.errorf(errors.BuildInvalidSchema, ctx, "identity constraint has no fields")
			ok = false
		}
		if !ok {
			continue
		}

		b.set.Constraints[q] = ic
		decl.Constraints = append(decl.Constraints, ic)
	}
}
