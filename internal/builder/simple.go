package builder

import (
	"strconv"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/builtins"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/facets"
	"github.com/xmlschema-go/xmlschema/internal/value"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// typeByName resolves a type reference: built-ins first, then already
// built components, then an on-demand build of the registered global.
// The in-progress marker turns derivation cycles into build errors
// instead of infinite recursion.
func (b *builder) typeByName(q components.QName, ctx string) components.Type {
	if q.Space == components.XSDNamespace {
		if t, ok := builtins.Lookup(q); ok {
			return t
		}
		b.errorf(errors.BuildUnresolvedReference, ctx, "unknown built-in type %s", q)
		return nil
	}
	if t, ok := b.set.Types[q]; ok {
		return t
	}
	decl, ok := b.typeDecls[q]
	if !ok {
		b.errorf(errors.BuildUnresolvedReference, ctx, "unknown type %s", q)
		return nil
	}
	if b.resolvingTypes[q] {
		b.errorf(errors.BuildDerivationCycle, q.String(), "type derivation cycle through %s", q)
		return nil
	}
	b.resolvingTypes[q] = true
	defer delete(b.resolvingTypes, q)

	if isXSD(decl.node, "simpleType") {
		return b.buildSimpleType(decl.node, decl.doc, q)
	}
	return b.buildComplexType(decl.node, decl.doc, q)
}

// simpleTypeByName resolves a reference that must name a simple type.
func (b *builder) simpleTypeByName(q components.QName, ctx string) *components.SimpleType {
	t := b.typeByName(q, ctx)
	if t == nil {
		return nil
	}
	st, ok := t.(*components.SimpleType)
	if !ok {
		b.errorf(errors.BuildUnresolvedReference, ctx, "%s is a complex type where a simple type is required", q)
		return nil
	}
	return st
}

// buildSimpleType compiles one xs:simpleType definition, named or
// anonymous, and registers it.
func (b *builder) buildSimpleType(node *xmltree.Element, doc *schemaDoc, q components.QName) *components.SimpleType {
	for _, child := range node.Children {
		switch {
		case isXSD(child, "restriction"):
			return b.buildSimpleRestriction(child, doc, q)
		case isXSD(child, "list"):
			return b.buildListType(child, doc, q)
		case isXSD(child, "union"):
			return b.buildUnionType(child, doc, q)
		}
	}
	b.errorf(errors.BuildInvalidSchema, q.String(), "simpleType has no restriction, list, or union child")
	return nil
}

func (b *builder) buildSimpleRestriction(node *xmltree.Element, doc *schemaDoc, q components.QName) *components.SimpleType {
	base := b.restrictionBase(node, doc, q)
	if base == nil {
		return nil
	}
	st := b.restrictSimple(node, base, q)
	if st != nil {
		b.set.Types[q] = st
	}
	return st
}

// restrictionBase resolves the base of an xs:restriction, either the
// base attribute or an inline simpleType child.
func (b *builder) restrictionBase(node *xmltree.Element, doc *schemaDoc, q components.QName) *components.SimpleType {
	if raw, ok := node.AttrLocal("base"); ok {
		ref, ok := b.resolveRef(node, raw, q.String())
		if !ok {
			return nil
		}
		return b.simpleTypeByName(ref, q.String())
	}
	for _, child := range node.Children {
		if isXSD(child, "simpleType") {
			return b.buildSimpleType(child, doc, b.anonName(doc, q.Local))
		}
	}
	b.errorf(errors.BuildInvalidSchema, q.String(), "restriction has neither a base attribute nor an inline simpleType")
	return nil
}

// restrictSimple derives a new simple type from base by applying the
// facet children of node. Shared between xs:simpleType restrictions and
// simpleContent restrictions.
func (b *builder) restrictSimple(node *xmltree.Element, base *components.SimpleType, q components.QName) *components.SimpleType {
	st := &components.SimpleType{
		Name:      q,
		Base:      base,
		Variety:   base.Variety,
		Primitive: base.Primitive,
		White:     base.White,
		ItemType:  base.ItemType,
		Members:   base.Members,
	}

	var (
		patterns []string
		enum     *facets.Enumeration
	)
	for _, child := range node.Children {
		if child.Name.Space != components.XSDNamespace {
			continue
		}
		lex, _ := child.AttrLocal("value")
		fixed, _ := child.AttrLocal("fixed")
		isFixed := fixed == "true"

		switch child.Name.Local {
		case "whiteSpace":
			ws, err := facets.ParseWhiteSpace(lex)
			if err != nil {
				b.errorf(errors.BuildIllegalFacet, q.String(), "%v", err)
				continue
			}
			if ws < base.White {
				b.errorf(errors.BuildIllegalRestriction, q.String(),
					"whiteSpace %s is looser than base whiteSpace %s", ws, base.White)
				continue
			}
			st.White = ws
		case "pattern":
			patterns = append(patterns, lex)
		case "enumeration":
			v, errs := base.ParseValue(lex, child, false)
			if len(errs) > 0 {
				b.errorf(errors.BuildIllegalFacet, q.String(),
					"enumeration value %q is not valid against the base type: %v", lex, errs[0])
				continue
			}
			if enum == nil {
				enum = &facets.Enumeration{}
				st.Facets = append(st.Facets, enum)
			}
			enum.Values = append(enum.Values, v)
			enum.Lexicals = append(enum.Lexicals, lex)
		case "minInclusive", "minExclusive", "maxInclusive", "maxExclusive":
			if f := b.rangeFacet(child.Name.Local, lex, isFixed, st, q); f != nil {
				st.Facets = append(st.Facets, f)
			}
		case "length", "minLength", "maxLength":
			if f := b.lengthFacet(child.Name.Local, lex, isFixed, q); f != nil {
				st.Facets = append(st.Facets, f)
			}
		case "totalDigits", "fractionDigits":
			if f := b.digitsFacet(child.Name.Local, lex, isFixed, st, q); f != nil {
				st.Facets = append(st.Facets, f)
			}
		}
	}
	if len(patterns) > 0 {
		p, err := facets.NewPattern(patterns...)
		if err != nil {
			b.errorf(errors.BuildIllegalFacet, q.String(), "invalid pattern: %v", err)
		} else {
			st.Facets = append(st.Facets, p)
		}
	}

	st.AllFacets = append(append([]facets.Facet{}, st.Facets...), base.AllFacets...)
	for _, err := range facets.CheckRestriction(st.Facets, base.AllFacets) {
		b.errorf(errors.BuildIllegalRestriction, q.String(), "%v", err)
	}
	return st
}

func (b *builder) rangeFacet(local, lex string, isFixed bool, st *components.SimpleType, q components.QName) facets.Facet {
	if st.Variety != components.VarietyAtomic || !st.Primitive.Ordered() {
		b.errorf(errors.BuildIllegalFacet, q.String(), "%s does not apply to an unordered type", local)
		return nil
	}
	limit, err := value.ParseKind(st.Primitive, facets.Collapse.Normalize(lex))
	if err != nil {
		b.errorf(errors.BuildIllegalFacet, q.String(), "%s value %q: %v", local, lex, err)
		return nil
	}
	var bound facets.BoundKind
	switch local {
	case "minInclusive":
		bound = facets.MinInclusive
	case "minExclusive":
		bound = facets.MinExclusive
	case "maxInclusive":
		bound = facets.MaxInclusive
	default:
		bound = facets.MaxExclusive
	}
	f := &facets.Range{Bound: bound, Limit: limit}
	f.IsFixed = isFixed
	return f
}

func (b *builder) lengthFacet(local, lex string, isFixed bool, q components.QName) facets.Facet {
	n, err := strconv.Atoi(lex)
	if err != nil || n < 0 {
		b.errorf(errors.BuildIllegalFacet, q.String(), "%s value %q is not a non-negative integer", local, lex)
		return nil
	}
	var kind facets.LengthKind
	switch local {
	case "minLength":
		kind = facets.LengthMin
	case "maxLength":
		kind = facets.LengthMax
	default:
		kind = facets.LengthExact
	}
	f := &facets.Length{Kind: kind, Value: n}
	f.IsFixed = isFixed
	return f
}

func (b *builder) digitsFacet(local, lex string, isFixed bool, st *components.SimpleType, q components.QName) facets.Facet {
	if st.Primitive != value.KindDecimal && st.Primitive != value.KindInteger {
		b.errorf(errors.BuildIllegalFacet, q.String(), "%s applies only to decimal types", local)
		return nil
	}
	n, err := strconv.Atoi(lex)
	if err != nil || n < 0 || (local == "totalDigits" && n == 0) {
		b.errorf(errors.BuildIllegalFacet, q.String(), "%s value %q is out of range", local, lex)
		return nil
	}
	if local == "totalDigits" {
		f := &facets.TotalDigits{Digits: n}
		f.IsFixed = isFixed
		return f
	}
	f := &facets.FractionDigits{Digits: n}
	f.IsFixed = isFixed
	return f
}

func (b *builder) buildListType(node *xmltree.Element, doc *schemaDoc, q components.QName) *components.SimpleType {
	var item *components.SimpleType
	if raw, ok := node.AttrLocal("itemType"); ok {
		if ref, ok := b.resolveRef(node, raw, q.String()); ok {
			item = b.simpleTypeByName(ref, q.String())
		}
	} else {
		for _, child := range node.Children {
			if isXSD(child, "simpleType") {
				item = b.buildSimpleType(child, doc, b.anonName(doc, q.Local))
				break
			}
		}
	}
	if item == nil {
		b.errorf(errors.BuildInvalidSchema, q.String(), "list has neither an itemType attribute nor an inline simpleType")
		return nil
	}
	if item.Variety == components.VarietyList {
		b.errorf(errors.BuildInvalidSchema, q.String(), "list item type must not itself be a list")
		return nil
	}
	st := &components.SimpleType{
		Name:      q,
		Base:      builtins.AnySimpleType(),
		Variety:   components.VarietyList,
		Primitive: item.Primitive,
		White:     facets.Collapse,
		ItemType:  item,
	}
	b.set.Types[q] = st
	return st
}

func (b *builder) buildUnionType(node *xmltree.Element, doc *schemaDoc, q components.QName) *components.SimpleType {
	var members []*components.SimpleType
	if raw, ok := node.AttrLocal("memberTypes"); ok {
		for _, token := range splitTokens(raw) {
			ref, ok := b.resolveRef(node, token, q.String())
			if !ok {
				continue
			}
			if member := b.simpleTypeByName(ref, q.String()); member != nil {
				members = append(members, member)
			}
		}
	}
	for _, child := range node.Children {
		if isXSD(child, "simpleType") {
			if member := b.buildSimpleType(child, doc, b.anonName(doc, q.Local)); member != nil {
				members = append(members, member)
			}
		}
	}
	if len(members) == 0 {
		b.errorf(errors.BuildInvalidSchema, q.String(), "union has no member types")
		return nil
	}
	st := &components.SimpleType{
		Name:    q,
		Base:    builtins.AnySimpleType(),
		Variety: components.VarietyUnion,
		White:   facets.Collapse,
		Members: members,
	}
	b.set.Types[q] = st
	return st
}

func boolAttr(node *xmltree.Element, local string) bool {
	v, _ := node.AttrLocal(local)
	return v == "true" || v == "1"
}

func splitTokens(s string) []string {
	var out []string
	start := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
