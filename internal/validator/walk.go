package validator

import (
	stderrors "errors"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/builtins"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/content"
	"github.com/xmlschema-go/xmlschema/internal/facets"
	"github.com/xmlschema-go/xmlschema/internal/value"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

var (
	xsiType = components.QName{Space: components.XSINamespace, Local: "type"}
	xsiNil  = components.QName{Space: components.XSINamespace, Local: "nil"}

	xsdID    = components.QName{Space: components.XSDNamespace, Local: "ID"}
	xsdIDREF = components.QName{Space: components.XSDNamespace, Local: "IDREF"}
)

// element validates one element against its declaration and returns the
// decoded record when decoding.
func (r *run) element(el *xmltree.Element, decl *components.ElementDecl) *Record {
	if r.stop {
		return nil
	}
	if decl.Abstract {
		r.addAt(errors.NewValidationf(errors.ErrElementAbstract, el.Path(),
			"element %s is abstract and cannot appear in an instance", decl.Name), el)
		return nil
	}

	t := r.governingType(el, decl)
	if t == nil {
		return nil
	}

	var rec *Record
	if r.decode {
		rec = &Record{Name: el.Name, Type: t.TypeName()}
	}

	nilled := r.checkNil(el, decl)

	switch tt := t.(type) {
	case *components.SimpleType:
		r.simpleElement(el, tt, decl, nilled, rec)
	case *components.ComplexType:
		if tt.Abstract {
			r.addAt(errors.NewValidationf(errors.ErrElementTypeAbstract, el.Path(),
				"type %s is abstract and cannot govern an element", tt.Name), el)
			return rec
		}
		r.complexElement(el, tt, decl, nilled, rec)
	}

	if rec != nil {
		rec.Nil = nilled
	}

	for _, ic := range decl.Constraints {
		for _, err := range r.identity.Check(ic, el) {
			r.add(err)
			if r.stop {
				return rec
			}
		}
	}
	return rec
}

// governingType resolves the type that governs this element: the
// declared type unless a valid xsi:type override names a type validly
// derived from it.
func (r *run) governingType(el *xmltree.Element, decl *components.ElementDecl) components.Type {
	t := decl.Type
	raw, ok := el.Attr(xsiType)
	if !ok {
		return t
	}
	q, err := el.ResolveQName(raw)
	if err != nil {
		r.addAt(errors.NewValidationf(errors.ErrXsiTypeInvalid, el.Path(), "xsi:type: %v", err), el)
		return nil
	}
	override, ok := r.v.set.TypeByName(q)
	if !ok {
		if override, ok = builtins.Lookup(q); !ok {
			r.addAt(errors.NewValidationf(errors.ErrXsiTypeInvalid, el.Path(),
				"xsi:type names unknown type %s", q), el)
			return nil
		}
	}
	declared := t.TypeName()
	if declared != builtins.AnyTypeName && !components.DerivesFrom(override, declared) {
		r.addAt(errors.NewValidationf(errors.ErrXsiTypeInvalid, el.Path(),
			"xsi:type %s is not derived from the declared type %s", q, declared), el)
		return nil
	}
	return override
}

func (r *run) checkNil(el *xmltree.Element, decl *components.ElementDecl) bool {
	raw, ok := el.Attr(xsiNil)
	if !ok {
		return false
	}
	if !decl.Nillable {
		r.addAt(errors.NewValidationf(errors.ErrElementNotNillable, el.Path(),
			"element %s is not nillable", decl.Name), el)
		return false
	}
	if raw != "true" && raw != "1" {
		return false
	}
	if len(el.Children) > 0 || el.HasText() {
		r.addAt(errors.NewValidationf(errors.ErrNilElementNotEmpty, el.Path(),
			"nilled element must be empty"), el)
	}
	return true
}

// simpleElement validates an element governed by a simple type: no
// attributes beyond the xsi ones, no child elements, and text content
// valid against the type.
func (r *run) simpleElement(el *xmltree.Element, st *components.SimpleType, decl *components.ElementDecl, nilled bool, rec *Record) {
	for _, a := range el.Attrs {
		if a.Name.Space == components.XSINamespace {
			continue
		}
		r.addAt(errors.NewValidationf(errors.ErrAttributeNotDeclared, el.AttrPath(a.Name),
			"attribute %s is not allowed on an element with simple type %s", a.Name, st.Name), el)
		if r.stop {
			return
		}
	}
	if len(el.Children) > 0 {
		r.addAt(errors.NewValidationf(errors.ErrElementInEmptyContent, el.Children[0].Path(),
			"element content is not allowed under simple type %s", st.Name), el.Children[0])
		return
	}
	r.simpleContent(el, st, decl, nilled, rec)
}

// simpleContent validates an element's text against the effective
// simple type, applying element default and fixed values.
func (r *run) simpleContent(el *xmltree.Element, st *components.SimpleType, decl *components.ElementDecl, nilled bool, rec *Record) {
	if nilled || r.stop {
		return
	}
	lex := el.Text
	hadText := el.HasText()
	if !hadText {
		switch {
		case decl.HasDefault:
			lex = decl.Default
		case decl.HasFixed:
			lex = decl.Fixed
		}
	}

	v, ok := r.simpleValue(st, lex, el, el.Path())
	if !ok {
		return
	}
	if decl.HasFixed && hadText {
		if fixed, errs := st.ParseValue(decl.Fixed, el, false); len(errs) == 0 && !value.Equal(v, fixed) {
			r.addAt(errors.NewValidationf(errors.ErrElementFixedValue, el.Path(),
				"value %q does not match the fixed value %q", lex, decl.Fixed), el)
			return
		}
	}
	r.trackIDs(st, v, el)
	if rec != nil {
		rec.Value = v.Native()
		rec.Text = lex
	}
}

// simpleValue parses and facet-checks one lexical value, converting the
// failures into coded validation errors.
func (r *run) simpleValue(st *components.SimpleType, lexical string, ns components.NamespaceResolver, path string) (value.Value, bool) {
	v, errs := st.ParseValue(lexical, ns, !r.v.opts.FailFast)
	if len(errs) == 0 {
		return v, true
	}
	for _, err := range errs {
		code := errors.ErrDatatypeInvalid
		var violation *facets.Violation
		switch {
		case stderrors.As(err, &violation):
			code = errors.ErrFacetViolation
		case stderrors.Is(err, components.ErrNoUnionMember):
			code = errors.ErrUnionNoMatch
		}
		verr := errors.NewValidationf(code, path, "%s", err.Error())
		verr.Actual = lexical
		r.add(verr)
		if r.stop {
			break
		}
	}
	return v, false
}

func (r *run) complexElement(el *xmltree.Element, ct *components.ComplexType, decl *components.ElementDecl, nilled bool, rec *Record) {
	attrs := r.attributes(el, ct)
	if rec != nil {
		rec.Attributes = attrs
	}
	if nilled || r.stop {
		return
	}

	switch ct.Kind {
	case components.ContentEmpty:
		if len(el.Children) > 0 {
			r.addAt(errors.NewValidationf(errors.ErrElementInEmptyContent, el.Children[0].Path(),
				"type %s has empty content", ct.Name), el.Children[0])
			return
		}
		if el.HasText() {
			r.addAt(errors.NewValidationf(errors.ErrTextInElementOnly, el.Path(),
				"type %s does not allow character data", ct.Name), el)
		}
	case components.ContentSimple:
		if len(el.Children) > 0 {
			r.addAt(errors.NewValidationf(errors.ErrElementInEmptyContent, el.Children[0].Path(),
				"type %s has simple content and does not allow child elements", ct.Name), el.Children[0])
			return
		}
		r.simpleContent(el, ct.SimpleContent, decl, nilled, rec)
	case components.ContentElementOnly:
		if el.HasText() {
			r.addAt(errors.NewValidationf(errors.ErrTextInElementOnly, el.Path(),
				"type %s does not allow character data between child elements", ct.Name), el)
			if r.stop {
				return
			}
		}
		r.matchContent(el, ct, rec)
	case components.ContentMixed:
		if rec != nil {
			rec.Text = el.Text
		}
		r.matchContent(el, ct, rec)
	}
}

// matchContent runs the content model over the element's children and
// recurses into each child under the term that claimed it.
func (r *run) matchContent(el *xmltree.Element, ct *components.ComplexType, rec *Record) {
	if ct.Content == nil {
		if len(el.Children) > 0 {
			r.addAt(errors.NewValidationf(errors.ErrUnexpectedElement, el.Children[0].Path(),
				"type %s does not allow child elements", ct.Name), el.Children[0])
		}
		return
	}

	names := make([]components.QName, len(el.Children))
	for i, child := range el.Children {
		names[i] = child.Name
	}
	res, mm := content.Match(ct.Content, names, r)
	if mm != nil {
		if mm.Index >= len(el.Children) {
			v := errors.NewValidationf(errors.ErrRequiredElementMissing, el.Path(),
				"content of %s is incomplete", el.Name.Local)
			v.Expected = mm.Expected
			r.addAt(v, el)
		} else {
			offender := el.Children[mm.Index]
			v := errors.NewValidationf(errors.ErrUnexpectedElement, offender.Path(),
				"element %s is not allowed here", offender.Name)
			v.Actual = offender.Name.String()
			v.Expected = mm.Expected
			r.addAt(v, offender)
		}
		return
	}

	for i, child := range el.Children {
		if r.stop {
			return
		}
		a := res.Assignments[i]
		switch {
		case a.Decl != nil:
			childRec := r.element(child, a.Decl)
			if rec != nil && childRec != nil {
				rec.Children = append(rec.Children, Child{Name: child.Name, Record: childRec})
			}
		case a.Wildcard != nil:
			r.wildcardChild(child, a.Wildcard, rec)
		}
	}
}

// wildcardChild validates a wildcard-matched element per the wildcard's
// process-contents mode.
func (r *run) wildcardChild(el *xmltree.Element, w *components.Wildcard, rec *Record) {
	switch w.Process {
	case components.ProcessSkip:
		if rec != nil {
			rec.Children = append(rec.Children, Child{Name: el.Name, Record: &Record{Name: el.Name, Text: el.Text}})
		}
	default:
		decl, ok := r.v.set.ElementByName(el.Name)
		if !ok {
			if w.Process == components.ProcessStrict {
				r.addAt(errors.NewValidationf(errors.ErrWildcardStrictUnresolved, el.Path(),
					"no declaration resolvable for strict wildcard match %s", el.Name), el)
			} else if rec != nil {
				rec.Children = append(rec.Children, Child{Name: el.Name, Record: &Record{Name: el.Name, Text: el.Text}})
			}
			return
		}
		childRec := r.element(el, decl)
		if rec != nil && childRec != nil {
			rec.Children = append(rec.Children, Child{Name: el.Name, Record: childRec})
		}
	}
}

// attributes validates the element's attributes against the type's
// attribute uses and wildcard, returning the decoded attribute map.
func (r *run) attributes(el *xmltree.Element, ct *components.ComplexType) map[components.QName]any {
	var out map[components.QName]any
	if r.decode {
		out = make(map[components.QName]any)
	}
	seen := make(map[components.QName]bool, len(el.Attrs))

	for _, a := range el.Attrs {
		if r.stop {
			return out
		}
		if a.Name.Space == components.XSINamespace {
			continue
		}
		seen[a.Name] = true

		use, declared := ct.AttributeUseFor(a.Name)
		if !declared {
			r.wildcardAttribute(el, a, ct, out)
			continue
		}
		if use.Use == components.UseProhibited {
			r.addAt(errors.NewValidationf(errors.ErrAttributeProhibited, el.AttrPath(a.Name),
				"attribute %s is prohibited on type %s", a.Name, ct.Name), el)
			continue
		}
		r.attributeValue(el, a, use.Decl, use, out)
	}

	for _, use := range ct.Attributes {
		if r.stop {
			return out
		}
		if seen[use.Decl.Name] || use.Use == components.UseProhibited {
			continue
		}
		if use.Use == components.UseRequired {
			r.addAt(errors.NewValidationf(errors.ErrRequiredAttributeMissing, el.Path(),
				"required attribute %s is missing", use.Decl.Name), el)
			continue
		}
		// Absent optional attribute: apply the default or fixed value
		// during decode.
		lex, ok := use.EffectiveDefault()
		if !ok {
			lex, ok = use.EffectiveFixed()
		}
		if ok && out != nil {
			if v, parsed := r.simpleValue(use.Decl.Type, lex, el, el.AttrPath(use.Decl.Name)); parsed {
				out[use.Decl.Name] = v.Native()
			}
		}
	}
	return out
}

func (r *run) attributeValue(el *xmltree.Element, a xmltree.Attr, decl *components.AttributeDecl, use *components.AttributeUse, out map[components.QName]any) {
	v, ok := r.simpleValue(decl.Type, a.Value, el, el.AttrPath(a.Name))
	if !ok {
		return
	}
	var fixed string
	var hasFixed bool
	if use != nil {
		fixed, hasFixed = use.EffectiveFixed()
	} else if decl.HasFixed {
		fixed, hasFixed = decl.Fixed, true
	}
	if hasFixed {
		if fv, errs := decl.Type.ParseValue(fixed, el, false); len(errs) == 0 && !value.Equal(v, fv) {
			r.addAt(errors.NewValidationf(errors.ErrAttributeFixedValue, el.AttrPath(a.Name),
				"attribute value %q does not match the fixed value %q", a.Value, fixed), el)
			return
		}
	}
	r.trackIDs(decl.Type, v, el)
	if out != nil {
		out[a.Name] = v.Native()
	}
}

// wildcardAttribute handles an attribute admitted only by the type's
// attribute wildcard, honoring its process-contents mode.
func (r *run) wildcardAttribute(el *xmltree.Element, a xmltree.Attr, ct *components.ComplexType, out map[components.QName]any) {
	w := ct.AttributeWildcard
	if w == nil || !w.Allows(a.Name.Space) {
		r.addAt(errors.NewValidationf(errors.ErrAttributeNotDeclared, el.AttrPath(a.Name),
			"attribute %s is not declared on type %s", a.Name, ct.Name), el)
		return
	}
	switch w.Process {
	case components.ProcessSkip:
		if out != nil {
			out[a.Name] = a.Value
		}
	default:
		decl, ok := r.v.set.Attributes[a.Name]
		if !ok {
			if w.Process == components.ProcessStrict {
				r.addAt(errors.NewValidationf(errors.ErrWildcardStrictUnresolved, el.AttrPath(a.Name),
					"no declaration resolvable for strict wildcard attribute %s", a.Name), el)
			} else if out != nil {
				out[a.Name] = a.Value
			}
			return
		}
		r.attributeValue(el, a, decl, nil, out)
	}
}

// trackIDs records ID and IDREF values for the document-wide checks.
func (r *run) trackIDs(st *components.SimpleType, v value.Value, el *xmltree.Element) {
	if st.Variety == components.VarietyList {
		if st.ItemType != nil && components.DerivesFrom(st.ItemType, xsdIDREF) {
			for _, item := range v.Items {
				r.idrefs = append(r.idrefs, idrefUse{id: item.Lexical, node: el})
			}
		}
		return
	}
	switch {
	case components.DerivesFrom(st, xsdID):
		id := v.Lexical
		if prev, dup := r.ids[id]; dup {
			r.addAt(errors.NewValidationf(errors.ErrDuplicateID, el.Path(),
				"ID %q already appears at %s", id, prev.Path()), el)
			return
		}
		r.ids[id] = el
	case components.DerivesFrom(st, xsdIDREF):
		r.idrefs = append(r.idrefs, idrefUse{id: v.Lexical, node: el})
	}
}
