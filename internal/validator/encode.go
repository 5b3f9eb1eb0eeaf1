package validator

import (
	"fmt"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/content"
	"github.com/xmlschema-go/xmlschema/internal/value"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// Encode builds an instance document for the named global element from
// a record tree. The shape is re-validated against the schema before
// any element is emitted: a failed encode returns the full error list
// and no document, never half-built output.
func (v *Validator) Encode(name components.QName, data any) (*xmltree.Document, error) {
	decl, ok := v.set.ElementByName(name)
	if !ok {
		return nil, errors.ValidationList{errors.NewValidationf(
			errors.ErrEncodeShape, "/"+name.Local, "no global element %s", name)}
	}
	e := &encoder{v: v}
	root := e.element(decl, data, "/"+name.Local)
	if len(e.errs) > 0 {
		return nil, e.errs
	}
	return &xmltree.Document{Root: root}, nil
}

type encoder struct {
	v    *Validator
	errs errors.ValidationList
}

func (e *encoder) fail(code errors.ErrorCode, path, format string, args ...any) {
	e.errs = append(e.errs, errors.NewValidationf(code, path, format, args...))
}

// Substitute implements content.Resolver for encode-side matching.
func (e *encoder) Substitute(head *components.ElementDecl, name components.QName) *components.ElementDecl {
	if !head.Global {
		return nil
	}
	for _, cand := range e.v.set.SubstitutionsFor(head.Name) {
		if cand.Name == name && !cand.Abstract {
			return cand
		}
	}
	return nil
}

func (e *encoder) element(decl *components.ElementDecl, data any, path string) *xmltree.Element {
	el := &xmltree.Element{Name: decl.Name}

	rec, isRec := data.(*Record)
	if isRec && rec.Nil {
		if !decl.Nillable {
			e.fail(errors.ErrEncodeShape, path, "element %s is not nillable", decl.Name)
			return el
		}
		el.Attrs = append(el.Attrs, xmltree.Attr{Name: xsiNil, Value: "true"})
		return el
	}

	switch t := decl.Type.(type) {
	case *components.SimpleType:
		if isRec {
			data = rec.Value
		}
		if lex, ok := e.simpleLexical(t, data, path); ok {
			el.Text = lex
		}
	case *components.ComplexType:
		if t.Kind == components.ContentSimple && !isRec {
			// A bare value is accepted for attribute-less simple content.
			if lex, ok := e.simpleLexical(t.SimpleContent, data, path); ok {
				el.Text = lex
			}
			e.requireAttributes(el, t, nil, path)
			return el
		}
		if !isRec {
			e.fail(errors.ErrEncodeShape, path, "type %s requires a record, got %T", t.Name, data)
			return el
		}
		e.complex(el, t, rec, path)
	}
	return el
}

func (e *encoder) complex(el *xmltree.Element, ct *components.ComplexType, rec *Record, path string) {
	e.requireAttributes(el, ct, rec, path)

	switch ct.Kind {
	case components.ContentEmpty:
		if len(rec.Children) > 0 || rec.Value != nil {
			e.fail(errors.ErrEncodeShape, path, "type %s has empty content", ct.Name)
		}
	case components.ContentSimple:
		if len(rec.Children) > 0 {
			e.fail(errors.ErrEncodeShape, path, "type %s has simple content, child records are not allowed", ct.Name)
			return
		}
		if lex, ok := e.simpleLexical(ct.SimpleContent, rec.Value, path); ok {
			el.Text = lex
		}
	case components.ContentElementOnly, components.ContentMixed:
		if ct.Kind == components.ContentMixed {
			el.Text = rec.Text
		} else if rec.Value != nil {
			e.fail(errors.ErrEncodeShape, path, "type %s does not allow a simple value", ct.Name)
		}
		e.children(el, ct, rec, path)
	}
}

// children matches the record's child names against the content model,
// then encodes each child under the term that claimed it.
func (e *encoder) children(el *xmltree.Element, ct *components.ComplexType, rec *Record, path string) {
	if ct.Content == nil {
		if len(rec.Children) > 0 {
			e.fail(errors.ErrEncodeShape, path, "type %s does not allow child elements", ct.Name)
		}
		return
	}

	names := make([]components.QName, len(rec.Children))
	for i, c := range rec.Children {
		names[i] = c.Name
	}
	res, mm := content.Match(ct.Content, names, e)
	if mm != nil {
		if mm.Index >= len(names) {
			v := errors.NewValidationf(errors.ErrEncodeShape, path,
				"child records do not satisfy the content model of %s: content is incomplete", ct.Name)
			v.Expected = mm.Expected
			e.errs = append(e.errs, v)
		} else {
			v := errors.NewValidationf(errors.ErrEncodeShape, path,
				"child record %s is not allowed at position %d", names[mm.Index], mm.Index+1)
			v.Expected = mm.Expected
			e.errs = append(e.errs, v)
		}
		return
	}

	for i, c := range rec.Children {
		childPath := fmt.Sprintf("%s/%s[%d]", path, c.Name.Local, i+1)
		a := res.Assignments[i]
		switch {
		case a.Decl != nil:
			el.Children = append(el.Children, e.element(a.Decl, c.Record, childPath))
		case a.Wildcard != nil:
			e.wildcardChild(el, c, a.Wildcard, childPath)
		}
	}
}

func (e *encoder) wildcardChild(el *xmltree.Element, c Child, w *components.Wildcard, path string) {
	if decl, ok := e.v.set.ElementByName(c.Name); ok && w.Process != components.ProcessSkip {
		el.Children = append(el.Children, e.element(decl, c.Record, path))
		return
	}
	if w.Process == components.ProcessStrict {
		e.fail(errors.ErrEncodeShape, path, "no declaration resolvable for strict wildcard child %s", c.Name)
		return
	}
	child := &xmltree.Element{Name: c.Name}
	if c.Record != nil {
		child.Text = c.Record.Text
	}
	el.Children = append(el.Children, child)
}

// requireAttributes emits the type's attribute uses from the record's
// attribute map, applying defaults and fixed values and rejecting
// missing required or undeclared attributes.
func (e *encoder) requireAttributes(el *xmltree.Element, ct *components.ComplexType, rec *Record, path string) {
	var supplied map[components.QName]any
	if rec != nil {
		supplied = rec.Attributes
	}
	emitted := make(map[components.QName]bool, len(supplied))

	for _, use := range ct.Attributes {
		name := use.Decl.Name
		data, present := supplied[name]
		if !present {
			lex, ok := use.EffectiveFixed()
			if !ok {
				lex, ok = use.EffectiveDefault()
			}
			if ok {
				el.Attrs = append(el.Attrs, xmltree.Attr{Name: name, Value: lex})
				continue
			}
			if use.Use == components.UseRequired {
				e.fail(errors.ErrEncodeShape, path, "required attribute %s is missing", name)
			}
			continue
		}
		emitted[name] = true
		if use.Use == components.UseProhibited {
			e.fail(errors.ErrEncodeShape, path, "attribute %s is prohibited on type %s", name, ct.Name)
			continue
		}
		lex, ok := e.simpleLexical(use.Decl.Type, data, path+"/@"+name.Local)
		if !ok {
			continue
		}
		if fixed, hasFixed := use.EffectiveFixed(); hasFixed && lex != fixed {
			if fv, errs := use.Decl.Type.ParseValue(fixed, nil, false); len(errs) != 0 || fv.Canonical() != lex {
				e.fail(errors.ErrEncodeValue, path+"/@"+name.Local,
					"attribute value %q does not match the fixed value %q", lex, fixed)
				continue
			}
		}
		el.Attrs = append(el.Attrs, xmltree.Attr{Name: name, Value: lex})
	}

	for name, data := range supplied {
		if emitted[name] {
			continue
		}
		if _, declared := ct.AttributeUseFor(name); declared {
			continue // already reported above
		}
		if ct.AttributeWildcard != nil && ct.AttributeWildcard.Allows(name.Space) {
			el.Attrs = append(el.Attrs, xmltree.Attr{Name: name, Value: fmt.Sprint(data)})
			continue
		}
		e.fail(errors.ErrEncodeShape, path, "attribute %s is not declared on type %s", name, ct.Name)
	}
}

// simpleLexical converts a native value into the canonical lexical form
// of the simple type, re-validating it against the type's facets.
func (e *encoder) simpleLexical(st *components.SimpleType, data any, path string) (string, bool) {
	if st == nil {
		e.fail(errors.ErrEncodeShape, path, "no simple type available")
		return "", false
	}
	switch st.Variety {
	case components.VarietyList:
		return e.listLexical(st, data, path)
	case components.VarietyUnion:
		for _, member := range st.Members {
			if lex, ok := e.tryLexical(member, data); ok {
				return lex, true
			}
		}
		e.fail(errors.ErrEncodeValue, path, "value %v matches no member type of union %s", data, st.Name.Local)
		return "", false
	}

	v, err := value.FromNative(st.Primitive, data)
	if err != nil {
		e.fail(errors.ErrEncodeValue, path, "cannot represent %v as %s: %v", data, st.Primitive, err)
		return "", false
	}
	lex := v.Canonical()
	if _, errs := st.ParseValue(lex, nil, false); len(errs) > 0 {
		e.fail(errors.ErrEncodeValue, path, "value %q is not valid for type %s: %v", lex, st.Name.Local, errs[0])
		return "", false
	}
	return lex, true
}

func (e *encoder) listLexical(st *components.SimpleType, data any, path string) (string, bool) {
	items, ok := asSlice(data)
	if !ok {
		e.fail(errors.ErrEncodeShape, path, "list type %s requires a slice, got %T", st.Name.Local, data)
		return "", false
	}
	lex := ""
	for i, item := range items {
		itemLex, ok := e.simpleLexical(st.ItemType, item, path)
		if !ok {
			return "", false
		}
		if i > 0 {
			lex += " "
		}
		lex += itemLex
	}
	if _, errs := st.ParseValue(lex, nil, false); len(errs) > 0 {
		e.fail(errors.ErrEncodeValue, path, "list value %q is not valid for type %s: %v", lex, st.Name.Local, errs[0])
		return "", false
	}
	return lex, true
}

// tryLexical attempts a conversion without recording errors; used for
// union member probing.
func (e *encoder) tryLexical(st *components.SimpleType, data any) (string, bool) {
	probe := &encoder{v: e.v}
	lex, ok := probe.simpleLexical(st, data, "")
	return lex, ok && len(probe.errs) == 0
}

func asSlice(data any) ([]any, bool) {
	switch s := data.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, v := range s {
			out[i] = v
		}
		return out, true
	case nil:
		return nil, true
	}
	return nil, false
}
