package validator

import "github.com/xmlschema-go/xmlschema/internal/components"

// Record is the decoded form of one element: typed attributes, ordered
// children, and for simple content the typed value. Repeated children
// simply repeat in Children.
type Record struct {
	// Name is the element's qualified name; Type the resolved governing
	// type, after any xsi:type override.
	Name components.QName
	Type components.QName

	Attributes map[components.QName]any

	// Children holds the decoded child elements in document order.
	Children []Child

	// Value is the typed simple-content value; nil for element-only and
	// empty content. Text preserves the raw character data of mixed
	// content.
	Value any
	Text  string

	Nil bool
}

// Child is one decoded child element.
type Child struct {
	Name   components.QName
	Record *Record
}

// First returns the first child with the given local name, or nil.
func (r *Record) First(local string) *Record {
	for _, c := range r.Children {
		if c.Name.Local == local {
			return c.Record
		}
	}
	return nil
}

// All returns every child record with the given local name, in order.
func (r *Record) All(local string) []*Record {
	var out []*Record
	for _, c := range r.Children {
		if c.Name.Local == local {
			out = append(out, c.Record)
		}
	}
	return out
}

// Attr returns the decoded attribute value by local name.
func (r *Record) Attr(local string) (any, bool) {
	for name, v := range r.Attributes {
		if name.Local == local {
			return v, true
		}
	}
	return nil, false
}
