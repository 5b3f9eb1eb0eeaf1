// Package xmltree builds an immutable in-memory tree for parsed XML
// documents. It wraps encoding/xml, which performs all tokenization;
// nothing else in the module touches the tokenizer directly.
package xmltree

import (
	"fmt"
	"strings"
)

// QName is a namespace-qualified name.
type QName struct {
	Space string
	Local string
}

// String renders the name in Clark notation when namespaced.
func (q QName) String() string {
	if q.Space == "" {
		return q.Local
	}
	return "{" + q.Space + "}" + q.Local
}

// IsZero reports whether the name is empty.
func (q QName) IsZero() bool { return q.Local == "" && q.Space == "" }

// Attr is a single attribute on an element. Namespace declarations are
// not represented as attributes; they live in the element's bindings.
type Attr struct {
	Name  QName
	Value string
}

// Element is a node in the document tree. Elements are immutable after
// Parse returns.
type Element struct {
	Name     QName
	Attrs    []Attr
	Children []*Element
	Text     string

	Parent *Element
	Line   int
	Column int

	bindings map[string]string
}

// Document is a parsed XML document.
type Document struct {
	Root *Element
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name QName) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrLocal returns the value of an unprefixed attribute by local name.
func (e *Element) AttrLocal(local string) (string, bool) {
	return e.Attr(QName{Local: local})
}

// LookupPrefix resolves a namespace prefix against the bindings in scope
// at this element. The empty prefix resolves to the default namespace,
// which may itself be empty.
func (e *Element) LookupPrefix(prefix string) (string, bool) {
	for n := e; n != nil; n = n.Parent {
		if n.bindings != nil {
			if uri, ok := n.bindings[prefix]; ok {
				return uri, true
			}
		}
	}
	if prefix == "xml" {
		return "http://www.w3.org/XML/1998/namespace", true
	}
	if prefix == "" {
		return "", true
	}
	return "", false
}

// Bindings returns every prefix binding in scope at this element.
// Inner bindings shadow outer ones.
func (e *Element) Bindings() map[string]string {
	out := make(map[string]string)
	var collect func(n *Element)
	collect = func(n *Element) {
		if n == nil {
			return
		}
		collect(n.Parent)
		for p, uri := range n.bindings {
			out[p] = uri
		}
	}
	collect(e)
	return out
}

// ResolveQName resolves a prefix:local token against the bindings in
// scope at this element. An unprefixed token resolves to the default
// namespace.
func (e *Element) ResolveQName(token string) (QName, error) {
	prefix, local := "", token
	if i := strings.IndexByte(token, ':'); i >= 0 {
		prefix, local = token[:i], token[i+1:]
		if prefix == "" || local == "" || strings.IndexByte(local, ':') >= 0 {
			return QName{}, fmt.Errorf("malformed qname %q", token)
		}
	}
	uri, ok := e.LookupPrefix(prefix)
	if !ok {
		return QName{}, fmt.Errorf("undeclared namespace prefix %q in %q", prefix, token)
	}
	return QName{Space: uri, Local: local}, nil
}

// Path renders a root-relative location path for error reporting, with
// 1-based positional predicates for repeated siblings:
// /purchaseOrder/items/item[2].
func (e *Element) Path() string {
	if e == nil {
		return ""
	}
	var steps []string
	for n := e; n != nil; n = n.Parent {
		step := n.Name.Local
		if n.Parent != nil {
			same, index := 0, 0
			for _, sib := range n.Parent.Children {
				if sib.Name == n.Name {
					same++
					if sib == n {
						index = same
					}
				}
			}
			if same > 1 {
				step = fmt.Sprintf("%s[%d]", step, index)
			}
		}
		steps = append(steps, step)
	}
	var b strings.Builder
	for i := len(steps) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(steps[i])
	}
	return b.String()
}

// AttrPath renders the location path of an attribute on this element.
func (e *Element) AttrPath(name QName) string {
	return e.Path() + "/@" + name.Local
}

// HasText reports whether the element holds any non-whitespace character data.
func (e *Element) HasText() bool {
	return strings.TrimSpace(e.Text) != ""
}
