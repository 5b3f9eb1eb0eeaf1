package xmlschema

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// Instance is an encoded XML document ready for serialization.
type Instance struct {
	doc *xmltree.Document
}

// WriteXML serializes the instance. Namespace prefixes are assigned per
// document: the root element's namespace becomes the default namespace,
// every other namespace gets a generated prefix declared on the root.
func (i *Instance) WriteXML(w io.Writer) error {
	if i == nil || i.doc == nil || i.doc.Root == nil {
		return fmt.Errorf("write xml: empty instance")
	}
	p := newPrefixTable(i.doc.Root)
	bw := bufio.NewWriter(w)
	if err := writeElement(bw, i.doc.Root, p, true); err != nil {
		return err
	}
	return bw.Flush()
}

// String renders the instance as a string; it panics only on a nil
// instance, never on well-formed input.
func (i *Instance) String() string {
	var sb strings.Builder
	if err := i.WriteXML(&sb); err != nil {
		return ""
	}
	return sb.String()
}

type prefixTable struct {
	byNamespace  map[string]string
	defaultSpace string
}

func newPrefixTable(root *xmltree.Element) *prefixTable {
	p := &prefixTable{byNamespace: make(map[string]string), defaultSpace: root.Name.Space}

	spaces := make(map[string]bool)
	unqualified := false
	var collect func(el *xmltree.Element)
	collect = func(el *xmltree.Element) {
		if el.Name.Space != "" {
			spaces[el.Name.Space] = true
		} else {
			unqualified = true
		}
		for _, a := range el.Attrs {
			if a.Name.Space != "" {
				spaces[a.Name.Space] = true
			}
		}
		for _, child := range el.Children {
			collect(child)
		}
	}
	collect(root)

	// A default namespace would capture unqualified element names on
	// re-parse, so prefix everything when both are present.
	if unqualified {
		p.defaultSpace = ""
	}

	ordered := make([]string, 0, len(spaces))
	for ns := range spaces {
		if ns == p.defaultSpace {
			continue
		}
		ordered = append(ordered, ns)
	}
	sort.Strings(ordered)
	n := 0
	for _, ns := range ordered {
		if ns == components.XSINamespace {
			p.byNamespace[ns] = "xsi"
			continue
		}
		n++
		p.byNamespace[ns] = fmt.Sprintf("ns%d", n)
	}
	return p
}

func (p *prefixTable) render(name xmltree.QName, isAttr bool) string {
	switch {
	case name.Space == "":
		return name.Local
	case name.Space == p.defaultSpace && !isAttr:
		return name.Local
	default:
		return p.byNamespace[name.Space] + ":" + name.Local
	}
}

func writeElement(w *bufio.Writer, el *xmltree.Element, p *prefixTable, isRoot bool) error {
	tag := p.render(el.Name, false)
	w.WriteByte('<')
	w.WriteString(tag)

	if isRoot {
		if p.defaultSpace != "" {
			fmt.Fprintf(w, " xmlns=%q", p.defaultSpace)
		}
		ordered := make([]string, 0, len(p.byNamespace))
		for ns := range p.byNamespace {
			ordered = append(ordered, ns)
		}
		sort.Strings(ordered)
		for _, ns := range ordered {
			fmt.Fprintf(w, " xmlns:%s=%q", p.byNamespace[ns], ns)
		}
	}
	for _, a := range el.Attrs {
		w.WriteByte(' ')
		w.WriteString(p.render(a.Name, true))
		w.WriteString(`="`)
		if err := xml.EscapeText(w, []byte(a.Value)); err != nil {
			return err
		}
		w.WriteByte('"')
	}

	if len(el.Children) == 0 && el.Text == "" {
		w.WriteString("/>")
		return nil
	}
	w.WriteByte('>')
	if el.Text != "" {
		if err := xml.EscapeText(w, []byte(el.Text)); err != nil {
			return err
		}
	}
	for _, child := range el.Children {
		if err := writeElement(w, child, p, false); err != nil {
			return err
		}
	}
	w.WriteString("</" + tag + ">")
	return nil
}
