package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Limits bounds document parsing. Zero values select the defaults.
type Limits struct {
	MaxDepth    int
	MaxElements int
}

const (
	defaultMaxDepth    = 512
	defaultMaxElements = 1 << 22
)

// ErrNoRoot reports a document without a root element.
var ErrNoRoot = errors.New("document has no root element")

// Parse builds a document tree from the reader using default limits.
func Parse(r io.Reader) (*Document, error) {
	return ParseWithLimits(r, Limits{})
}

// ParseWithLimits builds a document tree from the reader.
func ParseWithLimits(r io.Reader, limits Limits) (*Document, error) {
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = defaultMaxDepth
	}
	if limits.MaxElements <= 0 {
		limits.MaxElements = defaultMaxElements
	}

	dec := xml.NewDecoder(r)
	var (
		root     *Element
		current  *Element
		depth    int
		elements int
	)

	for {
		line, column := dec.InputPos()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			elements++
			if depth > limits.MaxDepth {
				return nil, fmt.Errorf("parse xml: depth exceeds limit %d", limits.MaxDepth)
			}
			if elements > limits.MaxElements {
				return nil, fmt.Errorf("parse xml: element count exceeds limit %d", limits.MaxElements)
			}
			el := &Element{
				Name:   QName{Space: t.Name.Space, Local: t.Name.Local},
				Parent: current,
				Line:   line,
				Column: column,
			}
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					if el.bindings == nil {
						el.bindings = make(map[string]string)
					}
					el.bindings[a.Name.Local] = a.Value
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					if el.bindings == nil {
						el.bindings = make(map[string]string)
					}
					el.bindings[""] = a.Value
				default:
					el.Attrs = append(el.Attrs, Attr{
						Name:  QName{Space: a.Name.Space, Local: a.Name.Local},
						Value: a.Value,
					})
				}
			}
			if current == nil {
				if root != nil {
					return nil, fmt.Errorf("parse xml: multiple root elements")
				}
				root = el
			} else {
				current.Children = append(current.Children, el)
			}
			current = el

		case xml.EndElement:
			depth--
			if current == nil {
				return nil, fmt.Errorf("parse xml: unbalanced end element %s", t.Name.Local)
			}
			current = current.Parent

		case xml.CharData:
			if current != nil {
				current.Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, ErrNoRoot
	}
	if current != nil {
		return nil, fmt.Errorf("parse xml: unexpected end of document inside %s", current.Name.Local)
	}
	return &Document{Root: root}, nil
}
