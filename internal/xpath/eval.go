package xpath

import (
	"fmt"

	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// SelectElements evaluates the expression's element steps against the
// context element, returning matched elements in document order.
// Attribute steps are ignored here; use SelectField for field paths.
func (e Expression) SelectElements(context *xmltree.Element) []*xmltree.Element {
	seen := make(map[*xmltree.Element]bool)
	var out []*xmltree.Element
	for _, path := range e.Paths {
		for _, el := range evalSteps([]*xmltree.Element{context}, path.Steps) {
			if !seen[el] {
				seen[el] = true
				out = append(out, el)
			}
		}
	}
	return out
}

// Field is the result of evaluating a field path at a scope node.
type Field struct {
	// Absent is set when the path selected nothing; an absent field
	// excludes the tuple from unique checking but fails a key.
	Absent  bool
	Lexical string
	// Element is the selected element, nil for attribute fields.
	Element *xmltree.Element
}

// SelectField evaluates a field path at a scope node. A field path must
// select at most one node; selecting more is an error per the identity
// constraint rules.
func (e Expression) SelectField(scope *xmltree.Element) (Field, error) {
	var (
		found Field
		count int
	)
	for _, path := range e.Paths {
		targets := evalSteps([]*xmltree.Element{scope}, path.Steps)
		if path.Attribute != nil {
			for _, el := range targets {
				for _, a := range el.Attrs {
					if path.Attribute.Matches(a.Name) {
						count++
						found = Field{Lexical: a.Value}
					}
				}
			}
			continue
		}
		for _, el := range targets {
			count++
			found = Field{Lexical: el.Text, Element: el}
		}
	}
	switch {
	case count == 0:
		return Field{Absent: true}, nil
	case count > 1:
		return Field{}, fmt.Errorf("field %q selected %d nodes, at most one is allowed", e.Source, count)
	}
	return found, nil
}

func evalSteps(context []*xmltree.Element, steps []Step) []*xmltree.Element {
	current := context
	for _, step := range steps {
		var next []*xmltree.Element
		switch step.Axis {
		case AxisSelf:
			next = current
		case AxisChild:
			for _, el := range current {
				for _, child := range el.Children {
					if step.Test.Matches(child.Name) {
						next = append(next, child)
					}
				}
			}
		case AxisDescendantOrSelf:
			for _, el := range current {
				collectDescendantsOrSelf(el, &next)
			}
		}
		current = next
	}
	return current
}

func collectDescendantsOrSelf(el *xmltree.Element, out *[]*xmltree.Element) {
	*out = append(*out, el)
	for _, child := range el.Children {
		collectDescendantsOrSelf(child, out)
	}
}
