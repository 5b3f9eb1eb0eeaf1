package components

import "github.com/xmlschema-go/xmlschema/internal/xpath"

// ICCategory is the identity constraint kind.
type ICCategory uint8

const (
	ICUnique ICCategory = iota
	ICKey
	ICKeyRef
)

// String returns the schema element name for the category.
func (c ICCategory) String() string {
	switch c {
	case ICKey:
		return "key"
	case ICKeyRef:
		return "keyref"
	default:
		return "unique"
	}
}

// IdentityConstraint is a unique, key, or keyref constraint attached to
// an element declaration. Selector and field paths are compiled at
// build time with the namespace bindings in scope at the declaration.
type IdentityConstraint struct {
	Name     QName
	Category ICCategory

	Selector xpath.Expression
	Fields   []xpath.Expression

	// Refer names the key or unique constraint a keyref targets;
	// Referenced is the resolved constraint, bound in the final build
	// pass (it may live in another schema).
	Refer      QName
	Referenced *IdentityConstraint
}
