// Package components defines the schema component model: types,
// particles, element and attribute declarations, wildcards, and
// identity constraints, plus the namespace-scoped set that holds them.
// Components are built once and are immutable afterwards; a built
// SchemaSet is safe for concurrent read-only use.
package components

import "github.com/xmlschema-go/xmlschema/internal/xmltree"

// QName is a namespace-qualified component name.
type QName = xmltree.QName

// XSDNamespace is the XML Schema definition namespace.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// XSINamespace is the XML Schema instance namespace.
const XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

// SchemaSet is the resolved component graph for one schema build: every
// global component of every namespace that participated, addressed by
// qualified name.
type SchemaSet struct {
	Elements        map[QName]*ElementDecl
	Attributes      map[QName]*AttributeDecl
	Types           map[QName]Type
	Groups          map[QName]*Group
	AttributeGroups map[QName]*AttributeGroup
	Constraints     map[QName]*IdentityConstraint

	// Substitutions maps a head element name to the declarations that
	// may substitute for it, transitively. Resolved at build time.
	Substitutions map[QName][]*ElementDecl

	// Namespaces records every target namespace the build covered.
	Namespaces map[string]bool
}

// NewSchemaSet returns an empty schema set.
func NewSchemaSet() *SchemaSet {
	return &SchemaSet{
		Elements:        make(map[QName]*ElementDecl),
		Attributes:      make(map[QName]*AttributeDecl),
		Types:           make(map[QName]Type),
		Groups:          make(map[QName]*Group),
		AttributeGroups: make(map[QName]*AttributeGroup),
		Constraints:     make(map[QName]*IdentityConstraint),
		Substitutions:   make(map[QName][]*ElementDecl),
		Namespaces:      make(map[string]bool),
	}
}

// ElementByName resolves a global element declaration.
func (s *SchemaSet) ElementByName(name QName) (*ElementDecl, bool) {
	decl, ok := s.Elements[name]
	return decl, ok
}

// TypeByName resolves a global type definition.
func (s *SchemaSet) TypeByName(name QName) (Type, bool) {
	t, ok := s.Types[name]
	return t, ok
}

// SubstitutionsFor returns the declarations that may substitute for the
// head element, not including the head itself.
func (s *SchemaSet) SubstitutionsFor(head QName) []*ElementDecl {
	return s.Substitutions[head]
}

// AttributeGroup is a named, reusable set of attribute uses.
type AttributeGroup struct {
	Name     QName
	Uses     []*AttributeUse
	Wildcard *Wildcard
}
