// Package builder compiles parsed schema documents into an immutable
// component graph. The build is two-pass: pass one registers every
// named global component across all documents without resolving
// references, pass two resolves references on demand with an explicit
// in-progress marker set, so forward references and mutually importing
// schemas work while genuine cycles are detected and reported. Every
// problem found is accumulated; a schema set with build errors is never
// returned.
package builder

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// ResolveKind identifies the kind of schema resolution request.
type ResolveKind int

const (
	// ResolveInclude loads a document into the including namespace.
	ResolveInclude ResolveKind = iota
	// ResolveImport loads a document for a foreign namespace.
	ResolveImport
)

// Resolver locates and parses import/include targets. The returned
// system ID canonicalizes the location so cyclic graphs terminate.
type Resolver interface {
	Resolve(kind ResolveKind, namespace, location, base string) (doc *xmltree.Document, systemID string, err error)
}

// Config configures a schema build.
type Config struct {
	Logger              zerolog.Logger
	AllowMissingImports bool
}

// Build compiles the entry document and everything it imports or
// includes into a schema set.
func Build(entry *xmltree.Document, location string, resolver Resolver, cfg Config) (*components.SchemaSet, error) {
	b := &builder{
		cfg:      cfg,
		log:      cfg.Logger,
		resolver: resolver,
		set:      components.NewSchemaSet(),

		typeDecls:      make(map[components.QName]*globalDecl),
		elementDecls:   make(map[components.QName]*globalDecl),
		attrDecls:      make(map[components.QName]*globalDecl),
		groupDecls:     make(map[components.QName]*globalDecl),
		attrGroupDecls: make(map[components.QName]*globalDecl),

		loaded:          make(map[string]bool),
		resolvingTypes:  make(map[components.QName]bool),
		resolvingGroups: make(map[components.QName]bool),
		builtGroups:     make(map[components.QName]*components.Group),
		builtAttrGroups: make(map[components.QName]*components.AttributeGroup),
		builtAttrs:      make(map[components.QName]*components.AttributeDecl),
	}

	b.load(entry, location, "")
	b.register()
	b.resolve()

	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return b.set, nil
}

// schemaDoc is one loaded schema document plus its document-level
// defaults.
type schemaDoc struct {
	root               *xmltree.Element
	targetNamespace    string
	elementQualified   bool
	attributeQualified bool
	location           string
}

// globalDecl is a registered but not yet resolved top-level component.
type globalDecl struct {
	node *xmltree.Element
	doc  *schemaDoc
}

type builder struct {
	cfg      Config
	log      zerolog.Logger
	resolver Resolver
	set      *components.SchemaSet
	errs     errors.BuildList

	docs   []*schemaDoc
	loaded map[string]bool

	typeDecls      map[components.QName]*globalDecl
	elementDecls   map[components.QName]*globalDecl
	attrDecls      map[components.QName]*globalDecl
	groupDecls     map[components.QName]*globalDecl
	attrGroupDecls map[components.QName]*globalDecl

	resolvingTypes  map[components.QName]bool
	resolvingGroups map[components.QName]bool
	builtGroups     map[components.QName]*components.Group
	builtAttrGroups map[components.QName]*components.AttributeGroup
	builtAttrs      map[components.QName]*components.AttributeDecl

	anonCounter int
}

func (b *builder) errorf(code errors.BuildCode, component, format string, args ...any) {
	b.errs = append(b.errs, errors.NewBuildf(code, component, format, args...))
}

func isXSD(el *xmltree.Element, local string) bool {
	return el.Name.Space == components.XSDNamespace && el.Name.Local == local
}

// load walks the import/include graph breadth-first from the entry
// document. Already-loaded system IDs are skipped, which is what makes
// mutually importing schema sets terminate.
func (b *builder) load(doc *xmltree.Document, systemID, inheritedNS string) {
	if doc == nil || doc.Root == nil {
		b.errorf(errors.BuildInvalidSchema, systemID, "schema document is empty")
		return
	}
	if systemID != "" {
		if b.loaded[systemID] {
			return
		}
		b.loaded[systemID] = true
	}
	root := doc.Root
	if !isXSD(root, "schema") {
		b.errorf(errors.BuildInvalidSchema, systemID, "root element is %s, want xs:schema", root.Name)
		return
	}

	tns, _ := root.AttrLocal("targetNamespace")
	if tns == "" && inheritedNS != "" {
		// Chameleon include: the document adopts the including
		// schema's target namespace.
		tns = inheritedNS
	}
	efd, _ := root.AttrLocal("elementFormDefault")
	afd, _ := root.AttrLocal("attributeFormDefault")
	sd := &schemaDoc{
		root:               root,
		targetNamespace:    tns,
		elementQualified:   efd == "qualified",
		attributeQualified: afd == "qualified",
		location:           systemID,
	}
	b.docs = append(b.docs, sd)
	b.set.Namespaces[tns] = true
	b.log.Debug().Str("location", systemID).Str("targetNamespace", tns).Msg("loaded schema document")

	for _, child := range root.Children {
		switch {
		case isXSD(child, "include"):
			location, _ := child.AttrLocal("schemaLocation")
			b.loadReference(ResolveInclude, tns, location, systemID, child)
		case isXSD(child, "import"):
			ns, _ := child.AttrLocal("namespace")
			location, _ := child.AttrLocal("schemaLocation")
			if location == "" {
				// Imports without a location are satisfiable from
				// already-loaded documents.
				continue
			}
			b.loadReference(ResolveImport, ns, location, systemID, child)
		}
	}
}

func (b *builder) loadReference(kind ResolveKind, namespace, location, base string, node *xmltree.Element) {
	if b.resolver == nil {
		b.errorf(errors.BuildUnresolvedImport, base, "no resolver for schemaLocation %q", location)
		return
	}
	doc, systemID, err := b.resolver.Resolve(kind, namespace, location, base)
	if err != nil {
		if b.cfg.AllowMissingImports && kind == ResolveImport {
			b.log.Debug().Str("location", location).Msg("skipping missing import")
			return
		}
		b.errorf(errors.BuildUnresolvedImport, base, "cannot load %q: %v", location, err)
		return
	}
	inherited := ""
	if kind == ResolveInclude {
		inherited = namespace
	}
	b.load(doc, systemID, inherited)
}

// register is pass one: every named top-level component is recorded by
// qualified name, tolerating forward and cross-document references.
func (b *builder) register() {
	for _, doc := range b.docs {
		for _, child := range doc.root.Children {
			name, _ := child.AttrLocal("name")
			q := components.QName{Space: doc.targetNamespace, Local: name}
			decl := &globalDecl{node: child, doc: doc}
			switch {
			case isXSD(child, "simpleType") || isXSD(child, "complexType"):
				b.registerInto(b.typeDecls, q, decl, "type")
			case isXSD(child, "element"):
				b.registerInto(b.elementDecls, q, decl, "element")
			case isXSD(child, "attribute"):
				b.registerInto(b.attrDecls, q, decl, "attribute")
			case isXSD(child, "group"):
				b.registerInto(b.groupDecls, q, decl, "group")
			case isXSD(child, "attributeGroup"):
				b.registerInto(b.attrGroupDecls, q, decl, "attributeGroup")
			}
		}
	}
}

func (b *builder) registerInto(m map[components.QName]*globalDecl, q components.QName, decl *globalDecl, kind string) {
	if q.Local == "" {
		b.errorf(errors.BuildInvalidSchema, decl.doc.location, "top-level %s has no name", kind)
		return
	}
	if _, dup := m[q]; dup {
		b.errorf(errors.BuildDuplicateComponent, q.String(), "duplicate top-level %s", kind)
		return
	}
	m[q] = decl
}

// resolve is pass two: every registered component is built, with
// demand-driven reference resolution underneath.
func (b *builder) resolve() {
	for q := range b.typeDecls {
		b.typeByName(q, q.String())
	}
	for q := range b.elementDecls {
		b.elementByName(q, q.String())
	}
	for q := range b.attrDecls {
		b.attrByName(q, q.String())
	}
	for q := range b.groupDecls {
		b.groupByName(q, q.String())
	}
	for q := range b.attrGroupDecls {
		b.attrGroupByName(q, q.String())
	}
	b.resolveKeyrefs()
	b.buildSubstitutionIndex()
}

func (b *builder) resolveKeyrefs() {
	for name, ic := range b.set.Constraints {
		if ic.Category != components.ICKeyRef {
			continue
		}
		target, ok := b.set.Constraints[ic.Refer]
		if !ok {
			b.errorf(errors.BuildUnresolvedReference, name.String(),
				"keyref refers to unknown key or unique constraint %s", ic.Refer)
			continue
		}
		if target.Category == components.ICKeyRef {
			b.errorf(errors.BuildUnresolvedReference, name.String(),
				"keyref must refer to a key or unique constraint, %s is a keyref", ic.Refer)
			continue
		}
		if len(target.Fields) != len(ic.Fields) {
			b.errorf(errors.BuildUnresolvedReference, name.String(),
				"keyref has %d fields, referenced constraint %s has %d",
				len(ic.Fields), ic.Refer, len(target.Fields))
			continue
		}
		ic.Referenced = target
	}
}

// buildSubstitutionIndex maps each substitution-group head to its
// transitive members.
func (b *builder) buildSubstitutionIndex() {
	for _, decl := range b.set.Elements {
		head := decl.SubstitutionGroup
		seen := 0
		for !head.IsZero() {
			headDecl, ok := b.set.Elements[head]
			if !ok {
				b.errorf(errors.BuildUnresolvedReference, decl.Name.String(),
					"substitutionGroup head %s is not a global element", head)
				break
			}
			b.set.Substitutions[head] = append(b.set.Substitutions[head], decl)
			head = headDecl.SubstitutionGroup
			if seen++; seen > 256 {
				b.errorf(errors.BuildDerivationCycle, decl.Name.String(), "substitutionGroup chain does not terminate")
				break
			}
		}
	}
}

// anonName produces a deterministic synthetic name for an anonymous
// type or group, scoped to its declaring component.
func (b *builder) anonName(doc *schemaDoc, parent string) components.QName {
	b.anonCounter++
	return components.QName{
		Space: doc.targetNamespace,
		Local: fmt.Sprintf("#anon:%s:%d", parent, b.anonCounter),
	}
}

// resolveRef resolves a prefixed reference attribute against the
// document scope of the referencing node.
func (b *builder) resolveRef(node *xmltree.Element, raw, component string) (components.QName, bool) {
	q, err := node.ResolveQName(raw)
	if err != nil {
		b.errorf(errors.BuildUnresolvedReference, component, "%v", err)
		return components.QName{}, false
	}
	return q, true
}
