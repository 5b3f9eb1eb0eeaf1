package components

import (
	"errors"
	"fmt"

	"github.com/xmlschema-go/xmlschema/internal/facets"
	"github.com/xmlschema-go/xmlschema/internal/value"
)

// ErrNoUnionMember marks a value rejected by every member type of a
// union; wrapped in the returned error.
var ErrNoUnionMember = errors.New("no union member matched")

// Type is a simple or complex type definition. The variant set is
// closed: *SimpleType and *ComplexType are the only implementations.
type Type interface {
	TypeName() QName
	BaseType() Type
	isType()
}

// Variety classifies a simple type's value space structure.
type Variety uint8

const (
	VarietyAtomic Variety = iota
	VarietyList
	VarietyUnion
)

// DerivationMethod is how a type relates to its base.
type DerivationMethod uint8

const (
	DerivationNone DerivationMethod = iota
	DerivationRestriction
	DerivationExtension
)

// NamespaceResolver resolves a namespace prefix in some document scope.
// Needed when parsing QName-valued content.
type NamespaceResolver interface {
	LookupPrefix(prefix string) (string, bool)
}

// SimpleType is an atomic, list, or union simple type definition.
type SimpleType struct {
	Name    QName
	Base    Type
	Variety Variety

	// Primitive identifies the primitive value space for atomic types.
	Primitive value.Kind
	// White is the effective whiteSpace facet, inherited at build time.
	White facets.WhiteSpace
	// Facets are this type's own constraining facets. AllFacets holds
	// the full derivation chain's facets, most derived first, computed
	// once at build time.
	Facets    []facets.Facet
	AllFacets []facets.Facet

	ItemType *SimpleType   // list variety
	Members  []*SimpleType // union variety

	Builtin bool
}

// TypeName implements Type.
func (t *SimpleType) TypeName() QName { return t.Name }

// BaseType implements Type.
func (t *SimpleType) BaseType() Type { return t.Base }

func (*SimpleType) isType() {}

// ParseValue validates a lexical form against the type and maps it into
// the value space. Facets apply in the fixed order after whitespace
// normalization; with collectAll set every facet failure is returned,
// otherwise checking stops at the first.
func (t *SimpleType) ParseValue(lexical string, ns NamespaceResolver, collectAll bool) (value.Value, []error) {
	normalized := t.White.Normalize(lexical)

	switch t.Variety {
	case VarietyList:
		return t.parseList(normalized, ns, collectAll)
	case VarietyUnion:
		return t.parseUnion(normalized, ns, collectAll)
	}

	v, err := value.ParseKind(t.Primitive, normalized)
	if err != nil {
		return v, []error{err}
	}
	if t.Primitive == value.KindQName {
		if err := resolveQNameValue(&v, ns); err != nil {
			return v, []error{err}
		}
	}
	if errs := facets.Check(t.AllFacets, v, normalized, collectAll); len(errs) > 0 {
		return v, errs
	}
	return v, nil
}

func (t *SimpleType) parseList(normalized string, ns NamespaceResolver, collectAll bool) (value.Value, []error) {
	tokens := splitList(normalized)
	list := value.Value{Kind: t.ItemType.Primitive, Lexical: normalized, Items: []value.Value{}}
	var errs []error
	for _, token := range tokens {
		item, itemErrs := t.ItemType.ParseValue(token, ns, collectAll)
		if len(itemErrs) > 0 {
			for _, err := range itemErrs {
				errs = append(errs, fmt.Errorf("list item %q: %w", token, err))
				if !collectAll {
					return list, errs
				}
			}
			continue
		}
		list.Items = append(list.Items, item)
	}
	if len(errs) > 0 {
		return list, errs
	}
	// Length facets count items; the remaining facets see the list value.
	if lenErrs := facets.CheckCounts(t.AllFacets, len(list.Items), normalized, collectAll); len(lenErrs) > 0 {
		errs = append(errs, lenErrs...)
		if !collectAll {
			return list, errs
		}
	}
	for _, f := range t.AllFacets {
		switch f.(type) {
		case *facets.Length:
			continue
		case *facets.Pattern, *facets.Enumeration:
			if err := f.Validate(list, normalized); err != nil {
				errs = append(errs, err)
				if !collectAll {
					return list, errs
				}
			}
		}
	}
	return list, errs
}

func (t *SimpleType) parseUnion(normalized string, ns NamespaceResolver, collectAll bool) (value.Value, []error) {
	var memberErrs []error
	for _, member := range t.Members {
		v, errs := member.ParseValue(normalized, ns, false)
		if len(errs) == 0 {
			if unionErrs := facets.Check(t.AllFacets, v, normalized, collectAll); len(unionErrs) > 0 {
				return v, unionErrs
			}
			return v, nil
		}
		memberErrs = append(memberErrs, fmt.Errorf("member %s: %w", member.Name.Local, errs[0]))
	}
	err := fmt.Errorf("%w: value %q matches no member type of union %s", ErrNoUnionMember, normalized, t.Name.Local)
	if collectAll {
		return value.Value{Lexical: normalized}, append([]error{err}, memberErrs...)
	}
	return value.Value{Lexical: normalized}, []error{err}
}

func resolveQNameValue(v *value.Value, ns NamespaceResolver) error {
	prefix := v.Space
	if ns == nil {
		if prefix != "" {
			return fmt.Errorf("cannot resolve prefix %q without namespace context", prefix)
		}
		v.Space = ""
		return nil
	}
	uri, ok := ns.LookupPrefix(prefix)
	if !ok {
		return fmt.Errorf("undeclared namespace prefix %q in QName %q", prefix, v.Lexical)
	}
	v.Space = uri
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// ContentKind classifies a complex type's content.
type ContentKind uint8

const (
	ContentEmpty ContentKind = iota
	ContentSimple
	ContentElementOnly
	ContentMixed
)

// ComplexType is a complex type definition.
type ComplexType struct {
	Name       QName
	Base       Type
	Derivation DerivationMethod
	Kind       ContentKind

	// Content is the content-model particle for element-only and mixed
	// content; nil otherwise.
	Content *Particle
	// SimpleContent is the effective simple type of the text content
	// for simple-content complex types.
	SimpleContent *SimpleType

	Attributes        []*AttributeUse
	AttributeWildcard *Wildcard

	Abstract bool
	Builtin  bool
}

// TypeName implements Type.
func (t *ComplexType) TypeName() QName { return t.Name }

// BaseType implements Type.
func (t *ComplexType) BaseType() Type { return t.Base }

func (*ComplexType) isType() {}

// AttributeUseFor returns the attribute use matching the given name.
func (t *ComplexType) AttributeUseFor(name QName) (*AttributeUse, bool) {
	for _, use := range t.Attributes {
		if use.Decl.Name == name {
			return use, true
		}
	}
	return nil, false
}

// DerivesFrom reports whether t is base, or derives from base through
// any chain of restriction or extension steps.
func DerivesFrom(t Type, base QName) bool {
	seen := 0
	for cur := t; cur != nil; cur = cur.BaseType() {
		if cur.TypeName() == base {
			return true
		}
		if seen++; seen > 256 {
			return false
		}
	}
	return false
}
