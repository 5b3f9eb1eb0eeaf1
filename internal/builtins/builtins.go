// Package builtins constructs the built-in XML Schema type definitions:
// xs:anyType, xs:anySimpleType, the primitive datatypes, and the derived
// types of the datatypes specification. The registry is immutable.
package builtins

import (
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/facets"
	"github.com/xmlschema-go/xmlschema/internal/value"
)

func xsName(local string) components.QName {
	return components.QName{Space: components.XSDNamespace, Local: local}
}

// AnyTypeName is the qualified name of xs:anyType.
var AnyTypeName = xsName("anyType")

// AnySimpleTypeName is the qualified name of xs:anySimpleType.
var AnySimpleTypeName = xsName("anySimpleType")

var registry = buildRegistry()

// Lookup resolves a built-in type by qualified name.
func Lookup(name components.QName) (components.Type, bool) {
	t, ok := registry[name]
	return t, ok
}

// LookupSimple resolves a built-in simple type by qualified name.
func LookupSimple(name components.QName) (*components.SimpleType, bool) {
	t, ok := registry[name]
	if !ok {
		return nil, false
	}
	st, ok := t.(*components.SimpleType)
	return st, ok
}

// AnyType returns the xs:anyType definition.
func AnyType() *components.ComplexType {
	return registry[AnyTypeName].(*components.ComplexType)
}

// AnySimpleType returns the xs:anySimpleType definition.
func AnySimpleType() *components.SimpleType {
	return registry[AnySimpleTypeName].(*components.SimpleType)
}

// Names returns every built-in type name; used for diagnostics.
func Names() []components.QName {
	out := make([]components.QName, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

func buildRegistry() map[components.QName]components.Type {
	reg := make(map[components.QName]components.Type)

	anyType := &components.ComplexType{
		Name:    AnyTypeName,
		Kind:    components.ContentMixed,
		Builtin: true,
		Content: &components.Particle{
			Min: 0, Max: components.Unbounded,
			Term: &components.Wildcard{Mode: components.NSAny, Process: components.ProcessLax},
		},
		AttributeWildcard: &components.Wildcard{Mode: components.NSAny, Process: components.ProcessLax},
	}
	reg[AnyTypeName] = anyType

	anySimple := &components.SimpleType{
		Name:      AnySimpleTypeName,
		Base:      anyType,
		Variety:   components.VarietyAtomic,
		Primitive: value.KindString,
		White:     facets.Preserve,
		Builtin:   true,
	}
	reg[AnySimpleTypeName] = anySimple

	primitive := func(local string, kind value.Kind, white facets.WhiteSpace) *components.SimpleType {
		t := &components.SimpleType{
			Name:      xsName(local),
			Base:      anySimple,
			Variety:   components.VarietyAtomic,
			Primitive: kind,
			White:     white,
			Builtin:   true,
		}
		reg[t.Name] = t
		return t
	}

	str := primitive("string", value.KindString, facets.Preserve)
	primitive("boolean", value.KindBoolean, facets.Collapse)
	dec := primitive("decimal", value.KindDecimal, facets.Collapse)
	primitive("float", value.KindFloat, facets.Collapse)
	primitive("double", value.KindDouble, facets.Collapse)
	primitive("duration", value.KindDuration, facets.Collapse)
	primitive("dateTime", value.KindDateTime, facets.Collapse)
	primitive("time", value.KindTime, facets.Collapse)
	primitive("date", value.KindDate, facets.Collapse)
	primitive("gYearMonth", value.KindGYearMonth, facets.Collapse)
	primitive("gYear", value.KindGYear, facets.Collapse)
	primitive("gMonthDay", value.KindGMonthDay, facets.Collapse)
	primitive("gDay", value.KindGDay, facets.Collapse)
	primitive("gMonth", value.KindGMonth, facets.Collapse)
	primitive("hexBinary", value.KindHexBinary, facets.Collapse)
	primitive("base64Binary", value.KindBase64Binary, facets.Collapse)
	primitive("anyURI", value.KindAnyURI, facets.Collapse)
	primitive("QName", value.KindQName, facets.Collapse)
	primitive("NOTATION", value.KindQName, facets.Collapse)

	derive := func(local string, base *components.SimpleType, white facets.WhiteSpace, fs ...facets.Facet) *components.SimpleType {
		t := &components.SimpleType{
			Name:      xsName(local),
			Base:      base,
			Variety:   components.VarietyAtomic,
			Primitive: base.Primitive,
			White:     white,
			Facets:    fs,
			AllFacets: append(append([]facets.Facet{}, fs...), base.AllFacets...),
			Builtin:   true,
		}
		reg[t.Name] = t
		return t
	}

	normalized := derive("normalizedString", str, facets.Replace)
	token := derive("token", normalized, facets.Collapse)
	derive("language", token, facets.Collapse, mustPattern(`[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*`))
	name := derive("Name", token, facets.Collapse, mustPattern(`\i\c*`))
	// NCName is \i\c* minus colons; spelled out because the Go regexp
	// engine has no class subtraction.
	ncName := derive("NCName", name, facets.Collapse,
		mustPattern(`[A-Za-z_\x{C0}-\x{2FF}\x{370}-\x{1FFF}][-.0-9A-Za-z_\x{B7}\x{C0}-\x{2FF}\x{300}-\x{1FFF}\x{203F}-\x{2040}]*`))
	derive("ID", ncName, facets.Collapse)
	idref := derive("IDREF", ncName, facets.Collapse)
	derive("ENTITY", ncName, facets.Collapse)
	nmtoken := derive("NMTOKEN", token, facets.Collapse, mustPattern(`\c+`))

	integer := &components.SimpleType{
		Name:      xsName("integer"),
		Base:      dec,
		Variety:   components.VarietyAtomic,
		Primitive: value.KindInteger,
		White:     facets.Collapse,
		Builtin:   true,
	}
	reg[integer.Name] = integer

	bounded := func(local string, base *components.SimpleType, min, max string) *components.SimpleType {
		var fs []facets.Facet
		if min != "" {
			fs = append(fs, rangeFacet(facets.MinInclusive, min))
		}
		if max != "" {
			fs = append(fs, rangeFacet(facets.MaxInclusive, max))
		}
		return derive(local, base, facets.Collapse, fs...)
	}

	nonPositive := bounded("nonPositiveInteger", integer, "", "0")
	bounded("negativeInteger", nonPositive, "", "-1")
	long := bounded("long", integer, "-9223372036854775808", "9223372036854775807")
	intT := bounded("int", long, "-2147483648", "2147483647")
	short := bounded("short", intT, "-32768", "32767")
	bounded("byte", short, "-128", "127")
	nonNegative := bounded("nonNegativeInteger", integer, "0", "")
	bounded("positiveInteger", nonNegative, "1", "")
	uLong := bounded("unsignedLong", nonNegative, "0", "18446744073709551615")
	uInt := bounded("unsignedInt", uLong, "0", "4294967295")
	uShort := bounded("unsignedShort", uInt, "0", "65535")
	bounded("unsignedByte", uShort, "0", "255")

	list := func(local string, item *components.SimpleType) {
		t := &components.SimpleType{
			Name:      xsName(local),
			Base:      anySimple,
			Variety:   components.VarietyList,
			White:     facets.Collapse,
			ItemType:  item,
			Facets:    []facets.Facet{&facets.Length{Kind: facets.LengthMin, Value: 1}},
			Builtin:   true,
			Primitive: item.Primitive,
		}
		t.AllFacets = t.Facets
		reg[t.Name] = t
	}
	list("IDREFS", idref)
	list("NMTOKENS", nmtoken)
	list("ENTITIES", reg[xsName("ENTITY")].(*components.SimpleType))

	return reg
}

func mustPattern(pattern string) facets.Facet {
	p, err := facets.NewPattern(pattern)
	if err != nil {
		panic("builtin pattern: " + err.Error())
	}
	return p
}

func rangeFacet(bound facets.BoundKind, lexical string) facets.Facet {
	v, err := value.ParseKind(value.KindInteger, lexical)
	if err != nil {
		panic("builtin bound: " + err.Error())
	}
	return &facets.Range{Bound: bound, Limit: v}
}
