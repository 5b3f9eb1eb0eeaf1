package builder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/facets"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// stubResolver serves schema documents from an in-memory location map.
type stubResolver map[string]string

func (r stubResolver) Resolve(_ ResolveKind, _, location, _ string) (*xmltree.Document, string, error) {
	src, ok := r[location]
	if !ok {
		return nil, "", fmt.Errorf("no schema at %q", location)
	}
	doc, err := xmltree.Parse(strings.NewReader(src))
	if err != nil {
		return nil, "", err
	}
	return doc, location, nil
}

func build(t *testing.T, entry string, extra stubResolver) (*components.SchemaSet, error) {
	t.Helper()
	doc, err := xmltree.Parse(strings.NewReader(entry))
	require.NoError(t, err)
	return Build(doc, "entry.xsd", extra, Config{})
}

func requireBuildCode(t *testing.T, err error, code errors.BuildCode) {
	t.Helper()
	require.Error(t, err)
	builds, ok := errors.AsBuildErrors(err)
	require.True(t, ok, "expected build errors, got %v", err)
	for _, b := range builds {
		if b.Code == string(code) {
			return
		}
	}
	t.Fatalf("no %s error in %v", code, err)
}

func TestBuildGlobalComponents(t *testing.T) {
	set, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:shop" xmlns:tns="urn:shop">
			<xs:simpleType name="sku">
				<xs:restriction base="xs:string">
					<xs:pattern value="[A-Z]\d{3}"/>
				</xs:restriction>
			</xs:simpleType>
			<xs:complexType name="itemType">
				<xs:sequence>
					<xs:element name="qty" type="xs:positiveInteger"/>
				</xs:sequence>
				<xs:attribute name="sku" type="tns:sku" use="required"/>
			</xs:complexType>
			<xs:element name="item" type="tns:itemType"/>
		</xs:schema>`, nil)
	require.NoError(t, err)

	sku := components.QName{Space: "urn:shop", Local: "sku"}
	st, ok := set.Types[sku].(*components.SimpleType)
	require.True(t, ok)
	assert.Equal(t, components.VarietyAtomic, st.Variety)
	assert.NotEmpty(t, st.AllFacets)

	item, ok := set.ElementByName(components.QName{Space: "urn:shop", Local: "item"})
	require.True(t, ok)
	ct, ok := item.Type.(*components.ComplexType)
	require.True(t, ok)
	assert.Equal(t, components.ContentElementOnly, ct.Kind)
	require.Len(t, ct.Attributes, 1)
	assert.Equal(t, components.UseRequired, ct.Attributes[0].Use)
}

func TestBuildForwardReference(t *testing.T) {
	set, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x">
			<xs:element name="a" type="tns:later"/>
			<xs:simpleType name="later">
				<xs:restriction base="xs:int"/>
			</xs:simpleType>
		</xs:schema>`, nil)
	require.NoError(t, err)

	a, ok := set.ElementByName(components.QName{Space: "urn:x", Local: "a"})
	require.True(t, ok)
	assert.Equal(t, "later", a.Type.TypeName().Local)
}

func TestBuildDuplicateGlobal(t *testing.T) {
	_, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:x">
			<xs:simpleType name="t"><xs:restriction base="xs:string"/></xs:simpleType>
			<xs:simpleType name="t"><xs:restriction base="xs:int"/></xs:simpleType>
		</xs:schema>`, nil)
	requireBuildCode(t, err, errors.BuildDuplicateComponent)
}

func TestBuildDerivationCycle(t *testing.T) {
	_, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x">
			<xs:simpleType name="a"><xs:restriction base="tns:b"/></xs:simpleType>
			<xs:simpleType name="b"><xs:restriction base="tns:a"/></xs:simpleType>
		</xs:schema>`, nil)
	requireBuildCode(t, err, errors.BuildDerivationCycle)
}

func TestBuildRestrictionLooseness(t *testing.T) {
	_, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x">
			<xs:simpleType name="small">
				<xs:restriction base="xs:integer">
					<xs:maxInclusive value="100"/>
				</xs:restriction>
			</xs:simpleType>
			<xs:simpleType name="wider">
				<xs:restriction base="tns:small">
					<xs:maxInclusive value="200"/>
				</xs:restriction>
			</xs:simpleType>
		</xs:schema>`, nil)
	requireBuildCode(t, err, errors.BuildIllegalRestriction)
}

func TestBuildUnresolvedTypeReference(t *testing.T) {
	_, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x">
			<xs:element name="a" type="tns:missing"/>
		</xs:schema>`, nil)
	requireBuildCode(t, err, errors.BuildUnresolvedReference)
}

func TestBuildImportCycle(t *testing.T) {
	entry := `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:a" xmlns:b="urn:b">
			<xs:import namespace="urn:b" schemaLocation="b.xsd"/>
			<xs:element name="rootA" type="b:tb"/>
			<xs:simpleType name="ta"><xs:restriction base="xs:string"/></xs:simpleType>
		</xs:schema>`
	resolver := stubResolver{
		"entry.xsd": entry,
		"b.xsd": `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:b" xmlns:a="urn:a">
			<xs:import namespace="urn:a" schemaLocation="entry.xsd"/>
			<xs:simpleType name="tb"><xs:restriction base="a:ta"/></xs:simpleType>
		</xs:schema>`,
	}

	set, err := build(t, entry, resolver)
	require.NoError(t, err, "mutually importing namespaces must build")
	assert.True(t, set.Namespaces["urn:a"])
	assert.True(t, set.Namespaces["urn:b"])

	rootA, ok := set.ElementByName(components.QName{Space: "urn:a", Local: "rootA"})
	require.True(t, ok)
	assert.Equal(t, components.QName{Space: "urn:b", Local: "tb"}, rootA.Type.TypeName())
}

func TestBuildChameleonInclude(t *testing.T) {
	resolver := stubResolver{
		"parts.xsd": `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:simpleType name="part"><xs:restriction base="xs:string"/></xs:simpleType>
		</xs:schema>`,
	}
	set, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x">
			<xs:include schemaLocation="parts.xsd"/>
			<xs:element name="p" type="tns:part"/>
		</xs:schema>`, resolver)
	require.NoError(t, err)

	_, ok := set.TypeByName(components.QName{Space: "urn:x", Local: "part"})
	assert.True(t, ok, "included types adopt the including target namespace")
}

func TestBuildMissingImport(t *testing.T) {
	entry := `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:x">
			<xs:import namespace="urn:gone" schemaLocation="gone.xsd"/>
			<xs:element name="a" type="xs:string"/>
		</xs:schema>`

	doc, err := xmltree.Parse(strings.NewReader(entry))
	require.NoError(t, err)
	_, err = Build(doc, "entry.xsd", stubResolver{}, Config{})
	requireBuildCode(t, err, errors.BuildUnresolvedImport)

	doc, err = xmltree.Parse(strings.NewReader(entry))
	require.NoError(t, err)
	set, err := Build(doc, "entry.xsd", stubResolver{}, Config{AllowMissingImports: true})
	require.NoError(t, err)
	_, ok := set.ElementByName(components.QName{Space: "urn:x", Local: "a"})
	assert.True(t, ok)
}

func TestBuildRecursiveComplexType(t *testing.T) {
	set, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x"
		           elementFormDefault="qualified">
			<xs:complexType name="node">
				<xs:sequence>
					<xs:element name="child" type="tns:node" minOccurs="0" maxOccurs="unbounded"/>
				</xs:sequence>
			</xs:complexType>
			<xs:element name="tree" type="tns:node"/>
		</xs:schema>`, nil)
	require.NoError(t, err, "a type may reference itself through its content model")

	ct, ok := set.Types[components.QName{Space: "urn:x", Local: "node"}].(*components.ComplexType)
	require.True(t, ok)
	g := ct.Content.Term.(*components.Group)
	child := g.Particles[0].Term.(*components.ElementDecl)
	assert.Same(t, ct, child.Type, "the child element's type is the enclosing type itself")
	assert.Equal(t, components.Unbounded, g.Particles[0].Max)
	assert.Equal(t, "urn:x", child.Name.Space, "elementFormDefault=qualified qualifies local elements")
}

func TestBuildIdentityConstraints(t *testing.T) {
	set, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x">
			<xs:element name="order">
				<xs:complexType>
					<xs:sequence>
						<xs:element name="item" minOccurs="0" maxOccurs="unbounded"/>
					</xs:sequence>
				</xs:complexType>
				<xs:key name="skuKey">
					<xs:selector xpath="item"/>
					<xs:field xpath="@sku"/>
				</xs:key>
				<xs:keyref name="lineRef" refer="tns:skuKey">
					<xs:selector xpath="line"/>
					<xs:field xpath="@ref"/>
				</xs:keyref>
			</xs:element>
		</xs:schema>`, nil)
	require.NoError(t, err)

	order, ok := set.ElementByName(components.QName{Space: "urn:x", Local: "order"})
	require.True(t, ok)
	require.Len(t, order.Constraints, 2)

	ref := set.Constraints[components.QName{Space: "urn:x", Local: "lineRef"}]
	require.NotNil(t, ref)
	require.NotNil(t, ref.Referenced)
	assert.Equal(t, "skuKey", ref.Referenced.Name.Local)
}

func TestBuildKeyrefFieldCountMismatch(t *testing.T) {
	_, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x">
			<xs:element name="order">
				<xs:key name="skuKey">
					<xs:selector xpath="item"/>
					<xs:field xpath="@sku"/>
					<xs:field xpath="@rev"/>
				</xs:key>
				<xs:keyref name="lineRef" refer="tns:skuKey">
					<xs:selector xpath="line"/>
					<xs:field xpath="@ref"/>
				</xs:keyref>
			</xs:element>
		</xs:schema>`, nil)
	requireBuildCode(t, err, errors.BuildUnresolvedReference)
}

func TestBuildSubstitutionIndex(t *testing.T) {
	set, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x">
			<xs:element name="shape" type="xs:string" abstract="true"/>
			<xs:element name="circle" type="xs:string" substitutionGroup="tns:shape"/>
			<xs:element name="oval" type="xs:string" substitutionGroup="tns:circle"/>
		</xs:schema>`, nil)
	require.NoError(t, err)

	head := components.QName{Space: "urn:x", Local: "shape"}
	members := set.SubstitutionsFor(head)
	locals := make([]string, 0, len(members))
	for _, m := range members {
		locals = append(locals, m.Name.Local)
	}
	assert.ElementsMatch(t, []string{"circle", "oval"}, locals, "membership is transitive")
}

func TestBuildListAndUnion(t *testing.T) {
	set, err := build(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
		           targetNamespace="urn:x" xmlns:tns="urn:x">
			<xs:simpleType name="sizes">
				<xs:list itemType="xs:int"/>
			</xs:simpleType>
			<xs:simpleType name="intOrName">
				<xs:union memberTypes="xs:int xs:NCName"/>
			</xs:simpleType>
		</xs:schema>`, nil)
	require.NoError(t, err)

	sizes := set.Types[components.QName{Space: "urn:x", Local: "sizes"}].(*components.SimpleType)
	assert.Equal(t, components.VarietyList, sizes.Variety)
	require.NotNil(t, sizes.ItemType)
	assert.Equal(t, facets.Collapse, sizes.White)

	union := set.Types[components.QName{Space: "urn:x", Local: "intOrName"}].(*components.SimpleType)
	assert.Equal(t, components.VarietyUnion, union.Variety)
	assert.Len(t, union.Members, 2)
}
