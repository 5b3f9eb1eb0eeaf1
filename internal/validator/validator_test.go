package validator

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/builder"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

func buildSet(t *testing.T, xsd string) *components.SchemaSet {
	t.Helper()
	doc, err := xmltree.Parse(strings.NewReader(xsd))
	require.NoError(t, err)
	set, err := builder.Build(doc, "test.xsd", nil, builder.Config{})
	require.NoError(t, err)
	return set
}

func parseDoc(t *testing.T, xml string) *xmltree.Document {
	t.Helper()
	doc, err := xmltree.Parse(strings.NewReader(xml))
	require.NoError(t, err)
	return doc
}

func validations(t *testing.T, err error) []errors.Validation {
	t.Helper()
	require.Error(t, err)
	list, ok := errors.AsValidations(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	return list
}

const orderXSD = `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="order">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="sku" maxOccurs="unbounded">
					<xs:simpleType>
						<xs:restriction base="xs:string">
							<xs:pattern value="[A-Z]\d{3}"/>
						</xs:restriction>
					</xs:simpleType>
				</xs:element>
				<xs:element name="qty" type="xs:integer"/>
			</xs:sequence>
			<xs:attribute name="id" type="xs:integer" use="required"/>
			<xs:attribute name="currency" type="xs:string" default="EUR"/>
		</xs:complexType>
	</xs:element>
</xs:schema>`

func TestValidateWellFormedOrder(t *testing.T) {
	v := New(buildSet(t, orderXSD), Options{})
	doc := parseDoc(t, `<order id="7"><sku>A123</sku><sku>B456</sku><qty>2</qty></order>`)
	assert.NoError(t, v.Validate(doc))
}

func TestValidateCollectAllVersusFailFast(t *testing.T) {
	set := buildSet(t, orderXSD)
	raw := `<order id="7"><sku>bad</sku><sku>worse</sku><qty>2</qty></order>`

	errs := validations(t, New(set, Options{}).Validate(parseDoc(t, raw)))
	require.Len(t, errs, 2)
	assert.Equal(t, string(errors.ErrFacetViolation), errs[0].Code)
	assert.Equal(t, "/order/sku[1]", errs[0].Path)
	assert.Equal(t, "/order/sku[2]", errs[1].Path)

	errs = validations(t, New(set, Options{FailFast: true}).Validate(parseDoc(t, raw)))
	assert.Len(t, errs, 1)
	assert.Equal(t, "/order/sku[1]", errs[0].Path)
}

func TestValidateDatatypeVersusFacet(t *testing.T) {
	v := New(buildSet(t, orderXSD), Options{})

	errs := validations(t, v.Validate(parseDoc(t,
		`<order id="7"><sku>A123</sku><qty>two</qty></order>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrDatatypeInvalid), errs[0].Code)
	assert.Equal(t, "/order/qty", errs[0].Path)
}

func TestValidateRequiredAttributeMissing(t *testing.T) {
	v := New(buildSet(t, orderXSD), Options{})

	errs := validations(t, v.Validate(parseDoc(t, `<order><sku>A123</sku><qty>1</qty></order>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrRequiredAttributeMissing), errs[0].Code)
}

func TestValidateContentModelErrors(t *testing.T) {
	v := New(buildSet(t, orderXSD), Options{})

	errs := validations(t, v.Validate(parseDoc(t, `<order id="7"><sku>A123</sku></order>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrRequiredElementMissing), errs[0].Code)
	assert.Contains(t, errs[0].Expected, "qty")

	errs = validations(t, v.Validate(parseDoc(t,
		`<order id="7"><sku>A123</sku><qty>1</qty><extra/></order>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrUnexpectedElement), errs[0].Code)
	assert.Equal(t, "/order/extra", errs[0].Path)
}

func TestDecodeRecordShape(t *testing.T) {
	v := New(buildSet(t, orderXSD), Options{})
	rec, err := v.Decode(parseDoc(t, `<order id="7"><sku>A123</sku><qty>2</qty></order>`))
	require.NoError(t, err)

	assert.Equal(t, "order", rec.Name.Local)
	require.Len(t, rec.Children, 2)

	id, ok := rec.Attributes[components.QName{Local: "id"}].(*big.Int)
	require.True(t, ok, "integer attributes decode to big integers")
	assert.Zero(t, id.Cmp(big.NewInt(7)))

	currency := rec.Attributes[components.QName{Local: "currency"}]
	assert.Equal(t, "EUR", currency, "absent attributes with defaults are filled in on decode")

	sku := rec.First("sku")
	require.NotNil(t, sku)
	assert.Equal(t, "A123", sku.Value)

	qty := rec.First("qty")
	require.NotNil(t, qty)
	n, ok := qty.Value.(*big.Int)
	require.True(t, ok)
	assert.Zero(t, n.Cmp(big.NewInt(2)))
}

const nilXSD = `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="a" type="xs:int" nillable="true"/>
	<xs:element name="b" type="xs:int"/>
</xs:schema>`

func TestValidateXsiNil(t *testing.T) {
	v := New(buildSet(t, nilXSD), Options{})
	const xsi = `xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`

	rec, err := v.Decode(parseDoc(t, `<a `+xsi+` xsi:nil="true"/>`))
	require.NoError(t, err)
	assert.True(t, rec.Nil)

	errs := validations(t, v.Validate(parseDoc(t, `<a `+xsi+` xsi:nil="true">5</a>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrNilElementNotEmpty), errs[0].Code)

	errs = validations(t, v.Validate(parseDoc(t, `<b `+xsi+` xsi:nil="true"/>`)))
	require.NotEmpty(t, errs)
	assert.Equal(t, string(errors.ErrElementNotNillable), errs[0].Code)
}

func TestValidateXsiType(t *testing.T) {
	v := New(buildSet(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:element name="n" type="xs:integer"/>
		</xs:schema>`), Options{})
	const decls = `xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xs="http://www.w3.org/2001/XMLSchema"`

	assert.NoError(t, v.Validate(parseDoc(t, `<n `+decls+` xsi:type="xs:int">5</n>`)),
		"an xsi:type derived from the declared type is accepted")

	errs := validations(t, v.Validate(parseDoc(t, `<n `+decls+` xsi:type="xs:string">5</n>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrXsiTypeInvalid), errs[0].Code)

	errs = validations(t, v.Validate(parseDoc(t, `<n `+decls+` xsi:type="xs:int">99999999999</n>`)))
	require.Len(t, errs, 1, "the overriding type's constraints apply")
	assert.Equal(t, string(errors.ErrFacetViolation), errs[0].Code)
}

const fixedXSD = `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="cfg">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="version" type="xs:int" fixed="2"/>
			</xs:sequence>
			<xs:attribute name="mode" type="xs:string" fixed="strict"/>
		</xs:complexType>
	</xs:element>
</xs:schema>`

func TestValidateFixedValues(t *testing.T) {
	v := New(buildSet(t, fixedXSD), Options{})

	assert.NoError(t, v.Validate(parseDoc(t, `<cfg mode="strict"><version>2</version></cfg>`)))
	assert.NoError(t, v.Validate(parseDoc(t, `<cfg><version/></cfg>`)),
		"an empty element takes its fixed value")

	errs := validations(t, v.Validate(parseDoc(t, `<cfg><version>3</version></cfg>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrElementFixedValue), errs[0].Code)

	errs = validations(t, v.Validate(parseDoc(t, `<cfg mode="lax"><version>2</version></cfg>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrAttributeFixedValue), errs[0].Code)
}

const idXSD = `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="doc">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="node" minOccurs="0" maxOccurs="unbounded">
					<xs:complexType>
						<xs:attribute name="id" type="xs:ID"/>
						<xs:attribute name="ref" type="xs:IDREF"/>
					</xs:complexType>
				</xs:element>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
</xs:schema>`

func TestValidateIDAndIDREF(t *testing.T) {
	v := New(buildSet(t, idXSD), Options{})

	assert.NoError(t, v.Validate(parseDoc(t,
		`<doc><node id="n1"/><node ref="n1"/></doc>`)))

	errs := validations(t, v.Validate(parseDoc(t,
		`<doc><node id="n1"/><node id="n1"/></doc>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrDuplicateID), errs[0].Code)

	errs = validations(t, v.Validate(parseDoc(t,
		`<doc><node ref="ghost"/></doc>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrIDRefNotFound), errs[0].Code)
}

func TestValidateTextInElementOnlyContent(t *testing.T) {
	v := New(buildSet(t, orderXSD), Options{})

	errs := validations(t, v.Validate(parseDoc(t,
		`<order id="1">stray<sku>A123</sku><qty>1</qty></order>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrTextInElementOnly), errs[0].Code)
}

func TestValidateUndeclaredRoot(t *testing.T) {
	v := New(buildSet(t, orderXSD), Options{})

	errs := validations(t, v.Validate(parseDoc(t, `<invoice/>`)))
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrElementNotDeclared), errs[0].Code)
}

const wildcardXSD = `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="env">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="body" type="xs:string"/>
				<xs:any namespace="##other" processContents="skip" minOccurs="0" maxOccurs="unbounded"/>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
</xs:schema>`

func TestValidateWildcardSkip(t *testing.T) {
	v := New(buildSet(t, wildcardXSD), Options{})

	assert.NoError(t, v.Validate(parseDoc(t,
		`<env><body>hi</body><x:ext xmlns:x="urn:ext"><x:deep/></x:ext></env>`)),
		"skip wildcards accept arbitrary foreign content")

	errs := validations(t, v.Validate(parseDoc(t,
		`<env><body>hi</body><local/></env>`)))
	require.NotEmpty(t, errs, "##other excludes unqualified elements")
}

func TestValidateMixedContent(t *testing.T) {
	v := New(buildSet(t, `
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:element name="p">
				<xs:complexType mixed="true">
					<xs:sequence>
						<xs:element name="b" type="xs:string" minOccurs="0" maxOccurs="unbounded"/>
					</xs:sequence>
				</xs:complexType>
			</xs:element>
		</xs:schema>`), Options{})

	assert.NoError(t, v.Validate(parseDoc(t, `<p>some <b>bold</b> text</p>`)))
}
