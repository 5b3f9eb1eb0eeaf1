package xmlschema

import (
	"math/big"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmlschema-go/xmlschema/errors"
)

const shopXSD = `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="urn:shop" xmlns:tns="urn:shop"
           xmlns:m="urn:money" elementFormDefault="qualified">
	<xs:import namespace="urn:money" schemaLocation="money.xsd"/>
	<xs:element name="order">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="item" maxOccurs="unbounded">
					<xs:complexType>
						<xs:sequence>
							<xs:element name="qty" type="xs:positiveInteger"/>
						</xs:sequence>
						<xs:attribute name="sku" type="xs:string" use="required"/>
					</xs:complexType>
				</xs:element>
				<xs:element name="currency" type="m:currencyType"/>
			</xs:sequence>
			<xs:attribute name="number" type="xs:integer" use="required"/>
		</xs:complexType>
	</xs:element>
</xs:schema>`

const moneyXSD = `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:money">
	<xs:simpleType name="currencyType">
		<xs:restriction base="xs:string">
			<xs:enumeration value="EUR"/>
			<xs:enumeration value="USD"/>
		</xs:restriction>
	</xs:simpleType>
</xs:schema>`

const orderXML = `<order xmlns="urn:shop" number="7">
	<item sku="A1"><qty>2</qty></item>
	<item sku="B2"><qty>5</qty></item>
	<currency>EUR</currency>
</order>`

func shopFS() fstest.MapFS {
	return fstest.MapFS{
		"main.xsd":  {Data: []byte(shopXSD)},
		"money.xsd": {Data: []byte(moneyXSD)},
	}
}

func loadShop(t *testing.T) *Schema {
	t.Helper()
	schema, err := Load(shopFS(), "main.xsd")
	require.NoError(t, err)
	return schema
}

func TestLoadAndValidate(t *testing.T) {
	schema := loadShop(t)

	assert.NoError(t, schema.Validate(strings.NewReader(orderXML)))
	assert.ElementsMatch(t, []string{"urn:shop", "urn:money"}, schema.Namespaces())
}

func TestValidateCollectsErrors(t *testing.T) {
	schema := loadShop(t)
	bad := `<order xmlns="urn:shop" number="seven">
		<item sku="A1"><qty>0</qty></item>
		<currency>GBP</currency>
	</order>`

	err := schema.Validate(strings.NewReader(bad))
	list, ok := errors.AsValidations(err)
	require.True(t, ok)
	assert.Len(t, list, 3, "number, qty, and currency are each invalid")

	err = schema.Validate(strings.NewReader(bad), FailFast())
	list, ok = errors.AsValidations(err)
	require.True(t, ok)
	assert.Len(t, list, 1)
}

func TestValidateMalformedXML(t *testing.T) {
	schema := loadShop(t)

	err := schema.Validate(strings.NewReader(`<order xmlns="urn:shop">`))
	list, ok := errors.AsValidations(err)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, string(errors.ErrXMLParse), list[0].Code)
}

func TestLoadReportsBuildErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.xsd": {Data: []byte(`
			<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
			           targetNamespace="urn:x" xmlns:tns="urn:x">
				<xs:element name="a" type="tns:missing"/>
			</xs:schema>`)},
	}
	_, err := Load(fsys, "bad.xsd")
	require.Error(t, err)
	builds, ok := errors.AsBuildErrors(err)
	require.True(t, ok)
	assert.NotEmpty(t, builds)
}

func TestLoadMissingImportLocation(t *testing.T) {
	fsys := fstest.MapFS{
		"main.xsd": {Data: []byte(`
			<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:x">
				<xs:import namespace="urn:gone" schemaLocation="gone.xsd"/>
				<xs:element name="a" type="xs:string"/>
			</xs:schema>`)},
	}

	_, err := Load(fsys, "main.xsd")
	require.Error(t, err)

	schema, err := LoadWithOptions(fsys, "main.xsd", LoadOptions{AllowMissingImports: true})
	require.NoError(t, err, "missing imports may be tolerated explicitly")
	assert.NoError(t, schema.Validate(strings.NewReader(`<a xmlns="urn:x">hi</a>`)))
}

func TestCatalogOverridesImportLocation(t *testing.T) {
	fsys := fstest.MapFS{
		"main.xsd":            {Data: []byte(strings.Replace(shopXSD, "money.xsd", "gone.xsd", 1))},
		"schemas/money-2.xsd": {Data: []byte(moneyXSD)},
	}
	cat, err := LoadCatalog(strings.NewReader("schemas:\n  \"urn:money\": schemas/money-2.xsd\n"))
	require.NoError(t, err)
	require.NotNil(t, cat)

	schema, err := LoadWithOptions(fsys, "main.xsd", LoadOptions{Catalog: cat})
	require.NoError(t, err, "the catalog location wins over the import's schemaLocation")
	assert.NoError(t, schema.Validate(strings.NewReader(orderXML)))
}

func TestLoadCatalogFile(t *testing.T) {
	fsys := fstest.MapFS{
		"catalog.yaml": {Data: []byte("schemas:\n  \"urn:money\": money.xsd\n")},
	}
	cat, err := LoadCatalogFile(fsys, "catalog.yaml")
	require.NoError(t, err)

	loc, ok := cat.Location("urn:money")
	require.True(t, ok)
	assert.Equal(t, "money.xsd", loc)

	_, ok = cat.Location("urn:unknown")
	assert.False(t, ok)
}

func TestDecode(t *testing.T) {
	schema := loadShop(t)

	rec, err := schema.Decode(strings.NewReader(orderXML))
	require.NoError(t, err)

	number, ok := rec.Attr("number")
	require.True(t, ok)
	assert.Zero(t, number.(*big.Int).Cmp(big.NewInt(7)))

	items := rec.All("item")
	require.Len(t, items, 2)
	sku, _ := items[0].Attr("sku")
	assert.Equal(t, "A1", sku)
	qty := items[1].First("qty")
	require.NotNil(t, qty)
	assert.Zero(t, qty.Value.(*big.Int).Cmp(big.NewInt(5)))

	currency := rec.First("currency")
	require.NotNil(t, currency)
	assert.Equal(t, "EUR", currency.Value)
}

func TestRoundTrip(t *testing.T) {
	schema := loadShop(t)

	rec, err := schema.Decode(strings.NewReader(orderXML))
	require.NoError(t, err)

	inst, err := schema.Encode(QName{Space: "urn:shop", Local: "order"}, rec)
	require.NoError(t, err)

	out := inst.String()
	require.NotEmpty(t, out)
	assert.NoError(t, schema.Validate(strings.NewReader(out)),
		"an encoded instance must validate against the schema it was encoded under")

	again, err := schema.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, len(rec.Children), len(again.Children))
	n, _ := again.Attr("number")
	assert.Zero(t, n.(*big.Int).Cmp(big.NewInt(7)))
}

func TestEncodeRejectsBadShape(t *testing.T) {
	schema := loadShop(t)

	qty := &Record{Value: 2}
	item := &Record{Children: []Child{{Name: QName{Space: "urn:shop", Local: "qty"}, Record: qty}}}
	order := &Record{
		Attributes: map[QName]any{{Local: "number"}: 1},
		Children: []Child{
			{Name: QName{Space: "urn:shop", Local: "item"}, Record: item},
		},
	}

	_, err := schema.Encode(QName{Space: "urn:shop", Local: "order"}, order)
	list, ok := errors.AsValidations(err)
	require.True(t, ok, "missing sku and currency make the shape invalid")
	assert.NotEmpty(t, list)

	_, err = schema.Encode(QName{Space: "urn:shop", Local: "nope"}, order)
	list, ok = errors.AsValidations(err)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, string(errors.ErrEncodeShape), list[0].Code)
}

func TestEncodeFromScratch(t *testing.T) {
	schema := loadShop(t)

	order := &Record{
		Attributes: map[QName]any{{Local: "number"}: 42},
		Children: []Child{
			{Name: QName{Space: "urn:shop", Local: "item"}, Record: &Record{
				Attributes: map[QName]any{{Local: "sku"}: "C9"},
				Children: []Child{
					{Name: QName{Space: "urn:shop", Local: "qty"}, Record: &Record{Value: 3}},
				},
			}},
			{Name: QName{Space: "urn:shop", Local: "currency"}, Record: &Record{Value: "USD"}},
		},
	}

	inst, err := schema.Encode(QName{Space: "urn:shop", Local: "order"}, order)
	require.NoError(t, err)
	assert.NoError(t, schema.Validate(strings.NewReader(inst.String())))
}

func TestValidateNilSchemaAndReader(t *testing.T) {
	var schema *Schema
	err := schema.Validate(strings.NewReader("<a/>"))
	list, ok := errors.AsValidations(err)
	require.True(t, ok)
	assert.Equal(t, string(errors.ErrSchemaNotLoaded), list[0].Code)

	loaded := loadShop(t)
	err = loaded.Validate(nil)
	list, ok = errors.AsValidations(err)
	require.True(t, ok)
	assert.Equal(t, string(errors.ErrXMLParse), list[0].Code)
}

func TestParseLimits(t *testing.T) {
	schema, err := LoadWithOptions(shopFS(), "main.xsd", LoadOptions{
		Limits: Limits{MaxDepth: 8},
	})
	require.NoError(t, err, "the schema documents themselves stay within the limit")

	deep := strings.Repeat("<x>", 10) + strings.Repeat("</x>", 10)
	err = schema.Validate(strings.NewReader(deep))
	list, ok := errors.AsValidations(err)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, string(errors.ErrXMLParse), list[0].Code)
}
