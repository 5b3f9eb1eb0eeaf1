package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
	"github.com/xmlschema-go/xmlschema/internal/xpath"
)

func compile(t *testing.T, expr string, attrs bool) xpath.Expression {
	t.Helper()
	e, err := xpath.Compile(expr, nil, attrs)
	require.NoError(t, err)
	return e
}

func parse(t *testing.T, doc string) *xmltree.Element {
	t.Helper()
	d, err := xmltree.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return d.Root
}

func constraint(t *testing.T, cat components.ICCategory, name, selector string, fields ...string) *components.IdentityConstraint {
	t.Helper()
	ic := &components.IdentityConstraint{
		Name:     components.QName{Local: name},
		Category: cat,
		Selector: compile(t, selector, false),
	}
	for _, f := range fields {
		ic.Fields = append(ic.Fields, compile(t, f, true))
	}
	return ic
}

func TestUniqueReportsDuplicateWithBothPaths(t *testing.T) {
	scope := parse(t, `<order>
		<item sku="A1"/>
		<item sku="B2"/>
		<item sku="A1"/>
	</order>`)
	ic := constraint(t, components.ICUnique, "skuUnique", "item", "@sku")

	c := NewChecker()
	errs := c.Check(ic, scope)
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrIdentityDuplicate), errs[0].Code)
	assert.Equal(t, "/order/item[3]", errs[0].Path)
	assert.Contains(t, errs[0].Message, "/order/item[1]")

	assert.Empty(t, c.Finish())
}

func TestUniqueSkipsAbsentFields(t *testing.T) {
	scope := parse(t, `<order>
		<item/>
		<item/>
	</order>`)
	ic := constraint(t, components.ICUnique, "skuUnique", "item", "@sku")

	c := NewChecker()
	assert.Empty(t, c.Check(ic, scope), "tuples with absent fields do not participate in unique")
}

func TestKeyRequiresEveryField(t *testing.T) {
	scope := parse(t, `<order>
		<item sku="A1"/>
		<item/>
	</order>`)
	ic := constraint(t, components.ICKey, "skuKey", "item", "@sku")

	c := NewChecker()
	errs := c.Check(ic, scope)
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrIdentityKeyAbsent), errs[0].Code)
	assert.Equal(t, "/order/item[2]", errs[0].Path)
}

func TestKeyRefResolvesAgainstKey(t *testing.T) {
	scope := parse(t, `<order>
		<item sku="A1"/>
		<item sku="B2"/>
		<line ref="A1"/>
		<line ref="C3"/>
	</order>`)
	key := constraint(t, components.ICKey, "skuKey", "item", "@sku")
	ref := constraint(t, components.ICKeyRef, "lineRef", "line", "@ref")
	ref.Refer = key.Name
	ref.Referenced = key

	c := NewChecker()
	require.Empty(t, c.Check(key, scope))
	require.Empty(t, c.Check(ref, scope), "keyref violations surface only in Finish")

	errs := c.Finish()
	require.Len(t, errs, 1, "one error per unmatched tuple")
	assert.Equal(t, string(errors.ErrIdentityKeyRefFailed), errs[0].Code)
	assert.Equal(t, "/order/line[2]", errs[0].Path)
	assert.Contains(t, errs[0].Message, "C3")
}

func TestKeyRefMayPrecedeKeyInDocumentOrder(t *testing.T) {
	scope := parse(t, `<order>
		<line ref="A1"/>
		<item sku="A1"/>
	</order>`)
	key := constraint(t, components.ICKey, "skuKey", "item", "@sku")
	ref := constraint(t, components.ICKeyRef, "lineRef", "line", "@ref")
	ref.Referenced = key

	c := NewChecker()
	require.Empty(t, c.Check(ref, scope))
	require.Empty(t, c.Check(key, scope))
	assert.Empty(t, c.Finish())
}

func TestKeyRefToUnresolvedConstraint(t *testing.T) {
	scope := parse(t, `<order><line ref="A1"/></order>`)
	ref := constraint(t, components.ICKeyRef, "lineRef", "line", "@ref")
	ref.Refer = components.QName{Local: "missing"}

	c := NewChecker()
	require.Empty(t, c.Check(ref, scope))

	errs := c.Finish()
	require.Len(t, errs, 1)
	assert.Equal(t, string(errors.ErrIdentityKeyRefFailed), errs[0].Code)
}

func TestCompositeKeyTuples(t *testing.T) {
	scope := parse(t, `<order>
		<item sku="A1"><qty>1</qty></item>
		<item sku="A1"><qty>2</qty></item>
		<item sku="A1"><qty>1</qty></item>
	</order>`)
	ic := constraint(t, components.ICKey, "itemKey", "item", "@sku", "qty")

	c := NewChecker()
	errs := c.Check(ic, scope)
	require.Len(t, errs, 1, "only the (A1, 1) tuple repeats")
	assert.Equal(t, "/order/item[3]", errs[0].Path)
}

func TestDuplicateScopeIsPerInstance(t *testing.T) {
	root := parse(t, `<orders>
		<order><item sku="A1"/></order>
		<order><item sku="A1"/></order>
	</orders>`)
	ic := constraint(t, components.ICUnique, "skuUnique", "item", "@sku")

	c := NewChecker()
	assert.Empty(t, c.Check(ic, root.Children[0]))
	assert.Empty(t, c.Check(ic, root.Children[1]),
		"the same value in a different scope instance is not a duplicate")
}

func TestFieldValueWhitespaceCollapsed(t *testing.T) {
	scope := parse(t, `<order>
		<item><sku>  A1  </sku></item>
		<item><sku>A1</sku></item>
	</order>`)
	ic := constraint(t, components.ICUnique, "skuUnique", "item", "sku")

	c := NewChecker()
	errs := c.Check(ic, scope)
	require.Len(t, errs, 1, "field values compare after whitespace collapse")
}
