// Package identity checks unique, key, and keyref constraints. All
// state is scoped to a single validation call: tables are built while
// the validator walks the document and discarded afterwards, never
// stored on the component graph.
package identity

import (
	"strings"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// Checker accumulates identity-constraint tables for one validation call.
type Checker struct {
	// tables maps a key or unique constraint to the union of tuples
	// collected across every scope instance; keyrefs resolve against it.
	tables map[*components.IdentityConstraint]map[string]bool
	// pending keyref tuples, resolved in Finish once every key table is
	// complete (a keyref may appear before its key in document order).
	pending []pendingRef
}

type pendingRef struct {
	constraint *components.IdentityConstraint
	key        string
	lexicals   []string
	node       *xmltree.Element
}

// NewChecker returns an empty checker for one validation call.
func NewChecker() *Checker {
	return &Checker{tables: make(map[*components.IdentityConstraint]map[string]bool)}
}

// Check evaluates one constraint at one instance of its declaring
// element, reporting duplicate tuples and absent key fields
// immediately. Keyref tuples are recorded for Finish.
func (c *Checker) Check(ic *components.IdentityConstraint, scope *xmltree.Element) []errors.Validation {
	var errs []errors.Validation

	// Duplicate detection is per declaring-element instance; the union
	// table feeding keyrefs spans the whole call.
	local := make(map[string]*xmltree.Element)

	for _, selected := range ic.Selector.SelectElements(scope) {
		key, lexicals, ok, fieldErrs := c.evalFields(ic, selected)
		errs = append(errs, fieldErrs...)
		if !ok {
			continue
		}

		switch ic.Category {
		case components.ICKeyRef:
			c.pending = append(c.pending, pendingRef{
				constraint: ic, key: key, lexicals: lexicals, node: selected,
			})
		default:
			if prev, dup := local[key]; dup {
				errs = append(errs, errors.NewValidationf(
					errors.ErrIdentityDuplicate, selected.Path(),
					"duplicate %s value (%s) for constraint %s, first seen at %s",
					ic.Category, strings.Join(lexicals, ", "), ic.Name.Local, prev.Path()))
				continue
			}
			local[key] = selected
			table := c.tables[ic]
			if table == nil {
				table = make(map[string]bool)
				c.tables[ic] = table
			}
			table[key] = true
		}
	}
	return errs
}

// evalFields builds the field-value tuple for one selected node. The
// boolean result is false when the tuple does not participate: a unique
// constraint simply excludes tuples with absent fields, while a key
// reports them.
func (c *Checker) evalFields(ic *components.IdentityConstraint, selected *xmltree.Element) (string, []string, bool, []errors.Validation) {
	var (
		errs     []errors.Validation
		lexicals = make([]string, 0, len(ic.Fields))
	)
	for _, field := range ic.Fields {
		f, err := field.SelectField(selected)
		if err != nil {
			errs = append(errs, errors.NewValidationf(
				errors.ErrIdentityFieldCardinality, selected.Path(), "%s", err.Error()))
			return "", nil, false, errs
		}
		if f.Absent {
			if ic.Category == components.ICKey {
				errs = append(errs, errors.NewValidationf(
					errors.ErrIdentityKeyAbsent, selected.Path(),
					"key %s requires every field; field %q is absent",
					ic.Name.Local, field.Source))
			}
			return "", nil, false, errs
		}
		lexicals = append(lexicals, collapse(f.Lexical))
	}
	return strings.Join(lexicals, "\x00"), lexicals, true, errs
}

// Finish resolves every recorded keyref tuple against the referenced
// key or unique tables, reporting one error per unmatched tuple.
func (c *Checker) Finish() []errors.Validation {
	var errs []errors.Validation
	for _, ref := range c.pending {
		referenced := ref.constraint.Referenced
		if referenced == nil {
			errs = append(errs, errors.NewValidationf(
				errors.ErrIdentityKeyRefFailed, ref.node.Path(),
				"keyref %s refers to unknown constraint %s",
				ref.constraint.Name.Local, ref.constraint.Refer.Local))
			continue
		}
		if !c.tables[referenced][ref.key] {
			errs = append(errs, errors.NewValidationf(
				errors.ErrIdentityKeyRefFailed, ref.node.Path(),
				"keyref %s value (%s) matches no %s tuple of %s",
				ref.constraint.Name.Local, strings.Join(ref.lexicals, ", "),
				referenced.Category, referenced.Name.Local))
		}
	}
	return errs
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
