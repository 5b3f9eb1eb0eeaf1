// Package validator walks an XML instance tree in lock-step with a
// built schema set: it resolves each element's governing type, checks
// attributes and content models, runs identity constraints at scope
// boundaries, and optionally decodes the instance into typed records or
// encodes typed records back into an instance tree.
package validator

import (
	"github.com/rs/zerolog"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/identity"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// Options configures validation behavior.
type Options struct {
	// FailFast stops at the first validation error. The default is to
	// collect every error with its path.
	FailFast bool
	Logger   zerolog.Logger
}

// Validator validates instance documents against one schema set. It is
// immutable and safe for concurrent use; all per-call state lives in
// the run.
type Validator struct {
	set  *components.SchemaSet
	opts Options
}

// New returns a validator over a built schema set.
func New(set *components.SchemaSet, opts Options) *Validator {
	return &Validator{set: set, opts: opts}
}

// Validate checks the document and returns nil or an
// errors.ValidationList.
func (v *Validator) Validate(doc *xmltree.Document) error {
	_, err := v.walk(doc, false)
	return err
}

// Decode validates the document and converts it into a typed record
// tree. A failed decode returns the full error list and no record.
func (v *Validator) Decode(doc *xmltree.Document) (*Record, error) {
	rec, err := v.walk(doc, true)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (v *Validator) walk(doc *xmltree.Document, decode bool) (*Record, error) {
	if doc == nil || doc.Root == nil {
		return nil, errors.ValidationList{errors.NewValidation(errors.ErrNoRoot, "document has no root element", "")}
	}
	root := doc.Root

	decl, ok := v.set.ElementByName(root.Name)
	if !ok {
		return nil, errors.ValidationList{errors.NewValidationf(
			errors.ErrElementNotDeclared, root.Path(),
			"no declaration for root element %s", root.Name)}
	}

	r := &run{
		v:        v,
		decode:   decode,
		identity: identity.NewChecker(),
		ids:      make(map[string]*xmltree.Element),
	}
	rec := r.element(root, decl)
	r.finish()

	v.opts.Logger.Debug().
		Str("root", root.Name.String()).
		Int("errors", len(r.errs)).
		Msg("validation finished")

	if len(r.errs) > 0 {
		return nil, r.errs
	}
	return rec, nil
}

// run is the per-call mutable state: the error accumulator, identity
// tables, and document-wide ID tracking. Never shared across calls.
type run struct {
	v      *Validator
	decode bool

	errs errors.ValidationList
	stop bool

	identity *identity.Checker
	ids      map[string]*xmltree.Element
	idrefs   []idrefUse
}

type idrefUse struct {
	id   string
	node *xmltree.Element
}

func (r *run) add(err errors.Validation) {
	if r.stop {
		return
	}
	r.errs = append(r.errs, err)
	if r.v.opts.FailFast {
		r.stop = true
	}
}

func (r *run) addAt(err errors.Validation, el *xmltree.Element) {
	err.Line, err.Column = el.Line, el.Column
	r.add(err)
}

// finish runs the end-of-document checks: keyref resolution against the
// collected key tables, and IDREF resolution against the ID set.
func (r *run) finish() {
	if r.stop {
		return
	}
	for _, err := range r.identity.Finish() {
		r.add(err)
		if r.stop {
			return
		}
	}
	for _, use := range r.idrefs {
		if _, ok := r.ids[use.id]; !ok {
			r.add(errors.NewValidationf(errors.ErrIDRefNotFound, use.node.Path(),
				"IDREF %q matches no ID in the document", use.id))
			if r.stop {
				return
			}
		}
	}
}

// Substitute implements content.Resolver: it returns the substitution
// group member declaration usable where head is expected.
func (r *run) Substitute(head *components.ElementDecl, name components.QName) *components.ElementDecl {
	if !head.Global {
		return nil
	}
	for _, cand := range r.v.set.SubstitutionsFor(head.Name) {
		if cand.Name == name && !cand.Abstract {
			return cand
		}
	}
	return nil
}
