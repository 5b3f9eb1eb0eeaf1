// Package xmlschema validates XML documents against XML Schema (XSD)
// definitions, decodes valid documents into typed records, and encodes
// records back into XML. A loaded Schema is immutable and safe for
// concurrent use.
package xmlschema

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xmlschema-go/xmlschema/errors"
	"github.com/xmlschema-go/xmlschema/internal/builder"
	"github.com/xmlschema-go/xmlschema/internal/components"
	"github.com/xmlschema-go/xmlschema/internal/validator"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// QName is a namespace-qualified name.
type QName = xmltree.QName

// Record is the decoded form of one element. See Decode.
type Record = validator.Record

// Child is one decoded child element of a Record.
type Child = validator.Child

// Schema is a compiled schema set ready for validation.
type Schema struct {
	set  *components.SchemaSet
	opts LoadOptions
}

// Load compiles the schema at location, resolving imports and includes
// against the filesystem.
func Load(fsys fs.FS, location string) (*Schema, error) {
	return LoadWithOptions(fsys, location, LoadOptions{})
}

// LoadFile compiles a schema from a file path; relative imports resolve
// against the file's directory.
func LoadFile(path string) (*Schema, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	return LoadWithOptions(os.DirFS(dir), base, LoadOptions{})
}

// LoadWithOptions compiles a schema with explicit configuration.
func LoadWithOptions(fsys fs.FS, location string, opts LoadOptions) (*Schema, error) {
	if fsys == nil {
		return nil, fmt.Errorf("load schema %s: nil fs", location)
	}
	res := &fsResolver{fsys: fsys, catalog: opts.Catalog, limits: opts.Limits}
	doc, systemID, err := res.open(location)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", location, err)
	}
	set, err := builder.Build(doc, systemID, res, builder.Config{
		Logger:              opts.Logger,
		AllowMissingImports: opts.AllowMissingImports,
	})
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", location, err)
	}
	return &Schema{set: set, opts: opts}, nil
}

// Validate checks the XML document against the schema. The returned
// error is an errors.ValidationList with every problem found, or nil.
func (s *Schema) Validate(r io.Reader, opts ...Option) error {
	doc, err := s.parse(r)
	if err != nil {
		return err
	}
	return validator.New(s.set, s.validatorOptions(opts)).Validate(doc)
}

// ValidateFile validates an XML file against the schema.
func (s *Schema) ValidateFile(path string, opts ...Option) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open xml file %s: %w", path, err)
	}
	defer f.Close()
	return s.Validate(f, opts...)
}

// Decode validates the XML document and converts it into a typed record
// tree. A failed decode returns the full error list and no record.
func (s *Schema) Decode(r io.Reader, opts ...Option) (*Record, error) {
	doc, err := s.parse(r)
	if err != nil {
		return nil, err
	}
	return validator.New(s.set, s.validatorOptions(opts)).Decode(doc)
}

// Encode builds an XML instance for the named global element from a
// record tree, re-validating the shape first; it never emits half-built
// output.
func (s *Schema) Encode(name QName, data any) (*Instance, error) {
	if s == nil || s.set == nil {
		return nil, errors.ValidationList{errors.NewValidation(errors.ErrSchemaNotLoaded, "schema not loaded", "")}
	}
	doc, err := validator.New(s.set, validator.Options{Logger: s.opts.Logger}).Encode(name, data)
	if err != nil {
		return nil, err
	}
	return &Instance{doc: doc}, nil
}

// Namespaces returns every target namespace the schema build covered.
func (s *Schema) Namespaces() []string {
	out := make([]string, 0, len(s.set.Namespaces))
	for ns := range s.set.Namespaces {
		out = append(out, ns)
	}
	return out
}

func (s *Schema) parse(r io.Reader) (*xmltree.Document, error) {
	if s == nil || s.set == nil {
		return nil, errors.ValidationList{errors.NewValidation(errors.ErrSchemaNotLoaded, "schema not loaded", "")}
	}
	if r == nil {
		return nil, errors.ValidationList{errors.NewValidation(errors.ErrXMLParse, "nil reader", "")}
	}
	doc, err := xmltree.ParseWithLimits(r, s.opts.Limits)
	if err != nil {
		return nil, errors.ValidationList{errors.NewValidationf(errors.ErrXMLParse, "", "%s", err.Error())}
	}
	return doc, nil
}

func (s *Schema) validatorOptions(opts []Option) validator.Options {
	vo := validator.Options{Logger: s.opts.Logger}
	for _, opt := range opts {
		opt(&vo)
	}
	return vo
}
