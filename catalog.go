package xmlschema

import (
	"fmt"
	"io"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// Catalog maps target namespaces to schema locations, so imports can be
// satisfied without schemaLocation hints in the importing schema.
type Catalog struct {
	// Schemas maps a namespace URI to the location of its schema
	// document.
	Schemas map[string]string `yaml:"schemas"`
}

// LoadCatalog reads a YAML catalog:
//
//	schemas:
//	  "http://example.com/ns": schemas/example.xsd
func LoadCatalog(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// LoadCatalogFile reads a YAML catalog from a filesystem.
func LoadCatalogFile(fsys fs.FS, location string) (*Catalog, error) {
	f, err := fsys.Open(location)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Location returns the schema location registered for a namespace.
func (c *Catalog) Location(namespace string) (string, bool) {
	if c == nil {
		return "", false
	}
	loc, ok := c.Schemas[namespace]
	return loc, ok
}
