package xmlschema

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/xmlschema-go/xmlschema/internal/builder"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// fsResolver loads import and include targets from a filesystem,
// resolving relative locations against the referencing document and
// consulting the namespace catalog first for imports.
type fsResolver struct {
	fsys    fs.FS
	catalog *Catalog
	limits  Limits
}

// Resolve implements builder.Resolver.
func (r *fsResolver) Resolve(kind builder.ResolveKind, namespace, location, base string) (*xmltree.Document, string, error) {
	if kind == builder.ResolveImport && r.catalog != nil {
		if mapped, ok := r.catalog.Location(namespace); ok {
			location = mapped
		}
	}
	if location == "" {
		return nil, "", fmt.Errorf("no schema location for namespace %q", namespace)
	}
	return r.open(resolveLocation(base, location))
}

func (r *fsResolver) open(location string) (*xmltree.Document, string, error) {
	f, err := r.fsys.Open(location)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	doc, err := xmltree.ParseWithLimits(f, r.limits)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", location, err)
	}
	return doc, location, nil
}

// resolveLocation joins a schemaLocation against the directory of the
// referencing document, producing a canonical system ID so cyclic
// import graphs terminate.
func resolveLocation(base, location string) string {
	if path.IsAbs(location) || base == "" {
		return path.Clean(location)
	}
	return path.Clean(path.Join(path.Dir(base), location))
}
