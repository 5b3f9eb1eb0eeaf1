package xmlschema

import (
	"github.com/rs/zerolog"

	"github.com/xmlschema-go/xmlschema/internal/validator"
	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// Limits bounds XML document parsing. Zero values select the defaults.
type Limits = xmltree.Limits

// LoadOptions configures schema loading and compilation.
type LoadOptions struct {
	// AllowMissingImports skips imports whose schemaLocation cannot be
	// resolved instead of failing the build.
	AllowMissingImports bool
	// Catalog maps namespaces to schema locations, consulted before the
	// import's own schemaLocation.
	Catalog *Catalog
	// Limits bounds parsing of schema documents and instances.
	Limits Limits
	// Logger receives debug output during build and validation. The
	// zero value discards everything.
	Logger zerolog.Logger
}

// Option configures a single validation or decode call.
type Option func(*validator.Options)

// FailFast stops validation at the first error instead of collecting
// every error with its path.
func FailFast() Option {
	return func(o *validator.Options) { o.FailFast = true }
}
