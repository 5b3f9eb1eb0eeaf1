package errors

import (
	"errors"
	"fmt"
	"strings"
)

// BuildCode identifies a schema construction failure.
type BuildCode string

const (
	// BuildDuplicateComponent indicates two global components share a qualified name.
	BuildDuplicateComponent BuildCode = "src-redefine.1"
	// BuildUnresolvedReference indicates a reference that resolved to nothing
	// after the final pass.
	BuildUnresolvedReference BuildCode = "src-resolve"
	// BuildDerivationCycle indicates a type derives, directly or indirectly, from itself.
	BuildDerivationCycle BuildCode = "st-props-correct.2"
	// BuildIllegalRestriction indicates a restriction that is looser than its base.
	BuildIllegalRestriction BuildCode = "derivation-ok-restriction"
	// BuildIllegalExtension indicates an extension that removes or alters base content.
	BuildIllegalExtension BuildCode = "cos-ct-extends"
	// BuildIllegalFacet indicates a facet that is invalid for the type it constrains.
	BuildIllegalFacet BuildCode = "cos-applicable-facets"
	// BuildInvalidSchema indicates a malformed schema document construct.
	BuildInvalidSchema BuildCode = "src-schema"
	// BuildUnresolvedImport indicates an import or include target could not be loaded.
	BuildUnresolvedImport BuildCode = "src-import"
	// BuildGroupCycle indicates a model group that references itself.
	BuildGroupCycle BuildCode = "mg-props-correct.2"
)

// Build describes a single schema construction error. Build errors are
// always fatal: a schema set with any build error is never returned.
type Build struct {
	Code      string
	Message   string
	Component string
	Location  string
}

// Error formats the build error with its code and offending component.
func (b *Build) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", b.Code, b.Message)
	if b.Component != "" {
		fmt.Fprintf(&sb, " in %s", b.Component)
	}
	if b.Location != "" {
		fmt.Fprintf(&sb, " (%s)", b.Location)
	}
	return sb.String()
}

// BuildList is an error aggregating every problem found during a schema build.
type BuildList []Build //nolint:errname // public API name.

// Error returns a compact summary of the build errors.
func (b BuildList) Error() string {
	switch len(b) {
	case 0:
		return "no schema errors"
	case 1:
		return b[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", b[0].Error(), len(b)-1)
	}
}

// NewBuildf formats a message and builds a Build error for a component.
func NewBuildf(code BuildCode, component, format string, args ...any) Build {
	return Build{Code: string(code), Message: fmt.Sprintf(format, args...), Component: component}
}

// AsBuildErrors extracts build errors from an error returned by schema loading.
func AsBuildErrors(err error) ([]Build, bool) {
	if err == nil {
		return nil, false
	}
	var list BuildList
	if errors.As(err, &list) {
		return []Build(list), true
	}
	return nil, false
}
