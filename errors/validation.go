package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a validation outcome, using W3C XSD clause names
// where one exists.
// See: https://www.w3.org/TR/xmlschema-1/#cvc-elt
type ErrorCode string

const (
	// ErrNoRoot indicates the XML document has no root element.
	ErrNoRoot ErrorCode = "xsd-no-root"
	// ErrSchemaNotLoaded indicates validation was attempted without a loaded schema.
	ErrSchemaNotLoaded ErrorCode = "xsd-schema-not-loaded"
	// ErrXMLParse indicates the XML document could not be parsed.
	ErrXMLParse ErrorCode = "xml-parse-error"

	// ErrElementNotDeclared indicates an element has no declaration.
	ErrElementNotDeclared ErrorCode = "cvc-elt.1"
	// ErrElementAbstract indicates an abstract element was used.
	ErrElementAbstract ErrorCode = "cvc-elt.2"
	// ErrElementNotNillable indicates xsi:nil was used on a non-nillable element.
	ErrElementNotNillable ErrorCode = "cvc-elt.3.1"
	// ErrNilElementNotEmpty indicates a nilled element had content.
	ErrNilElementNotEmpty ErrorCode = "cvc-elt.3.2.2"
	// ErrElementTypeAbstract indicates an abstract type was used for an element.
	ErrElementTypeAbstract ErrorCode = "cvc-elt.4.2"
	// ErrXsiTypeInvalid indicates an xsi:type could not be resolved or is not
	// validly derived from the declared type.
	ErrXsiTypeInvalid ErrorCode = "cvc-elt.4.3"
	// ErrElementFixedValue indicates a fixed element value was violated.
	ErrElementFixedValue ErrorCode = "cvc-elt.5.2.2.2"

	// ErrTextInElementOnly indicates text appeared in element-only content.
	ErrTextInElementOnly ErrorCode = "cvc-complex-type.2.3"
	// ErrContentModelInvalid indicates children violate the content model.
	ErrContentModelInvalid ErrorCode = "cvc-complex-type.2.4"
	// ErrRequiredElementMissing indicates a required child element is missing.
	ErrRequiredElementMissing ErrorCode = "cvc-complex-type.2.4.b"
	// ErrUnexpectedElement indicates an unexpected child element.
	ErrUnexpectedElement ErrorCode = "cvc-complex-type.2.4.d"
	// ErrElementInEmptyContent indicates child elements under an empty content type.
	ErrElementInEmptyContent ErrorCode = "cvc-complex-type.2.1"
	// ErrAttributeNotDeclared indicates an attribute is not declared.
	ErrAttributeNotDeclared ErrorCode = "cvc-complex-type.3.2.1"
	// ErrAttributeProhibited indicates a prohibited attribute is present.
	ErrAttributeProhibited ErrorCode = "cvc-complex-type.3.2.2"
	// ErrRequiredAttributeMissing indicates a required attribute is missing.
	ErrRequiredAttributeMissing ErrorCode = "cvc-complex-type.4"

	// ErrAttributeFixedValue indicates a fixed attribute value was violated.
	ErrAttributeFixedValue ErrorCode = "cvc-attribute.1"

	// ErrWildcardStrictUnresolved indicates a strict wildcard match without a declaration.
	ErrWildcardStrictUnresolved ErrorCode = "cvc-wildcard.1.2"

	// ErrDatatypeInvalid indicates a lexical value is invalid for its datatype.
	ErrDatatypeInvalid ErrorCode = "cvc-datatype-valid"
	// ErrFacetViolation indicates a value violates a facet constraint.
	ErrFacetViolation ErrorCode = "cvc-facet-valid"
	// ErrUnionNoMatch indicates no member type of a union accepted the value.
	ErrUnionNoMatch ErrorCode = "cvc-datatype-valid.1.2.3"

	// ErrDuplicateID indicates a duplicate ID value.
	ErrDuplicateID ErrorCode = "cvc-id.2"
	// ErrIDRefNotFound indicates an IDREF was not found.
	ErrIDRefNotFound ErrorCode = "cvc-id.1"

	// ErrIdentityDuplicate indicates a duplicate key or unique tuple.
	ErrIdentityDuplicate ErrorCode = "cvc-identity-constraint.4.1"
	// ErrIdentityKeyAbsent indicates a key field was absent or nilled.
	ErrIdentityKeyAbsent ErrorCode = "cvc-identity-constraint.4.2.1"
	// ErrIdentityKeyRefFailed indicates a keyref tuple matched no key tuple.
	ErrIdentityKeyRefFailed ErrorCode = "cvc-identity-constraint.4.3"
	// ErrIdentityFieldCardinality indicates a field path selected more than one node.
	ErrIdentityFieldCardinality ErrorCode = "cvc-identity-constraint.3"

	// ErrEncodeShape indicates a data value does not have the shape the target type requires.
	ErrEncodeShape ErrorCode = "encode-shape"
	// ErrEncodeValue indicates a data value cannot be represented under the target type.
	ErrEncodeValue ErrorCode = "encode-value"
)

// Severity distinguishes schema-structure problems surfaced during
// validation from instance-validation problems.
type Severity uint8

const (
	// SeverityInstance marks an error caused by the instance document.
	SeverityInstance Severity = iota
	// SeveritySchema marks an error caused by the schema itself.
	SeveritySchema
)

// String returns the severity label used in formatted errors.
func (s Severity) String() string {
	if s == SeveritySchema {
		return "schema"
	}
	return "instance"
}

// Validation describes a single validation error with an error code and
// the instance path locating the offending node.
//
//nolint:errname // public API name uses XSD domain term.
type Validation struct {
	Code     string
	Message  string
	Path     string
	Actual   string
	Expected []string
	Severity Severity
	Line     int
	Column   int
}

// ValidationList is an error that wraps one or more validation errors,
// in document order.
type ValidationList []Validation //nolint:errname // public API name.

// Error returns a compact summary of the validation errors.
func (v ValidationList) Error() string {
	switch len(v) {
	case 0:
		return "no validation errors"
	case 1:
		return v[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", v[0].Error(), len(v)-1)
	}
}

// Error formats the validation for display, including code, message, and context.
func (v *Validation) Error() string {
	if v == nil {
		return "validation <nil>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", v.Code, v.Message)
	if v.Path != "" {
		fmt.Fprintf(&b, " at %s", v.Path)
	}
	if v.Line > 0 && v.Column > 0 {
		if v.Path == "" {
			fmt.Fprintf(&b, " at line %d, column %d", v.Line, v.Column)
		} else {
			fmt.Fprintf(&b, " (line %d, column %d)", v.Line, v.Column)
		}
	}
	if len(v.Expected) > 0 {
		fmt.Fprintf(&b, " (expected: %s)", strings.Join(v.Expected, ", "))
	}
	if v.Actual != "" {
		fmt.Fprintf(&b, " (actual: %s)", v.Actual)
	}
	return b.String()
}

// NewValidation builds a Validation with a code, message, and optional path.
func NewValidation(code ErrorCode, msg, path string) Validation {
	return Validation{Code: string(code), Message: msg, Path: path}
}

// NewValidationf formats a message and builds a Validation.
func NewValidationf(code ErrorCode, path, format string, args ...any) Validation {
	return NewValidation(code, fmt.Sprintf(format, args...), path)
}

// AsValidations extracts validation errors from an error returned by
// Validate or Decode.
func AsValidations(err error) ([]Validation, bool) {
	if err == nil {
		return nil, false
	}
	var list ValidationList
	if errors.As(err, &list) {
		return []Validation(list), true
	}
	var listPtr *ValidationList
	if errors.As(err, &listPtr) && listPtr != nil {
		return []Validation(*listPtr), true
	}
	return nil, false
}
