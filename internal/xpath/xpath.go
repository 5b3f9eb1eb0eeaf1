// Package xpath compiles and evaluates the restricted XPath subset used
// by XSD identity constraints: relative paths over the child and
// attribute axes, `|` unions, a leading `.//`, and wildcard name tests.
// Predicates, functions, and the remaining axes are rejected.
package xpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xmlschema-go/xmlschema/internal/xmltree"
)

// Axis describes the XPath axis used in a step.
type Axis int

const (
	AxisChild Axis = iota
	AxisDescendantOrSelf
	AxisSelf
	AxisAttribute
)

// NodeTest matches element or attribute names.
type NodeTest struct {
	Any       bool
	AnyInNS   bool
	Local     string
	Namespace string
}

// Matches reports whether the test accepts a qualified name.
func (t NodeTest) Matches(name xmltree.QName) bool {
	if t.Any {
		return true
	}
	if t.AnyInNS {
		return name.Space == t.Namespace
	}
	return name.Local == t.Local && name.Space == t.Namespace
}

// Step is a single step in a path.
type Step struct {
	Axis Axis
	Test NodeTest
}

// Path is a compiled relative path, optionally ending in an attribute step.
type Path struct {
	Steps     []Step
	Attribute *NodeTest
}

// Expression is a union of paths.
type Expression struct {
	Paths  []Path
	Source string
}

// ErrInvalidXPath reports that the expression does not conform to the
// restricted XPath syntax.
var ErrInvalidXPath = errors.New("invalid xpath")

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidXPath}, args...)...)
}

// Compile parses an expression into a set of paths. Namespace prefixes
// are resolved against nsContext; attribute steps are permitted only
// when allowAttributes is set (field paths, not selector paths).
func Compile(expr string, nsContext map[string]string, allowAttributes bool) (Expression, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return Expression{}, errorf("xpath cannot be empty")
	}
	if strings.HasPrefix(trimmed, "/") {
		return Expression{}, errorf("xpath must be a relative path: %s", expr)
	}
	if strings.ContainsAny(trimmed, "[]()") {
		return Expression{}, errorf("xpath cannot use predicates or functions: %s", expr)
	}

	parts := strings.Split(trimmed, "|")
	paths := make([]Path, 0, len(parts))
	for _, raw := range parts {
		part := strings.TrimSpace(raw)
		if part == "" {
			return Expression{}, errorf("xpath contains empty union branch: %s", expr)
		}
		path, err := compilePath(part, nsContext, allowAttributes)
		if err != nil {
			return Expression{}, err
		}
		paths = append(paths, path)
	}
	return Expression{Paths: paths, Source: trimmed}, nil
}

func compilePath(expr string, nsContext map[string]string, allowAttributes bool) (Path, error) {
	var path Path
	rest := expr

	if strings.HasPrefix(rest, ".//") {
		path.Steps = append(path.Steps, Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Any: true}})
		rest = rest[3:]
	}

	for _, token := range strings.Split(rest, "/") {
		token = strings.TrimSpace(token)
		if token == "" {
			return Path{}, errorf("xpath contains empty step: %s", expr)
		}
		if path.Attribute != nil {
			return Path{}, errorf("attribute step must be last: %s", expr)
		}
		switch {
		case token == ".":
			path.Steps = append(path.Steps, Step{Axis: AxisSelf, Test: NodeTest{Any: true}})
		case strings.HasPrefix(token, "@") || strings.HasPrefix(token, "attribute::"):
			if !allowAttributes {
				return Path{}, errorf("attribute step is not allowed in a selector: %s", expr)
			}
			name := strings.TrimPrefix(strings.TrimPrefix(token, "attribute::"), "@")
			test, err := compileTest(name, nsContext, true)
			if err != nil {
				return Path{}, err
			}
			path.Attribute = &test
		default:
			name := strings.TrimPrefix(token, "child::")
			test, err := compileTest(name, nsContext, false)
			if err != nil {
				return Path{}, err
			}
			path.Steps = append(path.Steps, Step{Axis: AxisChild, Test: test})
		}
	}
	if len(path.Steps) == 0 && path.Attribute == nil {
		return Path{}, errorf("xpath selects nothing: %s", expr)
	}
	return path, nil
}

func compileTest(name string, nsContext map[string]string, isAttribute bool) (NodeTest, error) {
	if name == "" {
		return NodeTest{}, errorf("empty name test")
	}
	if name == "*" {
		return NodeTest{Any: true}, nil
	}
	prefix, local := "", name
	if i := strings.IndexByte(name, ':'); i >= 0 {
		prefix, local = name[:i], name[i+1:]
		if prefix == "" || local == "" {
			return NodeTest{}, errorf("malformed name test %q", name)
		}
	}
	var ns string
	if prefix != "" {
		uri, ok := nsContext[prefix]
		if !ok {
			return NodeTest{}, errorf("undeclared prefix %q in name test %q", prefix, name)
		}
		ns = uri
	} else if !isAttribute {
		// An unprefixed element test uses the default namespace binding.
		ns = nsContext[""]
	}
	if local == "*" {
		return NodeTest{AnyInNS: true, Namespace: ns}, nil
	}
	return NodeTest{Local: local, Namespace: ns}, nil
}
