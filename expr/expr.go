// Package expr evaluates destination-path expressions against a generation
// context.
//
// An expression is literal text with ${...} placeholders. Each placeholder
// holds a property path such as projectId, cfsconfig.Projects[0].ProjectId or
// soc["Name"], optionally followed by ?? "fallback". Paths are resolved
// strictly: a missing key, an out-of-range index or a nil value is an error
// unless a fallback is given.
//
// Nothing in an expression is executed; placeholders are parsed into a small
// path AST and walked over the context value.
package expr

import (
	"fmt"
	"strings"
)

// Expression is a parsed expression ready for evaluation.
type Expression struct {
	source   string
	segments []segment
}

type segment struct {
	literal     string
	placeholder *placeholder
}

type placeholder struct {
	raw         string
	path        Path
	fallback    string
	hasFallback bool
}

// Parse parses an expression without evaluating it.
func Parse(expression string) (*Expression, error) {
	p := &parser{src: expression}
	segments, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Expression{source: expression, segments: segments}, nil
}

// MustParse is like Parse but panics on a syntax error.
func MustParse(expression string) *Expression {
	e, err := Parse(expression)
	if err != nil {
		panic(err)
	}
	return e
}

// Evaluate parses expression and evaluates it against data.
func Evaluate(expression string, data any) (string, error) {
	e, err := Parse(expression)
	if err != nil {
		return "", err
	}
	return e.Evaluate(data)
}

// String returns the expression source.
func (e *Expression) String() string {
	return e.source
}

// HasPlaceholders reports whether the expression references the context at all.
func (e *Expression) HasPlaceholders() bool {
	for _, seg := range e.segments {
		if seg.placeholder != nil {
			return true
		}
	}
	return false
}

// Paths returns the property paths referenced by the expression, in order.
func (e *Expression) Paths() []Path {
	var paths []Path
	for _, seg := range e.segments {
		if seg.placeholder != nil {
			paths = append(paths, seg.placeholder.path)
		}
	}
	return paths
}

// Evaluate substitutes every placeholder with the scalar it references in data.
func (e *Expression) Evaluate(data any) (string, error) {
	var b strings.Builder
	for _, seg := range e.segments {
		if seg.placeholder == nil {
			b.WriteString(seg.literal)
			continue
		}

		value, err := e.resolve(seg.placeholder, data)
		if err != nil {
			return "", err
		}
		b.WriteString(value)
	}
	return b.String(), nil
}

func (e *Expression) resolve(ph *placeholder, data any) (string, error) {
	value, err := ph.path.lookup(data)
	if err != nil {
		if ph.hasFallback {
			return ph.fallback, nil
		}
		return "", &Error{Expression: e.source, Path: ph.path.String(), Reason: err.Error(), Err: err}
	}

	s, err := formatScalar(value)
	if err != nil {
		return "", &Error{Expression: e.source, Path: ph.path.String(), Reason: err.Error(), Err: err}
	}
	return s, nil
}

// Error reports an expression that could not be parsed or that references
// an undefined part of the context.
type Error struct {
	Expression string
	Path       string
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("expression %q: %s: %s", e.Expression, e.Path, e.Reason)
	}
	return fmt.Sprintf("expression %q: %s", e.Expression, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap converts an error raised while executing a template into an
// expression error attributed to name.
func Wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Expression: name, Reason: err.Error(), Err: err}
}
