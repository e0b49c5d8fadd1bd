package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cpcf/cfsgen/expr"
)

// ErrorKind classifies what went wrong in a capability.
type ErrorKind int

const (
	KindIO ErrorKind = iota
	KindExpression
	KindTemplate
	KindPattern
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindExpression:
		return "expression"
	case KindTemplate:
		return "template"
	case KindPattern:
		return "pattern"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// GenerationError wraps a failure of a capability with the manifest record
// being processed when it happened.
type GenerationError struct {
	Capability Capability
	Src        string
	Dst        string
	Kind       ErrorKind
	Err        error
}

func (e *GenerationError) Error() string {
	verb := "render"
	if e.Capability == CapabilityCopyFiles {
		verb = "copy"
	}
	return fmt.Sprintf("%s: failed to %s from %s to %s: %v", e.Capability, verb, e.Src, e.Dst, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsIOFailure reports whether err comes from the filesystem rather than from
// the manifest or a template.
func IsIOFailure(err error) bool {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind == KindIO
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}

func newGenerationError(capability Capability, src, dst string, err error) *GenerationError {
	return &GenerationError{
		Capability: capability,
		Src:        src,
		Dst:        dst,
		Kind:       kindOf(err),
		Err:        err,
	}
}

func kindOf(err error) ErrorKind {
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	var exprErr *expr.Error
	switch {
	case errors.As(err, &pathErr), errors.As(err, &linkErr):
		return KindIO
	case errors.As(err, &exprErr):
		return KindExpression
	case errors.Is(err, doublestar.ErrBadPattern):
		return KindPattern
	}
	return KindTemplate
}

// CapabilityNotSupportedError is returned by a registry asked for a
// capability it has no service for.
type CapabilityNotSupportedError struct {
	Capability Capability
}

func (e *CapabilityNotSupportedError) Error() string {
	return fmt.Sprintf("service %q is not supported yet", string(e.Capability))
}
