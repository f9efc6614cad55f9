package core

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is; the structured error
// types below carry the object id, byte offset or filter stage.
var (
	ErrSyntax                  = errors.New("syntax error")
	ErrTypeMismatch            = errors.New("type mismatch")
	ErrMalformedXref           = errors.New("malformed cross-reference")
	ErrCircularXrefChain       = errors.New("circular cross-reference chain")
	ErrObjectNotFound          = errors.New("object not found")
	ErrObjectFreed             = errors.New("object is free")
	ErrObjectIdentityMismatch  = errors.New("object identity mismatch")
	ErrInvalidContainerNesting = errors.New("object stream stored inside an object stream")
	ErrReferenceChainTooDeep   = errors.New("reference chain too deep")
	ErrUnsupportedFilter       = errors.New("unsupported filter")
	ErrInvalidFilterParams     = errors.New("invalid filter parameters")
	ErrFilterDecode            = errors.New("filter decode failed")
	ErrInvalidCatalog          = errors.New("invalid catalog")
	ErrRecoveredWithErrors     = errors.New("cross-reference recovered with errors")
)

// SyntaxError reports malformed object syntax at an absolute byte offset.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

func syntaxErrorf(offset int64, format string, args ...interface{}) error {
	return &SyntaxError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// ObjectError ties a failure to the object being resolved. Offset is -1 when
// the object has no byte position (compressed objects, missing entries).
type ObjectError struct {
	ID     ObjectID
	Offset int64
	Err    error
}

func (e *ObjectError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("object %s at offset %d: %v", e.ID, e.Offset, e.Err)
	}
	return fmt.Sprintf("object %s: %v", e.ID, e.Err)
}

func (e *ObjectError) Unwrap() error { return e.Err }

// XRefError ties a failure to the cross-reference section at Offset.
type XRefError struct {
	Offset int64
	Err    error
}

func (e *XRefError) Error() string {
	return fmt.Sprintf("xref section at offset %d: %v", e.Offset, e.Err)
}

func (e *XRefError) Unwrap() error { return e.Err }

// FilterError reports a failing pipeline stage. Kind is one of
// ErrUnsupportedFilter, ErrInvalidFilterParams or ErrFilterDecode; Err is
// the underlying cause, if any. Both match with errors.Is.
type FilterError struct {
	Stage  int
	Filter string
	Kind   error
	Err    error
}

func (e *FilterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("filter stage %d (%s): %v", e.Stage, e.Filter, e.Kind)
	}
	return fmt.Sprintf("filter stage %d (%s): %v: %v", e.Stage, e.Filter, e.Kind, e.Err)
}

func (e *FilterError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// TypeError is returned by the As* accessors when a value has the wrong shape.
type TypeError struct {
	Want ObjectType
	Got  Object
}

func (e *TypeError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("expected %s, got nothing", e.Want)
	}
	return fmt.Sprintf("expected %s, got %s", e.Want, e.Got.Type())
}

func (e *TypeError) Unwrap() error { return ErrTypeMismatch }
