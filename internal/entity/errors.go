package entity

import (
	"errors"
	"fmt"
)

// ErrorKind is what a caller gets to see of a failed diff.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInputNotFound
	KindUnsupportedFormat
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputNotFound:
		return "input_not_found"
	case KindUnsupportedFormat:
		return "unsupported_format"
	default:
		return "internal"
	}
}

var (
	ErrEmptyImage        = errors.New("image has no pixels")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrUnexpectedStatus  = errors.New("unexpected status code")
	ErrUnknownDiffMode   = errors.New("unknown diff mode")
)

// DiffError carries the classified kind of a pipeline failure together with
// the stage that produced it and the underlying cause.
type DiffError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *DiffError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *DiffError) Unwrap() error {
	return e.Err
}

func InputNotFound(op string, err error) error {
	return &DiffError{Kind: KindInputNotFound, Op: op, Err: err}
}

func UnsupportedFormat(op string, err error) error {
	return &DiffError{Kind: KindUnsupportedFormat, Op: op, Err: err}
}

func Internal(op string, err error) error {
	return &DiffError{Kind: KindInternal, Op: op, Err: err}
}

// KindOf reports the kind of err. Anything that was not classified by the
// pipeline is internal.
func KindOf(err error) ErrorKind {
	var de *DiffError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
