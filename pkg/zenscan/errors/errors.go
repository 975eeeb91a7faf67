package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrorCode string

const (
	// ErrShape: a criteria node was constructed with a missing operand or
	// contradictory bounds.
	ErrShape ErrorCode = "shape"
	// ErrDecode: a wire tuple matches no known tag, arity or value category.
	ErrDecode ErrorCode = "decode"
	// ErrProtocol: an inbound envelope or change record does not match what
	// the request expected.
	ErrProtocol ErrorCode = "protocol"
	// ErrContract: the caller broke a precondition (target list mismatch,
	// unsaved metadata). Indicates a bug in the calling code.
	ErrContract  ErrorCode = "contract"
	ErrStore     ErrorCode = "store"
	ErrTransport ErrorCode = "transport"
	ErrNotFound  ErrorCode = "not_found"
	ErrConfig    ErrorCode = "config"
)

type Error struct {
	Code ErrorCode
	Msg  string

	// Field names the offending envelope field or criteria slot.
	Field string
	// Tag and Position locate a decode failure inside a wire tuple.
	// Position is 1-based; 0 means the tuple itself.
	Tag      string
	Position int
	// Raw holds the inbound envelope for protocol diagnostics.
	Raw []byte

	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Code, e.Msg)
	if e.Tag != "" {
		base = fmt.Sprintf("%s (tag=%q pos=%d)", base, e.Tag, e.Position)
	}
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, msg string) *Error { return &Error{Code: code, Msg: msg} }
func Wrap(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Msg: msg, Cause: cause}
}

func Shape(field, msg string) *Error {
	return &Error{Code: ErrShape, Field: field, Msg: msg}
}

func Decode(tag string, pos int, msg string) *Error {
	return &Error{Code: ErrDecode, Tag: tag, Position: pos, Msg: msg}
}

func Protocol(field, msg string, raw []byte) *Error {
	return &Error{Code: ErrProtocol, Field: field, Msg: msg, Raw: raw}
}

func Contract(field, msg string) *Error {
	return &Error{Code: ErrContract, Field: field, Msg: msg}
}

func NotFound(what string) *Error {
	return &Error{Code: ErrNotFound, Msg: fmt.Sprintf("not found: %s", what)}
}

// IsCode reports whether any error in err's chain is an *Error with code.
// Causes of an *Error are searched too.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	for stderrors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// As is errors.As narrowed to *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}
