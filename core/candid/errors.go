package candid

import (
	"fmt"

	"github.com/storacha/go-candid/core/failure"
)

// ErrorKind is a stable category of codec failure. Kinds are errors
// themselves so callers can test with errors.Is(err, candid.UnknownVariantTag).
type ErrorKind string

func (k ErrorKind) Error() string {
	return string(k)
}

const (
	// UnexpectedEndOfInput means the message ended in the middle of a value.
	UnexpectedEndOfInput ErrorKind = "UnexpectedEndOfInput"
	// InvalidUtf8 means a text value was not valid UTF-8.
	InvalidUtf8 ErrorKind = "InvalidUtf8"
	// UnknownVariantTag means a variant tag did not select a known case.
	UnknownVariantTag ErrorKind = "UnknownVariantTag"
	// TypeTableIndexOutOfRange means a type reference pointed past the table.
	TypeTableIndexOutOfRange ErrorKind = "TypeTableIndexOutOfRange"
	// InvalidMagic means the message did not start with DIDL.
	InvalidMagic ErrorKind = "InvalidMagic"
	// InvalidValue means bytes that no value of the type encodes to, such as a
	// bool byte of 2, or a Go value that does not fit the type.
	InvalidValue ErrorKind = "InvalidValue"
	// TypeMismatch means a value or wire type is incompatible with the
	// expected type.
	TypeMismatch ErrorKind = "TypeMismatch"
	// EncodingSizeMismatch means the encoder wrote a different number of bytes
	// than it predicted. It is always a bug in this package.
	EncodingSizeMismatch ErrorKind = "EncodingSizeMismatch"
)

// Error is a codec failure. Offset is the byte position in the message for
// decode failures and -1 otherwise. Path names the value being processed,
// e.g. "arg0.owner.subaccount".
type Error struct {
	Kind    ErrorKind
	Offset  int
	Path    string
	Message string
	stack   failure.WithStackTrace
}

func (e *Error) Error() string {
	msg := "candid: " + string(e.Kind)
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *Error) Name() string {
	return string(e.Kind)
}

// Is matches the error against an ErrorKind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// Stack is only recorded for EncodingSizeMismatch.
func (e *Error) Stack() string {
	if e.stack == nil {
		return ""
	}
	return e.stack.Stack()
}

var _ failure.Failure = (*Error)(nil)

func decodeError(kind ErrorKind, offset int, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Path: path, Message: fmt.Sprintf(format, args...)}
}

func encodeError(kind ErrorKind, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: -1, Path: path, Message: fmt.Sprintf(format, args...)}
}

func sizeMismatch(predicted, written int) *Error {
	return &Error{
		Kind:    EncodingSizeMismatch,
		Offset:  -1,
		Message: fmt.Sprintf("predicted %d bytes, wrote %d", predicted, written),
		stack:   failure.NamedWithCurrentStackTrace(string(EncodingSizeMismatch)),
	}
}
