package request

import "fmt"

// ErrorKind is a stable category of request failure, usable with errors.Is.
type ErrorKind string

func (k ErrorKind) Error() string {
	return string(k)
}

const (
	// SignatureVerificationFailed means the signature does not verify over
	// the request id with the carried public key.
	SignatureVerificationFailed ErrorKind = "SignatureVerificationFailed"
	// SenderMismatch means the public key does not derive the sender.
	SenderMismatch ErrorKind = "SenderMismatch"
	// InvalidEnvelope means the envelope could not be parsed.
	InvalidEnvelope ErrorKind = "InvalidEnvelope"
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Name() string {
	return string(e.Kind)
}

func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
