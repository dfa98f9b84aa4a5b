package http

import (
	"fmt"
	nethttp "net/http"

	"github.com/storacha/go-candid/transport"
)

// TransportError is a failed exchange with the replica: either the request
// never got an answer (Cause is set) or the answer had a non-success status
// (Body holds what the replica said).
type TransportError struct {
	method  string
	url     string
	status  int
	headers nethttp.Header
	body    []byte
	// truncated is set when the replica sent more than the kept body.
	truncated bool
	cause     error
}

func (err *TransportError) Error() string {
	if err.method == "" {
		// answering an inbound request
		return string(err.body)
	}
	if err.cause != nil {
		return fmt.Sprintf("transport: %s %s: %s", err.method, err.url, err.cause)
	}
	msg := fmt.Sprintf("transport: %s %s: status %d", err.method, err.url, err.status)
	if len(err.body) > 0 {
		msg += ": " + string(err.body)
		if err.truncated {
			msg += " (truncated)"
		}
	}
	return msg
}

func (err *TransportError) Name() string {
	return "TransportError"
}

// Status is the HTTP status code, or 0 when there was no response.
func (err *TransportError) Status() int {
	return err.status
}

func (err *TransportError) Headers() nethttp.Header {
	return err.headers
}

// Body is the response body, verbatim. On failed responses only the first
// 64 KiB are kept; Truncated reports whether anything was cut.
func (err *TransportError) Body() []byte {
	return err.body
}

func (err *TransportError) Truncated() bool {
	return err.truncated
}

func (err *TransportError) URL() string {
	return err.url
}

func (err *TransportError) Unwrap() error {
	return err.cause
}

// NewTransportError creates an error for a response with an unexpected status.
func NewTransportError(method, url string, status int, headers nethttp.Header, body []byte) *TransportError {
	return &TransportError{method: method, url: url, status: status, headers: headers, body: body}
}

// NewHTTPError creates an error to answer an inbound request with.
func NewHTTPError(message string, status int, headers nethttp.Header) transport.HTTPError {
	return &TransportError{status: status, headers: headers, body: []byte(message)}
}

func wrapTransportError(method, url string, cause error) *TransportError {
	return &TransportError{method: method, url: url, cause: cause}
}

var _ transport.HTTPError = (*TransportError)(nil)
