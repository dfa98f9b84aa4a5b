package transport

import (
	"io"
	"net/http"

	"github.com/storacha/go-candid/core/failure"
)

type HTTPRequest interface {
	Headers() http.Header
	Body() io.Reader
}

type HTTPResponse interface {
	Status() int
	Headers() http.Header
	Body() io.ReadCloser
}

// HTTPError is a failed exchange that carries what the other side answered.
type HTTPError interface {
	failure.Failure
	Status() int
	Headers() http.Header
}
