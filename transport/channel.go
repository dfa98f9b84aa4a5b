package transport

import "context"

// Channel delivers one request to one endpoint. Implementations do not retry.
type Channel interface {
	Request(ctx context.Context, req HTTPRequest) (HTTPResponse, error)
}
