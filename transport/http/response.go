package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/storacha/go-candid/transport"
)

type Request struct {
	url  *url.URL
	hdrs http.Header
	body io.Reader
}

func (req *Request) URL() *url.URL {
	return req.url
}

func (req *Request) Headers() http.Header {
	return req.hdrs
}

func (req *Request) Body() io.Reader {
	return req.body
}

var _ transport.HTTPRequest = (*Request)(nil)

type Response struct {
	ctx    context.Context
	status int
	hdrs   http.Header
	body   io.ReadCloser
}

func (res *Response) Status() int {
	return res.status
}

func (res *Response) Headers() http.Header {
	return res.hdrs
}

func (res *Response) Body() io.ReadCloser {
	return res.body
}

// Context carries the trace context extracted from the response headers.
func (res *Response) Context() context.Context {
	if res.ctx == nil {
		return context.Background()
	}
	return res.ctx
}

var _ transport.HTTPResponse = (*Response)(nil)

func NewResponse(status int, body io.ReadCloser, headers http.Header) *Response {
	return NewResponseWithContext(context.Background(), status, body, headers)
}

func NewResponseWithContext(ctx context.Context, status int, body io.ReadCloser, headers http.Header) *Response {
	if ctx == nil {
		ctx = context.Background()
	}
	if headers == nil {
		headers = http.Header{}
	}
	return &Response{ctx: ctx, status: status, hdrs: headers, body: body}
}

// NewBytesResponse creates a response with an in-memory body.
func NewBytesResponse(status int, body []byte, headers http.Header) *Response {
	return NewResponse(status, io.NopCloser(bytes.NewReader(body)), headers)
}

// NewRequest creates a [transport.HTTPRequest].
func NewRequest(body io.Reader, headers http.Header) *Request {
	if headers == nil {
		headers = http.Header{}
	}
	return &Request{nil, headers, body}
}

// NewInboundRequest creates a request that also has a URL, as seen by a
// server.
func NewInboundRequest(url *url.URL, body io.Reader, headers http.Header) *Request {
	return &Request{url, headers, body}
}
