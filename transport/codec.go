package transport

import "github.com/storacha/go-candid/core/request"

type RequestEncoder interface {
	Encode(envelope *request.Envelope) (HTTPRequest, error)
}

type RequestDecoder interface {
	Decode(req HTTPRequest) (*request.Envelope, error)
}

type ResponseEncoder interface {
	Encode(reply []byte) (HTTPResponse, error)
}

type ResponseDecoder interface {
	Decode(response HTTPResponse) ([]byte, error)
}

// OutboundCodec is used by agents to send envelopes and read replies.
type OutboundCodec interface {
	RequestEncoder
	ResponseDecoder
}

type InboundAcceptCodec interface {
	// Decoder will be used by a server to decode an HTTP request into a
	// request envelope.
	Decoder() RequestDecoder
	// Encoder will be used to encode the reply of a method into an HTTP
	// response.
	Encoder() ResponseEncoder
}

type InboundCodec interface {
	Accept(req HTTPRequest) (InboundAcceptCodec, HTTPError)
}
