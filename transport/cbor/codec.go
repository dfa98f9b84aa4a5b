// Package cbor carries signed request envelopes as application/cbor bodies.
package cbor

import (
	"mime"
	"net/http"

	"github.com/storacha/go-candid/core/request"
	"github.com/storacha/go-candid/transport"
	crequest "github.com/storacha/go-candid/transport/cbor/request"
	cresponse "github.com/storacha/go-candid/transport/cbor/response"
	thttp "github.com/storacha/go-candid/transport/http"
)

const ContentType = crequest.ContentType

type OutboundCodec struct{}

func (oc *OutboundCodec) Encode(envelope *request.Envelope) (transport.HTTPRequest, error) {
	return crequest.Encode(envelope)
}

func (oc *OutboundCodec) Decode(res transport.HTTPResponse) ([]byte, error) {
	return cresponse.Decode(res)
}

var _ transport.OutboundCodec = (*OutboundCodec)(nil)

func NewOutboundCodec() transport.OutboundCodec {
	return &OutboundCodec{}
}

type InboundAcceptCodec struct{}

func (cic *InboundAcceptCodec) Encoder() transport.ResponseEncoder {
	return cic
}

func (cic *InboundAcceptCodec) Decoder() transport.RequestDecoder {
	return cic
}

func (cic *InboundAcceptCodec) Encode(reply []byte) (transport.HTTPResponse, error) {
	return cresponse.Encode(reply)
}

func (cic *InboundAcceptCodec) Decode(req transport.HTTPRequest) (*request.Envelope, error) {
	return crequest.Decode(req)
}

type InboundCodec struct {
	codec transport.InboundAcceptCodec
}

func (ic *InboundCodec) Accept(req transport.HTTPRequest) (transport.InboundAcceptCodec, transport.HTTPError) {
	mt, _, err := mime.ParseMediaType(req.Headers().Get("Content-Type"))
	if err != nil || mt != ContentType {
		return nil, thttp.NewHTTPError(
			"The server cannot process the request because the payload format is not supported. Please use "+ContentType+".",
			http.StatusUnsupportedMediaType,
			http.Header{},
		)
	}
	return ic.codec, nil
}

var _ transport.InboundCodec = (*InboundCodec)(nil)

func NewInboundCodec() transport.InboundCodec {
	return &InboundCodec{codec: &InboundAcceptCodec{}}
}
