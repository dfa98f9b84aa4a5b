package request

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/storacha/go-candid/core/request"
	"github.com/storacha/go-candid/transport"
	thttp "github.com/storacha/go-candid/transport/http"
)

const ContentType = "application/cbor"

// MaxSize bounds an encoded envelope read from a request body.
const MaxSize = 4 << 20

func Encode(envelope *request.Envelope) (transport.HTTPRequest, error) {
	data, err := envelope.Encode()
	if err != nil {
		return nil, err
	}
	headers := http.Header{}
	headers.Set("Content-Type", ContentType)
	return thttp.NewRequest(bytes.NewReader(data), headers), nil
}

func Decode(req transport.HTTPRequest) (*request.Envelope, error) {
	data, err := io.ReadAll(io.LimitReader(req.Body(), MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("request body exceeds %d bytes", MaxSize)
	}
	return request.DecodeEnvelope(data)
}
