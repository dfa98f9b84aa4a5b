package response

import (
	"fmt"
	"io"
	"net/http"

	"github.com/storacha/go-candid/transport"
	thttp "github.com/storacha/go-candid/transport/http"
)

// ContentType of a reply. Replies are the raw Candid message returned by the
// method.
const ContentType = "application/cbor"

func Encode(reply []byte) (transport.HTTPResponse, error) {
	headers := http.Header{}
	headers.Set("Content-Type", ContentType)
	return thttp.NewBytesResponse(http.StatusOK, reply, headers), nil
}

func Decode(res transport.HTTPResponse) ([]byte, error) {
	defer res.Body().Close()
	reply, err := io.ReadAll(res.Body())
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return reply, nil
}
