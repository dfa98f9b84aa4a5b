// Package client sends authenticated calls and queries to a canister.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/storacha/go-candid/core/request"
	"github.com/storacha/go-candid/transport"
)

// Submit sends an update call to method with the Candid encoded arg and
// returns the reply body.
func Submit(ctx context.Context, conn Connection, method string, arg []byte) ([]byte, error) {
	return execute(ctx, conn, request.Call, conn.SubmitChannel(), method, arg)
}

// Read sends a query to method with the Candid encoded arg and returns the
// reply body.
func Read(ctx context.Context, conn Connection, method string, arg []byte) ([]byte, error) {
	return execute(ctx, conn, request.Query, conn.ReadChannel(), method, arg)
}

// NewRequest builds the request Submit or Read would send, without sending
// it.
func NewRequest(conn Connection, typ request.RequestType, method string, arg []byte) (*request.Request, error) {
	var options []request.Option
	if nonce, ok := conn.Nonce(); ok {
		options = append(options, request.WithNonce(nonce))
	}
	return request.New(typ, conn.ID(), method, arg, conn.Signer().Principal(), options...)
}

func execute(ctx context.Context, conn Connection, typ request.RequestType, channel transport.Channel, method string, arg []byte) ([]byte, error) {
	log := conn.Logger()

	req, err := NewRequest(conn, typ, method, arg)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	envelope, err := req.Authenticate(conn.Signer())
	if err != nil {
		return nil, fmt.Errorf("signing request: %w", err)
	}
	hr, err := conn.Codec().Encode(envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}

	log.Debug().
		Str("request_id", req.ID().String()).
		Str("type", string(typ)).
		Str("canister", conn.ID().String()).
		Str("method", method).
		Msg("sending request")

	start := time.Now()
	res, err := channel.Request(ctx, hr)
	if err != nil {
		log.Warn().
			Str("request_id", req.ID().String()).
			Str("method", method).
			Err(err).
			Msg("request failed")
		return nil, fmt.Errorf("sending %s to %s: %w", typ, method, err)
	}

	reply, err := conn.Codec().Decode(res)
	if err != nil {
		return nil, fmt.Errorf("decoding reply: %w", err)
	}
	log.Debug().
		Str("request_id", req.ID().String()).
		Int("status", res.Status()).
		Int("bytes", len(reply)).
		Dur("duration", time.Since(start)).
		Msg("received reply")
	return reply, nil
}
