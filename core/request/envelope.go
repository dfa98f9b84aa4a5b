package request

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/storacha/go-candid/principal"
	"github.com/storacha/go-candid/principal/ed25519/verifier"
)

// SelfDescribeTag marks a CBOR document as CBOR (RFC 8949 §3.4.6).
const SelfDescribeTag = 55799

var selfDescribe = []byte{0xd9, 0xd9, 0xf7}

// Envelope is an authenticated request as it travels over the wire.
type Envelope struct {
	Content      *Request
	SenderPubKey []byte
	SenderSig    []byte
}

type contentModel struct {
	Arg         []byte  `cbor:"arg"`
	CanisterID  []byte  `cbor:"canister_id"`
	MethodName  string  `cbor:"method_name"`
	Nonce       *[]byte `cbor:"nonce,omitempty"`
	RequestType string  `cbor:"request_type"`
	Sender      []byte  `cbor:"sender"`
}

type envelopeModel struct {
	Content      contentModel `cbor:"content"`
	SenderPubKey []byte       `cbor:"sender_pubkey"`
	SenderSig    []byte       `cbor:"sender_sig"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// struct fields are written in declaration order and empty byte strings
	// stay byte strings
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortNone,
		NilContainers: cbor.NilContainerAsEmpty,
	}.EncMode()
	if err != nil {
		panic("request: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("request: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode serializes the envelope: the self-describe tag, then a map of
// content, sender_pubkey and sender_sig.
func (e *Envelope) Encode() ([]byte, error) {
	r := e.Content
	model := envelopeModel{
		Content: contentModel{
			Arg:         r.arg,
			CanisterID:  r.canister.Bytes(),
			MethodName:  r.method,
			RequestType: string(r.typ),
			Sender:      r.sender.Bytes(),
		},
		SenderPubKey: e.SenderPubKey,
		SenderSig:    e.SenderSig,
	}
	if r.nonce != nil {
		model.Content.Nonce = &r.nonce
	}
	b, err := encMode.Marshal(cbor.Tag{Number: SelfDescribeTag, Content: model})
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return b, nil
}

// DecodeEnvelope parses an encoded envelope. The self-describe tag is
// optional. The envelope is not verified.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var model envelopeModel
	if err := decMode.Unmarshal(bytes.TrimPrefix(data, selfDescribe), &model); err != nil {
		return nil, newError(InvalidEnvelope, "%s", err)
	}
	c := model.Content
	canister, err := principal.FromBytes(c.CanisterID)
	if err != nil {
		return nil, newError(InvalidEnvelope, "canister_id: %s", err)
	}
	sender, err := principal.FromBytes(c.Sender)
	if err != nil {
		return nil, newError(InvalidEnvelope, "sender: %s", err)
	}
	// a missing key and an empty byte string are different requests
	nonce := WithoutNonce()
	if c.Nonce != nil {
		nonce = WithNonce(append([]byte{}, *c.Nonce...))
	}
	req, err := New(RequestType(c.RequestType), canister, c.MethodName, c.Arg, sender, nonce)
	if err != nil {
		return nil, newError(InvalidEnvelope, "%s", err)
	}
	return &Envelope{
		Content:      req,
		SenderPubKey: model.SenderPubKey,
		SenderSig:    model.SenderSig,
	}, nil
}

// Verify checks the trust chain of the envelope: the signature must verify
// over the request id under the carried public key, and that key must derive
// the sender principal.
func (e *Envelope) Verify() error {
	v, err := verifier.FromRaw(e.SenderPubKey)
	if err != nil {
		return newError(SignatureVerificationFailed, "%s", err)
	}
	id := e.Content.ID()
	if !v.Verify(id[:], e.SenderSig) {
		return newError(SignatureVerificationFailed, "signature does not match request %s", id)
	}
	if derived := principal.SelfAuthenticating(e.SenderPubKey); derived != e.Content.Sender() {
		return newError(SenderMismatch, "public key derives %s, sender is %s", derived, e.Content.Sender())
	}
	return nil
}
