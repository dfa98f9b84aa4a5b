// Package request builds calls and queries, derives their request ids and
// wraps them in signed envelopes.
package request

import (
	"bytes"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"

	"github.com/storacha/go-candid/core/hash/sha256"
	"github.com/storacha/go-candid/principal"
)

// RequestType selects the endpoint and semantics of a request.
type RequestType string

const (
	// Call is an update call, sent to the submit endpoint.
	Call RequestType = "call"
	// Query is a read-only call, sent to the read endpoint.
	Query RequestType = "query"
)

// NonceSize is the length of generated nonces.
const NonceSize = 9

// ID is the representation-independent hash of a request's fields.
type ID [sha256.Size]byte

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ID) Bytes() []byte {
	return id[:]
}

// Field is one (name, value) pair that goes into the request id.
type Field struct {
	Name  string
	Value []byte
}

// Option is an option configuring a request.
type Option func(cfg *requestConfig) error

type requestConfig struct {
	nonce    []byte
	nonceSet bool
}

// WithNonce sets the nonce. A nil nonce means no nonce field; an empty,
// non-nil nonce is kept and hashed as an empty byte string.
func WithNonce(nonce []byte) Option {
	return func(cfg *requestConfig) error {
		cfg.nonce = nil
		if nonce != nil {
			cfg.nonce = append([]byte{}, nonce...)
		}
		cfg.nonceSet = true
		return nil
	}
}

// WithoutNonce omits the nonce field.
func WithoutNonce() Option {
	return WithNonce(nil)
}

// Request is an immutable call or query. Its id is computed once, on first
// use.
type Request struct {
	typ      RequestType
	canister principal.Principal
	method   string
	arg      []byte
	sender   principal.Principal
	nonce    []byte

	once sync.Once
	id   ID
}

// New builds a request. Unless a nonce option is given, a random nonce of
// NonceSize bytes is generated.
func New(typ RequestType, canister principal.Principal, method string, arg []byte, sender principal.Principal, options ...Option) (*Request, error) {
	if typ != Call && typ != Query {
		return nil, fmt.Errorf("unknown request type %q", typ)
	}
	cfg := requestConfig{}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	nonce := cfg.nonce
	if !cfg.nonceSet {
		nonce = make([]byte, NonceSize)
		if _, err := crand.Read(nonce); err != nil {
			return nil, fmt.Errorf("generating nonce: %w", err)
		}
	}
	if arg == nil {
		arg = []byte{}
	}
	return &Request{
		typ:      typ,
		canister: canister,
		method:   method,
		arg:      arg,
		sender:   sender,
		nonce:    nonce,
	}, nil
}

func (r *Request) Type() RequestType {
	return r.typ
}

func (r *Request) Canister() principal.Principal {
	return r.canister
}

func (r *Request) Method() string {
	return r.method
}

// Arg is the Candid encoded argument. It must not be modified.
func (r *Request) Arg() []byte {
	return r.arg
}

func (r *Request) Sender() principal.Principal {
	return r.sender
}

// Nonce returns the nonce, or nil when the request has none. A present but
// empty nonce is returned as a non-nil empty slice.
func (r *Request) Nonce() []byte {
	return r.nonce
}

// Fields lists the fields that make up the request id, in envelope order.
func (r *Request) Fields() []Field {
	fields := []Field{
		{"arg", r.arg},
		{"canister_id", r.canister.Bytes()},
		{"method_name", []byte(r.method)},
	}
	if r.nonce != nil {
		fields = append(fields, Field{"nonce", r.nonce})
	}
	return append(fields,
		Field{"request_type", []byte(r.typ)},
		Field{"sender", r.sender.Bytes()},
	)
}

// ID returns the request id.
func (r *Request) ID() ID {
	r.once.Do(func() {
		r.id = HashOfMap(r.Fields())
	})
	return r.id
}

// HashOfMap computes the representation-independent hash of a set of fields:
// every pair is hashed as SHA-256(name) || SHA-256(value), the pairs are
// sorted bytewise and the concatenation is hashed again. The result does not
// depend on the order of fields.
func HashOfMap(fields []Field) ID {
	pairs := make([][]byte, len(fields))
	for i, f := range fields {
		k := sha256.Sum([]byte(f.Name))
		v := sha256.Sum(f.Value)
		pair := make([]byte, 0, 2*sha256.Size)
		pair = append(pair, k[:]...)
		pairs[i] = append(pair, v[:]...)
	}
	slices.SortFunc(pairs, bytes.Compare)
	return sha256.Sum(bytes.Join(pairs, nil))
}

// Authenticate signs the request id with signer. The signer's principal must
// be the request sender.
func (r *Request) Authenticate(signer principal.Signer) (*Envelope, error) {
	if signer.Principal() != r.sender {
		return nil, newError(SenderMismatch, "signer %s is not the sender %s", signer.Principal(), r.sender)
	}
	id := r.ID()
	return &Envelope{
		Content:      r,
		SenderPubKey: signer.PublicKey(),
		SenderSig:    signer.Sign(id[:]),
	}, nil
}
