package server

import (
	"fmt"

	"github.com/storacha/go-candid/core/failure"
	"github.com/storacha/go-candid/core/request"
	"github.com/storacha/go-candid/principal"
)

type HandlerNotFoundError interface {
	failure.Failure
	Method() string
}

type handlerNotFoundError struct {
	method string
}

func (h handlerNotFoundError) Method() string {
	return h.method
}

func (h handlerNotFoundError) Error() string {
	return fmt.Sprintf("canister has no method named %q", h.method)
}

func (h handlerNotFoundError) Name() string {
	return "HandlerNotFoundError"
}

func NewHandlerNotFoundError(method string) HandlerNotFoundError {
	return handlerNotFoundError{method}
}

type HandlerExecutionError interface {
	failure.Failure
	failure.WithStackTrace
	Cause() error
	Method() string
}

type handlerExecutionError struct {
	cause  error
	method string
}

func (h handlerExecutionError) Method() string {
	return h.method
}

func (h handlerExecutionError) Cause() error {
	return h.cause
}

func (h handlerExecutionError) Unwrap() error {
	return h.cause
}

func (h handlerExecutionError) Error() string {
	return fmt.Sprintf("method %q error: %s", h.method, h.cause.Error())
}

func (h handlerExecutionError) Name() string {
	return "HandlerExecutionError"
}

func (h handlerExecutionError) Stack() string {
	var stack string
	if serr, ok := h.cause.(failure.WithStackTrace); ok {
		stack = serr.Stack()
	}
	return stack
}

func NewHandlerExecutionError(cause error, method string) HandlerExecutionError {
	return handlerExecutionError{cause, method}
}

// CanisterNotFoundError is returned for a request addressed to a canister the
// server does not host.
type CanisterNotFoundError struct {
	canister principal.Principal
}

func (c CanisterNotFoundError) Canister() principal.Principal {
	return c.canister
}

func (c CanisterNotFoundError) Error() string {
	return fmt.Sprintf("canister %s not found", c.canister)
}

func (c CanisterNotFoundError) Name() string {
	return "CanisterNotFoundError"
}

func NewCanisterNotFoundError(canister principal.Principal) CanisterNotFoundError {
	return CanisterNotFoundError{canister}
}

// InvalidRequestTypeError is returned when a call arrives at the read
// endpoint or a query at the submit endpoint.
type InvalidRequestTypeError struct {
	expected request.RequestType
	actual   request.RequestType
}

func (i InvalidRequestTypeError) Error() string {
	return fmt.Sprintf("invalid request type: expected %q, got %q", i.expected, i.actual)
}

func (i InvalidRequestTypeError) Name() string {
	return "InvalidRequestTypeError"
}

func NewInvalidRequestTypeError(expected, actual request.RequestType) InvalidRequestTypeError {
	return InvalidRequestTypeError{expected, actual}
}

// ArgumentError is returned by Candid methods whose argument does not decode
// by the declared types.
type ArgumentError struct {
	cause error
}

func (a ArgumentError) Error() string {
	return fmt.Sprintf("decoding argument: %s", a.cause)
}

func (a ArgumentError) Name() string {
	return "ArgumentError"
}

func (a ArgumentError) Unwrap() error {
	return a.cause
}

var (
	_ failure.Failure = CanisterNotFoundError{}
	_ failure.Failure = InvalidRequestTypeError{}
	_ failure.Failure = ArgumentError{}
)
