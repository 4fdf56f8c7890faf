package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client abstracts the remote text-generation service.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a single generation call: the model to use and the text sent to it.
type Request struct {
	Model   string
	Payload string
}

// ErrBlankPayload is returned when a request would carry no text.
var ErrBlankPayload = errors.New("generation payload is empty")

// NewRequest builds a request, rejecting a blank model or payload.
func NewRequest(model, payload string) (Request, error) {
	if strings.TrimSpace(model) == "" {
		return Request{}, errors.New("generation model is required")
	}
	if strings.TrimSpace(payload) == "" {
		return Request{}, ErrBlankPayload
	}
	return Request{Model: model, Payload: payload}, nil
}

// ErrEmptyResult is returned when the service answered successfully but produced no text.
var ErrEmptyResult = errors.New("no response generated")

// ErrorKind classifies generation failures.
type ErrorKind string

const (
	KindTransport     ErrorKind = "transport"
	KindAuth          ErrorKind = "auth"
	KindQuota         ErrorKind = "quota"
	KindMalformed     ErrorKind = "malformed"
	KindBlocked       ErrorKind = "blocked"
	KindRemote        ErrorKind = "remote"
	KindNotConfigured ErrorKind = "not_configured"
)

// Error is a failed generation call.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// UnconfiguredClient stands in when no API credential is available.
type UnconfiguredClient struct{}

// Generate always fails with KindNotConfigured.
func (UnconfiguredClient) Generate(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", &Error{Kind: KindNotConfigured, Message: "GEMINI_API_KEY is not configured"}
}
