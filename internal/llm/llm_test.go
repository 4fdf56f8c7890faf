package llm

import (
	"context"
	"errors"
	"testing"
)

func TestNewRequestRejectsBlankPayload(t *testing.T) {
	if _, err := NewRequest("gemini-2.0-flash", " \n\t"); !errors.Is(err, ErrBlankPayload) {
		t.Fatalf("expected ErrBlankPayload, got %v", err)
	}
	if _, err := NewRequest("", "payload"); err == nil {
		t.Fatal("expected error for blank model")
	}

	req, err := NewRequest("gemini-2.0-flash", "  keep spacing  ")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if req.Payload != "  keep spacing  " {
		t.Fatalf("payload should be kept verbatim, got %q", req.Payload)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindQuota, StatusCode: 429, Message: "quota exceeded"}
	if got := err.Error(); got != "quota exceeded (status 429)" {
		t.Fatalf("unexpected message %q", got)
	}

	cause := errors.New("dial tcp: refused")
	wrapped := &Error{Kind: KindTransport, Err: cause}
	if wrapped.Error() != "dial tcp: refused" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected Unwrap to expose the cause")
	}
}

func TestUnconfiguredClient(t *testing.T) {
	_, err := UnconfiguredClient{}.Generate(context.Background(), Request{Model: "m", Payload: "p"})
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Kind != KindNotConfigured {
		t.Fatalf("expected not_configured error, got %v", err)
	}
}
