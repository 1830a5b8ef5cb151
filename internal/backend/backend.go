// Package backend talks to the remote chat service that produces replies.
package backend

import (
	"context"
	"fmt"

	"github.com/Rorical/RoriChat/internal/models"
)

// DefaultSessionID is sent when no session tracking is configured.
const DefaultSessionID = "default"

// Request is the wire payload of a chat call.
type Request struct {
	Message   string         `json:"message"`
	Model     models.ModelID `json:"model"`
	SessionID string         `json:"session_id"`
}

// Reply is the success body of a chat call. Response is nil when the
// backend omitted the field or sent null.
type Reply struct {
	Response *string `json:"response"`
}

// Text returns the reply content and whether there was any.
func (r Reply) Text() (string, bool) {
	if r.Response == nil || *r.Response == "" {
		return "", false
	}
	return *r.Response, true
}

// TextReply builds a Reply carrying s.
func TextReply(s string) Reply {
	return Reply{Response: &s}
}

// Backend issues exactly one call per Send and returns either a Reply or a
// *RequestError.
type Backend interface {
	Send(ctx context.Context, req Request) (Reply, error)
}

// RequestError covers every way a chat call can fail: transport errors,
// non-2xx statuses and unreadable bodies.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chat request to %s failed with status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("chat request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
