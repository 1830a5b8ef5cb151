package core

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/conversation"
	"github.com/Rorical/RoriChat/internal/models"
)

// Transcript content used when no real reply is available.
const (
	NoReplySentinel = "⚠️ No response from backend"
	ErrorSentinel   = "⚠️ Error connecting to backend"
)

var (
	// ErrEmptyInput rejects a submission whose text is blank after trimming.
	ErrEmptyInput = errors.New("message is empty")
	// ErrRequestPending rejects a submission made while another is in flight.
	ErrRequestPending = errors.New("a request is already in flight")
)

// Coordinator turns a submission into exactly two transcript entries: the
// user's message, then one assistant reply or sentinel. At most one
// submission is in flight at a time; extra submissions are rejected, not
// queued.
type Coordinator struct {
	store     *conversation.Store
	backend   backend.Backend
	state     *ChatState
	sessionID string
	logger    *log.Logger
	observers []func(pending bool)
}

type CoordinatorOption func(*Coordinator)

func WithSessionID(id string) CoordinatorOption {
	return func(c *Coordinator) {
		if id != "" {
			c.sessionID = id
		}
	}
}

func WithCoordinatorLogger(l *log.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// WithPendingObserver registers fn to be told whenever a request starts or
// finishes.
func WithPendingObserver(fn func(pending bool)) CoordinatorOption {
	return func(c *Coordinator) { c.observers = append(c.observers, fn) }
}

func NewCoordinator(store *conversation.Store, b backend.Backend, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:     store,
		backend:   b,
		state:     NewChatState(),
		sessionID: backend.DefaultSessionID,
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit runs a whole submission and blocks until the reply (or sentinel)
// has been appended. Rejected submissions return ErrEmptyInput or
// ErrRequestPending and leave everything untouched. Backend failures are
// never returned; they show up as ErrorSentinel in the transcript.
func (c *Coordinator) Submit(ctx context.Context, input string, model models.ModelID) (models.Message, error) {
	p, err := c.Accept(ctx, input, model)
	if err != nil {
		return models.Message{}, err
	}
	return c.Resolve(ctx, p), nil
}

// Accept validates a submission, marks it pending and appends the user's
// message. The caller must pass the result to Resolve.
func (c *Coordinator) Accept(ctx context.Context, input string, model models.ModelID) (PendingRequest, error) {
	if strings.TrimSpace(input) == "" {
		return PendingRequest{}, ErrEmptyInput
	}

	p := PendingRequest{InputText: input, Model: model}
	if !c.state.StartProcessing(p) {
		return PendingRequest{}, ErrRequestPending
	}

	c.logger.Printf("[core] sending message with model %s", model)
	c.store.Append(ctx, models.NewUserMessage(input))
	c.notify(true)
	return p, nil
}

// Resolve issues the backend call for p, appends exactly one assistant
// entry and clears the pending marker. If ctx ends before the backend
// answers, the request is abandoned: nothing is appended and the zero
// Message is returned.
func (c *Coordinator) Resolve(ctx context.Context, p PendingRequest) models.Message {
	reply, err := c.backend.Send(ctx, backend.Request{
		Message:   p.InputText,
		Model:     p.Model,
		SessionID: c.sessionID,
	})

	if err != nil && ctx.Err() != nil {
		c.logger.Printf("[core] request abandoned: %v", err)
		c.state.FinishProcessingWithError(err)
		c.notify(false)
		return models.Message{}
	}

	var msg models.Message
	if err != nil {
		c.logger.Printf("[core] request failed: %v", err)
		msg = models.NewAssistantMessage(ErrorSentinel)
	} else if text, ok := reply.Text(); ok {
		msg = models.NewAssistantMessage(text)
	} else {
		c.logger.Printf("[core] backend reply had no response field")
		msg = models.NewAssistantMessage(NoReplySentinel)
	}

	c.store.Append(ctx, msg)

	if err != nil {
		c.state.FinishProcessingWithError(err)
	} else {
		c.state.FinishProcessing()
	}
	c.notify(false)
	return msg
}

func (c *Coordinator) Pending() (PendingRequest, bool) {
	return c.state.Pending()
}

func (c *Coordinator) IsProcessing() bool {
	return c.state.IsProcessing()
}

// LastError returns the failure of the most recent request, if it failed.
func (c *Coordinator) LastError() error {
	return c.state.GetLastError()
}

func (c *Coordinator) SessionID() string {
	return c.sessionID
}

func (c *Coordinator) notify(pending bool) {
	for _, fn := range c.observers {
		fn(pending)
	}
}
