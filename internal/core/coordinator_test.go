package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/conversation"
	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/internal/storage"
)

// stubBackend records calls and, when gate is set, blocks each call until
// the test releases it.
type stubBackend struct {
	mu      sync.Mutex
	calls   []backend.Request
	reply   backend.Reply
	err     error
	started chan struct{}
	gate    chan struct{}
}

func (s *stubBackend) Send(ctx context.Context, req backend.Request) (backend.Reply, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	return s.reply, s.err
}

func (s *stubBackend) Calls() []backend.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backend.Request, len(s.calls))
	copy(out, s.calls)
	return out
}

func newCoordinator(t *testing.T, b backend.Backend, opts ...CoordinatorOption) (*Coordinator, *conversation.Store) {
	t.Helper()
	store := conversation.NewStore(storage.NewMemoryStorage())
	store.Hydrate(context.Background())
	return NewCoordinator(store, b, opts...), store
}

func TestSubmitBlankInputIsNoop(t *testing.T) {
	stub := &stubBackend{reply: backend.TextReply("hi")}
	c, store := newCoordinator(t, stub)

	for _, input := range []string{"", "   ", "\n\t "} {
		_, err := c.Submit(context.Background(), input, models.OpenLlama)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}

	assert.Empty(t, store.Messages())
	assert.Empty(t, stub.Calls())
	assert.False(t, c.IsProcessing())
}

func TestSubmitSuccess(t *testing.T) {
	stub := &stubBackend{reply: backend.TextReply("hi")}
	c, store := newCoordinator(t, stub)

	msg, err := c.Submit(context.Background(), "hello", models.Mistral)

	require.NoError(t, err)
	assert.Equal(t, models.NewAssistantMessage("hi"), msg)
	assert.Equal(t, models.Log{
		models.NewUserMessage("hello"),
		models.NewAssistantMessage("hi"),
	}, store.Messages())
	assert.Equal(t, []backend.Request{
		{Message: "hello", Model: models.Mistral, SessionID: backend.DefaultSessionID},
	}, stub.Calls())
	assert.False(t, c.IsProcessing())
}

func TestSubmitKeepsUntrimmedText(t *testing.T) {
	stub := &stubBackend{reply: backend.TextReply("ok")}
	c, store := newCoordinator(t, stub)

	_, err := c.Submit(context.Background(), "  padded  ", models.OpenLlama)

	require.NoError(t, err)
	assert.Equal(t, "  padded  ", store.Messages()[0].Content)
	assert.Equal(t, "  padded  ", stub.Calls()[0].Message)
}

func TestSubmitMissingResponseUsesNoReplySentinel(t *testing.T) {
	stub := &stubBackend{reply: backend.Reply{}}
	c, store := newCoordinator(t, stub)

	_, err := c.Submit(context.Background(), "hello", models.OpenLlama)

	require.NoError(t, err)
	assert.Equal(t, models.NewAssistantMessage(NoReplySentinel), store.Messages()[1])
	assert.NoError(t, c.LastError())
}

func TestSubmitBackendErrorUsesErrorSentinel(t *testing.T) {
	stub := &stubBackend{err: &backend.RequestError{Endpoint: "x", Err: errors.New("connection refused")}}
	c, store := newCoordinator(t, stub)

	msg, err := c.Submit(context.Background(), "hello", models.OpenLlama)

	require.NoError(t, err, "request failures are absorbed into the transcript")
	assert.Equal(t, ErrorSentinel, msg.Content)
	assert.Len(t, store.Messages(), 2)
	assert.Error(t, c.LastError())
	assert.False(t, c.IsProcessing())
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.NotEqual(t, NoReplySentinel, ErrorSentinel)
}

func TestSubmitAgainstHTTPBackend(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		model  models.ModelID
		want   string
	}{
		{name: "reply", status: 200, body: `{"response":"hi"}`, model: models.Mistral, want: "hi"},
		{name: "server error", status: 500, body: `{"detail":"boom"}`, model: models.OpenLlama, want: ErrorSentinel},
		{name: "missing field", status: 200, body: `{}`, model: models.GeminiFlash, want: NoReplySentinel},
		{name: "malformed", status: 200, body: `not json`, model: models.DeepseekLlama70B, want: ErrorSentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, store := newCoordinator(t, backend.NewHTTPBackend(server.URL))
			_, err := c.Submit(context.Background(), "hello", tt.model)

			require.NoError(t, err)
			assert.Equal(t, models.Log{
				models.NewUserMessage("hello"),
				models.NewAssistantMessage(tt.want),
			}, store.Messages())
		})
	}
}

func TestSubmitWhilePendingIsNoop(t *testing.T) {
	stub := &stubBackend{
		reply:   backend.TextReply("first reply"),
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	c, store := newCoordinator(t, stub)

	done := make(chan models.Message, 1)
	go func() {
		msg, err := c.Submit(context.Background(), "first", models.OpenLlama)
		assert.NoError(t, err)
		done <- msg
	}()

	select {
	case <-stub.started:
	case <-time.After(5 * time.Second):
		t.Fatal("backend was never called")
	}

	pending, ok := c.Pending()
	require.True(t, ok)
	assert.Equal(t, PendingRequest{InputText: "first", Model: models.OpenLlama}, pending)

	before := store.Messages()
	_, err := c.Submit(context.Background(), "second", models.Mistral)
	assert.ErrorIs(t, err, ErrRequestPending)
	assert.Equal(t, before, store.Messages(), "rejected submission must not touch the log")
	assert.Len(t, stub.Calls(), 1, "rejected submission must not reach the backend")

	close(stub.gate)
	select {
	case msg := <-done:
		assert.Equal(t, "first reply", msg.Content)
	case <-time.After(5 * time.Second):
		t.Fatal("first submission never resolved")
	}

	assert.Equal(t, models.Log{
		models.NewUserMessage("first"),
		models.NewAssistantMessage("first reply"),
	}, store.Messages())

	// affordance is available again
	stub.started = nil
	stub.gate = nil
	_, err = c.Submit(context.Background(), "third", models.Mistral)
	require.NoError(t, err)
	assert.Len(t, store.Messages(), 4)
}

func TestUserAppendPrecedesNetworkCall(t *testing.T) {
	store := conversation.NewStore(storage.NewMemoryStorage())
	var seenAtCall int
	b := backendFunc(func(ctx context.Context, req backend.Request) (backend.Reply, error) {
		seenAtCall = store.Len()
		return backend.TextReply("ok"), nil
	})
	c := NewCoordinator(store, b)

	_, err := c.Submit(context.Background(), "hello", models.OpenLlama)

	require.NoError(t, err)
	assert.Equal(t, 1, seenAtCall, "user entry is appended before the backend is called")
}

func TestPendingObserver(t *testing.T) {
	var events []bool
	stub := &stubBackend{reply: backend.TextReply("hi")}
	c, _ := newCoordinator(t, stub, WithPendingObserver(func(p bool) { events = append(events, p) }))

	_, err := c.Submit(context.Background(), "hello", models.OpenLlama)
	require.NoError(t, err)
	_, _ = c.Submit(context.Background(), " ", models.OpenLlama)

	assert.Equal(t, []bool{true, false}, events)
}

func TestWithSessionID(t *testing.T) {
	stub := &stubBackend{reply: backend.TextReply("hi")}
	c, _ := newCoordinator(t, stub, WithSessionID("abc"))

	_, err := c.Submit(context.Background(), "hello", models.OpenLlama)
	require.NoError(t, err)

	assert.Equal(t, "abc", stub.Calls()[0].SessionID)
	assert.Equal(t, "abc", c.SessionID())
}

type backendFunc func(ctx context.Context, req backend.Request) (backend.Reply, error)

func (f backendFunc) Send(ctx context.Context, req backend.Request) (backend.Reply, error) {
	return f(ctx, req)
}

func TestResolveAbandonedOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := backendFunc(func(ctx context.Context, req backend.Request) (backend.Reply, error) {
		cancel()
		<-ctx.Done()
		return backend.Reply{}, ctx.Err()
	})
	c, store := newCoordinator(t, b)

	msg, err := c.Submit(ctx, "hello", models.OpenLlama)
	require.NoError(t, err)

	assert.Equal(t, models.Message{}, msg)
	assert.Equal(t, models.Log{models.NewUserMessage("hello")}, store.Messages())
	assert.False(t, c.IsProcessing())
	assert.ErrorIs(t, c.LastError(), context.Canceled)
}
