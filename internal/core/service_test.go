package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/conversation"
	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/internal/storage"
)

func waitForState(t *testing.T, eb *eventbus.EventBus, match func(eventbus.StateUpdateEvent) bool) eventbus.StateUpdateEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-eb.CoreToUI():
			if state, ok := ev.(eventbus.StateUpdateEvent); ok && match(state) {
				return state
			}
		case <-timeout:
			t.Fatal("timed out waiting for state update")
		}
	}
}

func startService(t *testing.T, st storage.Storage, b backend.Backend) (*ChatService, *eventbus.EventBus) {
	t.Helper()
	eb := eventbus.NewEventBus()
	svc := NewChatService(conversation.NewStore(st), b, eb, ServiceOptions{})
	svc.Start()
	t.Cleanup(func() {
		svc.Stop()
		svc.Wait()
	})
	return svc, eb
}

func TestChatServiceHydratesOnStart(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	require.NoError(t, mem.Write(ctx, conversation.DefaultKey, `[{"role":"user","content":"from last time"}]`))

	_, eb := startService(t, mem, &stubBackend{reply: backend.TextReply("hi")})

	state := waitForState(t, eb, func(s eventbus.StateUpdateEvent) bool { return true })
	assert.Equal(t, models.Log{models.NewUserMessage("from last time")}, state.Messages)
	assert.Equal(t, models.DefaultModel, state.Model)
	assert.False(t, state.Pending)
}

func TestChatServiceSendMessage(t *testing.T) {
	stub := &stubBackend{reply: backend.TextReply("hi")}
	_, eb := startService(t, storage.NewMemoryStorage(), stub)

	require.NoError(t, eb.SendToCore(eventbus.SelectModelEvent{Model: models.Mistral}))
	require.NoError(t, eb.SendToCore(eventbus.SendMessageEvent{Message: "hello"}))

	state := waitForState(t, eb, func(s eventbus.StateUpdateEvent) bool {
		return len(s.Messages) == 2 && !s.Pending
	})
	assert.Equal(t, models.NewAssistantMessage("hi"), state.Messages[1])
	assert.Equal(t, models.Mistral, state.Model)
	require.Len(t, stub.Calls(), 1)
	assert.Equal(t, models.Mistral, stub.Calls()[0].Model)
}

func TestChatServiceRejectsWhilePending(t *testing.T) {
	stub := &stubBackend{
		reply:   backend.TextReply("late"),
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	svc, eb := startService(t, storage.NewMemoryStorage(), stub)

	require.NoError(t, eb.SendToCore(eventbus.SendMessageEvent{Message: "first"}))
	<-stub.started

	require.NoError(t, eb.SendToCore(eventbus.SendMessageEvent{Message: "second"}))
	notice := waitForState(t, eb, func(s eventbus.StateUpdateEvent) bool { return s.Notice != "" })
	assert.True(t, notice.Pending)
	assert.Len(t, notice.Messages, 1)

	close(stub.gate)
	svc.Wait()

	assert.Len(t, stub.Calls(), 1)
}

func TestChatServiceClear(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	require.NoError(t, mem.Write(ctx, conversation.DefaultKey, `[{"role":"user","content":"old"}]`))
	_, eb := startService(t, mem, &stubBackend{reply: backend.TextReply("hi")})

	require.NoError(t, eb.SendToCore(eventbus.ClearChatEvent{}))

	waitForState(t, eb, func(s eventbus.StateUpdateEvent) bool { return len(s.Messages) == 0 })
	assert.False(t, mem.Has(conversation.DefaultKey))
}

func TestChatServiceIgnoresUnknownModel(t *testing.T) {
	svc, _ := startService(t, storage.NewMemoryStorage(), &stubBackend{})

	svc.SelectModel(models.ModelID("gpt-4o"))
	assert.Equal(t, models.DefaultModel, svc.Model())

	svc.SelectModel(models.GeminiFlash)
	assert.Equal(t, models.GeminiFlash, svc.Model())
}

func TestChatServiceWithoutBackend(t *testing.T) {
	svc, eb := startService(t, storage.NewMemoryStorage(), nil)
	assert.False(t, svc.IsReady())

	require.NoError(t, eb.SendToCore(eventbus.SendMessageEvent{Message: "hello"}))

	state := waitForState(t, eb, func(s eventbus.StateUpdateEvent) bool { return s.Notice != "" })
	assert.Equal(t, "Chat service not available", state.Notice)
	assert.Empty(t, state.Messages)
}

func TestChatServiceStopDropsPendingReply(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	started := make(chan struct{}, 1)
	b := backendFunc(func(ctx context.Context, req backend.Request) (backend.Reply, error) {
		started <- struct{}{}
		<-ctx.Done()
		return backend.Reply{}, ctx.Err()
	})

	eb := eventbus.NewEventBus()
	svc := NewChatService(conversation.NewStore(mem), b, eb, ServiceOptions{})
	svc.Start()

	require.NoError(t, eb.SendToCore(eventbus.SendMessageEvent{Message: "hello"}))
	<-started
	svc.Stop()
	svc.Wait()

	raw, err := mem.Read(ctx, conversation.DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":"hello"}]`, raw)
	assert.False(t, svc.IsProcessing())
}

func waitForSubmitResult(t *testing.T, eb *eventbus.EventBus) eventbus.SubmitResultEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-eb.CoreToUI():
			if result, ok := ev.(eventbus.SubmitResultEvent); ok {
				return result
			}
		case <-timeout:
			t.Fatal("timed out waiting for submit result")
		}
	}
}

func TestChatServiceReportsSubmitResults(t *testing.T) {
	stub := &stubBackend{
		reply:   backend.TextReply("late"),
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	svc, eb := startService(t, storage.NewMemoryStorage(), stub)

	require.NoError(t, eb.SendToCore(eventbus.SendMessageEvent{Message: "first"}))
	first := waitForSubmitResult(t, eb)
	assert.Equal(t, "first", first.Message)
	assert.NoError(t, first.Err)
	<-stub.started

	require.NoError(t, eb.SendToCore(eventbus.SendMessageEvent{Message: "second"}))
	second := waitForSubmitResult(t, eb)
	assert.Equal(t, "second", second.Message)
	assert.ErrorIs(t, second.Err, ErrRequestPending)

	close(stub.gate)
	svc.Wait()
}
