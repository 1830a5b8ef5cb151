package core

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/conversation"
	"github.com/Rorical/RoriChat/internal/eventbus"
	"github.com/Rorical/RoriChat/internal/models"
)

// ErrNoBackend rejects submissions when no backend is configured.
var ErrNoBackend = errors.New("chat service not available")

// ServiceOptions configures a ChatService.
type ServiceOptions struct {
	Model     models.ModelID
	SessionID string
	Logger    *log.Logger
}

// ChatService bridges UI events to the conversation store and the request
// coordinator, and pushes every resulting state change back to the UI.
type ChatService struct {
	store       *conversation.Store
	coordinator *Coordinator
	eventBus    *eventbus.EventBus
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	inflight    sync.WaitGroup

	mu    sync.RWMutex
	model models.ModelID
}

// NewChatService creates a ChatService. b may be nil when no backend is
// configured; the service then rejects submissions with a notice.
func NewChatService(store *conversation.Store, b backend.Backend, eb *eventbus.EventBus, opts ServiceOptions) *ChatService {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	model := opts.Model
	if !model.Valid() {
		model = models.DefaultModel
	}

	ctx, cancel := context.WithCancel(context.Background())
	cs := &ChatService{
		store:    store,
		eventBus: eb,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		model:    model,
	}

	if b != nil {
		cs.coordinator = NewCoordinator(store, b,
			WithSessionID(opts.SessionID),
			WithCoordinatorLogger(logger),
			WithPendingObserver(func(bool) { cs.pushStateToUI(cs.store.Messages(), "") }),
		)
	}

	store.OnChange(func(l models.Log) { cs.pushStateToUI(l, "") })
	return cs
}

// Start restores the transcript, sends the initial state to the UI and runs
// the event loop in a goroutine.
func (cs *ChatService) Start() {
	restored := cs.store.Hydrate(cs.ctx)
	cs.pushStateToUI(restored, "")
	go cs.eventLoop()
}

// Stop ends the event loop. Requests already sent are not cancelled by the
// core; the shared context is, so the transport gives up.
func (cs *ChatService) Stop() {
	cs.cancel()
}

// Wait blocks until every accepted request has resolved.
func (cs *ChatService) Wait() {
	cs.inflight.Wait()
}

func (cs *ChatService) eventLoop() {
	for {
		select {
		case <-cs.ctx.Done():
			return
		case event, ok := <-cs.eventBus.UIToCore():
			if !ok {
				return
			}
			cs.handleUIEvent(event)
		}
	}
}

func (cs *ChatService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.SendMessageEvent:
		cs.processMessage(e.Message)
	case eventbus.SelectModelEvent:
		cs.SelectModel(e.Model)
	case eventbus.ClearChatEvent:
		cs.store.Clear(cs.ctx)
	}
}

func (cs *ChatService) processMessage(text string) {
	if cs.coordinator == nil {
		cs.pushStateToUI(cs.store.Messages(), "Chat service not available")
		cs.pushSubmitResult(text, ErrNoBackend)
		return
	}

	p, err := cs.coordinator.Accept(cs.ctx, text, cs.Model())
	switch {
	case errors.Is(err, ErrEmptyInput):
	case errors.Is(err, ErrRequestPending):
		cs.pushStateToUI(cs.store.Messages(), "Still waiting for the previous reply")
	case err != nil:
		cs.logger.Printf("[core] submission rejected: %v", err)
	}
	cs.pushSubmitResult(text, err)
	if err != nil {
		return
	}

	cs.inflight.Add(1)
	go func() {
		defer cs.inflight.Done()
		cs.coordinator.Resolve(cs.ctx, p)
	}()
}

func (cs *ChatService) pushSubmitResult(text string, err error) {
	if sendErr := cs.eventBus.SendToUI(eventbus.SubmitResultEvent{Message: text, Err: err}); sendErr != nil {
		cs.logger.Printf("[core] error sending submit result to UI: %v", sendErr)
	}
}

// SelectModel changes the model used by later submissions. Values outside
// the known set are ignored.
func (cs *ChatService) SelectModel(id models.ModelID) {
	if !id.Valid() {
		cs.logger.Printf("[core] ignoring unknown model %q", id)
		return
	}
	cs.mu.Lock()
	cs.model = id
	cs.mu.Unlock()
	cs.pushStateToUI(cs.store.Messages(), "")
}

func (cs *ChatService) Model() models.ModelID {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.model
}

func (cs *ChatService) IsReady() bool {
	return cs.coordinator != nil
}

func (cs *ChatService) IsProcessing() bool {
	return cs.coordinator != nil && cs.coordinator.IsProcessing()
}

func (cs *ChatService) pushStateToUI(messages models.Log, notice string) {
	if err := cs.eventBus.SendToUI(eventbus.StateUpdateEvent{
		Messages: messages,
		Model:    cs.Model(),
		Pending:  cs.IsProcessing(),
		Notice:   notice,
	}); err != nil {
		cs.logger.Printf("[core] error sending state to UI: %v", err)
	}
}
