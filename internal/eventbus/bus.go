package eventbus

import (
	"errors"
	"sync"
	"time"

	"github.com/Rorical/RoriChat/internal/models"
)

// UIEvent represents events sent from UI to Core
type UIEvent interface {
	UIEvent()
}

// CoreEvent represents events sent from Core to UI
type CoreEvent interface {
	CoreEvent()
}

// SendMessageEvent - UI submits the input field
type SendMessageEvent struct {
	Message string
}

func (e SendMessageEvent) UIEvent() {}

// SelectModelEvent - UI changed the model selection
type SelectModelEvent struct {
	Model models.ModelID
}

func (e SelectModelEvent) UIEvent() {}

// ClearChatEvent - UI asked to wipe the transcript
type ClearChatEvent struct{}

func (e ClearChatEvent) UIEvent() {}

// StateUpdateEvent - Core pushes state changes to UI
type StateUpdateEvent struct {
	Messages models.Log
	Model    models.ModelID
	Pending  bool
	Notice   string
}

func (e StateUpdateEvent) CoreEvent() {}

// SubmitResultEvent - Core reports whether a SendMessageEvent was accepted.
// Err is nil when the message entered the transcript.
type SubmitResultEvent struct {
	Message string
	Err     error
}

func (e SubmitResultEvent) CoreEvent() {}

var (
	ErrBusFull   = errors.New("event bus channel is full")
	ErrBusClosed = errors.New("event bus is closed")
)

// EventBusError represents errors in event processing
type EventBusError struct {
	Operation string
	Err       error
	Timestamp time.Time
}

func (e EventBusError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e EventBusError) Unwrap() error { return e.Err }

// EventBus handles communication between UI and Core. Sends never block:
// a full channel is reported as an error.
type EventBus struct {
	mu            sync.RWMutex
	closed        bool
	uiToCore      chan UIEvent
	coreToUI      chan CoreEvent
	errorCallback func(EventBusError)
}

func NewEventBus() *EventBus {
	return NewEventBusWithCapacity(100)
}

func NewEventBusWithCapacity(capacity int) *EventBus {
	return &EventBus{
		uiToCore: make(chan UIEvent, capacity),
		coreToUI: make(chan CoreEvent, capacity),
	}
}

func (eb *EventBus) SetErrorCallback(callback func(EventBusError)) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.errorCallback = callback
}

func (eb *EventBus) reportError(operation string, err error) error {
	busError := EventBusError{
		Operation: operation,
		Err:       err,
		Timestamp: time.Now(),
	}
	if eb.errorCallback != nil {
		eb.errorCallback(busError)
	}
	return busError
}

func (eb *EventBus) SendToCore(event UIEvent) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return eb.reportError("SendToCore", ErrBusClosed)
	}

	select {
	case eb.uiToCore <- event:
		return nil
	default:
		return eb.reportError("SendToCore", ErrBusFull)
	}
}

func (eb *EventBus) SendToUI(event CoreEvent) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return eb.reportError("SendToUI", ErrBusClosed)
	}

	select {
	case eb.coreToUI <- event:
		return nil
	default:
		return eb.reportError("SendToUI", ErrBusFull)
	}
}

func (eb *EventBus) UIToCore() <-chan UIEvent {
	return eb.uiToCore
}

func (eb *EventBus) CoreToUI() <-chan CoreEvent {
	return eb.coreToUI
}

// Close closes both channels. Later sends fail with ErrBusClosed.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	close(eb.uiToCore)
	close(eb.coreToUI)
}
