package core

import (
	"sync"

	"github.com/Rorical/RoriChat/internal/models"
)

// PendingRequest marks the one request currently in flight.
type PendingRequest struct {
	InputText string
	Model     models.ModelID
}

// ChatState tracks the in-flight request and the last request failure.
// Its existence check is the only backpressure the coordinator applies.
type ChatState struct {
	mu        sync.RWMutex
	pending   *PendingRequest
	lastError error
}

func NewChatState() *ChatState {
	return &ChatState{}
}

// StartProcessing records p as in flight. It returns false, changing
// nothing, when another request is already pending.
func (cs *ChatState) StartProcessing(p PendingRequest) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.pending != nil {
		return false
	}
	cs.pending = &p
	cs.lastError = nil
	return true
}

func (cs *ChatState) FinishProcessing() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.pending = nil
}

func (cs *ChatState) FinishProcessingWithError(err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.pending = nil
	cs.lastError = err
}

func (cs *ChatState) IsProcessing() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.pending != nil
}

// Pending returns a copy of the in-flight request, if any.
func (cs *ChatState) Pending() (PendingRequest, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.pending == nil {
		return PendingRequest{}, false
	}
	return *cs.pending, true
}

func (cs *ChatState) GetLastError() error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.lastError
}
