// Package conversation owns the chat transcript and keeps it mirrored into
// a durable storage slot.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/internal/storage"
)

const DefaultKey = "chat_history"

// HydrationError describes a stored transcript that could not be restored.
type HydrationError struct {
	Key string
	Err error
}

func (e *HydrationError) Error() string {
	return fmt.Sprintf("hydrate %s: %v", e.Key, e.Err)
}

func (e *HydrationError) Unwrap() error { return e.Err }

// Store holds the current transcript. Every mutation is written through to
// storage before the mutating call returns; storage failures are logged and
// never undo the in-memory change.
type Store struct {
	storage storage.Storage
	key     string
	logger  *log.Logger

	mu        sync.RWMutex
	log       models.Log
	observers []func(models.Log)
}

type Option func(*Store)

// WithKey overrides the storage slot name.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: st,
		key:     DefaultKey,
		logger:  log.New(io.Discard, "", 0),
		log:     models.Log{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads the transcript from storage and makes it current. A missing
// slot or unreadable value yields an empty log; the cause is logged only.
func (s *Store) Hydrate(ctx context.Context) models.Log {
	restored, err := s.load(ctx)
	if err != nil {
		s.logger.Printf("[conversation] %v", err)
		restored = models.Log{}
	}

	s.mu.Lock()
	s.log = restored
	s.mu.Unlock()

	return restored.Clone()
}

func (s *Store) load(ctx context.Context) (models.Log, error) {
	raw, err := s.storage.Read(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Log{}, nil
	}
	if err != nil {
		return nil, &HydrationError{Key: s.key, Err: err}
	}
	restored, err := models.DecodeLog([]byte(raw))
	if err != nil {
		return nil, &HydrationError{Key: s.key, Err: err}
	}
	return restored, nil
}

// Append adds msg to the end of the transcript, persists the result and
// returns it.
func (s *Store) Append(ctx context.Context, msg models.Message) models.Log {
	s.mu.Lock()
	s.log = s.log.Append(msg)
	current := s.log
	if err := s.Persist(ctx, current); err != nil {
		s.logger.Printf("[conversation] persist after append: %v", err)
	}
	s.mu.Unlock()

	s.notify(current)
	return current.Clone()
}

// Clear empties the transcript and removes the storage slot entirely, so a
// later Hydrate behaves like a first run.
func (s *Store) Clear(ctx context.Context) models.Log {
	s.mu.Lock()
	s.log = models.Log{}
	if err := s.storage.Remove(ctx, s.key); err != nil {
		s.logger.Printf("[conversation] remove %s: %v", s.key, err)
	}
	s.mu.Unlock()

	s.notify(models.Log{})
	return models.Log{}
}

// Persist serializes transcript and overwrites the storage slot.
func (s *Store) Persist(ctx context.Context, transcript models.Log) error {
	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	if err := s.storage.Write(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// Messages returns a copy of the current transcript.
func (s *Store) Messages() models.Log {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.Clone()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log)
}

// OnChange registers fn to be called with a copy of the transcript after
// every mutation. Callbacks run on the mutating goroutine.
func (s *Store) OnChange(fn func(models.Log)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) notify(current models.Log) {
	s.mu.RLock()
	observers := make([]func(models.Log), len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(current.Clone())
	}
}
