// Package toast holds short-lived UI messages that expire on their own.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/claims-portal/internal/model"
)

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Store is an in-memory list of active toasts, oldest first.
type Store struct {
	mu              sync.Mutex
	toasts          []model.Toast
	cancels         map[string]func() bool
	defaultDuration time.Duration
	afterFunc       AfterFunc
	now             func() time.Time
	changes         chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithDefaultDuration sets the lifetime of drafts without a duration.
func WithDefaultDuration(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.defaultDuration = d
		}
	}
}

// WithAfterFunc replaces the expiry timer implementation.
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Store) { s.afterFunc = f }
}

// New creates an empty toast store.
func New(opts ...Option) *Store {
	s := &Store{
		cancels:         make(map[string]func() bool),
		defaultDuration: model.DefaultToastDuration,
		afterFunc:       realAfterFunc,
		now:             time.Now,
		changes:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddToast appends a toast built from draft and schedules its removal.
func (s *Store) AddToast(draft model.ToastDraft) model.Toast {
	t := model.Toast{
		ID:        uuid.New().String(),
		Type:      draft.Type,
		Title:     draft.Title,
		Message:   draft.Message,
		Duration:  draft.Duration,
		CreatedAt: s.now(),
	}
	if t.Type == "" {
		t.Type = model.ToastTypeInfo
	}
	if t.Duration == 0 {
		t.Duration = s.defaultDuration
	}

	s.mu.Lock()
	s.toasts = append(s.toasts, t)
	if t.Duration > 0 {
		id := t.ID
		s.cancels[id] = s.afterFunc(t.Duration, func() { s.Remove(id) })
	}
	s.mu.Unlock()

	s.notify()
	return t
}

// Remove deletes the toast with id. It reports whether a toast was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	idx := -1
	for i, t := range s.toasts {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.toasts = append(s.toasts[:idx], s.toasts[idx+1:]...)
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	s.mu.Unlock()

	s.notify()
	return true
}

// List returns a copy of the active toasts, oldest first.
func (s *Store) List() []model.Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Toast, len(s.toasts))
	copy(out, s.toasts)
	return out
}

// Changes returns a channel that receives a value whenever the set of
// toasts changes. Notifications coalesce; readers should call List.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// Close cancels all pending expiry timers and drops every toast.
func (s *Store) Close() {
	s.mu.Lock()
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
	s.toasts = nil
	s.mu.Unlock()
}

func (s *Store) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
