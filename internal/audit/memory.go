package audit

import (
	"context"
	"sync"

	id "commune/pkg/domain"
)

// InMemoryRecorder captures events for tests.
type InMemoryRecorder struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

func (r *InMemoryRecorder) Emit(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *InMemoryRecorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event{}, r.events...)
}

// ByMember filters recorded events to one member.
func (r *InMemoryRecorder) ByMember(member id.MemberID) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, e := range r.events {
		if e.Member == member {
			out = append(out, e)
		}
	}
	return out
}
