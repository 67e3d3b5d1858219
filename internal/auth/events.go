package auth

import "time"

type EventKind string

const (
	EventSignedIn    EventKind = "signed_in"
	EventSignedOut   EventKind = "signed_out"
	EventUserUpdated EventKind = "user_updated"
)

type Event struct {
	Kind   EventKind
	UserID string
	At     time.Time
}

// Subscribe returns a channel of session-state events and a cancel func.
// Sends never block: a full subscriber misses events.
func (s *Service) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *Service) emit(e Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
