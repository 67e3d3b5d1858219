package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Bus fans changes out to in-process subscribers. Delivery never blocks the
// publisher: a subscriber whose buffer is full misses the change.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscription
	nextID int
	logger *slog.Logger
}

type subscription struct {
	resources []Resource
	ch        chan Change
}

func (s *subscription) wants(r Resource) bool {
	return len(s.resources) == 0 || slices.Contains(s.resources, r)
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[int]*subscription),
		logger: logger,
	}
}

// Subscribe returns a channel receiving changes to the given resources (all
// resources when none are given) and a cancel func that closes it.
func (b *Bus) Subscribe(buffer int, resources ...Resource) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscription{resources: resources, ch: make(chan Change, buffer)}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}

func (b *Bus) Publish(ctx context.Context, c Change) error {
	if err := c.Validate(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.wants(c.Resource) {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			b.logger.WarnContext(ctx, "Dropping change for slow subscriber",
				"component", "events",
				"resource", c.Resource,
				"user_id", c.UserID)
		}
	}
	return nil
}

// Subscribers reports the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
