package event

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Handler func(ctx context.Context, event Event) error

// Bus delivers job lifecycle events to in-process subscribers. Delivery is
// synchronous on the publishing goroutine; handlers must not block on the
// pipeline they observe.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())
}

func NewBus() Bus {
	return &inProcessBus{
		subs: make(map[EventType][]subscription),
	}
}

type subscription struct {
	id      uint64
	handler Handler
}

type inProcessBus struct {
	mu     sync.RWMutex
	subs   map[EventType][]subscription
	nextID uint64
}

func (b *inProcessBus) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs[event.Type]))
	copy(subs, b.subs[event.Type])
	b.mu.RUnlock()

	// A broken handler never blocks delivery to the rest.
	for _, sub := range subs {
		if err := sub.handler(ctx, event); err != nil {
			log.Error().Err(err).
				Str("event", string(event.Type)).
				Str("job_id", event.Job.JobID).
				Msg("event handler error")
		}
	}
	return nil
}

func (b *inProcessBus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[eventType]
		for i, s := range subs {
			if s.id == id {
				b.subs[eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}
