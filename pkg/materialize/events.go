package materialize

import (
	"context"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
)

// Hooks observes occurrence lifecycle events. Hooks run synchronously on the
// writer goroutine and must not block.
type Hooks interface {
	OnMaterialized(ctx context.Context, e *core.OccurrenceMaterialized)
	OnFailed(ctx context.Context, e *core.OccurrenceFailed)
	OnRetrying(ctx context.Context, e *core.OccurrenceRetrying)
}

// Events returns a channel for receiving materialization events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (m *Materializer) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	m.mu.Lock()
	m.eventSubs = append(m.eventSubs, ch)
	m.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed.
func (m *Materializer) Unsubscribe(ch <-chan core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.eventSubs {
		if sub == ch {
			m.eventSubs = append(m.eventSubs[:i], m.eventSubs[i+1:]...)
			return
		}
	}
}

func (m *Materializer) emit(ctx context.Context, e core.Event) {
	for _, h := range m.config.Hooks {
		switch ev := e.(type) {
		case *core.OccurrenceMaterialized:
			h.OnMaterialized(ctx, ev)
		case *core.OccurrenceFailed:
			h.OnFailed(ctx, ev)
		case *core.OccurrenceRetrying:
			h.OnRetrying(ctx, ev)
		}
	}

	m.mu.RLock()
	subs := make([]chan core.Event, len(m.eventSubs))
	copy(subs, m.eventSubs)
	m.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop if full
		}
	}
}
