package viewmodel

import (
	"context"
	"sync"
)

// EventKind names a change to the persisted student set.
type EventKind string

const (
	EventUploaded EventKind = "students_uploaded"
	EventCleared  EventKind = "students_cleared"
)

// Event is published by the upload panel after the backend confirmed a change.
type Event struct {
	Kind        EventKind
	RecordCount int64
}

// Listener reacts to an Event. It runs synchronously on the publishing call.
type Listener func(ctx context.Context, ev Event)

// broadcaster is a one-directional publish point; listeners never publish back.
type broadcaster struct {
	listenersMu sync.RWMutex
	listeners   []Listener
}

// Subscribe registers l for every future event.
func (b *broadcaster) Subscribe(l Listener) {
	if l == nil {
		return
	}
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *broadcaster) publish(ctx context.Context, ev Event) {
	b.listenersMu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.listenersMu.RUnlock()

	for _, l := range listeners {
		l(ctx, ev)
	}
}
