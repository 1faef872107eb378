// Package memory implements an in-process backend.Backend over channels,
// used by the engine's own tests and by any caller that wants to drive the
// engine without a real MIDI transport. Grounded on engine.cc's
// process_event, whose whole point is bypassing a real backend.
package memory

import (
	"context"
	"sync"

	"github.com/dsacre/mididings-sub000/backend"
	"github.com/dsacre/mididings-sub000/event"
)

// Backend is a backend.Backend backed by one buffered channel and a slice:
// Send feeds InputEvent through the channel, and OutputEvent appends to the
// slice that Received copies.
type Backend struct {
	in       chan event.Event
	numPorts int

	mu       sync.Mutex
	received []event.Event
	closed   bool
}

// New returns a Backend with the given input queue depth and output port
// count.
func New(queueDepth, numPorts int) *Backend {
	return &Backend{in: make(chan event.Event, queueDepth), numPorts: numPorts}
}

func (b *Backend) Start() error { return nil }

func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.in)
	}
	return nil
}

// Send enqueues ev for a future InputEvent call. It panics if called after
// Stop, like sending on any closed channel.
func (b *Backend) Send(ev event.Event) { b.in <- ev }

func (b *Backend) InputEvent(ctx context.Context) (event.Event, error) {
	select {
	case ev, ok := <-b.in:
		if !ok {
			return event.Event{}, backend.ErrClosed
		}
		return ev, nil
	case <-ctx.Done():
		return event.Event{}, ctx.Err()
	}
}

func (b *Backend) OutputEvent(ev event.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.received = append(b.received, ev)
	return nil
}

func (b *Backend) NumOutPorts() int { return b.numPorts }

// Received returns a copy of every event OutputEvent has recorded so far.
func (b *Backend) Received() []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event.Event(nil), b.received...)
}
