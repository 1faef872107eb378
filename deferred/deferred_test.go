package deferred_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsacre/mididings-sub000/deferred"
	"github.com/dsacre/mididings-sub000/event"
)

func TestCallNowReturnsFnResult(t *testing.T) {
	c := deferred.New(4, time.Hour, time.Second, func() {}, nil)
	out := c.CallNow(func(ev event.Event) []event.Event {
		return []event.Event{ev, ev}
	}, event.Event{Kind: event.NoteOn})
	assert.Len(t, out, 2)
}

func TestCallNowRecoversPanic(t *testing.T) {
	c := deferred.New(4, time.Hour, time.Second, func() {}, nil)
	out := c.CallNow(func(event.Event) []event.Event {
		panic("boom")
	}, event.Event{})
	assert.Nil(t, out)
}

func TestCallDeferredRunsOnWorker(t *testing.T) {
	var ran int32
	done := make(chan struct{})
	c := deferred.New(4, time.Hour, time.Second, func() {}, nil)
	c.Start()
	defer c.Stop()

	ok := c.CallDeferred(func(event.Event) []event.Event {
		atomic.StoreInt32(&ran, 1)
		close(done)
		return nil
	}, event.Event{})
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("deferred call never ran")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestCallDeferredDropsWhenQueueFull(t *testing.T) {
	c := deferred.New(1, time.Hour, time.Second, func() {}, nil)
	block := make(chan struct{})
	// No worker started: the queue never drains, so the second call finds it full.
	ok1 := c.CallDeferred(func(event.Event) []event.Event { <-block; return nil }, event.Event{})
	ok2 := c.CallDeferred(func(event.Event) []event.Event { return nil }, event.Event{})
	close(block)

	assert.True(t, ok1)
	assert.False(t, ok2)
	assert.Equal(t, uint64(1), c.Dropped())
}

func TestOnTickFiresOnTimer(t *testing.T) {
	ticked := make(chan struct{}, 1)
	c := deferred.New(4, 10*time.Millisecond, time.Second, func() {
		select {
		case ticked <- struct{}{}:
		default:
		}
	}, nil)
	c.Start()
	defer c.Stop()

	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("onTick never fired")
	}
}
