// Package deferred implements the engine's async-callback worker: a bounded
// queue fed from the RT thread and drained by a dedicated goroutine, which
// also wakes the engine on a fixed interval so a pending scene switch gets
// applied even when the RT thread itself is idle. Grounded on
// trunk/src/python_caller.cc / python_caller.hh.
package deferred

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dsacre/mididings-sub000/event"
)

// Func is a user engine-control callback: given the triggering event it
// returns zero, one, or many replacement events.
type Func func(event.Event) []event.Event

type call struct {
	id uuid.UUID
	fn Func
	ev event.Event
}

// Caller owns the bounded async-call queue and its worker goroutine.
type Caller struct {
	queue        chan call
	quit         chan struct{}
	wg           sync.WaitGroup
	tickInterval time.Duration
	joinTimeout  time.Duration
	onTick       func()
	logger       *log.Logger

	dropped uint64
}

// New returns a Caller with the given queue capacity. onTick is invoked
// from the worker goroutine after draining a call and after every idle
// tick, so it must be safe to call repeatedly and must not block for long —
// it is expected to be the engine's "apply any pending scene switch" hook.
func New(capacity int, tickInterval, joinTimeout time.Duration, onTick func(), logger *log.Logger) *Caller {
	if logger == nil {
		logger = log.Default()
	}
	return &Caller{
		queue:        make(chan call, capacity),
		quit:         make(chan struct{}),
		tickInterval: tickInterval,
		joinTimeout:  joinTimeout,
		onTick:       onTick,
		logger:       logger,
	}
}

// Start launches the worker goroutine.
func (c *Caller) Start() {
	c.wg.Add(1)
	go c.run()
}

// Stop signals the worker to exit and waits up to joinTimeout for it to do
// so, logging (but not blocking forever) if it doesn't.
func (c *Caller) Stop() {
	close(c.quit)
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(c.joinTimeout):
		c.logger.Printf("deferred: worker did not stop within %s", c.joinTimeout)
	}
}

// CallNow runs fn synchronously on the calling goroutine, recovering a
// panic the way the original recovers a Python exception: log it and treat
// the call as having produced no replacement events.
func (c *Caller) CallNow(fn Func, ev event.Event) (result []event.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("deferred: call_now callback panicked: %v", r)
			result = nil
		}
	}()
	return fn(ev)
}

// CallDeferred enqueues fn for the worker goroutine to run later and
// returns immediately without waiting — this is the call RT code takes, and
// it must never block. It reports whether the call was accepted; a full
// queue silently drops the call (only counted), matching call_deferred's
// write_space() check.
func (c *Caller) CallDeferred(fn Func, ev event.Event) bool {
	id := uuid.New()
	select {
	case c.queue <- call{id: id, fn: fn, ev: ev}:
		return true
	default:
		atomic.AddUint64(&c.dropped, 1)
		c.logger.Printf("deferred: queue full, dropping call %s", id)
		return false
	}
}

// Dropped returns how many deferred calls have been dropped for lack of
// queue space.
func (c *Caller) Dropped() uint64 { return atomic.LoadUint64(&c.dropped) }

func (c *Caller) run() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.quit:
			return
		case call := <-c.queue:
			c.invoke(call)
			c.onTick()
		case <-ticker.C:
			c.onTick()
		}
	}
}

func (c *Caller) invoke(call call) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("deferred: call %s panicked: %v", call.id, r)
		}
	}()
	call.fn(call.ev)
}
