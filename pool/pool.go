// Package pool implements the RT-safe fixed-capacity allocator backing the
// engine's event buffer: O(1) stack-discipline allocation over a static
// slab, falling back to the heap once the slab is exhausted. Grounded on
// trunk/src/curious_alloc.hh.
//
// The allocator is "curious" because deallocation only reclaims a slot when
// it is freed in the same order it was allocated (stack discipline). A
// buffer that frees out of order simply leaks that slab slot until the
// buffer drains back to empty, at which point the whole slab is available
// again. This is safe for the engine's use because the event buffer is
// itself drained to empty at the top of every RT cycle.
package pool

import (
	"sync/atomic"

	"github.com/dsacre/mididings-sub000/event"
)

// Pool is not safe for concurrent Alloc/Free calls; by contract only the RT
// thread ever calls them. Diagnostic counters use atomics so other
// goroutines can read them for monitoring without synchronizing with the RT
// thread.
type Pool struct {
	slab []event.Event
	top  int // slab stack pointer: only ever reclaimed in allocation order
	live int // count of allocations (slab or heap fallback) not yet freed

	fallbacks uint64
	highWater uint64
}

// New returns a Pool backed by a slab of the given capacity.
func New(capacity int) *Pool {
	return &Pool{slab: make([]event.Event, capacity)}
}

// Alloc returns a pointer to a zeroed Event. Once the slab is exhausted it
// falls back to a heap allocation and counts the fallback.
func (p *Pool) Alloc() *event.Event {
	p.live++
	if p.top < len(p.slab) {
		e := &p.slab[p.top]
		*e = event.Event{}
		p.top++
		if uint64(p.top) > atomic.LoadUint64(&p.highWater) {
			atomic.StoreUint64(&p.highWater, uint64(p.top))
		}
		return e
	}
	atomic.AddUint64(&p.fallbacks, 1)
	return new(event.Event)
}

// Free releases e. It reclaims e's slab slot for reuse only when e is the
// most recently allocated one (stack discipline); freeing out of order
// leaves that slot unreclaimable, so the stack pointer can fall no lower
// than just above it and the slots below it stay unreclaimable too, until
// live drops to zero, at which point the whole slab is known empty
// again and the stack pointer is forced back to 0, matching
// curious_alloc.hh's count_-driven reset.
func (p *Pool) Free(e *event.Event) {
	if p.live == 0 {
		return
	}
	p.live--
	if p.top > 0 && e == &p.slab[p.top-1] {
		p.top--
	}
	if p.live == 0 {
		p.top = 0
	}
}

// Count returns the number of allocations (slab or heap fallback) made and
// not yet freed.
func (p *Pool) Count() int { return p.live }

// Capacity returns the slab size.
func (p *Pool) Capacity() int { return len(p.slab) }

// Fallbacks returns how many allocations have spilled to the heap since the
// pool was created.
func (p *Pool) Fallbacks() uint64 { return atomic.LoadUint64(&p.fallbacks) }

// HighWater returns the largest number of slab slots ever allocated at
// once.
func (p *Pool) HighWater() uint64 { return atomic.LoadUint64(&p.highWater) }
