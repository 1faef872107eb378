// Package buffer implements the stable-iterator event buffer the module
// tree processes in place, and the Range type units and modules use to
// describe a contiguous slice of it. Grounded on trunk/src/patch.hh
// (EventBufferType, EventBufferRT/EventBuffer) and
// branches/experimental/src/util/iterator_range.hh (Range).
package buffer

import (
	"container/list"

	"github.com/dsacre/mididings-sub000/event"
	"github.com/dsacre/mididings-sub000/pool"
)

// Services is the narrow slice of engine behavior that Extended units (scene
// switching, sanitizing, deferred calls) need. It exists so this package
// never imports the engine package, which in turn depends on buffer.
type Services interface {
	SwitchScene(scene, subscene int)
	CurrentScene() int
	CurrentSubscene() int
	HasScene(n int) bool
	HasSubscene(n int) bool
	NumSubscenes() int
	SanitizeEvent(ev event.Event) (event.Event, bool)
	CallNow(fn func(event.Event) []event.Event, ev event.Event) []event.Event
	CallDeferred(fn func(event.Event) []event.Event, ev event.Event) (keep bool)
}

// Iterator identifies one slot in a Buffer. It stays valid across insertion
// and removal of other elements, exactly like a std::list iterator.
type Iterator = *list.Element

// Buffer is a doubly linked list of events. An RT buffer (created with New
// backed by a *pool.Pool) takes its event storage from the pool while the
// pool has spare capacity; the list elements themselves are still heap
// allocated. A general buffer (pool nil) is a plain heap-backed list, used
// off the RT path (e.g. the engine's throwaway ctrl-patch buffer).
type Buffer struct {
	list  list.List
	pool  *pool.Pool
	Owner Services
}

// New returns a Buffer. Pass a non-nil p for an RT-safe buffer backed by a
// fixed-capacity pool; pass nil for a general heap-backed buffer.
func New(p *pool.Pool, owner Services) *Buffer {
	b := &Buffer{pool: p, Owner: owner}
	b.list.Init()
	return b
}

func (b *Buffer) alloc(ev event.Event) *event.Event {
	if b.pool == nil {
		e := new(event.Event)
		*e = ev
		return e
	}
	e := b.pool.Alloc()
	*e = ev
	return e
}

func (b *Buffer) release(e *event.Event) {
	if b.pool != nil {
		b.pool.Free(e)
	}
}

// PushBack appends ev and returns its iterator.
func (b *Buffer) PushBack(ev event.Event) Iterator {
	return b.list.PushBack(b.alloc(ev))
}

// InsertBefore inserts ev immediately before mark (mark may be nil to mean
// "at the end") and returns its iterator.
func (b *Buffer) InsertBefore(mark Iterator, ev event.Event) Iterator {
	if mark == nil {
		return b.PushBack(ev)
	}
	return b.list.InsertBefore(b.alloc(ev), mark)
}

// Remove erases it from the buffer.
func (b *Buffer) Remove(it Iterator) {
	e := it.Value.(*event.Event)
	b.list.Remove(it)
	b.release(e)
}

// EventAt dereferences it.
func EventAt(it Iterator) *event.Event { return it.Value.(*event.Event) }

// Clear empties the buffer, releasing every event back to the pool.
func (b *Buffer) Clear() {
	for e := b.list.Front(); e != nil; {
		next := e.Next()
		b.Remove(e)
		e = next
	}
}

// Front/Back/Len/End mirror list.List's accessors for convenience.
func (b *Buffer) Front() Iterator { return b.list.Front() }
func (b *Buffer) Back() Iterator  { return b.list.Back() }
func (b *Buffer) Len() int        { return b.list.Len() }

// Range describes a contiguous, half-open [Begin, End) slice of a Buffer.
// End may be nil to mean "through the end of the list". Mirrors
// iterator_range<T>'s exact contract: two constructor forms, plus
// advance/set accessors for mutating the range in place.
type Range struct {
	begin, end Iterator
}

// NewRange constructs a range from an explicit [begin, end) pair.
func NewRange(begin, end Iterator) Range { return Range{begin, end} }

// NewRangeN constructs a range of n elements starting at begin.
func NewRangeN(begin Iterator, n int) Range {
	r := Range{begin: begin, end: begin}
	r.AdvanceEnd(n)
	return r
}

func (r Range) Begin() Iterator { return r.begin }
func (r Range) End() Iterator   { return r.end }

func (r Range) Empty() bool { return r.begin == r.end }

// Size walks the range counting elements; like std::distance, it is O(n).
func (r Range) Size() int {
	n := 0
	for e := r.begin; e != r.end; e = e.Next() {
		n++
	}
	return n
}

func (r Range) Equal(o Range) bool { return r.begin == o.begin && r.end == o.end }

func (r *Range) SetBegin(it Iterator) { r.begin = it }
func (r *Range) SetEnd(it Iterator)   { r.end = it }

func (r *Range) AdvanceBegin(n int) {
	for i := 0; i < n; i++ {
		r.begin = r.begin.Next()
	}
}

func (r *Range) AdvanceEnd(n int) {
	for i := 0; i < n; i++ {
		r.end = r.end.Next()
	}
}

// ReplaceEvent erases it and splices in evs at its former position,
// returning a Range spanning exactly the newly inserted events. Grounded on
// patch.cc's static replace_event.
func (b *Buffer) ReplaceEvent(it Iterator, evs []event.Event) Range {
	following := it.Next()
	b.Remove(it)
	if len(evs) == 0 {
		return Range{following, following}
	}
	first := b.InsertBefore(following, evs[0])
	for _, ev := range evs[1:] {
		b.InsertBefore(following, ev)
	}
	return Range{first, following}
}

// KeepEvent returns the single-element range [it, next(it)) without
// mutating the buffer. Grounded on patch.cc's static keep_event.
func (b *Buffer) KeepEvent(it Iterator) Range {
	return NewRangeN(it, 1)
}

// DeleteEvent erases it and returns the now-empty range at the position it
// occupied. Grounded on patch.cc's static delete_event.
func (b *Buffer) DeleteEvent(it Iterator) Range {
	following := it.Next()
	b.Remove(it)
	return Range{following, following}
}
