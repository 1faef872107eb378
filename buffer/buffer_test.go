package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dsacre/mididings-sub000/buffer"
	"github.com/dsacre/mididings-sub000/event"
)

func newTestBuffer() *buffer.Buffer {
	return buffer.New(nil, nil)
}

func TestPushBackAndEventAt(t *testing.T) {
	b := newTestBuffer()
	it := b.PushBack(event.Event{Kind: event.NoteOn, Data1: 60})
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 60, buffer.EventAt(it).Data1)
}

func TestReplaceEventSpansInsertedEvents(t *testing.T) {
	b := newTestBuffer()
	b.PushBack(event.Event{Kind: event.NoteOn, Data1: 1})
	it := b.PushBack(event.Event{Kind: event.NoteOn, Data1: 2})
	b.PushBack(event.Event{Kind: event.NoteOn, Data1: 3})

	r := b.ReplaceEvent(it, []event.Event{
		{Kind: event.NoteOn, Data1: 20},
		{Kind: event.NoteOn, Data1: 21},
	})

	assert.Equal(t, 2, r.Size())
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 20, buffer.EventAt(r.Begin()).Data1)
}

func TestReplaceEventWithEmptySliceYieldsEmptyRange(t *testing.T) {
	b := newTestBuffer()
	it := b.PushBack(event.Event{Kind: event.NoteOn})
	b.PushBack(event.Event{Kind: event.NoteOff})

	r := b.ReplaceEvent(it, nil)
	assert.True(t, r.Empty())
	assert.Equal(t, 1, b.Len())
}

func TestDeleteEventReturnsEmptyRangeAtPosition(t *testing.T) {
	b := newTestBuffer()
	b.PushBack(event.Event{Kind: event.NoteOn, Data1: 1})
	it := b.PushBack(event.Event{Kind: event.NoteOn, Data1: 2})
	last := b.PushBack(event.Event{Kind: event.NoteOn, Data1: 3})

	r := b.DeleteEvent(it)
	assert.True(t, r.Empty())
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, last, r.Begin())
}

func TestKeepEventIsSingleElementRange(t *testing.T) {
	b := newTestBuffer()
	it := b.PushBack(event.Event{Kind: event.NoteOn})

	r := b.KeepEvent(it)
	assert.Equal(t, 1, r.Size())
	assert.Equal(t, it, r.Begin())
}

func TestRangeAdvanceAndEqual(t *testing.T) {
	b := newTestBuffer()
	first := b.PushBack(event.Event{Data1: 1})
	b.PushBack(event.Event{Data1: 2})
	third := b.PushBack(event.Event{Data1: 3})

	r := buffer.NewRangeN(first, 1)
	assert.Equal(t, 1, r.Size())

	other := buffer.NewRange(first, third)
	assert.False(t, r.Equal(other))
	r.AdvanceEnd(1)
	assert.True(t, r.Equal(other))

	r.AdvanceBegin(1)
	assert.Equal(t, 1, r.Size())
}

func TestClearReleasesEverything(t *testing.T) {
	b := newTestBuffer()
	b.PushBack(event.Event{})
	b.PushBack(event.Event{})
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Front())
}
