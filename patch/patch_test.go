package patch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dsacre/mididings-sub000/buffer"
	"github.com/dsacre/mididings-sub000/event"
	"github.com/dsacre/mididings-sub000/patch"
	"github.com/dsacre/mididings-sub000/unit"
)

func fillBuffer(b *buffer.Buffer, evs ...event.Event) buffer.Range {
	var first buffer.Iterator
	for i, ev := range evs {
		it := b.PushBack(ev)
		if i == 0 {
			first = it
		}
	}
	if first == nil {
		return buffer.NewRange(nil, nil)
	}
	return buffer.NewRangeN(first, len(evs))
}

func TestSingleDropsRejectedEvents(t *testing.T) {
	b := buffer.New(nil, nil)
	rng := fillBuffer(b,
		event.Event{Kind: event.NoteOn, Channel: 0},
		event.Event{Kind: event.NoteOn, Channel: 1},
		event.Event{Kind: event.NoteOn, Channel: 0},
	)

	m := &patch.Single{Unit: &unit.ChannelFilter{Channels: []int{0}}}
	out := m.Process(b, rng)

	assert.Equal(t, 2, out.Size())
	assert.Equal(t, 2, b.Len())
	for it := out.Begin(); it != out.End(); it = it.Next() {
		assert.Equal(t, 0, buffer.EventAt(it).Channel)
	}
}

func TestChainStopsEarlyOnEmptyRange(t *testing.T) {
	b := buffer.New(nil, nil)
	rng := fillBuffer(b, event.Event{Kind: event.NoteOn, Channel: 3})

	m := &patch.Chain{Modules: []patch.Module{
		&patch.Single{Unit: &unit.ChannelFilter{Channels: []int{0}}},
		&patch.Single{Unit: unit.Pass{Value: false}},
	}}
	out := m.Process(b, rng)

	assert.True(t, out.Empty())
	assert.Equal(t, 0, b.Len())
}

func TestForkFansOutToEverySibling(t *testing.T) {
	b := buffer.New(nil, nil)
	rng := fillBuffer(b, event.Event{Kind: event.NoteOn, Channel: 0, Data1: 60, Data2: 100})

	m := &patch.Fork{Modules: []patch.Module{
		&patch.Single{Unit: unit.Port{Value: unit.Literal(1)}},
		&patch.Single{Unit: unit.Port{Value: unit.Literal(2)}},
	}}
	out := m.Process(b, rng)

	assert.Equal(t, 2, out.Size())
	var ports []int
	for it := out.Begin(); it != out.End(); it = it.Next() {
		ports = append(ports, buffer.EventAt(it).Port)
	}
	assert.ElementsMatch(t, []int{1, 2}, ports)
}

func TestForkRemoveDuplicatesDropsRepeatedOutput(t *testing.T) {
	b := buffer.New(nil, nil)
	rng := fillBuffer(b, event.Event{Kind: event.NoteOn, Channel: 0, Data1: 60, Data2: 100})

	m := &patch.Fork{
		RemoveDuplicates: true,
		Modules: []patch.Module{
			&patch.Single{Unit: unit.Pass{Value: true}},
			&patch.Single{Unit: unit.Pass{Value: true}},
		},
	}
	out := m.Process(b, rng)

	assert.Equal(t, 1, out.Size(), "the second sibling's identical output is deduplicated")
}
