// Package patch implements the module tree events are routed through:
// Chain (sequential), Fork (parallel fan-out with optional de-duplication),
// Single (wraps a unit.Unit), and Extended (wraps a unit.UnitEx). Grounded
// on trunk/src/patch.cc / patch.hh.
package patch

import (
	"github.com/dsacre/mididings-sub000/buffer"
	"github.com/dsacre/mididings-sub000/event"
	"github.com/dsacre/mididings-sub000/unit"
)

// Module is one node of the processing tree.
type Module interface {
	Process(buf *buffer.Buffer, rng buffer.Range) buffer.Range
}

// Patch is the named root of a module tree, as selected by the engine's
// scene map.
type Patch struct {
	Root Module
}

func (p *Patch) Process(buf *buffer.Buffer, rng buffer.Range) buffer.Range {
	if p.Root == nil {
		return rng
	}
	return p.Root.Process(buf, rng)
}

// Chain runs its modules one after another, feeding each the range the
// previous one returned, and stops early once the range is empty.
type Chain struct {
	Modules []Module
}

func (m *Chain) Process(buf *buffer.Buffer, rng buffer.Range) buffer.Range {
	for _, mod := range m.Modules {
		rng = mod.Process(buf, rng)
		if rng.Empty() {
			break
		}
	}
	return rng
}

// Single wraps a leaf unit.Unit, dropping events the unit rejects. Grounded
// on patch.cc's Single::process.
type Single struct {
	Unit unit.Unit
}

func (m *Single) Process(buf *buffer.Buffer, rng buffer.Range) buffer.Range {
	it := rng.Begin()
	for it != rng.End() {
		next := it.Next()
		ev := buffer.EventAt(it)
		if !m.Unit.Process(ev) {
			if it == rng.Begin() {
				rng.AdvanceBegin(1)
			}
			buf.Remove(it)
		}
		it = next
	}
	return rng
}

// Extended wraps a leaf unit.UnitEx, which may replace its event with zero,
// one, or many others. Grounded on patch.cc's Extended::process.
type Extended struct {
	Unit unit.UnitEx
}

func (m *Extended) Process(buf *buffer.Buffer, rng buffer.Range) buffer.Range {
	end := rng.End()
	it := rng.Begin()
	out := buffer.NewRange(end, end)
	for it != end {
		ret := m.Unit.ProcessEx(buf, it)
		if out.Empty() && !ret.Empty() {
			out.SetBegin(ret.Begin())
		}
		it = ret.End()
	}
	out.SetEnd(it)
	return out
}

// Fork runs every input event through all of its sibling modules
// independently (each sibling sees its own copy of the event), producing
// the concatenation of their outputs. With RemoveDuplicates set, an output
// produced for a given input event that equals one already produced by an
// earlier sibling for that same input event is dropped. Grounded on
// patch.cc's Fork::process.
type Fork struct {
	Modules          []Module
	RemoveDuplicates bool
}

func (m *Fork) Process(buf *buffer.Buffer, rng buffer.Range) buffer.Range {
	boundary := rng.End()

	var inputs []event.Event
	for it := rng.Begin(); it != boundary; {
		next := it.Next()
		inputs = append(inputs, *buffer.EventAt(it))
		buf.Remove(it)
		it = next
	}

	out := buffer.NewRange(boundary, boundary)
	cursor := boundary
	for _, inEv := range inputs {
		// producedStart is the first output element actually produced by an
		// earlier sibling module for this input event, or nil if none has
		// produced anything yet. Unlike the pre-insert cursor (which is
		// rng.End() itself, possibly nil, before any sibling has run), this
		// is always a real element once set, so the dedup scan below never
		// walks off a nil iterator.
		var producedStart buffer.Iterator
		for _, mod := range m.Modules {
			copyIt := buf.InsertBefore(cursor, inEv.Clone())
			ret := mod.Process(buf, buffer.NewRangeN(copyIt, 1))
			if m.RemoveDuplicates && producedStart != nil {
				ret = removeDuplicatesWithin(buf, producedStart, ret)
			}
			if producedStart == nil && !ret.Empty() {
				producedStart = ret.Begin()
			}
			cursor = ret.End()
		}
		if out.Empty() && producedStart != nil {
			out.SetBegin(producedStart)
		}
	}
	out.SetEnd(cursor)
	return out
}

// removeDuplicatesWithin drops any event in r that equals one already
// present in [earlier, r.Begin()) — outputs an earlier sibling module
// already produced for the same input event. earlier must be a real,
// already-produced element, never nil.
func removeDuplicatesWithin(buf *buffer.Buffer, earlier buffer.Iterator, r buffer.Range) buffer.Range {
	newBegin := r.Begin()
	atBegin := true
	it := r.Begin()
	for it != r.End() {
		next := it.Next()
		dup := false
		for check := earlier; check != r.Begin(); check = check.Next() {
			if buffer.EventAt(check).Equal(*buffer.EventAt(it)) {
				dup = true
				break
			}
		}
		if dup {
			if atBegin {
				newBegin = next
			}
			buf.Remove(it)
		} else {
			atBegin = false
		}
		it = next
	}
	return buffer.NewRange(newBegin, r.End())
}
