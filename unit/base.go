package unit

import "github.com/dsacre/mididings-sub000/event"

// Filter is a Unit specialized to test (not modify) an event: Types names
// the kinds it actually examines, PassOther says what to return for any
// other kind, and ProcessFilter does the real test for a matching event.
// Mirrors units/base.hh's Filter base class.
type Filter interface {
	Unit
	Types() event.Kind
	PassOther() bool
	ProcessFilter(ev *event.Event) bool
}

// dispatchFilter implements Filter::process: apply ProcessFilter to events
// of the filter's own Types, and PassOther to everything else.
func dispatchFilter(f Filter, ev *event.Event) bool {
	if ev.Kind.Has(f.Types()) {
		return f.ProcessFilter(ev)
	}
	return f.PassOther()
}

// TypeFilter is the bare "is this event one of these kinds" test, with no
// PassOther distinction — it always inspects ev.Kind directly.
type TypeFilter struct {
	types event.Kind
}

func NewTypeFilter(types event.Kind) *TypeFilter { return &TypeFilter{types: types} }

func (f *TypeFilter) Process(ev *event.Event) bool { return ev.Kind.Has(f.types) }

// Pass is a constant unit, useful as a patch's trivial default leaf.
type Pass struct{ Value bool }

func (p Pass) Process(*event.Event) bool { return p.Value }

// InvertedFilter negates an inner Filter. With Negate set it inverts the
// filter's overall verdict (including PassOther); otherwise it only inverts
// the ProcessFilter verdict for matching events and leaves PassOther alone.
// Mirrors base.hh's InvertedFilter exactly.
type InvertedFilter struct {
	Inner  Filter
	Negate bool
}

func (f *InvertedFilter) Process(ev *event.Event) bool {
	if f.Negate {
		return !dispatchFilter(f.Inner, ev)
	}
	if ev.Kind.Has(f.Inner.Types()) {
		return !f.Inner.ProcessFilter(ev)
	}
	return f.Inner.PassOther()
}
