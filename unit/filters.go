package unit

import "github.com/dsacre/mididings-sub000/event"

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// PortFilter passes events on one of Ports. It examines every kind in
// AnyKind (a port applies to anything); PassOther is false, so a kind
// outside AnyKind, such as a dummy event, is dropped.
type PortFilter struct{ Ports []int }

func (f *PortFilter) Types() event.Kind             { return event.AnyKind }
func (f *PortFilter) PassOther() bool                { return false }
func (f *PortFilter) ProcessFilter(ev *event.Event) bool { return contains(f.Ports, ev.Port) }
func (f *PortFilter) Process(ev *event.Event) bool   { return dispatchFilter(f, ev) }

// ChannelFilter applies to everything except system and dummy events
// (those have no channel). PassOther is false, so those events are always
// dropped.
type ChannelFilter struct{ Channels []int }

func (f *ChannelFilter) Types() event.Kind { return event.AnyKind &^ (event.System | event.Dummy) }
func (f *ChannelFilter) PassOther() bool   { return false }
func (f *ChannelFilter) ProcessFilter(ev *event.Event) bool {
	return contains(f.Channels, ev.Channel)
}
func (f *ChannelFilter) Process(ev *event.Event) bool { return dispatchFilter(f, ev) }

// KeyFilter restricts NOTEON/NOTEOFF to a note-number range, passing any
// other event kind through. With Lower and Upper both zero, it instead tests
// membership in Notes. Grounded on filters.hh's KeyFilter, including its
// half-open [Lower, Upper) range and the zero-means-unbounded escape hatch
// on each bound independently.
type KeyFilter struct {
	Lower, Upper int
	Notes        []int
}

func (f *KeyFilter) Types() event.Kind { return event.Note }
func (f *KeyFilter) PassOther() bool   { return true }
func (f *KeyFilter) ProcessFilter(ev *event.Event) bool {
	if f.Lower != 0 || f.Upper != 0 {
		note := ev.Note()
		return (note >= f.Lower || f.Lower == 0) && (note < f.Upper || f.Upper == 0)
	}
	return contains(f.Notes, ev.Note())
}
func (f *KeyFilter) Process(ev *event.Event) bool { return dispatchFilter(f, ev) }

// VelocityFilter restricts NOTEON to a half-open [Lower, Upper) velocity
// range, passing any other event kind (including NOTEOFF) through. Either
// bound set to zero is unbounded on that side, matching filters.hh's
// VelocityFilter.
type VelocityFilter struct{ Lower, Upper int }

func (f *VelocityFilter) Types() event.Kind { return event.NoteOn }
func (f *VelocityFilter) PassOther() bool   { return true }
func (f *VelocityFilter) ProcessFilter(ev *event.Event) bool {
	vel := ev.Velocity()
	return (vel >= f.Lower || f.Lower == 0) && (vel < f.Upper || f.Upper == 0)
}
func (f *VelocityFilter) Process(ev *event.Event) bool { return dispatchFilter(f, ev) }

// CtrlFilter passes CTRL events whose controller number is one of Ctrls.
type CtrlFilter struct{ Ctrls []int }

func (f *CtrlFilter) Types() event.Kind { return event.Ctrl }
func (f *CtrlFilter) PassOther() bool   { return false }
func (f *CtrlFilter) ProcessFilter(ev *event.Event) bool {
	return contains(f.Ctrls, ev.Ctrl())
}
func (f *CtrlFilter) Process(ev *event.Event) bool { return dispatchFilter(f, ev) }

// CtrlValueFilter restricts CTRL events to a half-open [Lower, Upper)
// controller-value range, with either bound set to zero unbounded on that
// side. Grounded on filters.hh's CtrlValueFilter.
type CtrlValueFilter struct{ Lower, Upper int }

func (f *CtrlValueFilter) Types() event.Kind { return event.Ctrl }
func (f *CtrlValueFilter) PassOther() bool   { return false }
func (f *CtrlValueFilter) ProcessFilter(ev *event.Event) bool {
	val := ev.Value()
	return (val >= f.Lower || f.Lower == 0) && (val < f.Upper || f.Upper == 0)
}
func (f *CtrlValueFilter) Process(ev *event.Event) bool { return dispatchFilter(f, ev) }

// ProgramFilter passes PROGRAM events whose program number is one of
// Programs.
type ProgramFilter struct{ Programs []int }

func (f *ProgramFilter) Types() event.Kind { return event.Program }
func (f *ProgramFilter) PassOther() bool   { return false }
func (f *ProgramFilter) ProcessFilter(ev *event.Event) bool {
	return contains(f.Programs, ev.Program())
}
func (f *ProgramFilter) Process(ev *event.Event) bool { return dispatchFilter(f, ev) }

// SysExFilter passes SYSEX events whose payload starts with Pattern.
type SysExFilter struct{ Pattern []byte }

func (f *SysExFilter) Types() event.Kind { return event.SysEx }
func (f *SysExFilter) PassOther() bool   { return false }
func (f *SysExFilter) ProcessFilter(ev *event.Event) bool {
	if len(f.Pattern) > len(ev.SysEx) {
		return false
	}
	for i, b := range f.Pattern {
		if ev.SysEx[i] != b {
			return false
		}
	}
	return true
}
func (f *SysExFilter) Process(ev *event.Event) bool { return dispatchFilter(f, ev) }
