package unit

import "github.com/dsacre/mididings-sub000/event"

// Port overwrites every event's Port. Grounded on units/modifiers.hh's Port.
type Port struct{ Value Param }

func (m Port) Process(ev *event.Event) bool {
	ev.Port = m.Value.Resolve(*ev)
	return true
}

// Channel overwrites Channel on every event except system and dummy ones,
// which have none.
type Channel struct{ Value Param }

func (m Channel) Process(ev *event.Event) bool {
	if ev.Kind.Has(event.System | event.Dummy) {
		return true
	}
	ev.Channel = m.Value.Resolve(*ev)
	return true
}

// Transpose shifts NOTEON/NOTEOFF note numbers by a fixed offset, leaving
// every other event kind untouched.
type Transpose struct{ Offset Param }

func (m Transpose) Process(ev *event.Event) bool {
	if !ev.Kind.Has(event.Note) {
		return true
	}
	ev.Data1 = ApplyTransform(ev.Data1, float64(m.Offset.Resolve(*ev)), Offset)
	return true
}

// Velocity rescales NOTEON velocity via ApplyTransform; note-off and
// zero-velocity events (already normalized to NOTEOFF by the codec) are
// left alone.
type Velocity struct {
	Param Param
	Mode  TransformMode
}

func (m Velocity) Process(ev *event.Event) bool {
	if ev.Kind != event.NoteOn || ev.Velocity() <= 0 {
		return true
	}
	ev.Data2 = ApplyTransform(ev.Data2, float64(m.Param.Resolve(*ev)), m.Mode)
	return true
}

// VelocitySlope rescales NOTEON velocity along a piecewise-linear curve
// defined by ascending Notes/Params pairs. Grounded on modifiers.hh's
// VelocitySlope, including its segment search.
type VelocitySlope struct {
	Notes  []int
	Params []float64
	Mode   TransformMode
}

func (m VelocitySlope) Process(ev *event.Event) bool {
	if ev.Kind != event.NoteOn || ev.Velocity() <= 0 {
		return true
	}
	note := ev.Note()
	n := 0
	for n < len(m.Notes)-2 && m.Notes[n+1] < note {
		n++
	}
	param := m.Params[n]
	if len(m.Notes) >= 2 {
		lo, hi := m.Notes[n], m.Notes[n+1]
		switch {
		case note <= lo:
			param = m.Params[n]
		case note >= hi:
			param = m.Params[n+1]
		default:
			param = m.Params[n] + (m.Params[n+1]-m.Params[n])*float64(note-lo)/float64(hi-lo)
		}
	}
	ev.Data2 = ApplyTransform(ev.Data2, param, m.Mode)
	return true
}

// CtrlMap renames a controller number on CTRL events.
type CtrlMap struct{ From, To int }

func (m CtrlMap) Process(ev *event.Event) bool {
	if ev.Kind == event.Ctrl && ev.Ctrl() == m.From {
		ev.Data1 = m.To
	}
	return true
}

// CtrlRange linearly remaps a CTRL event's value from [ArgLo, ArgHi] into
// [ValLo, ValHi], clamping outside the input range.
type CtrlRange struct{ ArgLo, ArgHi, ValLo, ValHi int }

func (m CtrlRange) Process(ev *event.Event) bool {
	if ev.Kind == event.Ctrl {
		ev.Data2 = MapRange(ev.Value(), m.ArgLo, m.ArgHi, m.ValLo, m.ValHi)
	}
	return true
}

// CtrlCurve applies a gamma/curve transform to a CTRL event's value.
type CtrlCurve struct {
	Param float64
	Mode  TransformMode
}

func (m CtrlCurve) Process(ev *event.Event) bool {
	if ev.Kind == event.Ctrl {
		ev.Data2 = ApplyTransform(ev.Value(), m.Param, m.Mode)
	}
	return true
}

// PitchbendRange rescales a PITCHBEND event's signed 14-bit value, using a
// separate target range for the negative and non-negative halves.
// Grounded on modifiers.hh's PitchbendRange.
type PitchbendRange struct{ Min, Max int }

func (m PitchbendRange) Process(ev *event.Event) bool {
	if ev.Kind != event.Pitchbend {
		return true
	}
	v := ev.Data1
	if v >= 0 {
		ev.Data1 = MapRange(v, 0, 8191, 0, m.Max)
	} else {
		ev.Data1 = MapRange(v, -8192, 0, m.Min, 0)
	}
	return true
}
