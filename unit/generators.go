package unit

import "github.com/dsacre/mididings-sub000/event"

// Generator replaces an event outright with one built from its four fields
// (each either a literal or taken from the incoming event via Param),
// preserving only Frame. Grounded on units/generators.hh's Generator.
type Generator struct {
	Kind    event.Kind
	Port    Param
	Channel Param
	Data1   Param
	Data2   Param
}

func (g Generator) Process(ev *event.Event) bool {
	in := *ev
	*ev = event.Event{
		Kind:    g.Kind,
		Port:    g.Port.Resolve(in),
		Channel: g.Channel.Resolve(in),
		Data1:   g.Data1.Resolve(in),
		Data2:   g.Data2.Resolve(in),
		Frame:   in.Frame,
	}
	return true
}

// SysExGenerator replaces an event with a SYSEX event carrying a fixed
// payload.
type SysExGenerator struct {
	Port  Param
	Bytes []byte
}

func (g SysExGenerator) Process(ev *event.Event) bool {
	in := *ev
	*ev = event.Event{
		Kind:  event.SysEx,
		Port:  g.Port.Resolve(in),
		SysEx: g.Bytes,
		Frame: in.Frame,
	}
	return true
}
