// Package event defines the MIDI event type shared by every stage of the
// processing graph: the byte codec, the RT pool, the event buffer, units,
// patches and the engine all operate on event.Event.
package event

import "fmt"

// Kind is a bitmask classifying an Event. Filters express the set of kinds
// they act on as an OR of these flags, and dispatch the remainder to
// PassOther.
type Kind uint32

const (
	NoteOn Kind = 1 << iota
	NoteOff
	PolyAftertouch
	Ctrl
	Program
	Aftertouch
	Pitchbend
	SysEx
	SysCommonQuarterFrame
	SysCommonSongPos
	SysCommonSongSelect
	SysCommonTuneRequest
	SysRealtimeClock
	SysRealtimeStart
	SysRealtimeContinue
	SysRealtimeStop
	SysRealtimeActiveSensing
	SysRealtimeReset
	Dummy
	None Kind = 0
)

// Union categories, mirroring MidiEventTypeEnum's grouped flags.
const (
	Note    = NoteOn | NoteOff
	SysCM   = SysCommonQuarterFrame | SysCommonSongPos | SysCommonSongSelect | SysCommonTuneRequest
	SysRT   = SysRealtimeClock | SysRealtimeStart | SysRealtimeContinue | SysRealtimeStop | SysRealtimeActiveSensing | SysRealtimeReset
	System  = SysCM | SysRT
	AnyKind = NoteOn | NoteOff | PolyAftertouch | Ctrl | Program | Aftertouch | Pitchbend | SysEx | System
)

func (k Kind) Has(sub Kind) bool { return k&sub != 0 }

// EventAttribute is a negative sentinel used by units (Generator, Modifier
// parameters) to mean "take this value from the event itself" rather than a
// literal constant. Mirrors util.hh's EventAttribute enum.
type EventAttribute int

const (
	AttrPort    EventAttribute = -1
	AttrChannel EventAttribute = -2
	AttrNote    EventAttribute = -3
	AttrCtrl    EventAttribute = -3
	AttrData1   EventAttribute = -3
	AttrVelocity EventAttribute = -4
	AttrValue   EventAttribute = -4
	AttrProgram EventAttribute = -4
	AttrData2   EventAttribute = -4
)

// Event is the unit of data flowing through the processing graph. Only the
// fields relevant to Kind are meaningful; Data1/Data2 carry note/velocity,
// ctrl/value, program, or the two aftertouch/pitchbend payloads depending on
// Kind, matching the original's tagged union.
type Event struct {
	Kind    Kind
	Port    int
	Channel int
	Data1   int
	Data2   int
	SysEx   []byte
	Frame   uint64
}

// Note/Velocity/Ctrl/Value/Program are named accessors over Data1/Data2 for
// readability at call sites; they carry no extra behavior.
func (e Event) Note() int     { return e.Data1 }
func (e Event) Velocity() int { return e.Data2 }
func (e Event) Ctrl() int     { return e.Data1 }
func (e Event) Value() int    { return e.Data2 }
func (e Event) Program() int  { return e.Data1 }

// Equal implements the original's operator==: fields that are irrelevant to
// a given Kind (e.g. Channel for a SysEx message) are not compared.
func (e Event) Equal(o Event) bool {
	if e.Kind != o.Kind || e.Port != o.Port {
		return false
	}
	switch {
	case e.Kind.Has(SysRT|SysCommonTuneRequest) || e.Kind == Dummy:
		return true
	case e.Kind == SysEx:
		return bytesEqual(e.SysEx, o.SysEx)
	case e.Kind.Has(SysCM):
		return e.Data1 == o.Data1
	case e.Kind.Has(Program | Aftertouch | Pitchbend):
		return e.Channel == o.Channel && e.Data1 == o.Data1
	default:
		return e.Channel == o.Channel && e.Data1 == o.Data1 && e.Data2 == o.Data2
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy safe to mutate independently of e, copying the SysEx
// payload so callers never alias a shared buffer across two live events.
func (e Event) Clone() Event {
	c := e
	if e.SysEx != nil {
		c.SysEx = append([]byte(nil), e.SysEx...)
	}
	return c
}

func (e Event) String() string {
	return fmt.Sprintf("Event{kind=%v port=%d chan=%d data1=%d data2=%d}",
		e.Kind, e.Port, e.Channel, e.Data1, e.Data2)
}

// Dummy events are produced internally (e.g. to drive an init patch) and
// always discarded by Sanitize; NewDummy gives call sites a readable
// constructor instead of a bare struct literal.
func NewDummy(port int) Event {
	return Event{Kind: Dummy, Port: port}
}
