// Package smf implements a write-only backend.Backend that records engine
// output into a Standard MIDI File via gitlab.com/gomidi/midi/v2/smf — the
// "external writer" spec.md names for the standard MIDI file container.
// Grounded on the gomidi/midi/v2 usage in the retrieval pack's
// zurustar-son-et playback engine (which reads SMF the same library
// writes).
package smf

import (
	"context"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/dsacre/mididings-sub000/backend"
	"github.com/dsacre/mididings-sub000/event"
)

// ticksPerQuarter and assumedMicrosecondsPerQuarter fix a constant 120bpm
// tempo for converting wall-clock output timestamps into SMF delta-times,
// since the engine has no notion of a musical tempo of its own.
const (
	ticksPerQuarter             = 480
	assumedMicrosecondsPerQuarter = 500000
)

type recorded struct {
	at  time.Duration
	msg gomidi.Message
}

// Backend accumulates engine output in memory and writes it to path once
// Stop is called.
type Backend struct {
	path     string
	numPorts int

	mu      sync.Mutex
	start   time.Time
	events  []recorded
}

// New returns a Backend that will write its accumulated output to path on
// Stop.
func New(path string, numPorts int) *Backend {
	return &Backend{path: path, numPorts: numPorts}
}

func (b *Backend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = time.Now()
	return nil
}

func (b *Backend) Stop() error {
	b.mu.Lock()
	events := append([]recorded(nil), b.events...)
	b.mu.Unlock()
	return b.write(events)
}

// InputEvent never produces events: this backend is output-only. It blocks
// until ctx is done, like a source that never has anything to say.
func (b *Backend) InputEvent(ctx context.Context) (event.Event, error) {
	<-ctx.Done()
	return event.Event{}, ctx.Err()
}

func (b *Backend) OutputEvent(ev event.Event) error {
	msg, ok := toGomidi(ev)
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recorded{at: time.Since(b.start), msg: msg})
	return nil
}

func (b *Backend) NumOutPorts() int { return b.numPorts }

func (b *Backend) write(events []recorded) error {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	var lastTick uint32
	for _, r := range events {
		tick := uint32(r.at.Microseconds() * ticksPerQuarter / assumedMicrosecondsPerQuarter)
		delta := tick - lastTick
		tr.Add(delta, r.msg)
		lastTick = tick
	}
	tr.Close(0)
	if err := sm.Add(tr); err != nil {
		return err
	}
	return sm.WriteFile(b.path)
}

// toGomidi converts an event.Event to the library's wire Message, mirroring
// the field layout codec.Encode already validated.
func toGomidi(ev event.Event) (gomidi.Message, bool) {
	ch := gomidi.Channel(ev.Channel)
	switch ev.Kind {
	case event.NoteOn:
		return ch.NoteOn(uint8(ev.Note()), uint8(ev.Velocity())), true
	case event.NoteOff:
		return ch.NoteOff(uint8(ev.Note())), true
	case event.PolyAftertouch:
		return ch.PolyAfterTouch(uint8(ev.Note()), uint8(ev.Velocity())), true
	case event.Ctrl:
		return ch.ControlChange(uint8(ev.Ctrl()), uint8(ev.Value())), true
	case event.Program:
		return ch.ProgramChange(uint8(ev.Program())), true
	case event.Aftertouch:
		return ch.AfterTouch(uint8(ev.Data1)), true
	case event.Pitchbend:
		return ch.Pitchbend(int16(ev.Data1)), true
	case event.SysEx:
		return gomidi.SysEx(ev.SysEx), true
	default:
		return nil, false
	}
}
