// Package backend defines the contract the engine drives to receive and
// emit MIDI events, decoupling the core engine from any concrete transport.
// Grounded on trunk/src/backend.hh / backend.cc.
package backend

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dsacre/mididings-sub000/event"
)

// Backend is implemented by every concrete transport (backend/memory,
// backend/rtpmidi, backend/smf). InputEvent blocks until an event arrives
// or ctx is done. backend/memory returns ErrClosed once it is stopped and
// drained; backend/rtpmidi and backend/smf do not close their input, so
// after Stop their InputEvent returns only when ctx is done.
type Backend interface {
	Start() error
	Stop() error
	InputEvent(ctx context.Context) (event.Event, error)
	OutputEvent(ev event.Event) error
	NumOutPorts() int
}

// OutputEvents sends every event in evs to b in order, stopping at the
// first error — the default multi-event output path backend.hh gives every
// Backend for free via its output_event template.
func OutputEvents(b Backend, evs []event.Event) error {
	for _, ev := range evs {
		if err := b.OutputEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// ErrClosed is returned by InputEvent once a backend has been stopped and
// has no more buffered events.
var ErrClosed = errors.New("backend: closed")

// ErrInvalidName is the error for a backend name that is not recognized.
// This module has no backend selector, and nothing in it returns this error.
var ErrInvalidName = errors.New("backend: invalid backend name")

// ErrBadPattern wraps a regexp compile failure from ConnectPorts-style port
// matching.
type ErrBadPattern struct {
	Pattern string
	Err     error
}

func (e *ErrBadPattern) Error() string {
	return fmt.Sprintf("backend: bad port pattern %q: %v", e.Pattern, e.Err)
}
func (e *ErrBadPattern) Unwrap() error { return e.Err }

// MatchPorts filters names to those matching the regular expression
// pattern, used by backends that support ConnectPorts-style port selection.
func MatchPorts(pattern string, names []string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &ErrBadPattern{Pattern: pattern, Err: err}
	}
	var out []string
	for _, n := range names {
		if re.MatchString(n) {
			out = append(out, n)
		}
	}
	return out, nil
}
