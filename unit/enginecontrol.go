package unit

import (
	"github.com/dsacre/mididings-sub000/buffer"
	"github.com/dsacre/mididings-sub000/event"
)

// UnitEx is a Unit that needs to see (and possibly mutate the shape of) the
// buffer around the event it is processing, rather than just the event
// itself — scene switches delete their trigger event, deferred calls may
// replace it with zero, one, or many results. Mirrors units/base.hh's
// UnitEx / patch.hh's Extended module pairing.
type UnitEx interface {
	ProcessEx(buf *buffer.Buffer, it buffer.Iterator) buffer.Range
}

// Sanitize routes every event through the engine's validator, keeping it
// unchanged if valid and dropping it otherwise. Grounded on
// units/engine.hh's Sanitize.
type Sanitize struct{ Services buffer.Services }

func (u Sanitize) ProcessEx(buf *buffer.Buffer, it buffer.Iterator) buffer.Range {
	ev := *buffer.EventAt(it)
	sanitized, keep := u.Services.SanitizeEvent(ev)
	if !keep {
		return buf.DeleteEvent(it)
	}
	*buffer.EventAt(it) = sanitized
	return buf.KeepEvent(it)
}

// SceneSwitch requests a scene change (absolute via Num, or relative via a
// non-zero Offset from the current scene) and always discards its trigger
// event. Grounded on units/engine.hh's SceneSwitch.
type SceneSwitch struct {
	Num      Param
	Offset   int
	Services buffer.Services
}

func (u SceneSwitch) ProcessEx(buf *buffer.Buffer, it buffer.Iterator) buffer.Range {
	ev := *buffer.EventAt(it)
	if u.Offset == 0 {
		u.Services.SwitchScene(u.Num.Resolve(ev), 0)
	} else {
		n := u.Services.CurrentScene() + u.Offset
		if u.Services.HasScene(n) {
			u.Services.SwitchScene(n, 0)
		}
	}
	return buf.DeleteEvent(it)
}

// SubSceneSwitch is SceneSwitch's subscene-scoped counterpart, optionally
// wrapping the target index modulo the current scene's subscene count.
// Grounded on units/engine.hh's SubSceneSwitch.
type SubSceneSwitch struct {
	Num      Param
	Offset   int
	Wrap     bool
	Services buffer.Services
}

func (u SubSceneSwitch) ProcessEx(buf *buffer.Buffer, it buffer.Iterator) buffer.Range {
	ev := *buffer.EventAt(it)
	ns := u.Services.NumSubscenes()
	var n int
	if u.Offset == 0 {
		n = u.Num.Resolve(ev)
	} else {
		n = u.Services.CurrentSubscene() + u.Offset
	}
	if u.Wrap && ns > 0 {
		n = ((n % ns) + ns) % ns
	}
	if u.Services.HasSubscene(n) {
		u.Services.SwitchScene(u.Services.CurrentScene(), n)
	}
	return buf.DeleteEvent(it)
}

// CallFunc is a user engine-control callback: given the triggering event it
// returns zero, one, or many replacement events.
type CallFunc func(event.Event) []event.Event

// Call invokes Fn either synchronously (blocking the caller, replacing the
// trigger event with whatever Fn returns) or asynchronously (handed to the
// deferred caller; the trigger event is kept or dropped immediately
// depending on whether the queue accepted it, and Fn's return value is
// never fed back into the buffer). Grounded on units/call.hh and
// python_caller.cc's call_now/call_deferred split.
type Call struct {
	Fn       CallFunc
	Async    bool
	Services buffer.Services
}

func (u Call) ProcessEx(buf *buffer.Buffer, it buffer.Iterator) buffer.Range {
	ev := *buffer.EventAt(it)
	if u.Async {
		if u.Services.CallDeferred(u.Fn, ev) {
			return buf.KeepEvent(it)
		}
		return buf.DeleteEvent(it)
	}
	results := u.Services.CallNow(u.Fn, ev)
	return buf.ReplaceEvent(it, results)
}
