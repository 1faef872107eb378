// Package unit implements the leaf processing elements patches are built
// from: filters that test an event, modifiers that transform one in place,
// generators that replace one outright, and engine-control units that talk
// to the engine (scene switching, sanitizing, deferred calls). Grounded on
// trunk/src/units/*.hh.
package unit

import (
	"math"

	"github.com/dsacre/mididings-sub000/event"
)

// Unit is a single-event processing step: Process mutates ev in place and
// reports whether it should be kept (true) or dropped (false). Mirrors
// units/base.hh's Unit interface, used by patch.Single.
type Unit interface {
	Process(ev *event.Event) bool
}

// Param is a modifier/generator parameter. Non-negative values are literal
// constants; negative values are one of the AttrXxx sentinels in package
// event, meaning "take this from the event being processed" — the same
// encoding trunk/src/units/util.hh's get_parameter uses.
type Param int

// Literal wraps a plain constant as a Param for readability at call sites.
func Literal(v int) Param { return Param(v) }

const (
	FromPort    Param = Param(event.AttrPort)
	FromChannel Param = Param(event.AttrChannel)
	FromData1   Param = Param(event.AttrData1)
	FromData2   Param = Param(event.AttrData2)
)

// Resolve implements get_parameter: a non-negative Param is itself; a
// negative one names a field to pull from ev.
func (p Param) Resolve(ev event.Event) int {
	if p >= 0 {
		return int(p)
	}
	switch event.EventAttribute(p) {
	case event.AttrPort:
		return ev.Port
	case event.AttrChannel:
		return ev.Channel
	case event.AttrData1:
		return ev.Data1
	case event.AttrData2:
		return ev.Data2
	default:
		return 0
	}
}

// TransformMode selects the curve apply_transform uses, mirroring
// units/util.hh's TransformMode enum.
type TransformMode int

const (
	Offset TransformMode = iota + 1
	Multiply
	Fixed
	Gamma
	Curve
)

// ApplyTransform implements util.hh's apply_transform exactly, including its
// value<=0 passthrough rule for Gamma/Curve.
func ApplyTransform(value int, param float64, mode TransformMode) int {
	switch mode {
	case Offset:
		return value + int(param)
	case Multiply:
		return value * int(param)
	case Fixed:
		return int(param)
	case Gamma:
		if value <= 0 {
			return value
		}
		r := 127 * math.Pow(float64(value)/127, 1/param)
		return max(1, int(math.Round(r)))
	case Curve:
		if value <= 0 {
			return value
		}
		if param == 0 {
			return value
		}
		r := 127 * (math.Exp(-param*float64(value)/127) - 1) / (math.Exp(-param) - 1)
		return max(1, int(math.Round(r)))
	default:
		return value
	}
}

// MapRange implements util.hh's map_range: clamp to [argLo, argHi] then
// linearly interpolate into [valLo, valHi].
func MapRange(arg, argLo, argHi, valLo, valHi int) int {
	if arg <= argLo {
		return valLo
	}
	if arg >= argHi {
		return valHi
	}
	dy := float64(valHi - valLo)
	dx := float64(argHi - argLo)
	return valLo + int(dy/dx*float64(arg-argLo))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
