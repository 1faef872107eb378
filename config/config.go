// Package config holds the RT-safe numeric caps that size the engine's
// fixed-capacity structures. Values mirror trunk/src/config.hh's non-backend-
// specific constants.
package config

import "time"

const (
	// MaxEvents bounds the RT pool: the maximum number of live events the
	// engine's RT-thread event buffer can hold without falling back to the
	// heap allocator.
	MaxEvents = 1024

	// MaxSimultaneousNotes is the initial capacity of the noteon-patch-
	// affinity map (held notes tracked across scene switches). It is a soft
	// cap: the map grows past it if more notes are held.
	MaxSimultaneousNotes = 64

	// MaxSustainPedals is the initial capacity of the sustain-patch-affinity
	// map; like MaxSimultaneousNotes it is a soft cap.
	MaxSustainPedals = 4

	// MaxAsyncCalls is the capacity of the deferred caller's queue.
	MaxAsyncCalls = 256

	// AsyncCallbackInterval is how often the deferred caller's worker wakes
	// on its own, even with nothing queued, to give the engine a chance to
	// apply a pending scene switch.
	AsyncCallbackInterval = 50 * time.Millisecond

	// AsyncJoinTimeout bounds how long Stop waits for the deferred caller's
	// worker to exit before giving up. Calls still queued at Stop are not
	// run.
	AsyncJoinTimeout = 3000 * time.Millisecond
)
