// Package engine implements the scheduling loop that ties the module tree,
// the RT event buffer, the deferred caller and a Backend together: one
// input event per RT cycle, sanitized output, and scene switches coalesced
// onto the end of whichever cycle (RT or async wake) last asked for one.
// Grounded on trunk/src/engine.cc / engine.hh.
package engine

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/dsacre/mididings-sub000/backend"
	"github.com/dsacre/mididings-sub000/buffer"
	"github.com/dsacre/mididings-sub000/config"
	"github.com/dsacre/mididings-sub000/deferred"
	"github.com/dsacre/mididings-sub000/event"
	"github.com/dsacre/mididings-sub000/patch"
	"github.com/dsacre/mididings-sub000/pool"
	"github.com/dsacre/mididings-sub000/unit"
)

// sustainController is MIDI CC#64, the standard sustain/damper pedal
// controller, used to key sustain-patch affinity.
const sustainController = 64

type sceneEntry struct {
	Patch     *patch.Patch
	InitPatch *patch.Patch
}

type noteKey struct {
	port, channel, note int
}

type sustainKey struct {
	port, channel int
}

// Engine owns the scene map, the RT buffer and pool, the process mutex, and
// the deferred caller, and drives a Backend's input/output.
type Engine struct {
	backend  backend.Backend
	numPorts int
	logger   *log.Logger

	pool     *pool.Pool
	rtBuffer *buffer.Buffer

	ctrlPatch *patch.Patch
	prePatch  *patch.Patch
	postPatch *patch.Patch
	sanitizePatch *patch.Patch

	scenes         map[int]map[int]sceneEntry
	haveFirstScene bool
	firstScene     int
	firstSubscene  int

	currentScene, currentSubscene int
	newScene, newSubscene         int
	currentPatch                  *patch.Patch

	// noteonPatches/sustainPatches grow and shrink with held notes/pedals;
	// config.MaxSimultaneousNotes/MaxSustainPedals are soft capacity hints
	// carried over from the original's fixed-size pre-reservation, not hard
	// limits enforced here — a Go map has no analogous fixed-array ceiling.
	noteonPatches  map[noteKey]*patch.Patch
	sustainPatches map[sustainKey]*patch.Patch

	sceneSwitchCallback func(scene, subscene int)

	deferredCaller *deferred.Caller

	sanitizeRejects uint64

	// procMu is the single process mutex: the RT cycle body, SwitchScene's
	// callers, OutputEvent and RunAsync are all mutually exclusive under
	// it, mirroring the original's boost::mutex.
	procMu sync.Mutex
}

func (e *Engine) mu() *sync.Mutex { return &e.procMu }

// New constructs an Engine bound to be, accepting ports in [0, numPorts).
// Pass nil for logger to use log.Default().
func New(be backend.Backend, numPorts int, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		backend:        be,
		numPorts:       numPorts,
		logger:         logger,
		pool:           pool.New(config.MaxEvents),
		scenes:         make(map[int]map[int]sceneEntry),
		noteonPatches:  make(map[noteKey]*patch.Patch, config.MaxSimultaneousNotes),
		sustainPatches: make(map[sustainKey]*patch.Patch, config.MaxSustainPedals),
		newScene:       -1,
		newSubscene:    -1,
	}
	e.rtBuffer = buffer.New(e.pool, e)
	e.sanitizePatch = &patch.Patch{Root: &patch.Extended{Unit: unit.Sanitize{Services: e}}}
	e.deferredCaller = deferred.New(config.MaxAsyncCalls, config.AsyncCallbackInterval, config.AsyncJoinTimeout, e.onAsyncTick, logger)
	return e
}

// AddScene registers the patch (and optional init patch, which may be nil)
// for a (scene, subscene) pair. The very first scene added becomes the
// engine's initial scene on Start/RunInit.
func (e *Engine) AddScene(scene, subscene int, p *patch.Patch, initPatch *patch.Patch) {
	if e.scenes[scene] == nil {
		e.scenes[scene] = make(map[int]sceneEntry)
	}
	e.scenes[scene][subscene] = sceneEntry{Patch: p, InitPatch: initPatch}
	if !e.haveFirstScene {
		e.haveFirstScene = true
		e.firstScene, e.firstSubscene = scene, subscene
	}
}

// SetCtrlPatch sets the patch run (for side effects only — its output is
// always discarded) before every main cycle's patch.
func (e *Engine) SetCtrlPatch(p *patch.Patch) { e.ctrlPatch = p }

// SetPrePatch/SetPostPatch set the patches run immediately before/after the
// scene's own patch on every main cycle. An init patch is followed by the
// post patch but not preceded by the pre patch.
func (e *Engine) SetPrePatch(p *patch.Patch)  { e.prePatch = p }
func (e *Engine) SetPostPatch(p *patch.Patch) { e.postPatch = p }

// SetSceneSwitchCallback installs a hook invoked whenever a scene switch is
// about to be applied, but only when more than one scene is registered.
func (e *Engine) SetSceneSwitchCallback(fn func(scene, subscene int)) {
	e.sceneSwitchCallback = fn
}

// Start runs the engine's backend and deferred caller, applies the initial
// scene, and then loops RunCycle until ctx is done or the backend returns an
// error.
func (e *Engine) Start(ctx context.Context) error {
	if !e.haveFirstScene {
		return ErrNoScenes
	}
	if err := e.backend.Start(); err != nil {
		return err
	}
	e.deferredCaller.Start()
	if err := e.RunInit(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := e.RunCycle(ctx); err != nil {
			return err
		}
	}
}

// Stop shuts down the deferred caller and the backend.
func (e *Engine) Stop() error {
	e.deferredCaller.Stop()
	return e.backend.Stop()
}

// RunInit applies the engine's first scene, running its init patch if any,
// and flushes whatever it produces to the backend.
func (e *Engine) RunInit() error {
	if !e.haveFirstScene {
		return ErrNoScenes
	}
	e.mu().Lock()
	defer e.mu().Unlock()
	e.rtBuffer.Clear()
	e.newScene, e.newSubscene = e.firstScene, e.firstSubscene
	e.processSceneSwitch()
	return e.flushOutput()
}

// RunCycle reads exactly one input event from the backend, runs it through
// the module tree, applies any scene switch it (or a prior async call)
// triggered, and flushes the result to the backend — the RT thread's one
// unit of work.
func (e *Engine) RunCycle(ctx context.Context) error {
	ev, err := e.backend.InputEvent(ctx)
	if err != nil {
		return err
	}
	e.mu().Lock()
	defer e.mu().Unlock()
	e.rtBuffer.Clear()
	e.processEvent(ev)
	e.processSceneSwitch()
	return e.flushOutput()
}

// RunAsync applies a scene switch requested from the deferred caller's
// worker goroutine, when the RT thread might otherwise be idle for a while.
// It is a no-op unless a switch is actually pending.
func (e *Engine) RunAsync() error {
	e.mu().Lock()
	defer e.mu().Unlock()
	if e.newScene == -1 && e.newSubscene == -1 {
		return nil
	}
	e.rtBuffer.Clear()
	e.processSceneSwitch()
	return e.flushOutput()
}

func (e *Engine) onAsyncTick() {
	if err := e.RunAsync(); err != nil {
		e.logger.Printf("engine: async scene switch failed: %v", err)
	}
}

// ProcessEvent is the non-RT test entry point: it bypasses the backend
// entirely and returns the events the module tree produced for ev,
// defaulting the current patch to the first registered scene if none is
// active yet. Grounded on engine.cc's process_event.
func (e *Engine) ProcessEvent(ev event.Event) []event.Event {
	e.mu().Lock()
	defer e.mu().Unlock()
	if e.currentPatch == nil && e.haveFirstScene {
		if entry, ok := e.lookupScene(e.firstScene, e.firstSubscene); ok {
			e.currentPatch = entry.Patch
			e.currentScene, e.currentSubscene = e.firstScene, e.firstSubscene
		}
	}
	e.rtBuffer.Clear()
	e.processEvent(ev)
	e.processSceneSwitch()

	var out []event.Event
	for it := e.rtBuffer.Front(); it != nil; it = it.Next() {
		out = append(out, *buffer.EventAt(it))
	}
	return out
}

// OutputEvent sends ev to the backend directly, serialized against the
// process mutex like every other RT-thread operation.
func (e *Engine) OutputEvent(ev event.Event) error {
	e.mu().Lock()
	defer e.mu().Unlock()
	return e.backend.OutputEvent(ev)
}

func (e *Engine) flushOutput() error {
	for it := e.rtBuffer.Front(); it != nil; it = it.Next() {
		if err := e.backend.OutputEvent(*buffer.EventAt(it)); err != nil {
			return err
		}
	}
	return nil
}

// processEvent runs one input event through ctrl/pre/main/post/sanitize,
// leaving its surviving output in e.rtBuffer. Grounded on engine.cc's
// process<B>().
func (e *Engine) processEvent(ev event.Event) {
	if e.ctrlPatch != nil {
		e.runSideEffect(e.ctrlPatch, ev)
	}

	matched := e.getMatchingPatch(ev)

	it := e.rtBuffer.PushBack(ev)
	rng := buffer.NewRangeN(it, 1)

	if e.prePatch != nil {
		rng = e.prePatch.Process(e.rtBuffer, rng)
	}
	if matched != nil {
		rng = matched.Process(e.rtBuffer, rng)
	}
	if e.postPatch != nil {
		rng = e.postPatch.Process(e.rtBuffer, rng)
	}
	e.sanitizePatch.Process(e.rtBuffer, rng)
}

// runSideEffect processes a copy of ev through p on a throwaway buffer,
// discarding whatever it produces — used for the ctrl patch, whose purpose
// is side effects (e.g. Call units) rather than output.
func (e *Engine) runSideEffect(p *patch.Patch, ev event.Event) {
	side := buffer.New(nil, e)
	it := side.PushBack(ev.Clone())
	p.Process(side, buffer.NewRangeN(it, 1))
	side.Clear()
}

// getMatchingPatch resolves which patch should handle ev, tracking
// per-note and per-sustain-pedal affinity so a NOTEOFF or pedal release
// that arrives after a scene switch is still routed to the patch that saw
// the corresponding NOTEON/press. Grounded on engine.cc's
// get_matching_patch.
func (e *Engine) getMatchingPatch(ev event.Event) *patch.Patch {
	switch ev.Kind {
	case event.NoteOn:
		k := noteKey{ev.Port, ev.Channel, ev.Note()}
		e.noteonPatches[k] = e.currentPatch
		return e.currentPatch
	case event.NoteOff:
		k := noteKey{ev.Port, ev.Channel, ev.Note()}
		if p, ok := e.noteonPatches[k]; ok {
			delete(e.noteonPatches, k)
			return p
		}
		return e.currentPatch
	case event.Ctrl:
		if ev.Ctrl() != sustainController {
			return e.currentPatch
		}
		k := sustainKey{ev.Port, ev.Channel}
		switch ev.Value() {
		case 127:
			e.sustainPatches[k] = e.currentPatch
		case 0:
			if p, ok := e.sustainPatches[k]; ok {
				delete(e.sustainPatches, k)
				return p
			}
		}
		// any other value (half-pedal) just uses the current patch, same as
		// engine.cc's TODO-flagged simplification.
		return e.currentPatch
	default:
		return e.currentPatch
	}
}

// processSceneSwitch applies a coalesced pending scene switch, if any:
// only the final target's init patch ever runs. Grounded on engine.cc's
// process_scene_switch.
func (e *Engine) processSceneSwitch() {
	if e.newScene == -1 && e.newSubscene == -1 {
		return
	}
	if e.sceneSwitchCallback != nil && len(e.scenes) > 1 {
		e.sceneSwitchCallback(e.newScene, e.newSubscene)
	}

	scene := e.currentScene
	if e.newScene != -1 {
		scene = e.newScene
	}
	subscene := 0
	if e.newSubscene != -1 {
		subscene = e.newSubscene
	}

	if entry, ok := e.lookupScene(scene, subscene); ok {
		if entry.InitPatch != nil {
			it := e.rtBuffer.PushBack(event.NewDummy(0))
			rng := buffer.NewRangeN(it, 1)
			rng = entry.InitPatch.Process(e.rtBuffer, rng)
			if e.postPatch != nil {
				rng = e.postPatch.Process(e.rtBuffer, rng)
			}
			e.sanitizePatch.Process(e.rtBuffer, rng)
		}
		e.currentPatch = entry.Patch
		e.currentScene, e.currentSubscene = scene, subscene
	}

	e.newScene, e.newSubscene = -1, -1
}

// SwitchScene requests a scene/subscene change, coalescing with any switch
// already pending this cycle; -1 leaves that dimension unchanged. It never
// blocks and never locks — callers (engine-control units) already hold the
// process mutex via the RT cycle or async-tick call path that invoked them.
func (e *Engine) SwitchScene(scene, subscene int) {
	if scene != -1 {
		e.newScene = scene
	}
	if subscene != -1 {
		e.newSubscene = subscene
	}
}

func (e *Engine) CurrentScene() int    { return e.currentScene }
func (e *Engine) CurrentSubscene() int { return e.currentSubscene }

func (e *Engine) HasScene(n int) bool {
	_, ok := e.scenes[n]
	return ok
}

func (e *Engine) HasSubscene(n int) bool {
	subs, ok := e.scenes[e.currentScene]
	if !ok {
		return false
	}
	_, ok = subs[n]
	return ok
}

func (e *Engine) NumSubscenes() int {
	return len(e.scenes[e.currentScene])
}

func (e *Engine) lookupScene(scene, subscene int) (sceneEntry, bool) {
	subs, ok := e.scenes[scene]
	if !ok {
		return sceneEntry{}, false
	}
	entry, ok := subs[subscene]
	return entry, ok
}

// CallNow and CallDeferred implement buffer.Services by delegating to the
// deferred caller.
func (e *Engine) CallNow(fn func(event.Event) []event.Event, ev event.Event) []event.Event {
	return e.deferredCaller.CallNow(deferred.Func(fn), ev)
}

func (e *Engine) CallDeferred(fn func(event.Event) []event.Event, ev event.Event) bool {
	return e.deferredCaller.CallDeferred(deferred.Func(fn), ev)
}

// SanitizeEvent validates and clamps ev, reporting false when it must be
// dropped outright. Grounded on engine.cc's sanitize_event.
func (e *Engine) SanitizeEvent(ev event.Event) (event.Event, bool) {
	if ev.Port < 0 || ev.Port >= e.numPorts {
		e.countReject()
		return ev, false
	}
	switch ev.Kind {
	case event.NoteOn, event.NoteOff:
		if !validChannel(ev.Channel) || !validData(ev.Data1) {
			e.countReject()
			return ev, false
		}
		if ev.Kind == event.NoteOn && ev.Data2 <= 0 {
			e.countReject()
			return ev, false
		}
		ev.Data2 = clamp(ev.Data2, 0, 127)
		return ev, true
	case event.PolyAftertouch:
		if !validChannel(ev.Channel) || !validData(ev.Data1) {
			e.countReject()
			return ev, false
		}
		ev.Data2 = clamp(ev.Data2, 0, 127)
		return ev, true
	case event.Ctrl:
		if !validChannel(ev.Channel) || !validData(ev.Data1) {
			e.countReject()
			return ev, false
		}
		ev.Data2 = clamp(ev.Data2, 0, 127)
		return ev, true
	case event.Program:
		if !validChannel(ev.Channel) || !validData(ev.Data1) {
			e.countReject()
			return ev, false
		}
		return ev, true
	case event.Aftertouch:
		if !validChannel(ev.Channel) {
			e.countReject()
			return ev, false
		}
		ev.Data1 = clamp(ev.Data1, 0, 127)
		return ev, true
	case event.Pitchbend:
		if !validChannel(ev.Channel) {
			e.countReject()
			return ev, false
		}
		ev.Data1 = clamp(ev.Data1, -8192, 8191)
		return ev, true
	case event.SysEx:
		if len(ev.SysEx) < 2 || ev.SysEx[0] != 0xf0 || ev.SysEx[len(ev.SysEx)-1] != 0xf7 {
			e.countReject()
			return ev, false
		}
		return ev, true
	case event.Dummy:
		return ev, false
	default:
		if ev.Kind.Has(event.System) {
			return ev, true
		}
		e.countReject()
		return ev, false
	}
}

func (e *Engine) countReject() { atomic.AddUint64(&e.sanitizeRejects, 1) }

// SanitizeRejects returns how many events sanitize has dropped so far.
func (e *Engine) SanitizeRejects() uint64 { return atomic.LoadUint64(&e.sanitizeRejects) }

func validChannel(ch int) bool { return ch >= 0 && ch <= 15 }
func validData(v int) bool     { return v >= 0 && v <= 127 }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
