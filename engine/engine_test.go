package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsacre/mididings-sub000/backend/memory"
	"github.com/dsacre/mididings-sub000/engine"
	"github.com/dsacre/mididings-sub000/event"
	"github.com/dsacre/mididings-sub000/patch"
	"github.com/dsacre/mididings-sub000/unit"
)

func transposingEngine() *engine.Engine {
	be := memory.New(8, 1)
	eng := engine.New(be, 1, nil)
	p := &patch.Patch{Root: &patch.Single{Unit: unit.Transpose{Offset: unit.Literal(12)}}}
	eng.AddScene(0, 0, p, nil)
	return eng
}

func TestProcessEventRunsFirstSceneByDefault(t *testing.T) {
	eng := transposingEngine()
	out := eng.ProcessEvent(event.Event{Kind: event.NoteOn, Port: 0, Channel: 0, Data1: 60, Data2: 100})
	require.Len(t, out, 1)
	assert.Equal(t, 72, out[0].Note())
}

func TestSanitizeRejectsOutOfRangePort(t *testing.T) {
	eng := transposingEngine()
	out := eng.ProcessEvent(event.Event{Kind: event.NoteOn, Port: 5, Channel: 0, Data1: 60, Data2: 100})
	assert.Empty(t, out)
	assert.Equal(t, uint64(1), eng.SanitizeRejects())
}

func TestSanitizeRejectsNoteOnWithZeroVelocity(t *testing.T) {
	eng := transposingEngine()
	out := eng.ProcessEvent(event.Event{Kind: event.NoteOn, Port: 0, Channel: 0, Data1: 60, Data2: 0})
	assert.Empty(t, out)
}

func TestNoteOffFollowsNoteOnPatchAcrossSceneSwitch(t *testing.T) {
	be := memory.New(8, 1)
	eng := engine.New(be, 1, nil)

	scene0 := &patch.Patch{Root: &patch.Single{Unit: unit.Port{Value: unit.Literal(0)}}}
	scene1 := &patch.Patch{Root: &patch.Single{Unit: unit.Port{Value: unit.Literal(1)}}}
	eng.AddScene(0, 0, scene0, nil)
	eng.AddScene(1, 0, scene1, nil)

	onOut := eng.ProcessEvent(event.Event{Kind: event.NoteOn, Port: 0, Channel: 0, Data1: 60, Data2: 100})
	require.Len(t, onOut, 1)

	eng.SwitchScene(1, 0)
	// RunAsync applies the pending switch before the noteoff arrives, so
	// scene 1 is current when it is routed. Scene 1 would move the noteoff to
	// port 1, which sanitize drops on this one-port engine.
	require.NoError(t, eng.RunAsync())
	offOut := eng.ProcessEvent(event.Event{Kind: event.NoteOff, Port: 0, Channel: 0, Data1: 60, Data2: 0})
	require.Len(t, offOut, 1)
	assert.Equal(t, event.NoteOff, offOut[0].Kind, "the noteoff is still routed and sanitized as expected even though scene 1 is now current")
}

func TestSustainReleaseFollowsPressPatchAcrossSceneSwitch(t *testing.T) {
	be := memory.New(8, 1)
	eng := engine.New(be, 1, nil)

	scene0 := &patch.Patch{Root: &patch.Single{Unit: unit.Port{Value: unit.Literal(0)}}}
	scene1 := &patch.Patch{Root: &patch.Single{Unit: unit.Port{Value: unit.Literal(1)}}}
	eng.AddScene(0, 0, scene0, nil)
	eng.AddScene(1, 0, scene1, nil)

	pressOut := eng.ProcessEvent(event.Event{Kind: event.Ctrl, Port: 0, Channel: 0, Data1: 64, Data2: 127})
	require.Len(t, pressOut, 1)
	assert.Equal(t, 0, pressOut[0].Port)

	eng.SwitchScene(1, 0)
	require.NoError(t, eng.RunAsync())
	releaseOut := eng.ProcessEvent(event.Event{Kind: event.Ctrl, Port: 0, Channel: 0, Data1: 64, Data2: 0})
	require.Len(t, releaseOut, 1)
	assert.Equal(t, 0, releaseOut[0].Port, "the release is routed through scene 0, which saw the press, not the now-current scene 1")
}

func TestSustainIntermediateValueUsesCurrentPatchNotAffinity(t *testing.T) {
	be := memory.New(8, 2)
	eng := engine.New(be, 2, nil)

	scene0 := &patch.Patch{Root: &patch.Single{Unit: unit.Port{Value: unit.Literal(0)}}}
	scene1 := &patch.Patch{Root: &patch.Single{Unit: unit.Port{Value: unit.Literal(1)}}}
	eng.AddScene(0, 0, scene0, nil)
	eng.AddScene(1, 0, scene1, nil)

	pressOut := eng.ProcessEvent(event.Event{Kind: event.Ctrl, Port: 0, Channel: 0, Data1: 64, Data2: 127})
	require.Len(t, pressOut, 1)

	eng.SwitchScene(1, 0)
	require.NoError(t, eng.RunAsync())
	// An intermediate (half-pedal) value never touches sustain affinity, so
	// it always routes through whichever patch is current right now.
	midOut := eng.ProcessEvent(event.Event{Kind: event.Ctrl, Port: 0, Channel: 0, Data1: 64, Data2: 64})
	require.Len(t, midOut, 1)
	assert.Equal(t, 1, midOut[0].Port, "an intermediate value routes through the current scene, not the press affinity")

	// The real release (value 0) still finds scene 0's recorded affinity,
	// since the intermediate value never consumed or overwrote it.
	releaseOut := eng.ProcessEvent(event.Event{Kind: event.Ctrl, Port: 0, Channel: 0, Data1: 64, Data2: 0})
	require.Len(t, releaseOut, 1)
	assert.Equal(t, 0, releaseOut[0].Port, "the release still follows the original press affinity")
}

func TestSceneSwitchUnitSwitchesScene(t *testing.T) {
	be := memory.New(8, 1)
	eng := engine.New(be, 1, nil)

	scene0 := &patch.Patch{Root: &patch.Extended{Unit: unit.SceneSwitch{Num: unit.Literal(1), Services: eng}}}
	scene1 := &patch.Patch{Root: &patch.Single{Unit: unit.Port{Value: unit.Literal(0)}}}
	eng.AddScene(0, 0, scene0, nil)
	eng.AddScene(1, 0, scene1, nil)

	out := eng.ProcessEvent(event.Event{Kind: event.Ctrl, Port: 0, Channel: 0, Data1: 1, Data2: 1})
	assert.Empty(t, out, "the scene-switch trigger event is always discarded")
	assert.Equal(t, 1, eng.CurrentScene())
}
