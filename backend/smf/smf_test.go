package smf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsacre/mididings-sub000/backend/smf"
	"github.com/dsacre/mididings-sub000/event"
)

func TestOutputEventAccumulatesAndStopWrites(t *testing.T) {
	path := t.TempDir() + "/out.mid"
	b := smf.New(path, 1)
	require.NoError(t, b.Start())
	require.NoError(t, b.OutputEvent(event.Event{Kind: event.NoteOn, Channel: 0, Data1: 60, Data2: 100}))
	require.NoError(t, b.OutputEvent(event.Event{Kind: event.NoteOff, Channel: 0, Data1: 60, Data2: 0}))
	require.NoError(t, b.Stop())
}

func TestNumOutPorts(t *testing.T) {
	b := smf.New(t.TempDir()+"/x.mid", 3)
	assert.Equal(t, 3, b.NumOutPorts())
}

func TestOutputEventIgnoresUnencodableKind(t *testing.T) {
	b := smf.New(t.TempDir()+"/y.mid", 1)
	require.NoError(t, b.Start())
	require.NoError(t, b.OutputEvent(event.Event{Kind: event.Dummy}))
	require.NoError(t, b.Stop())
}
