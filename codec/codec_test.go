package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsacre/mididings-sub000/codec"
	"github.com/dsacre/mididings-sub000/event"
)

func TestDecodeNoteOnVelocityZeroBecomesNoteOff(t *testing.T) {
	ev, err := codec.Decode([]byte{0x93, 60, 0}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, event.NoteOff, ev.Kind)
	assert.Equal(t, 3, ev.Channel)
	assert.Equal(t, 60, ev.Note())
}

func TestDecodeEncodeRoundTripNoteOn(t *testing.T) {
	ev, err := codec.Decode([]byte{0x91, 64, 100}, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, event.NoteOn, ev.Kind)
	assert.Equal(t, 1, ev.Channel)
	assert.Equal(t, 64, ev.Note())
	assert.Equal(t, 100, ev.Velocity())

	out := codec.Encode(ev)
	assert.Equal(t, []byte{0x91, 64, 100}, out)
}

func TestDecodeEncodePitchbendRoundTrip(t *testing.T) {
	ev, err := codec.Decode([]byte{0xe0, 0x00, 0x40}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, ev.Data1, "centered pitchbend decodes to 0 after the 8192 bias")

	out := codec.Encode(ev)
	assert.Equal(t, []byte{0xe0, 0x00, 0x40}, out)
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := codec.Decode([]byte{0x90, 64}, 0, 0)
	assert.ErrorIs(t, err, codec.ErrShortBuffer)
}

func TestDecodeSysExRequiresFraming(t *testing.T) {
	_, err := codec.Decode([]byte{0xf0, 0x7e, 0x01}, 0, 0)
	assert.ErrorIs(t, err, codec.ErrBadSysEx)

	ev, err := codec.Decode([]byte{0xf0, 0x7e, 0x01, 0xf7}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, event.SysEx, ev.Kind)
	assert.Equal(t, []byte{0xf0, 0x7e, 0x01, 0xf7}, ev.SysEx)
}

func TestGetDataLength(t *testing.T) {
	assert.Equal(t, 2, codec.GetDataLength(0x90))
	assert.Equal(t, 1, codec.GetDataLength(0xc3))
	assert.Equal(t, -1, codec.GetDataLength(0xf0))
	assert.Equal(t, 0, codec.GetDataLength(0xf8))
}

func TestEncodeUnknownKindReturnsNil(t *testing.T) {
	assert.Nil(t, codec.Encode(event.Event{Kind: event.None}))
}
