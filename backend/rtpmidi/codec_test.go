package rtpmidi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsacre/mididings-sub000/event"
)

func TestEncodeDecodePacketRoundTrip(t *testing.T) {
	evs := []event.Event{{Kind: event.NoteOn, Channel: 2, Data1: 60, Data2: 100}}
	pkt := encodePacket(0xdeadbeef, 1, time.Now(), evs)

	decoded, ssrc, err := decodePacket(pkt)
	require.NoError(t, err)
	assert.EqualValues(t, 0xdeadbeef, ssrc)
	require.Len(t, decoded, 1)
	assert.Equal(t, event.NoteOn, decoded[0].Kind)
	assert.Equal(t, 2, decoded[0].Channel)
	assert.Equal(t, 60, decoded[0].Note())
}

func TestDecodePacketRejectsShortPacket(t *testing.T) {
	_, _, err := decodePacket([]byte{0x80, 0x61})
	assert.ErrorIs(t, err, errShortPacket)
}

func TestParseInvitationRecognizesMagicPrefix(t *testing.T) {
	pkt := encodeInvitationAccepted(0x12345678, "test-peer")
	cmd, ssrc, ok := parseInvitation(pkt)
	require.True(t, ok)
	assert.Equal(t, invitationAccepted, cmd)
	assert.EqualValues(t, 0x12345678, ssrc)
}

func TestParseInvitationRejectsNonMagicPrefix(t *testing.T) {
	_, _, ok := parseInvitation([]byte{0x00, 0x00, 'I', 'N'})
	assert.False(t, ok)
}
