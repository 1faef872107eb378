package rtpmidi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	"github.com/dsacre/mididings-sub000/codec"
	"github.com/dsacre/mididings-sub000/event"
)

// rtpHeader is the 12-byte fixed RTP header (RFC 3550 §5.1), as used by the
// AppleMIDI payload format. Grounded on the teacher's rtp.RTPMIDIHeader.
type rtpHeader struct {
	versionFlags byte // version(2) padding(1) extension(1) csrcCount(4)
	markerPT     byte // marker(1) payloadType(7)
	sequence     uint16
	timestamp    uint32
	ssrc         uint32
}

const rtpMidiPayloadType = 0x61 // dynamic payload type conventionally used for RTP-MIDI

func encodePacket(ssrc uint32, seq uint16, start time.Time, evs []event.Event) []byte {
	hdr := rtpHeader{
		versionFlags: 0x80, // version 2, no padding/extension/csrc
		markerPT:     0x80 | rtpMidiPayloadType,
		sequence:     seq,
		timestamp:    uint32(time.Since(start).Milliseconds()),
		ssrc:         ssrc,
	}

	var payload []byte
	for _, ev := range evs {
		cmd := codec.Encode(ev)
		if cmd == nil {
			continue
		}
		payload = append(payload, 0x00) // delta-time 0, single-byte VLQ
		payload = append(payload, cmd...)
	}

	var listHeader []byte
	if len(payload) < 0x10 {
		listHeader = []byte{byte(len(payload))}
	} else {
		hi := byte(0x80 | (len(payload) >> 8 & 0x0f))
		lo := byte(len(payload) & 0xff)
		listHeader = []byte{hi, lo}
	}

	buf := new(bytes.Buffer)
	buf.WriteByte(hdr.versionFlags)
	buf.WriteByte(hdr.markerPT)
	binary.Write(buf, binary.BigEndian, hdr.sequence)
	binary.Write(buf, binary.BigEndian, hdr.timestamp)
	binary.Write(buf, binary.BigEndian, hdr.ssrc)
	buf.Write(listHeader)
	buf.Write(payload)
	return buf.Bytes()
}

var errShortPacket = errors.New("rtpmidi: packet too short")

// decodePacket parses an RTP-MIDI data packet into the events it carries,
// along with the sender's SSRC.
func decodePacket(pkt []byte) ([]event.Event, uint32, error) {
	if len(pkt) < 13 {
		return nil, 0, errShortPacket
	}
	ssrc := binary.BigEndian.Uint32(pkt[8:12])
	rest := pkt[12:]

	var listLen int
	var body []byte
	if rest[0]&0x80 == 0 {
		listLen = int(rest[0])
		body = rest[1:]
	} else {
		if len(rest) < 2 {
			return nil, 0, errShortPacket
		}
		listLen = int(rest[0]&0x0f)<<8 | int(rest[1])
		body = rest[2:]
	}
	if listLen > len(body) {
		listLen = len(body)
	}
	body = body[:listLen]

	var evs []event.Event
	for len(body) > 0 {
		n, delta := decodeVLQ(body)
		body = body[n:]
		_ = delta
		if len(body) == 0 {
			break
		}
		status := body[0]
		length := 1 + codec.GetDataLength(status)
		if length <= 0 || length > len(body) {
			// sysex or malformed: consume the remainder of this command
			// list entry rather than attempting multi-packet reassembly.
			length = len(body)
		}
		ev, err := codec.Decode(body[:length], 0, 0)
		if err == nil {
			evs = append(evs, ev)
		}
		body = body[length:]
	}
	return evs, ssrc, nil
}

// decodeVLQ reads a MIDI-style variable-length quantity and returns its
// encoded byte length and decoded value.
func decodeVLQ(data []byte) (n int, value uint32) {
	for _, b := range data {
		n++
		value = value<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			break
		}
	}
	return n, value
}

type controlCommand int

const (
	invitation controlCommand = iota
	invitationAccepted
)

// parseInvitation recognizes the subset of AppleMIDI control commands this
// backend answers: "IN" (invitation) and "OK" (accepted). Grounded on the
// 0xffff-magic-prefixed control protocol the teacher's session.go
// dispatches on.
func parseInvitation(pkt []byte) (controlCommand, uint32, bool) {
	if len(pkt) < 16 || pkt[0] != 0xff || pkt[1] != 0xff {
		return 0, 0, false
	}
	var cmd controlCommand
	switch string(pkt[2:4]) {
	case "IN":
		cmd = invitation
	case "OK":
		cmd = invitationAccepted
	default:
		return 0, 0, false
	}
	ssrc := binary.BigEndian.Uint32(pkt[12:16])
	return cmd, ssrc, true
}

func encodeInvitationAccepted(ssrc uint32, name string) []byte {
	buf := new(bytes.Buffer)
	buf.Write([]byte{0xff, 0xff})
	buf.Write([]byte("OK"))
	binary.Write(buf, binary.BigEndian, uint32(2)) // protocol version
	binary.Write(buf, binary.BigEndian, uint32(0)) // initiator token, unused by this minimal exchange
	binary.Write(buf, binary.BigEndian, ssrc)
	buf.WriteString(name)
	buf.WriteByte(0)
	return buf.Bytes()
}
