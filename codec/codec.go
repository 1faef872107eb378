// Package codec converts between wire-format MIDI byte buffers and
// event.Event. The decode/encode tables mirror the original engine's
// backend.cc (buffer_to_midi_event / midi_event_to_buffer), generalized to
// the full status-byte range using the teacher's status-byte length table
// (adapted from midi/midi.go's commandsInfos).
package codec

import (
	"errors"
	"fmt"

	"github.com/dsacre/mididings-sub000/event"
)

// ErrShortBuffer is returned when data does not contain enough bytes for the
// status byte it starts with.
var ErrShortBuffer = errors.New("codec: buffer too short for status byte")

// ErrBadSysEx is returned by Decode when a sysex message does not start with
// 0xf0 or end with 0xf7.
var ErrBadSysEx = errors.New("codec: malformed sysex message")

type commandInfo struct {
	dataLength int // additional bytes after the status byte, -1 for sysex (variable)
	kind       event.Kind
}

// commandsInfos is keyed by the status byte's high nibble for channel
// messages (0x8-0xe) and by the full byte for system messages (0xf0-0xff),
// following the layout of the teacher's midi.commandsInfos table.
var commandsInfos = map[byte]commandInfo{
	0x80: {2, event.NoteOff},
	0x90: {2, event.NoteOn},
	0xa0: {2, event.PolyAftertouch},
	0xb0: {2, event.Ctrl},
	0xc0: {1, event.Program},
	0xd0: {1, event.Aftertouch},
	0xe0: {2, event.Pitchbend},
	0xf0: {-1, event.SysEx},
	0xf1: {1, event.SysCommonQuarterFrame},
	0xf2: {2, event.SysCommonSongPos},
	0xf3: {1, event.SysCommonSongSelect},
	0xf6: {0, event.SysCommonTuneRequest},
	0xf8: {0, event.SysRealtimeClock},
	0xfa: {0, event.SysRealtimeStart},
	0xfb: {0, event.SysRealtimeContinue},
	0xfc: {0, event.SysRealtimeStop},
	0xfe: {0, event.SysRealtimeActiveSensing},
	0xff: {0, event.SysRealtimeReset},
}

// GetDataLength returns the number of data bytes following the given status
// byte, or -1 if the command is a variable-length sysex message. It returns
// 0 for unrecognized status bytes.
func GetDataLength(status byte) int {
	info, ok := lookup(status)
	if !ok {
		return 0
	}
	return info.dataLength
}

func lookup(status byte) (commandInfo, bool) {
	if status >= 0x80 && status < 0xf0 {
		info, ok := commandsInfos[status&0xf0]
		return info, ok
	}
	info, ok := commandsInfos[status]
	return info, ok
}

// Decode parses a single MIDI message out of data (which must begin with a
// status byte) and tags the result with port and frame. A NOTEON with
// velocity 0 is normalized to NOTEOFF, matching backend.cc.
func Decode(data []byte, port int, frame uint64) (event.Event, error) {
	if len(data) == 0 {
		return event.Event{}, ErrShortBuffer
	}
	status := data[0]
	if status < 0x80 {
		return event.Event{}, fmt.Errorf("codec: %#x is not a status byte", status)
	}
	info, ok := lookup(status)
	if !ok {
		return event.Event{}, fmt.Errorf("codec: unrecognized status byte %#x", status)
	}

	ev := event.Event{Port: port, Frame: frame}
	if status < 0xf0 {
		ev.Channel = int(status & 0x0f)
	}

	switch info.kind {
	case event.SysEx:
		return decodeSysEx(data, ev)
	default:
		if info.dataLength > len(data)-1 {
			return event.Event{}, ErrShortBuffer
		}
	}

	switch info.kind {
	case event.NoteOn:
		ev.Data1, ev.Data2 = int(data[1]), int(data[2])
		if ev.Data2 == 0 {
			ev.Kind = event.NoteOff
		} else {
			ev.Kind = event.NoteOn
		}
	case event.NoteOff:
		ev.Kind = event.NoteOff
		ev.Data1, ev.Data2 = int(data[1]), int(data[2])
	case event.PolyAftertouch:
		ev.Kind = event.PolyAftertouch
		ev.Data1, ev.Data2 = int(data[1]), int(data[2])
	case event.Ctrl:
		ev.Kind = event.Ctrl
		ev.Data1, ev.Data2 = int(data[1]), int(data[2])
	case event.Program:
		ev.Kind = event.Program
		ev.Data1 = int(data[1])
	case event.Aftertouch:
		ev.Kind = event.Aftertouch
		ev.Data1 = int(data[1])
	case event.Pitchbend:
		ev.Kind = event.Pitchbend
		ev.Data1 = (int(data[2])<<7 | int(data[1])) - 8192
	case event.SysCommonQuarterFrame, event.SysCommonSongSelect:
		ev.Kind = info.kind
		ev.Data1 = int(data[1])
	case event.SysCommonSongPos:
		ev.Kind = info.kind
		ev.Data1 = int(data[2])<<7 | int(data[1])
	default:
		ev.Kind = info.kind
	}
	return ev, nil
}

func decodeSysEx(data []byte, ev event.Event) (event.Event, error) {
	if len(data) < 2 || data[0] != 0xf0 || data[len(data)-1] != 0xf7 {
		return event.Event{}, ErrBadSysEx
	}
	ev.Kind = event.SysEx
	ev.SysEx = append([]byte(nil), data...)
	return ev, nil
}

// Encode serializes ev back into wire bytes.
func Encode(ev event.Event) []byte {
	if ev.Kind == event.SysEx {
		return append([]byte(nil), ev.SysEx...)
	}

	status := byte(ev.Channel & 0x0f)
	var data []byte
	switch ev.Kind {
	case event.NoteOn:
		status |= 0x90
		data = []byte{byte(ev.Data1), byte(ev.Data2)}
	case event.NoteOff:
		status |= 0x80
		data = []byte{byte(ev.Data1), byte(ev.Data2)}
	case event.PolyAftertouch:
		status |= 0xa0
		data = []byte{byte(ev.Data1), byte(ev.Data2)}
	case event.Ctrl:
		status |= 0xb0
		data = []byte{byte(ev.Data1), byte(ev.Data2)}
	case event.Program:
		status |= 0xc0
		data = []byte{byte(ev.Data1)}
	case event.Aftertouch:
		status |= 0xd0
		data = []byte{byte(ev.Data1)}
	case event.Pitchbend:
		status |= 0xe0
		biased := ev.Data1 + 8192
		data = []byte{byte(biased % 128), byte(biased / 128)}
	case event.SysCommonQuarterFrame:
		status = 0xf1
		data = []byte{byte(ev.Data1)}
	case event.SysCommonSongPos:
		status = 0xf2
		data = []byte{byte(ev.Data1 & 0x7f), byte((ev.Data1 >> 7) & 0x7f)}
	case event.SysCommonSongSelect:
		status = 0xf3
		data = []byte{byte(ev.Data1)}
	case event.SysCommonTuneRequest:
		status = 0xf6
	case event.SysRealtimeClock:
		status = 0xf8
	case event.SysRealtimeStart:
		status = 0xfa
	case event.SysRealtimeContinue:
		status = 0xfb
	case event.SysRealtimeStop:
		status = 0xfc
	case event.SysRealtimeActiveSensing:
		status = 0xfe
	case event.SysRealtimeReset:
		status = 0xff
	default:
		return nil
	}
	return append([]byte{status}, data...)
}
