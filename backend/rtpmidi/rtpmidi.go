// Package rtpmidi implements a backend.Backend over RTP-MIDI (AppleMIDI),
// the network protocol spoken by CoreMIDI's "Network" source and most
// hardware MIDI-over-IP interfaces. Adapted from the teacher's session/rtp
// packages, generalized from raw byte payloads to event.Event via package
// codec, and discovered/advertised over Bonjour via zeroconf exactly as the
// teacher's own example binary does.
package rtpmidi

import (
	"context"
	"fmt"
	"log"

	"github.com/grandcat/zeroconf"

	"github.com/dsacre/mididings-sub000/backend"
	"github.com/dsacre/mididings-sub000/event"
)

// Config configures a Backend. Following
// Conceptual-Machines-magda-api/internal/config's getEnv(key, default)
// convention, a caller typically builds this from environment variables in
// cmd/mididingsd rather than hardcoding it.
type Config struct {
	BonjourName string
	Port        uint16
	NumPorts    int
	Logger      *log.Logger
}

// Backend is a backend.Backend speaking RTP-MIDI over UDP, with Bonjour
// advertisement so AppleMIDI-capable peers can find it.
type Backend struct {
	cfg     Config
	session *session
	zc      *zeroconf.Server

	incoming chan event.Event
}

// New returns a Backend. Call Start to bind sockets and begin advertising.
func New(cfg Config) *Backend {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.NumPorts == 0 {
		cfg.NumPorts = 1
	}
	return &Backend{cfg: cfg, incoming: make(chan event.Event, 256)}
}

func (b *Backend) Start() error {
	s, err := startSession(b.cfg.BonjourName, b.cfg.Port, b.cfg.Logger, func(ev event.Event) {
		select {
		case b.incoming <- ev:
		default:
			b.cfg.Logger.Printf("rtpmidi: inbound queue full, dropping event %v", ev)
		}
	})
	if err != nil {
		return err
	}
	b.session = s

	zc, err := zeroconf.Register(b.cfg.BonjourName, "_apple-midi._udp", "local.", int(b.cfg.Port),
		[]string{"txtv=0", "lo=1", "la=2"}, nil)
	if err != nil {
		s.end()
		return fmt.Errorf("rtpmidi: bonjour registration failed: %w", err)
	}
	b.zc = zc
	return nil
}

func (b *Backend) Stop() error {
	if b.zc != nil {
		b.zc.Shutdown()
	}
	if b.session != nil {
		b.session.end()
	}
	return nil
}

func (b *Backend) InputEvent(ctx context.Context) (event.Event, error) {
	select {
	case ev, ok := <-b.incoming:
		if !ok {
			return event.Event{}, backend.ErrClosed
		}
		return ev, nil
	case <-ctx.Done():
		return event.Event{}, ctx.Err()
	}
}

func (b *Backend) OutputEvent(ev event.Event) error {
	if b.session == nil {
		return backend.ErrClosed
	}
	return b.session.send(ev)
}

func (b *Backend) NumOutPorts() int { return b.cfg.NumPorts }
