package rtpmidi

import (
	"log"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/dsacre/mididings-sub000/event"
)

// peer tracks one remote endpoint this session has exchanged packets with,
// keyed by its SSRC — adapted from the teacher's session.go, which keeps an
// equivalent sync.Map of connections keyed the same way.
type peer struct {
	addr *net.UDPAddr
	ssrc uint32
}

// session owns the control and data UDP sockets and the peer table.
// Grounded on the teacher's session.MIDINetworkSession.
type session struct {
	bonjourName    string
	ssrc           uint32
	sequenceNumber uint16
	startTime      time.Time
	logger         *log.Logger

	controlConn net.PacketConn
	dataConn    net.PacketConn

	peers sync.Map // ssrc uint32 -> *peer

	onEvent func(event.Event)

	mu   sync.Mutex
	wg   sync.WaitGroup
	done chan struct{}
}

func startSession(bonjourName string, port uint16, logger *log.Logger, onEvent func(event.Event)) (*session, error) {
	controlAddr := &net.UDPAddr{Port: int(port)}
	dataAddr := &net.UDPAddr{Port: int(port) + 1}

	controlConn, err := net.ListenUDP("udp", controlAddr)
	if err != nil {
		return nil, err
	}
	dataConn, err := net.ListenUDP("udp", dataAddr)
	if err != nil {
		controlConn.Close()
		return nil, err
	}

	s := &session{
		bonjourName: bonjourName,
		ssrc:        rand.Uint32(),
		startTime:   time.Now(),
		logger:      logger,
		controlConn: controlConn,
		dataConn:    dataConn,
		onEvent:     onEvent,
		done:        make(chan struct{}),
	}

	s.wg.Add(2)
	go s.messageLoop(s.controlConn, s.handleControl)
	go s.messageLoop(s.dataConn, s.handleData)

	return s, nil
}

func (s *session) messageLoop(conn net.PacketConn, handle func([]byte, net.Addr)) {
	defer s.wg.Done()
	buf := make([]byte, 1500)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.logger.Printf("rtpmidi: read error: %v", err)
				return
			}
		}
		pkt := append([]byte(nil), buf[:n]...)
		handle(pkt, addr)
	}
}

// handleControl implements a minimal AppleMIDI control exchange: any
// well-formed invitation registers the sender as a peer and is answered in
// kind. This intentionally does not implement the full SIP-like handshake
// state machine the original engine's session.go and its rtp package
// model; it is enough for a directly-addressed peer (as opposed to
// Bonjour-browsed auto-connect) to start exchanging MIDI.
func (s *session) handleControl(pkt []byte, addr net.Addr) {
	cmd, ssrc, ok := parseInvitation(pkt)
	if !ok {
		return
	}
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return
	}
	s.peers.Store(ssrc, &peer{addr: udpAddr, ssrc: ssrc})
	if cmd == invitation {
		reply := encodeInvitationAccepted(s.ssrc, s.bonjourName)
		if _, err := s.controlConn.WriteTo(reply, addr); err != nil {
			s.logger.Printf("rtpmidi: control reply failed: %v", err)
		}
	}
}

func (s *session) handleData(pkt []byte, addr net.Addr) {
	evs, ssrc, err := decodePacket(pkt)
	if err != nil {
		s.logger.Printf("rtpmidi: malformed data packet from %v: %v", addr, err)
		return
	}
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		s.peers.Store(ssrc, &peer{addr: udpAddr, ssrc: ssrc})
	}
	for _, ev := range evs {
		s.onEvent(ev)
	}
}

// send broadcasts ev to every known peer.
func (s *session) send(ev event.Event) error {
	s.mu.Lock()
	s.sequenceNumber++
	seq := s.sequenceNumber
	s.mu.Unlock()

	pkt := encodePacket(s.ssrc, seq, s.startTime, []event.Event{ev})

	var lastErr error
	s.peers.Range(func(_, v interface{}) bool {
		p := v.(*peer)
		if _, err := s.dataConn.WriteTo(pkt, p.addr); err != nil {
			lastErr = err
		}
		return true
	})
	return lastErr
}

func (s *session) end() {
	close(s.done)
	s.controlConn.Close()
	s.dataConn.Close()
	s.wg.Wait()
}
