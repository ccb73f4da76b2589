// Package session owns connection lifecycle: one Session per accepted TCP
// connection, with ordered inbound and outbound message queues, and a
// process-wide Registry mapping session and user ids to live sessions.
package session

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HolySSA/holyshit-game-server/internal/protocol"
)

// Handler consumes decoded inbound messages. Implemented by the dispatcher;
// declared here so the session layer does not depend on it.
type Handler interface {
	Dispatch(s *Session, id protocol.PacketID, seq uint32, payload []byte)
}

type outbound struct {
	id  protocol.PacketID
	seq uint32
	msg any
}

// Session is one client connection. The read loop decodes frames off the
// stream; inbound messages are handed to the Handler strictly in arrival
// order, and outbound messages hit the wire strictly in enqueue order. Both
// queues drain single-flight: a drain already in progress picks up new
// arrivals instead of a second drain starting.
type Session struct {
	ID string

	conn     net.Conn
	handler  Handler
	registry *Registry
	log      *zap.Logger

	mu     sync.Mutex
	userID int
	roomID int

	inMu       sync.Mutex
	inQueue    []*protocol.Frame
	inDraining bool

	outMu       sync.Mutex
	outQueue    []outbound
	outDraining bool

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// New creates a session for an accepted connection and registers it.
func New(conn net.Conn, handler Handler, registry *Registry, log *zap.Logger) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		conn:     conn,
		handler:  handler,
		registry: registry,
	}
	s.log = log.With(zap.String("sessionId", s.ID))
	registry.Add(s)
	return s
}

// Run is the read loop. It blocks until the peer closes, the transport
// fails, or Close is called, then runs disconnect cleanup exactly once.
func (s *Session) Run() {
	defer s.Close()

	var decoder protocol.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			decoder.Feed(buf[:n])
			for {
				frame, derr := decoder.Next()
				if derr != nil {
					// Malformed frame: drop it, keep the connection.
					s.log.Warn("protocol error, frame dropped", zap.Error(derr))
					continue
				}
				if frame == nil {
					break
				}
				s.enqueueInbound(frame)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Info("connection read ended", zap.Error(err))
			}
			return
		}
	}
}

// enqueueInbound appends a decoded frame and drains the queue unless a drain
// is already in flight.
func (s *Session) enqueueInbound(f *protocol.Frame) {
	s.inMu.Lock()
	s.inQueue = append(s.inQueue, f)
	if s.inDraining {
		s.inMu.Unlock()
		return
	}
	s.inDraining = true
	for len(s.inQueue) > 0 {
		next := s.inQueue[0]
		s.inQueue = s.inQueue[1:]
		s.inMu.Unlock()
		s.handler.Dispatch(s, next.ID, next.Seq, next.Payload)
		s.inMu.Lock()
	}
	s.inDraining = false
	s.inMu.Unlock()
}

// Send enqueues an outbound message. Serialization failures are logged and
// the message is skipped; the wire order of the remaining messages matches
// enqueue order.
func (s *Session) Send(id protocol.PacketID, seq uint32, msg any) {
	s.outMu.Lock()
	s.outQueue = append(s.outQueue, outbound{id: id, seq: seq, msg: msg})
	if s.outDraining {
		s.outMu.Unlock()
		return
	}
	s.outDraining = true
	for len(s.outQueue) > 0 {
		next := s.outQueue[0]
		s.outQueue = s.outQueue[1:]
		s.outMu.Unlock()
		s.write(next)
		s.outMu.Lock()
	}
	s.outDraining = false
	s.outMu.Unlock()
}

func (s *Session) write(o outbound) {
	payload, err := protocol.EncodePayload(o.msg)
	if err != nil {
		s.log.Error("encode outbound payload", zap.Uint16("packetId", uint16(o.id)), zap.Error(err))
		return
	}
	wire, err := protocol.EncodeFrame(o.id, o.seq, payload)
	if err != nil {
		s.log.Error("encode outbound frame", zap.Uint16("packetId", uint16(o.id)), zap.Error(err))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.conn.Write(wire); err != nil {
		s.log.Info("connection write failed", zap.Error(err))
	}
}

// SetUser associates the session with an authenticated user id and indexes
// it in the registry, evicting any previous session of the same user.
func (s *Session) SetUser(userID int) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
	s.registry.BindUser(userID, s)
}

// SetRoom records the room the session's user has joined (0 = none).
func (s *Session) SetRoom(roomID int) {
	s.mu.Lock()
	s.roomID = roomID
	s.mu.Unlock()
}

func (s *Session) UserID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) RoomID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// detachUser strips the user association before an eviction so the old
// session's teardown does not touch the user's fresh state.
func (s *Session) detachUser() {
	s.mu.Lock()
	s.userID = 0
	s.roomID = 0
	s.mu.Unlock()
}

// Close tears the session down: idempotent, cancels the read loop by closing
// the socket, and notifies the registry, which fans out removal to
// subscribers.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
		s.registry.Remove(s)
		s.log.Info("session closed")
	})
}
