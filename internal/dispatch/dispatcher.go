// Package dispatch routes decoded inbound messages to registered handlers
// and delivers their outbound message chains through the session registry.
package dispatch

import (
	"go.uber.org/zap"

	"github.com/HolySSA/holyshit-game-server/internal/protocol"
	"github.com/HolySSA/holyshit-game-server/internal/session"
)

// HandlerFunc processes one inbound message and returns the outbound chain
// to deliver, or nil for silence.
type HandlerFunc func(s *session.Session, seq uint32, msg any) *Response

// Dispatcher maps packet ids to handlers. Registration happens once,
// deterministically, at boot; re-registering an id overwrites.
type Dispatcher struct {
	handlers map[protocol.PacketID]HandlerFunc
	sessions *session.Registry
	seq      *protocol.Sequence
	log      *zap.Logger
}

func New(sessions *session.Registry, seq *protocol.Sequence, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[protocol.PacketID]HandlerFunc),
		sessions: sessions,
		seq:      seq,
		log:      log,
	}
}

// RegisterHandler installs the handler for a packet id.
func (d *Dispatcher) RegisterHandler(id protocol.PacketID, fn HandlerFunc) {
	d.handlers[id] = fn
}

// Dispatch decodes the payload, invokes the handler for the packet id and
// delivers the resulting chain. Unknown packet ids and undecodable payloads
// are logged and dropped without closing the connection; a panicking handler
// fails only that one message.
func (d *Dispatcher) Dispatch(s *session.Session, id protocol.PacketID, seq uint32, payload []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("handler panicked",
				zap.String("sessionId", s.ID),
				zap.Uint16("packetId", uint16(id)),
				zap.Uint32("sequence", seq),
				zap.Any("panic", rec))
		}
	}()

	fn, ok := d.handlers[id]
	if !ok {
		d.log.Warn("no handler for packet", zap.Uint16("packetId", uint16(id)), zap.String("sessionId", s.ID))
		return
	}
	msg, err := protocol.DecodePayload(id, payload)
	if err != nil {
		d.log.Warn("undecodable payload, message dropped",
			zap.Uint16("packetId", uint16(id)), zap.String("sessionId", s.ID), zap.Error(err))
		return
	}

	d.deliver(s, fn(s, seq, msg))
}

// deliver walks the chain in order. A multicast target without a live
// session skips that single delivery; the rest of the chain proceeds.
func (d *Dispatcher) deliver(s *session.Session, chain *Response) {
	for node := chain; node != nil; node = node.next {
		if len(node.Targets) == 0 {
			s.Send(node.ID, node.Seq, node.Msg)
			continue
		}
		seq := node.Seq
		if seq == 0 {
			seq = d.seq.Next()
		}
		for _, userID := range node.Targets {
			target, ok := d.sessions.ByUser(userID)
			if !ok {
				d.log.Debug("broadcast target not connected", zap.Int("userId", userID), zap.Uint16("packetId", uint16(node.ID)))
				continue
			}
			target.Send(node.ID, seq, node.Msg)
		}
	}
}

// Send delivers a single server-originated message to a user's session,
// satisfying the room engine's Sender dependency.
func (d *Dispatcher) Send(userID int, id protocol.PacketID, msg any) bool {
	target, ok := d.sessions.ByUser(userID)
	if !ok {
		d.log.Debug("send target not connected", zap.Int("userId", userID), zap.Uint16("packetId", uint16(id)))
		return false
	}
	target.Send(id, d.seq.Next(), msg)
	return true
}
