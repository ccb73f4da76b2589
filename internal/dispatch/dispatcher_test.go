package dispatch

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HolySSA/holyshit-game-server/internal/protocol"
	"github.com/HolySSA/holyshit-game-server/internal/session"
)

// testPeer is one connected client: the server-side session plus a decoder
// goroutine collecting everything written to the client side.
type testPeer struct {
	sess   *session.Session
	client net.Conn
	frames <-chan *protocol.Frame
}

func newTestPeer(t *testing.T, d *Dispatcher, registry *session.Registry) *testPeer {
	t.Helper()
	server, client := net.Pipe()
	sess := session.New(server, d, registry, zap.NewNop())
	t.Cleanup(func() {
		sess.Close()
		client.Close()
	})

	out := make(chan *protocol.Frame, 16)
	go func() {
		defer close(out)
		var decoder protocol.Decoder
		buf := make([]byte, 4096)
		for {
			n, err := client.Read(buf)
			if n > 0 {
				decoder.Feed(buf[:n])
				for {
					frame, derr := decoder.Next()
					if derr != nil || frame == nil {
						break
					}
					out <- frame
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return &testPeer{sess: sess, client: client, frames: out}
}

func (p *testPeer) recv(t *testing.T) *protocol.Frame {
	t.Helper()
	select {
	case f, ok := <-p.frames:
		require.True(t, ok, "connection closed before frame arrived")
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func (p *testPeer) expectSilence(t *testing.T) {
	t.Helper()
	select {
	case f := <-p.frames:
		t.Fatalf("unexpected frame: packet %d seq %d", f.ID, f.Seq)
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry(zap.NewNop())
	return New(registry, protocol.NewSequence(), zap.NewNop()), registry
}

func TestDispatchUnknownPacketIsDropped(t *testing.T) {
	d, registry := newTestDispatcher(t)
	peer := newTestPeer(t, d, registry)

	d.Dispatch(peer.sess, protocol.PacketID(999), 1, []byte(`{}`))
	peer.expectSilence(t)
}

func TestDispatchUndecodablePayloadIsDropped(t *testing.T) {
	d, registry := newTestDispatcher(t)
	called := false
	d.RegisterHandler(protocol.PacketReactionRequest, func(*session.Session, uint32, any) *Response {
		called = true
		return nil
	})
	peer := newTestPeer(t, d, registry)

	d.Dispatch(peer.sess, protocol.PacketReactionRequest, 1, []byte(`{not json`))
	peer.expectSilence(t)
	assert.False(t, called, "handler must not see an undecodable payload")
}

func TestDispatchContainsHandlerPanic(t *testing.T) {
	d, registry := newTestDispatcher(t)
	d.RegisterHandler(protocol.PacketReactionRequest, func(*session.Session, uint32, any) *Response {
		panic("boom")
	})
	peer := newTestPeer(t, d, registry)

	assert.NotPanics(t, func() {
		d.Dispatch(peer.sess, protocol.PacketReactionRequest, 7, []byte(`{}`))
	})

	// the session survives and later messages still flow
	d.RegisterHandler(protocol.PacketReactionRequest, func(_ *session.Session, seq uint32, _ any) *Response {
		return Reply(protocol.PacketReactionResponse, seq, &protocol.S2CReactionResponse{Success: true})
	})
	d.Dispatch(peer.sess, protocol.PacketReactionRequest, 8, []byte(`{}`))
	f := peer.recv(t)
	assert.Equal(t, protocol.PacketReactionResponse, f.ID)
	assert.Equal(t, uint32(8), f.Seq)
}

func TestReplyEchoesRequestSequence(t *testing.T) {
	d, registry := newTestDispatcher(t)
	d.RegisterHandler(protocol.PacketPositionUpdateRequest, func(_ *session.Session, seq uint32, _ any) *Response {
		return Reply(protocol.PacketPositionUpdateResponse, seq, &protocol.S2CPositionUpdateResponse{Success: true})
	})
	peer := newTestPeer(t, d, registry)

	d.Dispatch(peer.sess, protocol.PacketPositionUpdateRequest, 41, []byte(`{"x":1,"y":2}`))
	f := peer.recv(t)
	assert.Equal(t, uint32(41), f.Seq)
}

func TestChainDeliveredInOrder(t *testing.T) {
	d, registry := newTestDispatcher(t)
	caller := newTestPeer(t, d, registry)
	caller.sess.SetUser(1)
	other := newTestPeer(t, d, registry)
	other.sess.SetUser(2)

	d.RegisterHandler(protocol.PacketUseCardRequest, func(_ *session.Session, seq uint32, _ any) *Response {
		return Reply(protocol.PacketUseCardResponse, seq, &protocol.S2CUseCardResponse{Success: true}).
			Then(Broadcast(protocol.PacketUseCardNotification, &protocol.S2CUseCardNotification{}, []int{1, 2})).
			Then(Broadcast(protocol.PacketUserUpdateNotification, &protocol.S2CUserUpdateNotification{}, []int{1, 2}))
	})

	d.Dispatch(caller.sess, protocol.PacketUseCardRequest, 5, []byte(`{}`))

	first := caller.recv(t)
	assert.Equal(t, protocol.PacketUseCardResponse, first.ID)
	assert.Equal(t, uint32(5), first.Seq)

	second := caller.recv(t)
	assert.Equal(t, protocol.PacketUseCardNotification, second.ID)
	third := caller.recv(t)
	assert.Equal(t, protocol.PacketUserUpdateNotification, third.ID)

	// one multicast node carries one sequence number for all its targets
	otherSecond := other.recv(t)
	assert.Equal(t, second.Seq, otherSecond.Seq)
	otherThird := other.recv(t)
	assert.Equal(t, third.Seq, otherThird.Seq)
	assert.NotEqual(t, second.Seq, third.Seq)
}

func TestBroadcastSkipsDisconnectedTarget(t *testing.T) {
	d, registry := newTestDispatcher(t)
	caller := newTestPeer(t, d, registry)
	caller.sess.SetUser(1)

	d.RegisterHandler(protocol.PacketLeaveRoomRequest, func(_ *session.Session, seq uint32, _ any) *Response {
		return Broadcast(protocol.PacketLeaveRoomNotification, &protocol.S2CLeaveRoomNotification{UserID: 99}, []int{99, 1})
	})

	d.Dispatch(caller.sess, protocol.PacketLeaveRoomRequest, 1, []byte(`{}`))

	// user 99 has no session; the node still reaches user 1
	f := caller.recv(t)
	assert.Equal(t, protocol.PacketLeaveRoomNotification, f.ID)
}

func TestSenderSend(t *testing.T) {
	d, registry := newTestDispatcher(t)
	peer := newTestPeer(t, d, registry)
	peer.sess.SetUser(3)

	assert.True(t, d.Send(3, protocol.PacketPhaseUpdateNotification, &protocol.S2CPhaseUpdateNotification{Phase: protocol.PhaseEvening}))
	f := peer.recv(t)
	assert.Equal(t, protocol.PacketPhaseUpdateNotification, f.ID)
	assert.NotZero(t, f.Seq, "server-originated messages get a fresh sequence")

	assert.False(t, d.Send(77, protocol.PacketPhaseUpdateNotification, &protocol.S2CPhaseUpdateNotification{}))
}
