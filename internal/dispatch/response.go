package dispatch

import "github.com/HolySSA/holyshit-game-server/internal/protocol"

// Response is one node of an outbound message chain. A node without targets
// is a unicast back to the invoking session; a node with targets is a
// multicast to those user ids. Nodes are delivered strictly in chain order.
type Response struct {
	ID      protocol.PacketID
	Seq     uint32
	Msg     any
	Targets []int

	next *Response
}

// Reply builds a unicast response echoing the request's sequence number.
func Reply(id protocol.PacketID, seq uint32, msg any) *Response {
	return &Response{ID: id, Seq: seq, Msg: msg}
}

// Broadcast builds a multicast node. The dispatcher assigns a fresh sequence
// number at delivery time.
func Broadcast(id protocol.PacketID, msg any, targets []int) *Response {
	return &Response{ID: id, Msg: msg, Targets: targets}
}

// Then appends a node to the end of the chain and returns the head, so
// chains read in delivery order: Reply(...).Then(Broadcast(...)).
func (r *Response) Then(next *Response) *Response {
	if r == nil {
		return next
	}
	tail := r
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = next
	return r
}
