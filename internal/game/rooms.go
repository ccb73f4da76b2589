package game

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/HolySSA/holyshit-game-server/internal/protocol"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomRegistry creates, looks up and destroys rooms by id. It is the only
// process-wide owner of Room pointers; its map is guarded by an internal
// lock since joins and disconnects arrive from many sessions at once.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[int]*Room

	durations PhaseDurations
	sender    Sender
	stats     StatsRecorder
	seq       *protocol.Sequence
	log       *zap.Logger
}

func NewRoomRegistry(durations PhaseDurations, sender Sender, stats StatsRecorder, seq *protocol.Sequence, log *zap.Logger) *RoomRegistry {
	return &RoomRegistry{
		rooms:     make(map[int]*Room),
		durations: durations,
		sender:    sender,
		stats:     stats,
		seq:       seq,
		log:       log,
	}
}

// GetOrCreate returns the room for data.ID, creating it on first join.
func (rr *RoomRegistry) GetOrCreate(data RoomData) *Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if room, ok := rr.rooms[data.ID]; ok {
		return room
	}
	room := NewRoom(data, rr.durations, rr.sender, rr.stats, rr.seq, rr.log)
	rr.rooms[data.ID] = room
	rr.log.Info("room created", zap.Int("roomId", data.ID), zap.Int("maxUsers", data.MaxUsers))
	return room
}

// Get returns the room with the given id.
func (rr *RoomRegistry) Get(roomID int) (*Room, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	room, ok := rr.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Remove drops a room from the registry.
func (rr *RoomRegistry) Remove(roomID int) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if _, ok := rr.rooms[roomID]; ok {
		delete(rr.rooms, roomID)
		rr.log.Info("room removed", zap.Int("roomId", roomID))
	}
}

// Leave routes a leave (explicit or disconnect) to the room and removes the
// room once its membership hits zero.
func (rr *RoomRegistry) Leave(roomID, userID int) {
	room, err := rr.Get(roomID)
	if err != nil {
		return
	}
	if empty := room.Leave(userID); empty {
		rr.Remove(roomID)
	}
}

// Rooms snapshots the live rooms, for the ops surface.
func (rr *RoomRegistry) Rooms() []*Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	out := make([]*Room, 0, len(rr.rooms))
	for _, room := range rr.rooms {
		out = append(out, room)
	}
	return out
}
