// Package handlers implements the game's packet handlers: authentication,
// movement, card play, reactions and room leave. Handlers validate fully
// before mutating and answer every request with a success/fail-coded
// response.
package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/HolySSA/holyshit-game-server/internal/auth"
	"github.com/HolySSA/holyshit-game-server/internal/dispatch"
	"github.com/HolySSA/holyshit-game-server/internal/game"
	"github.com/HolySSA/holyshit-game-server/internal/protocol"
	"github.com/HolySSA/holyshit-game-server/internal/session"
)

// GameHandlers wires the packet handlers to the registries and collaborators.
type GameHandlers struct {
	auth  auth.Validator
	users *game.UserRegistry
	rooms *game.RoomRegistry
	log   *zap.Logger
}

func New(validator auth.Validator, users *game.UserRegistry, rooms *game.RoomRegistry, log *zap.Logger) *GameHandlers {
	return &GameHandlers{auth: validator, users: users, rooms: rooms, log: log}
}

// Register installs every handler. Called once at boot.
func (h *GameHandlers) Register(d *dispatch.Dispatcher) {
	d.RegisterHandler(protocol.PacketGameServerInitRequest, h.HandleGameServerInit)
	d.RegisterHandler(protocol.PacketPositionUpdateRequest, h.HandlePositionUpdate)
	d.RegisterHandler(protocol.PacketUseCardRequest, h.HandleUseCard)
	d.RegisterHandler(protocol.PacketReactionRequest, h.HandleReaction)
	d.RegisterHandler(protocol.PacketLeaveRoomRequest, h.HandleLeaveRoom)
}

// HandleGameServerInit validates the lobby token, creates the user record
// and joins the token's room. The room broadcasts the game-start state by
// itself once the roster fills.
func (h *GameHandlers) HandleGameServerInit(s *session.Session, seq uint32, msg any) *dispatch.Response {
	req := msg.(*protocol.C2SGameServerInitRequest)

	claims, err := h.auth.Validate(context.Background(), req.Token)
	if err != nil {
		h.log.Info("authentication failed", zap.String("sessionId", s.ID), zap.Error(err))
		return dispatch.Reply(protocol.PacketGameServerInitResponse, seq, &protocol.S2CGameServerInitResponse{
			Success: false, FailCode: protocol.FailAuthenticationFailed,
		})
	}

	user := h.users.Create(&game.User{
		ID:       claims.UserID,
		Nickname: claims.Nickname,
		Character: &game.Character{
			Type:  claims.CharacterType,
			Role:  claims.RoleType,
			HP:    claims.HP,
			State: protocol.StateNone,
		},
	})
	s.SetUser(claims.UserID)

	room := h.rooms.GetOrCreate(game.RoomData{
		ID:       claims.RoomID,
		OwnerID:  claims.OwnerID,
		Name:     claims.RoomName,
		MaxUsers: claims.MaxUsers,
	})
	if err := room.Join(user); err != nil {
		h.users.Remove(claims.UserID)
		return dispatch.Reply(protocol.PacketGameServerInitResponse, seq, &protocol.S2CGameServerInitResponse{
			Success: false, FailCode: failCodeFor(err),
		})
	}
	s.SetRoom(claims.RoomID)

	return dispatch.Reply(protocol.PacketGameServerInitResponse, seq, &protocol.S2CGameServerInitResponse{
		Success: true, FailCode: protocol.FailNone,
	})
}

// HandlePositionUpdate moves the caller and fans the new position list out
// to the other members.
func (h *GameHandlers) HandlePositionUpdate(s *session.Session, seq uint32, msg any) *dispatch.Response {
	req := msg.(*protocol.C2SPositionUpdateRequest)

	room, err := h.rooms.Get(s.RoomID())
	if err != nil {
		return dispatch.Reply(protocol.PacketPositionUpdateResponse, seq, &protocol.S2CPositionUpdateResponse{
			Success: false, FailCode: protocol.FailRoomNotFound,
		})
	}
	positions, err := room.UpdatePosition(s.UserID(), req.X, req.Y)
	if err != nil {
		return dispatch.Reply(protocol.PacketPositionUpdateResponse, seq, &protocol.S2CPositionUpdateResponse{
			Success: false, FailCode: failCodeFor(err),
		})
	}

	return dispatch.Reply(protocol.PacketPositionUpdateResponse, seq, &protocol.S2CPositionUpdateResponse{
		Success: true, FailCode: protocol.FailNone,
	}).Then(dispatch.Broadcast(protocol.PacketPositionUpdateNotification, &protocol.S2CPositionUpdateNotification{
		Positions: positions,
	}, exclude(room.MemberIDs(), s.UserID())))
}

// HandleUseCard plays a card from the caller's hand and notifies the room of
// the play and the updated roster.
func (h *GameHandlers) HandleUseCard(s *session.Session, seq uint32, msg any) *dispatch.Response {
	req := msg.(*protocol.C2SUseCardRequest)

	room, err := h.rooms.Get(s.RoomID())
	if err != nil {
		return dispatch.Reply(protocol.PacketUseCardResponse, seq, &protocol.S2CUseCardResponse{
			Success: false, FailCode: protocol.FailRoomNotFound,
		})
	}
	if err := room.UseCard(s.UserID(), req.TargetUserID, req.CardType); err != nil {
		return dispatch.Reply(protocol.PacketUseCardResponse, seq, &protocol.S2CUseCardResponse{
			Success: false, FailCode: failCodeFor(err),
		})
	}

	members := room.MemberIDs()
	return dispatch.Reply(protocol.PacketUseCardResponse, seq, &protocol.S2CUseCardResponse{
		Success: true, FailCode: protocol.FailNone,
	}).Then(dispatch.Broadcast(protocol.PacketUseCardNotification, &protocol.S2CUseCardNotification{
		CardType:     req.CardType,
		UserID:       s.UserID(),
		TargetUserID: req.TargetUserID,
	}, members)).Then(dispatch.Broadcast(protocol.PacketUserUpdateNotification, &protocol.S2CUserUpdateNotification{
		Users: room.UserList(),
	}, members))
}

// HandleReaction resolves the caller's pending interaction. The room
// broadcasts the roster update and any game-end notification itself, in
// that order.
func (h *GameHandlers) HandleReaction(s *session.Session, seq uint32, msg any) *dispatch.Response {
	room, err := h.rooms.Get(s.RoomID())
	if err != nil {
		return dispatch.Reply(protocol.PacketReactionResponse, seq, &protocol.S2CReactionResponse{
			Success: false, FailCode: protocol.FailRoomNotFound,
		})
	}
	if err := room.Reaction(s.UserID()); err != nil {
		return dispatch.Reply(protocol.PacketReactionResponse, seq, &protocol.S2CReactionResponse{
			Success: false, FailCode: failCodeFor(err),
		})
	}
	return dispatch.Reply(protocol.PacketReactionResponse, seq, &protocol.S2CReactionResponse{
		Success: true, FailCode: protocol.FailNone,
	})
}

// HandleLeaveRoom removes the caller from their room (return to lobby) and
// notifies the remaining members.
func (h *GameHandlers) HandleLeaveRoom(s *session.Session, seq uint32, msg any) *dispatch.Response {
	userID, roomID := s.UserID(), s.RoomID()
	room, err := h.rooms.Get(roomID)
	if err != nil {
		return dispatch.Reply(protocol.PacketLeaveRoomResponse, seq, &protocol.S2CLeaveRoomResponse{
			Success: false, FailCode: protocol.FailRoomNotFound,
		})
	}
	remaining := exclude(room.MemberIDs(), userID)

	h.rooms.Leave(roomID, userID)
	h.users.Remove(userID)
	s.SetRoom(0)

	return dispatch.Reply(protocol.PacketLeaveRoomResponse, seq, &protocol.S2CLeaveRoomResponse{
		Success: true, FailCode: protocol.FailNone,
	}).Then(dispatch.Broadcast(protocol.PacketLeaveRoomNotification, &protocol.S2CLeaveRoomNotification{
		UserID: userID,
	}, remaining))
}

// OnSessionRemoved is the session registry's removal subscriber: a transport
// failure walks the same leave path as an explicit leave.
func (h *GameHandlers) OnSessionRemoved(sessionID string, userID, roomID int) {
	if userID == 0 {
		return
	}
	if roomID != 0 {
		h.rooms.Leave(roomID, userID)
	}
	h.users.Remove(userID)
	h.log.Info("disconnected user cleaned up",
		zap.String("sessionId", sessionID), zap.Int("userId", userID), zap.Int("roomId", roomID))
}

func failCodeFor(err error) protocol.FailCode {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return protocol.FailRoomNotFound
	case errors.Is(err, game.ErrUserNotFound):
		return protocol.FailUserNotFound
	case errors.Is(err, game.ErrCardNotFound):
		return protocol.FailCardNotFound
	case errors.Is(err, game.ErrInvalidTarget):
		return protocol.FailInvalidTarget
	case errors.Is(err, game.ErrGameFinished):
		return protocol.FailGameFinished
	default:
		return protocol.FailInvalidRequest
	}
}

func exclude(ids []int, skip int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != skip {
			out = append(out, id)
		}
	}
	return out
}
